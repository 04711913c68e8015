package pairing

import "errors"

var (
	// ErrOwnBook rejects a user liking their own listing. Pairing a user
	// with themselves would give the room two identical participants.
	ErrOwnBook = errors.New("cannot like your own book")

	// ErrIndexInconsistent means a chat-partner entry references a room
	// that no longer exists. Surfaced, never silently repaired, so index
	// drift shows up in logs instead of as duplicate rooms.
	ErrIndexInconsistent = errors.New("chat-partner index references a missing chat room")

	// ErrStoreUnavailable is returned when the find-or-create sequence
	// keeps losing races past the retry budget.
	ErrStoreUnavailable = errors.New("store unavailable")
)
