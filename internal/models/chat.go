package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatRoom is the single conversation between an unordered pair of users.
// Participants are stored canonically with UserLo < UserHi (lexical UUID
// order) so the pair can carry a uniqueness guarantee. BookID records the
// book whose like first created the room; it is a convenience reference
// only, the room itself is per-pair, not per-book.
type ChatRoom struct {
	ID        uuid.UUID `json:"id"`
	BookID    uuid.UUID `json:"book_id"`
	UserLo    uuid.UUID `json:"-"`
	UserHi    uuid.UUID `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// CanonicalPair orders two user IDs so that lo < hi lexically. Both
// participants of a pair map to the same (lo, hi) regardless of who acts.
func CanonicalPair(a, b uuid.UUID) (lo, hi uuid.UUID) {
	if a.String() < b.String() {
		return a, b
	}
	return b, a
}

// HasParticipant reports whether userID is one of the room's two members.
func (r *ChatRoom) HasParticipant(userID uuid.UUID) bool {
	return r.UserLo == userID || r.UserHi == userID
}

// OtherParticipant returns the member of the room that is not userID.
func (r *ChatRoom) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if r.UserLo == userID {
		return r.UserHi
	}
	return r.UserLo
}

// Message is one entry in a room's append-only sequence. Immutable once
// appended; CreatedAt is assigned server-side at append time.
type Message struct {
	ID         uuid.UUID `json:"id"`
	ChatRoomID uuid.UUID `json:"chat_room_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageRequest is the structure for message creation requests
type MessageRequest struct {
	Body string `json:"body" binding:"required,min=1"`
}

// MessageResponse is a message as rendered to clients: sender resolved to
// a username, timestamp in RFC 3339.
type MessageResponse struct {
	Text           string `json:"text"`
	SenderUsername string `json:"sender_username"`
	CreatedAt      string `json:"created_at"`
}

// ChatRoomSummary is one entry of a user's room list: the partner plus
// the shared room.
type ChatRoomSummary struct {
	ChatRoomID      uuid.UUID `json:"chat_room_id"`
	PartnerID       uuid.UUID `json:"partner_id"`
	PartnerUsername string    `json:"partner_username"`
}
