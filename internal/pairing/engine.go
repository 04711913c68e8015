// Package pairing implements the like → chat-room protocol: a like on a
// book connects the liker and the book's owner through exactly one chat
// room per user pair, found through the per-user chat-partner index and
// created under a conditional write when the pair meets for the first
// time.
package pairing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bookswap/internal/chat"
	"bookswap/internal/logger"
	"bookswap/internal/models"
	"bookswap/internal/store"
)

var log = logger.New("pairing")

// createAttempts bounds the find-or-create loop when concurrent likes
// race for the same pair.
const createAttempts = 3

// Engine runs the like protocol against a Store.
type Engine struct {
	store store.Store
}

// NewEngine creates a pairing engine
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// LikeResult is what a successful like returns to the caller.
type LikeResult struct {
	ChatRoomID    uuid.UUID                `json:"chat_room_id"`
	OwnerUsername string                   `json:"owner_username"`
	Messages      []models.MessageResponse `json:"messages"`
}

// LikeBook records actingUserID's like on the book, pairs the two users
// into their shared chat room (creating and seeding it on first contact),
// mirrors the chat-partner index on both sides, and returns the room with
// its current messages.
//
// The steps run as a saga over separate documents, in this order: like →
// room find-or-create with seed message → both chat-partner entries. A
// failure after the like is recorded leaves a partial state; it is logged
// with the ids needed for reconciliation and the error is returned.
func (e *Engine) LikeBook(ctx context.Context, actingUserID, bookID uuid.UUID) (*LikeResult, error) {
	book, err := e.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.OwnerID == actingUserID {
		return nil, ErrOwnBook
	}

	actor, err := e.store.GetUserByID(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	owner, err := e.store.GetUserByID(ctx, book.OwnerID)
	if err != nil {
		return nil, err
	}

	if err := e.store.AddLike(ctx, bookID, actingUserID); err != nil {
		return nil, err
	}

	roomID, err := e.pairWithOwner(ctx, actor, owner, book)
	if err != nil {
		log.Error("like recorded but pairing incomplete: book=%s actor=%s owner=%s: %v",
			bookID, actor.ID, owner.ID, err)
		return nil, err
	}

	messages, err := e.store.ListMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}
	rendered, err := chat.RenderMessages(ctx, e.store, messages)
	if err != nil {
		return nil, err
	}

	return &LikeResult{
		ChatRoomID:    roomID,
		OwnerUsername: owner.Username,
		Messages:      rendered,
	}, nil
}

// pairWithOwner finds or creates the single room for the actor/owner pair
// and delivers the like notification into it. The chat-partner index is
// the canonical lookup; room creation is guarded by the store's
// conditional write on the canonical pair, so two first-contact likes
// racing each other converge on one room.
func (e *Engine) pairWithOwner(ctx context.Context, actor, owner *models.User, book *models.Book) (uuid.UUID, error) {
	notification := fmt.Sprintf("%s liked %q", actor.Username, book.Title)

	for attempt := 0; attempt < createAttempts; attempt++ {
		entry, err := e.store.GetChatPartner(ctx, actor.ID, owner.ID)
		switch {
		case err == nil:
			room, err := e.store.GetChatRoom(ctx, entry.ChatRoomID)
			if errors.Is(err, store.ErrRoomNotFound) {
				log.Error("chat-partner index drift: user=%s partner=%s room=%s missing",
					actor.ID, owner.ID, entry.ChatRoomID)
				return uuid.Nil, fmt.Errorf("room %s for pair (%s, %s): %w",
					entry.ChatRoomID, actor.ID, owner.ID, ErrIndexInconsistent)
			}
			if err != nil {
				return uuid.Nil, err
			}
			if err := e.appendNotification(ctx, room.ID, actor.ID, notification); err != nil {
				return uuid.Nil, err
			}
			return room.ID, nil

		case errors.Is(err, store.ErrPartnerNotFound):
			lo, hi := models.CanonicalPair(actor.ID, owner.ID)
			room := &models.ChatRoom{
				ID:        uuid.New(),
				BookID:    book.ID,
				UserLo:    lo,
				UserHi:    hi,
				CreatedAt: time.Now().UTC(),
			}
			seed := &models.Message{
				ID:         uuid.New(),
				ChatRoomID: room.ID,
				SenderID:   actor.ID,
				Body:       notification,
				CreatedAt:  time.Now().UTC(),
			}

			created, roomID, err := e.store.CreateChatRoom(ctx, room, seed)
			if errors.Is(err, store.ErrRoomNotFound) {
				// The winning room vanished between our insert and the
				// conflict lookup. Start the attempt over.
				continue
			}
			if err != nil {
				return uuid.Nil, err
			}

			if !created {
				// Another like for this pair won the race and seeded its
				// own notification. Adopt the surviving room and deliver
				// ours as an ordinary append.
				if err := e.appendNotification(ctx, roomID, actor.ID, notification); err != nil {
					return uuid.Nil, err
				}
			}
			if err := e.indexBothSides(ctx, actor.ID, owner.ID, roomID); err != nil {
				return uuid.Nil, err
			}
			return roomID, nil

		default:
			return uuid.Nil, err
		}
	}

	return uuid.Nil, fmt.Errorf("find-or-create for pair (%s, %s) exhausted %d attempts: %w",
		actor.ID, owner.ID, createAttempts, ErrStoreUnavailable)
}

func (e *Engine) appendNotification(ctx context.Context, roomID, senderID uuid.UUID, text string) error {
	return e.store.AppendMessage(ctx, &models.Message{
		ID:         uuid.New(),
		ChatRoomID: roomID,
		SenderID:   senderID,
		Body:       text,
		CreatedAt:  time.Now().UTC(),
	})
}

// indexBothSides writes the mirrored chat-partner entries. The writes are
// idempotent, so replaying them after a lost creation race converges both
// indexes instead of corrupting them.
func (e *Engine) indexBothSides(ctx context.Context, actorID, ownerID, roomID uuid.UUID) error {
	if err := e.store.PutChatPartner(ctx, &models.ChatPartner{
		UserID: actorID, PartnerID: ownerID, ChatRoomID: roomID,
	}); err != nil {
		return fmt.Errorf("index entry for %s: %w", actorID, err)
	}
	if err := e.store.PutChatPartner(ctx, &models.ChatPartner{
		UserID: ownerID, PartnerID: actorID, ChatRoomID: roomID,
	}); err != nil {
		return fmt.Errorf("mirrored index entry for %s: %w", ownerID, err)
	}
	return nil
}
