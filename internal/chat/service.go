package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookswap/internal/logger"
	"bookswap/internal/models"
	"bookswap/internal/store"
)

var (
	ErrNotParticipant = errors.New("user is not a participant of this chat room")
	ErrEmptyMessage   = errors.New("message body must not be empty")
)

var log = logger.New("chat")

// Notifier pushes a payload to a connected user, if any. The websocket
// manager satisfies this.
type Notifier interface {
	SendToUser(userID uuid.UUID, message []byte)
}

// Service reads and appends messages in existing chat rooms. Both
// operations require the caller to be one of the room's two participants.
type Service struct {
	store    store.Store
	notifier Notifier
}

// NewService creates a chat service. notifier may be nil; appends then
// skip the live push.
func NewService(s store.Store, notifier Notifier) *Service {
	return &Service{store: s, notifier: notifier}
}

// messageEvent is the payload pushed to the receiving participant.
type messageEvent struct {
	Type       string    `json:"type"`
	ChatRoomID uuid.UUID `json:"chat_room_id"`
	models.MessageResponse
}

// AppendMessage appends text to the room's sequence with a server-assigned
// timestamp and returns the rendered message.
func (s *Service) AppendMessage(ctx context.Context, chatRoomID, senderID uuid.UUID, text string) (*models.MessageResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	room, err := s.store.GetChatRoom(ctx, chatRoomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	msg := &models.Message{
		ID:         uuid.New(),
		ChatRoomID: chatRoomID,
		SenderID:   senderID,
		Body:       text,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	rendered, err := RenderMessages(ctx, s.store, []*models.Message{msg})
	if err != nil {
		return nil, err
	}

	s.push(room.OtherParticipant(senderID), chatRoomID, rendered[0])

	return &rendered[0], nil
}

func (s *Service) push(userID, chatRoomID uuid.UUID, msg models.MessageResponse) {
	if s.notifier == nil {
		return
	}
	payload, err := json.Marshal(messageEvent{
		Type:            "message",
		ChatRoomID:      chatRoomID,
		MessageResponse: msg,
	})
	if err != nil {
		log.Error("Failed to marshal message event: %v", err)
		return
	}
	s.notifier.SendToUser(userID, payload)
}

// ListMessages returns the room's full sequence, oldest first, for one of
// its participants.
func (s *Service) ListMessages(ctx context.Context, chatRoomID, requestingUserID uuid.UUID) ([]models.MessageResponse, error) {
	room, err := s.store.GetChatRoom(ctx, chatRoomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(requestingUserID) {
		return nil, ErrNotParticipant
	}

	messages, err := s.store.ListMessages(ctx, chatRoomID)
	if err != nil {
		return nil, err
	}
	return RenderMessages(ctx, s.store, messages)
}

// ListRooms returns one summary per entry of the user's chat-partner
// index, with partner usernames resolved.
func (s *Service) ListRooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoomSummary, error) {
	entries, err := s.store.ListChatPartners(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ChatRoomSummary, 0, len(entries))
	for _, entry := range entries {
		partner, err := s.store.GetUserByID(ctx, entry.PartnerID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.ChatRoomSummary{
			ChatRoomID:      entry.ChatRoomID,
			PartnerID:       entry.PartnerID,
			PartnerUsername: partner.Username,
		})
	}
	return summaries, nil
}

// RenderMessages resolves sender usernames and formats timestamps as
// RFC 3339, preserving order.
func RenderMessages(ctx context.Context, s store.Store, messages []*models.Message) ([]models.MessageResponse, error) {
	usernames := make(map[uuid.UUID]string)

	rendered := make([]models.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		username, ok := usernames[msg.SenderID]
		if !ok {
			sender, err := s.GetUserByID(ctx, msg.SenderID)
			if err != nil {
				return nil, err
			}
			username = sender.Username
			usernames[msg.SenderID] = username
		}
		rendered = append(rendered, models.MessageResponse{
			Text:           msg.Body,
			SenderUsername: username,
			CreatedAt:      msg.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rendered, nil
}
