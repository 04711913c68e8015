package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bookswap/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrBookNotFound      = errors.New("book not found")
	ErrRoomNotFound      = errors.New("chat room not found")
	ErrPartnerNotFound   = errors.New("chat partner not found")
	ErrAlreadyLiked      = errors.New("book already liked by user")
)

// Store is the persistence boundary for users, books, chat rooms and the
// per-user chat-partner index. Implementations must make AddLike and
// CreateChatRoom conditional writes: they either apply atomically or
// report the conflict, never check-then-set.
type Store interface {
	// User methods
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastSeen(ctx context.Context, userID uuid.UUID) error

	// Book methods
	CreateBook(ctx context.Context, book *models.Book) error
	GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error)
	ListBooks(ctx context.Context) ([]*models.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	// AddLike records userID in the book's likes set. Returns
	// ErrAlreadyLiked if the user is already in the set.
	AddLike(ctx context.Context, bookID, userID uuid.UUID) error

	// Pairing methods
	// CreateChatRoom inserts the room and its seed message as one write,
	// conditional on no room existing for the room's canonical user pair.
	// When a room for the pair already exists, created is false and
	// existingID carries its id; nothing is written.
	CreateChatRoom(ctx context.Context, room *models.ChatRoom, seed *models.Message) (created bool, existingID uuid.UUID, err error)
	GetChatRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error)
	// PutChatPartner upserts one index entry; writing an entry that is
	// already present is a no-op.
	PutChatPartner(ctx context.Context, entry *models.ChatPartner) error
	GetChatPartner(ctx context.Context, userID, partnerID uuid.UUID) (*models.ChatPartner, error)
	ListChatPartners(ctx context.Context, userID uuid.UUID) ([]*models.ChatPartner, error)

	// Message methods
	AppendMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, chatRoomID uuid.UUID) ([]*models.Message, error)

	Close() error
}

type StoreType string

const (
	PostgreSQL StoreType = "postgres"
	Memory     StoreType = "memory"
)

// NewStore builds a Store implementation by type. connStr is ignored for
// the memory store.
func NewStore(storeType StoreType, connStr string) (Store, error) {
	switch storeType {
	case PostgreSQL:
		return NewPostgresStore(connStr)
	case Memory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
