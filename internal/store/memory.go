package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookswap/internal/models"
)

type pairKey struct {
	lo, hi uuid.UUID
}

type partnerKey struct {
	user, partner uuid.UUID
}

// MemoryStore keeps everything in-process behind one mutex. Used by tests
// and dev mode; the single lock makes every Store method, including the
// conditional writes, trivially atomic.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*models.User
	byName   map[string]uuid.UUID
	books    map[uuid.UUID]*models.Book
	bookIDs  []uuid.UUID
	likes    map[uuid.UUID]map[uuid.UUID]bool
	rooms    map[uuid.UUID]*models.ChatRoom
	byPair   map[pairKey]uuid.UUID
	partners map[partnerKey]*models.ChatPartner
	messages map[uuid.UUID][]*models.Message
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]*models.User),
		byName:   make(map[string]uuid.UUID),
		books:    make(map[uuid.UUID]*models.Book),
		likes:    make(map[uuid.UUID]map[uuid.UUID]bool),
		rooms:    make(map[uuid.UUID]*models.ChatRoom),
		byPair:   make(map[pairKey]uuid.UUID),
		partners: make(map[partnerKey]*models.ChatPartner),
		messages: make(map[uuid.UUID][]*models.Message),
	}
}

func (m *MemoryStore) CreateUser(_ context.Context, username, passwordHash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byName[username]; exists {
		return nil, ErrUserAlreadyExists
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
		LastSeen:     time.Now().UTC(),
	}
	m.users[user.ID] = user
	m.byName[username] = user.ID

	copied := *user
	return &copied, nil
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byName[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *m.users[id]
	return &copied, nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MemoryStore) UpdateLastSeen(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.LastSeen = time.Now().UTC()
	return nil
}

func (m *MemoryStore) CreateBook(_ context.Context, book *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *book
	m.books[book.ID] = &copied
	m.bookIDs = append(m.bookIDs, book.ID)
	m.likes[book.ID] = make(map[uuid.UUID]bool)
	return nil
}

func (m *MemoryStore) GetBook(_ context.Context, id uuid.UUID) (*models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, ok := m.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	copied := *book
	copied.LikedByUserIDs = m.likedBy(id)
	return &copied, nil
}

// likedBy must be called with the lock held.
func (m *MemoryStore) likedBy(bookID uuid.UUID) []uuid.UUID {
	var likes []uuid.UUID
	for userID := range m.likes[bookID] {
		likes = append(likes, userID)
	}
	return likes
}

func (m *MemoryStore) ListBooks(_ context.Context) ([]*models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	books := make([]*models.Book, 0, len(m.bookIDs))
	for _, id := range m.bookIDs {
		if book, ok := m.books[id]; ok {
			copied := *book
			copied.LikedByUserIDs = m.likedBy(id)
			books = append(books, &copied)
		}
	}
	return books, nil
}

func (m *MemoryStore) DeleteBook(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return ErrBookNotFound
	}
	delete(m.books, id)
	delete(m.likes, id)
	filtered := m.bookIDs[:0]
	for _, bookID := range m.bookIDs {
		if bookID != id {
			filtered = append(filtered, bookID)
		}
	}
	m.bookIDs = filtered
	return nil
}

func (m *MemoryStore) AddLike(_ context.Context, bookID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	likes, ok := m.likes[bookID]
	if !ok {
		return ErrBookNotFound
	}
	if likes[userID] {
		return ErrAlreadyLiked
	}
	likes[userID] = true
	return nil
}

func (m *MemoryStore) CreateChatRoom(_ context.Context, room *models.ChatRoom, seed *models.Message) (bool, uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey{lo: room.UserLo, hi: room.UserHi}
	if existingID, ok := m.byPair[key]; ok {
		return false, existingID, nil
	}

	copied := *room
	m.rooms[room.ID] = &copied
	m.byPair[key] = room.ID

	seedCopy := *seed
	m.messages[room.ID] = append(m.messages[room.ID], &seedCopy)
	return true, room.ID, nil
}

func (m *MemoryStore) GetChatRoom(_ context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (m *MemoryStore) PutChatPartner(_ context.Context, entry *models.ChatPartner) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := partnerKey{user: entry.UserID, partner: entry.PartnerID}
	if _, exists := m.partners[key]; exists {
		return nil
	}
	copied := *entry
	m.partners[key] = &copied
	return nil
}

func (m *MemoryStore) GetChatPartner(_ context.Context, userID, partnerID uuid.UUID) (*models.ChatPartner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.partners[partnerKey{user: userID, partner: partnerID}]
	if !ok {
		return nil, ErrPartnerNotFound
	}
	copied := *entry
	return &copied, nil
}

func (m *MemoryStore) ListChatPartners(_ context.Context, userID uuid.UUID) ([]*models.ChatPartner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []*models.ChatPartner
	for key, entry := range m.partners {
		if key.user == userID {
			copied := *entry
			entries = append(entries, &copied)
		}
	}
	return entries, nil
}

func (m *MemoryStore) AppendMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[msg.ChatRoomID]; !ok {
		return ErrRoomNotFound
	}
	copied := *msg
	m.messages[msg.ChatRoomID] = append(m.messages[msg.ChatRoomID], &copied)
	return nil
}

func (m *MemoryStore) ListMessages(_ context.Context, chatRoomID uuid.UUID) ([]*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.messages[chatRoomID]
	messages := make([]*models.Message, 0, len(stored))
	for _, msg := range stored {
		copied := *msg
		messages = append(messages, &copied)
	}
	return messages, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// DropRoom removes a chat room document while leaving any chat-partner
// entries that reference it in place. Test hook for exercising
// index-inconsistency detection.
func (m *MemoryStore) DropRoom(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return
	}
	delete(m.byPair, pairKey{lo: room.UserLo, hi: room.UserHi})
	delete(m.rooms, id)
}
