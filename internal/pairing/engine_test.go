package pairing

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookswap/internal/models"
	"bookswap/internal/store"
)

func newTestUser(t *testing.T, s store.Store, username string) *models.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), username, "hash")
	require.NoError(t, err)
	return user
}

func newTestBook(t *testing.T, s store.Store, owner *models.User, title string) *models.Book {
	t.Helper()
	book := &models.Book{
		ID:          uuid.New(),
		OwnerID:     owner.ID,
		Title:       title,
		Author:      "Frank Herbert",
		Description: "A copy in decent condition",
		Sharing:     models.SharingOptions{ForExchange: true},
	}
	require.NoError(t, s.CreateBook(context.Background(), book))
	return book
}

func TestLikeBookCreatesRoomWithNotification(t *testing.T) {
	s := store.NewMemoryStore()
	engine := NewEngine(s)
	ctx := context.Background()

	owner := newTestUser(t, s, "frank")
	liker := newTestUser(t, s, "paul")
	book := newTestBook(t, s, owner, "Dune")

	result, err := engine.LikeBook(ctx, liker.ID, book.ID)
	require.NoError(t, err)

	assert.Equal(t, "frank", result.OwnerUsername)
	assert.NotEqual(t, uuid.Nil, result.ChatRoomID)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "paul", result.Messages[0].SenderUsername)
	assert.Contains(t, result.Messages[0].Text, "Dune")

	// The like is recorded on the book
	stored, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, stored.LikedByUserIDs, 1)
	assert.Equal(t, liker.ID, stored.LikedByUserIDs[0])

	// Both chat-partner indexes reference the same room
	likerEntry, err := s.GetChatPartner(ctx, liker.ID, owner.ID)
	require.NoError(t, err)
	ownerEntry, err := s.GetChatPartner(ctx, owner.ID, liker.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ChatRoomID, likerEntry.ChatRoomID)
	assert.Equal(t, result.ChatRoomID, ownerEntry.ChatRoomID)
}

func TestLikeBookMissingBook(t *testing.T) {
	s := store.NewMemoryStore()
	engine := NewEngine(s)

	user := newTestUser(t, s, "paul")

	_, err := engine.LikeBook(context.Background(), user.ID, uuid.New())
	assert.ErrorIs(t, err, store.ErrBookNotFound)
}

func TestLikeBookTwiceFails(t *testing.T) {
	s := store.NewMemoryStore()
	engine := NewEngine(s)
	ctx := context.Background()

	owner := newTestUser(t, s, "frank")
	liker := newTestUser(t, s, "paul")
	book := newTestBook(t, s, owner, "Dune")

	first, err := engine.LikeBook(ctx, liker.ID, book.ID)
	require.NoError(t, err)

	_, err = engine.LikeBook(ctx, liker.ID, book.ID)
	assert.ErrorIs(t, err, store.ErrAlreadyLiked)

	// No duplicate room and no duplicate notification
	messages, err := s.ListMessages(ctx, first.ChatRoomID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestLikeOwnBookRejected(t *testing.T) {
	s := store.NewMemoryStore()
	engine := NewEngine(s)
	ctx := context.Background()

	owner := newTestUser(t, s, "frank")
	book := newTestBook(t, s, owner, "Dune")

	_, err := engine.LikeBook(ctx, owner.ID, book.ID)
	assert.ErrorIs(t, err, ErrOwnBook)

	// Store unchanged: no like, no room
	stored, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.LikedByUserIDs)
	_, err = s.GetChatPartner(ctx, owner.ID, owner.ID)
	assert.ErrorIs(t, err, store.ErrPartnerNotFound)
}

func TestSecondBookReusesRoom(t *testing.T) {
	s := store.NewMemoryStore()
	engine := NewEngine(s)
	ctx := context.Background()

	owner := newTestUser(t, s, "frank")
	liker := newTestUser(t, s, "paul")
	dune := newTestBook(t, s, owner, "Dune")
	messiah := newTestBook(t, s, owner, "Dune Messiah")

	first, err := engine.LikeBook(ctx, liker.ID, dune.ID)
	require.NoError(t, err)

	second, err := engine.LikeBook(ctx, liker.ID, messiah.ID)
	require.NoError(t, err)

	// Same pair, same room, now with two notifications
	assert.Equal(t, first.ChatRoomID, second.ChatRoomID)
	require.Len(t, second.Messages, 2)
	assert.Contains(t, second.Messages[0].Text, "Dune")
	assert.Contains(t, second.Messages[1].Text, "Dune Messiah")
}

func TestReverseLikeReusesRoom(t *testing.T) {
	s := store.NewMemoryStore()
	engine := NewEngine(s)
	ctx := context.Background()

	u1 := newTestUser(t, s, "frank")
	u2 := newTestUser(t, s, "paul")
	bookOfU1 := newTestBook(t, s, u1, "Dune")
	bookOfU2 := newTestBook(t, s, u2, "Hyperion")

	first, err := engine.LikeBook(ctx, u2.ID, bookOfU1.ID)
	require.NoError(t, err)

	// The owner likes back: same unordered pair, same room
	second, err := engine.LikeBook(ctx, u1.ID, bookOfU2.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ChatRoomID, second.ChatRoomID)
}

func TestConcurrentFirstLikesCreateOneRoom(t *testing.T) {
	s := store.NewMemoryStore()
	engine := NewEngine(s)
	ctx := context.Background()

	u1 := newTestUser(t, s, "frank")
	u2 := newTestUser(t, s, "paul")
	bookOfU1 := newTestBook(t, s, u1, "Dune")
	bookOfU2 := newTestBook(t, s, u2, "Hyperion")

	var wg sync.WaitGroup
	results := make([]*LikeResult, 2)
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = engine.LikeBook(ctx, u2.ID, bookOfU1.ID)
	}()
	go func() {
		defer wg.Done()
		results[1], errs[1] = engine.LikeBook(ctx, u1.ID, bookOfU2.ID)
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0].ChatRoomID, results[1].ChatRoomID)

	// Indexes on both sides agree on the surviving room
	e1, err := s.GetChatPartner(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	e2, err := s.GetChatPartner(ctx, u2.ID, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, e1.ChatRoomID, e2.ChatRoomID)
	assert.Equal(t, results[0].ChatRoomID, e1.ChatRoomID)

	// Both notifications landed in the one room
	messages, err := s.ListMessages(ctx, e1.ChatRoomID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestIndexPointingAtMissingRoomSurfaces(t *testing.T) {
	s := store.NewMemoryStore()
	engine := NewEngine(s)
	ctx := context.Background()

	owner := newTestUser(t, s, "frank")
	liker := newTestUser(t, s, "paul")
	dune := newTestBook(t, s, owner, "Dune")
	messiah := newTestBook(t, s, owner, "Dune Messiah")

	first, err := engine.LikeBook(ctx, liker.ID, dune.ID)
	require.NoError(t, err)

	// Simulate index drift: the room document disappears while both
	// chat-partner entries keep referencing it.
	s.DropRoom(first.ChatRoomID)

	_, err = engine.LikeBook(ctx, liker.ID, messiah.ID)
	assert.ErrorIs(t, err, ErrIndexInconsistent)
}

func TestNotificationTextNamesLikerAndTitle(t *testing.T) {
	s := store.NewMemoryStore()
	engine := NewEngine(s)
	ctx := context.Background()

	owner := newTestUser(t, s, "frank")
	liker := newTestUser(t, s, "paul")
	book := newTestBook(t, s, owner, "Dune")

	result, err := engine.LikeBook(ctx, liker.ID, book.ID)
	require.NoError(t, err)

	require.Len(t, result.Messages, 1)
	text := result.Messages[0].Text
	assert.True(t, strings.Contains(text, "paul") && strings.Contains(text, "Dune"),
		"notification %q should name both the liker and the book", text)
}
