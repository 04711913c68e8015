package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver

	"bookswap/internal/models"
)

// PostgresStore implements Store on PostgreSQL. Conditional writes use
// unique indexes plus INSERT ... ON CONFLICT, so the idempotency of likes
// and the one-room-per-pair rule hold under concurrent requests.
type PostgresStore struct {
	*sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		last_seen TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		description TEXT NOT NULL,
		for_sale BOOLEAN NOT NULL DEFAULT FALSE,
		for_exchange BOOLEAN NOT NULL DEFAULT FALSE,
		for_borrow BOOLEAN NOT NULL DEFAULT FALSE,
		for_discussion BOOLEAN NOT NULL DEFAULT FALSE,
		cover_key TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS book_likes (
		book_id UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (book_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS chat_rooms (
		id UUID PRIMARY KEY,
		book_id UUID NOT NULL,
		user_lo UUID NOT NULL REFERENCES users(id),
		user_hi UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_lo, user_hi)
	)`,
	`CREATE TABLE IF NOT EXISTS chat_partners (
		user_id UUID NOT NULL REFERENCES users(id),
		partner_id UUID NOT NULL REFERENCES users(id),
		chat_room_id UUID NOT NULL REFERENCES chat_rooms(id),
		PRIMARY KEY (user_id, partner_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		chat_room_id UUID NOT NULL REFERENCES chat_rooms(id),
		sender_id UUID NOT NULL REFERENCES users(id),
		body TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_room_time ON messages (chat_room_id, created_at)`,
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return &PostgresStore{db}, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
		LastSeen:     time.Now().UTC(),
	}

	_, err := s.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at, last_seen)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (username) DO NOTHING`,
		user.ID, user.Username, user.PasswordHash, user.CreatedAt, user.LastSeen,
	)
	if err != nil {
		return nil, err
	}

	// ON CONFLICT swallows the duplicate; re-read to tell the cases apart.
	existing, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing.ID != user.ID {
		return nil, ErrUserAlreadyExists
	}

	return user, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, last_seen FROM users WHERE username = $1`,
		username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt, &user.LastSeen)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := s.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, last_seen FROM users WHERE id = $1`,
		id).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt, &user.LastSeen)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *PostgresStore) UpdateLastSeen(ctx context.Context, userID uuid.UUID) error {
	result, err := s.ExecContext(ctx, `UPDATE users SET last_seen = $1 WHERE id = $2`,
		time.Now().UTC(), userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (s *PostgresStore) CreateBook(ctx context.Context, book *models.Book) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO books (id, owner_id, title, author, description,
		 for_sale, for_exchange, for_borrow, for_discussion, cover_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		book.ID, book.OwnerID, book.Title, book.Author, book.Description,
		book.Sharing.ForSale, book.Sharing.ForExchange, book.Sharing.ForBorrow,
		book.Sharing.ForDiscussion, book.CoverKey, book.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book := &models.Book{}
	err := s.QueryRowContext(ctx,
		`SELECT id, owner_id, title, author, description,
		 for_sale, for_exchange, for_borrow, for_discussion, cover_key, created_at
		 FROM books WHERE id = $1`,
		id).Scan(&book.ID, &book.OwnerID, &book.Title, &book.Author, &book.Description,
		&book.Sharing.ForSale, &book.Sharing.ForExchange, &book.Sharing.ForBorrow,
		&book.Sharing.ForDiscussion, &book.CoverKey, &book.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}

	if book.LikedByUserIDs, err = s.bookLikes(ctx, id); err != nil {
		return nil, err
	}

	return book, nil
}

func (s *PostgresStore) bookLikes(ctx context.Context, bookID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT user_id FROM book_likes WHERE book_id = $1 ORDER BY created_at ASC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var likes []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		likes = append(likes, userID)
	}
	return likes, rows.Err()
}

func (s *PostgresStore) ListBooks(ctx context.Context) ([]*models.Book, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, owner_id, title, author, description,
		 for_sale, for_exchange, for_borrow, for_discussion, cover_key, created_at
		 FROM books ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []*models.Book
	for rows.Next() {
		book := &models.Book{}
		err := rows.Scan(&book.ID, &book.OwnerID, &book.Title, &book.Author, &book.Description,
			&book.Sharing.ForSale, &book.Sharing.ForExchange, &book.Sharing.ForBorrow,
			&book.Sharing.ForDiscussion, &book.CoverKey, &book.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}
		books = append(books, book)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	for _, book := range books {
		if book.LikedByUserIDs, err = s.bookLikes(ctx, book.ID); err != nil {
			return nil, err
		}
	}

	return books, nil
}

func (s *PostgresStore) DeleteBook(ctx context.Context, id uuid.UUID) error {
	result, err := s.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBookNotFound
	}

	return nil
}

func (s *PostgresStore) AddLike(ctx context.Context, bookID, userID uuid.UUID) error {
	result, err := s.ExecContext(ctx,
		`INSERT INTO book_likes (book_id, user_id, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (book_id, user_id) DO NOTHING`,
		bookID, userID, time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrAlreadyLiked
	}

	return nil
}

func (s *PostgresStore) CreateChatRoom(ctx context.Context, room *models.ChatRoom, seed *models.Message) (bool, uuid.UUID, error) {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return false, uuid.Nil, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO chat_rooms (id, book_id, user_lo, user_hi, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_lo, user_hi) DO NOTHING`,
		room.ID, room.BookID, room.UserLo, room.UserHi, room.CreatedAt,
	)
	if err != nil {
		return false, uuid.Nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, uuid.Nil, err
	}

	if rowsAffected == 0 {
		// Lost the race (or the pair was already connected): hand back
		// the surviving room so the caller can reuse it.
		var existingID uuid.UUID
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM chat_rooms WHERE user_lo = $1 AND user_hi = $2`,
			room.UserLo, room.UserHi).Scan(&existingID)
		if err == sql.ErrNoRows {
			return false, uuid.Nil, ErrRoomNotFound
		}
		if err != nil {
			return false, uuid.Nil, err
		}
		return false, existingID, tx.Commit()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, chat_room_id, sender_id, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		seed.ID, seed.ChatRoomID, seed.SenderID, seed.Body, seed.CreatedAt,
	)
	if err != nil {
		return false, uuid.Nil, err
	}

	return true, room.ID, tx.Commit()
}

func (s *PostgresStore) GetChatRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	room := &models.ChatRoom{}
	err := s.QueryRowContext(ctx,
		`SELECT id, book_id, user_lo, user_hi, created_at FROM chat_rooms WHERE id = $1`,
		id).Scan(&room.ID, &room.BookID, &room.UserLo, &room.UserHi, &room.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	return room, nil
}

func (s *PostgresStore) PutChatPartner(ctx context.Context, entry *models.ChatPartner) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO chat_partners (user_id, partner_id, chat_room_id) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, partner_id) DO NOTHING`,
		entry.UserID, entry.PartnerID, entry.ChatRoomID,
	)
	return err
}

func (s *PostgresStore) GetChatPartner(ctx context.Context, userID, partnerID uuid.UUID) (*models.ChatPartner, error) {
	entry := &models.ChatPartner{UserID: userID}
	err := s.QueryRowContext(ctx,
		`SELECT partner_id, chat_room_id FROM chat_partners WHERE user_id = $1 AND partner_id = $2`,
		userID, partnerID).Scan(&entry.PartnerID, &entry.ChatRoomID)

	if err == sql.ErrNoRows {
		return nil, ErrPartnerNotFound
	}
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *PostgresStore) ListChatPartners(ctx context.Context, userID uuid.UUID) ([]*models.ChatPartner, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT partner_id, chat_room_id FROM chat_partners WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.ChatPartner
	for rows.Next() {
		entry := &models.ChatPartner{UserID: userID}
		if err := rows.Scan(&entry.PartnerID, &entry.ChatRoomID); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO messages (id, chat_room_id, sender_id, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.ChatRoomID, msg.SenderID, msg.Body, msg.CreatedAt,
	)
	return err
}

func (s *PostgresStore) ListMessages(ctx context.Context, chatRoomID uuid.UUID) ([]*models.Message, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, chat_room_id, sender_id, body, created_at
		 FROM messages WHERE chat_room_id = $1 ORDER BY created_at ASC`,
		chatRoomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.ID, &msg.ChatRoomID, &msg.SenderID, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}
