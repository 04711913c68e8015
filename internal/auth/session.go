package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bookswap/internal/models"
)

// RedisSessionStore implements TokenService with opaque tokens kept in
// Redis under a TTL. Unlike JWTs these can be revoked server-side.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(addr, password string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

// NewRedisSessionStoreWithClient wraps an existing client. Used by tests
// with miniredis.
func NewRedisSessionStoreWithClient(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func newSessionToken() string {
	var b [24]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("session token entropy unavailable: %v", err))
	}
	return hex.EncodeToString(b[:])
}

func sessionKey(token string) string {
	return "session:" + token
}

// Issue writes a token → userID mapping with the configured TTL.
func (s *RedisSessionStore) Issue(ctx context.Context, user *models.User) (string, time.Time, error) {
	token := newSessionToken()
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := s.client.Set(ctx, sessionKey(token), user.ID.String(), s.ttl).Err(); err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().Add(s.ttl), nil
}

// Verify resolves a token back to the user it was issued for.
func (s *RedisSessionStore) Verify(ctx context.Context, token string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: userID}, nil
}

// Revoke removes a token mapping.
func (s *RedisSessionStore) Revoke(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}
