package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookswap/internal/models"
)

// Identity is the authenticated caller as resolved from a bearer token.
// Handlers must use this, never a client-supplied user id field.
type Identity struct {
	UserID   uuid.UUID
	Username string
}

// TokenService issues and verifies bearer tokens. Two implementations:
// stateless JWTs and revocable Redis-backed sessions.
type TokenService interface {
	Issue(ctx context.Context, user *models.User) (token string, expiry time.Time, err error)
	Verify(ctx context.Context, token string) (*Identity, error)
	Revoke(ctx context.Context, token string) error
}

// JWTService implements TokenService with signed stateless tokens.
type JWTService struct{}

func NewJWTService() *JWTService {
	return &JWTService{}
}

func (s *JWTService) Issue(_ context.Context, user *models.User) (string, time.Time, error) {
	return GenerateToken(user)
}

func (s *JWTService) Verify(_ context.Context, token string) (*Identity, error) {
	claims, err := ValidateToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Identity{UserID: userID, Username: claims.Username}, nil
}

// Revoke is a no-op: a signed token stays valid until it expires.
func (s *JWTService) Revoke(_ context.Context, _ string) error {
	return nil
}
