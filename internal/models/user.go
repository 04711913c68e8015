package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered member of the platform
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never send to client
	CreatedAt    time.Time `json:"created_at"`
	LastSeen     time.Time `json:"last_seen"`
}

// ChatPartner is one entry of a user's chat-partner index. A user has at
// most one entry per distinct partner; the entry records the single room
// shared with that partner.
type ChatPartner struct {
	UserID     uuid.UUID `json:"-"`
	PartnerID  uuid.UUID `json:"partner_id"`
	ChatRoomID uuid.UUID `json:"chat_room_id"`
}

// UserRegistration contains data needed for user registration
type UserRegistration struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Password string `json:"password" binding:"required,min=6"`
}

// UserLogin contains data needed for user login
type UserLogin struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is what we return to the client
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
