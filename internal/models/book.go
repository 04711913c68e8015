package models

import (
	"time"

	"github.com/google/uuid"
)

// SharingOptions are the ways an owner offers a book. Any combination is
// valid; all default to false.
type SharingOptions struct {
	ForSale       bool `json:"for_sale"`
	ForExchange   bool `json:"for_exchange"`
	ForBorrow     bool `json:"for_borrow"`
	ForDiscussion bool `json:"for_discussion"`
}

// Book represents a book listed by its owner. Content fields are mutated
// only by the owner; the likes set is mutated only through the like
// operation.
type Book struct {
	ID             uuid.UUID      `json:"id"`
	OwnerID        uuid.UUID      `json:"owner_id"`
	Title          string         `json:"title"`
	Author         string         `json:"author"`
	Description    string         `json:"description"`
	Sharing        SharingOptions `json:"sharing"`
	CoverKey       string         `json:"-"`
	LikedByUserIDs []uuid.UUID    `json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
}

// BookCreation contains data needed to list a new book
type BookCreation struct {
	Title       string         `json:"title" binding:"required,min=1"`
	Author      string         `json:"author" binding:"required,min=1"`
	Description string         `json:"description" binding:"required,min=1"`
	Sharing     SharingOptions `json:"sharing"`
	CoverKey    string         `json:"cover_key"`
}

// BookResponse is a book as returned to clients, with the owner resolved
// to a username and likes reduced to what the viewer needs.
type BookResponse struct {
	ID            uuid.UUID      `json:"id"`
	OwnerID       uuid.UUID      `json:"owner_id"`
	OwnerUsername string         `json:"owner_username"`
	Title         string         `json:"title"`
	Author        string         `json:"author"`
	Description   string         `json:"description"`
	Sharing       SharingOptions `json:"sharing"`
	LikeCount     int            `json:"like_count"`
	LikedByMe     bool           `json:"liked_by_me"`
	CoverURL      string         `json:"cover_url,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
