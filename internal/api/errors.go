package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookswap/internal/chat"
	"bookswap/internal/logger"
	"bookswap/internal/pairing"
	"bookswap/internal/store"
)

var log = logger.New("api")

// respondError translates core errors to HTTP statuses. AlreadyLiked maps
// to 409 so clients can treat a duplicate like tap as a no-op rather than
// an error banner.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrBookNotFound),
		errors.Is(err, store.ErrRoomNotFound),
		errors.Is(err, store.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrAlreadyLiked):
		c.JSON(http.StatusConflict, gin.H{"error": "You have already liked this book"})
	case errors.Is(err, chat.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a participant of this chat room"})
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, pairing.ErrOwnBook):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, pairing.ErrIndexInconsistent):
		// Data-integrity fault, not a client mistake. Logged loudly so
		// operators see the drift instead of accumulating duplicates.
		log.Error("index inconsistency surfaced to client: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chat index inconsistency detected"})
	default:
		log.Error("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
