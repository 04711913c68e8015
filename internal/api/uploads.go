package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookswap/internal/storage"
)

const uploadURLExpiry = 15 * time.Minute

// UploadHandler issues signed upload URLs for book cover photos
type UploadHandler struct {
	Objects storage.ObjectStore
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(objects storage.ObjectStore) *UploadHandler {
	return &UploadHandler{Objects: objects}
}

// CreateCoverUploadURL returns a fresh object key and a signed PUT URL.
// The client uploads against the URL, then passes the key back when
// creating the book.
func (h *UploadHandler) CreateCoverUploadURL(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	key := storage.NewCoverKey()
	url, err := h.Objects.PresignPut(c.Request.Context(), key, uploadURLExpiry)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key":        key,
		"upload_url": url,
		"expires_in": int(uploadURLExpiry.Seconds()),
	})
}
