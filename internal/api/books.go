package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookswap/internal/models"
	"bookswap/internal/pairing"
	"bookswap/internal/storage"
	"bookswap/internal/store"
)

const coverURLExpiry = time.Hour

// BookHandler handles book listing, creation, deletion and likes
type BookHandler struct {
	Store   store.Store
	Engine  *pairing.Engine
	Objects storage.ObjectStore // nil when no object store is configured
}

// NewBookHandler creates a new book handler
func NewBookHandler(s store.Store, engine *pairing.Engine, objects storage.ObjectStore) *BookHandler {
	return &BookHandler{Store: s, Engine: engine, Objects: objects}
}

// ListBooks returns every listed book with owners resolved and likes
// reduced to what the viewer needs.
func (h *BookHandler) ListBooks(c *gin.Context) {
	viewerID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	books, err := h.Store.ListBooks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	usernames := make(map[uuid.UUID]string)
	responses := make([]models.BookResponse, 0, len(books))
	for _, book := range books {
		ownerName, cached := usernames[book.OwnerID]
		if !cached {
			owner, err := h.Store.GetUserByID(c.Request.Context(), book.OwnerID)
			if err != nil {
				respondError(c, err)
				return
			}
			ownerName = owner.Username
			usernames[book.OwnerID] = ownerName
		}

		likedByMe := false
		for _, likerID := range book.LikedByUserIDs {
			if likerID == viewerID {
				likedByMe = true
				break
			}
		}

		resp := models.BookResponse{
			ID:            book.ID,
			OwnerID:       book.OwnerID,
			OwnerUsername: ownerName,
			Title:         book.Title,
			Author:        book.Author,
			Description:   book.Description,
			Sharing:       book.Sharing,
			LikeCount:     len(book.LikedByUserIDs),
			LikedByMe:     likedByMe,
			CreatedAt:     book.CreatedAt,
		}
		if h.Objects != nil && book.CoverKey != "" {
			url, err := h.Objects.PresignGet(c.Request.Context(), book.CoverKey, coverURLExpiry)
			if err != nil {
				log.Warn("Failed to presign cover for book %s: %v", book.ID, err)
			} else {
				resp.CoverURL = url
			}
		}
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, responses)
}

// CreateBook lists a new book owned by the caller
func (h *BookHandler) CreateBook(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input models.BookCreation
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book := &models.Book{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Author:      input.Author,
		Description: input.Description,
		Sharing:     input.Sharing,
		CoverKey:    input.CoverKey,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.Store.CreateBook(c.Request.Context(), book); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, book)
}

// DeleteBook removes one of the caller's own listings
func (h *BookHandler) DeleteBook(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book ID"})
		return
	}

	book, err := h.Store.GetBook(c.Request.Context(), bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	if book.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can delete a book"})
		return
	}

	if err := h.Store.DeleteBook(c.Request.Context(), bookID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book deleted"})
}

// LikeBook records a like and returns the chat room pairing the caller
// with the book's owner.
func (h *BookHandler) LikeBook(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book ID"})
		return
	}

	result, err := h.Engine.LikeBook(c.Request.Context(), userID, bookID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
