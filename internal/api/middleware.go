package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookswap/internal/auth"
)

// AuthMiddleware validates bearer tokens and sets the authenticated
// identity in context. Every handler reads the caller's id from here;
// client-supplied user id fields are never trusted.
func AuthMiddleware(tokens auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		identity, err := tokens.Verify(c.Request.Context(), tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("userID", identity.UserID)
		c.Set("token", tokenString)
		if identity.Username != "" {
			c.Set("username", identity.Username)
		}

		c.Next()
	}
}

// callerID returns the authenticated user id set by AuthMiddleware.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		return uuid.Nil, false
	}
	userUUID, ok := userID.(uuid.UUID)
	return userUUID, ok
}
