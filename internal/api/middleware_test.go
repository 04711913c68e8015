package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookswap/internal/auth"
	"bookswap/internal/models"
)

func protectedRouter(tokens auth.TokenService) *gin.Engine {
	router := gin.New()
	router.GET("/protected", AuthMiddleware(tokens), func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	auth.InitJWTKey([]byte("test-secret-key"))
	tokens := auth.NewJWTService()
	router := protectedRouter(tokens)

	user := &models.User{ID: uuid.New(), Username: "alice"}
	validToken, _, err := auth.GenerateToken(user)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{
			name:     "no header",
			header:   "",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "wrong scheme",
			header:   "Basic abc123",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "garbage token",
			header:   "Bearer not-a-real-token",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "valid token",
			header:   "Bearer " + validToken,
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
