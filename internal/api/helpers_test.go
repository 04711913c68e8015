package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"bookswap/internal/auth"
	"bookswap/internal/chat"
	"bookswap/internal/pairing"
	"bookswap/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
	auth.InitJWTKey([]byte("test-secret-key"))
}

type testEnv struct {
	router  *gin.Engine
	store   *store.MemoryStore
	objects *fakeObjectStore
}

// newTestEnv wires the full route table against a memory store, mirroring
// the wiring in cmd/server.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := store.NewMemoryStore()
	objects := &fakeObjectStore{}
	tokens := auth.NewJWTService()
	engine := pairing.NewEngine(s)
	chatService := chat.NewService(s, nil)

	authHandler := NewAuthHandler(s, tokens)
	bookHandler := NewBookHandler(s, engine, nil)
	chatHandler := NewChatHandler(chatService)
	uploadHandler := NewUploadHandler(objects)

	router := gin.New()
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	authorized := router.Group("/api")
	authorized.Use(AuthMiddleware(tokens))
	{
		authorized.GET("/auth/me", authHandler.GetMe)
		authorized.POST("/auth/logout", authHandler.Logout)
		authorized.GET("/books", bookHandler.ListBooks)
		authorized.POST("/books", bookHandler.CreateBook)
		authorized.DELETE("/books/:id", bookHandler.DeleteBook)
		authorized.POST("/books/:id/like", bookHandler.LikeBook)
		authorized.GET("/chatrooms", chatHandler.ListRooms)
		authorized.GET("/chatrooms/:id/messages", chatHandler.GetMessages)
		authorized.POST("/chatrooms/:id/messages", chatHandler.SendMessage)
		authorized.POST("/uploads/cover", uploadHandler.CreateCoverUploadURL)
	}

	return &testEnv{router: router, store: s, objects: objects}
}

// do sends a JSON request, with bearer auth when token is non-empty.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates a user through the API and returns their token.
func (e *testEnv) registerAndLogin(t *testing.T, username string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// createBook lists a book through the API and returns its id.
func (e *testEnv) createBook(t *testing.T, token, title string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/books", token, gin.H{
		"title":       title,
		"author":      "Frank Herbert",
		"description": "Hardcover, good condition",
		"sharing":     gin.H{"for_exchange": true},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID
}
