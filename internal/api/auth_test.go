package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		body     gin.H
		wantCode int
	}{
		{
			name:     "valid registration",
			body:     gin.H{"username": "alice", "password": "secret123"},
			wantCode: http.StatusCreated,
		},
		{
			name:     "username too short",
			body:     gin.H{"username": "al", "password": "secret123"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "password too short",
			body:     gin.H{"username": "bob", "password": "abc"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing fields",
			body:     gin.H{},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "password": "different456",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "alice")

	w := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice", "password": "wrongpass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "nobody", "password": "whatever1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice")

	w := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Username)
}
