package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCoverKeyIsDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := NewCoverKey()
		assert.True(t, strings.HasPrefix(key, "covers/"))
		require.False(t, seen[key], "key %s issued twice", key)
		seen[key] = true
	}
}
