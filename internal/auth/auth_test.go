package auth

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("pw123")
	require.NoError(t, err)

	assert.NotEqual(t, "pw123", hash)
	assert.True(t, CheckPassword("pw123", hash))
	assert.False(t, CheckPassword("pw124", hash))
	assert.False(t, CheckPassword("pw123", "not-a-hash"))
}

func TestGenerateSessionToken(t *testing.T) {
	a, err := GenerateSessionToken()
	require.NoError(t, err)
	b, err := GenerateSessionToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^fsk_[0-9a-f]{16}$`), key)
}
