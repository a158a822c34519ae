package authgate

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Run("Fixed Length Hex", func(t *testing.T) {
		token, err := generateToken()
		require.NoError(t, err)
		assert.Len(t, token, tokenBytes*2)

		_, err = hex.DecodeString(token)
		require.NoError(t, err)
	})

	t.Run("No Collisions Across Many Tokens", func(t *testing.T) {
		seen := make(map[string]struct{}, 1000)
		for i := 0; i < 1000; i++ {
			token, err := generateToken()
			require.NoError(t, err)
			_, dup := seen[token]
			require.False(t, dup, "token generated twice")
			seen[token] = struct{}{}
		}
	})
}

func TestHashToken(t *testing.T) {
	h1 := hashToken("some-token")
	h2 := hashToken("some-token")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, "some-token", h1)
	assert.NotEqual(t, h1, hashToken("other-token"))
}
