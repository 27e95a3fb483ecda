package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cret", hash)

	// Salting is random per call.
	hash2, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	t.Run("CorrectPassword", func(t *testing.T) {
		ok, err := CheckPassword("s3cret", hash)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		ok, err := CheckPassword("wrong", hash)
		assert.NoError(t, err, "a clean mismatch is not an error")
		assert.False(t, ok)
	})

	t.Run("MalformedHash", func(t *testing.T) {
		ok, err := CheckPassword("s3cret", "not-a-bcrypt-hash")
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrMalformedHash)
	})

	t.Run("EmptyHash", func(t *testing.T) {
		ok, err := CheckPassword("s3cret", "")
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrMalformedHash)
	})
}
