package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordService_HashAndVerify(t *testing.T) {
	ps := NewPasswordServiceWithCost(bcrypt.MinCost)

	hash, err := ps.Hash("password123")
	require.NoError(t, err)
	require.NotEqual(t, "password123", hash)

	require.True(t, ps.Verify(hash, "password123"))
	require.False(t, ps.Verify(hash, "wrongpassword"))
}

func TestPasswordService_RejectsShortPassword(t *testing.T) {
	ps := NewPasswordServiceWithCost(bcrypt.MinCost)

	_, err := ps.Hash("short")
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestPasswordService_SaltedHashes(t *testing.T) {
	ps := NewPasswordServiceWithCost(bcrypt.MinCost)

	h1, err := ps.Hash("password123")
	require.NoError(t, err)
	h2, err := ps.Hash("password123")
	require.NoError(t, err)

	// bcrypt salts every hash, so two hashes of the same input differ
	require.NotEqual(t, h1, h2)
}
