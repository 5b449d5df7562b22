package helpers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, exp, err := m.GenerateAccessToken("user-1", "ada@example.com", "user")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestAccessTokenExpiry(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute)
	token, _, err := m.GenerateAccessToken("user-1", "ada@example.com", "user")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	a := NewJWTManager("secret-a", time.Hour)
	b := NewJWTManager("secret-b", time.Hour)

	token, _, err := a.GenerateAccessToken("user-1", "ada@example.com", "user")
	require.NoError(t, err)

	_, err = b.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestAccessTokenTampered(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, _, err := m.GenerateAccessToken("user-1", "ada@example.com", "user")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = m.ParseAccessToken(tampered)
	assert.Error(t, err)
}

func TestDistinctTokensPerMint(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	a, _, err := m.GenerateAccessToken("user-1", "ada@example.com", "user")
	require.NoError(t, err)
	b, _, err := m.GenerateAccessToken("user-1", "ada@example.com", "user")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
