package helpers

import (
	"crypto/rand"
	"encoding/hex"
)

// Opaque token byte lengths. Refresh tokens carry more entropy because they
// live for a week; verification and reset tokens are single-use.
const (
	RefreshTokenBytes = 40
	OneShotTokenBytes = 20
)

// GenerateOpaqueToken returns a hex-encoded cryptographically random token of
// n source bytes.
func GenerateOpaqueToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
