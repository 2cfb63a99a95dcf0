package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const oneTimeTokenBytes = 32

// NewOneTimeToken produces an opaque single-use token for email
// verification and password reset links.
func NewOneTimeToken() (string, error) {
	bytes := make([]byte, oneTimeTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating one-time token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
