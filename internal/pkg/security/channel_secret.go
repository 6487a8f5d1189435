package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const channelSecretBytes = 32

// NewChannelSecret returns a random verification token shared with Google at
// watch creation and echoed back in the X-Goog-Channel-Token header of every
// notification. Treat it as a capability: compare, never log.
func NewChannelSecret() (string, error) {
	buf := make([]byte, channelSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SecretEqual compares two channel secrets in constant time. An empty secret
// never verifies.
func SecretEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
