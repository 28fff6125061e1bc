package utils

import (
	"crypto/sha256"
	"encoding/base64"
)

// HashToken derives the session lookup key from a bearer token. Sessions
// store only this digest, never the raw token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
