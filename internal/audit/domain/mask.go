package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// MaskIdentity replaces an identity (client IP, session id) with a short stable hash so
// events can be correlated without storing the raw value.
func MaskIdentity(identity string) string {
	if identity == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(identity))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}
