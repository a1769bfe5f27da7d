package id

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID32 returns a random 32-char lowercase hex string. Leads and batches
// use these as their public identifiers so the URL surface never exposes
// auto-increment database keys.
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
