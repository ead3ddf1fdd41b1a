package util

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SHA256Hex returns the hex encoded SHA-256 of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ChunkID returns a stable id for the i-th chunk of a titled source.
// The prefix is the first 8 hex characters of sha1(title).
func ChunkID(title string, i int) string {
	sum := sha1.Sum([]byte(title))
	return fmt.Sprintf("%s:%d", hex.EncodeToString(sum[:])[:8], i)
}
