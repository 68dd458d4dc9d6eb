package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash creates a SHA256 hex digest of a string.
// Used for consistent, safe Redis keys and content fingerprints.
func Hash(s string) string {
	h := sha256.New()
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint digests arbitrary content bytes. Two captures of an unchanged
// page produce the same fingerprint.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// TruncateRunes caps a string at n runes, appending an ellipsis when cut.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
