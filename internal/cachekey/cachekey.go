// Package cachekey normalizes cache keys so that every cache engine accepts them.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// digestLen is the length of the hex digest appended by Bounded.
const digestLen = 32

// Safe replaces spaces with '_' and every non-ASCII rune with '?'.
func Safe(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r >= utf8.RuneSelf:
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Bounded returns key unchanged when it fits in max bytes. Longer keys keep
// as much of their prefix as fits and end with "#" and a 128-bit hex digest
// of the full key, so distinct keys stay distinct. When max leaves no room
// for a prefix the key is the digest alone, cut to max. A max below 1 is
// treated as unbounded for the digest.
func Bounded(key string, max int) string {
	if len(key) <= max {
		return key
	}
	h := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(h[:16])
	if max >= 1 && max < digestLen {
		return digest[:max]
	}
	keep := max - digestLen - 1
	if keep <= 0 {
		return digest
	}
	return key[:keep] + "#" + digest
}
