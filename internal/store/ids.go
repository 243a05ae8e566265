package store

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// NewID returns prefix-<suffix> where suffix is 8 chars of base32 (lowercase, no padding).
// 8 chars base32 ~= 40 bits of space, plenty for one workspace.
func NewID(prefix string) (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	suffix := strings.ToLower(enc.EncodeToString(b[:]))
	return prefix + "-" + suffix, nil
}

// LooksLikeItemID reports whether s has the shape of a generated checklist item id.
func LooksLikeItemID(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "chk-") && len(s) > len("chk-")
}
