package models

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"
)

const slugSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSlug turns a title into a URL-safe slug with a random suffix so
// that identical titles never collide.
func GenerateSlug(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "item"
	}

	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(slugSuffixAlphabet))))
		if err != nil {
			panic(err)
		}
		suffix[i] = slugSuffixAlphabet[n.Int64()]
	}
	return slug + "-" + string(suffix)
}
