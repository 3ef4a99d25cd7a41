// Package slug derives URL-safe product identifiers and recognises the raw
// identifiers the previous storefront used in links.
package slug

import (
	"strconv"
	"strings"
	"unicode"
)

// LegacyIDLength is the length of the raw identifiers issued by the previous store.
const LegacyIDLength = 20

// Derive lowercases and trims name, drops everything except ASCII word
// characters, hyphens and whitespace, turns whitespace runs into a single
// hyphen, collapses repeated hyphens and trims hyphens from both ends.
// An empty or symbol-only name yields "".
func Derive(name string) string {
	lowered := strings.TrimSpace(strings.ToLower(name))

	var b strings.Builder
	b.Grow(len(lowered))
	pendingHyphen := false
	for _, r := range lowered {
		switch {
		case isWordRune(r):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingHyphen = true
		}
	}
	return b.String()
}

// LooksLikeLegacyID reports whether token has the shape of a legacy raw
// identifier: exactly 20 ASCII letters or digits.
func LooksLikeLegacyID(token string) bool {
	if len(token) != LegacyIDLength {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// Unique returns base when it is free, otherwise the first of base-2, base-3,
// ... that taken reports as free.
func Unique(base string, taken func(candidate string) (bool, error)) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}

// Valid reports whether s is already in derived form.
func Valid(s string) bool {
	return s != "" && Derive(s) == s
}

func isWordRune(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
}
