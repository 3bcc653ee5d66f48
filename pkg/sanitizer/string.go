package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeIdentifier trims surrounding whitespace from an opaque id (resource id, date key,
// holder id). Everything inside is kept byte-for-byte, so ids that differ only in inner
// whitespace stay distinct and control characters reach the validator.
func NormalizeIdentifier(id string) string {
	return strings.TrimSpace(id)
}
