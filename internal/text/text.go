// Package text holds small string helpers shared by the generators.
package text

import (
	"unicode"
	"unicode/utf8"
)

// Capitalize upper-cases the first rune of s, leaving the rest untouched.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
