// Package hashutil derives cache and dedup keys from free text.
//
// The hash is the classic 32-bit shift-and-add rolling hash (h = h*31 + c).
// It is not collision resistant: two different inputs can share a key, and a
// collision serves the other input's cached parse.
package hashutil

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Rolling hashes s over its UTF-16 code units and returns |h| in base 36.
func Rolling(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

// Normalize folds s to NFKC, lower-cases it and collapses whitespace runs.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// Key is the cache key for an input plus optional extra context.
func Key(input, context string) string {
	return Rolling(Normalize(input) + "|" + Normalize(context))
}
