package terminal

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CleanHint trims surrounding quotes, capitalises the first letter and makes
// sure the hint ends with sentence punctuation.
func CleanHint(h string) string {
	h = strings.TrimSpace(h)
	if len(h) >= 2 && h[0] == '"' && h[len(h)-1] == '"' {
		h = strings.TrimSpace(h[1 : len(h)-1])
	}
	if h == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(h)
	h = string(unicode.ToUpper(r)) + h[size:]
	if !strings.HasSuffix(h, ".") && !strings.HasSuffix(h, "!") && !strings.HasSuffix(h, "?") {
		h += "."
	}
	return h
}

// wrap fills words into lines of at most width runes. Longer words get a line of their own.
func wrap(s string, width int) string {
	var b strings.Builder
	n := 0
	for _, w := range strings.Fields(s) {
		l := utf8.RuneCountInString(w)
		switch {
		case n == 0:
		case n+1+l > width:
			b.WriteByte('\n')
			n = 0
		default:
			b.WriteByte(' ')
			n++
		}
		b.WriteString(w)
		n += l
	}
	return b.String()
}
