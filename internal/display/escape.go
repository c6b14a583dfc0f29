package display

import "strings"

const markdownSpecials = "\\`*_[]<>&!#|~"

// escapeMarkdown backslash-escapes characters that markdown would treat as
// inline syntax or raw HTML, plus block markers at the start of the text.
func escapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	if s != "" && strings.ContainsRune("-+=", rune(s[0])) {
		b.WriteByte('\\')
	}
	digits := len(s) - len(strings.TrimLeft(s, "0123456789"))

	for i, r := range s {
		if strings.ContainsRune(markdownSpecials, r) || (digits > 0 && i == digits && (r == '.' || r == ')')) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
