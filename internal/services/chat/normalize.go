package chat

import (
	"strings"
	"unicode"
)

// Normalize prepares a chat message for broadcast: control and other
// non-printable characters are stripped (newlines survive), runs of blank
// lines collapse to a single newline, and leading/trailing whitespace is
// trimmed. Normalize is idempotent.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}

	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
