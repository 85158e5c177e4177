package record

import (
	"regexp"
	"strings"
)

// pattern matches one prediction block: the marker and numeric id, then a
// Couleur line, then a Statut line, with arbitrary text in between.
// (?is): case-insensitive, and . spans newlines (the fields sit on
// separate lines in real messages).
var pattern = regexp.MustCompile(`(?is)PRÉDICTION\s*#(\d+).*?Couleur:\s*([^\n]+).*?Statut:\s*([^\n]+)`)

// Extraction holds the fields pulled out of one message.
type Extraction struct {
	Numero  string
	Couleur string
	Statut  string
}

// Extract scans text for a prediction block and returns its fields.
// A miss returns ok=false, never an error: most feed messages are chatter
// and not matching is the common case. If a message contains several
// well-formed blocks, only the first is used.
func Extract(text string) (Extraction, bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return Extraction{}, false
	}
	return Extraction{
		Numero:  m[1],
		Couleur: strings.TrimSpace(m[2]),
		Statut:  strings.TrimSpace(m[3]),
	}, true
}

// Truncate bounds s to at most max runes. Byte-slicing would split
// multi-byte characters; the feed is full of accented text and emoji.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
