package receipt

import (
	"strings"
	"unicode"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\t", " ")

// Normalize unifies line endings, turns tabs into spaces and drops every
// other control character, so templates only ever see '\n' as a separator.
func Normalize(text string) string {
	text = lineEndings.Replace(text)
	return strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}
