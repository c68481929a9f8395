package templates

import (
	"regexp"
	"strings"
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.*?)\*`)
)

// ToHTML converts the markup subset used in message bodies to HTML.
// Line breaks become <br>, **text** becomes <strong> and *text* becomes
// <em>. Bold must be rewritten before italic so ** pairs are not consumed
// as two single asterisks.
func ToHTML(text string) string {
	out := strings.ReplaceAll(text, "\n", "<br>")
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicRe.ReplaceAllString(out, "<em>$1</em>")
	return out
}
