package procexec

import (
	"regexp"
	"strings"
)

// ansiEscape matches CSI/OSC-style ANSI escape sequences.
var ansiEscape = regexp.MustCompile(`\x1b(\[[0-9;?]*[a-zA-Z]|\][^\x07\x1b]*(\x07|\x1b\\)|[@-Z\\-_])`)

// whitespaceRun collapses any run of whitespace into a single space.
var whitespaceRun = regexp.MustCompile(`[ \t]+`)

// Sanitize strips ANSI escapes and C0/C1 control bytes from a single line,
// collapses interior whitespace runs, and trims the result. Callers drop the
// line entirely when Sanitize returns "".
func Sanitize(line string) string {
	line = ansiEscape.ReplaceAllString(line, "")

	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		switch {
		case r == '\t' || r == ' ':
			b.WriteRune(r)
		case r < 0x20 || (r >= 0x7f && r <= 0x9f):
			// drop C0 and C1 control bytes (DEL and the C1 range included)
		default:
			b.WriteRune(r)
		}
	}

	result := whitespaceRun.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(result)
}
