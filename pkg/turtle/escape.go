// Package turtle writes DCA data-model graphs as RDF Turtle documents and
// reads back the subset of Turtle it produces.
//
// The writer is a pure function of its inputs: a Registry is built once per
// project and every conversion helper only reads from it.
package turtle

import "strings"

// escaper makes a single pass over the input, which gives the same result as
// replacing backslash, quote, LF, CR and TAB one after another in that order.
var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Escape returns s as a quoted Turtle string literal, including the
// surrounding double quotes. Non-ASCII text is passed through unchanged.
func Escape(s string) string {
	return `"` + escaper.Replace(s) + `"`
}

// EscapeOptional is Escape for values that may be absent; nil yields "".
func EscapeOptional(s *string) string {
	if s == nil {
		return `""`
	}
	return Escape(*s)
}

// Unescape reverses Escape. The surrounding quotes are optional. Escape
// sequences other than the five produced by Escape are left as written.
func Unescape(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case '\\':
			sb.WriteByte('\\')
		case '"':
			sb.WriteByte('"')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i+1])
		}
		i++
	}
	return sb.String()
}
