package turtle

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TokenKind distinguishes the two ways a URI can be written
type TokenKind byte

const (
	TokenPrefixed TokenKind = iota + 1
	TokenFullURI
)

// Token is the resolved Turtle form of one URI: either prefix:local or a
// bracketed absolute URI. URI holds the already-encoded text for full URIs.
type Token struct {
	Kind   TokenKind
	Prefix string
	Local  string
	URI    string
}

func Prefixed(prefix, local string) Token {
	return Token{Kind: TokenPrefixed, Prefix: prefix, Local: local}
}

func FullURI(encoded string) Token {
	return Token{Kind: TokenFullURI, URI: encoded}
}

func (t Token) IsPrefixed() bool {
	return t.Kind == TokenPrefixed
}

// String renders the token as it appears in a document
func (t Token) String() string {
	if t.Kind == TokenPrefixed {
		return t.Prefix + ":" + t.Local
	}
	return "<" + t.URI + ">"
}

// reservedLocalChars may not appear in a local name written after a prefix
const reservedLocalChars = "/\\?#[]@!$&'()*+,;= %.<>`{}|^\""

// NeedsURIEscaping reports whether local cannot be written after a prefix
// and the URI must fall back to the bracketed form. The empty local name is
// valid (it denotes the namespace itself).
func NeedsURIEscaping(local string) bool {
	if local == "" {
		return false
	}
	if strings.ContainsAny(local, reservedLocalChars) {
		return true
	}
	if c := local[0]; (c >= '0' && c <= '9') || c == '-' {
		return true
	}
	if first, _ := utf8.DecodeRuneInString(local); first != ':' && !isPNCharsU(first) {
		return true
	}
	for _, r := range local {
		if r == utf8.RuneError || (r != ':' && !isPNChars(r)) {
			return true
		}
	}
	return false
}

// percentEncoder covers the characters that would break a bracketed URI in
// a Turtle document, in a fixed order. This is not RFC 3986 encoding:
// existing escapes and Unicode text pass through.
var percentEncoder = strings.NewReplacer(
	">", "%3E",
	"<", "%3C",
	"`", "%60",
	"{", "%7B",
	"}", "%7D",
	"|", "%7C",
	"^", "%5E",
	`\`, "%5C",
	`"`, "%22",
)

// PercentEncode encodes > < ` { } | ^ \ " and nothing else
func PercentEncode(uri string) string {
	return percentEncoder.Replace(uri)
}

// bracketEncode produces the text placed between < and >. On top of
// PercentEncode it encodes space and control characters, which Turtle's
// IRIREF production does not allow.
func bracketEncode(uri string) string {
	encoded := PercentEncode(uri)
	if !strings.ContainsFunc(encoded, isIRIControl) {
		return encoded
	}

	var sb strings.Builder
	sb.Grow(len(encoded) + 8)
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if isIRIControl(rune(c)) {
			fmt.Fprintf(&sb, "%%%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isIRIControl(r rune) bool {
	return r <= 0x20 || r == 0x7F
}

// Normalize resolves uri against the registry. The first matching rule wins:
//
//  1. uri starts with a registered base: prefix:local, or the bracketed
//     original uri when the local name cannot follow a prefix.
//  2. uri is a schema.biothings.io or bts: term: the local name moves into
//     the project namespace.
//  3. anything else is written as a bracketed, encoded URI.
func (r *Registry) Normalize(uri string) Token {
	for _, ns := range r.entries {
		if !strings.HasPrefix(uri, ns.Base) {
			continue
		}
		local := uri[len(ns.Base):]
		if NeedsURIEscaping(local) {
			return FullURI(bracketEncode(uri))
		}
		return Prefixed(ns.Prefix, local)
	}

	if local, ok := legacyLocalName(uri); ok {
		if NeedsURIEscaping(local) {
			return FullURI(bracketEncode(r.systemBase + "/" + r.project + "/" + local))
		}
		return Prefixed(r.ProjectNamespace().Prefix, local)
	}

	return FullURI(bracketEncode(uri))
}

func legacyLocalName(uri string) (string, bool) {
	if local, ok := strings.CutPrefix(uri, LegacyBase); ok {
		return local, true
	}
	return strings.CutPrefix(uri, LegacyPrefix)
}

// typeToken resolves a type reference: tokens already written with a fixed
// vocabulary prefix are kept verbatim, everything else is normalized.
func (r *Registry) typeToken(ref string) string {
	if r.isFixedPrefixed(ref) {
		return ref
	}
	return r.Normalize(ref).String()
}

// baseToken renders a namespace base for a @prefix line
func baseToken(base string) string {
	return "<" + bracketEncode(base) + ">"
}
