package turtle

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/anngvu/annotation-meta-analysis/pkg/rdf"
)

// ErrSyntax is returned for input outside the Turtle subset written by this
// package.
var ErrSyntax = errors.New("turtle: syntax error")

// Reader parses the Turtle subset this package writes: @prefix
// declarations, prefixed names, IRIREFs, string and boolean literals,
// collections and the a ; , . punctuation.
type Reader struct {
	input    string
	pos      int
	length   int
	prefixes map[string]string
	blankID  int
	extra    []*rdf.Triple
}

// NewReader creates a reader over input
func NewReader(input string) *Reader {
	return &Reader{
		input:    input,
		length:   len(input),
		prefixes: make(map[string]string),
	}
}

// Parse reads every statement in input
func Parse(input string) ([]*rdf.Triple, error) {
	return NewReader(input).Parse()
}

// Prefixes returns the prefix declarations read so far
func (p *Reader) Prefixes() map[string]string {
	out := make(map[string]string, len(p.prefixes))
	for k, v := range p.prefixes {
		out[k] = v
	}
	return out
}

// Parse reads the document into triples, in statement order. Collection
// cells are emitted before the statement that references them.
func (p *Reader) Parse() ([]*rdf.Triple, error) {
	var triples []*rdf.Triple

	for {
		p.skipWhitespaceAndComments()
		if p.pos >= p.length {
			break
		}

		if p.consumeKeyword("@prefix") {
			if err := p.parsePrefix(true); err != nil {
				return nil, p.errorf("prefix: %v", err)
			}
			continue
		}
		if p.consumeKeyword("PREFIX") {
			if err := p.parsePrefix(false); err != nil {
				return nil, p.errorf("prefix: %v", err)
			}
			continue
		}

		block, err := p.parseTripleBlock()
		if err != nil {
			return nil, err
		}
		triples = append(triples, block...)
	}

	return triples, nil
}

func (p *Reader) errorf(format string, args ...any) error {
	line := 1 + strings.Count(p.input[:min(p.pos, p.length)], "\n")
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, line, fmt.Sprintf(format, args...))
}

// consumeKeyword matches kw case-sensitively when it is followed by
// whitespace
func (p *Reader) consumeKeyword(kw string) bool {
	if !strings.HasPrefix(p.input[p.pos:], kw) {
		return false
	}
	end := p.pos + len(kw)
	if end < p.length && !isSpace(p.input[end]) {
		return false
	}
	p.pos = end
	return true
}

func (p *Reader) parsePrefix(turtleStyle bool) error {
	p.skipWhitespaceAndComments()

	start := p.pos
	for p.pos < p.length && p.input[p.pos] != ':' {
		if isSpace(p.input[p.pos]) {
			return fmt.Errorf("expected ':' after prefix name")
		}
		p.pos++
	}
	if p.pos >= p.length {
		return fmt.Errorf("expected ':' after prefix name")
	}
	prefix := p.input[start:p.pos]
	p.pos++

	p.skipWhitespaceAndComments()
	iri, err := p.parseIRI()
	if err != nil {
		return err
	}
	p.prefixes[prefix] = iri

	p.skipWhitespaceAndComments()
	if turtleStyle {
		if p.pos >= p.length || p.input[p.pos] != '.' {
			return fmt.Errorf("expected '.' after @prefix")
		}
		p.pos++
	}
	return nil
}

func (p *Reader) parseTripleBlock() ([]*rdf.Triple, error) {
	var triples []*rdf.Triple

	subject, err := p.parseTerm()
	if err != nil {
		return nil, p.errorf("subject: %v", err)
	}
	if _, ok := subject.(*rdf.Literal); ok {
		return nil, p.errorf("literals cannot be used as subjects")
	}
	triples = append(triples, p.extra...)
	p.extra = nil

	for {
		p.skipWhitespaceAndComments()
		predicate, err := p.parsePredicate()
		if err != nil {
			return nil, p.errorf("predicate: %v", err)
		}

		for {
			p.skipWhitespaceAndComments()
			object, err := p.parseTerm()
			if err != nil {
				return nil, p.errorf("object: %v", err)
			}
			triples = append(triples, p.extra...)
			p.extra = nil
			triples = append(triples, rdf.NewTriple(subject, predicate, object))

			p.skipWhitespaceAndComments()
			if p.pos < p.length && p.input[p.pos] == ',' {
				p.pos++
				continue
			}
			break
		}

		if p.pos >= p.length {
			return nil, p.errorf("unexpected end of input, expected '.'")
		}
		switch p.input[p.pos] {
		case ';':
			p.pos++
			p.skipWhitespaceAndComments()
			// trailing ';' before '.'
			if p.pos < p.length && p.input[p.pos] == '.' {
				p.pos++
				return triples, nil
			}
		case '.':
			p.pos++
			return triples, nil
		default:
			return nil, p.errorf("unexpected %q after object", p.input[p.pos])
		}
	}
}

func (p *Reader) parsePredicate() (rdf.Term, error) {
	if p.pos < p.length && p.input[p.pos] == 'a' {
		next := p.pos + 1
		if next >= p.length || isSpace(p.input[next]) {
			p.pos = next
			return rdf.RDFType, nil
		}
	}
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if _, ok := term.(*rdf.NamedNode); !ok {
		return nil, fmt.Errorf("predicate must be an IRI, got %s", term)
	}
	return term, nil
}

func (p *Reader) parseTerm() (rdf.Term, error) {
	if p.pos >= p.length {
		return nil, fmt.Errorf("unexpected end of input")
	}

	switch ch := p.input[p.pos]; {
	case ch == '<':
		iri, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		return rdf.NewNamedNode(iri), nil
	case ch == '"':
		return p.parseLiteral()
	case ch == '(':
		return p.parseCollection()
	case ch == '_' && p.pos+1 < p.length && p.input[p.pos+1] == ':':
		p.pos += 2
		start := p.pos
		for p.pos < p.length && !isSpace(p.input[p.pos]) && !isDelimiter(p.input[p.pos]) {
			p.pos++
		}
		return rdf.NewBlankNode(p.input[start:p.pos]), nil
	}

	if p.hasWord("true") {
		p.pos += len("true")
		return rdf.NewBooleanLiteral(true), nil
	}
	if p.hasWord("false") {
		p.pos += len("false")
		return rdf.NewBooleanLiteral(false), nil
	}

	return p.parsePrefixedName()
}

func (p *Reader) hasWord(w string) bool {
	if !strings.HasPrefix(p.input[p.pos:], w) {
		return false
	}
	end := p.pos + len(w)
	return end >= p.length || isSpace(p.input[end]) || isDelimiter(p.input[end])
}

// parseIRI reads an IRIREF. Percent escapes are kept as written.
func (p *Reader) parseIRI() (string, error) {
	if p.pos >= p.length || p.input[p.pos] != '<' {
		return "", fmt.Errorf("expected '<'")
	}
	p.pos++
	start := p.pos
	for p.pos < p.length && p.input[p.pos] != '>' {
		c := p.input[p.pos]
		if c <= 0x20 || c == '<' || c == '"' || c == '{' || c == '}' ||
			c == '|' || c == '^' || c == '`' || c == '\\' {
			return "", fmt.Errorf("invalid character %q in IRI", c)
		}
		p.pos++
	}
	if p.pos >= p.length {
		return "", fmt.Errorf("unterminated IRI")
	}
	iri := p.input[start:p.pos]
	p.pos++
	return iri, nil
}

func (p *Reader) parsePrefixedName() (rdf.Term, error) {
	start := p.pos

	if p.input[p.pos] != ':' {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if !isPNCharsBase(r) {
			return nil, fmt.Errorf("invalid character %q", r)
		}
		p.pos += size
		for p.pos < p.length && p.input[p.pos] != ':' {
			r, size := utf8.DecodeRuneInString(p.input[p.pos:])
			if !isPNChars(r) && r != '.' {
				break
			}
			p.pos += size
		}
	}
	if p.pos >= p.length || p.input[p.pos] != ':' {
		return nil, fmt.Errorf("expected ':' in prefixed name")
	}
	prefix := p.input[start:p.pos]
	p.pos++

	localStart := p.pos
	for p.pos < p.length {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if r != ':' && r != '.' && !isPNChars(r) {
			break
		}
		p.pos += size
	}
	// a local name never ends with '.'
	for p.pos > localStart && p.input[p.pos-1] == '.' {
		p.pos--
	}
	local := p.input[localStart:p.pos]

	base, ok := p.prefixes[prefix]
	if !ok {
		return nil, fmt.Errorf("undefined prefix %q", prefix)
	}
	return rdf.NewNamedNode(base + local), nil
}

func (p *Reader) parseLiteral() (rdf.Term, error) {
	p.pos++ // opening quote
	start := p.pos
	for p.pos < p.length {
		switch p.input[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case '\n', '\r':
			return nil, fmt.Errorf("line break in string literal")
		case '"':
			value := Unescape(p.input[start:p.pos])
			p.pos++
			return p.parseLiteralSuffix(value)
		}
		p.pos++
	}
	return nil, fmt.Errorf("unterminated string literal")
}

func (p *Reader) parseLiteralSuffix(value string) (rdf.Term, error) {
	if !strings.HasPrefix(p.input[p.pos:], "^^") {
		return rdf.NewLiteral(value), nil
	}
	p.pos += 2
	var datatype rdf.Term
	var err error
	if p.pos < p.length && p.input[p.pos] == '<' {
		var iri string
		iri, err = p.parseIRI()
		datatype = rdf.NewNamedNode(iri)
	} else {
		datatype, err = p.parsePrefixedName()
	}
	if err != nil {
		return nil, fmt.Errorf("datatype: %w", err)
	}
	return rdf.NewLiteralWithDatatype(value, datatype.(*rdf.NamedNode)), nil
}

// parseCollection reads ( item ... ) and expands it into an rdf:first /
// rdf:rest chain of fresh blank nodes. The empty collection is rdf:nil.
func (p *Reader) parseCollection() (rdf.Term, error) {
	p.pos++ // '('

	var items []rdf.Term
	for {
		p.skipWhitespaceAndComments()
		if p.pos >= p.length {
			return nil, fmt.Errorf("unexpected end of input in collection")
		}
		if p.input[p.pos] == ')' {
			p.pos++
			break
		}
		item, err := p.parseTerm()
		if err != nil {
			return nil, fmt.Errorf("collection item: %w", err)
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return rdf.RDFNil, nil
	}

	var head, prev rdf.Term
	for i, item := range items {
		node := p.newBlankNode()
		if i == 0 {
			head = node
		} else {
			p.extra = append(p.extra, rdf.NewTriple(prev, rdf.RDFRest, node))
		}
		p.extra = append(p.extra, rdf.NewTriple(node, rdf.RDFFirst, item))
		prev = node
	}
	p.extra = append(p.extra, rdf.NewTriple(prev, rdf.RDFRest, rdf.RDFNil))
	return head, nil
}

func (p *Reader) newBlankNode() *rdf.BlankNode {
	p.blankID++
	return rdf.NewBlankNode(fmt.Sprintf("c%d", p.blankID))
}

func (p *Reader) skipWhitespaceAndComments() {
	for p.pos < p.length {
		switch c := p.input[p.pos]; {
		case isSpace(c):
			p.pos++
		case c == '#':
			for p.pos < p.length && p.input[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	return c == ';' || c == ',' || c == '.' || c == ')' || c == '('
}

// ListItems walks the collection starting at head and returns its members.
// It reports false when the chain is broken or cyclic.
func ListItems(triples []*rdf.Triple, head rdf.Term) ([]rdf.Term, bool) {
	first := make(map[string]rdf.Term)
	rest := make(map[string]rdf.Term)
	for _, t := range triples {
		b, ok := t.Subject.(*rdf.BlankNode)
		if !ok {
			continue
		}
		switch {
		case t.Predicate.Equals(rdf.RDFFirst):
			first[b.ID] = t.Object
		case t.Predicate.Equals(rdf.RDFRest):
			rest[b.ID] = t.Object
		}
	}

	var items []rdf.Term
	seen := make(map[string]bool)
	for node := head; !node.Equals(rdf.RDFNil); {
		b, ok := node.(*rdf.BlankNode)
		if !ok || seen[b.ID] {
			return nil, false
		}
		seen[b.ID] = true
		item, ok := first[b.ID]
		if !ok {
			return nil, false
		}
		items = append(items, item)
		if node, ok = rest[b.ID]; !ok {
			return nil, false
		}
	}
	return items, true
}
