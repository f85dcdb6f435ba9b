package encoding

import (
	"strings"
	"testing"

	"github.com/anngvu/annotation-meta-analysis/pkg/rdf"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	enc := NewTermEncoder()
	dec := NewTermDecoder()

	terms := []rdf.Term{
		rdf.NewNamedNode("https://dca.app.sagebionetworks.org/CB/FileType"),
		rdf.NewBlankNode("CB-c1"),
		rdf.NewLiteral("short"),
		rdf.NewLiteral(""),
		rdf.NewLiteral("exactly16bytes!!"),
		rdf.NewLiteral(strings.Repeat("long literal ", 5)),
		rdf.NewLiteral("nul\x00inside"),
		rdf.NewBooleanLiteral(true),
		rdf.NewBooleanLiteral(false),
		rdf.NewLiteralWithDatatype("42", rdf.NewNamedNode("http://www.w3.org/2001/XMLSchema#integer")),
	}

	for _, term := range terms {
		encoded, str, err := enc.EncodeTerm(term)
		if err != nil {
			t.Fatalf("EncodeTerm(%s) failed: %v", term, err)
		}
		decoded, err := dec.DecodeTerm(encoded, str)
		if err != nil {
			t.Fatalf("DecodeTerm(%s) failed: %v", term, err)
		}
		if !decoded.Equals(term) {
			t.Errorf("Round trip mismatch: %s -> %s", term, decoded)
		}
	}
}

func TestEncodeTerm_Inline(t *testing.T) {
	enc := NewTermEncoder()

	_, str, err := enc.EncodeTerm(rdf.NewLiteral("FASTQ"))
	if err != nil {
		t.Fatalf("EncodeTerm failed: %v", err)
	}
	if str != nil {
		t.Errorf("Expected short literal to be inlined")
	}

	a, _, _ := enc.EncodeTerm(rdf.NewNamedNode("http://example.org/a"))
	b, _, _ := enc.EncodeTerm(rdf.NewNamedNode("http://example.org/b"))
	if a == b {
		t.Errorf("Distinct IRIs encoded identically")
	}
	if GetTermType(a) != rdf.TermTypeNamedNode {
		t.Errorf("Unexpected term type %d", GetTermType(a))
	}
}

func TestEncodeTerm_InvalidBoolean(t *testing.T) {
	enc := NewTermEncoder()
	if _, _, err := enc.EncodeTerm(rdf.NewLiteralWithDatatype("maybe", rdf.XSDBoolean)); err == nil {
		t.Errorf("Expected error for invalid boolean")
	}
}
