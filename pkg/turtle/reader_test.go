package turtle

import (
	"errors"
	"testing"

	"github.com/anngvu/annotation-meta-analysis/pkg/rdf"
)

func getIRI(t rdf.Term) string {
	if nn, ok := t.(*rdf.NamedNode); ok {
		return nn.IRI
	}
	return ""
}

func TestReader_PropertyListWithComma(t *testing.T) {
	input := `@prefix : <http://www.example.org/> .
:s :p :o1, :o2, :o3 .`

	triples, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(triples) != 3 {
		t.Fatalf("Expected 3 triples, got %d", len(triples))
	}

	expected := []string{
		"http://www.example.org/o1",
		"http://www.example.org/o2",
		"http://www.example.org/o3",
	}
	for i, triple := range triples {
		if getIRI(triple.Subject) != "http://www.example.org/s" {
			t.Errorf("Triple %d: wrong subject %s", i, triple.Subject)
		}
		if getIRI(triple.Object) != expected[i] {
			t.Errorf("Triple %d: expected object %s, got %s", i, expected[i], triple.Object)
		}
	}
}

func TestReader_PropertyListWithSemicolon(t *testing.T) {
	input := `@prefix ex: <http://www.example.org/> .
# comment
ex:s ex:p1 ex:o1 ;
    ex:p2 "two" ;
    a ex:Class ;
.`

	triples, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(triples) != 3 {
		t.Fatalf("Expected 3 triples, got %d", len(triples))
	}
	if getIRI(triples[1].Predicate) != "http://www.example.org/p2" {
		t.Errorf("Triple 1: wrong predicate %s", triples[1].Predicate)
	}
	if !triples[1].Object.Equals(rdf.NewLiteral("two")) {
		t.Errorf("Triple 1: wrong object %s", triples[1].Object)
	}
	if !triples[2].Predicate.Equals(rdf.RDFType) {
		t.Errorf("Triple 2: expected rdf:type, got %s", triples[2].Predicate)
	}
}

func TestReader_Collection(t *testing.T) {
	input := `@prefix ex: <http://www.example.org/> .
ex:s ex:list ( "a" "b" "c" ) ; ex:empty ( ) .`

	triples, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var head rdf.Term
	for _, tr := range triples {
		switch getIRI(tr.Predicate) {
		case "http://www.example.org/list":
			head = tr.Object
		case "http://www.example.org/empty":
			if !tr.Object.Equals(rdf.RDFNil) {
				t.Errorf("Expected empty collection to be rdf:nil, got %s", tr.Object)
			}
		}
	}

	items, ok := ListItems(triples, head)
	if !ok {
		t.Fatalf("Collection is not well formed")
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	for i, want := range []string{"a", "b", "c"} {
		if !items[i].Equals(rdf.NewLiteral(want)) {
			t.Errorf("Item %d: expected %q, got %s", i, want, items[i])
		}
	}
}

func TestReader_LiteralsAndDatatypes(t *testing.T) {
	input := `@prefix ex: <http://www.example.org/> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
ex:s ex:a true ; ex:b false ; ex:c "x\"y\\z\n" ; ex:d "5"^^xsd:integer .`

	triples, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(triples) != 4 {
		t.Fatalf("Expected 4 triples, got %d", len(triples))
	}

	want := []rdf.Term{
		rdf.NewBooleanLiteral(true),
		rdf.NewBooleanLiteral(false),
		rdf.NewLiteral("x\"y\\z\n"),
		rdf.NewLiteralWithDatatype("5", rdf.NewNamedNode("http://www.w3.org/2001/XMLSchema#integer")),
	}
	for i, w := range want {
		if !triples[i].Object.Equals(w) {
			t.Errorf("Triple %d: expected %s, got %s", i, w, triples[i].Object)
		}
	}
}

func TestReader_Prefixes(t *testing.T) {
	r := NewReader(`@prefix dca: <https://dca.app.sagebionetworks.org/vocab/> .
PREFIX cb: <https://dca.app.sagebionetworks.org/CB/>
`)
	if _, err := r.Parse(); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	prefixes := r.Prefixes()
	if prefixes["cb"] != "https://dca.app.sagebionetworks.org/CB/" {
		t.Errorf("Unexpected cb prefix %q", prefixes["cb"])
	}
	if len(prefixes) != 2 {
		t.Errorf("Expected 2 prefixes, got %d", len(prefixes))
	}
}

func TestReader_Errors(t *testing.T) {
	inputs := map[string]string{
		"undefined prefix":  `ex:s ex:p ex:o .`,
		"missing dot":       "@prefix ex: <http://e/> .\nex:s ex:p ex:o",
		"space in IRI":      `<http://e/a b> <http://e/p> <http://e/o> .`,
		"literal subject":   `"s" <http://e/p> <http://e/o> .`,
		"unterminated":      `<http://e/s> <http://e/p> "open .`,
		"local with space":  "@prefix ex: <http://e/> .\nex:Age (years) ex:p ex:o .",
		"literal predicate": `<http://e/s> "p" <http://e/o> .`,
	}

	for name, input := range inputs {
		_, err := Parse(input)
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		if !errors.Is(err, ErrSyntax) {
			t.Errorf("%s: expected ErrSyntax, got %v", name, err)
		}
	}
}
