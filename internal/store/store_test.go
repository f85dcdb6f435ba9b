package store

import (
	"strings"
	"testing"

	"github.com/anngvu/annotation-meta-analysis/internal/storage"
	"github.com/anngvu/annotation-meta-analysis/pkg/rdf"
)

const cb = "https://dca.app.sagebionetworks.org/CB/"

func newTestStore(t *testing.T) *TripleStore {
	t.Helper()
	s, err := storage.NewMemoryStorage()
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	ts := NewTripleStore(s)
	t.Cleanup(func() { ts.Close() })
	return ts
}

func sampleTriples() []*rdf.Triple {
	fileType := rdf.NewNamedNode(cb + "FileType")
	label := rdf.NewNamedNode("http://www.w3.org/2000/01/rdf-schema#label")
	class := rdf.NewNamedNode("http://www.w3.org/2000/01/rdf-schema#Class")
	comment := rdf.NewNamedNode("http://www.w3.org/2000/01/rdf-schema#comment")
	required := rdf.NewNamedNode("https://dca.app.sagebionetworks.org/vocab/required")

	return []*rdf.Triple{
		rdf.NewTriple(fileType, rdf.RDFType, class),
		rdf.NewTriple(fileType, label, rdf.NewLiteral("FileType")),
		rdf.NewTriple(fileType, comment, rdf.NewLiteral(strings.Repeat("A long description. ", 4))),
		rdf.NewTriple(fileType, required, rdf.NewBooleanLiteral(true)),
		rdf.NewTriple(rdf.NewNamedNode(cb+"FileFormat"), rdf.RDFType, class),
	}
}

func TestInsertAndCount(t *testing.T) {
	ts := newTestStore(t)

	if err := ts.InsertBatch(sampleTriples()); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	// re-inserting is a no-op
	if err := ts.InsertBatch(sampleTriples()); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	count, err := ts.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 triples, got %d", count)
	}
}

func TestInsertBatch_Chunked(t *testing.T) {
	ts := newTestStore(t)
	ts.batchSize = 2

	if err := ts.InsertBatch(sampleTriples()); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	count, err := ts.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 triples, got %d", count)
	}
}

func TestContainsAndDelete(t *testing.T) {
	ts := newTestStore(t)
	triples := sampleTriples()
	if err := ts.InsertBatch(triples); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	ok, err := ts.Contains(triples[1])
	if err != nil || !ok {
		t.Fatalf("Expected triple to be present (err=%v)", err)
	}

	if err := ts.Delete(triples[1]); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	ok, err = ts.Contains(triples[1])
	if err != nil {
		t.Fatalf("Contains failed: %v", err)
	}
	if ok {
		t.Errorf("Expected triple to be deleted")
	}

	// deleted triple must be gone from every index
	got, err := ts.MatchAll(Pattern{Object: rdf.NewLiteral("FileType")})
	if err != nil {
		t.Fatalf("MatchAll failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no matches after delete, got %v", got)
	}
}

func TestMatch(t *testing.T) {
	ts := newTestStore(t)
	triples := sampleTriples()
	if err := ts.InsertBatch(triples); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	fileType := rdf.NewNamedNode(cb + "FileType")
	class := rdf.NewNamedNode("http://www.w3.org/2000/01/rdf-schema#Class")

	tests := []struct {
		name    string
		pattern Pattern
		want    int
	}{
		{"all", Pattern{}, 5},
		{"subject", Pattern{Subject: fileType}, 4},
		{"predicate", Pattern{Predicate: rdf.RDFType}, 2},
		{"object", Pattern{Object: class}, 2},
		{"predicate and object", Pattern{Predicate: rdf.RDFType, Object: class}, 2},
		{"subject and object", Pattern{Subject: fileType, Object: class}, 1},
		{"fully bound", Pattern{Subject: fileType, Predicate: rdf.RDFType, Object: class}, 1},
		{"no match", Pattern{Subject: rdf.NewNamedNode(cb + "Missing")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ts.MatchAll(tt.pattern)
			if err != nil {
				t.Fatalf("MatchAll failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Expected %d matches, got %d: %v", tt.want, len(got), got)
			}
		})
	}
}

func TestMatch_DecodesTerms(t *testing.T) {
	ts := newTestStore(t)
	triples := sampleTriples()
	if err := ts.InsertBatch(triples); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	// object-first index must restore subject and predicate positions
	got, err := ts.MatchAll(Pattern{Object: triples[2].Object})
	if err != nil {
		t.Fatalf("MatchAll failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(got))
	}
	if !got[0].Subject.Equals(triples[2].Subject) ||
		!got[0].Predicate.Equals(triples[2].Predicate) ||
		!got[0].Object.Equals(triples[2].Object) {
		t.Errorf("Decoded %s, want %s", got[0], triples[2])
	}
}

func TestSources(t *testing.T) {
	ts := newTestStore(t)

	if err := ts.RecordSource("CB.ttl", 42); err != nil {
		t.Fatalf("RecordSource failed: %v", err)
	}
	if err := ts.RecordSource("NF.ttl", 7); err != nil {
		t.Fatalf("RecordSource failed: %v", err)
	}

	sources, err := ts.Sources()
	if err != nil {
		t.Fatalf("Sources failed: %v", err)
	}
	if sources["CB.ttl"] != 42 || sources["NF.ttl"] != 7 || len(sources) != 2 {
		t.Errorf("Unexpected sources: %v", sources)
	}
}
