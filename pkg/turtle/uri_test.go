package turtle

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNeedsURIEscaping(t *testing.T) {
	tests := []struct {
		local string
		want  bool
	}{
		{"", false},
		{"FileType", false},
		{"file_type", false},
		{"a-b", false},
		{"x:y", false},
		{"Überprüfung", false},
		{"Age (years)", true},
		{"a/b", true},
		{"a.b", true},
		{"a#b", true},
		{"50%", true},
		{"1stPass", true},
		{"-flag", true},
		{"a~b", true},
		{"tab\there", true},
		{"\xff", true},
	}

	for _, tt := range tests {
		if got := NeedsURIEscaping(tt.local); got != tt.want {
			t.Errorf("NeedsURIEscaping(%q) = %v, want %v", tt.local, got, tt.want)
		}
	}
}

func TestPercentEncode_FixedSet(t *testing.T) {
	in := "<a>`{b}|^\\\"c %20 é/"
	want := "%3Ca%3E%60%7Bb%7D%7C%5E%5C%22c %20 é/"
	if got := PercentEncode(in); got != want {
		t.Errorf("PercentEncode(%q) = %q, want %q", in, got, want)
	}
}

func TestRegistry_NormalizePrefixed(t *testing.T) {
	reg := NewRegistry("CB")

	tests := []struct {
		uri  string
		want Token
	}{
		{"http://www.w3.org/2000/01/rdf-schema#Class", Prefixed("rdfs", "Class")},
		{"http://schema.org/Thing", Prefixed("schema", "Thing")},
		{"http://www.w3.org/2001/XMLSchema#string", Prefixed("xsd", "string")},
		{"https://dca.app.sagebionetworks.org/vocab/AnnotationTemplate", Prefixed("dca", "AnnotationTemplate")},
		{"https://dca.app.sagebionetworks.org/CB/FileType", Prefixed("cb", "FileType")},
		{"https://dca.app.sagebionetworks.org/CB/", Prefixed("cb", "")},
		{"http://schema.biothings.io/Component", Prefixed("cb", "Component")},
		{"bts:Biospecimen", Prefixed("cb", "Biospecimen")},
	}

	for _, tt := range tests {
		got := reg.Normalize(tt.uri)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Normalize(%q) mismatch (-want +got):\n%s", tt.uri, diff)
		}
	}
}

func TestRegistry_PrefixedRoundTrip(t *testing.T) {
	reg := NewRegistry("CB")
	uris := []string{
		"http://www.w3.org/2000/01/rdf-schema#label",
		"http://www.w3.org/1999/02/22-rdf-syntax-ns#type",
		"http://schema.org/name",
		"https://dca.app.sagebionetworks.org/vocab/fileType",
		"https://dca.app.sagebionetworks.org/CB/BiospecimenTemplate",
		"https://dca.app.sagebionetworks.org/CB/Größe",
	}

	for _, uri := range uris {
		tok := reg.Normalize(uri)
		if !tok.IsPrefixed() {
			t.Fatalf("Expected prefixed token for %s, got %s", uri, tok)
		}
		expanded, ok := reg.Expand(tok.String())
		if !ok {
			t.Fatalf("Expand(%s) failed", tok)
		}
		if expanded != uri {
			t.Errorf("Round trip mismatch: %s -> %s -> %s", uri, tok, expanded)
		}
	}
}

func TestRegistry_NormalizeReservedLocal(t *testing.T) {
	reg := NewRegistry("CB")
	uris := []string{
		"https://dca.app.sagebionetworks.org/CB/a/b",
		"https://dca.app.sagebionetworks.org/CB/Age (years)",
		"https://dca.app.sagebionetworks.org/CB/v1.2",
		"https://dca.app.sagebionetworks.org/CB/{x}|\"y\"",
		"http://example.org/other#frag",
	}

	for _, uri := range uris {
		tok := reg.Normalize(uri)
		if tok.IsPrefixed() {
			t.Fatalf("Expected full URI for %q, got %s", uri, tok)
		}
		if strings.ContainsAny(tok.URI, " <>\"{}|^`\\") {
			t.Errorf("Bracketed URI still contains a forbidden character: %s", tok)
		}
		decoded, err := url.PathUnescape(tok.URI)
		if err != nil {
			t.Fatalf("PathUnescape(%s) failed: %v", tok.URI, err)
		}
		if decoded != uri {
			t.Errorf("Decoded %q, want %q", decoded, uri)
		}
	}
}

func TestRegistry_NormalizeLegacyWithReservedLocal(t *testing.T) {
	reg := NewRegistry("CB")

	got := reg.Normalize("http://schema.biothings.io/Age (years)")
	want := FullURI("https://dca.app.sagebionetworks.org/CB/Age%20(years)")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
	if got.String() != "<https://dca.app.sagebionetworks.org/CB/Age%20(years)>" {
		t.Errorf("Unexpected rendering %s", got)
	}
}

func TestRegistry_NormalizeUnknownBase(t *testing.T) {
	reg := NewRegistry("CB")
	got := reg.Normalize("http://purl.obolibrary.org/obo/NCIT_C25150")
	want := FullURI("http://purl.obolibrary.org/obo/NCIT_C25150")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_TypeTokenVerbatim(t *testing.T) {
	reg := NewRegistry("CB")
	tests := map[string]string{
		"rdfs:Class":                  "rdfs:Class",
		"schema:Thing":                "schema:Thing",
		"bts:Component":               "cb:Component",
		"http://schema.org/Thing":     "schema:Thing",
		"rdfs:Age (years)":            "<rdfs:Age%20(years)>",
		"https://example.org/a/Thing": "<https://example.org/a/Thing>",
	}
	for in, want := range tests {
		if got := reg.typeToken(in); got != want {
			t.Errorf("typeToken(%q) = %s, want %s", in, got, want)
		}
	}
}
