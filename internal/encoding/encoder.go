// Package encoding turns RDF terms into fixed-size index keys
package encoding

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"

	"github.com/anngvu/annotation-meta-analysis/pkg/rdf"
)

const (
	// Maximum size for inline strings (16 bytes of UTF-8)
	MaxInlineStringSize = 16

	// Encoded term size (type byte + 16 bytes for 128-bit hash or inline data)
	EncodedTermSize = 17

	// typedSeparator joins value and datatype IRI in the id2str entry of a
	// typed literal
	typedSeparator = "^^"
)

// EncodedTerm is a type byte followed by 16 bytes of hash or inline data
type EncodedTerm [EncodedTermSize]byte

// TermEncoder encodes RDF terms
type TermEncoder struct{}

func NewTermEncoder() *TermEncoder {
	return &TermEncoder{}
}

// Hash128 computes a 128-bit xxhash3 hash of the input string
func (e *TermEncoder) Hash128(s string) [16]byte {
	hash := xxh3.HashString128(s)
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// EncodeTerm encodes an RDF term. The returned string, when non-nil, must
// be stored in the id2str table for the term to be decodable.
func (e *TermEncoder) EncodeTerm(term rdf.Term) (EncodedTerm, *string, error) {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return e.hashed(rdf.TermTypeNamedNode, t.IRI)
	case *rdf.BlankNode:
		return e.hashed(rdf.TermTypeBlankNode, t.ID)
	case *rdf.Literal:
		return e.encodeLiteral(t)
	default:
		return EncodedTerm{}, nil, fmt.Errorf("unknown term type: %T", term)
	}
}

func (e *TermEncoder) hashed(termType rdf.TermType, s string) (EncodedTerm, *string, error) {
	var encoded EncodedTerm
	encoded[0] = byte(termType)
	hash := e.Hash128(s)
	copy(encoded[1:], hash[:])
	return encoded, &s, nil
}

func (e *TermEncoder) encodeLiteral(lit *rdf.Literal) (EncodedTerm, *string, error) {
	if lit.Datatype == nil || lit.Datatype.Equals(rdf.XSDString) {
		return e.encodeStringLiteral(lit)
	}
	if lit.Datatype.Equals(rdf.XSDBoolean) {
		return e.encodeBooleanLiteral(lit)
	}
	return e.hashed(rdf.TermTypeTypedLiteral, lit.Value+typedSeparator+lit.Datatype.IRI)
}

func (e *TermEncoder) encodeStringLiteral(lit *rdf.Literal) (EncodedTerm, *string, error) {
	var encoded EncodedTerm
	encoded[0] = byte(rdf.TermTypeStringLiteral)

	// inline short strings that have no NUL byte to be confused with padding
	if len(lit.Value) <= MaxInlineStringSize && !containsNUL(lit.Value) {
		copy(encoded[1:], lit.Value)
		return encoded, nil, nil
	}

	hash := e.Hash128(lit.Value)
	copy(encoded[1:], hash[:])
	return encoded, &lit.Value, nil
}

func containsNUL(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return true
		}
	}
	return false
}

func (e *TermEncoder) encodeBooleanLiteral(lit *rdf.Literal) (EncodedTerm, *string, error) {
	var encoded EncodedTerm
	encoded[0] = byte(rdf.TermTypeBooleanLiteral)

	value, err := strconv.ParseBool(lit.Value)
	if err != nil {
		return encoded, nil, fmt.Errorf("invalid boolean literal: %w", err)
	}
	if value {
		encoded[1] = 1
	}
	return encoded, nil, nil
}

// EncodeKey concatenates encoded terms into an index key. Keys sort
// lexicographically by term.
func (e *TermEncoder) EncodeKey(terms ...EncodedTerm) []byte {
	result := make([]byte, 0, len(terms)*EncodedTermSize)
	for _, term := range terms {
		result = append(result, term[:]...)
	}
	return result
}

// GetTermType extracts the type from an encoded term
func GetTermType(encoded EncodedTerm) rdf.TermType {
	return rdf.TermType(encoded[0])
}

// NeedsLookup reports whether encoded may have an id2str entry. Inline
// string literals have none and decode from the key itself.
func NeedsLookup(encoded EncodedTerm) bool {
	switch GetTermType(encoded) {
	case rdf.TermTypeNamedNode, rdf.TermTypeBlankNode, rdf.TermTypeTypedLiteral, rdf.TermTypeStringLiteral:
		return true
	default:
		return false
	}
}
