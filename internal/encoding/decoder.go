package encoding

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/anngvu/annotation-meta-analysis/pkg/rdf"
)

// TermDecoder decodes RDF terms
type TermDecoder struct{}

func NewTermDecoder() *TermDecoder {
	return &TermDecoder{}
}

// DecodeTerm decodes an encoded term back to an rdf.Term. stringValue is
// the id2str entry for the term, or nil when there is none.
func (d *TermDecoder) DecodeTerm(encoded EncodedTerm, stringValue *string) (rdf.Term, error) {
	switch termType := GetTermType(encoded); termType {
	case rdf.TermTypeNamedNode:
		if stringValue == nil {
			return nil, fmt.Errorf("string value required for named node")
		}
		return rdf.NewNamedNode(*stringValue), nil

	case rdf.TermTypeBlankNode:
		if stringValue == nil {
			return nil, fmt.Errorf("string value required for blank node")
		}
		return rdf.NewBlankNode(*stringValue), nil

	case rdf.TermTypeStringLiteral:
		if stringValue != nil {
			return rdf.NewLiteral(*stringValue), nil
		}
		data := encoded[1:]
		if end := bytes.IndexByte(data, 0); end >= 0 {
			data = data[:end]
		}
		return rdf.NewLiteral(string(data)), nil

	case rdf.TermTypeBooleanLiteral:
		return rdf.NewBooleanLiteral(encoded[1] != 0), nil

	case rdf.TermTypeTypedLiteral:
		if stringValue == nil {
			return nil, fmt.Errorf("string value required for typed literal")
		}
		i := strings.LastIndex(*stringValue, typedSeparator)
		if i < 0 {
			return nil, fmt.Errorf("malformed typed literal %q", *stringValue)
		}
		value, datatype := (*stringValue)[:i], (*stringValue)[i+len(typedSeparator):]
		return rdf.NewLiteralWithDatatype(value, rdf.NewNamedNode(datatype)), nil

	default:
		return nil, fmt.Errorf("unknown term type: %d", termType)
	}
}
