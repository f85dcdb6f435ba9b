package rdf

import (
	"fmt"
	"strconv"
)

// TermType represents the type of an RDF term
type TermType byte

const (
	TermTypeNamedNode TermType = iota + 1
	TermTypeBlankNode
	TermTypeLiteral

	// Literal subtypes used by the storage encoding
	TermTypeStringLiteral
	TermTypeBooleanLiteral
	TermTypeTypedLiteral
)

// Term represents an RDF term (IRI, blank node, or literal)
type Term interface {
	Type() TermType
	String() string
	Equals(other Term) bool
}

// NamedNode represents an IRI
type NamedNode struct {
	IRI string
}

func NewNamedNode(iri string) *NamedNode {
	return &NamedNode{IRI: iri}
}

func (n *NamedNode) Type() TermType {
	return TermTypeNamedNode
}

func (n *NamedNode) String() string {
	return fmt.Sprintf("<%s>", n.IRI)
}

func (n *NamedNode) Equals(other Term) bool {
	if on, ok := other.(*NamedNode); ok {
		return n.IRI == on.IRI
	}
	return false
}

// BlankNode represents a blank node. Collections read back from Turtle
// are expanded into blank-node rdf:first/rdf:rest chains.
type BlankNode struct {
	ID string
}

func NewBlankNode(id string) *BlankNode {
	return &BlankNode{ID: id}
}

func (b *BlankNode) Type() TermType {
	return TermTypeBlankNode
}

func (b *BlankNode) String() string {
	return fmt.Sprintf("_:%s", b.ID)
}

func (b *BlankNode) Equals(other Term) bool {
	if ob, ok := other.(*BlankNode); ok {
		return b.ID == ob.ID
	}
	return false
}

// Literal represents an RDF literal
type Literal struct {
	Value    string
	Datatype *NamedNode // nil for plain strings
}

func NewLiteral(value string) *Literal {
	return &Literal{Value: value}
}

func NewLiteralWithDatatype(value string, datatype *NamedNode) *Literal {
	return &Literal{Value: value, Datatype: datatype}
}

func NewBooleanLiteral(value bool) *Literal {
	return NewLiteralWithDatatype(strconv.FormatBool(value), XSDBoolean)
}

func (l *Literal) Type() TermType {
	return TermTypeLiteral
}

func (l *Literal) String() string {
	result := strconv.Quote(l.Value)
	if l.Datatype != nil && !l.Datatype.Equals(XSDString) {
		result += "^^" + l.Datatype.String()
	}
	return result
}

func (l *Literal) Equals(other Term) bool {
	ol, ok := other.(*Literal)
	if !ok || l.Value != ol.Value {
		return false
	}
	if l.Datatype == nil || ol.Datatype == nil {
		return l.Datatype == ol.Datatype
	}
	return l.Datatype.Equals(ol.Datatype)
}

// Triple represents an RDF triple (subject, predicate, object)
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func NewTriple(subject, predicate, object Term) *Triple {
	return &Triple{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
}

func (t *Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

// Vocabulary terms used when reading and storing generated documents
var (
	XSDString  = NewNamedNode("http://www.w3.org/2001/XMLSchema#string")
	XSDBoolean = NewNamedNode("http://www.w3.org/2001/XMLSchema#boolean")

	RDFType  = NewNamedNode("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")
	RDFFirst = NewNamedNode("http://www.w3.org/1999/02/22-rdf-syntax-ns#first")
	RDFRest  = NewNamedNode("http://www.w3.org/1999/02/22-rdf-syntax-ns#rest")
	RDFNil   = NewNamedNode("http://www.w3.org/1999/02/22-rdf-syntax-ns#nil")
)
