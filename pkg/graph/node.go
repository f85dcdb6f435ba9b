// Package graph holds the node records handed from the graph sources
// (JSON-LD data models, template CSVs) to the Turtle serializer.
package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TemplateRole is the configured role of a template in the enrichment dataset
type TemplateRole int

const (
	RoleNone TemplateRole = iota
	RoleRecord
	RoleAnnotation
	RoleUnconfigured
)

func (r TemplateRole) String() string {
	switch r {
	case RoleRecord:
		return "Record"
	case RoleAnnotation:
		return "Annotation"
	case RoleUnconfigured:
		return "Unconfigured"
	default:
		return "None"
	}
}

// Node is one subject to be serialized.
//
// String fields are absent when empty. ValidationRules distinguishes a
// missing key (nil) from an empty list (non-nil, zero length); only the
// latter is emitted.
type Node struct {
	ID    string
	Types []string

	Label       string
	Comment     string
	DisplayName string
	Required    *bool

	RequiresDependency []string
	ValidationRules    []string
	SubClassOf         []string

	// Enrichment attributes
	TemplateRole TemplateRole
	Species      string
	FileType     string
}

// HasValidationRules reports whether the source carried a validation rule list
func (n *Node) HasValidationRules() bool {
	return n.ValidationRules != nil
}

// Bool returns a pointer to b, for building nodes with Required set
func Bool(b bool) *bool {
	return &b
}

// OneOrMany decodes a JSON value that may be either a single T or a list of T.
// Sources resolve it with Values before building a Node, so the serializer
// only ever sees ordered slices.
type OneOrMany[T any] struct {
	items []T
}

// Many builds a OneOrMany from already-resolved values
func Many[T any](items ...T) OneOrMany[T] {
	return OneOrMany[T]{items: items}
}

// Values returns the resolved items in source order
func (o OneOrMany[T]) Values() []T {
	return o.items
}

// Len returns the number of resolved items
func (o OneOrMany[T]) Len() int {
	return len(o.items)
}

func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		o.items = nil
		return nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("decoding list: %w", err)
		}
		o.items = items
		return nil
	}

	var single T
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return fmt.Errorf("decoding single value: %w", err)
	}
	o.items = []T{single}
	return nil
}

func (o OneOrMany[T]) MarshalJSON() ([]byte, error) {
	if len(o.items) == 1 {
		return json.Marshal(o.items[0])
	}
	if o.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o.items)
}
