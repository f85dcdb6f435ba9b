// Package source reads the graph inputs of a conversion run: JSON-LD data
// models and the template enrichment CSV.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/anngvu/annotation-meta-analysis/pkg/graph"
)

// ErrNoGraph is returned by ReadDocument when the input has no @graph key
var ErrNoGraph = errors.New("source: document has no @graph")

// ref is a JSON-LD node reference, {"@id": "..."}. A bare string is
// accepted as well.
type ref struct {
	ID string `json:"@id"`
}

func (r *ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	type plain ref
	return json.Unmarshal(data, (*plain)(r))
}

// required is sms:required: a JSON boolean or the "sms:true" / "sms:false"
// sentinel strings.
type required bool

func (r *required) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*r = required(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("sms:required: %w", err)
	}
	*r = s == "sms:true" || s == "true"
	return nil
}

// entry is one @graph item as written by the schematic data model tooling
type entry struct {
	ID                 string                   `json:"@id"`
	Type               graph.OneOrMany[string]  `json:"@type"`
	Label              string                   `json:"rdfs:label"`
	Comment            string                   `json:"rdfs:comment"`
	SubClassOf         graph.OneOrMany[ref]     `json:"rdfs:subClassOf"`
	DisplayName        string                   `json:"sms:displayName"`
	Required           *required                `json:"sms:required"`
	RequiresDependency graph.OneOrMany[ref]     `json:"sms:requiresDependency"`
	ValidationRules    *graph.OneOrMany[string] `json:"sms:validationRules"`
}

type document struct {
	Graph *[]json.RawMessage `json:"@graph"`
}

// ReadDataModel decodes a JSON-LD data model into nodes in @graph order.
// A document without @graph yields no nodes.
func ReadDataModel(r io.Reader) ([]graph.Node, error) {
	nodes, err := ReadDocument(r)
	if errors.Is(err, ErrNoGraph) {
		return nil, nil
	}
	return nodes, err
}

// ReadDocument is ReadDataModel, but reports a missing @graph as ErrNoGraph
func ReadDocument(r io.Reader) ([]graph.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading JSON-LD: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}
	if doc.Graph == nil {
		return nil, ErrNoGraph
	}

	nodes := make([]graph.Node, 0, len(*doc.Graph))
	for i, raw := range *doc.Graph {
		if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
			// not a graph item
			continue
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("@graph[%d]: %w", i, err)
		}
		nodes = append(nodes, e.node())
	}
	return nodes, nil
}

func (e *entry) node() graph.Node {
	n := graph.Node{
		ID:                 e.ID,
		Types:              e.Type.Values(),
		Label:              e.Label,
		Comment:            e.Comment,
		DisplayName:        e.DisplayName,
		SubClassOf:         refIDs(e.SubClassOf),
		RequiresDependency: refIDs(e.RequiresDependency),
	}
	if e.Required != nil {
		n.Required = graph.Bool(bool(*e.Required))
	}
	if e.ValidationRules != nil {
		n.ValidationRules = e.ValidationRules.Values()
		if n.ValidationRules == nil {
			n.ValidationRules = []string{}
		}
	}
	return n
}

func refIDs(refs graph.OneOrMany[ref]) []string {
	var ids []string
	for _, r := range refs.Values() {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
