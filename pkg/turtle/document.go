package turtle

import (
	"io"
	"strings"

	"github.com/anngvu/annotation-meta-analysis/pkg/graph"
)

// Document collects the subject blocks of one project in source order.
// Nodes are neither sorted nor deduplicated.
type Document struct {
	reg     *Registry
	blocks  []string
	skipped int
}

// NewDocument creates an empty document that resolves URIs against reg
func NewDocument(reg *Registry) *Document {
	return &Document{reg: reg}
}

// Add converts node and appends its block. It reports whether a block was
// written; skipped nodes are counted.
func (d *Document) Add(node graph.Node) bool {
	block, ok := ConvertNode(node, d.reg)
	if !ok {
		d.skipped++
		return false
	}
	d.blocks = append(d.blocks, block)
	return true
}

// AddAll appends every node in order
func (d *Document) AddAll(nodes []graph.Node) {
	for _, node := range nodes {
		d.Add(node)
	}
}

// Len returns the number of subject blocks
func (d *Document) Len() int {
	return len(d.blocks)
}

// Skipped returns the number of nodes that produced no block
func (d *Document) Skipped() int {
	return d.skipped
}

func (d *Document) Registry() *Registry {
	return d.reg
}

// String renders the prefix declarations, a blank line, then the blocks
// separated by blank lines.
func (d *Document) String() string {
	var sb strings.Builder
	for _, ns := range d.reg.entries {
		sb.WriteString("@prefix ")
		sb.WriteString(ns.Prefix)
		sb.WriteString(": ")
		sb.WriteString(baseToken(ns.Base))
		sb.WriteString(" .\n")
	}
	sb.WriteByte('\n')

	for i, block := range d.blocks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(block)
	}
	if len(d.blocks) > 0 {
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteTo writes the rendered document to w
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.String())
	return int64(n), err
}

// Assemble renders nodes as a complete document for project
func Assemble(nodes []graph.Node, project string) string {
	return AssembleWith(NewRegistry(project), nodes)
}

// AssembleWith renders nodes against an existing registry
func AssembleWith(reg *Registry, nodes []graph.Node) string {
	doc := NewDocument(reg)
	doc.AddAll(nodes)
	return doc.String()
}
