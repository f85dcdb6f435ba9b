// Package templates finds the templates of a data model and classifies them
// into the enrichment dataset: configured role, species and file type.
package templates

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/anngvu/annotation-meta-analysis/internal/source"
	"github.com/anngvu/annotation-meta-analysis/pkg/graph"
)

const classType = "rdfs:Class"

// Template is a class that other attributes depend on
type Template struct {
	ID                 string
	Label              string
	DisplayName        string
	Comment            string
	RequiresDependency []string
	SubClassOf         []string
}

func (t Template) hasSpeciesDependency() bool {
	for _, dep := range t.RequiresDependency {
		if strings.HasSuffix(dep, ":Species") {
			return true
		}
	}
	return false
}

// schemaName is the local part of the template id, e.g. Biospecimen for
// bts:Biospecimen
func (t Template) schemaName() string {
	if i := strings.LastIndexByte(t.ID, ':'); i >= 0 {
		return t.ID[i+1:]
	}
	return t.ID
}

// FromNodes returns the rdfs:Class nodes that require at least one
// dependency, in graph order
func FromNodes(nodes []graph.Node) []Template {
	var out []Template
	for _, n := range nodes {
		if !slices.Contains(n.Types, classType) || len(n.RequiresDependency) == 0 {
			continue
		}
		out = append(out, Template{
			ID:                 n.ID,
			Label:              n.Label,
			DisplayName:        n.DisplayName,
			Comment:            n.Comment,
			RequiresDependency: n.RequiresDependency,
			SubClassOf:         n.SubClassOf,
		})
	}
	return out
}

// ManifestSchema is one entry of a template menu config
type ManifestSchema struct {
	SchemaName  string `json:"schema_name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	SubmittedAs string `json:"submitted_as"`
}

// Role is submitted_as when set, otherwise type
func (s ManifestSchema) Role() string {
	if s.SubmittedAs != "" {
		return s.SubmittedAs
	}
	return s.Type
}

// Config is a project's template menu configuration
type Config struct {
	ManifestSchemas []ManifestSchema `json:"manifest_schemas"`
}

// ParseConfig decodes a template config document
func ParseConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing template config: %w", err)
	}
	return &cfg, nil
}

// Match returns the first schema naming t by label, id or display name.
// A nil config matches nothing.
func (c *Config) Match(t Template) (ManifestSchema, bool) {
	if c == nil {
		return ManifestSchema{}, false
	}
	for _, s := range c.ManifestSchemas {
		if s.SchemaName == "" {
			continue
		}
		if s.SchemaName == t.Label || s.SchemaName == t.schemaName() || s.SchemaName == t.DisplayName {
			return s, true
		}
	}
	return ManifestSchema{}, false
}

// Row is one line of the template CSV
type Row struct {
	TemplateID  string
	DisplayName string
	Species     string
	FileType    string
	Role        string
	Description string
	DataType    string
}

func (r Row) record() []string {
	return []string{r.TemplateID, r.DisplayName, r.Species, r.FileType, r.Role, r.Description}
}

// Options controls Extract
type Options struct {
	// IncludeAll keeps templates classified as attributes
	IncludeAll bool
}

// Extract classifies every template. Attributes are dropped unless
// opts.IncludeAll is set.
func Extract(templates []Template, cfg *Config, opts Options) []Row {
	rows := make([]Row, 0, len(templates))
	for _, t := range templates {
		dataType, fileType, role := Classify(t, cfg)
		if !opts.IncludeAll && dataType == DataAttribute {
			continue
		}
		rows = append(rows, Row{
			TemplateID:  t.Label,
			DisplayName: firstNonEmpty(t.DisplayName, t.Label),
			Species:     InferSpecies(t),
			FileType:    fileType,
			Role:        role,
			Description: t.Comment,
			DataType:    dataType,
		})
	}
	return rows
}

// WriteCSV writes rows with the template CSV header
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(source.TemplateColumns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary counts rows by role and annotation rows by file type
type Summary struct {
	Roles     map[string]int
	FileTypes map[string]int
}

func Summarize(rows []Row) Summary {
	s := Summary{Roles: make(map[string]int), FileTypes: make(map[string]int)}
	for _, r := range rows {
		s.Roles[r.Role]++
		if r.Role == RoleAnnotation {
			s.FileTypes[r.FileType]++
		}
	}
	return s
}
