package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/anngvu/annotation-meta-analysis/pkg/graph"
)

// Template CSV columns
const (
	ColTemplateID  = "template_id"
	ColDisplayName = "display_name"
	ColSpecies     = "species"
	ColFileType    = "file_type"
	ColRole        = "configured_template_role"
	ColDescription = "description"
)

// TemplateColumns is the header row of a template CSV
var TemplateColumns = []string{ColTemplateID, ColDisplayName, ColSpecies, ColFileType, ColRole, ColDescription}

// Placeholder values that mean "absent"
const (
	SpeciesNotSpecified = "Not specified"
	NotApplicable       = "N/A"
)

// ParseRole maps a configured_template_role cell to a role. N/A means the
// template exists but has no configuration; any other value has no role.
func ParseRole(s string) graph.TemplateRole {
	switch s {
	case "Record":
		return graph.RoleRecord
	case "Annotation":
		return graph.RoleAnnotation
	case NotApplicable:
		return graph.RoleUnconfigured
	default:
		return graph.RoleNone
	}
}

// ReadTemplates decodes a template CSV into enrichment nodes for project.
// Each node is identified as <base>/<project>/<template_id>.
func ReadTemplates(r io.Reader, project, base string) ([]graph.Node, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := cols[ColTemplateID]; !ok {
		return nil, fmt.Errorf("CSV has no %s column", ColTemplateID)
	}

	cell := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	prefix := strings.TrimRight(base, "/") + "/" + project + "/"

	var nodes []graph.Node
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}

		id := cell(record, ColTemplateID)
		node := graph.Node{
			TemplateRole: ParseRole(cell(record, ColRole)),
		}
		if id != "" {
			node.ID = prefix + id
		}
		if species := cell(record, ColSpecies); species != SpeciesNotSpecified {
			node.Species = species
		}
		if fileType := cell(record, ColFileType); fileType != NotApplicable {
			node.FileType = fileType
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// RoleCounts tallies nodes by template role
func RoleCounts(nodes []graph.Node) map[graph.TemplateRole]int {
	counts := make(map[graph.TemplateRole]int)
	for _, n := range nodes {
		counts[n.TemplateRole]++
	}
	return counts
}
