package turtle

import (
	"strconv"
	"strings"

	"github.com/anngvu/annotation-meta-analysis/pkg/graph"
)

const indent = "    "

// Predicates written by ConvertNode
const (
	predLabel              = "rdfs:label"
	predComment            = "rdfs:comment"
	predSubClassOf         = "rdfs:subClassOf"
	predDisplayName        = VocabPrefix + ":displayName"
	predRequired           = VocabPrefix + ":required"
	predRequiresDependency = VocabPrefix + ":requiresDependency"
	predValidationRules    = VocabPrefix + ":validationRules"
	predSpecies            = VocabPrefix + ":species"
	predFileType           = VocabPrefix + ":fileType"
)

// templateClasses maps an enrichment role to its dca class
var templateClasses = map[graph.TemplateRole]string{
	graph.RoleRecord:       VocabPrefix + ":RecordTemplate",
	graph.RoleAnnotation:   VocabPrefix + ":AnnotationTemplate",
	graph.RoleUnconfigured: VocabPrefix + ":UnconfiguredTemplate",
}

// ConvertNode renders node as one subject block. It returns false when the
// node is skipped: a node without an id, or a node that would produce a
// subject with no predicates.
//
// Types go on the subject line; every other statement is on its own
// indented line, in a fixed order. The block ends with " ." and has no
// trailing newline.
func ConvertNode(node graph.Node, reg *Registry) (string, bool) {
	if node.ID == "" {
		return "", false
	}

	subject := reg.Normalize(node.ID).String()

	var types []string
	for _, t := range node.Types {
		if t == "" {
			continue
		}
		types = append(types, reg.typeToken(t))
	}

	var lines []string
	bareSubject := len(types) == 0
	if bareSubject {
		lines = append(lines, subject)
	} else {
		lines = append(lines, subject+" a "+strings.Join(types, ", "))
	}

	add := func(predicate, object string) {
		lines = append(lines, indent+predicate+" "+object)
	}

	if node.Label != "" {
		add(predLabel, Escape(node.Label))
	}
	if node.Comment != "" {
		add(predComment, Escape(node.Comment))
	}
	if refs := joinRefs(node.SubClassOf, reg); refs != "" {
		add(predSubClassOf, refs)
	}
	if node.DisplayName != "" {
		add(predDisplayName, Escape(node.DisplayName))
	}
	if node.Required != nil {
		add(predRequired, strconv.FormatBool(*node.Required))
	}
	if refs := joinRefs(node.RequiresDependency, reg); refs != "" {
		add(predRequiresDependency, refs)
	}
	if node.HasValidationRules() {
		add(predValidationRules, FormatList(node.ValidationRules))
	}
	if class, ok := templateClasses[node.TemplateRole]; ok {
		add("a", class)
	}
	if node.Species != "" {
		add(predSpecies, Escape(node.Species))
	}
	if node.FileType != "" {
		add(predFileType, Escape(node.FileType))
	}

	if bareSubject && len(lines) == 1 {
		return "", false
	}

	var sb strings.Builder
	last := len(lines) - 1
	for i, line := range lines {
		sb.WriteString(line)
		switch {
		case i == 0 && bareSubject:
			sb.WriteByte('\n')
		case i == last:
			sb.WriteString(" .")
		default:
			sb.WriteString(" ;\n")
		}
	}
	return sb.String(), true
}

// joinRefs normalizes each non-empty reference and joins them as an object
// list. It is not an RDF collection: order carries no meaning.
func joinRefs(refs []string, reg *Registry) string {
	tokens := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		tokens = append(tokens, reg.Normalize(ref).String())
	}
	return strings.Join(tokens, ", ")
}
