package turtle

import "strings"

// FormatList renders items as an RDF collection, e.g. ( "a" "b" ).
// An empty list is written as ( ), which reads back as rdf:nil.
func FormatList(items []string) string {
	if len(items) == 0 {
		return "( )"
	}

	var sb strings.Builder
	sb.WriteString("( ")
	for i, item := range items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(Escape(item))
	}
	sb.WriteString(" )")
	return sb.String()
}
