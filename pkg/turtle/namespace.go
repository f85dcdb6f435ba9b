package turtle

import "strings"

const (
	// DefaultSystemBase is the root under which project namespaces and the
	// dca vocabulary live.
	DefaultSystemBase = "https://dca.app.sagebionetworks.org"

	// LegacyBase is the schema.biothings.io namespace the data models use for
	// their own terms; those terms are rewritten into the project namespace.
	LegacyBase = "http://schema.biothings.io/"

	// LegacyPrefix is the compact form of LegacyBase found in data models.
	LegacyPrefix = "bts:"

	VocabPrefix = "dca"
)

// Well-known namespace bases
const (
	RDFSNamespace   = "http://www.w3.org/2000/01/rdf-schema#"
	RDFNamespace    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	SchemaNamespace = "http://schema.org/"
	XSDNamespace    = "http://www.w3.org/2001/XMLSchema#"
)

// Namespace is one prefix declaration
type Namespace struct {
	Prefix string
	Base   string
}

// Registry is the ordered prefix table for one conversion run. The fixed
// vocabularies come first, followed by the project namespace. A Registry is
// never modified after construction and can be shared between goroutines.
type Registry struct {
	entries    []Namespace
	systemBase string
	project    string
}

// NewRegistry builds the registry for project under DefaultSystemBase
func NewRegistry(project string) *Registry {
	return NewRegistryForBase(DefaultSystemBase, project)
}

// NewRegistryForBase builds the registry for project under systemBase.
// A trailing slash on systemBase is ignored.
func NewRegistryForBase(systemBase, project string) *Registry {
	systemBase = strings.TrimRight(systemBase, "/")

	entries := []Namespace{
		{Prefix: "rdfs", Base: RDFSNamespace},
		{Prefix: "rdf", Base: RDFNamespace},
		{Prefix: "schema", Base: SchemaNamespace},
		{Prefix: "xsd", Base: XSDNamespace},
		{Prefix: VocabPrefix, Base: systemBase + "/vocab/"},
	}

	prefix := ProjectPrefix(project)
	for _, ns := range entries {
		if ns.Prefix == prefix {
			prefix += "-project"
			break
		}
	}
	entries = append(entries, Namespace{Prefix: prefix, Base: systemBase + "/" + project + "/"})

	return &Registry{
		entries:    entries,
		systemBase: systemBase,
		project:    project,
	}
}

// Entries returns the prefix declarations in registry order
func (r *Registry) Entries() []Namespace {
	out := make([]Namespace, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Registry) Project() string {
	return r.project
}

func (r *Registry) SystemBase() string {
	return r.systemBase
}

// ProjectNamespace returns the project entry, always the last one
func (r *Registry) ProjectNamespace() Namespace {
	return r.entries[len(r.entries)-1]
}

// VocabNamespace returns the dca vocabulary entry
func (r *Registry) VocabNamespace() Namespace {
	ns, _ := r.lookup(VocabPrefix)
	return ns
}

// Lookup returns the base bound to prefix
func (r *Registry) Lookup(prefix string) (string, bool) {
	ns, ok := r.lookup(prefix)
	return ns.Base, ok
}

func (r *Registry) lookup(prefix string) (Namespace, bool) {
	for _, ns := range r.entries {
		if ns.Prefix == prefix {
			return ns, true
		}
	}
	return Namespace{}, false
}

// Expand turns a prefixed name into an absolute URI
func (r *Registry) Expand(pname string) (string, bool) {
	idx := strings.IndexByte(pname, ':')
	if idx < 0 {
		return "", false
	}
	base, ok := r.Lookup(pname[:idx])
	if !ok {
		return "", false
	}
	return base + pname[idx+1:], true
}

// isFixedPrefixed reports whether token is already written with one of the
// fixed vocabulary prefixes (rdfs:Class, schema:Thing, ...)
func (r *Registry) isFixedPrefixed(token string) bool {
	idx := strings.IndexByte(token, ':')
	if idx <= 0 {
		return false
	}
	prefix := token[:idx]
	for _, ns := range r.entries[:len(r.entries)-1] {
		if ns.Prefix == prefix {
			return !NeedsURIEscaping(token[idx+1:])
		}
	}
	return false
}

// ProjectPrefix derives the Turtle prefix label for a project name: the
// lowercased name, with characters that cannot appear in a prefix label
// replaced by '_' and a leading 'p' added when the name does not start with
// a letter.
func ProjectPrefix(project string) string {
	if project == "" {
		return ""
	}

	var sb strings.Builder
	for _, r := range strings.ToLower(project) {
		switch {
		case r == '-' || r == '_' || r == '.':
			sb.WriteRune(r)
		case (r >= '0' && r <= '9') || isPNCharsBase(r):
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}

	prefix := strings.TrimRight(sb.String(), ".")
	if r := []rune(prefix); len(r) == 0 || !isPNCharsBase(r[0]) {
		prefix = "p" + prefix
	}
	return prefix
}
