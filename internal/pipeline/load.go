package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/anngvu/annotation-meta-analysis/internal/logger"
	"github.com/anngvu/annotation-meta-analysis/internal/store"
	"github.com/anngvu/annotation-meta-analysis/pkg/rdf"
	"github.com/anngvu/annotation-meta-analysis/pkg/turtle"
)

// Load parses the Turtle files at paths in parallel and inserts their
// triples into st. Blank node labels are scoped by file so collections from
// different documents stay distinct. Files that fail to parse are reported;
// the rest are loaded.
func (r *Runner) Load(ctx context.Context, st *store.TripleStore, paths []string) (*Report, error) {
	report := newReport()
	if len(paths) == 0 {
		return report, ErrNoInputs
	}

	inputs := make([]input, 0, len(paths))
	for _, p := range paths {
		inputs = append(inputs, input{project: filepath.Base(p), path: p})
	}

	var mu sync.Mutex
	parsed := make(map[string][]*rdf.Triple, len(inputs))

	err := r.run(ctx, inputs, report, func(_ context.Context, in input) (ProjectReport, error) {
		data, err := os.ReadFile(in.path)
		if err != nil {
			return ProjectReport{}, err
		}
		triples, err := turtle.Parse(string(data))
		if err != nil {
			return ProjectReport{}, fmt.Errorf("failed to parse %s: %w", in.path, err)
		}
		scopeBlankNodes(triples, strings.TrimSuffix(in.project, filepath.Ext(in.project)))

		mu.Lock()
		parsed[in.project] = triples
		mu.Unlock()
		return ProjectReport{Project: in.project, Output: in.path, Nodes: len(triples)}, nil
	})
	if err != nil {
		return report, err
	}

	// badger serializes writers, so inserts run one document at a time
	names := make([]string, 0, len(parsed))
	for name := range parsed {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		triples := parsed[name]
		if err := st.InsertBatch(triples); err != nil {
			return report, fmt.Errorf("failed to load %s: %w", name, err)
		}
		if err := st.RecordSource(name, len(triples)); err != nil {
			return report, err
		}
		logger.Info("Loaded document", "file", name, "triples", len(triples))
	}
	return report, nil
}

// TurtleFiles lists the generated Turtle files of the data model and
// enrichment directories
func (r *Runner) TurtleFiles() ([]string, error) {
	var files []string
	for _, pattern := range []string{
		filepath.Join(r.cfg.Paths.DataModelRDF, "*"+DataModelRDFSuffix),
		filepath.Join(r.cfg.Paths.EnrichmentRDF, "*"+EnrichmentSuffix),
	} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func scopeBlankNodes(triples []*rdf.Triple, scope string) {
	rename := func(t rdf.Term) rdf.Term {
		if b, ok := t.(*rdf.BlankNode); ok {
			return rdf.NewBlankNode(scope + "_" + b.ID)
		}
		return t
	}
	for _, t := range triples {
		t.Subject = rename(t.Subject)
		t.Object = rename(t.Object)
	}
}

// TemplateEntry is a subject that requires dependencies
type TemplateEntry struct {
	IRI          string
	Label        string
	Dependencies int
}

// Templates lists the stored subjects with dca:requiresDependency, sorted
// by IRI
func Templates(st *store.TripleStore, systemBase string) ([]TemplateEntry, error) {
	vocab := strings.TrimRight(systemBase, "/") + "/vocab/"
	requires := rdf.NewNamedNode(vocab + "requiresDependency")
	label := rdf.NewNamedNode(turtle.RDFSNamespace + "label")

	deps, err := st.MatchAll(store.Pattern{Predicate: requires})
	if err != nil {
		return nil, err
	}

	bySubject := make(map[string]*TemplateEntry)
	for _, t := range deps {
		subject, ok := t.Subject.(*rdf.NamedNode)
		if !ok {
			continue
		}
		entry, ok := bySubject[subject.IRI]
		if !ok {
			entry = &TemplateEntry{IRI: subject.IRI}
			bySubject[subject.IRI] = entry

			labels, err := st.MatchAll(store.Pattern{Subject: subject, Predicate: label})
			if err != nil {
				return nil, err
			}
			if len(labels) > 0 {
				if lit, ok := labels[0].Object.(*rdf.Literal); ok {
					entry.Label = lit.Value
				}
			}
		}
		entry.Dependencies++
	}

	entries := make([]TemplateEntry, 0, len(bySubject))
	for _, e := range bySubject {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].IRI < entries[j].IRI })
	return entries, nil
}
