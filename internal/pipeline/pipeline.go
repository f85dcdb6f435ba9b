// Package pipeline drives the batch conversions: data models and template
// CSVs to Turtle, data models to template CSVs, and Turtle into the triple
// store. Projects are processed in parallel; a failing project is reported
// and does not stop the others.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/anngvu/annotation-meta-analysis/internal/config"
	"github.com/anngvu/annotation-meta-analysis/internal/logger"
)

// File name suffixes that identify each input and output kind
const (
	DataModelSuffix      = "_data_model.jsonld"
	DataModelRDFSuffix   = "_data_model.ttl"
	TemplatesSuffix      = "_templates.csv"
	EnrichmentSuffix     = "_enrichment.ttl"
	TemplateConfigSuffix = "_template_config.json"
)

// ErrNoInputs is returned when a run finds nothing to process
var ErrNoInputs = errors.New("no input files found")

// ProjectReport describes the output for one project
type ProjectReport struct {
	Project string
	Output  string
	// Nodes is the number of subjects (or rows, or triples) written
	Nodes   int
	Skipped int
	Roles   map[string]int
}

// Report collects the per-project outcomes of a run
type Report struct {
	Projects []ProjectReport
	Failed   map[string]error
	Ignored  []string
}

func newReport() *Report {
	return &Report{Failed: make(map[string]error)}
}

// Err summarizes failed projects as one error, or nil
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.Failed))
	for name := range r.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("%d project(s) failed: %s", len(names), strings.Join(names, ", "))
}

func (r *Report) sort() {
	sort.Slice(r.Projects, func(i, j int) bool { return r.Projects[i].Project < r.Projects[j].Project })
	sort.Strings(r.Ignored)
}

// Runner runs pipeline steps with one configuration
type Runner struct {
	cfg *config.Config
}

// New creates a Runner. A nil cfg uses the defaults.
func New(cfg *config.Config) *Runner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Runner{cfg: cfg}
}

// input is one project file found by discover
type input struct {
	project string
	path    string
}

// discover lists dir/*suffix, or only the file of project when it is set.
// Ignored projects are dropped unless named explicitly.
func (r *Runner) discover(dir, suffix, project string, report *Report, skipIgnored bool) ([]input, error) {
	if project != "" {
		path := filepath.Join(dir, project+suffix)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("no %s file for project %q: %w", suffix, project, err)
		}
		return []input{{project: project, path: path}}, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*"+suffix))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s/*%s", ErrNoInputs, dir, suffix)
	}
	sort.Strings(paths)

	inputs := make([]input, 0, len(paths))
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), suffix)
		if skipIgnored && r.cfg.Ignored(name) {
			report.Ignored = append(report.Ignored, name)
			continue
		}
		inputs = append(inputs, input{project: name, path: path})
	}
	return inputs, nil
}

// run applies fn to every input with at most cfg.Workers in flight
func (r *Runner) run(ctx context.Context, inputs []input, report *Report, fn func(context.Context, input) (ProjectReport, error)) error {
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.cfg.Workers, 1))

	for _, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pr, err := fn(gctx, in)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("Project failed", "project", in.project, "err", err)
				report.Failed[in.project] = err
				return nil
			}
			report.Projects = append(report.Projects, pr)
			return nil
		})
	}

	err := g.Wait()
	report.sort()
	return err
}

// writeFile writes data to dir/name, creating dir
func writeFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 - generated public data
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
