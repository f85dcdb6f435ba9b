package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/anngvu/annotation-meta-analysis/internal/fetch"
	"github.com/anngvu/annotation-meta-analysis/internal/logger"
	"github.com/anngvu/annotation-meta-analysis/internal/pipeline"
	"github.com/anngvu/annotation-meta-analysis/internal/storage"
	"github.com/anngvu/annotation-meta-analysis/internal/store"
	"github.com/anngvu/annotation-meta-analysis/internal/templates"
)

type convertFunc func(ctx context.Context, project string) (*pipeline.Report, error)

func convertCmd(a *app) *cobra.Command {
	var (
		project string
		watch   bool
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert data models to Turtle",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := pipeline.New(a.cfg)
			if watch {
				return watchInputs(cmd, a.cfg.Paths.DataModels, pipeline.DataModelSuffix, "subjects", runner.ConvertDataModels)
			}
			report, err := runner.ConvertDataModels(cmd.Context(), project)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report, "subjects")
			return report.Err()
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Convert only this project")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reconvert data models as they change")
	cmd.MarkFlagsMutuallyExclusive("project", "watch")
	return cmd
}

func enrichCmd(a *app) *cobra.Command {
	var (
		project string
		watch   bool
	)
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Convert template CSVs to enrichment Turtle",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := pipeline.New(a.cfg)
			if watch {
				return watchInputs(cmd, a.cfg.Paths.Templates, pipeline.TemplatesSuffix, "templates", runner.ConvertEnrichment)
			}
			report, err := runner.ConvertEnrichment(cmd.Context(), project)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report, "templates")
			return report.Err()
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Convert only this project")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reconvert template CSVs as they change")
	cmd.MarkFlagsMutuallyExclusive("project", "watch")
	return cmd
}

// watchInputs converts every project once, then reconverts single projects
// as their inputs change until the command context is canceled
func watchInputs(cmd *cobra.Command, dir, suffix, unit string, convert convertFunc) error {
	out := cmd.OutOrStdout()
	report, err := convert(cmd.Context(), "")
	if err != nil && !errors.Is(err, pipeline.ErrNoInputs) {
		return err
	}
	if report != nil {
		printReport(out, report, unit)
	}

	w, err := pipeline.NewWatcher(dir, suffix, pipeline.DefaultDebounce, func(ctx context.Context, project string) {
		report, err := convert(ctx, project)
		if err != nil {
			logger.Error("Conversion failed", "project", project, "err", err)
			return
		}
		printReport(out, report, unit)
	})
	if err != nil {
		return err
	}
	return w.Run(cmd.Context())
}

func extractCmd(a *app) *cobra.Command {
	var (
		project    string
		includeAll bool
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Classify data model templates into template CSVs",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := pipeline.New(a.cfg).ExtractTemplates(cmd.Context(), project, templates.Options{IncludeAll: includeAll})
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report, "templates")
			return report.Err()
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Extract only this project")
	cmd.Flags().BoolVar(&includeAll, "include-all", false, "Keep templates classified as attributes")
	return cmd
}

func fetchCmd(a *app) *cobra.Command {
	var (
		project  string
		discover string
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download data models and template configs",
		Long: `Download the data model and template config of every project in the
project index. With --discover, the index is rebuilt from the
*/dca_config.json files under the given directory first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := loadIndex(a, discover)
			if err != nil {
				return err
			}
			if project != "" {
				projects = filterProject(projects, project)
				if len(projects) == 0 {
					return fmt.Errorf("project %q not found in %s", project, a.cfg.Paths.URLs)
				}
			}

			skip := a.cfg.Ignored
			if project != "" {
				skip = nil
			}
			f := fetch.New(nil, fetch.Options{
				DataModelDir:      a.cfg.Paths.DataModels,
				TemplateConfigDir: a.cfg.Paths.TemplateConfigs,
				Workers:           a.cfg.Workers,
				Retries:           a.cfg.Fetch.Retries,
				Timeout:           a.cfg.Fetch.Timeout,
				Skip:              skip,
			})
			result, err := f.FetchAll(cmd.Context(), projects)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Summary: %d succeeded, %d failed, %d skipped\n",
				len(result.Succeeded), len(result.Failed), len(result.Skipped))
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d project(s) failed to download", len(result.Failed))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Fetch only this project")
	cmd.Flags().StringVar(&discover, "discover", "", "Rebuild the project index from */dca_config.json under this directory")
	return cmd
}

// loadIndex reads the project index, rebuilding it from deployment configs
// when discoverRoot is set
func loadIndex(a *app, discoverRoot string) ([]fetch.Project, error) {
	if discoverRoot != "" {
		projects, err := fetch.Discover(discoverRoot, a.cfg.Ignored)
		if err != nil {
			return nil, err
		}
		f, err := os.Create(a.cfg.Paths.URLs)
		if err != nil {
			return nil, fmt.Errorf("failed to write project index: %w", err)
		}
		defer f.Close()
		if err := fetch.WriteIndex(f, projects); err != nil {
			return nil, err
		}
		logger.Info("Rebuilt project index", "projects", len(projects), "path", a.cfg.Paths.URLs)
		return projects, nil
	}

	f, err := os.Open(a.cfg.Paths.URLs)
	if err != nil {
		return nil, fmt.Errorf("failed to open project index: %w", err)
	}
	defer f.Close()

	projects, err := fetch.ReadIndex(f)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, fmt.Errorf("no projects found in %s", a.cfg.Paths.URLs)
	}
	return projects, nil
}

func filterProject(projects []fetch.Project, name string) []fetch.Project {
	var out []fetch.Project
	for _, p := range projects {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

func openStore(a *app) (*store.TripleStore, error) {
	s, err := storage.NewBadgerStorage(a.cfg.Paths.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", a.cfg.Paths.Store, err)
	}
	return store.NewTripleStore(s), nil
}

func loadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load [file.ttl|glob...]",
		Short: "Load Turtle files into the triple store",
		Long: `Load Turtle files into the triple store. Arguments may be glob
patterns such as 'rdf/**/*.ttl'. Without arguments, every generated data
model and enrichment document is loaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := pipeline.New(a.cfg)
			var (
				files []string
				err   error
			)
			if len(args) > 0 {
				files, err = pipeline.ExpandPatterns(args)
			} else {
				files, err = runner.TurtleFiles()
			}
			if err != nil {
				return err
			}

			st, err := openStore(a)
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := runner.Load(cmd.Context(), st, files)
			if err != nil {
				return err
			}
			count, err := st.Count()
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report, "triples")
			fmt.Fprintf(cmd.OutOrStdout(), "Store holds %d triples\n", count)
			return report.Err()
		},
	}
}

func templatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the templates in the triple store",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(a)
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := pipeline.Templates(st, a.cfg.BaseURI)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "IRI\tLABEL\tDEPENDENCIES")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\n", e.IRI, e.Label, e.Dependencies)
			}
			return w.Flush()
		},
	}
}

// printReport writes one line per project and the role totals
func printReport(w io.Writer, report *pipeline.Report, unit string) {
	for _, p := range report.Projects {
		line := fmt.Sprintf("%s: %d %s", p.Project, p.Nodes, unit)
		if p.Skipped > 0 {
			line += fmt.Sprintf(" (%d skipped)", p.Skipped)
		}
		if p.Output != "" {
			line += " -> " + p.Output
		}
		fmt.Fprintln(w, line)
		if len(p.Roles) > 0 {
			fmt.Fprintf(w, "  roles: %s\n", formatCounts(p.Roles))
		}
	}
	if len(report.Ignored) > 0 {
		fmt.Fprintf(w, "Ignored: %s\n", strings.Join(report.Ignored, ", "))
	}
	for name, err := range report.Failed {
		fmt.Fprintf(w, "%s: FAILED: %v\n", name, err)
	}
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
