package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/anngvu/annotation-meta-analysis/internal/logger"
	"github.com/anngvu/annotation-meta-analysis/internal/source"
	"github.com/anngvu/annotation-meta-analysis/internal/templates"
)

// ExtractTemplates classifies the templates of every cached data model and
// writes <Project>_templates.csv. A cached template config, when present,
// takes priority over the keyword heuristics.
func (r *Runner) ExtractTemplates(ctx context.Context, project string, opts templates.Options) (*Report, error) {
	report := newReport()
	inputs, err := r.discover(r.cfg.Paths.DataModels, DataModelSuffix, project, report, true)
	if err != nil {
		return report, err
	}

	logger.Info("Extracting templates", "count", len(inputs), "out", r.cfg.Paths.Templates)
	err = r.run(ctx, inputs, report, func(_ context.Context, in input) (ProjectReport, error) {
		f, err := os.Open(in.path)
		if err != nil {
			return ProjectReport{}, err
		}
		defer f.Close()

		nodes, err := source.ReadDataModel(f)
		if err != nil {
			return ProjectReport{}, fmt.Errorf("failed to read %s: %w", in.path, err)
		}

		cfg := r.loadTemplateConfig(in.project)
		found := templates.FromNodes(nodes)
		rows := templates.Extract(found, cfg, opts)

		var buf bytes.Buffer
		if err := templates.WriteCSV(&buf, rows); err != nil {
			return ProjectReport{}, err
		}
		out, err := writeFile(r.cfg.Paths.Templates, in.project+TemplatesSuffix, buf.Bytes())
		if err != nil {
			return ProjectReport{}, err
		}

		summary := templates.Summarize(rows)
		logger.Info("Extracted templates", "project", in.project, "found", len(found), "written", len(rows),
			"config", cfg != nil)
		for fileType, n := range summary.FileTypes {
			logger.Debug("Annotation file type", "project", in.project, "file_type", fileType, "count", n)
		}
		return ProjectReport{
			Project: in.project,
			Output:  out,
			Nodes:   len(rows),
			Roles:   summary.Roles,
		}, nil
	})
	return report, err
}

// loadTemplateConfig reads the cached template config of project. A missing
// or unreadable config yields nil.
func (r *Runner) loadTemplateConfig(project string) *templates.Config {
	path := filepath.Join(r.cfg.Paths.TemplateConfigs, project+TemplateConfigSuffix)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		logger.Warn("Could not open template config", "project", project, "err", err)
		return nil
	}
	defer f.Close()

	cfg, err := templates.ParseConfig(f)
	if err != nil {
		logger.Warn("Could not read template config", "project", project, "err", err)
		return nil
	}
	return cfg
}
