package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/anngvu/annotation-meta-analysis/internal/logger"
	"github.com/anngvu/annotation-meta-analysis/internal/source"
	"github.com/anngvu/annotation-meta-analysis/pkg/graph"
	"github.com/anngvu/annotation-meta-analysis/pkg/turtle"
)

// ConvertDataModels writes <Project>_data_model.ttl for every data model in
// the data model directory, or only for project when it is set
func (r *Runner) ConvertDataModels(ctx context.Context, project string) (*Report, error) {
	report := newReport()
	inputs, err := r.discover(r.cfg.Paths.DataModels, DataModelSuffix, project, report, false)
	if err != nil {
		return report, err
	}

	logger.Info("Converting data models", "count", len(inputs), "out", r.cfg.Paths.DataModelRDF)
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
		if len(nodes) == 0 {
			logger.Warn("Data model has no @graph", "project", in.project)
		}

		pr, data := r.render(in.project, nodes)
		pr.Output, err = writeFile(r.cfg.Paths.DataModelRDF, in.project+DataModelRDFSuffix, data)
		if err != nil {
			return ProjectReport{}, err
		}
		logger.Info("Converted data model", "project", in.project, "subjects", pr.Nodes, "skipped", pr.Skipped)
		return pr, nil
	})
	return report, err
}

// ConvertEnrichment writes <Project>_enrichment.ttl for every template CSV,
// leaving out ignored projects unless project names one explicitly. A CSV
// without rows produces no file.
func (r *Runner) ConvertEnrichment(ctx context.Context, project string) (*Report, error) {
	report := newReport()
	inputs, err := r.discover(r.cfg.Paths.Templates, TemplatesSuffix, project, report, true)
	if err != nil {
		return report, err
	}

	logger.Info("Converting template CSVs", "count", len(inputs), "out", r.cfg.Paths.EnrichmentRDF)
	err = r.run(ctx, inputs, report, func(_ context.Context, in input) (ProjectReport, error) {
		f, err := os.Open(in.path)
		if err != nil {
			return ProjectReport{}, err
		}
		defer f.Close()

		nodes, err := source.ReadTemplates(f, in.project, r.cfg.BaseURI)
		if err != nil {
			return ProjectReport{}, fmt.Errorf("failed to read %s: %w", in.path, err)
		}
		if len(nodes) == 0 {
			logger.Warn("No templates found", "project", in.project)
			return ProjectReport{Project: in.project}, nil
		}

		pr, data := r.render(in.project, nodes)
		pr.Roles = roleNames(source.RoleCounts(nodes))
		pr.Output, err = writeFile(r.cfg.Paths.EnrichmentRDF, in.project+EnrichmentSuffix, data)
		if err != nil {
			return ProjectReport{}, err
		}
		logger.Info("Converted templates", "project", in.project, "templates", len(nodes),
			"record", pr.Roles[graph.RoleRecord.String()],
			"annotation", pr.Roles[graph.RoleAnnotation.String()],
			"unconfigured", pr.Roles[graph.RoleUnconfigured.String()])
		return pr, nil
	})
	return report, err
}

func (r *Runner) render(project string, nodes []graph.Node) (ProjectReport, []byte) {
	doc := turtle.NewDocument(turtle.NewRegistryForBase(r.cfg.BaseURI, project))
	doc.AddAll(nodes)
	return ProjectReport{
		Project: project,
		Nodes:   doc.Len(),
		Skipped: doc.Skipped(),
	}, []byte(doc.String())
}

func roleNames(counts map[graph.TemplateRole]int) map[string]int {
	names := make(map[string]int, len(counts))
	for role, n := range counts {
		names[role.String()] = n
	}
	return names
}
