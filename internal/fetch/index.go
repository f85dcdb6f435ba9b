package fetch

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Index CSV columns
const (
	ColProject           = "Project"
	ColDataModelURL      = "Data Model URL"
	ColTemplateConfigURL = "Template Config URL"
)

// IndexColumns is the header of the project index CSV
var IndexColumns = []string{ColProject, ColDataModelURL, ColTemplateConfigURL}

// ConfigFileName is the per-project deployment config scanned by Discover
const ConfigFileName = "dca_config.json"

// Project is one row of the project index
type Project struct {
	Name              string
	DataModelURL      string
	TemplateConfigURL string
}

// ReadIndex reads the project index CSV. The template config column is
// optional.
func ReadIndex(r io.Reader) ([]Project, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading index header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{ColProject, ColDataModelURL} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("index has no %q column", required)
		}
	}

	cell := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var projects []Project
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading index: %w", err)
		}
		name := cell(record, ColProject)
		if name == "" {
			continue
		}
		projects = append(projects, Project{
			Name:              name,
			DataModelURL:      cell(record, ColDataModelURL),
			TemplateConfigURL: cell(record, ColTemplateConfigURL),
		})
	}
	return projects, nil
}

// WriteIndex writes projects as an index CSV
func WriteIndex(w io.Writer, projects []Project) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(IndexColumns); err != nil {
		return err
	}
	for _, p := range projects {
		if err := cw.Write([]string{p.Name, p.DataModelURL, p.TemplateConfigURL}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type deploymentConfig struct {
	DCC struct {
		DataModelURL           string `json:"data_model_url"`
		TemplateMenuConfigFile string `json:"template_menu_config_file"`
	} `json:"dcc"`
}

// Discover scans root/*/dca_config.json for project deployments. The
// directory name is the project name. Projects without a data model URL
// and projects for which skip returns true are left out.
func Discover(root string, skip func(string) bool) ([]Project, error) {
	paths, err := filepath.Glob(filepath.Join(root, "*", ConfigFileName))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var projects []Project
	for _, path := range paths {
		name := filepath.Base(filepath.Dir(path))
		if skip != nil && skip(name) {
			continue
		}

		data, err := os.ReadFile(path) // #nosec G304 - path comes from Glob under root
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		var cfg deploymentConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if cfg.DCC.DataModelURL == "" {
			continue
		}
		projects = append(projects, Project{
			Name:              name,
			DataModelURL:      cfg.DCC.DataModelURL,
			TemplateConfigURL: cfg.DCC.TemplateMenuConfigFile,
		})
	}
	return projects, nil
}

// FillTemplateConfigs copies template config URLs from discovered into
// projects that have none
func FillTemplateConfigs(projects, discovered []Project) {
	byName := make(map[string]Project, len(discovered))
	for _, p := range discovered {
		byName[p.Name] = p
	}
	for i := range projects {
		if projects[i].TemplateConfigURL != "" {
			continue
		}
		if d, ok := byName[projects[i].Name]; ok {
			projects[i].TemplateConfigURL = d.TemplateConfigURL
		}
	}
}
