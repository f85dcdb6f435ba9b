// Package fetch downloads project data models and template configs into the
// local cache directories.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/anngvu/annotation-meta-analysis/internal/logger"
)

// maxBodySize bounds a single download
const maxBodySize = 256 << 20

// DataModelFile is the cache file name of a project's data model
func DataModelFile(project string) string {
	return project + "_data_model.jsonld"
}

// TemplateConfigFile is the cache file name of a project's template config
func TemplateConfigFile(project string) string {
	return project + "_template_config.json"
}

// Options configures a Fetcher
type Options struct {
	DataModelDir      string
	TemplateConfigDir string
	Workers           int
	Retries           int
	Timeout           time.Duration
	// Skip excludes projects by name
	Skip func(string) bool
}

// Fetcher downloads JSON documents. Identical URLs requested concurrently
// are fetched once, and each URL is fetched at most once per Fetcher.
type Fetcher struct {
	client *http.Client
	opts   Options

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// New creates a Fetcher. A nil client uses a client with opts.Timeout.
func New(client *http.Client, opts Options) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Fetcher{
		client: client,
		opts:   opts,
		cache:  make(map[string][]byte),
	}
}

// Get downloads url and checks that the body is JSON
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	f.cacheMu.RLock()
	if cached, ok := f.cache[url]; ok {
		f.cacheMu.RUnlock()
		return cached, nil
	}
	f.cacheMu.RUnlock()

	result, err, _ := f.group.Do(url, func() (any, error) {
		f.cacheMu.RLock()
		if cached, ok := f.cache[url]; ok {
			f.cacheMu.RUnlock()
			return cached, nil
		}
		f.cacheMu.RUnlock()

		body, err := RetryWithContext(ctx, f.opts.Retries+1, func(ctx context.Context) ([]byte, error) {
			return f.get(ctx, url)
		})
		if err != nil {
			return nil, err
		}

		f.cacheMu.Lock()
		f.cache[url] = body
		f.cacheMu.Unlock()
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json, application/ld+json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("failed to fetch %s: %s", url, resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, permanent(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, permanent(fmt.Errorf("response from %s is not JSON", url))
	}
	return body, nil
}

// Result reports the outcome of FetchAll
type Result struct {
	Succeeded []string
	Failed    map[string]error
	Skipped   []string
}

// FetchAll downloads the data model and template config of every project.
// A failing project is recorded in the result and does not stop the others;
// only cancellation of ctx aborts the run.
func (f *Fetcher) FetchAll(ctx context.Context, projects []Project) (*Result, error) {
	for _, dir := range []string{f.opts.DataModelDir, f.opts.TemplateConfigDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	result := &Result{Failed: make(map[string]error)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)

	for _, p := range projects {
		if f.opts.Skip != nil && f.opts.Skip(p.Name) {
			result.Skipped = append(result.Skipped, p.Name)
			continue
		}
		g.Go(func() error {
			err := f.fetchProject(gctx, p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Error("Failed to fetch project", "project", p.Name, "err", err)
				result.Failed[p.Name] = err
				return nil
			}
			logger.Info("Fetched project", "project", p.Name)
			result.Succeeded = append(result.Succeeded, p.Name)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

func (f *Fetcher) fetchProject(ctx context.Context, p Project) error {
	if p.DataModelURL == "" {
		return fmt.Errorf("no data model URL")
	}

	model, err := f.Get(ctx, p.DataModelURL)
	if err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(f.opts.DataModelDir, DataModelFile(p.Name)), model); err != nil {
		return err
	}

	if p.TemplateConfigURL == "" || f.opts.TemplateConfigDir == "" {
		return nil
	}
	config, err := f.Get(ctx, p.TemplateConfigURL)
	if err != nil {
		// the template config only refines classification
		logger.Warn("Failed to fetch template config", "project", p.Name, "err", err)
		return nil
	}
	return writeJSON(filepath.Join(f.opts.TemplateConfigDir, TemplateConfigFile(p.Name)), config)
}

// writeJSON stores body indented with two spaces
func writeJSON(path string, body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return fmt.Errorf("failed to format %s: %w", path, err)
	}
	buf.WriteByte('\n')

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { // #nosec G306 - cached public documents
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
