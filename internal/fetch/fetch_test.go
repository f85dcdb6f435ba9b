package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataModel = `{"@context":{},"@graph":[{"@id":"bts:FileType","@type":"rdfs:Class"}]}`

func newServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/model.jsonld", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/ld+json")
		_, _ = w.Write([]byte(dataModel))
	})
	mux.HandleFunc("/config.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"manifest_schemas":[]}`))
	})
	mux.HandleFunc("/html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAll(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	dir := t.TempDir()

	f := New(srv.Client(), Options{
		DataModelDir:      filepath.Join(dir, "data_models"),
		TemplateConfigDir: filepath.Join(dir, "template_configs"),
		Workers:           4,
		Retries:           2,
		Skip:              func(name string) bool { return name == "demo" },
	})

	projects := []Project{
		{Name: "CB", DataModelURL: srv.URL + "/model.jsonld", TemplateConfigURL: srv.URL + "/config.json"},
		{Name: "NF", DataModelURL: srv.URL + "/model.jsonld"},
		{Name: "demo", DataModelURL: srv.URL + "/model.jsonld"},
		{Name: "Broken", DataModelURL: srv.URL + "/missing"},
		{Name: "Empty"},
	}

	result, err := f.FetchAll(context.Background(), projects)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"CB", "NF"}, result.Succeeded)
	assert.Equal(t, []string{"demo"}, result.Skipped)
	assert.Len(t, result.Failed, 2)
	assert.Contains(t, result.Failed, "Broken")
	assert.Contains(t, result.Failed, "Empty")

	// the shared URL is downloaded once
	assert.Equal(t, int32(1), hits.Load())

	data, err := os.ReadFile(filepath.Join(dir, "data_models", "CB_data_model.jsonld"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"@context\""))

	_, err = os.Stat(filepath.Join(dir, "template_configs", "CB_template_config.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "template_configs", "NF_template_config.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestGet_RejectsNonJSON(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)

	f := New(srv.Client(), Options{Retries: 3})
	_, err := f.Get(context.Background(), srv.URL+"/html")
	assert.Error(t, err)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(dataModel))
	}))
	defer srv.Close()

	f := New(srv.Client(), Options{Retries: 2})
	body, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, dataModel, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_NoRetryOnNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(srv.Client(), Options{Retries: 5})
	_, err := f.Get(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryWithContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := RetryWithContext(ctx, 3, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestReadIndex(t *testing.T) {
	input := "\ufeffProject,Data Model URL,Template Config URL\n" +
		"CB,https://example.org/cb.jsonld,https://example.org/cb.json\n" +
		",https://example.org/none.jsonld,\n" +
		"NF,https://example.org/nf.jsonld\n"

	projects, err := ReadIndex(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Project{
		{Name: "CB", DataModelURL: "https://example.org/cb.jsonld", TemplateConfigURL: "https://example.org/cb.json"},
		{Name: "NF", DataModelURL: "https://example.org/nf.jsonld"},
	}, projects)

	var buf strings.Builder
	require.NoError(t, WriteIndex(&buf, projects))
	again, err := ReadIndex(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, projects, again)
}

func TestReadIndex_MissingColumn(t *testing.T) {
	_, err := ReadIndex(strings.NewReader("Project\nCB\n"))
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	write := func(project, body string) {
		dir := filepath.Join(root, project)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(body), 0o600))
	}
	write("NF-OSI", `{"dcc":{"data_model_url":"https://example.org/nf.jsonld","template_menu_config_file":"https://example.org/nf.json"}}`)
	write("CB", `{"dcc":{"data_model_url":"https://example.org/cb.jsonld"}}`)
	write("demo", `{"dcc":{"data_model_url":"https://example.org/demo.jsonld"}}`)
	write("NoModel", `{"dcc":{}}`)

	projects, err := Discover(root, func(name string) bool { return name == "demo" })
	require.NoError(t, err)
	assert.Equal(t, []Project{
		{Name: "CB", DataModelURL: "https://example.org/cb.jsonld"},
		{Name: "NF-OSI", DataModelURL: "https://example.org/nf.jsonld", TemplateConfigURL: "https://example.org/nf.json"},
	}, projects)

	index := []Project{{Name: "NF-OSI", DataModelURL: "x"}, {Name: "Other", DataModelURL: "y"}}
	FillTemplateConfigs(index, projects)
	assert.Equal(t, "https://example.org/nf.json", index[0].TemplateConfigURL)
	assert.Empty(t, index[1].TemplateConfigURL)
}
