package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, filepath.Join(dir, "a"), "CB_data_model.ttl", "")
	writeInput(t, filepath.Join(dir, "a", "b"), "NF_enrichment.ttl", "")
	writeInput(t, dir, "notes.txt", "")

	files, err := ExpandPatterns([]string{
		filepath.Join(dir, "**", "*.ttl"),
		filepath.Join(dir, "a", "CB_data_model.ttl"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a", "CB_data_model.ttl"),
		filepath.Join(dir, "a", "b", "NF_enrichment.ttl"),
	}, files)

	// plain paths pass through even when missing, Load reports them
	files, err = ExpandPatterns([]string{"missing.ttl"})
	require.NoError(t, err)
	assert.Equal(t, []string{"missing.ttl"}, files)

	_, err = ExpandPatterns([]string{filepath.Join(dir, "*.jsonld")})
	assert.Error(t, err)
}

// replaceFile writes through a temporary name so the watcher only sees
// complete content
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o600))
	require.NoError(t, os.Rename(tmp, path))
}

type projectLog struct {
	mu       sync.Mutex
	projects []string
}

func (l *projectLog) add(_ context.Context, project string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.projects = append(l.projects, project)
}

func (l *projectLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.projects...)
}

func TestWatcher(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	log := &projectLog{}
	w, err := NewWatcher(dir, DataModelSuffix, 20*time.Millisecond, log.add)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	path := filepath.Join(dir, "CB"+DataModelSuffix)
	replaceFile(t, path, dataModel)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o600))

	require.Eventually(t, func() bool {
		return len(log.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// rewriting identical content is not a change
	replaceFile(t, path, dataModel)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"CB"}, log.snapshot())

	replaceFile(t, path, `{"@graph": []}`)
	require.Eventually(t, func() bool {
		return len(log.snapshot()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestNewWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), DataModelSuffix, 0, func(context.Context, string) {})
	assert.Error(t, err)
}
