package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"

	"github.com/anngvu/annotation-meta-analysis/internal/logger"
)

// DefaultDebounce is how long a Watcher collects changes before acting
const DefaultDebounce = 200 * time.Millisecond

// ExpandPatterns resolves file arguments. Plain paths are kept as given;
// arguments containing glob metacharacters are expanded with ** support.
// The result is sorted and free of duplicates.
func ExpandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			if !seen[pattern] {
				seen[pattern] = true
				files = append(files, pattern)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob error: %w", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match pattern: %s", pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// Watcher reruns a conversion for a project whenever its input file
// changes. Writes that leave the content unchanged are ignored.
type Watcher struct {
	dir      string
	suffix   string
	debounce time.Duration
	handle   func(ctx context.Context, project string)
	fsw      *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashes map[string]xxh3.Uint128
}

// NewWatcher watches dir for files named <Project><suffix>
func NewWatcher(dir, suffix string, debounce time.Duration, handle func(ctx context.Context, project string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		suffix:   suffix,
		debounce: debounce,
		handle:   handle,
		fsw:      fsw,
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]xxh3.Uint128),
	}, nil
}

// Run processes events until ctx is done, then closes the watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	logger.Info("Watching for changes", "dir", w.dir, "pattern", "*"+w.suffix)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, w.suffix) {
				continue
			}
			w.pendingMu.Lock()
			w.pending[event.Name] = event.Op
			w.pendingMu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watcher error", "err", err)

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	paths := make([]string, 0, len(toProcess))
	for path := range toProcess {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		op := toProcess[path]
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			delete(w.hashes, path)
			continue
		}

		data, err := os.ReadFile(path) // #nosec G304 - path is inside the watched directory
		if err != nil || len(data) == 0 {
			continue
		}
		hash := xxh3.Hash128(data)
		if old, ok := w.hashes[path]; ok && old == hash {
			continue
		}
		w.hashes[path] = hash

		project := strings.TrimSuffix(filepath.Base(path), w.suffix)
		logger.Info("Input changed", "project", project, "op", op.String())
		w.handle(ctx, project)
	}
}
