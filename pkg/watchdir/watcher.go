// Package watchdir watches the manual-placement directory and triggers
// re-ingestion when a manually downloaded source document appears or
// changes.
package watchdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before it is
// considered fully written. Browsers and download managers write large
// PDFs in bursts.
const DefaultDebounce = 2 * time.Second

// watchedExtensions are the source file types accepted from the manual
// directory.
var watchedExtensions = map[string]bool{
	".pdf":  true,
	".html": true,
	".htm":  true,
	".txt":  true,
}

// Handler is invoked for a settled manual source file. The region and
// regulation IDs come from the manual/<region>/<regulation>.<ext> path
// convention.
type Handler func(ctx context.Context, regionID, regulationID, path string)

// Watcher monitors a manual-placement directory tree.
type Watcher struct {
	rootDir  string
	debounce time.Duration
	handler  Handler
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a Watcher over rootDir. A nil logger disables diagnostic
// logging.
func New(rootDir string, handler Handler, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		rootDir:  rootDir,
		debounce: DefaultDebounce,
		handler:  handler,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
	}
}

// Run watches the manual directory until the context is canceled. The
// root directory and its existing region subdirectories are registered
// up front; region directories created later are picked up as they
// appear.
func (watcher *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(watcher.rootDir, 0o755); err != nil {
		return fmt.Errorf("failed to create manual directory %s: %w", watcher.rootDir, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(watcher.rootDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", watcher.rootDir, err)
	}
	entries, err := os.ReadDir(watcher.rootDir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", watcher.rootDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := fsWatcher.Add(filepath.Join(watcher.rootDir, entry.Name())); err != nil {
				return fmt.Errorf("failed to watch region directory %s: %w", entry.Name(), err)
			}
		}
	}

	watcher.logger.Info("watching manual directory", zap.String("dir", watcher.rootDir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, open := <-fsWatcher.Events:
			if !open {
				return nil
			}
			watcher.handleEvent(ctx, fsWatcher, event)

		case watchErr, open := <-fsWatcher.Errors:
			if !open {
				return nil
			}
			watcher.logger.Warn("watch error", zap.Error(watchErr))
		}
	}
}

// handleEvent registers new region directories and debounces writes to
// source files.
func (watcher *Watcher) handleEvent(ctx context.Context, fsWatcher *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		// A new region directory under the root.
		if filepath.Dir(event.Name) == watcher.rootDir {
			if err := fsWatcher.Add(event.Name); err != nil {
				watcher.logger.Warn("failed to watch new region directory",
					zap.String("dir", event.Name), zap.Error(err))
			}
		}
		return
	}

	regionID, regulationID, matched := watcher.splitManualPath(event.Name)
	if !matched {
		return
	}

	watcher.mu.Lock()
	defer watcher.mu.Unlock()

	if timer, exists := watcher.pending[event.Name]; exists {
		timer.Stop()
	}
	path := event.Name
	watcher.pending[path] = time.AfterFunc(watcher.debounce, func() {
		watcher.mu.Lock()
		delete(watcher.pending, path)
		watcher.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		watcher.logger.Info("manual source settled",
			zap.String("region", regionID),
			zap.String("regulation", regulationID),
			zap.String("path", path))
		watcher.handler(ctx, regionID, regulationID, path)
	})
}

// splitManualPath extracts region and regulation IDs from a
// manual/<region>/<regulation>.<ext> path.
func (watcher *Watcher) splitManualPath(path string) (regionID, regulationID string, matched bool) {
	relative, err := filepath.Rel(watcher.rootDir, path)
	if err != nil {
		return "", "", false
	}

	parts := strings.Split(filepath.ToSlash(relative), "/")
	if len(parts) != 2 {
		return "", "", false
	}

	extension := strings.ToLower(filepath.Ext(parts[1]))
	if !watchedExtensions[extension] {
		return "", "", false
	}

	return parts[0], strings.TrimSuffix(parts[1], filepath.Ext(parts[1])), true
}
