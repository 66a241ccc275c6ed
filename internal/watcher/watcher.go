// Package watcher imports payment files dropped into a directory.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Suffixes appended to a file once it has been handled, so it is never picked up twice
const (
	ImportedSuffix = ".imported"
	FailedSuffix   = ".failed"
)

// ImportFunc ingests one file and returns the number of records inserted
type ImportFunc func(ctx context.Context, path string) (int, error)

// Watcher debounces create/write events and imports each settled file once
type Watcher struct {
	dir      string
	importFn ImportFunc
	log      *logrus.Logger
	settle   time.Duration
}

// New creates a watcher for dir
func New(dir string, importFn ImportFunc, log *logrus.Logger) *Watcher {
	return &Watcher{dir: dir, importFn: importFn, log: log, settle: 500 * time.Millisecond}
}

// Supported reports whether name is a CSV or XML file awaiting import
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xml":
		return !strings.HasPrefix(filepath.Base(name), ".")
	}
	return false
}

// Pending lists files already in the directory that have not been handled
func (w *Watcher) Pending() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", w.dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && Supported(e.Name()) {
			out = append(out, filepath.Join(w.dir, e.Name()))
		}
	}
	return out, nil
}

// Run imports pending files, then watches until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	existing, err := w.Pending()
	if err != nil {
		return err
	}
	for _, path := range existing {
		w.handle(ctx, path)
	}
	w.log.WithField("dir", w.dir).Info("Watching for payment files")

	pending := map[string]time.Time{}
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && Supported(ev.Name) {
				pending[ev.Name] = time.Now()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnf("Watch error: %v", err)
		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) >= w.settle {
					delete(pending, path)
					w.handle(ctx, path)
				}
			}
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	entry := w.log.WithField("file", filepath.Base(path))
	n, err := w.importFn(ctx, path)
	suffix := ImportedSuffix
	if err != nil {
		suffix = FailedSuffix
		entry.Errorf("Import failed: %v", err)
	} else {
		entry.WithField("inserted", n).Info("File imported")
	}
	if err := os.Rename(path, path+suffix); err != nil {
		entry.Warnf("Failed to mark file as handled: %v", err)
	}
}
