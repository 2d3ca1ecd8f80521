// Package watch turns filesystem events under a source tree into debounced
// rebuild requests.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups editor save bursts into one rebuild.
const DefaultDebounce = 200 * time.Millisecond

// Sentinel errors for watcher setup.
var (
	ErrWatchInit = errors.New("failed to start file watcher")
	ErrWatchAdd  = errors.New("failed to watch directory")
)

// RebuildFunc is called with the changed paths, slash-separated and
// relative to the watched root, sorted and without duplicates.
type RebuildFunc func(ctx context.Context, changed []string)

// Options configures a Watcher.
type Options struct {
	Root     string        // source directory, walked recursively
	Ignore   []string      // directories whose events are dropped (e.g. the output dir)
	Debounce time.Duration // 0 means DefaultDebounce
	OnError  func(error)   // optional; receives fsnotify errors
}

// Watcher watches a directory tree.
type Watcher struct {
	root     string
	ignore   []string
	debounce time.Duration
	onError  func(error)
	fsw      *fsnotify.Watcher
}

// New creates a watcher and registers every directory under opts.Root.
func New(opts Options) (*Watcher, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatchInit, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatchInit, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrWatchInit, root)
	}

	ignore := make([]string, 0, len(opts.Ignore))
	for _, dir := range opts.Ignore {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWatchInit, err)
		}
		ignore = append(ignore, abs)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatchInit, err)
	}

	w := &Watcher{
		root:     root,
		ignore:   ignore,
		debounce: debounce,
		onError:  opts.OnError,
		fsw:      fsw,
	}
	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Dirs returns the watched directories, sorted.
func (w *Watcher) Dirs() []string {
	dirs := w.fsw.WatchList()
	sort.Strings(dirs)
	return dirs
}

// Run delivers change batches to rebuild until ctx is done.
// rebuild runs on the calling goroutine; events arriving meanwhile are
// queued for the next batch.
func (w *Watcher) Run(ctx context.Context, rebuild RebuildFunc) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			rel, keep := w.accept(ev)
			if !keep {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.reportError(err)
					}
				}
			}
			pending[rel] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.reportError(err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			rebuild(ctx, changed)
		}
	}
}

// accept filters an event and returns its root-relative slash path.
func (w *Watcher) accept(ev fsnotify.Event) (string, bool) {
	// Permission and timestamp changes never alter rendered output.
	if ev.Op == fsnotify.Chmod {
		return "", false
	}
	if w.ignored(ev.Name) {
		return "", false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || rel == "." {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// ignored reports whether path is inside an ignored directory or a hidden
// entry below the root.
func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// addTree registers dir and its subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories removed mid-walk are picked up by later events.
			if path != w.root && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("%w: %s: %v", ErrWatchAdd, path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWatchAdd, path, err)
		}
		return nil
	})
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
