package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

const waitFor = 5 * time.Second

// startWatcher runs a watcher over root and forwards every batch to the
// returned channel. The watcher stops when the test ends.
func startWatcher(t *testing.T, opts Options) (*Watcher, <-chan []string) {
	t.Helper()

	if opts.Debounce == 0 {
		opts.Debounce = 20 * time.Millisecond
	}
	w, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []string, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) {
			batches <- changed
		})
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})
	return w, batches
}

// waitForPath collects batches until one contains want, calling poke on
// each round so late watch registrations still see an event.
func waitForPath(t *testing.T, batches <-chan []string, want string, poke func()) []string {
	t.Helper()

	deadline := time.After(waitFor)
	var seen []string
	for {
		poke()
		select {
		case changed := <-batches:
			seen = append(seen, changed...)
			if slices.Contains(changed, want) {
				return seen
			}
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatalf("no batch contained %q, saw %v", want, seen)
			return nil
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_WatchesTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, dir := range []string{"guide", "guide/deep", ".git", "_build"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	w, err := New(Options{Root: root, Ignore: []string{filepath.Join(root, "_build")}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	got := w.Dirs()
	want := []string{
		root,
		filepath.Join(root, "guide"),
		filepath.Join(root, "guide", "deep"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("Dirs() = %v, want %v", got, want)
	}
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
}

func TestNew_MissingRoot(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Root: filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, ErrWatchInit) {
		t.Fatalf("New() error = %v, want ErrWatchInit", err)
	}
}

func TestNew_RootIsFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "index.md")
	if err := os.WriteFile(file, []byte("# Home\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := New(Options{Root: file})
	if !errors.Is(err, ErrWatchInit) {
		t.Fatalf("New() error = %v, want ErrWatchInit", err)
	}
}

// ---------------------------------------------------------------------------
// ignored
// ---------------------------------------------------------------------------

func TestIgnored(t *testing.T) {
	t.Parallel()

	root := filepath.FromSlash("/site/src")
	w := &Watcher{
		root:   root,
		ignore: []string{filepath.Join(root, "_build")},
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"root", root, false},
		{"page", filepath.Join(root, "index.md"), false},
		{"nested page", filepath.Join(root, "guide", "intro.md"), false},
		{"output dir", filepath.Join(root, "_build"), true},
		{"inside output dir", filepath.Join(root, "_build", "index.html"), true},
		{"output prefix is not a parent", filepath.Join(root, "_buildnotes.md"), false},
		{"hidden file", filepath.Join(root, ".index.md.swp"), true},
		{"hidden dir", filepath.Join(root, ".git", "HEAD"), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := w.ignored(tt.path); got != tt.want {
				t.Errorf("ignored(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_ReportsChangedFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	page := filepath.Join(root, "index.md")
	writeFile(t, page, "# Home\n")

	_, batches := startWatcher(t, Options{Root: root})

	n := 0
	waitForPath(t, batches, "index.md", func() {
		n++
		writeFile(t, page, "# Home\n\nedit "+string(rune('a'+n%26))+"\n")
	})
}

func TestRun_IgnoresOutputDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	out := filepath.Join(root, "_build")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}

	_, batches := startWatcher(t, Options{Root: root, Ignore: []string{out}})

	seen := waitForPath(t, batches, "page.md", func() {
		writeFile(t, filepath.Join(out, "index.html"), "<html></html>")
		writeFile(t, filepath.Join(root, "page.md"), "# Page\n")
	})
	for _, p := range seen {
		if p == "_build" || filepath.Dir(p) == "_build" {
			t.Errorf("output dir event reported: %q", p)
		}
	}
}

func TestRun_WatchesNewDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, batches := startWatcher(t, Options{Root: root})

	sub := filepath.Join(root, "quizzes")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	n := 0
	waitForPath(t, batches, "quizzes/basics.md", func() {
		n++
		writeFile(t, filepath.Join(sub, "basics.md"), "- [x] "+string(rune('a'+n%26))+"\n")
	})
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	w, err := New(Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(context.Context, []string) {}) }()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(waitFor):
		t.Fatal("Run did not return after cancel")
	}
}
