// Package browsercheck opens built pages in a headless browser and verifies
// that every quiz container has the quizdown script available.
package browsercheck

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	quizdown "github.com/alnah/go-quizdown"
)

// Sentinel errors for browser checks.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrEvaluate       = errors.New("failed to inspect page")
	ErrNoPages        = errors.New("no HTML pages to check")
	ErrMissingWidget  = errors.New("quiz containers present but quizdown.js did not load")
)

// Probe is what a loaded page reports.
type Probe struct {
	Containers int  // elements with the quizdown container class
	HasGlobal  bool // window.quizdown is defined
}

// PageProber loads one page and inspects it.
type PageProber interface {
	Probe(ctx context.Context, pageURL string) (Probe, error)
	Close() error
}

// Result is the outcome for one page.
type Result struct {
	Page  string // slash path relative to the output directory
	Probe Probe
	Err   error
}

// Failed reports whether the page could not be inspected or has quizzes
// that will never render.
func (r Result) Failed() bool {
	return r.Err != nil
}

// probeScript returns the facts Probe needs in one round trip.
var probeScript = `() => ({
	containers: document.querySelectorAll(".` + quizdown.ContainerClass + `").length,
	global: typeof quizdown !== "undefined",
})`

// Pages lists the HTML files under outDir, skipping hidden directories and
// the static asset directory.
func Pages(outDir, staticDir string) ([]string, error) {
	var pages []string
	err := filepath.WalkDir(outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(outDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && (strings.HasPrefix(d.Name(), ".") || rel == staticDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(rel), ".html") {
			pages = append(pages, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(pages)
	return pages, nil
}

// FileURL turns a local path into a file:// URL.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return (&url.URL{Scheme: "file", Path: slashed}).String(), nil
}

// Check probes every page in outDir, one at a time, and returns one result
// per page. The error is non-nil only when no page could be listed or ctx
// ended early; per-page failures are in the results.
func Check(ctx context.Context, prober PageProber, outDir, staticDir string) ([]Result, error) {
	pages, err := Pages(outDir, staticDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPages, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPages, outDir)
	}

	results := make([]Result, 0, len(pages))
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, checkPage(ctx, prober, outDir, page))
	}
	return results, nil
}

func checkPage(ctx context.Context, prober PageProber, outDir, page string) Result {
	res := Result{Page: page}

	pageURL, err := FileURL(filepath.Join(outDir, filepath.FromSlash(page)))
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrPageLoad, err)
		return res
	}

	probe, err := prober.Probe(ctx, pageURL)
	res.Probe = probe
	if err != nil {
		res.Err = err
		return res
	}
	if probe.Containers > 0 && !probe.HasGlobal {
		res.Err = fmt.Errorf("%w: %d container(s)", ErrMissingWidget, probe.Containers)
	}
	return res
}
