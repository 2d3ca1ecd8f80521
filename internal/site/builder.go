package site

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yuin/goldmark"

	"github.com/alnah/go-quizdown/internal/assets"
	"github.com/alnah/go-quizdown/internal/buildcache"
	"github.com/alnah/go-quizdown/internal/fileutil"
	"github.com/alnah/go-quizdown/internal/pipeline"
)

// StaticDir is the output directory static files are copied to.
const StaticDir = "_static"

// TOCSettings controls the local table of contents of each page.
type TOCSettings struct {
	Enabled  bool
	MaxDepth int // deepest heading level listed, 2-6
}

// Options configures a Builder. Relative paths in Exclude, StaticPaths
// and TemplatePaths are relative to SourceDir.
type Options struct {
	SourceDir string
	OutputDir string
	Workers   int  // 0 = auto, see ResolveWorkers
	Force     bool // ignore the build cache

	Exclude       []string // doublestar patterns
	StaticPaths   []string // files or directories copied into <OutputDir>/_static
	TemplatePaths []string // directories searched for page.html and <theme>.css

	Theme          string // stylesheet name, default "alabaster"
	HighlightStyle string // chroma style, default pipeline.DefaultHighlightStyle

	Project   string
	Author    string
	Copyright string
	Release   string
	Language  string

	LastUpdatedFormat string // strftime format, "" disables the footer date
	TOC               TOCSettings

	Now func() time.Time // clock for LastUpdated, time.Now when nil
}

// PageResult is the outcome of rendering one page.
type PageResult struct {
	Source   Source
	Output   string // absolute output path
	Duration time.Duration
	Warnings int
	Err      error
}

// BuildResult summarizes a build.
type BuildResult struct {
	Pages       []PageResult // rendered pages, in source order
	Skipped     int          // pages that were up to date
	Removed     []string     // outputs deleted because their source is gone
	StaticFiles int          // static files copied
	Diagnostics []Diagnostic // sorted by document, then line
}

// Failed returns the pages that could not be rendered or written.
func (r *BuildResult) Failed() []PageResult {
	var out []PageResult
	for _, p := range r.Pages {
		if p.Err != nil {
			out = append(out, p)
		}
	}
	return out
}

// Warnings returns the number of diagnostics.
func (r *BuildResult) Warnings() int {
	return len(r.Diagnostics)
}

// Builder renders a source tree into an HTML site. A Builder may run
// several builds in sequence but not concurrently.
type Builder struct {
	app       *App
	opts      Options
	sourceDir string
	outputDir string
	exclude   []string
	workers   int
	configFP  string
	renderer  *pageRenderer
	newConv   func() pipeline.HTMLConverter
}

// NewBuilder prepares a build of opts.SourceDir with the directives and
// hooks registered on app. app must be fully configured: InitConfig has
// run.
func NewBuilder(app *App, opts Options) (*Builder, error) {
	sourceDir, err := filepath.Abs(opts.SourceDir)
	if err != nil || !fileutil.DirExists(sourceDir) {
		return nil, fmt.Errorf("%w: %s", ErrSourceDir, opts.SourceDir)
	}
	outputDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: output directory %s: %v", ErrWritePage, opts.OutputDir, err)
	}
	if opts.Theme == "" {
		opts.Theme = assets.DefaultStyleName
	}

	var templateDirs []string
	for _, p := range opts.TemplatePaths {
		dir := filepath.Join(sourceDir, filepath.FromSlash(p))
		if fileutil.DirExists(dir) {
			templateDirs = append(templateDirs, dir)
		}
	}
	resolver, err := assets.NewAssetResolver(templateDirs...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadAssets, err)
	}

	pageSrc, err := resolver.LoadTemplate(assets.DefaultTemplateName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadAssets, err)
	}
	tmpl, err := template.New(assets.DefaultTemplateName).Parse(pageSrc)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing page template: %v", ErrLoadAssets, err)
	}
	themeCSS, err := resolver.LoadStyle(opts.Theme)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadAssets, err)
	}
	highlightCSS, err := pipeline.HighlightCSS(opts.HighlightStyle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadAssets, err)
	}
	css := themeCSS + "\n" + highlightCSS

	configFP, err := buildcache.FingerprintValue(struct {
		Values     map[string]any
		Extensions []Extension
		Template   string
		CSS        string
		Options    outputSettings
	}{
		Values:     app.RebuildValues(),
		Extensions: app.Extensions(),
		Template:   pageSrc,
		CSS:        css,
		Options:    fingerprintOptions(opts),
	})
	if err != nil {
		return nil, fmt.Errorf("fingerprinting configuration: %w", err)
	}

	exclude := append([]string(nil), opts.Exclude...)
	for _, dir := range append([]string{outputDir}, templateDirs...) {
		if p := relExclude(sourceDir, dir); p != "" {
			exclude = append(exclude, p)
		}
	}
	for _, sp := range opts.StaticPaths {
		if p := relExclude(sourceDir, filepath.Join(sourceDir, filepath.FromSlash(sp))); p != "" {
			exclude = append(exclude, p)
		}
	}

	workers := ResolveWorkers(opts.Workers)
	if !app.ParallelSafe() {
		workers = 1
	}

	source := os.DirFS(sourceDir)
	b := &Builder{
		app:       app,
		opts:      opts,
		sourceDir: sourceDir,
		outputDir: outputDir,
		exclude:   exclude,
		workers:   workers,
		configFP:  configFP,
		renderer: &pageRenderer{
			app:       app,
			opts:      opts,
			source:    source,
			sourceDir: sourceDir,
			tmpl:      tmpl,
			css:       css,
			pre:       &pipeline.CommonMarkPreprocessor{},
			styles:    &pipeline.CSSInjection{},
			scripts:   &pipeline.ScriptInjection{},
		},
	}
	b.newConv = func() pipeline.HTMLConverter {
		return pipeline.NewGoldmarkConverter(pipeline.ConverterOptions{
			Extensions:     []goldmark.Extender{Directives(app)},
			HighlightStyle: opts.HighlightStyle,
		})
	}
	return b, nil
}

// outputSettings are the options that change page output.
type outputSettings struct {
	Theme             string
	HighlightStyle    string
	Project           string
	Author            string
	Copyright         string
	Release           string
	Language          string
	LastUpdatedFormat string
	TOC               TOCSettings
}

func fingerprintOptions(opts Options) outputSettings {
	return outputSettings{
		Theme:             opts.Theme,
		HighlightStyle:    opts.HighlightStyle,
		Project:           opts.Project,
		Author:            opts.Author,
		Copyright:         opts.Copyright,
		Release:           opts.Release,
		Language:          opts.Language,
		LastUpdatedFormat: opts.LastUpdatedFormat,
		TOC:               opts.TOC,
	}
}

// SourceDir returns the absolute source directory.
func (b *Builder) SourceDir() string { return b.sourceDir }

// OutputDir returns the absolute output directory.
func (b *Builder) OutputDir() string { return b.outputDir }

// Workers returns the number of render workers a build uses at most.
func (b *Builder) Workers() int { return b.workers }

// Build renders every stale page, copies static files and saves the build
// cache. Per-page failures are reported in the result; the returned error
// is for failures that stop the whole build.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	sources, diags, err := Discover(os.DirFS(b.sourceDir), b.exclude)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSources, b.sourceDir)
	}

	result := &BuildResult{Diagnostics: diags}
	cache := b.loadCache(result)

	type staleSource struct {
		src Source
		fp  string
	}
	var stale []staleSource
	keep := make(map[string]bool, len(sources))
	for _, src := range sources {
		keep[src.Path] = true
		fp := buildcache.FingerprintFile(filepath.Join(b.sourceDir, filepath.FromSlash(src.Path)))
		if b.upToDate(cache, src, fp) {
			result.Skipped++
			continue
		}
		stale = append(stale, staleSource{src: src, fp: fp})
	}

	todo := make([]Source, len(stale))
	for i, s := range stale {
		todo[i] = s.src
	}
	pages, rendered := b.renderAll(ctx, todo)

	for i, p := range pages {
		if p.Err != nil {
			cache.Delete(p.Source.Path)
			continue
		}
		deps := make(map[string]string, len(rendered[i].deps))
		for _, d := range rendered[i].deps {
			deps[d] = b.depFingerprint(d)
		}
		cache.Put(p.Source.Path, buildcache.Entry{
			Source:   stale[i].fp,
			Deps:     deps,
			Output:   p.Source.OutputPath(),
			Warnings: p.Warnings,
		})
		result.Diagnostics = append(result.Diagnostics, rendered[i].diags...)
	}
	result.Pages = pages

	result.Removed = b.removeOrphans(cache.Prune(keep))

	copied, staticDiags, err := b.copyStatic()
	result.StaticFiles = copied
	result.Diagnostics = append(result.Diagnostics, staticDiags...)
	if err != nil {
		return result, err
	}

	if ctx.Err() == nil {
		if err := cache.Save(b.outputDir); err != nil {
			return result, fmt.Errorf("%w: %w", ErrWritePage, err)
		}
	}

	SortDiagnostics(result.Diagnostics)
	return result, ctx.Err()
}

// loadCache returns the previous build state, or a fresh cache when it is
// missing, corrupt, forced away or built with another configuration.
func (b *Builder) loadCache(result *BuildResult) *buildcache.Cache {
	if b.opts.Force {
		return buildcache.New(b.configFP)
	}
	cache, err := buildcache.Load(b.outputDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return buildcache.New(b.configFP)
	case err != nil:
		result.Diagnostics = append(result.Diagnostics,
			warning("", 0, "%v, rebuilding every page", err))
		return buildcache.New(b.configFP)
	case cache.Config != b.configFP:
		return buildcache.New(b.configFP)
	}
	return cache
}

func (b *Builder) upToDate(cache *buildcache.Cache, src Source, fp string) bool {
	if fp == "" || !cache.Fresh(src.Path, fp, b.depFingerprint) {
		return false
	}
	// The recorded output must still be the page's output and on disk.
	e, ok := cache.Entry(src.Path)
	if !ok || e.Output != src.OutputPath() {
		return false
	}
	return fileutil.FileExists(filepath.Join(b.outputDir, filepath.FromSlash(e.Output)))
}

func (b *Builder) depFingerprint(rel string) string {
	return buildcache.FingerprintFile(filepath.Join(b.sourceDir, filepath.FromSlash(rel)))
}

// renderAll renders and writes sources on a pool of workers. Results keep
// the order of sources.
func (b *Builder) renderAll(ctx context.Context, sources []Source) ([]PageResult, []*renderedPage) {
	if len(sources) == 0 {
		return nil, nil
	}

	concurrency := b.workers
	if concurrency > len(sources) {
		concurrency = len(sources)
	}
	pool := NewConverterPool(concurrency, b.newConv)

	results := make([]PageResult, len(sources))
	rendered := make([]*renderedPage, len(sources))
	var wg sync.WaitGroup
	jobs := make(chan int, len(sources))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv := pool.Acquire()
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = PageResult{Source: sources[idx], Err: ctx.Err()}
					continue
				}
				results[idx], rendered[idx] = b.buildPage(ctx, conv, sources[idx])
			}
		}()
	}

	for i := range sources {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results, rendered
}

// buildPage renders one page and writes it atomically.
func (b *Builder) buildPage(ctx context.Context, conv pipeline.HTMLConverter, src Source) (PageResult, *renderedPage) {
	start := time.Now()
	result := PageResult{
		Source: src,
		Output: filepath.Join(b.outputDir, filepath.FromSlash(src.OutputPath())),
	}

	page, err := b.renderer.render(ctx, conv, src)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result, nil
	}
	result.Warnings = len(page.diags)

	if err := fileutil.WriteFileAtomic(result.Output, page.html); err != nil {
		result.Err = fmt.Errorf("%w: %s: %v", ErrWritePage, src.OutputPath(), err)
	}
	result.Duration = time.Since(start)
	return result, page
}

// removeOrphans deletes the outputs of sources that no longer exist.
func (b *Builder) removeOrphans(outputs []string) []string {
	var removed []string
	for _, rel := range outputs {
		err := os.Remove(filepath.Join(b.outputDir, filepath.FromSlash(rel)))
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			removed = append(removed, rel)
		}
	}
	return removed
}

// copyStatic copies every static path into <output>/_static. Directories
// are copied recursively with their layout; files keep their base name.
// Missing paths are reported as warnings.
func (b *Builder) copyStatic() (int, []Diagnostic, error) {
	var diags []Diagnostic
	copied := 0
	dst := filepath.Join(b.outputDir, StaticDir)

	copyOne := func(from, to string) error {
		ok, err := fileutil.CopyFile(from, to)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCopyStatic, from, err)
		}
		if ok {
			copied++
		}
		return nil
	}

	for _, p := range b.opts.StaticPaths {
		src := filepath.Join(b.sourceDir, filepath.FromSlash(p))
		info, err := os.Stat(src)
		if err != nil {
			diags = append(diags, warning("", 0, "static path entry %q does not exist", p))
			continue
		}
		if !info.IsDir() {
			if err := copyOne(src, filepath.Join(dst, info.Name())); err != nil {
				return copied, diags, err
			}
			continue
		}

		err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}
			return copyOne(path, filepath.Join(dst, rel))
		})
		if err != nil {
			if errors.Is(err, ErrCopyStatic) {
				return copied, diags, err
			}
			return copied, diags, fmt.Errorf("%w: %s: %v", ErrCopyStatic, p, err)
		}
	}
	return copied, diags, nil
}
