package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	quizdown "github.com/alnah/go-quizdown"
	"github.com/alnah/go-quizdown/internal/hints"
	"github.com/alnah/go-quizdown/internal/site"
)

// Sentinel errors for build results.
var (
	ErrBuildFailed = errors.New("build failed")
	ErrWarnings    = errors.New("build has warnings")
)

// runBuild builds the site once.
func runBuild(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseBuildFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	warnUnknownEnvVars(env.Stderr)

	p, err := newProject(f, positional, env)
	if err != nil {
		return err
	}
	printDiagnostics(env.Stderr, p.configDiags)

	if f.common.verbose {
		fmt.Fprintf(env.Stdout, "building %s -> %s (%d workers)\n",
			p.builder.SourceDir(), p.builder.OutputDir(), p.builder.Workers())
	}
	return p.build(ctx, f, env)
}

// build runs one build, prints its result and turns failures into an
// error.
func (p *project) build(ctx context.Context, f *buildFlags, env *Environment) error {
	res, err := p.builder.Build(ctx)
	if res != nil {
		printBuildResult(res, p.builder.OutputDir(), f.common.quiet, f.common.verbose, env)
	}
	if err != nil {
		if errors.Is(err, site.ErrNoSources) {
			return fmt.Errorf("%w%s", err, hints.ForNoSources())
		}
		return err
	}

	if failed := res.Failed(); len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d pages", ErrBuildFailed, len(failed), len(res.Pages))
	}
	if warnings := res.Warnings() + len(p.configDiags); f.failOnWarning && warnings > 0 {
		return fmt.Errorf("%w: %d%s", ErrWarnings, warnings, hints.ForWarnings())
	}
	return nil
}

// printBuildResult outputs page results and the summary. Diagnostics and
// failures go to stderr regardless of quiet.
func printBuildResult(res *site.BuildResult, outDir string, quiet, verbose bool, env *Environment) {
	for _, page := range res.Pages {
		if page.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", page.Source.Path, page.Err)
			continue
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n",
				page.Source.Path, relTo(outDir, page.Output), page.Duration.Round(time.Millisecond))
		}
	}
	if verbose {
		for _, removed := range res.Removed {
			fmt.Fprintf(env.Stdout, "removed %s\n", removed)
		}
	}

	printDiagnostics(env.Stderr, res.Diagnostics)

	if quiet {
		return
	}
	written := len(res.Pages) - len(res.Failed())
	fmt.Fprintf(env.Stdout, "%d written, %d up to date, %d failed, %d static files\n",
		written, res.Skipped, len(res.Failed()), res.StaticFiles)

	switch warnings := res.Warnings(); {
	case len(res.Failed()) > 0:
		fmt.Fprintln(env.Stdout, "build finished with problems.")
	case warnings == 1:
		fmt.Fprintln(env.Stdout, "build succeeded, 1 warning.")
	case warnings > 1:
		fmt.Fprintf(env.Stdout, "build succeeded, %d warnings.\n", warnings)
	default:
		fmt.Fprintln(env.Stdout, "build succeeded.")
	}
	fmt.Fprintf(env.Stdout, "The HTML pages are in %s.\n", outDir)
}

// printDiagnostics writes one line per diagnostic. A quiz file hint is
// added once after the first unreadable quiz file.
func printDiagnostics(w io.Writer, diags []site.Diagnostic) {
	hinted := false
	for _, d := range diags {
		fmt.Fprintln(w, d.String())
		if !hinted && errors.Is(d.Err, quizdown.ErrQuizFileRead) {
			fmt.Fprintln(w, hints.ForQuizFile()[1:])
			hinted = true
		}
	}
}

// relTo shortens path for display when it is inside dir.
func relTo(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
