package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-quizdown/internal/preview"
	"github.com/alnah/go-quizdown/internal/watch"
)

// runServe builds the site, then rebuilds on source changes and serves the
// output until ctx is done.
func runServe(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	warnUnknownEnvVars(env.Stderr)

	p, err := newProject(&f.build, positional, env)
	if err != nil {
		return err
	}
	printDiagnostics(env.Stderr, p.configDiags)

	// A failed first build still serves: the author fixes pages while the
	// watcher runs.
	if err := p.build(ctx, &f.build, env); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintln(env.Stderr, "error:", err)
	}

	w, err := watch.New(watch.Options{
		Root:   p.builder.SourceDir(),
		Ignore: []string{p.builder.OutputDir()},
		OnError: func(err error) {
			fmt.Fprintln(env.Stderr, "warning: watcher:", err)
		},
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	srv := preview.NewServer(p.builder.OutputDir())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, f.addr, func(addr net.Addr) {
			fmt.Fprintf(env.Stdout, "Serving %s at http://%s/ (Ctrl+C to stop)\n", p.builder.OutputDir(), addr)
		})
	})
	g.Go(func() error {
		err := w.Run(gctx, func(ctx context.Context, changed []string) {
			p.rebuild(ctx, changed, &f.build, env)
		})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})
	return g.Wait()
}

// rebuild runs an incremental build after a change batch. Build errors are
// printed, never returned: the server keeps running.
func (p *project) rebuild(ctx context.Context, changed []string, f *buildFlags, env *Environment) {
	if p.configChanged(changed) {
		fmt.Fprintln(env.Stderr, "warning: configuration file changed, restart quizdoc serve to apply it")
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "changed: %s\n", strings.Join(changed, ", "))
	}
	if err := p.build(ctx, f, env); err != nil && ctx.Err() == nil {
		fmt.Fprintln(env.Stderr, "error:", err)
	}
}

// configChanged reports whether the loaded config file is among changed,
// which are slash paths relative to the source directory.
func (p *project) configChanged(changed []string) bool {
	if p.cfg.File == "" {
		return false
	}
	rel, err := filepath.Rel(p.builder.SourceDir(), p.cfg.File)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, c := range changed {
		if c == rel {
			return true
		}
	}
	return false
}
