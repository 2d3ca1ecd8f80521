package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-quizdown/internal/browsercheck"
	"github.com/alnah/go-quizdown/internal/hints"
	"github.com/alnah/go-quizdown/internal/site"
)

// ErrCheckFailed is returned when at least one page fails the browser check.
var ErrCheckFailed = errors.New("browser check failed")

// runCheck opens every built page in a headless browser.
func runCheck(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseCheckFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: expected at most one output directory, got %d", ErrUsage, len(positional))
	}
	warnUnknownEnvVars(env.Stderr)

	outDir := ""
	if len(positional) == 1 {
		outDir = absPath(positional[0])
	} else {
		cfg, err := resolveConfig(f.common.config, "")
		if err != nil {
			return err
		}
		outDir = cfg.OutputDir()
	}

	prober := env.NewProber(f.timeout)
	defer func() { _ = prober.Close() }()

	results, err := browsercheck.Check(ctx, prober, outDir, site.StaticDir)
	if err != nil {
		return err
	}
	return reportCheck(results, f.common.quiet, f.common.verbose, env)
}

// reportCheck prints one line per page and returns ErrCheckFailed if any
// page failed. A browser that cannot start fails every page the same way,
// so that error is returned directly with its hint.
func reportCheck(results []browsercheck.Result, quiet, verbose bool, env *Environment) error {
	failed, timedOut := 0, false
	for _, r := range results {
		if errors.Is(r.Err, browsercheck.ErrBrowserConnect) {
			return fmt.Errorf("%w%s", r.Err, hints.ForBrowserConnect())
		}
		if r.Failed() {
			failed++
			timedOut = timedOut || errors.Is(r.Err, browsercheck.ErrPageLoad)
			fmt.Fprintf(env.Stderr, "[FAIL] %s: %v\n", r.Page, r.Err)
			continue
		}
		switch {
		case quiet:
		case verbose:
			fmt.Fprintf(env.Stdout, "[OK] %s (%d quizzes)\n", r.Page, r.Probe.Containers)
		default:
			fmt.Fprintf(env.Stdout, "[OK] %s\n", r.Page)
		}
	}

	if !quiet {
		fmt.Fprintf(env.Stdout, "\n%d passed, %d failed\n", len(results)-failed, failed)
	}
	if failed > 0 {
		hint := ""
		if timedOut {
			hint = hints.ForTimeout()
		}
		return fmt.Errorf("%w: %d of %d pages%s", ErrCheckFailed, failed, len(results), hint)
	}
	return nil
}
