package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-quizdown/internal/browsercheck"
	"github.com/alnah/go-quizdown/internal/preview"
)

// ErrUsage wraps flag parsing errors.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// buildFlags holds flags for build and serve.
type buildFlags struct {
	common        commonFlags
	output        string
	workers       int
	force         bool
	failOnWarning bool
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	build buildFlags
	addr  string
}

// checkFlags holds flags for the check command.
type checkFlags struct {
	common  commonFlags
	timeout time.Duration
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show warnings and errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show every page with timing")
}

// addBuildFlags adds the flags shared by build and serve.
func addBuildFlags(fs *flag.FlagSet, f *buildFlags) {
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.force, "force", false, "rebuild every page, ignoring the build cache")
	fs.BoolVarP(&f.failOnWarning, "fail-on-warning", "W", false, "exit non-zero if the build has warnings")
	addCommonFlags(fs, &f.common)
}

// newFlagSet creates a FlagSet that reports errors to w and prints usage
// with the given function.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parse wraps pflag errors in ErrUsage. flag.ErrHelp is returned as is.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// isHelp reports whether err is pflag's -h/--help signal. Usage has
// already been printed.
func isHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// parseBuildFlags parses build command flags and returns positional args.
func parseBuildFlags(args []string, stderr io.Writer) (*buildFlags, []string, error) {
	f := &buildFlags{}
	fs := newFlagSet("build", stderr, printBuildUsage)
	addBuildFlags(fs, f)
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", stderr, printServeUsage)
	addBuildFlags(fs, &f.build)
	fs.StringVar(&f.addr, "addr", preview.DefaultAddr, "preview listen address")
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseCheckFlags parses check command flags and returns positional args.
func parseCheckFlags(args []string, stderr io.Writer) (*checkFlags, []string, error) {
	f := &checkFlags{}
	fs := newFlagSet("check", stderr, printCheckUsage)
	addCommonFlags(fs, &f.common)
	fs.DurationVarP(&f.timeout, "timeout", "t", browsercheck.DefaultTimeout, "page load timeout (e.g. 30s, 2m)")
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	if f.timeout <= 0 {
		return nil, nil, fmt.Errorf("%w: --timeout must be positive, got %v", ErrUsage, f.timeout)
	}
	return f, fs.Args(), nil
}
