package main

import (
	"errors"
	"os"

	quizdown "github.com/alnah/go-quizdown"
	"github.com/alnah/go-quizdown/internal/browsercheck"
	"github.com/alnah/go-quizdown/internal/config"
	"github.com/alnah/go-quizdown/internal/preview"
	"github.com/alnah/go-quizdown/internal/site"
	"github.com/alnah/go-quizdown/internal/watch"
)

// Exit codes for the quizdoc CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Build or check passed
	ExitGeneral = 1 // Failed pages, warnings with --fail-on-warning, unexpected errors
	ExitUsage   = 2 // Invalid flags, config, extensions or assets
	ExitIO      = 3 // Source, output or listen address unusable
	ExitBrowser = 4 // Browser failures and failed page checks
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, browsercheck.ErrBrowserConnect) ||
		errors.Is(err, browsercheck.ErrPageCreate) ||
		errors.Is(err, browsercheck.ErrPageLoad) ||
		errors.Is(err, browsercheck.ErrEvaluate) ||
		errors.Is(err, ErrCheckFailed) {
		return ExitBrowser
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, site.ErrUnknownExtension) ||
		errors.Is(err, site.ErrExtensionSetup) ||
		errors.Is(err, site.ErrConfigInit) ||
		errors.Is(err, site.ErrLoadAssets) ||
		errors.Is(err, quizdown.ErrInvalidScriptURL) ||
		errors.Is(err, quizdown.ErrConfigEncode) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, site.ErrSourceDir) ||
		errors.Is(err, site.ErrNoSources) ||
		errors.Is(err, site.ErrWritePage) ||
		errors.Is(err, site.ErrCopyStatic) ||
		errors.Is(err, browsercheck.ErrNoPages) ||
		errors.Is(err, preview.ErrListen) ||
		errors.Is(err, watch.ErrWatchInit) ||
		errors.Is(err, watch.ErrWatchAdd) {
		return ExitIO
	}

	return ExitGeneral
}
