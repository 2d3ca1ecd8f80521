// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-quizdown/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// InCI reports whether a known CI environment variable is set.
func InCI() bool {
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// ForBrowserConnect returns hints for headless browser launch errors.
func ForBrowserConnect() string {
	var hints []string

	if (InCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use an installed Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the page load timeout.
func ForTimeout() string {
	return format("pages loading quizdown.js from a CDN may be slow, use --timeout")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and the first searched path under the user config
// directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/quizdoc.yaml"

	marker := string(filepath.Separator) + "quizdoc" + string(filepath.Separator)
	for _, p := range searchedPaths {
		if strings.Contains(p, marker) {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable, or set QUIZDOC_OUTPUT_DIR")
}

// ForNoSources returns hints when a source directory has no pages.
func ForNoSources() string {
	return format("pages are .md or .markdown files; check source and exclude in quizdoc.yaml")
}

// ForStyleNotFound returns hints for theme not found errors.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return format("put <theme>.css in a templatesPath directory")
	}
	return format("available: " + strings.Join(available, ", ") + "; or put <theme>.css in a templatesPath directory")
}

// ForUnknownExtension returns hints for unknown extension names.
func ForUnknownExtension(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available extensions: " + strings.Join(available, ", "))
}

// ForQuizFile returns hints for quiz files that cannot be read.
func ForQuizFile() string {
	return format("quiz file paths are relative to the page; start with / for the source root")
}

// ForWarnings returns a hint for builds failed by --fail-on-warning.
func ForWarnings() string {
	return format("fix the warnings above or build without --fail-on-warning")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
