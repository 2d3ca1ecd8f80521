package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/alnah/go-quizdown/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without editing quizdoc.yaml.
type envConfig struct {
	ConfigPath string // QUIZDOC_CONFIG: config file name or path
	OutputDir  string // QUIZDOC_OUTPUT_DIR: output directory
	Workers    int    // QUIZDOC_WORKERS: parallel workers
}

// knownEnvVars lists valid QUIZDOC_* environment variables.
var knownEnvVars = map[string]bool{
	"QUIZDOC_CONFIG":     true,
	"QUIZDOC_OUTPUT_DIR": true,
	"QUIZDOC_WORKERS":    true,
}

// loadEnvConfig reads configuration from environment variables.
// Invalid worker counts are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("QUIZDOC_CONFIG"),
		OutputDir:  os.Getenv("QUIZDOC_OUTPUT_DIR"),
	}

	if workers := os.Getenv("QUIZDOC_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars prints a warning for each unrecognized QUIZDOC_*
// variable, in name order.
func warnUnknownEnvVars(w io.Writer) {
	var unknown []string
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "QUIZDOC_") {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// applyEnvConfig overrides config file values with environment values.
// Precedence: CLI flags > env vars > config file > defaults.
// (CLI flags are applied afterwards by the command.)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" {
		cfg.Output = absPath(env.OutputDir)
	}
	if env.Workers > 0 {
		cfg.Workers = env.Workers
	}
}
