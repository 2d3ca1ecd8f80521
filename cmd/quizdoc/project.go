package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/alnah/go-quizdown/internal/assets"
	"github.com/alnah/go-quizdown/internal/config"
	"github.com/alnah/go-quizdown/internal/fileutil"
	"github.com/alnah/go-quizdown/internal/hints"
	"github.com/alnah/go-quizdown/internal/quizext"
	"github.com/alnah/go-quizdown/internal/site"
)

// ErrInvalidWorkerCount is returned for --workers outside 0..MaxWorkers.
var ErrInvalidWorkerCount = errors.New("invalid worker count")

// project is a loaded configuration with its extensions set up and a
// builder ready to run.
type project struct {
	cfg         *config.Config
	app         *site.App
	builder     *site.Builder
	configDiags []site.Diagnostic
}

// newProject resolves the configuration for a build or serve command and
// prepares the builder. Precedence: flags > env vars > config file.
func newProject(f *buildFlags, args []string, env *Environment) (*project, error) {
	if len(args) > 1 {
		return nil, fmt.Errorf("%w: expected at most one source directory, got %d", ErrUsage, len(args))
	}
	if err := validateWorkers(f.workers); err != nil {
		return nil, err
	}

	source := ""
	if len(args) == 1 {
		source = args[0]
	}
	cfg, err := resolveConfig(f.common.config, source)
	if err != nil {
		return nil, err
	}
	if f.output != "" {
		cfg.Output = absPath(f.output)
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}

	app := site.NewApp()
	if err := app.LoadExtensions(cfg.Extensions, quizext.Registry()); err != nil {
		if errors.Is(err, site.ErrUnknownExtension) {
			return nil, fmt.Errorf("%w%s", err, hints.ForUnknownExtension(registryNames()))
		}
		return nil, err
	}

	diags, err := app.InitConfig(cfg.Values)
	if err != nil {
		return nil, err
	}

	builder, err := site.NewBuilder(app, buildOptions(cfg, f.force, env.Now))
	if err != nil {
		if errors.Is(err, assets.ErrStyleNotFound) {
			return nil, fmt.Errorf("%w%s", err, hints.ForStyleNotFound(assets.StyleNames()))
		}
		return nil, err
	}

	return &project{cfg: cfg, app: app, builder: builder, configDiags: diags}, nil
}

// resolveConfig finds the configuration: --config, then QUIZDOC_CONFIG,
// then quizdoc.yaml in the source directory, then defaults. An explicit
// source argument overrides the config's source.
func resolveConfig(flagConfig, source string) (*config.Config, error) {
	envCfg := loadEnvConfig()

	name := flagConfig
	if name == "" {
		name = envCfg.ConfigPath
	}
	dir := source
	if dir == "" {
		dir = "."
	}

	var cfg *config.Config
	switch {
	case name != "":
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, configError(name, err)
		}
		cfg = loaded
		if source != "" {
			cfg.Source = absPath(source)
		}
	default:
		if path := config.FindInDir(dir); path != "" {
			loaded, err := config.LoadConfig(absPath(path))
			if err != nil {
				return nil, configError(path, err)
			}
			cfg = loaded
		} else {
			cfg = config.DefaultConfig(absPath(dir))
		}
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, nil
}

// configError adds a search-path hint when a config name was not found.
func configError(name string, err error) error {
	if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(name) {
		return fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
	}
	return fmt.Errorf("loading config: %w", err)
}

// buildOptions maps the site configuration onto builder options.
func buildOptions(cfg *config.Config, force bool, now func() time.Time) site.Options {
	depth := cfg.TOC.MaxDepth
	if depth == 0 {
		depth = config.DefaultTOCDepth
	}
	return site.Options{
		SourceDir:         cfg.SourceDir(),
		OutputDir:         cfg.OutputDir(),
		Workers:           cfg.Workers,
		Force:             force,
		Exclude:           cfg.Exclude,
		StaticPaths:       cfg.StaticPath,
		TemplatePaths:     cfg.TemplatesPath,
		Theme:             cfg.Theme,
		HighlightStyle:    cfg.HighlightStyle,
		Project:           cfg.Project,
		Author:            cfg.Author,
		Copyright:         cfg.Copyright,
		Release:           cfg.Release,
		Language:          cfg.Language,
		LastUpdatedFormat: cfg.LastUpdated,
		TOC:               site.TOCSettings{Enabled: cfg.TOCEnabled(), MaxDepth: depth},
		Now:               now,
	}
}

// validateWorkers checks that a worker count is 0 (auto) or 1..MaxWorkers.
func validateWorkers(n int) error {
	if n < 0 || n > config.MaxWorkers {
		return fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidWorkerCount, n, config.MaxWorkers)
	}
	return nil
}

// registryNames lists the extension names quizdoc knows, sorted.
func registryNames() []string {
	reg := quizext.Registry()
	names := make([]string, 0, len(reg))
	for name := range reg {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// absPath returns p as an absolute path, or p unchanged if that fails.
func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
