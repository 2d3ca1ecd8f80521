// Package config loads the YAML site configuration of a documentation
// project.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-quizdown/internal/fileutil"
	"github.com/alnah/go-quizdown/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// AppName is the directory name under the user config directory.
const AppName = "quizdoc"

// DefaultFileNames are looked up in a source directory, in order.
var DefaultFileNames = []string{"quizdoc.yaml", "quizdoc.yml"}

// Defaults applied by DefaultConfig and Load.
const (
	DefaultOutput     = "_build/html"
	DefaultTheme      = "alabaster"
	DefaultTOCDepth   = 3
	MaxWorkers        = 8
	DefaultTOCEnabled = true
)

// Field length limits.
const (
	MaxNameLength      = 200  // project, author
	MaxTextLength      = 500  // copyright
	MaxVersionLength   = 50   // release
	MaxLanguageLength  = 35   // BCP 47 tag
	MaxFormatLength    = 100  // strftime format
	MaxPathLength      = 4096 // any path
	MaxAssetNameLength = 64   // theme, highlight style
)

// Config is a documentation project: metadata, layout and extension values.
type Config struct {
	Project   string `yaml:"project"`
	Author    string `yaml:"author"`
	Copyright string `yaml:"copyright"`
	Release   string `yaml:"release"`
	Language  string `yaml:"language"`

	Source string `yaml:"source"` // relative to the config file
	Output string `yaml:"output"` // relative to the config file

	Extensions    []string `yaml:"extensions"`
	Exclude       []string `yaml:"exclude"`       // doublestar patterns relative to Source
	TemplatesPath []string `yaml:"templatesPath"` // override directories relative to Source
	StaticPath    []string `yaml:"staticPath"`    // copied into <output>/_static

	Theme          string    `yaml:"theme"`
	HighlightStyle string    `yaml:"highlightStyle"`
	LastUpdated    string    `yaml:"lastUpdated"` // strftime format, empty disables
	TOC            TOCConfig `yaml:"toc"`
	Workers        int       `yaml:"workers"` // 0 = auto

	// Values holds extension config values, e.g. quizdown_config.
	Values map[string]any `yaml:"values"`

	// Dir is the directory relative paths are resolved against. It is the
	// config file's directory, or the source directory without a file.
	Dir string `yaml:"-"`
	// File is the loaded file, empty for defaults.
	File string `yaml:"-"`
}

// TOCConfig controls the local table of contents of each page.
type TOCConfig struct {
	Enabled  *bool `yaml:"enabled"`  // default true
	MaxDepth int   `yaml:"maxDepth"` // 2-6, default 3
}

// TOCEnabled reports whether pages get a local table of contents.
func (c *Config) TOCEnabled() bool {
	if c.TOC.Enabled == nil {
		return DefaultTOCEnabled
	}
	return *c.TOC.Enabled
}

// SourceDir returns the absolute source directory.
func (c *Config) SourceDir() string {
	return c.resolve(c.Source)
}

// OutputDir returns the absolute output directory.
func (c *Config) OutputDir() string {
	out := c.Output
	if out == "" {
		out = DefaultOutput
	}
	return c.resolve(out)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	abs, err := filepath.Abs(filepath.Join(c.Dir, filepath.FromSlash(p)))
	if err != nil {
		return filepath.Join(c.Dir, filepath.FromSlash(p))
	}
	return abs
}

// Validate checks field lengths and ranges.
// Called automatically by LoadConfig.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"project", c.Project, MaxNameLength},
		{"author", c.Author, MaxNameLength},
		{"copyright", c.Copyright, MaxTextLength},
		{"release", c.Release, MaxVersionLength},
		{"language", c.Language, MaxLanguageLength},
		{"source", c.Source, MaxPathLength},
		{"output", c.Output, MaxPathLength},
		{"theme", c.Theme, MaxAssetNameLength},
		{"highlightStyle", c.HighlightStyle, MaxAssetNameLength},
		{"lastUpdated", c.LastUpdated, MaxFormatLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	for name, list := range map[string][]string{
		"extensions":    c.Extensions,
		"exclude":       c.Exclude,
		"templatesPath": c.TemplatesPath,
		"staticPath":    c.StaticPath,
	} {
		for i, v := range list {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("%w: %s[%d] is empty", ErrInvalidValue, name, i)
			}
			if err := validateFieldLength(fmt.Sprintf("%s[%d]", name, i), v, MaxPathLength); err != nil {
				return err
			}
		}
	}

	if c.TOC.MaxDepth != 0 && (c.TOC.MaxDepth < 2 || c.TOC.MaxDepth > 6) {
		return fmt.Errorf("%w: toc.maxDepth must be between 2 and 6, got %d", ErrInvalidValue, c.TOC.MaxDepth)
	}
	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Workers)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when a source directory has
// no config file.
func DefaultConfig(dir string) *Config {
	return &Config{
		Project: filepath.Base(dir),
		Source:  ".",
		Output:  DefaultOutput,
		Theme:   DefaultTheme,
		Dir:     dir,
		Values:  map[string]any{},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}
	cfg := DefaultConfig(filepath.Dir(abs))
	cfg.Project = ""
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}
	cfg.Dir = filepath.Dir(abs)
	cfg.File = abs
	if cfg.Project == "" {
		cfg.Project = filepath.Base(cfg.SourceDir())
	}
	if cfg.Theme == "" {
		cfg.Theme = DefaultTheme
	}
	if cfg.Values == nil {
		cfg.Values = map[string]any{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindInDir returns the path of the config file in dir, or "" when dir has
// none.
func FindInDir(dir string) string {
	for _, name := range DefaultFileNames {
		p := filepath.Join(dir, name)
		if fileutil.FileExists(p) {
			return p
		}
	}
	return ""
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/quizdoc/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, AppName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// SearchPaths returns where LoadConfig looks for a config name, for hints.
func SearchPaths(name string) []string {
	paths := []string{name + ".yaml", name + ".yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, AppName, name+".yaml"),
			filepath.Join(dir, AppName, name+".yml"))
	}
	return paths
}
