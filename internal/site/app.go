package site

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// RebuildKind says what must be rebuilt when a config value changes.
type RebuildKind string

const (
	RebuildNone RebuildKind = ""     // value never affects output
	RebuildHTML RebuildKind = "html" // every page is re-rendered
)

// Metadata is returned by an extension's setup function.
type Metadata struct {
	Version           string
	ParallelReadSafe  bool
	ParallelWriteSafe bool
}

// SetupFunc registers an extension with app.
type SetupFunc func(app *App) (Metadata, error)

// Extension is a loaded extension.
type Extension struct {
	Name     string
	Metadata Metadata
}

type configValue struct {
	def     any
	value   any
	rebuild RebuildKind
	set     bool
}

// App is the registry extensions talk to. Registration and InitConfig
// must complete before a build starts; afterwards the App is only read
// and may be shared between goroutines.
type App struct {
	directives   map[string]Directive
	values       map[string]*configValue
	configInited []func(*App) error
	pageContext  []func(*PageContext)
	extensions   []Extension
}

// NewApp returns an empty App.
func NewApp() *App {
	return &App{
		directives: make(map[string]Directive),
		values:     make(map[string]*configValue),
	}
}

// AddDirective registers d under name.
// Returns ErrDuplicateDirective if name is taken.
func (a *App) AddDirective(name string, d Directive) error {
	if name == "" || strings.ContainsAny(name, "{} \t") {
		return fmt.Errorf("%w: %q", ErrInvalidDirectiveName, name)
	}
	if _, ok := a.directives[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateDirective, name)
	}
	a.directives[name] = d
	return nil
}

// Directive returns the directive registered under name.
func (a *App) Directive(name string) (Directive, bool) {
	d, ok := a.directives[name]
	return d, ok
}

// AddConfigValue declares a configuration value and its default.
// Returns ErrDuplicateConfigValue if name is already declared.
func (a *App) AddConfigValue(name string, def any, rebuild RebuildKind) error {
	if _, ok := a.values[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateConfigValue, name)
	}
	a.values[name] = &configValue{def: def, rebuild: rebuild}
	return nil
}

// ConfigValue returns the author's value for name, or its default.
func (a *App) ConfigValue(name string) (any, bool) {
	v, ok := a.values[name]
	if !ok {
		return nil, false
	}
	if v.set {
		return v.value, true
	}
	return v.def, true
}

// OnConfigInited registers fn to run once the config values are applied.
func (a *App) OnConfigInited(fn func(*App) error) {
	a.configInited = append(a.configInited, fn)
}

// OnPageContext registers fn to run once per written page.
func (a *App) OnPageContext(fn func(*PageContext)) {
	a.pageContext = append(a.pageContext, fn)
}

// SetupExtension runs setup and records the extension under name.
// Loading the same name twice is a no-op.
func (a *App) SetupExtension(name string, setup SetupFunc) error {
	for _, ext := range a.extensions {
		if ext.Name == name {
			return nil
		}
	}

	md, err := setup(a)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExtensionSetup, name, err)
	}
	a.extensions = append(a.extensions, Extension{Name: name, Metadata: md})
	return nil
}

// LoadExtensions sets up every named extension found in registry, in order.
// Returns ErrUnknownExtension for a name the registry does not know.
func (a *App) LoadExtensions(names []string, registry map[string]SetupFunc) error {
	for _, name := range names {
		setup, ok := registry[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownExtension, name)
		}
		if err := a.SetupExtension(name, setup); err != nil {
			return err
		}
	}
	return nil
}

// Extensions returns the loaded extensions in load order.
func (a *App) Extensions() []Extension {
	out := make([]Extension, len(a.extensions))
	copy(out, a.extensions)
	return out
}

// ParallelSafe reports whether every loaded extension allows pages to be
// read and written concurrently.
func (a *App) ParallelSafe() bool {
	for _, ext := range a.extensions {
		if !ext.Metadata.ParallelReadSafe || !ext.Metadata.ParallelWriteSafe {
			return false
		}
	}
	return true
}

// InitConfig applies the author's values and fires config-inited hooks.
// Null values keep the default. Unknown names and values whose kind
// differs from the default are reported as warnings and ignored.
func (a *App) InitConfig(values map[string]any) ([]Diagnostic, error) {
	var diags []Diagnostic

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := values[name]
		if value == nil {
			continue
		}
		cv, ok := a.values[name]
		if !ok {
			diags = append(diags, warning("", 0, "unknown config value %q in configuration, ignoring", name))
			continue
		}
		if !sameKind(cv.def, value) {
			diags = append(diags, warning("", 0,
				"config value %q has type %T, defaults to %T, ignoring", name, value, cv.def))
			continue
		}
		cv.value = value
		cv.set = true
	}

	for _, fn := range a.configInited {
		if err := fn(a); err != nil {
			return diags, fmt.Errorf("%w: %w", ErrConfigInit, err)
		}
	}
	return diags, nil
}

// RebuildValues returns the current values that affect page output, keyed
// by name. Build caches fingerprint them.
func (a *App) RebuildValues() map[string]any {
	out := make(map[string]any)
	for name := range a.values {
		if a.values[name].rebuild == RebuildNone {
			continue
		}
		v, _ := a.ConfigValue(name)
		out[name] = v
	}
	return out
}

func (a *App) firePageContext(pc *PageContext) {
	for _, fn := range a.pageContext {
		fn(pc)
	}
}

// sameKind reports whether value may replace def. A nil default accepts
// anything; maps of any key type are interchangeable.
func sameKind(def, value any) bool {
	if def == nil {
		return true
	}
	return reflect.TypeOf(def).Kind() == reflect.TypeOf(value).Kind()
}
