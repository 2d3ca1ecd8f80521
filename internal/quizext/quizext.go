// Package quizext registers the quizdown directive, its configuration value
// and its page scripts with a site.App.
package quizext

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/yuin/goldmark/ast"

	quizdown "github.com/alnah/go-quizdown"
	"github.com/alnah/go-quizdown/internal/site"
)

// Extension names accepted in the site configuration.
const (
	Name       = "quizdown"
	ModuleName = "sphinxcontrib.quizdown"
)

// ErrConfigType is returned when quizdown_config is not a mapping.
var ErrConfigType = errors.New("quizdown_config must be a mapping")

// Registry returns the setup functions of the extensions this module
// provides, keyed by the names a configuration may list.
func Registry() map[string]site.SetupFunc {
	return map[string]site.SetupFunc{
		Name:       Setup,
		ModuleName: Setup,
	}
}

// extension is the per-App state: the handler and the configuration built
// once the config values are known.
type extension struct {
	handler *quizdown.Handler
	cfg     atomic.Pointer[quizdown.Config]
}

// Setup registers the quizdown directive, the quizdown_config value and the
// page hooks with app.
func Setup(app *site.App) (site.Metadata, error) {
	ext := &extension{handler: quizdown.NewHandler()}

	if err := app.AddDirective(quizdown.DirectiveName, &directive{ext: ext}); err != nil {
		return site.Metadata{}, err
	}
	if err := app.AddConfigValue(quizdown.ConfigValueName, map[string]any{}, site.RebuildHTML); err != nil {
		return site.Metadata{}, err
	}
	app.OnConfigInited(ext.configInited)
	app.OnPageContext(ext.pageContext)

	return site.Metadata{
		Version:           quizdown.Version,
		ParallelReadSafe:  true,
		ParallelWriteSafe: true,
	}, nil
}

func (e *extension) configInited(app *site.App) error {
	raw, _ := app.ConfigValue(quizdown.ConfigValueName)
	options, err := toOptions(raw)
	if err != nil {
		return err
	}
	cfg, err := quizdown.NewConfig(options)
	if err != nil {
		return err
	}
	e.cfg.Store(cfg)
	return nil
}

// config returns the configuration built at config-inited, or the default
// one when the hook has not run.
func (e *extension) config() *quizdown.Config {
	if cfg := e.cfg.Load(); cfg != nil {
		return cfg
	}
	return quizdown.DefaultConfig()
}

// pageContext adds the quizdown.js script and its initialization to every
// page, in that order.
func (e *extension) pageContext(pc *site.PageContext) {
	cfg := e.config()
	pc.AddScript(site.Script{Src: cfg.ScriptURL()})
	pc.AddScript(site.Script{Body: quizdown.InitScript(cfg)})
}

func toOptions(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w, got %T", ErrConfigType, raw)
	}
}

// directive adapts quizdown.Handler to the site directive interface.
type directive struct {
	ext *extension
}

func (d *directive) Options() site.DirectiveOptions {
	return site.DirectiveOptions{
		HasContent:              true,
		OptionalArguments:       1,
		FinalArgumentWhitespace: true,
	}
}

func (d *directive) Run(dc *site.DirectiveContext) (ast.Node, error) {
	b := quizdown.Block{
		Content: dc.Content,
		Line:    dc.Line,
	}
	if len(dc.Arguments) > 0 {
		b.Argument = dc.Arguments[0]
		b.HasArgument = true
	}

	markup, err := d.ext.handler.Run(dc, b)
	if err != nil {
		return nil, err
	}
	return site.NewRawHTML(markup), nil
}
