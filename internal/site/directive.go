package site

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// DirectiveOptions declares what a directive accepts.
type DirectiveOptions struct {
	HasContent              bool
	RequiredArguments       int
	OptionalArguments       int
	FinalArgumentWhitespace bool // the last argument may contain spaces
}

// Directive handles one directive type.
// Run returns the node that replaces the block, or nil to drop it.
// Implementations are called from several goroutines at once.
type Directive interface {
	Options() DirectiveOptions
	Run(dc *DirectiveContext) (ast.Node, error)
}

// DirectiveContext is one occurrence of a directive in a document.
type DirectiveContext struct {
	Name      string
	Arguments []string
	Content   []string // body lines without terminators
	Line      int      // 1-based line of the opening fence
	DocName   string   // source path relative to the source root

	doc *docState
}

// RelFilename resolves name against the current document. A leading "/"
// means relative to the source root. It returns the slash-separated path
// relative to the source root and the absolute filesystem path.
func (dc *DirectiveContext) RelFilename(name string) (rel, abs string) {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "/") {
		rel = path.Clean(strings.TrimLeft(name, "/"))
	} else {
		rel = path.Join(path.Dir(dc.doc.docPath), name)
	}
	return rel, filepath.Join(dc.doc.sourceDir, filepath.FromSlash(rel))
}

// NoteDependency records that the current document must be rebuilt when
// rel changes.
func (dc *DirectiveContext) NoteDependency(rel string) {
	dc.doc.deps = append(dc.doc.deps, rel)
}

// ReadFile reads rel from the source tree. Paths outside the source root
// are rejected.
func (dc *DirectiveContext) ReadFile(rel string) ([]byte, error) {
	if dc.doc.source == nil {
		return nil, &fs.PathError{Op: "open", Path: rel, Err: fs.ErrNotExist}
	}
	return fs.ReadFile(dc.doc.source, rel)
}

// docState is the per-document state shared by the parser and the
// directives it runs.
type docState struct {
	source    fs.FS
	sourceDir string
	docPath   string
	deps      []string
	diags     []Diagnostic
}

var docStateKey = parser.NewContextKey()

// NewParseContext returns a goldmark parser context for the document at
// docPath (slash-separated, relative to sourceDir). Directives read files
// from source.
func NewParseContext(source fs.FS, sourceDir, docPath string) parser.Context {
	pc := parser.NewContext()
	pc.Set(docStateKey, &docState{
		source:    source,
		sourceDir: sourceDir,
		docPath:   docPath,
	})
	return pc
}

func stateOf(pc parser.Context) *docState {
	if st, ok := pc.Get(docStateKey).(*docState); ok {
		return st
	}
	st := &docState{}
	pc.Set(docStateKey, st)
	return st
}

// Dependencies returns the sorted, de-duplicated files the document noted
// while it was parsed with pc.
func Dependencies(pc parser.Context) []string {
	st := stateOf(pc)
	seen := make(map[string]bool, len(st.deps))
	var out []string
	for _, d := range st.deps {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

// Diagnostics returns the problems recorded while parsing with pc.
func Diagnostics(pc parser.Context) []Diagnostic {
	st := stateOf(pc)
	out := make([]Diagnostic, len(st.diags))
	copy(out, st.diags)
	return out
}

// KindRawHTML is the node kind of RawHTML.
var KindRawHTML = ast.NewNodeKind("DirectiveRawHTML")

// RawHTML is a block of markup written to the page unchanged.
type RawHTML struct {
	ast.BaseBlock
	HTML string
}

// NewRawHTML returns a RawHTML node holding markup.
func NewRawHTML(markup string) *RawHTML {
	return &RawHTML{HTML: markup}
}

// Kind implements ast.Node.
func (n *RawHTML) Kind() ast.NodeKind {
	return KindRawHTML
}

// Dump implements ast.Node.
func (n *RawHTML) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"HTML": n.HTML}, nil)
}

type rawHTMLRenderer struct{}

func (r *rawHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindRawHTML, r.render)
}

func (r *rawHTMLRenderer) render(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(n.(*RawHTML).HTML)
		_ = w.WriteByte('\n')
	}
	return ast.WalkSkipChildren, nil
}

// directiveExtension turns fenced blocks into directive output.
type directiveExtension struct {
	app *App
}

// Directives returns a goldmark extension that runs the directives
// registered on app.
func Directives(app *App) goldmark.Extender {
	return &directiveExtension{app: app}
}

func (e *directiveExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&directiveTransformer{app: e.app}, 100),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&rawHTMLRenderer{}, 100),
	))
}

type directiveTransformer struct {
	app *App
}

func (t *directiveTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	st := stateOf(pc)

	var blocks []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fb, ok := n.(*ast.FencedCodeBlock); ok {
			blocks = append(blocks, fb)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, fb := range blocks {
		t.replace(fb, source, st)
	}
}

// replace runs the directive named by fb's info string and swaps fb for
// its output. Plain code blocks are left alone.
func (t *directiveTransformer) replace(fb *ast.FencedCodeBlock, source []byte, st *docState) {
	if fb.Info == nil {
		return
	}
	info := strings.TrimSpace(string(fb.Info.Segment.Value(source)))
	name, rawArgs, braced := parseInfo(info)
	line := bytes.Count(source[:fb.Info.Segment.Start], []byte("\n")) + 1

	d, ok := t.app.Directive(name)
	if !ok {
		if braced {
			st.diags = append(st.diags, warning(st.docPath, line, "%v: %q", ErrUnknownDirective, name))
		}
		return
	}

	dc := &DirectiveContext{
		Name:    name,
		Content: blockLines(fb, source),
		Line:    line,
		DocName: st.docPath,
		doc:     st,
	}

	node, err := t.run(d, dc, rawArgs)
	parent := fb.Parent()
	if err != nil {
		diag := warning(st.docPath, line, "%s", warningMessage(err))
		diag.Err = err
		st.diags = append(st.diags, diag)
		parent.RemoveChild(parent, fb)
		return
	}
	if node == nil {
		parent.RemoveChild(parent, fb)
		return
	}
	parent.ReplaceChild(parent, fb, node)
}

func (t *directiveTransformer) run(d Directive, dc *DirectiveContext, rawArgs string) (node ast.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrDirectivePanic, dc.Name, r)
		}
	}()

	opts := d.Options()
	args, err := parseArguments(rawArgs, opts)
	if err != nil {
		return nil, err
	}
	dc.Arguments = args
	if !opts.HasContent && strings.TrimSpace(strings.Join(dc.Content, "")) != "" {
		return nil, fmt.Errorf("%w: %q", ErrDirectiveContent, dc.Name)
	}
	return d.Run(dc)
}

// parseInfo splits "{name} args" or "name args". braced reports whether
// the name was written in braces, which marks the block as a directive.
func parseInfo(info string) (name, args string, braced bool) {
	if strings.HasPrefix(info, "{") {
		end := strings.Index(info, "}")
		if end == -1 {
			return "", "", false
		}
		return strings.TrimSpace(info[1:end]), strings.TrimSpace(info[end+1:]), true
	}

	if i := strings.IndexFunc(info, unicode.IsSpace); i != -1 {
		return info[:i], strings.TrimSpace(info[i:]), false
	}
	return info, "", false
}

// parseArguments splits raw into at most Required+Optional arguments.
// With FinalArgumentWhitespace the remainder becomes the last argument.
func parseArguments(raw string, opts DirectiveOptions) ([]string, error) {
	maxArgs := opts.RequiredArguments + opts.OptionalArguments

	var args []string
	rest := strings.TrimSpace(raw)
	for rest != "" {
		if len(args) == maxArgs {
			return nil, fmt.Errorf("%w: at most %d allowed, got %q", ErrDirectiveArgument, maxArgs, raw)
		}
		if len(args) == maxArgs-1 && opts.FinalArgumentWhitespace {
			args = append(args, rest)
			break
		}
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i == -1 {
			args = append(args, rest)
			break
		}
		args = append(args, rest[:i])
		rest = strings.TrimLeftFunc(rest[i:], unicode.IsSpace)
	}

	if len(args) < opts.RequiredArguments {
		return nil, fmt.Errorf("%w: %d required, got %d", ErrDirectiveArgument, opts.RequiredArguments, len(args))
	}
	return args, nil
}

// blockLines returns the body of a fenced block, one entry per line.
func blockLines(fb *ast.FencedCodeBlock, source []byte) []string {
	lines := fb.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(source)), "\r\n"))
	}
	return out
}

// WarningMessager is implemented by directive errors that carry their own
// diagnostic text. Error() stays in Go error style.
type WarningMessager interface {
	WarningMessage() string
}

// warningMessage returns the diagnostic text for a directive failure.
func warningMessage(err error) string {
	var wm WarningMessager
	if errors.As(err, &wm) {
		return wm.WarningMessage()
	}
	return err.Error()
}
