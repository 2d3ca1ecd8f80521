package pipeline

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindHighlight is the node kind of Highlight.
var KindHighlight = ast.NewNodeKind("Highlight")

// Highlight is an inline ==marked== span, rendered as <mark>.
type Highlight struct {
	ast.BaseInline
}

// Kind implements ast.Node.
func (n *Highlight) Kind() ast.NodeKind {
	return KindHighlight
}

// Dump implements ast.Node.
func (n *Highlight) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// HighlightExtension is a goldmark extension for ==text== spans.
// It is an inline parser, so code spans, fenced code and directive
// bodies never see it.
var HighlightExtension goldmark.Extender = &highlightExtension{}

type highlightExtension struct{}

func (e *highlightExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&highlightParser{}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&highlightRenderer{}, 500),
	))
}

type highlightDelimiterProcessor struct{}

func (p *highlightDelimiterProcessor) IsDelimiter(b byte) bool {
	return b == '='
}

func (p *highlightDelimiterProcessor) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (p *highlightDelimiterProcessor) OnMatch(int) ast.Node {
	return &Highlight{}
}

var defaultHighlightDelimiter = &highlightDelimiterProcessor{}

type highlightParser struct{}

func (s *highlightParser) Trigger() []byte {
	return []byte{'='}
}

// Parse accepts runs of exactly two '='.
func (s *highlightParser) Parse(_ ast.Node, block text.Reader, pc parser.Context) ast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, 2, defaultHighlightDelimiter)
	if node == nil || node.OriginalLength != 2 || before == '=' {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

type highlightRenderer struct{}

func (r *highlightRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindHighlight, r.render)
}

func (r *highlightRenderer) render(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<mark>")
	} else {
		_, _ = w.WriteString("</mark>")
	}
	return ast.WalkContinue, nil
}
