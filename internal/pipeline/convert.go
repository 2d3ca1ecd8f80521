package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Sentinel errors for conversion.
var (
	ErrHTMLConversion = errors.New("HTML conversion failed")
	ErrUnknownStyle   = errors.New("unknown highlight style")
)

// DefaultHighlightStyle matches the code colors of the default theme.
const DefaultHighlightStyle = "friendly"

// HTMLConverter abstracts Markdown to HTML fragment conversion.
// pc carries per-document state between goldmark and its extensions.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string, pc parser.Context) (string, error)
}

// ConverterOptions configures a GoldmarkConverter.
type ConverterOptions struct {
	// Extensions are added after the built-in ones (fenced directives, etc.).
	Extensions []goldmark.Extender
	// HighlightStyle names the chroma style. Empty means DefaultHighlightStyle.
	HighlightStyle string
}

// GoldmarkConverter converts Markdown to HTML using goldmark.
// A converter is not shared between goroutines; the site builder keeps
// one per worker.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// Compile-time interface check.
var _ HTMLConverter = (*GoldmarkConverter)(nil)

// NewGoldmarkConverter creates a GoldmarkConverter with GFM, footnotes,
// front matter, class-based syntax highlighting, ==highlight== spans and
// .md link rewriting.
func NewGoldmarkConverter(opts ConverterOptions) *GoldmarkConverter {
	style := opts.HighlightStyle
	if style == "" {
		style = DefaultHighlightStyle
	}

	exts := []goldmark.Extender{
		extension.GFM,
		extension.Footnote,
		meta.Meta,
		highlighting.NewHighlighting(
			highlighting.WithStyle(style),
			highlighting.WithFormatOptions(
				html.WithClasses(true), // the stylesheet comes from HighlightCSS
			),
		),
		HighlightExtension,
		LinkRewrite,
	}
	exts = append(exts, opts.Extensions...)

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(), // anchors for the local TOC
		),
		goldmark.WithRendererOptions(
			gmhtml.WithXHTML(),
			// WithUnsafe is not used: raw author HTML is dropped, directive
			// output is rendered by its own node renderer.
		),
	)
	return &GoldmarkConverter{md: md}
}

// ToHTML converts Markdown content to an HTML fragment.
// goldmark has no context support, so conversion runs in a goroutine and
// the caller stops waiting when ctx is done.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string, pc parser.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if pc == nil {
		pc = parser.NewContext()
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf, parser.WithContext(pc)); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// FrontMatter returns the YAML front matter parsed during ToHTML.
func FrontMatter(pc parser.Context) map[string]any {
	data := meta.Get(pc)
	if data == nil {
		return map[string]any{}
	}
	return data
}

// ValidateHighlightStyle returns ErrUnknownStyle if chroma has no style
// registered under name.
func ValidateHighlightStyle(name string) error {
	if name == "" {
		return nil
	}
	if _, ok := styles.Registry[strings.ToLower(name)]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
	return nil
}

// HighlightCSS returns the stylesheet for the chroma classes emitted by
// the converter.
func HighlightCSS(name string) (string, error) {
	if name == "" {
		name = DefaultHighlightStyle
	}
	if err := ValidateHighlightStyle(name); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	formatter := html.New(html.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(name)); err != nil {
		return "", fmt.Errorf("writing %s stylesheet: %w", name, err)
	}
	return buf.String(), nil
}
