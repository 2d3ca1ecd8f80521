package pipeline

import (
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// sourceExtensions are the Markdown extensions rewritten to .html.
var sourceExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// LinkRewrite is a goldmark extension that points relative links to
// Markdown sources at their generated pages.
var LinkRewrite goldmark.Extender = &linkRewrite{}

type linkRewrite struct{}

func (e *linkRewrite) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&linkTransformer{}, 999),
	))
}

type linkTransformer struct{}

// Transform rewrites link destinations in place.
func (t *linkTransformer) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			link.Destination = []byte(RewriteLink(string(link.Destination)))
		}
		return ast.WalkContinue, nil
	})
}

// RewriteLink maps "guide/intro.md#setup" to "guide/intro.html#setup".
// URLs, anchors, absolute paths and other file types are returned unchanged.
func RewriteLink(dest string) string {
	if !isRelativePath(dest) {
		return dest
	}

	target, suffix := dest, ""
	if i := strings.IndexAny(dest, "?#"); i != -1 {
		target, suffix = dest[:i], dest[i:]
	}

	ext := path.Ext(target)
	if !sourceExtensions[strings.ToLower(ext)] {
		return dest
	}
	return strings.TrimSuffix(target, ext) + ".html" + suffix
}

// isRelativePath returns true if the path is relative to the current page.
func isRelativePath(p string) bool {
	if p == "" {
		return false
	}

	// URLs (any scheme, including protocol-relative)
	if strings.HasPrefix(p, "//") || strings.Contains(p, "://") ||
		strings.HasPrefix(p, "mailto:") || strings.HasPrefix(p, "data:") {
		return false
	}

	if strings.HasPrefix(p, "#") || strings.HasPrefix(p, "/") {
		return false
	}

	return true
}
