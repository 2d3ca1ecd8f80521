package pipeline

import (
	"context"
	"html"
	"strings"
)

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

// Compile-time interface check.
var _ CSSInjector = (*CSSInjection)(nil)

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" || ctx.Err() != nil {
		return htmlContent
	}
	return insertInHead(htmlContent, "<style>"+escapeClosingTags(cssContent)+"</style>")
}

// Script is a <script> element added to a page: either an external file
// (Src) or an inline body.
type Script struct {
	Src  string
	Body string
}

// Tag renders the script element. Src is attribute-escaped and the body
// cannot close the element early.
func (s Script) Tag() string {
	if s.Src != "" {
		return `<script src="` + html.EscapeString(s.Src) + `"></script>`
	}
	return "<script>" + escapeClosingTags(s.Body) + "</script>"
}

// ScriptInjector defines the contract for script injection into HTML.
type ScriptInjector interface {
	InjectScripts(ctx context.Context, htmlContent string, scripts []Script) string
}

// ScriptInjection inserts script elements into the document head.
type ScriptInjection struct{}

// Compile-time interface check.
var _ ScriptInjector = (*ScriptInjection)(nil)

// InjectScripts inserts the scripts, in order, where InjectCSS would put a
// stylesheet. Scripts are added after any style already in the head.
func (s *ScriptInjection) InjectScripts(ctx context.Context, htmlContent string, scripts []Script) string {
	if len(scripts) == 0 || ctx.Err() != nil {
		return htmlContent
	}

	var block strings.Builder
	for _, sc := range scripts {
		block.WriteString(sc.Tag())
		block.WriteByte('\n')
	}
	return insertInHead(htmlContent, block.String())
}

// insertInHead places block before </head>, after <body ...>, or at the
// start of the document, whichever is found first.
func insertInHead(htmlContent, block string) string {
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + block + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + block + htmlContent[insertPos:]
		}
	}

	return block + htmlContent
}

// escapeClosingTags escapes "</" so raw text cannot end the <style> or
// <script> element that contains it.
func escapeClosingTags(s string) string {
	return strings.ReplaceAll(s, "</", `<\/`)
}
