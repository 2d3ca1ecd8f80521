package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	strftime "github.com/ncruces/go-strftime"

	"github.com/alnah/go-quizdown/internal/pipeline"
)

// tocTitle heads the local table of contents.
const tocTitle = "Contents"

// defaultLanguage is the lang attribute of pages without a configured
// language.
const defaultLanguage = "en"

// PageData is what the page template is executed with.
type PageData struct {
	Title       string
	Project     string
	Release     string
	Author      string
	Copyright   string
	Language    string
	LastUpdated string // formatted with the lastUpdated strftime format, "" when disabled
	Body        template.HTML
	TOC         template.HTML
	Root        string // relative prefix from the page to the output root, e.g. "../"
	DocName     string
	Meta        map[string]any
}

// renderedPage is a fully assembled HTML page.
type renderedPage struct {
	html  []byte
	deps  []string
	diags []Diagnostic
}

// pageRenderer holds everything shared by the render workers. It is
// read-only once built.
type pageRenderer struct {
	app       *App
	opts      Options
	source    fs.FS
	sourceDir string
	tmpl      *template.Template
	css       string
	pre       pipeline.MarkdownPreprocessor
	styles    pipeline.CSSInjector
	scripts   pipeline.ScriptInjector
}

// render turns one source document into a complete page.
func (r *pageRenderer) render(ctx context.Context, conv pipeline.HTMLConverter, src Source) (*renderedPage, error) {
	data, err := fs.ReadFile(r.source, src.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadSource, src.Path, err)
	}

	content := r.pre.PreprocessMarkdown(ctx, string(data))
	pc := NewParseContext(r.source, r.sourceDir, src.Path)

	body, err := conv.ToHTML(ctx, content, pc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRenderPage, src.Path, err)
	}

	diags := Diagnostics(pc)
	frontMatter := pipeline.FrontMatter(pc)

	headings, err := pipeline.ExtractHeadings(body)
	if err != nil {
		diags = append(diags, warning(src.Path, 0, "reading headings: %v", err))
	}

	title := pageTitle(frontMatter, headings, src.DocName)
	var toc string
	if r.opts.TOC.Enabled {
		toc = pipeline.BuildTOC(headings, pipeline.TOCOptions{
			Title:    tocTitle,
			MaxDepth: r.opts.TOC.MaxDepth,
		})
	}

	pageData := PageData{
		Title:       title,
		Project:     r.opts.Project,
		Release:     r.opts.Release,
		Author:      r.opts.Author,
		Copyright:   r.opts.Copyright,
		Language:    r.language(),
		LastUpdated: r.lastUpdated(),
		Body:        template.HTML(body), // #nosec G203 -- goldmark output without unsafe HTML
		TOC:         template.HTML(toc),  // #nosec G203 -- built from escaped heading text
		Root:        rootPrefix(src.DocName),
		DocName:     src.DocName,
		Meta:        frontMatter,
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, pageData); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderPage, src.Path, err)
	}

	pctx := &PageContext{
		DocName:    src.DocName,
		SourcePath: src.Path,
		Title:      title,
		Meta:       frontMatter,
	}
	r.app.firePageContext(pctx)

	page := r.styles.InjectCSS(ctx, buf.String(), r.css)
	page = r.scripts.InjectScripts(ctx, page, pctx.Scripts())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &renderedPage{
		html:  []byte(page),
		deps:  Dependencies(pc),
		diags: diags,
	}, nil
}

func (r *pageRenderer) language() string {
	if r.opts.Language == "" {
		return defaultLanguage
	}
	return r.opts.Language
}

func (r *pageRenderer) lastUpdated() string {
	if r.opts.LastUpdatedFormat == "" {
		return ""
	}
	now := time.Now
	if r.opts.Now != nil {
		now = r.opts.Now
	}
	return strftime.Format(r.opts.LastUpdatedFormat, now())
}

// pageTitle picks the front matter title, then the first H1, then the
// last element of the document name.
func pageTitle(frontMatter map[string]any, headings []pipeline.Heading, docName string) string {
	if t, ok := frontMatter["title"].(string); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if t := pipeline.FirstTitle(headings); t != "" {
		return t
	}
	return path.Base(docName)
}

// rootPrefix returns the relative path from a page to the output root.
func rootPrefix(docName string) string {
	return strings.Repeat("../", strings.Count(docName, "/"))
}
