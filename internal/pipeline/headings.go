package pipeline

import (
	"fmt"
	"html"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Heading is a heading extracted from a rendered fragment.
type Heading struct {
	Level int    // 1-6
	ID    string // anchor ID
	Text  string // text content, entities decoded
}

// headingLevels maps heading atoms to their level.
var headingLevels = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3,
	atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// ExtractHeadings parses an HTML fragment and returns its headings, in
// document order. The fragment is only read, never re-rendered.
// Returns an error if the fragment cannot be parsed.
func ExtractHeadings(fragment string) ([]Heading, error) {
	body := &nethtml.Node{Type: nethtml.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := nethtml.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("parsing fragment: %w", err)
	}

	var headings []Heading
	var walk func(n *nethtml.Node)
	walk = func(n *nethtml.Node) {
		if n.Type == nethtml.ElementNode {
			if level, ok := headingLevels[n.DataAtom]; ok {
				headings = append(headings, Heading{
					Level: level,
					ID:    attr(n, "id"),
					Text:  strings.Join(strings.Fields(textContent(n)), " "),
				})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return headings, nil
}

// FirstTitle returns the text of the first h1, or "" when there is none.
func FirstTitle(headings []Heading) string {
	for _, h := range headings {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}

func attr(n *nethtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *nethtml.Node) string {
	var b strings.Builder
	var walk func(*nethtml.Node)
	walk = func(n *nethtml.Node) {
		if n.Type == nethtml.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// TOCOptions bounds the headings listed in a local table of contents.
type TOCOptions struct {
	Title    string
	MinDepth int // default 2, the page title is not listed
	MaxDepth int // default 3
}

// depthState normalizes heading levels so the shallowest listed heading
// is depth 1 and skipped levels nest one step at a time.
type depthState struct {
	minLevelSeen int
	lastDepth    int
}

func (d *depthState) next(level int) int {
	if d.minLevelSeen == 0 {
		d.minLevelSeen = level
	}

	depth := level - d.minLevelSeen + 1
	if depth < 1 {
		depth = 1
	}
	// H2 -> H4 nests as a direct child of the H2.
	if d.lastDepth > 0 && depth > d.lastDepth+1 {
		depth = d.lastDepth + 1
	}
	d.lastDepth = depth
	return depth
}

// BuildTOC renders the headings within opts as a nested list of links.
// Headings without IDs are skipped. Returns "" when nothing is listed.
func BuildTOC(headings []Heading, opts TOCOptions) string {
	minDepth, maxDepth := opts.MinDepth, opts.MaxDepth
	if minDepth == 0 {
		minDepth = 2
	}
	if maxDepth == 0 {
		maxDepth = 3
	}

	var listed []Heading
	for _, h := range headings {
		if h.ID == "" || h.Level < minDepth || h.Level > maxDepth {
			continue
		}
		listed = append(listed, h)
	}
	if len(listed) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString(`<nav class="contents local" id="contents">`)
	if opts.Title != "" {
		buf.WriteString(`<p class="topic-title">`)
		buf.WriteString(html.EscapeString(opts.Title))
		buf.WriteString(`</p>`)
	}

	depths := &depthState{}
	open := 0
	for i, h := range listed {
		depth := depths.next(h.Level)
		switch {
		case depth > open:
			for ; open < depth; open++ {
				buf.WriteString("<ul>")
			}
		case i > 0:
			buf.WriteString("</li>")
			for ; open > depth; open-- {
				buf.WriteString("</ul></li>")
			}
		}
		buf.WriteString(`<li><a class="reference internal" href="#`)
		buf.WriteString(html.EscapeString(h.ID))
		buf.WriteString(`">`)
		buf.WriteString(html.EscapeString(h.Text))
		buf.WriteString(`</a>`)
	}
	buf.WriteString("</li>")
	for ; open > 1; open-- {
		buf.WriteString("</ul></li>")
	}
	buf.WriteString("</ul></nav>")
	return buf.String()
}
