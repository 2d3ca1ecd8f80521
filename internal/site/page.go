package site

import "github.com/alnah/go-quizdown/internal/pipeline"

// Script is a <script> element requested by a page-context hook.
type Script = pipeline.Script

// PageContext describes the page being written. Hooks receive their own
// PageContext and may add scripts to it.
type PageContext struct {
	DocName    string         // output name without extension, e.g. "guide/intro"
	SourcePath string         // source path relative to the source root
	Title      string         // resolved page title
	Meta       map[string]any // front matter

	scripts []Script
}

// AddScript appends a script to the page head. Scripts keep the order in
// which they were added.
func (pc *PageContext) AddScript(s Script) {
	pc.scripts = append(pc.scripts, s)
}

// Scripts returns the scripts added so far.
func (pc *PageContext) Scripts() []Script {
	out := make([]Script, len(pc.scripts))
	copy(out, pc.scripts)
	return out
}
