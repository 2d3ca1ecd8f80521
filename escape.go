package quizdown

import "strings"

// ContainerClass marks the elements quizdown.js converts into quizzes.
const ContainerClass = "quizdown"

const (
	containerOpen  = `<div class="` + ContainerClass + `">`
	containerClose = `</div>`
)

// htmlEscaper uses the same entities as Python's html.escape so existing
// pages keep byte-identical output.
var htmlEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
	`'`, "&#x27;",
)

// Escape replaces the HTML special characters &, <, >, " and ' with entities.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// Wrap puts already-escaped quiz text inside the quizdown container.
func Wrap(escaped string) string {
	return containerOpen + escaped + containerClose
}
