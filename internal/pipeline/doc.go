// Package pipeline implements the Markdown-to-HTML stages of a page build.
//
// The stages are, in order:
//   - Markdown preprocessing (line normalization)
//   - Markdown to HTML fragment conversion via goldmark, with ==highlight==
//     spans as an inline extension
//   - Relative .md link rewriting (goldmark AST transformer)
//   - Heading extraction and local table of contents
//   - CSS and script injection into the finished page
//
// Page assembly (templates, extension hooks, writing) lives in the site
// package. This package never re-serializes a parsed HTML tree: directive
// output must reach the page byte for byte.
package pipeline
