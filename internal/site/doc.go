// Package site is the documentation builder that hosts extensions.
//
// An App is configured once at startup: extensions register directives,
// configuration values and event hooks through their setup functions, then
// InitConfig applies the author's values and fires config-inited hooks.
// After that the App is read-only and a Builder renders pages from it on
// several goroutines.
//
// # Directives
//
// Directives are written as fenced blocks whose info string is the
// directive name in braces, followed by an optional argument:
//
//	```{quizdown} quizzes/basics.md
//	```
//
// The fenced-directive goldmark extension replaces each block with the
// node returned by the directive, usually a RawHTML node. A directive
// error removes the block and records a warning Diagnostic; it never
// fails the page.
//
// # Page events
//
// Before a page is written, every page-context hook receives a
// PageContext and may add scripts. Scripts are injected into the page
// head in registration order.
package site
