// Package quizdown embeds interactive quizdown.js quizzes in generated
// documentation pages.
//
// # Quick Start
//
// The package is host-agnostic: a documentation builder calls Handler.Run
// once per quiz block and adds the page scripts once per output page.
//
//	cfg, err := quizdown.NewConfig(map[string]any{
//	    quizdown.KeyShuffleAnswers: true,
//	    quizdown.KeyPrimaryColor:   "#FF851B",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	markup, err := quizdown.NewHandler().Run(env, quizdown.Block{
//	    Content: []string{"# What is 2+2?", "- [ ] 3", "- [x] 4"},
//	})
//	// markup == `<div class="quizdown"># What is 2+2?` + "\n" + ...
//
//	head := `<script src="` + cfg.ScriptURL() + `"></script>` +
//	    "<script>" + quizdown.InitScript(cfg) + "</script>"
//
// # Quiz Blocks
//
// A block is either inline content (a list of lines) or a reference to an
// external file. External files are resolved relative to the current
// document through Env, registered as build dependencies, then read. A
// missing file or an empty inline block yields an error that hosts report
// as a warning; the page is still generated without the widget.
//
// Quiz text is always HTML-escaped before being wrapped in the container
// element, so author markup cannot break the surrounding page. The
// client-side script reads the escaped text back through textContent.
//
// # Configuration
//
// Config is immutable. NewConfig copies the author's options, fills the
// default script URL and serializes the JSON payload once, so every page of
// a build receives byte-identical initialization code.
//
// Recognized options:
//
//	quizdown_js        script URL (default: jsDelivr build of quizdown-js)
//	start_on_load      convert all .quizdown containers on page load
//	shuffle_answers    shuffle answers of each question
//	shuffle_questions  shuffle questions of each quiz
//	primary_color      CSS color
//	secondary_color    CSS color
//	title_color        CSS color
//
// Unknown options are forwarded to quizdown.init unchanged.
package quizdown
