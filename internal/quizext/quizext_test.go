package quizext_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	quizdown "github.com/alnah/go-quizdown"
	"github.com/alnah/go-quizdown/internal/quizext"
	"github.com/alnah/go-quizdown/internal/site"
)

const defaultScriptTag = `<script src="` + quizdown.DefaultScriptURL + `"></script>`

// writeTree creates files (slash paths) under a new temporary directory.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	return dir
}

// newApp loads the extension and applies values.
func newApp(t *testing.T, values map[string]any) (*site.App, []site.Diagnostic) {
	t.Helper()
	app := site.NewApp()
	if err := app.LoadExtensions([]string{quizext.Name}, quizext.Registry()); err != nil {
		t.Fatalf("LoadExtensions() error = %v", err)
	}
	diags, err := app.InitConfig(values)
	if err != nil {
		t.Fatalf("InitConfig() error = %v", err)
	}
	return app, diags
}

func build(t *testing.T, app *site.App, dir string) *site.BuildResult {
	t.Helper()
	b, err := site.NewBuilder(app, site.Options{
		SourceDir: dir,
		OutputDir: filepath.Join(dir, "_build", "html"),
		Exclude:   []string{"quizzes/**"},
		Project:   "Quizdown Demo",
	})
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, p := range res.Failed() {
		t.Fatalf("page %s failed: %v", p.Source.Path, p.Err)
	}
	return res
}

func readOutput(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "_build", "html", filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func TestSetup(t *testing.T) {
	t.Parallel()

	app := site.NewApp()
	md, err := quizext.Setup(app)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	want := site.Metadata{Version: "0.3", ParallelReadSafe: true, ParallelWriteSafe: true}
	if md != want {
		t.Errorf("Setup() metadata = %+v, want %+v", md, want)
	}

	d, ok := app.Directive(quizdown.DirectiveName)
	if !ok {
		t.Fatal("quizdown directive not registered")
	}
	opts := d.Options()
	if !opts.HasContent || opts.RequiredArguments != 0 || opts.OptionalArguments != 1 || !opts.FinalArgumentWhitespace {
		t.Errorf("directive options = %+v", opts)
	}

	def, ok := app.ConfigValue(quizdown.ConfigValueName)
	if !ok || !reflect.DeepEqual(def, map[string]any{}) {
		t.Errorf("ConfigValue(%q) = %#v, %v; want empty map", quizdown.ConfigValueName, def, ok)
	}
}

func TestSetup_Twice(t *testing.T) {
	t.Parallel()

	app := site.NewApp()
	if _, err := quizext.Setup(app); err != nil {
		t.Fatalf("first Setup() error = %v", err)
	}
	if _, err := quizext.Setup(app); !errors.Is(err, site.ErrDuplicateDirective) {
		t.Errorf("second Setup() error = %v, want ErrDuplicateDirective", err)
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	for _, name := range []string{quizext.Name, quizext.ModuleName} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			app := site.NewApp()
			if err := app.LoadExtensions([]string{name}, quizext.Registry()); err != nil {
				t.Fatalf("LoadExtensions(%q) error = %v", name, err)
			}
			exts := app.Extensions()
			if len(exts) != 1 || exts[0].Name != name || exts[0].Metadata.Version != quizdown.Version {
				t.Errorf("Extensions() = %+v", exts)
			}
		})
	}
}

func TestConfigInited_InvalidScriptURL(t *testing.T) {
	t.Parallel()

	app := site.NewApp()
	if _, err := quizext.Setup(app); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	_, err := app.InitConfig(map[string]any{
		quizdown.ConfigValueName: map[string]any{quizdown.KeyScriptURL: "  "},
	})
	if !errors.Is(err, site.ErrConfigInit) || !errors.Is(err, quizdown.ErrInvalidScriptURL) {
		t.Errorf("InitConfig() error = %v, want ErrConfigInit and ErrInvalidScriptURL", err)
	}
}

// ---------------------------------------------------------------------------
// Builds
// ---------------------------------------------------------------------------

func TestBuild_InlineQuiz(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{
		"index.md": "# Demo\n\n```{quizdown}\n# Is 1 < 2?\n- [x] yes\n- [ ] no\n```\n",
	})
	app, _ := newApp(t, nil)
	res := build(t, app, dir)

	if len(res.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", res.Diagnostics)
	}
	out := readOutput(t, dir, "index.html")

	wantDiv := "<div class=\"quizdown\"># Is 1 &lt; 2?\n- [x] yes\n- [ ] no</div>"
	if !strings.Contains(out, wantDiv) {
		t.Errorf("output missing %q:\n%s", wantDiv, out)
	}

	wantHead := defaultScriptTag + "\n" +
		`<script>quizdown.init({"quizdown_js":"` + quizdown.DefaultScriptURL + `"});</script>` + "\n</head>"
	if !strings.Contains(out, wantHead) {
		t.Errorf("output missing scripts %q:\n%s", wantHead, out)
	}
}

func TestBuild_NestedQuizStaysEscaped(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{
		"list.md": "# List\n\n- outer\n  - inner\n\n    ```{quizdown}\n" +
			"    # Is ==a== <b>?\n    - [x] yes\n    ```\n",
		"quote.md": "# Quote\n\n> ```{quizdown}\n> # Is ==a== <b>?\n> - [x] yes\n> ```\n\ntext ==marked==\n",
	})
	app, _ := newApp(t, nil)
	res := build(t, app, dir)
	if len(res.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", res.Diagnostics)
	}

	wantDiv := "<div class=\"quizdown\"># Is ==a== &lt;b&gt;?\n- [x] yes</div>"
	for _, page := range []string{"list.html", "quote.html"} {
		out := readOutput(t, dir, page)
		if !strings.Contains(out, wantDiv) {
			t.Errorf("%s missing %q:\n%s", page, wantDiv, out)
		}
	}
	if out := readOutput(t, dir, "quote.html"); !strings.Contains(out, "<mark>marked</mark>") {
		t.Errorf("highlight outside the quiz not rendered:\n%s", out)
	}
}

func TestBuild_ConfigOnEveryPage(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{
		"index.md":       "# Home\n",
		"guide/intro.md": "# Intro\n\n```{quizdown}\n- [x] a\n```\n",
	})
	app, _ := newApp(t, map[string]any{
		quizdown.ConfigValueName: map[string]any{
			quizdown.KeyPrimaryColor:   "#FF851B",
			quizdown.KeyShuffleAnswers: true,
		},
	})
	build(t, app, dir)

	want := `<script>quizdown.init({"primary_color":"#FF851B","quizdown_js":"` +
		quizdown.DefaultScriptURL + `","shuffle_answers":true});</script>`
	for _, page := range []string{"index.html", "guide/intro.html"} {
		if out := readOutput(t, dir, page); !strings.Contains(out, want) {
			t.Errorf("%s missing %q", page, want)
		}
	}
}

func TestBuild_WrongConfigTypeKeepsDefault(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{"index.md": "# Home\n"})
	app, diags := newApp(t, map[string]any{quizdown.ConfigValueName: "not a mapping"})
	if len(diags) != 1 || !strings.Contains(diags[0].Message, quizdown.ConfigValueName) {
		t.Errorf("InitConfig() diagnostics = %v, want one type warning", diags)
	}

	build(t, app, dir)
	if out := readOutput(t, dir, "index.html"); !strings.Contains(out, defaultScriptTag) {
		t.Error("page should use the default script URL")
	}
}

func TestBuild_FileQuiz(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{
		"guide/page.md":     "# Page\n\n```{quizdown} ../quizzes/basics.md\n```\n",
		"rooted.md":         "# Rooted\n\n```{quizdown} /quizzes/basics.md\nignored content\n```\n",
		"quizzes/basics.md": "# Capital of France?\n- [x] Paris\n- [ ] \"Lyon\" & 'Nice'\n",
	})
	app, _ := newApp(t, nil)
	res := build(t, app, dir)

	if len(res.Pages) != 2 {
		t.Fatalf("built %d pages, want 2 (quiz files are excluded)", len(res.Pages))
	}

	want := "<div class=\"quizdown\"># Capital of France?\n- [x] Paris\n" +
		"- [ ] &quot;Lyon&quot; &amp; &#x27;Nice&#x27;\n</div>"
	for _, page := range []string{"guide/page.html", "rooted.html"} {
		out := readOutput(t, dir, page)
		if !strings.Contains(out, want) {
			t.Errorf("%s missing %q:\n%s", page, want, out)
		}
		if strings.Contains(out, "ignored content") {
			t.Errorf("%s: inline content must be ignored when a file is given", page)
		}
	}
}

func TestBuild_Warnings(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{
		"index.md": "# Home\n\n```{quizdown}\n   \n```\n\n```{quizdown} missing.md\n```\n\nafter\n",
	})
	app, _ := newApp(t, nil)
	res := build(t, app, dir)

	if len(res.Diagnostics) != 2 {
		t.Fatalf("Diagnostics = %v, want 2 warnings", res.Diagnostics)
	}
	empty, missing := res.Diagnostics[0], res.Diagnostics[1]

	if empty.DocName != "index.md" || empty.Line != 3 ||
		empty.Message != `Ignoring "quizdown" directive without content.` {
		t.Errorf("empty quiz diagnostic = %+v", empty)
	}
	if missing.Line != 7 || !strings.HasPrefix(missing.Message, "External quizdown file ") ||
		!strings.Contains(missing.Message, filepath.Join(dir, "missing.md")) {
		t.Errorf("missing file diagnostic = %+v", missing)
	}
	if !errors.Is(empty.Err, quizdown.ErrEmptyQuiz) || !errors.Is(missing.Err, quizdown.ErrQuizFileRead) {
		t.Errorf("diagnostic errors = %v, %v, want ErrEmptyQuiz and ErrQuizFileRead", empty.Err, missing.Err)
	}

	out := readOutput(t, dir, "index.html")
	if strings.Contains(out, `class="quizdown"`) {
		t.Error("failed quiz blocks must not produce a container")
	}
	if !strings.Contains(out, "<p>after</p>") {
		t.Error("the rest of the page must still be rendered")
	}
}

func TestBuild_Incremental(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{
		"clean.md":          "# Clean\n\n```{quizdown} quizzes/basics.md\n```\n",
		"other.md":          "# Other\n",
		"warn.md":           "# Warn\n\n```{quizdown}\n```\n",
		"quizzes/basics.md": "- [x] one\n",
	})
	app, _ := newApp(t, nil)

	first := build(t, app, dir)
	if len(first.Pages) != 3 || first.Skipped != 0 {
		t.Fatalf("first build: %d pages, %d skipped", len(first.Pages), first.Skipped)
	}

	second := build(t, app, dir)
	if second.Skipped != 2 || len(second.Pages) != 1 || second.Pages[0].Source.Path != "warn.md" {
		t.Errorf("second build: skipped %d, pages %v; want only warn.md rebuilt", second.Skipped, second.Pages)
	}

	quiz := filepath.Join(dir, "quizzes", "basics.md")
	if err := os.WriteFile(quiz, []byte("- [x] two\n"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	third := build(t, app, dir)
	var rebuilt []string
	for _, p := range third.Pages {
		rebuilt = append(rebuilt, p.Source.Path)
	}
	if !reflect.DeepEqual(rebuilt, []string{"clean.md", "warn.md"}) {
		t.Errorf("third build rebuilt %v, want [clean.md warn.md]", rebuilt)
	}
	if out := readOutput(t, dir, "clean.html"); !strings.Contains(out, "- [x] two") {
		t.Error("clean.html should contain the updated quiz")
	}
}
