package site_test

import (
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/alnah/go-quizdown/internal/site"
)

func TestDiscover(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"index.md":               {},
		"guide/intro.md":         {},
		"guide/setup.markdown":   {},
		"guide/notes.txt":        {},
		"drafts/wip.md":          {},
		"_build/html/old.md":     {},
		".git/README.md":         {},
		"api/v1/REFERENCE.MD":    {},
		"quizzes/basics.md":      {},
		"quizzes/deep/nested.md": {},
	}

	tests := []struct {
		name    string
		exclude []string
		want    []string
	}{
		{
			name: "no excludes skips dot directories only",
			want: []string{
				"_build/html/old.md", "api/v1/REFERENCE.MD", "drafts/wip.md", "guide/intro.md",
				"guide/setup.markdown", "index.md", "quizzes/basics.md", "quizzes/deep/nested.md",
			},
		},
		{
			name:    "directory and doublestar patterns",
			exclude: []string{"_build", "drafts", "quizzes/**"},
			want:    []string{"api/v1/REFERENCE.MD", "guide/intro.md", "guide/setup.markdown", "index.md"},
		},
		{
			name:    "file pattern",
			exclude: []string{"**/*.markdown", "_build/html", "api/**", "drafts/*", "quizzes"},
			want:    []string{"guide/intro.md", "index.md"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sources, diags, err := site.Discover(files, tt.exclude)
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if len(diags) != 0 {
				t.Errorf("diagnostics = %v, want none", diags)
			}
			var got []string
			for _, s := range sources {
				got = append(got, s.Path)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Discover() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscover_DocNames(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"guide/intro.md":       {},
		"guide/intro.markdown": {},
		"about.markdown":       {},
	}

	sources, diags, err := site.Discover(files, nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []site.Source{
		{Path: "about.markdown", DocName: "about"},
		{Path: "guide/intro.md", DocName: "guide/intro"},
	}
	if !reflect.DeepEqual(sources, want) {
		t.Errorf("Discover() = %+v, want %+v", sources, want)
	}
	if sources[1].OutputPath() != "guide/intro.html" {
		t.Errorf("OutputPath() = %q", sources[1].OutputPath())
	}

	if len(diags) != 1 || diags[0].DocName != "guide/intro.markdown" ||
		!strings.Contains(diags[0].Message, "guide/intro.md") {
		t.Errorf("diagnostics = %v, want one warning on the ignored .markdown file", diags)
	}
}

func TestDiscover_Empty(t *testing.T) {
	t.Parallel()

	sources, _, err := site.Discover(fstest.MapFS{"readme.txt": {}}, nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(sources) != 0 {
		t.Errorf("Discover() = %v, want none", sources)
	}
}
