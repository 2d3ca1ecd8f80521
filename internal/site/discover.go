package site

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// sourceSuffixes are the file extensions read as documents, in order of
// preference when two files share a document name.
var sourceSuffixes = []string{".md", ".markdown"}

// Source is one document of the source tree.
type Source struct {
	Path    string // slash-separated, relative to the source root, e.g. "guide/intro.md"
	DocName string // Path without its extension, e.g. "guide/intro"
}

// OutputPath returns the page path relative to the output root.
func (s Source) OutputPath() string {
	return s.DocName + ".html"
}

// Discover walks root and returns its documents sorted by path.
// Directories and files whose relative path matches one of the exclude
// patterns (doublestar syntax) are skipped, as are dot-directories.
// When two files map to the same document name, the first suffix in
// sourceSuffixes wins and a warning is reported.
func Discover(root fs.FS, exclude []string) ([]Source, []Diagnostic, error) {
	byDoc := make(map[string]Source)
	var diags []Diagnostic

	err := fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || excluded(p, exclude) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || excluded(p, exclude) {
			return nil
		}

		suffix := sourceSuffix(p)
		if suffix == "" {
			return nil
		}
		src := Source{Path: p, DocName: strings.TrimSuffix(p, path.Ext(p))}
		if prev, ok := byDoc[src.DocName]; ok {
			winner, loser := prev, src
			if suffixRank(sourceSuffix(prev.Path)) > suffixRank(suffix) {
				winner, loser = src, prev
			}
			byDoc[src.DocName] = winner
			diags = append(diags, warning(loser.Path, 0,
				"document %q is also built from %s, ignoring this file", src.DocName, winner.Path))
			return nil
		}
		byDoc[src.DocName] = src
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceDir, err)
	}

	sources := make([]Source, 0, len(byDoc))
	for _, s := range byDoc {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })
	return sources, diags, nil
}

// excluded reports whether the relative path matches any pattern.
// Malformed patterns match nothing.
func excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func sourceSuffix(p string) string {
	ext := strings.ToLower(path.Ext(p))
	for _, s := range sourceSuffixes {
		if ext == s {
			return s
		}
	}
	return ""
}

func suffixRank(s string) int {
	for i, v := range sourceSuffixes {
		if v == s {
			return i
		}
	}
	return len(sourceSuffixes)
}

// relExclude returns the pattern matching dir and everything below it,
// relative to sourceDir, or "" when dir is outside sourceDir.
func relExclude(sourceDir, dir string) string {
	rel, err := filepath.Rel(sourceDir, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}
