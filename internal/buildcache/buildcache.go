// Package buildcache remembers what produced each output page so that
// incremental builds only re-render stale pages.
package buildcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/alnah/go-quizdown/internal/fileutil"
)

// FileName is the cache file written at the root of the output directory.
const FileName = ".quizdoc-cache.json"

// FormatVersion changes whenever the file layout changes. Caches with
// another version are discarded.
const FormatVersion = 1

// ErrCorrupt is returned by Load for unreadable or mismatched cache files.
var ErrCorrupt = errors.New("build cache is corrupt")

// Entry records the inputs of one output page.
type Entry struct {
	Source   string            `json:"source"`             // fingerprint of the source file
	Deps     map[string]string `json:"deps,omitempty"`     // dependency path -> fingerprint, "" when missing
	Output   string            `json:"output"`             // output path relative to the output dir
	Warnings int               `json:"warnings,omitempty"` // warnings reported while rendering
}

// Cache maps source paths to the entries that built them.
type Cache struct {
	Version int              `json:"version"`
	Config  string           `json:"config"` // fingerprint of everything that affects every page
	Pages   map[string]Entry `json:"pages"`
}

// New returns an empty cache for the given config fingerprint.
func New(config string) *Cache {
	return &Cache{
		Version: FormatVersion,
		Config:  config,
		Pages:   make(map[string]Entry),
	}
}

// Path returns the cache file location inside outDir.
func Path(outDir string) string {
	return filepath.Join(outDir, FileName)
}

// Load reads the cache from outDir.
// A missing file returns an error matching fs.ErrNotExist.
// A file that does not decode or has another format version returns
// ErrCorrupt.
func Load(outDir string) (*Cache, error) {
	data, err := os.ReadFile(Path(outDir)) // #nosec G304 -- path built from the output dir
	if err != nil {
		return nil, err
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if c.Version != FormatVersion {
		return nil, fmt.Errorf("%w: format version %d, want %d", ErrCorrupt, c.Version, FormatVersion)
	}
	if c.Pages == nil {
		c.Pages = make(map[string]Entry)
	}
	return &c, nil
}

// Save writes the cache atomically into outDir.
func (c *Cache) Save(outDir string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding build cache: %w", err)
	}
	if err := fileutil.WriteFileAtomic(Path(outDir), append(data, '\n')); err != nil {
		return fmt.Errorf("writing build cache: %w", err)
	}
	return nil
}

// Fresh reports whether the page built from source is up to date: the
// source and every dependency still have the recorded fingerprints and the
// last render had no warnings. Pages with warnings are always rebuilt so
// the warnings are reported again.
func (c *Cache) Fresh(source, sourceFP string, depFP func(path string) string) bool {
	e, ok := c.Pages[source]
	if !ok || e.Source != sourceFP || e.Warnings > 0 {
		return false
	}
	for dep, fp := range e.Deps {
		if depFP(dep) != fp {
			return false
		}
	}
	return true
}

// Entry returns the entry recorded for source.
func (c *Cache) Entry(source string) (Entry, bool) {
	e, ok := c.Pages[source]
	return e, ok
}

// Put records the entry for source.
func (c *Cache) Put(source string, e Entry) {
	c.Pages[source] = e
}

// Delete forgets source.
func (c *Cache) Delete(source string) {
	delete(c.Pages, source)
}

// Prune removes entries whose source is not in keep and returns their
// output paths, sorted.
func (c *Cache) Prune(keep map[string]bool) []string {
	var removed []string
	for src, e := range c.Pages {
		if keep[src] {
			continue
		}
		removed = append(removed, e.Output)
		delete(c.Pages, src)
	}
	sort.Strings(removed)
	return removed
}

// Fingerprint returns a short stable hash of data.
func Fingerprint(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// FingerprintValue hashes the JSON form of v. encoding/json sorts map
// keys, so equal values always hash the same.
func FingerprintValue(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprinting value: %w", err)
	}
	return Fingerprint(data), nil
}

// FingerprintFile hashes the content of path. A missing or unreadable
// file yields "".
func FingerprintFile(path string) string {
	data, err := os.ReadFile(path) // #nosec G304 -- paths come from the source tree
	if err != nil {
		return ""
	}
	return Fingerprint(data)
}
