package site

import (
	"fmt"
	"sort"
)

// Diagnostic is a build warning, tied to a source location when one is
// known. Failures that stop a page are reported in PageResult instead.
type Diagnostic struct {
	DocName string // source path relative to the source root, "" for config
	Line    int    // 1-based, 0 when unknown
	Message string
	Err     error // directive failure behind the message, if any
}

// String formats the diagnostic as "WARNING: doc.md:3: message".
func (d Diagnostic) String() string {
	switch {
	case d.DocName == "":
		return fmt.Sprintf("WARNING: %s", d.Message)
	case d.Line == 0:
		return fmt.Sprintf("WARNING: %s: %s", d.DocName, d.Message)
	default:
		return fmt.Sprintf("WARNING: %s:%d: %s", d.DocName, d.Line, d.Message)
	}
}

// SortDiagnostics orders diagnostics by document, then line.
// Diagnostics without a document come first.
func SortDiagnostics(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].DocName != ds[j].DocName {
			return ds[i].DocName < ds[j].DocName
		}
		return ds[i].Line < ds[j].Line
	})
}

func warning(doc string, line int, format string, args ...any) Diagnostic {
	return Diagnostic{
		DocName: doc,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
}
