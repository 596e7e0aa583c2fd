package scanners

import (
	"github.com/Aman-CERP/typemap/internal/metadata"
	"github.com/Aman-CERP/typemap/internal/store"
	"github.com/Aman-CERP/typemap/internal/vfs"
)

// ResourcesScanner indexes base name -> relative path for every entry the
// extractor does not claim. It never extracts.
type ResourcesScanner struct{ Base }

// NewResourcesScanner creates a resource scanner. Paths accepted by ex
// are skipped.
func NewResourcesScanner(ex metadata.Extractor) *ResourcesScanner {
	return &ResourcesScanner{Base: newBase(ex)}
}

// AcceptsInput implements Scanner.
func (s *ResourcesScanner) AcceptsInput(path string) bool {
	return !s.Extractor.AcceptsInput(path)
}

// NeedsUnit reports false: resources are indexed by name alone.
func (s *ResourcesScanner) NeedsUnit() bool { return false }

// Scan implements Scanner. unit is returned unchanged.
func (s *ResourcesScanner) Scan(entry vfs.Entry, unit *metadata.Unit, w store.Writer) (*metadata.Unit, error) {
	if name := entry.Name(); s.AcceptResult(name) {
		if _, err := w.Put(IndexName(s), name, entry.RelativePath()); err != nil {
			return unit, err
		}
	}
	return unit, nil
}
