package metadata

import (
	"io"
	"strings"

	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/vfs"
)

// Extractor turns an entry into a Unit.
type Extractor interface {
	// AcceptsInput reports whether the extractor understands path.
	AcceptsInput(path string) bool
	// Extract reads and parses entry.
	Extract(entry vfs.Entry) (*Unit, error)
}

// MultiExtractor dispatches to the first extractor that accepts a path.
type MultiExtractor struct {
	extractors []Extractor
}

// NewMultiExtractor creates a dispatching extractor.
func NewMultiExtractor(extractors ...Extractor) *MultiExtractor {
	return &MultiExtractor{extractors: extractors}
}

// Default returns the class-file and Java source extractors.
func Default() *MultiExtractor {
	return NewMultiExtractor(NewClassFileExtractor(), NewJavaSourceExtractor())
}

// AcceptsInput implements Extractor.
func (m *MultiExtractor) AcceptsInput(path string) bool {
	return m.pick(path) != nil
}

// Extract implements Extractor.
func (m *MultiExtractor) Extract(entry vfs.Entry) (*Unit, error) {
	ex := m.pick(entry.RelativePath())
	if ex == nil {
		return nil, errors.New(errors.ErrCodeExtractFailed, "no extractor for "+entry.RelativePath(), nil)
	}
	return ex.Extract(entry)
}

func (m *MultiExtractor) pick(path string) Extractor {
	for _, ex := range m.extractors {
		if ex.AcceptsInput(path) {
			return ex
		}
	}
	return nil
}

// readEntry reads the whole entry, wrapping failures as extraction errors.
func readEntry(entry vfs.Entry) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.New(errors.ErrCodeEntryRead, "read "+entry.RelativePath(), err)
	}
	return data, nil
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
