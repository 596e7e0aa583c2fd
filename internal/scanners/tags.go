package scanners

import (
	"github.com/Aman-CERP/typemap/internal/metadata"
	"github.com/Aman-CERP/typemap/internal/store"
	"github.com/Aman-CERP/typemap/internal/vfs"
)

// TypeTagsScanner indexes tag -> type for tags on type declarations.
// java.lang.annotation.Inherited always passes the result filter, since
// inherited-tag queries depend on it.
type TypeTagsScanner struct{ Base }

// NewTypeTagsScanner creates a type tag scanner.
func NewTypeTagsScanner(ex metadata.Extractor) *TypeTagsScanner {
	return &TypeTagsScanner{Base: newBase(ex)}
}

// Scan implements Scanner.
func (s *TypeTagsScanner) Scan(entry vfs.Entry, unit *metadata.Unit, w store.Writer) (*metadata.Unit, error) {
	return s.scanTypes(s, entry, unit, w, func(t *metadata.Type, put func(key, value string) error) error {
		for _, tag := range t.Tags {
			if !s.AcceptResult(tag) && tag != metadata.InheritedTag {
				continue
			}
			if err := put(tag, t.Name); err != nil {
				return err
			}
		}
		return nil
	})
}

// MethodTagsScanner indexes tag -> method key for methods and constructors.
type MethodTagsScanner struct{ Base }

// NewMethodTagsScanner creates a method tag scanner.
func NewMethodTagsScanner(ex metadata.Extractor) *MethodTagsScanner {
	return &MethodTagsScanner{Base: newBase(ex)}
}

// Scan implements Scanner.
func (s *MethodTagsScanner) Scan(entry vfs.Entry, unit *metadata.Unit, w store.Writer) (*metadata.Unit, error) {
	return s.scanTypes(s, entry, unit, w, func(t *metadata.Type, put func(key, value string) error) error {
		for _, m := range t.Methods {
			for _, tag := range m.Tags {
				if !s.AcceptResult(tag) {
					continue
				}
				if err := put(tag, m.Key(t.Name)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// FieldTagsScanner indexes tag -> field key.
type FieldTagsScanner struct{ Base }

// NewFieldTagsScanner creates a field tag scanner.
func NewFieldTagsScanner(ex metadata.Extractor) *FieldTagsScanner {
	return &FieldTagsScanner{Base: newBase(ex)}
}

// Scan implements Scanner.
func (s *FieldTagsScanner) Scan(entry vfs.Entry, unit *metadata.Unit, w store.Writer) (*metadata.Unit, error) {
	return s.scanTypes(s, entry, unit, w, func(t *metadata.Type, put func(key, value string) error) error {
		for _, f := range t.Fields {
			for _, tag := range f.Tags {
				if !s.AcceptResult(tag) {
					continue
				}
				if err := put(tag, f.Key(t.Name)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
