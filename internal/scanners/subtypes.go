package scanners

import (
	"github.com/Aman-CERP/typemap/internal/metadata"
	"github.com/Aman-CERP/typemap/internal/store"
	"github.com/Aman-CERP/typemap/internal/vfs"
)

// SubTypesScanner indexes supertype -> subtype for superclasses and
// directly implemented interfaces.
type SubTypesScanner struct {
	Base
	// ExcludeObject skips java.lang.Object as a supertype.
	ExcludeObject bool
}

// NewSubTypesScanner creates a subtype scanner. java.lang.Object is
// skipped when excludeObject is set.
func NewSubTypesScanner(ex metadata.Extractor, excludeObject bool) *SubTypesScanner {
	return &SubTypesScanner{Base: newBase(ex), ExcludeObject: excludeObject}
}

// Scan implements Scanner.
func (s *SubTypesScanner) Scan(entry vfs.Entry, unit *metadata.Unit, w store.Writer) (*metadata.Unit, error) {
	return s.scanTypes(s, entry, unit, w, func(t *metadata.Type, put func(key, value string) error) error {
		if sc := t.Superclass; sc != "" && !(s.ExcludeObject && sc == metadata.ObjectType) && s.AcceptResult(sc) {
			if err := put(sc, t.Name); err != nil {
				return err
			}
		}
		for _, iface := range t.Interfaces {
			if !s.AcceptResult(iface) {
				continue
			}
			if err := put(iface, t.Name); err != nil {
				return err
			}
		}
		return nil
	})
}
