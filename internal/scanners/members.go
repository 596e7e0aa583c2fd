package scanners

import (
	"github.com/Aman-CERP/typemap/internal/metadata"
	"github.com/Aman-CERP/typemap/internal/store"
	"github.com/Aman-CERP/typemap/internal/vfs"
)

// MethodParameterScanner indexes three keys per method or constructor,
// each pointing at the method key:
//
//	[p1, p2]    the parameter type list
//	returnType  the return type (methods only)
//	tag         every tag on any parameter
type MethodParameterScanner struct{ Base }

// NewMethodParameterScanner creates a method parameter scanner.
func NewMethodParameterScanner(ex metadata.Extractor) *MethodParameterScanner {
	return &MethodParameterScanner{Base: newBase(ex)}
}

// Scan implements Scanner.
func (s *MethodParameterScanner) Scan(entry vfs.Entry, unit *metadata.Unit, w store.Writer) (*metadata.Unit, error) {
	return s.scanTypes(s, entry, unit, w, func(t *metadata.Type, put func(key, value string) error) error {
		for _, m := range t.Methods {
			key := m.Key(t.Name)
			var keys []string
			if sig := metadata.ParamsKey(m.ParamTypes()); s.AcceptResult(sig) {
				keys = append(keys, sig)
			}
			if !m.Constructor && s.AcceptResult(m.Return) {
				keys = append(keys, m.Return)
			}
			for _, p := range m.Params {
				for _, tag := range p.Tags {
					if s.AcceptResult(tag) {
						keys = append(keys, tag)
					}
				}
			}
			for _, k := range keys {
				if err := put(k, key); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// TypeKindsScanner indexes kind -> type (class, interface, enum,
// annotation, record).
type TypeKindsScanner struct{ Base }

// NewTypeKindsScanner creates a type kind scanner.
func NewTypeKindsScanner(ex metadata.Extractor) *TypeKindsScanner {
	return &TypeKindsScanner{Base: newBase(ex)}
}

// Scan implements Scanner.
func (s *TypeKindsScanner) Scan(entry vfs.Entry, unit *metadata.Unit, w store.Writer) (*metadata.Unit, error) {
	return s.scanTypes(s, entry, unit, w, func(t *metadata.Type, put func(key, value string) error) error {
		if kind := string(t.Kind); s.AcceptResult(kind) {
			return put(kind, t.Name)
		}
		return nil
	})
}
