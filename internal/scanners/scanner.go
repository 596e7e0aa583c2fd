// Package scanners turns extracted units into index writes.
//
// Each scanner owns exactly one index, named after its Go type. The
// orchestrator hands every accepted entry to each scanner in turn and
// threads the extracted unit between them, so an entry is parsed at most
// once no matter how many scanners read it.
package scanners

import (
	"reflect"

	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/filter"
	"github.com/Aman-CERP/typemap/internal/metadata"
	"github.com/Aman-CERP/typemap/internal/store"
	"github.com/Aman-CERP/typemap/internal/vfs"
)

// Scanner is the plugin contract.
type Scanner interface {
	// AcceptsInput reports whether the scanner wants the entry at path.
	AcceptsInput(path string) bool

	// Scan writes facts about entry into w. unit is the unit extracted by
	// an earlier scanner for the same entry, or nil; the returned unit
	// (possibly newly extracted) is passed to the next scanner.
	Scan(entry vfs.Entry, unit *metadata.Unit, w store.Writer) (*metadata.Unit, error)
}

// IndexName returns the index a scanner writes to: its type name.
func IndexName(s Scanner) string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// NeedsUnit reports whether s extracts a unit when none is passed in.
// Scanners that never extract implement NeedsUnit() bool returning false;
// any other scanner is assumed to extract.
func NeedsUnit(s Scanner) bool {
	if n, ok := s.(interface{ NeedsUnit() bool }); ok {
		return n.NeedsUnit()
	}
	return true
}

// IndexNames returns the index names of scanners, in order.
func IndexNames(scanners []Scanner) []string {
	out := make([]string, len(scanners))
	for i, s := range scanners {
		out[i] = IndexName(s)
	}
	return out
}

// Base carries what every extracting scanner shares: the extractor and
// the result filter applied to index keys.
type Base struct {
	Extractor    metadata.Extractor
	ResultFilter filter.Predicate
}

func newBase(ex metadata.Extractor) Base {
	if ex == nil {
		ex = metadata.Default()
	}
	return Base{Extractor: ex}
}

// AcceptsInput defers to the extractor.
func (b *Base) AcceptsInput(path string) bool {
	return b.Extractor.AcceptsInput(path)
}

// FilterResultsBy restricts which keys are written.
func (b *Base) FilterResultsBy(p filter.Predicate) {
	b.ResultFilter = p
}

// AcceptResult reports whether key passes the result filter.
func (b *Base) AcceptResult(key string) bool {
	return key != "" && (b.ResultFilter == nil || b.ResultFilter(key))
}

// unit returns the unit, extracting it when an earlier scanner did not.
// Extraction failures carry ErrCodeExtractFailed.
func (b *Base) unit(entry vfs.Entry, unit *metadata.Unit) (*metadata.Unit, error) {
	if unit != nil {
		return unit, nil
	}
	u, err := b.Extractor.Extract(entry)
	if err != nil {
		return nil, errors.New(errors.ErrCodeExtractFailed, "could not create unit from "+entry.RelativePath(), err)
	}
	return u, nil
}

// scanTypes extracts (if needed) and calls fn for every type of the unit.
func (b *Base) scanTypes(s Scanner, entry vfs.Entry, unit *metadata.Unit, w store.Writer,
	fn func(t *metadata.Type, put func(key, value string) error) error) (*metadata.Unit, error) {
	u, err := b.unit(entry, unit)
	if err != nil {
		return nil, err
	}
	index := IndexName(s)
	put := func(key, value string) error {
		_, err := w.Put(index, key, value)
		return err
	}
	for _, t := range u.Types {
		if err := fn(t, put); err != nil {
			return u, err
		}
	}
	return u, nil
}
