package typemap

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aman-CERP/typemap/internal/config"
	"github.com/Aman-CERP/typemap/internal/expand"
	"github.com/Aman-CERP/typemap/internal/filter"
	"github.com/Aman-CERP/typemap/internal/metadata"
	"github.com/Aman-CERP/typemap/internal/scan"
	"github.com/Aman-CERP/typemap/internal/scanners"
	"github.com/Aman-CERP/typemap/internal/store"
	"github.com/Aman-CERP/typemap/internal/vfs"
)

// Index names of the built-in scanners.
var (
	SubTypesIndex        = scanners.IndexName(&scanners.SubTypesScanner{})
	TypeTagsIndex        = scanners.IndexName(&scanners.TypeTagsScanner{})
	MethodTagsIndex      = scanners.IndexName(&scanners.MethodTagsScanner{})
	FieldTagsIndex       = scanners.IndexName(&scanners.FieldTagsScanner{})
	MethodParameterIndex = scanners.IndexName(&scanners.MethodParameterScanner{})
	TypeKindsIndex       = scanners.IndexName(&scanners.TypeKindsScanner{})
	ResourcesIndex       = scanners.IndexName(&scanners.ResourcesScanner{})
)

// Options configures Scan.
type Options struct {
	// Roots are the locators to scan.
	Roots []string

	// Filter selects entries by path or dotted name. Nil accepts all.
	Filter filter.Predicate

	// Skip drops entries by relative path before Filter. Nil skips none.
	Skip filter.Predicate

	// Scanners to run. Nil means every built-in scanner over Extractor,
	// with java.lang.Object excluded from the subtype index.
	Scanners []scanners.Scanner

	// Extractor backs the default scanners. Nil means metadata.Default().
	Extractor metadata.Extractor

	// Registry opens roots. Nil means vfs.DefaultRegistry().
	Registry *vfs.Registry

	// Workers is the number of roots scanned at once.
	Workers int

	// Resolver enables the expansion pass when set.
	Resolver expand.Resolver

	// Logger for the scan. Nil means slog.Default().
	Logger *slog.Logger

	// Progress is forwarded to scan.Options.
	Progress func(done, total int, root scan.RootReport)
}

// DefaultScanners returns every built-in scanner sharing ex, with
// java.lang.Object excluded from the subtype index.
func DefaultScanners(ex metadata.Extractor) []scanners.Scanner {
	if ex == nil {
		ex = metadata.Default()
	}
	out := make([]scanners.Scanner, 0, len(config.KnownScanners))
	for _, name := range config.KnownScanners {
		// Known names always resolve.
		s, _ := scanners.ByName(name, ex, true)
		out = append(out, s)
	}
	return out
}

// Map is a scanned, queryable type map.
type Map struct {
	st        *store.Store
	report    *scan.Report
	expansion *expand.Result
}

// Scan scans opts.Roots and, when a resolver is set and the subtype index
// exists, runs the expansion pass. On cancellation the partial map is
// returned with the context error.
func Scan(ctx context.Context, opts Options) (*Map, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Scanners == nil {
		opts.Scanners = DefaultScanners(opts.Extractor)
	}

	st := store.New(scanners.IndexNames(opts.Scanners)...)
	report, err := scan.Run(ctx, scan.Options{
		Roots:    opts.Roots,
		Filter:   opts.Filter,
		Skip:     opts.Skip,
		Scanners: opts.Scanners,
		Registry: opts.Registry,
		Workers:  opts.Workers,
		Logger:   opts.Logger,
		Progress: opts.Progress,
	}, st)
	m := &Map{st: st, report: report}
	if err != nil {
		return m, err
	}

	if opts.Resolver != nil && st.Has(SubTypesIndex) {
		res, err := expand.Expand(ctx, st, SubTypesIndex, opts.Resolver, opts.Logger)
		m.expansion = &res
		if err != nil {
			return m, err
		}
	}
	return m, nil
}

// FromStore wraps an already populated store.
func FromStore(st *store.Store) *Map {
	return &Map{st: st}
}

// Store returns the underlying store.
func (m *Map) Store() *store.Store {
	return m.st
}

// Report returns the scan report, nil for maps built with FromStore.
func (m *Map) Report() *scan.Report {
	return m.report
}

// Expansion returns the expansion result, nil when expansion did not run.
func (m *Map) Expansion() *expand.Result {
	return m.expansion
}

// Duration is the scan plus expansion time.
func (m *Map) Duration() time.Duration {
	var d time.Duration
	if m.report != nil {
		d += m.report.Duration
	}
	if m.expansion != nil {
		d += m.expansion.Duration
	}
	return d
}

// Merge adds everything in other to m.
func (m *Map) Merge(other *Map) {
	m.st.Merge(other.st)
}
