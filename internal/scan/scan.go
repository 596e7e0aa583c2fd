package scan

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/filter"
	"github.com/Aman-CERP/typemap/internal/metadata"
	"github.com/Aman-CERP/typemap/internal/scanners"
	"github.com/Aman-CERP/typemap/internal/store"
	"github.com/Aman-CERP/typemap/internal/vfs"
)

// Options configures a scan.
type Options struct {
	// Roots are the locators to scan.
	Roots []string

	// Filter selects entries by relative path or dotted form. Nil accepts all.
	Filter filter.Predicate

	// Skip drops entries whose relative path it accepts, before Filter.
	Skip filter.Predicate

	// Scanners run in order on every accepted entry.
	Scanners []scanners.Scanner

	// Registry opens roots. Nil uses vfs.DefaultRegistry().
	Registry *vfs.Registry

	// Workers is the number of roots scanned at once. Values <= 1 scan
	// sequentially on the calling goroutine.
	Workers int

	// Logger receives failures and the summary. Nil uses slog.Default().
	Logger *slog.Logger

	// Progress, when set, is called after each root finishes. Calls may
	// come from several goroutines.
	Progress func(done, total int, root RootReport)
}

// Run scans opts.Roots into st and returns the report. Failures of roots,
// entries and scanners are recorded, not returned. The only error is the
// context's, in which case the partial report is returned with it. Every
// container opened is closed before Run returns.
func Run(ctx context.Context, opts Options, st *store.Store) (*Report, error) {
	if st == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scan needs a store", nil)
	}
	if opts.Registry == nil {
		opts.Registry = vfs.DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	// Index shells exist for every scanner even when nothing is found.
	for _, s := range opts.Scanners {
		st.Register(scanners.IndexName(s))
	}

	r := &runner{opts: opts, st: st, total: len(opts.Roots)}
	start := time.Now()
	roots := make([]RootReport, len(opts.Roots))

	workers := opts.Workers
	if workers <= 1 || len(opts.Roots) <= 1 {
		workers = 1
		for i, root := range opts.Roots {
			roots[i] = r.scanRoot(ctx, root)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(workers)
		for i, root := range opts.Roots {
			g.Go(func() error {
				roots[i] = r.scanRoot(ctx, root)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := newReport(roots, st, workers, time.Since(start))
	opts.Logger.Info(report.String(),
		slog.Int("roots", report.Attempted),
		slog.Int("roots_failed", report.Failed),
		slog.Int("entries", report.Entries),
		slog.Int("scanner_failures", report.ScannerFailures()),
		slog.Duration("duration", report.Duration))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

type runner struct {
	opts  Options
	st    *store.Store
	total int

	mu   sync.Mutex
	done int
}

func (r *runner) progress(rr RootReport) {
	if r.opts.Progress == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
	r.opts.Progress(r.done, r.total, rr)
}

// scanRoot opens, enumerates and closes one root.
func (r *runner) scanRoot(ctx context.Context, root string) (rr RootReport) {
	log := r.opts.Logger
	rr.Root = root
	start := time.Now()
	defer func() {
		rr.Duration = time.Since(start)
		r.progress(rr)
	}()

	if err := ctx.Err(); err != nil {
		rr.Canceled = true
		return rr
	}

	c, err := r.opts.Registry.Open(root)
	if err != nil {
		log.Warn("could not open root, skipping",
			append([]any{slog.String("root", root)}, errors.LogAttrs(err)...)...)
		rr.Err = err
		return rr
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Debug("close root failed", slog.String("root", root), slog.String("error", err.Error()))
		}
	}()

	for entry, err := range c.Entries() {
		if ctx.Err() != nil {
			rr.Canceled = true
			break
		}
		if err != nil {
			rr.Failures = append(rr.Failures, Result{Root: root, Err: err})
			log.Debug("entry iteration failed", slog.String("root", root), slog.String("error", err.Error()))
			continue
		}
		rr.Entries++

		path := entry.RelativePath()
		if r.opts.Skip != nil && r.opts.Skip(path) {
			continue
		}
		dotted := vfs.DottedPath(path)
		if f := r.opts.Filter; f != nil && !f(path) && !f(dotted) {
			continue
		}
		rr.Accepted++
		rr.Failures = append(rr.Failures, r.scanEntry(root, entry, path, dotted)...)
	}
	return rr
}

// scanEntry runs every accepting scanner on entry, threading the unit.
// The entry is extracted at most once: after an extracting scanner comes
// back without a unit, the remaining extracting scanners are skipped and
// only scanners that need no unit still run.
func (r *runner) scanEntry(root string, entry vfs.Entry, path, dotted string) []Result {
	var failures []Result
	var unit *metadata.Unit
	extracted := false
	for _, s := range r.opts.Scanners {
		if !s.AcceptsInput(path) && !s.AcceptsInput(dotted) {
			continue
		}
		needsUnit := unit == nil && scanners.NeedsUnit(s)
		if needsUnit && extracted {
			continue
		}
		name := scanners.IndexName(s)
		u, err := r.safeScan(s, name, entry, unit)
		if needsUnit {
			extracted = true
		}
		if u != nil {
			unit = u
		}
		if err != nil {
			failures = append(failures, Result{Root: root, Path: path, Scanner: name, Err: err})
			r.opts.Logger.Debug("could not scan entry",
				append([]any{
					slog.String("root", root),
					slog.String("path", path),
					slog.String("scanner", name),
				}, errors.LogAttrs(err)...)...)
		}
	}
	return failures
}

func (r *runner) safeScan(s scanners.Scanner, name string, entry vfs.Entry, unit *metadata.Unit) (u *metadata.Unit, err error) {
	defer func() {
		if p := recover(); p != nil {
			u = nil
			err = errors.New(errors.ErrCodeScannerPanic, fmt.Sprintf("scanner %s panicked: %v", name, p), nil).
				WithDetail("path", entry.RelativePath()).
				WithDetail("stack", string(debug.Stack()))
		}
	}()

	u, err = s.Scan(entry, unit, r.st)
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeEntryOutOfOrder || errors.GetCode(err) == errors.ErrCodeIndexNotConfigured {
			return u, err
		}
		return u, errors.New(errors.ErrCodeScannerFailed, fmt.Sprintf("scanner %s failed on %s", name, entry.RelativePath()), err).
			WithDetail("scanner", name)
	}
	return u, nil
}
