package scan

import (
	"fmt"
	"time"

	"github.com/Aman-CERP/typemap/internal/store"
)

// Result records one failure. Scanner is empty for failures that are not
// tied to a scanner (unreadable entries, unopenable roots).
type Result struct {
	Root    string
	Path    string
	Scanner string
	Err     error
}

func (r Result) String() string {
	switch {
	case r.Scanner != "":
		return fmt.Sprintf("%s: %s [%s]: %v", r.Root, r.Path, r.Scanner, r.Err)
	case r.Path != "":
		return fmt.Sprintf("%s: %s: %v", r.Root, r.Path, r.Err)
	default:
		return fmt.Sprintf("%s: %v", r.Root, r.Err)
	}
}

// RootReport summarizes one root.
type RootReport struct {
	Root     string
	Err      error // open failure; nil when the root was scanned
	Entries  int   // entries enumerated
	Accepted int   // entries that passed the filter
	Failures []Result
	Canceled bool
	Duration time.Duration
}

// Report aggregates a scan. It is for observability only.
type Report struct {
	Roots     []RootReport
	Attempted int
	Scanned   int
	Failed    int
	Entries   int
	Accepted  int
	Failures  []Result
	Indexes   []store.IndexStats
	Keys      int
	Values    int
	Workers   int
	Duration  time.Duration
}

func newReport(roots []RootReport, st *store.Store, workers int, d time.Duration) *Report {
	r := &Report{Roots: roots, Attempted: len(roots), Workers: workers, Duration: d}
	for _, rr := range roots {
		if rr.Err != nil {
			r.Failed++
			r.Failures = append(r.Failures, Result{Root: rr.Root, Err: rr.Err})
			continue
		}
		if !rr.Canceled {
			r.Scanned++
		}
		r.Entries += rr.Entries
		r.Accepted += rr.Accepted
		r.Failures = append(r.Failures, rr.Failures...)
	}
	r.Indexes = st.Stats()
	for _, ix := range r.Indexes {
		r.Keys += ix.Keys
		r.Values += ix.Values
	}
	return r
}

// ScannerFailures counts failures attributed to a scanner.
func (r *Report) ScannerFailures() int {
	n := 0
	for _, f := range r.Failures {
		if f.Scanner != "" {
			n++
		}
	}
	return n
}

// String renders the one-line summary logged after every scan.
func (r *Report) String() string {
	s := fmt.Sprintf("took %d ms to scan %d roots, producing %d keys and %d values",
		r.Duration.Milliseconds(), r.Scanned, r.Keys, r.Values)
	if r.Workers > 1 {
		s += fmt.Sprintf(" [using %d workers]", r.Workers)
	}
	return s
}
