package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/scan"
)

// MaxListedFailures caps the failures printed by ReportRenderer.
const MaxListedFailures = 20

// ReportRenderer prints a scan report.
type ReportRenderer struct {
	out    io.Writer
	styles Styles
}

// NewReportRenderer creates a report renderer.
func NewReportRenderer(out io.Writer, noColor bool) *ReportRenderer {
	return &ReportRenderer{out: out, styles: GetStyles(noColor)}
}

// Render prints per-index counts and the first failures.
func (r *ReportRenderer) Render(rep *scan.Report) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render(rep.String()))

	_, _ = fmt.Fprintln(r.out, "  Indexes:")
	width := 0
	for _, ix := range rep.Indexes {
		width = max(width, len(ix.Name))
	}
	for _, ix := range rep.Indexes {
		_, _ = fmt.Fprintf(r.out, "    %s  %s keys, %s values\n",
			r.styles.Label.Render(fmt.Sprintf("%-*s", width, ix.Name)),
			r.styles.Value.Render(fmt.Sprint(ix.Keys)),
			r.styles.Value.Render(fmt.Sprint(ix.Values)))
	}
	_, _ = fmt.Fprintln(r.out)

	_, _ = fmt.Fprintf(r.out, "  Roots:    %d attempted, %d scanned, %d failed\n", rep.Attempted, rep.Scanned, rep.Failed)
	_, _ = fmt.Fprintf(r.out, "  Entries:  %d seen, %d accepted\n", rep.Entries, rep.Accepted)

	if len(rep.Failures) == 0 {
		return nil
	}
	_, _ = fmt.Fprintf(r.out, "  Failures: %s\n", r.styles.Warning.Render(fmt.Sprint(len(rep.Failures))))
	for i, f := range rep.Failures {
		if i == MaxListedFailures {
			_, _ = fmt.Fprintf(r.out, "    ... and %d more\n", len(rep.Failures)-i)
			break
		}
		_, _ = fmt.Fprintf(r.out, "    %s\n", r.styles.Dim.Render(f.String()))
	}
	return nil
}

type jsonFailure struct {
	Root    string `json:"root"`
	Path    string `json:"path,omitempty"`
	Scanner string `json:"scanner,omitempty"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error"`
}

type jsonIndex struct {
	Name   string `json:"name"`
	Keys   int    `json:"keys"`
	Values int    `json:"values"`
}

type jsonReport struct {
	Summary    string        `json:"summary"`
	Attempted  int           `json:"roots_attempted"`
	Scanned    int           `json:"roots_scanned"`
	Failed     int           `json:"roots_failed"`
	Entries    int           `json:"entries"`
	Accepted   int           `json:"entries_accepted"`
	Keys       int           `json:"keys"`
	Values     int           `json:"values"`
	Workers    int           `json:"workers"`
	DurationMS int64         `json:"duration_ms"`
	Indexes    []jsonIndex   `json:"indexes"`
	Failures   []jsonFailure `json:"failures,omitempty"`
}

// RenderJSON prints the report as JSON.
func (r *ReportRenderer) RenderJSON(rep *scan.Report) error {
	out := jsonReport{
		Summary:    rep.String(),
		Attempted:  rep.Attempted,
		Scanned:    rep.Scanned,
		Failed:     rep.Failed,
		Entries:    rep.Entries,
		Accepted:   rep.Accepted,
		Keys:       rep.Keys,
		Values:     rep.Values,
		Workers:    rep.Workers,
		DurationMS: rep.Duration.Milliseconds(),
		Indexes:    make([]jsonIndex, 0, len(rep.Indexes)),
	}
	for _, ix := range rep.Indexes {
		out.Indexes = append(out.Indexes, jsonIndex{Name: ix.Name, Keys: ix.Keys, Values: ix.Values})
	}
	for _, f := range rep.Failures {
		out.Failures = append(out.Failures, jsonFailure{
			Root:    f.Root,
			Path:    f.Path,
			Scanner: f.Scanner,
			Code:    errors.GetCode(f.Err),
			Error:   f.Err.Error(),
		})
	}
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// Stats converts a report to renderer completion stats.
func Stats(rep *scan.Report, expanded int, extra time.Duration) CompletionStats {
	stats := CompletionStats{
		Roots:    rep.Attempted,
		Scanned:  rep.Scanned,
		Failed:   rep.Failed,
		Entries:  rep.Entries,
		Keys:     rep.Keys,
		Values:   rep.Values,
		Expanded: expanded,
		Workers:  rep.Workers,
		Duration: rep.Duration + extra,
	}
	for _, f := range rep.Failures {
		if errors.IsFatal(f.Err) || f.Path == "" {
			stats.Errors++
		} else {
			stats.Warnings++
		}
	}
	return stats
}
