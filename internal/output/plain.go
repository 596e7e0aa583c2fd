package output

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer writes one line per event (for CI and pipes).
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	quiet  bool
	errors []ErrorEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output, quiet: cfg.Quiet}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	msg := event.Message
	if msg == "" {
		msg = event.Root
	}
	if event.Total > 0 {
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d - %s\n", event.Stage.Icon(), event.Current, event.Total, msg)
	} else if msg != "" {
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), msg)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)
	_, _ = fmt.Fprintf(r.out, "%s: %s\n", errorPrefix(event), errorText(event))
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d/%d roots, %d entries, %d keys, %d values in %s",
		stats.Scanned, stats.Roots, stats.Entries, stats.Keys, stats.Values, stats.Duration.Round(time.Millisecond))
	if stats.Expanded > 0 {
		_, _ = fmt.Fprintf(r.out, ", %d edges expanded", stats.Expanded)
	}
	if stats.Errors > 0 || stats.Warnings > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d errors, %d warnings)", stats.Errors, stats.Warnings)
	}
	_, _ = fmt.Fprintln(r.out)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

func errorPrefix(e ErrorEvent) string {
	if e.IsWarn {
		return "WARN"
	}
	return "ERROR"
}

func errorText(e ErrorEvent) string {
	switch {
	case e.Root != "" && e.Path != "":
		return fmt.Sprintf("%s!%s: %v", e.Root, e.Path, e.Err)
	case e.Root != "":
		return fmt.Sprintf("%s: %v", e.Root, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	default:
		return fmt.Sprint(e.Err)
	}
}
