package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// StyledRenderer prints colored progress lines and a summary panel.
type StyledRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	quiet  bool
	styles Styles
	errors int
	warns  int
}

// NewStyledRenderer creates a renderer for interactive terminals.
func NewStyledRenderer(cfg Config) *StyledRenderer {
	return &StyledRenderer{out: cfg.Output, quiet: cfg.Quiet, styles: GetStyles(cfg.NoColor)}
}

// Start implements Renderer.
func (r *StyledRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
func (r *StyledRenderer) UpdateProgress(event ProgressEvent) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stage := r.styles.Stage.Render(fmt.Sprintf("%-9s", event.Stage.String()))
	msg := event.Message
	if msg == "" {
		msg = event.Root
	}
	if event.Total > 0 {
		count := r.styles.Label.Render(fmt.Sprintf("%d/%d", event.Current, event.Total))
		_, _ = fmt.Fprintf(r.out, "%s %s %s\n", stage, count, msg)
		return
	}
	_, _ = fmt.Fprintf(r.out, "%s %s\n", stage, msg)
}

// AddError implements Renderer.
func (r *StyledRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	style := r.styles.Error
	if event.IsWarn {
		style = r.styles.Warning
		r.warns++
	} else {
		r.errors++
	}
	_, _ = fmt.Fprintf(r.out, "%s %s\n", style.Render(errorPrefix(event)), errorText(event))
}

// Complete implements Renderer.
func (r *StyledRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := [][2]string{
		{"Roots", fmt.Sprintf("%d scanned, %d failed", stats.Scanned, stats.Failed)},
		{"Entries", fmt.Sprint(stats.Entries)},
		{"Keys", fmt.Sprint(stats.Keys)},
		{"Values", fmt.Sprint(stats.Values)},
	}
	if stats.Expanded > 0 {
		rows = append(rows, [2]string{"Expanded", fmt.Sprint(stats.Expanded)})
	}
	if stats.Workers > 1 {
		rows = append(rows, [2]string{"Workers", fmt.Sprint(stats.Workers)})
	}
	rows = append(rows, [2]string{"Duration", stats.Duration.Round(time.Millisecond).String()})

	var sb strings.Builder
	sb.WriteString(r.styles.Header.Render("typemap"))
	for _, row := range rows {
		sb.WriteString("\n")
		sb.WriteString(r.styles.Label.Render(fmt.Sprintf("%-9s", row[0])))
		sb.WriteString(" ")
		sb.WriteString(r.styles.Value.Render(row[1]))
	}
	if stats.Errors > 0 || stats.Warnings > 0 {
		sb.WriteString("\n")
		sb.WriteString(r.styles.Warning.Render(fmt.Sprintf("%d errors, %d warnings", stats.Errors, stats.Warnings)))
	}
	_, _ = fmt.Fprintln(r.out, r.styles.Panel.Render(sb.String()))
}

// Stop implements Renderer.
func (r *StyledRenderer) Stop() error {
	return nil
}
