package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/typemap/internal/config"
	"github.com/Aman-CERP/typemap/internal/filter"
	"github.com/Aman-CERP/typemap/internal/output"
	"github.com/Aman-CERP/typemap/internal/scan"
	"github.com/Aman-CERP/typemap/internal/vfs"
	"github.com/Aman-CERP/typemap/pkg/typemap"
)

// loadConfig returns the effective configuration and the directory that
// relative roots are resolved against.
func loadConfig() (*config.Config, string, error) {
	if configFile != "" {
		abs, err := filepath.Abs(configFile)
		if err != nil {
			return nil, "", err
		}
		cfg, err := config.LoadFile(abs)
		return cfg, filepath.Dir(abs), err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		root = cwd
	}
	cfg, err := config.Load(root)
	return cfg, root, err
}

// resolveRoots picks roots from args, then cfg, then the build layout of
// projectDir. Relative local paths are made absolute and glob patterns
// are expanded; a pattern that matches nothing contributes no root.
func resolveRoots(args []string, cfg *config.Config, projectDir string) ([]string, error) {
	roots := args
	base, _ := os.Getwd()
	if len(roots) == 0 && len(cfg.Roots) > 0 {
		roots = cfg.Roots
		base = projectDir
	}
	if len(roots) == 0 {
		return config.DiscoverRoots(projectDir), nil
	}

	out := make([]string, 0, len(roots))
	for _, r := range roots {
		loc := vfs.NormalizeLocator(r)
		if strings.Contains(loc, "://") {
			out = append(out, loc)
			continue
		}
		if !filepath.IsAbs(loc) {
			loc = filepath.Join(base, loc)
		}
		if !strings.ContainsAny(loc, "*?[") {
			out = append(out, loc)
			continue
		}
		matches, err := vfs.ForPaths(loc)
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	return out, nil
}

// narrowToPackage keeps the roots that can hold pkg and a filter that
// only accepts entries inside it.
func narrowToPackage(pkg string, roots []string) ([]string, filter.Predicate, error) {
	b, err := filter.ParsePackages("+" + pkg)
	if err != nil {
		return nil, nil, err
	}
	var kept []string
	for _, r := range roots {
		if len(vfs.ForPackage(pkg, r)) > 0 {
			kept = append(kept, r)
		}
	}
	return kept, b.Predicate(), nil
}

// scanOptions controls buildMap.
type scanOptions struct {
	// roots given on the command line; nil uses --root and the config.
	roots []string
	// summary prints the completion line after scanning.
	summary bool
}

// buildMap loads configuration, scans with progress on stderr and
// returns the map. Recovered failures are shown, not returned.
func buildMap(cmd *cobra.Command, so scanOptions) (*typemap.Map, error) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, projectDir, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if workers > 0 {
		cfg.Scan.Workers = workers
	}

	args := so.roots
	if len(args) == 0 {
		args = rootFlags
	}
	if cfg.Roots, err = resolveRoots(args, cfg, projectDir); err != nil {
		return nil, err
	}
	var inPackage filter.Predicate
	if packageName != "" {
		if cfg.Roots, inPackage, err = narrowToPackage(packageName, cfg.Roots); err != nil {
			return nil, err
		}
	}

	opts, err := typemap.FromConfig(cfg, cliLogger(cmd, cfg.Logging))
	if err != nil {
		return nil, err
	}
	if inPackage != nil {
		opts.Filter = filter.And(opts.Filter, inPackage)
	}

	renderer := output.NewRenderer(output.NewConfig(cmd.ErrOrStderr(),
		output.WithForcePlain(plainOutput),
		output.WithNoColor(noColor),
		output.WithQuiet(!so.summary || jsonOutput)))
	if err := renderer.Start(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = renderer.Stop() }()

	opts.Progress = func(done, total int, rr scan.RootReport) {
		renderer.UpdateProgress(output.ProgressEvent{
			Stage:   output.StageScanning,
			Current: done,
			Total:   total,
			Root:    rr.Root,
		})
	}

	m, err := typemap.Scan(ctx, opts)
	if m != nil && m.Report() != nil {
		for _, f := range m.Report().Failures {
			renderer.AddError(output.ErrorEvent{Root: f.Root, Path: f.Path, Err: f.Err, IsWarn: f.Path != ""})
		}
	}
	if err != nil {
		return nil, err
	}

	if so.summary && !jsonOutput {
		expanded := 0
		if exp := m.Expansion(); exp != nil {
			expanded = exp.Added
			renderer.UpdateProgress(output.ProgressEvent{
				Stage:   output.StageExpanding,
				Current: exp.Resolved,
				Total:   exp.Roots,
				Message: "supertypes resolved",
			})
		}
		extra := m.Duration() - m.Report().Duration
		renderer.Complete(output.Stats(m.Report(), expanded, extra))
	}
	return m, nil
}

// printList writes values as lines or, with --json, a JSON array.
func printList(cmd *cobra.Command, values []string) error {
	if jsonOutput {
		return output.RenderListJSON(cmd.OutOrStdout(), values)
	}
	return output.RenderList(cmd.OutOrStdout(), values)
}
