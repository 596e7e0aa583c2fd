package typemap

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/typemap/internal/config"
	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/expand"
	"github.com/Aman-CERP/typemap/internal/filter"
	"github.com/Aman-CERP/typemap/internal/logging"
	"github.com/Aman-CERP/typemap/internal/metadata"
	"github.com/Aman-CERP/typemap/internal/scan"
	"github.com/Aman-CERP/typemap/internal/scanners"
	"github.com/Aman-CERP/typemap/internal/vfs"
)

// FromConfig builds scan options from cfg. The returned options share one
// extractor between the configured scanners and the library resolver.
func FromConfig(cfg *config.Config, logger *slog.Logger) (Options, error) {
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}
	logger = logging.OrDiscard(logger)

	pred, err := BuildFilter(cfg.Filter)
	if err != nil {
		return Options{}, err
	}

	ex := metadata.Default()
	scs, err := scanners.FromConfig(cfg, ex)
	if err != nil {
		return Options{}, err
	}

	reg := BuildRegistry(cfg.Scan).WithLogger(logger)

	opts := Options{
		Roots:     cfg.Roots,
		Filter:    pred,
		Skip:      BuildSkip(cfg.Filter),
		Scanners:  scs,
		Extractor: ex,
		Registry:  reg,
		Workers:   cfg.Scan.Workers,
		Logger:    logger,
	}

	if cfg.Expand.Enabled {
		r, err := BuildResolver(cfg, opts)
		if err != nil {
			return Options{}, err
		}
		opts.Resolver = r
	}
	return opts, nil
}

// BuildFilter combines the regex chain and the package prefix list of fc
// into one predicate. It is tested against an entry's path and its
// dotted form.
func BuildFilter(fc config.FilterConfig) (filter.Predicate, error) {
	var preds []filter.Predicate

	if len(fc.Include) > 0 || len(fc.Exclude) > 0 {
		b := filter.New()
		for _, re := range fc.Include {
			b.Include(re)
		}
		for _, re := range fc.Exclude {
			b.Exclude(re)
		}
		if err := b.Err(); err != nil {
			return nil, err
		}
		preds = append(preds, b.Predicate())
	}

	if fc.Packages != "" {
		b, err := filter.ParsePackages(fc.Packages)
		if err != nil {
			return nil, err
		}
		preds = append(preds, b.Predicate())
	}

	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	}
	return filter.And(preds...), nil
}

// BuildSkip returns a predicate matching the path globs of fc, or nil.
func BuildSkip(fc config.FilterConfig) filter.Predicate {
	if len(fc.Paths) == 0 {
		return nil
	}
	return filter.Globs(fc.Paths...)
}

// BuildRegistry creates a registry with the built-in drivers tuned by sc.
// Drivers added with vfs.AddDefaultDriver come first, in their order in
// the default list.
func BuildRegistry(sc config.ScanConfig) *vfs.Registry {
	var drivers []vfs.Driver
	for _, d := range vfs.DefaultDrivers() {
		if !vfs.IsBuiltin(d) {
			drivers = append(drivers, d)
		}
	}
	drivers = append(drivers,
		vfs.NewNestedDriverWithOptions(vfs.NestedOptions{
			MemoryLimit: int64(sc.NestedMemoryLimitMB) << 20,
		}),
		vfs.NewZipDriver(),
		vfs.NewTarDriver(),
		vfs.NewDirDriver(vfs.DirOptions{
			RespectGitignore: sc.RespectGitignore,
			FollowSymlinks:   sc.FollowSymlinks,
		}),
	)
	return vfs.NewRegistry(drivers...)
}

// BuildResolver chains the catalogs with a lazily scanned library
// resolver, behind an LRU cache.
func BuildResolver(cfg *config.Config, opts Options) (expand.Resolver, error) {
	var chain []expand.Resolver

	if len(cfg.Expand.Catalogs) > 0 {
		catalog, err := expand.LoadCatalogs(cfg.Expand.Catalogs...)
		if err != nil {
			return nil, err
		}
		chain = append(chain, catalog)
	}

	if len(cfg.Expand.Libraries) > 0 {
		libOpts := scan.Options{
			Roots:    cfg.Expand.Libraries,
			Registry: opts.Registry,
			Workers:  opts.Workers,
			Logger:   logging.OrDiscard(opts.Logger).With(slog.String("phase", "libraries")),
		}
		chain = append(chain, expand.Lazy(func(ctx context.Context) (expand.Resolver, error) {
			r, _, err := expand.LibraryResolver(ctx, libOpts, opts.Extractor)
			if err != nil {
				return nil, err
			}
			return r, nil
		}))
	}

	if len(chain) == 0 {
		return nil, errors.ConfigError("expansion enabled without catalogs or libraries", nil).
			WithSuggestion("add expand.catalogs or expand.libraries, or set expand.enabled: false")
	}

	cached, err := expand.NewCached(expand.Chain(chain...), cfg.Expand.CacheSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}
