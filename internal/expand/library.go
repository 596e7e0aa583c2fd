package expand

import (
	"context"

	"github.com/Aman-CERP/typemap/internal/metadata"
	"github.com/Aman-CERP/typemap/internal/scan"
	"github.com/Aman-CERP/typemap/internal/scanners"
	"github.com/Aman-CERP/typemap/internal/store"
)

// LibraryResolver scans library roots with a subtype scanner that keeps
// java.lang.Object and answers from the result. opts.Scanners is
// replaced; the other options are used as given.
func LibraryResolver(ctx context.Context, opts scan.Options, ex metadata.Extractor) (*StoreResolver, *scan.Report, error) {
	sub := scanners.NewSubTypesScanner(ex, false)
	opts.Scanners = []scanners.Scanner{sub}
	st := store.New(scanners.IndexName(sub))

	report, err := scan.Run(ctx, opts, st)
	if err != nil {
		return nil, report, err
	}
	return NewStoreResolver(st, scanners.IndexName(sub)), report, nil
}
