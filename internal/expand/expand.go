// Package expand grows the subtype index with ancestors that were never
// scanned.
//
// A scan only links types that were both scanned: if a.B extends a.A and
// a.A lives in a library outside the scanned roots, closure queries from
// a.A find nothing. Expand asks a Resolver for the supertypes of every
// root of the scanned forest and inserts ancestor -> type edges until
// nothing new is learned.
package expand

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/metadata"
	"github.com/Aman-CERP/typemap/internal/store"
)

// Resolver reports the direct supertypes of a type. Unknown types yield an
// empty list, not an error.
type Resolver interface {
	Supertypes(ctx context.Context, typeName string) ([]string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, typeName string) ([]string, error)

// Supertypes implements Resolver.
func (f ResolverFunc) Supertypes(ctx context.Context, typeName string) ([]string, error) {
	return f(ctx, typeName)
}

// Result summarizes an expansion pass.
type Result struct {
	Roots    int // keys that never appear as values
	Resolved int // types passed to the resolver
	Added    int // new edges
	Failed   int // resolver errors
	Duration time.Duration
}

// Expand inserts supertype edges into index for every root of the
// scanned forest, continuing from each ancestor only when its edge was
// new. java.lang.Object is never added. Resolver errors are logged and
// the type is skipped.
func Expand(ctx context.Context, st *store.Store, index string, r Resolver, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	var res Result

	keys, err := st.Keys(index)
	if err != nil {
		return res, err
	}
	values, err := st.Values(index)
	if err != nil {
		return res, err
	}
	isValue := make(map[string]struct{}, len(values))
	for _, v := range values {
		isValue[v] = struct{}{}
	}

	var work []string
	for _, k := range keys {
		if _, ok := isValue[k]; !ok {
			work = append(work, k)
		}
	}
	res.Roots = len(work)

	for len(work) > 0 {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			return res, err
		}
		typ := work[len(work)-1]
		work = work[:len(work)-1]

		res.Resolved++
		supers, err := r.Supertypes(ctx, typ)
		if err != nil {
			res.Failed++
			logger.Debug("could not resolve supertypes",
				slog.String("type", typ),
				slog.String("error", err.Error()))
			continue
		}

		for _, super := range supers {
			if super == "" || super == metadata.ObjectType {
				continue
			}
			changed, err := st.Put(index, super, typ)
			if err != nil {
				return res, err
			}
			if !changed {
				continue
			}
			res.Added++
			logger.Debug("expanded subtype", slog.String("supertype", super), slog.String("type", typ))
			work = append(work, super)
		}
	}

	res.Duration = time.Since(start)
	logger.Info("expanded supertypes",
		slog.Int("roots", res.Roots),
		slog.Int("resolved", res.Resolved),
		slog.Int("added", res.Added),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", res.Duration))
	return res, nil
}

// resolverError wraps a resolver failure with the type name.
func resolverError(typeName string, cause error) error {
	return errors.New(errors.ErrCodeResolverFailed, "could not resolve supertypes of "+typeName, cause).
		WithDetail("type", typeName)
}
