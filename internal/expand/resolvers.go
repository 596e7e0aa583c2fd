package expand

import (
	"context"
	stderrors "errors"
	"os"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/store"
)

// MapResolver answers from a fixed type -> supertypes table.
type MapResolver map[string][]string

// Supertypes implements Resolver.
func (m MapResolver) Supertypes(_ context.Context, typeName string) ([]string, error) {
	return m[typeName], nil
}

// LoadCatalog reads a YAML catalog of the form
//
//	com.acme.Base:
//	  - com.acme.Root
//	  - java.io.Serializable
func LoadCatalog(path string) (MapResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOError("read catalog "+path, err)
	}
	var m map[string][]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.ConfigError("parse catalog "+path, err).WithDetail("path", path)
	}
	if m == nil {
		m = map[string][]string{}
	}
	return MapResolver(m), nil
}

// LoadCatalogs merges several catalogs; later files add to earlier ones.
func LoadCatalogs(paths ...string) (MapResolver, error) {
	out := MapResolver{}
	for _, p := range paths {
		m, err := LoadCatalog(p)
		if err != nil {
			return nil, err
		}
		for k, v := range m {
			out[k] = appendUnique(out[k], v...)
		}
	}
	return out, nil
}

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		dup := false
		for _, d := range dst {
			if d == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}

// StoreResolver answers from the subtype index of another store, typically
// one produced by scanning library archives. The index is inverted on
// first use; the store must not change afterwards.
type StoreResolver struct {
	st    *store.Store
	index string

	once   sync.Once
	supers map[string][]string
	err    error
}

// NewStoreResolver creates a resolver over index of st.
func NewStoreResolver(st *store.Store, index string) *StoreResolver {
	return &StoreResolver{st: st, index: index}
}

// Supertypes implements Resolver.
func (r *StoreResolver) Supertypes(_ context.Context, typeName string) ([]string, error) {
	r.once.Do(r.invert)
	if r.err != nil {
		return nil, r.err
	}
	return r.supers[typeName], nil
}

func (r *StoreResolver) invert() {
	keys, err := r.st.Keys(r.index)
	if err != nil {
		r.err = err
		return
	}
	r.supers = make(map[string][]string)
	for _, super := range keys {
		subs, err := r.st.Get(r.index, super)
		if err != nil {
			r.err = err
			return
		}
		for _, sub := range subs {
			r.supers[sub] = append(r.supers[sub], super)
		}
	}
	for _, v := range r.supers {
		sort.Strings(v)
	}
}

// Chain asks each resolver in turn and returns the first non-empty answer.
// Errors are returned only when no resolver answered.
func Chain(resolvers ...Resolver) Resolver {
	return ResolverFunc(func(ctx context.Context, typeName string) ([]string, error) {
		var errs []error
		for _, r := range resolvers {
			supers, err := r.Supertypes(ctx, typeName)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if len(supers) > 0 {
				return supers, nil
			}
		}
		if len(errs) > 0 {
			return nil, resolverError(typeName, stderrors.Join(errs...))
		}
		return nil, nil
	})
}

// Cached memoizes a resolver's answers in an LRU. Errors are not cached.
type Cached struct {
	next  Resolver
	cache *lru.Cache[string, []string]
}

// NewCached wraps r with an LRU of size entries.
func NewCached(r Resolver, size int) (*Cached, error) {
	if size <= 0 {
		size = 1
	}
	c, err := lru.New[string, []string](size)
	if err != nil {
		return nil, errors.InternalError("create resolver cache", err)
	}
	return &Cached{next: r, cache: c}, nil
}

// Supertypes implements Resolver.
func (c *Cached) Supertypes(ctx context.Context, typeName string) ([]string, error) {
	if v, ok := c.cache.Get(typeName); ok {
		return v, nil
	}
	v, err := c.next.Supertypes(ctx, typeName)
	if err != nil {
		return nil, err
	}
	c.cache.Add(typeName, v)
	return v, nil
}

// Len returns the number of cached answers.
func (c *Cached) Len() int {
	return c.cache.Len()
}

// Lazy builds its resolver on first use, with the context of that call.
// A build failure is returned for every later call.
func Lazy(build func(ctx context.Context) (Resolver, error)) Resolver {
	var (
		once sync.Once
		r    Resolver
		err  error
	)
	return ResolverFunc(func(ctx context.Context, typeName string) ([]string, error) {
		once.Do(func() { r, err = build(ctx) })
		if err != nil {
			return nil, err
		}
		return r.Supertypes(ctx, typeName)
	})
}
