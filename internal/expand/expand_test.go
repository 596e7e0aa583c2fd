package expand

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/logging"
	"github.com/Aman-CERP/typemap/internal/scan"
	"github.com/Aman-CERP/typemap/internal/store"
)

const sub = "SubTypesScanner"

func TestExpand_FixedPoint(t *testing.T) {
	// Given: scanned edge B -> C, and a resolver that knows A is B's supertype
	st := store.New(sub)
	_, err := st.Put(sub, "B", "C")
	require.NoError(t, err)
	r := MapResolver{"B": {"A"}}

	// When: expanding
	res, err := Expand(context.Background(), st, sub, r, logging.Discard())
	require.NoError(t, err)

	// Then: A reaches both B and C
	all, err := st.GetAllIncluding(sub, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, all)
	assert.Equal(t, 1, res.Roots)
	assert.Equal(t, 1, res.Added)
}

func TestExpand_DisabledLeavesAncestorAbsent(t *testing.T) {
	st := store.New(sub)
	_, err := st.Put(sub, "B", "C")
	require.NoError(t, err)

	keys, err := st.Keys(sub)
	require.NoError(t, err)
	assert.NotContains(t, keys, "A")
	values, err := st.Values(sub)
	require.NoError(t, err)
	assert.NotContains(t, values, "A")
}

func TestExpand_Transitive(t *testing.T) {
	st := store.New(sub)
	_, err := st.Put(sub, "B", "C")
	require.NoError(t, err)
	r := MapResolver{
		"B": {"A", "I"},
		"A": {"Root", "java.lang.Object"},
		"I": {"Root"},
	}

	res, err := Expand(context.Background(), st, sub, r, logging.Discard())
	require.NoError(t, err)

	all, err := st.GetAll(sub, "Root")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "I"}, all)

	objects, err := st.Get(sub, "java.lang.Object")
	require.NoError(t, err)
	assert.Empty(t, objects)
	assert.Equal(t, 4, res.Added) // A->B, I->B, Root->A, Root->I
}

func TestExpand_CyclicResolverTerminates(t *testing.T) {
	st := store.New(sub)
	_, err := st.Put(sub, "B", "C")
	require.NoError(t, err)
	r := MapResolver{"B": {"A"}, "A": {"B"}}

	_, err = Expand(context.Background(), st, sub, r, logging.Discard())
	require.NoError(t, err)

	all, err := st.GetAllIncluding(sub, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, all)
}

func TestExpand_ResolverErrorsAreSkipped(t *testing.T) {
	st := store.New(sub)
	_, err := st.Put(sub, "B", "C")
	require.NoError(t, err)
	_, err = st.Put(sub, "X", "Y")
	require.NoError(t, err)

	r := ResolverFunc(func(_ context.Context, name string) ([]string, error) {
		if name == "B" {
			return nil, fmt.Errorf("boom")
		}
		return []string{"Z"}, nil
	})

	res, err := Expand(context.Background(), st, sub, r, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	got, err := st.Get(sub, "Z")
	require.NoError(t, err)
	assert.Contains(t, got, "X")
	assert.NotContains(t, got, "B")
}

func TestExpand_UnconfiguredIndex(t *testing.T) {
	_, err := Expand(context.Background(), store.New(), sub, MapResolver{}, logging.Discard())
	assert.ErrorIs(t, err, errors.ErrIndexNotConfigured)
}

func TestExpand_Canceled(t *testing.T) {
	st := store.New(sub)
	_, err := st.Put(sub, "B", "C")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Expand(ctx, st, sub, MapResolver{"B": {"A"}}, logging.Discard())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadCatalogs(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(a, []byte("com.acme.Base:\n  - com.acme.Root\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("com.acme.Base:\n  - com.acme.Root\n  - java.io.Serializable\n"), 0o644))

	m, err := LoadCatalogs(a, b)
	require.NoError(t, err)
	got, err := m.Supertypes(context.Background(), "com.acme.Base")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.acme.Root", "java.io.Serializable"}, got)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- not: [a map"), 0o644))
	_, err = LoadCatalog(bad)
	assert.Error(t, err)

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestStoreResolver(t *testing.T) {
	lib := store.New(sub)
	for _, e := range [][2]string{{"A", "B"}, {"I", "B"}, {"B", "C"}} {
		_, err := lib.Put(sub, e[0], e[1])
		require.NoError(t, err)
	}
	r := NewStoreResolver(lib, sub)

	got, err := r.Supertypes(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "I"}, got)

	got, err = r.Supertypes(context.Background(), "Unknown")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = NewStoreResolver(lib, "Nope").Supertypes(context.Background(), "B")
	assert.ErrorIs(t, err, errors.ErrIndexNotConfigured)
}

func TestChain(t *testing.T) {
	failing := ResolverFunc(func(context.Context, string) ([]string, error) { return nil, fmt.Errorf("down") })
	r := Chain(failing, MapResolver{"B": {"A"}}, MapResolver{"B": {"Other"}})

	got, err := r.Supertypes(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got)

	_, err = r.Supertypes(context.Background(), "Unknown")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeResolverFailed, errors.GetCode(err))

	got, err = Chain(MapResolver{}).Supertypes(context.Background(), "Unknown")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCached(t *testing.T) {
	calls := 0
	r := ResolverFunc(func(_ context.Context, name string) ([]string, error) {
		calls++
		if name == "bad" {
			return nil, fmt.Errorf("nope")
		}
		return []string{"S"}, nil
	})
	c, err := NewCached(r, 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := c.Supertypes(context.Background(), "T")
		require.NoError(t, err)
		assert.Equal(t, []string{"S"}, got)
	}
	assert.Equal(t, 1, calls)

	_, err = c.Supertypes(context.Background(), "bad")
	assert.Error(t, err)
	_, err = c.Supertypes(context.Background(), "bad")
	assert.Error(t, err)
	assert.Equal(t, 3, calls, "errors are not cached")
	assert.Equal(t, 1, c.Len())
}

func TestLibraryResolver(t *testing.T) {
	// Given: a library tree where lib.Base extends lib.Root
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "Base.java"),
		[]byte("package lib; public abstract class Base extends Root {}"), 0o644))

	// When: building a resolver from it
	r, report, err := LibraryResolver(context.Background(), scan.Options{
		Roots:  []string{dir},
		Logger: logging.Discard(),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)

	// Then: it answers for library types
	got, err := r.Supertypes(context.Background(), "lib.Base")
	require.NoError(t, err)
	assert.Equal(t, []string{"lib.Root"}, got)
}

func TestLazy(t *testing.T) {
	builds := 0
	r := Lazy(func(context.Context) (Resolver, error) {
		builds++
		return MapResolver{"B": {"A"}}, nil
	})
	assert.Zero(t, builds)

	for i := 0; i < 2; i++ {
		got, err := r.Supertypes(context.Background(), "B")
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, got)
	}
	assert.Equal(t, 1, builds)

	failing := Lazy(func(context.Context) (Resolver, error) { return nil, fmt.Errorf("no libs") })
	_, err := failing.Supertypes(context.Background(), "B")
	assert.Error(t, err)
}
