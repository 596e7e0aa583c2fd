package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/typemap/internal/errors"
)

func TestStore_PutIsIdempotent(t *testing.T) {
	// Given: a store with one index
	s := New("SubTypesScanner")

	// When: putting the same pair twice
	first, err := s.Put("SubTypesScanner", "a.Base", "a.Child")
	require.NoError(t, err)
	second, err := s.Put("SubTypesScanner", "a.Base", "a.Child")
	require.NoError(t, err)

	// Then: only the first put reports a change
	assert.True(t, first)
	assert.False(t, second)

	// And: the value is stored once
	got, err := s.Get("SubTypesScanner", "a.Base")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.Child"}, got)
}

func TestStore_UnconfiguredIndexFails(t *testing.T) {
	s := New("SubTypesScanner")

	calls := map[string]func() error{
		"Get":             func() error { _, err := s.Get("NoSuchIndex", "k"); return err },
		"GetAll":          func() error { _, err := s.GetAll("NoSuchIndex", "k"); return err },
		"GetAllIncluding": func() error { _, err := s.GetAllIncluding("NoSuchIndex", "k"); return err },
		"Keys":            func() error { _, err := s.Keys("NoSuchIndex"); return err },
		"Values":          func() error { _, err := s.Values("NoSuchIndex"); return err },
		"Put":             func() error { _, err := s.Put("NoSuchIndex", "k", "v"); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrIndexNotConfigured)
			assert.True(t, errors.IsFatal(err))
		})
	}
}

func TestStore_EmptyIndexIsNotAnError(t *testing.T) {
	s := New("TypeTagsScanner")

	got, err := s.Get("TypeTagsScanner", "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, s.Has("TypeTagsScanner"))
	assert.False(t, s.Has("Other"))
}

func TestStore_GetUnion(t *testing.T) {
	s := New("I")
	mustPut(t, s, "I", "a", "x", "y")
	mustPut(t, s, "I", "b", "y", "z")

	got, err := s.Get("I", "a", "b", "missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, got)
}

func TestStore_GetAllIncluding_Acyclic(t *testing.T) {
	// Given: A -> B -> C, A -> D, E unrelated
	s := New("I")
	mustPut(t, s, "I", "A", "B", "D")
	mustPut(t, s, "I", "B", "C")
	mustPut(t, s, "I", "E", "F")

	// When: closing from A
	got, err := s.GetAllIncluding("I", "A")
	require.NoError(t, err)

	// Then: every reachable node plus A itself
	assert.Equal(t, []string{"A", "B", "C", "D"}, got)
}

func TestStore_GetAllIncluding_Cycle(t *testing.T) {
	s := New("I")
	mustPut(t, s, "I", "A", "B")
	mustPut(t, s, "I", "B", "A")

	got, err := s.GetAllIncluding("I", "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got)
}

func TestStore_GetAllIncluding_MissingKey(t *testing.T) {
	s := New("I")

	got, err := s.GetAllIncluding("I", "Lonely")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lonely"}, got)
}

func TestStore_GetAll_ExcludesSeedUnlessCyclic(t *testing.T) {
	s := New("I")
	mustPut(t, s, "I", "A", "B")
	mustPut(t, s, "I", "B", "C")

	got, err := s.GetAll("I", "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, got)

	mustPut(t, s, "I", "C", "A")
	got, err = s.GetAll("I", "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, got)
}

func TestStore_KeysValuesStats(t *testing.T) {
	s := New("I", "J")
	mustPut(t, s, "I", "k1", "v1", "v2")
	mustPut(t, s, "I", "k2", "v2")

	keys, err := s.Keys("I")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2"}, keys)

	values, err := s.Values("I")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, values)

	assert.Equal(t, []string{"I", "J"}, s.Indexes())
	assert.Equal(t, []IndexStats{{Name: "I", Keys: 2, Values: 3}, {Name: "J"}}, s.Stats())

	k, v := s.Totals()
	assert.Equal(t, 2, k)
	assert.Equal(t, 3, v)
}

func TestStore_Merge(t *testing.T) {
	// Given: two independently populated stores
	a := New("I")
	mustPut(t, a, "I", "k", "v1")
	b := New("I", "J")
	mustPut(t, b, "I", "k", "v1", "v2")
	mustPut(t, b, "J", "x", "y")

	// When: merging b into a
	a.Merge(b)

	// Then: a holds the union and gained index J
	got, err := a.Get("I", "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, got)
	got, err = a.Get("J", "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, got)

	// And: merging into itself is a no-op
	a.Merge(a)
	k, v := a.Totals()
	assert.Equal(t, 2, k)
	assert.Equal(t, 3, v)
}

func TestStore_MergeBothWaysConcurrently(t *testing.T) {
	// Given: two stores with many keys spread over few shards
	a := NewWithShards(2, "I")
	b := NewWithShards(2, "I")
	for i := range 200 {
		mustPut(t, a, "I", fmt.Sprintf("a%d", i), "va")
		mustPut(t, b, "I", fmt.Sprintf("b%d", i), "vb")
	}

	// When: each is merged into the other at the same time, repeatedly
	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(2)
			go func() { defer wg.Done(); a.Merge(b) }()
			go func() { defer wg.Done(); b.Merge(a) }()
		}
		wg.Wait()
	}()

	// Then: the merges finish and both stores hold the union
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("concurrent merges did not finish")
	}
	ka, va := a.Totals()
	kb, vb := b.Totals()
	assert.Equal(t, 400, ka)
	assert.Equal(t, 400, va)
	assert.Equal(t, ka, kb)
	assert.Equal(t, va, vb)
}

func TestStore_ConcurrentPut(t *testing.T) {
	// Given: many writers racing on overlapping keys
	s := NewWithShards(4, "I")
	const writers, perWriter = 8, 200

	var changed sync.Map
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				key, value := fmt.Sprintf("k%d", i%17), fmt.Sprintf("v%d", i)
				ok, err := s.Put("I", key, value)
				if err == nil && ok {
					_, dup := changed.LoadOrStore(key+"="+value, true)
					assert.False(t, dup, "two writers both reported a change for %s=%s", key, value)
				}
			}
		}()
	}
	wg.Wait()

	// Then: every distinct pair is present exactly once
	_, v := s.Totals()
	assert.Equal(t, perWriter, v)
}

func mustPut(t *testing.T, s *Store, index, key string, values ...string) {
	t.Helper()
	for _, v := range values {
		_, err := s.Put(index, key, v)
		require.NoError(t, err)
	}
}
