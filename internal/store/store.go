// Package store holds the multi-index map populated by scanners.
//
// A Store is a set of named indexes, each a multimap from key to a set of
// values. Indexes are created up front from the configured scanners;
// querying a name that was never registered is an error, never an empty
// result. Writes are safe from any number of goroutines. Reads done after
// the scan has finished need no further synchronization.
package store

import (
	"slices"
	"sort"
	"sync"

	"github.com/Aman-CERP/typemap/internal/errors"
)

// DefaultShards is the number of lock shards per index.
const DefaultShards = 16

// Writer is the write side handed to scanners.
type Writer interface {
	// Put adds value to the set of key in index and reports whether the
	// set changed.
	Put(index, key, value string) (bool, error)
}

// Reader is the query side used by the expansion pass and the façade.
type Reader interface {
	Has(index string) bool
	Get(index string, keys ...string) ([]string, error)
	GetAllIncluding(index string, keys ...string) ([]string, error)
	GetAll(index string, keys ...string) ([]string, error)
	Keys(index string) ([]string, error)
	Values(index string) ([]string, error)
}

// Store is a concurrent collection of named multimaps.
type Store struct {
	mu      sync.RWMutex
	indexes map[string]*index
	shards  int
}

// New creates a store with the given indexes registered.
func New(indexNames ...string) *Store {
	return NewWithShards(DefaultShards, indexNames...)
}

// NewWithShards creates a store whose indexes use n lock shards.
func NewWithShards(n int, indexNames ...string) *Store {
	if n < 1 {
		n = 1
	}
	s := &Store{indexes: make(map[string]*index, len(indexNames)), shards: n}
	for _, name := range indexNames {
		s.Register(name)
	}
	return s
}

// Register adds an empty index. Registering an existing name is a no-op.
func (s *Store) Register(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; !ok {
		s.indexes[name] = newIndex(s.shards)
	}
}

// Has reports whether name is registered.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok
}

// Indexes returns the registered index names, sorted.
func (s *Store) Indexes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.indexes))
	for name := range s.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) index(name string) (*index, error) {
	s.mu.RLock()
	idx, ok := s.indexes[name]
	s.mu.RUnlock()
	if !ok {
		return nil, notConfigured(name)
	}
	return idx, nil
}

func notConfigured(name string) error {
	return errors.New(errors.ErrCodeIndexNotConfigured, "index "+name+" is not configured", errors.ErrIndexNotConfigured).
		WithDetail("index", name).
		WithSuggestion("add the scanner that produces this index to the configuration")
}

// Put adds value to key's set in index. It reports true only when the
// value was not already present.
func (s *Store) Put(index, key, value string) (bool, error) {
	idx, err := s.index(index)
	if err != nil {
		return false, err
	}
	return idx.put(key, value), nil
}

// Get returns the union of the values of keys.
func (s *Store) Get(index string, keys ...string) ([]string, error) {
	idx, err := s.index(index)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, k := range keys {
		idx.collect(k, set)
	}
	return sortedSet(set), nil
}

// GetAllIncluding returns every key and value reachable from keys,
// including keys themselves. Cycles terminate; missing keys contribute
// only themselves.
func (s *Store) GetAllIncluding(index string, keys ...string) ([]string, error) {
	idx, err := s.index(index)
	if err != nil {
		return nil, err
	}
	return sortedSet(idx.closure(keys)), nil
}

// GetAll returns everything reachable from the values of keys. A key is
// part of the result only when a cycle leads back to it.
func (s *Store) GetAll(index string, keys ...string) ([]string, error) {
	idx, err := s.index(index)
	if err != nil {
		return nil, err
	}
	direct := make(map[string]struct{})
	for _, k := range keys {
		idx.collect(k, direct)
	}
	seeds := make([]string, 0, len(direct))
	for v := range direct {
		seeds = append(seeds, v)
	}
	return sortedSet(idx.closure(seeds)), nil
}

// Keys returns the keys of index, sorted.
func (s *Store) Keys(index string) ([]string, error) {
	idx, err := s.index(index)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	idx.each(func(key string, _ map[string]struct{}) {
		set[key] = struct{}{}
	})
	return sortedSet(set), nil
}

// Values returns the distinct values of index, sorted.
func (s *Store) Values(index string) ([]string, error) {
	idx, err := s.index(index)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	idx.each(func(_ string, values map[string]struct{}) {
		for v := range values {
			set[v] = struct{}{}
		}
	})
	return sortedSet(set), nil
}

// Merge applies every put of other to s. Indexes s lacks are registered.
// Values other gains while the merge runs may be missed. Merges in both
// directions may run at once: no lock of other is held while s is written.
func (s *Store) Merge(other *Store) {
	if other == nil || other == s {
		return
	}
	for _, name := range other.Indexes() {
		s.Register(name)
		dst, _ := s.index(name)
		src, _ := other.index(name)
		src.eachCopy(func(key string, values []string) {
			for _, v := range values {
				dst.put(key, v)
			}
		})
	}
}

// IndexStats counts the content of one index.
type IndexStats struct {
	Name   string
	Keys   int
	Values int // key/value pairs
}

// Stats returns per-index counts, sorted by name.
func (s *Store) Stats() []IndexStats {
	names := s.Indexes()
	out := make([]IndexStats, 0, len(names))
	for _, name := range names {
		idx, err := s.index(name)
		if err != nil {
			continue
		}
		st := IndexStats{Name: name}
		idx.each(func(_ string, values map[string]struct{}) {
			st.Keys++
			st.Values += len(values)
		})
		out = append(out, st)
	}
	return out
}

// Totals sums Stats over all indexes.
func (s *Store) Totals() (keys, values int) {
	for _, st := range s.Stats() {
		keys += st.Keys
		values += st.Values
	}
	return keys, values
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
