package store

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// index is one multimap, split into shards by key hash.
type index struct {
	shards []*shard
}

type shard struct {
	mu sync.RWMutex
	m  map[string]map[string]struct{}
}

func newIndex(n int) *index {
	idx := &index{shards: make([]*shard, n)}
	for i := range idx.shards {
		idx.shards[i] = &shard{m: make(map[string]map[string]struct{})}
	}
	return idx
}

func (idx *index) shard(key string) *shard {
	return idx.shards[xxhash.Sum64String(key)%uint64(len(idx.shards))]
}

func (idx *index) put(key, value string) bool {
	sh := idx.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	values, ok := sh.m[key]
	if !ok {
		values = make(map[string]struct{}, 1)
		sh.m[key] = values
	}
	if _, dup := values[value]; dup {
		return false
	}
	values[value] = struct{}{}
	return true
}

// collect adds the values of key to set.
func (idx *index) collect(key string, set map[string]struct{}) {
	sh := idx.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	for v := range sh.m[key] {
		set[v] = struct{}{}
	}
}

// closure walks the relation from seeds with a work list and a visited set.
func (idx *index) closure(seeds []string) map[string]struct{} {
	visited := make(map[string]struct{}, len(seeds))
	work := append([]string(nil), seeds...)
	next := make(map[string]struct{})

	for len(work) > 0 {
		key := work[len(work)-1]
		work = work[:len(work)-1]
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}

		clear(next)
		idx.collect(key, next)
		for v := range next {
			if _, seen := visited[v]; !seen {
				work = append(work, v)
			}
		}
	}
	return visited
}

// each calls fn for every key under the shard read lock. fn must not
// write to the index.
func (idx *index) each(fn func(key string, values map[string]struct{})) {
	for _, sh := range idx.shards {
		sh.mu.RLock()
		for k, v := range sh.m {
			fn(k, v)
		}
		sh.mu.RUnlock()
	}
}

// eachCopy copies one shard at a time and calls fn with no lock held, so
// fn may write to any index, including one being copied elsewhere.
func (idx *index) eachCopy(fn func(key string, values []string)) {
	for _, sh := range idx.shards {
		sh.mu.RLock()
		snap := make(map[string][]string, len(sh.m))
		for k, vs := range sh.m {
			list := make([]string, 0, len(vs))
			for v := range vs {
				list = append(list, v)
			}
			snap[k] = list
		}
		sh.mu.RUnlock()

		for k, vs := range snap {
			fn(k, vs)
		}
	}
}
