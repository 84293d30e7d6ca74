package journal

import (
	"hash/fnv"
	"sort"
	"sync"

	"tradejournal/internal/store"
)

const defaultLockShards = 32

// scopeLocks serializes mutations per scope. Scopes hash onto a fixed set of
// shards, so unrelated scopes on different shards run in parallel.
type scopeLocks struct {
	shards []sync.Mutex
}

func newScopeLocks(n int) *scopeLocks {
	if n <= 0 {
		n = defaultLockShards
	}
	return &scopeLocks{shards: make([]sync.Mutex, n)}
}

func (l *scopeLocks) shardIndex(scope store.Scope) int {
	return int(hashKey(scope.String()) % uint32(len(l.shards)))
}

// lock acquires every shard the scopes map to, in ascending shard order to
// avoid lock-order inversions, and returns the matching unlock.
func (l *scopeLocks) lock(scopes ...store.Scope) func() {
	idx := make([]int, 0, len(scopes))
	seen := make(map[int]bool, len(scopes))
	for _, s := range scopes {
		i := l.shardIndex(s)
		if !seen[i] {
			seen[i] = true
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	for _, i := range idx {
		l.shards[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			l.shards[idx[j]].Unlock()
		}
	}
}

func hashKey(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
