// Package dht implements the sharded, replicated K->V table AMPC uses to
// hold inter-round state (spec.md §3 "DHT Table", §4.4). Sharding is by
// consistent hash of the key, matching the per-node hashing used
// throughout the rest of the system (internal/webgraph NodeID, internal/
// crawler domain routing).
package dht

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Combiner merges an existing value with an incoming update. Combiners
// must be associative (spec.md §4.4). Idempotence depends on the
// combiner: internal/centrality's HllUnionCombiner is idempotent by
// construction, while SumCombiner and KahanSumCombiner add the incoming
// value on every upsert, so applying the same batch twice counts it twice.
type Combiner[V any] interface {
	// Zero returns the identity element combined with a bare value, i.e.
	// what a key look like the first time it is written.
	Zero(v V) V
	// Combine merges old (possibly the Zero value) with incoming.
	Combine(old, incoming V) V
}

// SumCombiner accumulates plain numeric sums.
type SumCombiner struct{}

func (SumCombiner) Zero(v float64) float64             { return v }
func (SumCombiner) Combine(old, incoming float64) float64 { return old + incoming }

// KahanSum carries a running sum plus compensation term, per Kahan
// summation, so that many small per-round increments (centrality deltas)
// don't lose precision to float addition error.
type KahanSum struct {
	Sum float64
	C   float64 // running compensation
}

// Add folds delta into the running Kahan sum.
func (k KahanSum) Add(delta float64) KahanSum {
	y := delta - k.C
	t := k.Sum + y
	return KahanSum{Sum: t, C: (t - k.Sum) - y}
}

// KahanSumCombiner is the DHT Combiner used for centrality accumulation
// (spec.md §4.5 "accumulated across rounds as a Kahan sum").
type KahanSumCombiner struct{}

func (KahanSumCombiner) Zero(v KahanSum) KahanSum { return v }
func (KahanSumCombiner) Combine(old, incoming KahanSum) KahanSum {
	return old.Add(incoming.Sum)
}

// shardCount is fixed per table instance; a real deployment would size
// this to the number of DHT worker nodes.
const defaultShards = 64

// Table is a DefaultDhtTable<K,V> (spec.md §4.4): a map partitioned across
// shards by consistent hash of the key, with associative/idempotent
// batch upserts.
type Table[K comparable, V any] struct {
	shards  []*tableShard[K, V]
	keyHash func(K) uint64
}

type tableShard[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// NewTable creates a Table with the given shard count (0 means
// defaultShards) and a key-hashing function. String keys can use
// HashString.
func NewTable[K comparable, V any](shardCount int, keyHash func(K) uint64) *Table[K, V] {
	if shardCount <= 0 {
		shardCount = defaultShards
	}
	t := &Table[K, V]{
		shards:  make([]*tableShard[K, V], shardCount),
		keyHash: keyHash,
	}
	for i := range t.shards {
		t.shards[i] = &tableShard[K, V]{data: make(map[K]V)}
	}
	return t
}

// HashString hashes a string key via xxhash, for use as Table's keyHash.
func HashString(s string) uint64 { return xxhash.Sum64String(s) }

func (t *Table[K, V]) shardFor(k K) *tableShard[K, V] {
	h := t.keyHash(k)
	return t.shards[h%uint64(len(t.shards))]
}

// Get returns the value for k and whether it was present.
func (t *Table[K, V]) Get(k K) (V, bool) {
	s := t.shardFor(k)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[k]
	return v, ok
}

// BatchSet overwrites values unconditionally, for initial round setup.
func (t *Table[K, V]) BatchSet(pairs map[K]V) {
	for k, v := range pairs {
		s := t.shardFor(k)
		s.mu.Lock()
		s.data[k] = v
		s.mu.Unlock()
	}
}

// BatchUpsert applies op to each pair against the existing value (or the
// combiner's Zero of the incoming value, if absent). Associative and
// idempotent per-key, as required by spec.md §4.4/§8.
func BatchUpsert[K comparable, V any, C Combiner[V]](t *Table[K, V], op C, pairs map[K]V) {
	for k, incoming := range pairs {
		s := t.shardFor(k)
		s.mu.Lock()
		if old, ok := s.data[k]; ok {
			s.data[k] = op.Combine(old, incoming)
		} else {
			s.data[k] = op.Zero(incoming)
		}
		s.mu.Unlock()
	}
}

// Len returns the total number of keys across all shards.
func (t *Table[K, V]) Len() int {
	n := 0
	for _, s := range t.shards {
		s.mu.RLock()
		n += len(s.data)
		s.mu.RUnlock()
	}
	return n
}

// Range iterates every key/value pair. fn must not call back into t.
func (t *Table[K, V]) Range(fn func(k K, v V)) {
	for _, s := range t.shards {
		s.mu.RLock()
		for k, v := range s.data {
			fn(k, v)
		}
		s.mu.RUnlock()
	}
}
