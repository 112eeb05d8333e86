// Package bloomfilter implements a standard k-hash Bloom filter over
// github.com/bits-and-blooms/bitset, used by internal/centrality to track
// which nodes changed in the previous round (spec.md §4.5 SetupBloom /
// UpdateBloom / SaveBloom) so each round only touches the frontier.
package bloomfilter

import (
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
)

// Filter is a fixed-size Bloom filter with k independent hash functions
// derived from a single 64-bit hash via double hashing (Kirsch-Mitzenmacher).
type Filter struct {
	bits *bitset.BitSet
	m    uint64
	k    uint
}

// New sizes a filter for expectedItems at the given falsePositiveRate.
func New(expectedItems int, falsePositiveRate float64) *Filter {
	m := optimalM(expectedItems, falsePositiveRate)
	k := optimalK(expectedItems, m)
	return &Filter{bits: bitset.New(uint(m)), m: m, k: k}
}

func optimalM(n int, p float64) uint64 {
	if n <= 0 {
		n = 1
	}
	m := math.Ceil(-1 * float64(n) * math.Log(p) / (math.Ln2 * math.Ln2))
	if m < 1 {
		m = 1
	}
	return uint64(m)
}

func optimalK(n int, m uint64) uint {
	if n <= 0 {
		n = 1
	}
	k := math.Round(float64(m) / float64(n) * math.Ln2)
	if k < 1 {
		k = 1
	}
	return uint(k)
}

func (f *Filter) indices(v string) []uint64 {
	h1 := xxhash.Sum64String(v)
	h2 := xxhash.Sum64String(v + "\x00salt")
	idx := make([]uint64, f.k)
	for i := uint(0); i < f.k; i++ {
		idx[i] = (h1 + uint64(i)*h2) % f.m
	}
	return idx
}

// Add inserts v into the filter.
func (f *Filter) Add(v string) {
	for _, i := range f.indices(v) {
		f.bits.Set(uint(i))
	}
}

// Test reports whether v may be in the filter (false positives possible,
// false negatives never).
func (f *Filter) Test(v string) bool {
	for _, i := range f.indices(v) {
		if !f.bits.Test(uint(i)) {
			return false
		}
	}
	return true
}

// Clear empties the filter in place, for reuse across AMPC rounds
// (SaveBloom snapshots the current filter, then a fresh one accumulates
// next round's changes).
func (f *Filter) Clear() { f.bits.ClearAll() }

// Clone returns an independent copy.
func (f *Filter) Clone() *Filter {
	return &Filter{bits: f.bits.Clone(), m: f.m, k: f.k}
}
