// Package hll implements a HyperLogLog cardinality sketch over
// github.com/bits-and-blooms/bitset, used by internal/centrality to
// estimate the size of each node's reachable set without materializing it.
package hll

import (
	"math"
	"math/bits"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
)

// precision controls register count (2^precision) and therefore accuracy;
// 14 gives a standard error of about 0.8% with 12KB of registers per sketch.
const defaultPrecision = 14

// Sketch is a dense HyperLogLog register array backed by a bitset, packing
// 6-bit registers (max leading-zero-run 63 fits in 6 bits).
type Sketch struct {
	precision uint
	registers *bitset.BitSet // m*6 bits, one 6-bit register per bucket
	m         uint64         // number of registers = 1<<precision
}

// New creates an empty sketch at the default precision.
func New() *Sketch { return NewPrecision(defaultPrecision) }

// NewPrecision creates an empty sketch with a caller-chosen precision
// (4..18 is the sane range; lower means smaller and less accurate).
func NewPrecision(precision uint) *Sketch {
	m := uint64(1) << precision
	return &Sketch{
		precision: precision,
		registers: bitset.New(uint(m) * 6),
		m:         m,
	}
}

func (s *Sketch) registerBits(i uint64) uint8 {
	base := uint(i) * 6
	var v uint8
	for b := uint(0); b < 6; b++ {
		if s.registers.Test(base + b) {
			v |= 1 << b
		}
	}
	return v
}

func (s *Sketch) setRegisterBits(i uint64, v uint8) {
	base := uint(i) * 6
	for b := uint(0); b < 6; b++ {
		if v&(1<<b) != 0 {
			s.registers.Set(base + b)
		} else {
			s.registers.Clear(base + b)
		}
	}
}

// AddHash folds a precomputed 64-bit hash into the sketch (use this when
// the caller already has a stable node-id hash, e.g. webgraph.NodeID, so
// the same element always maps to the same bucket/rank).
func (s *Sketch) AddHash(h uint64) {
	idx := h >> (64 - s.precision)
	rest := h << s.precision
	rank := uint8(bits.LeadingZeros64(rest) + 1)
	if rank > 63 {
		rank = 63
	}
	if cur := s.registerBits(idx); rank > cur {
		s.setRegisterBits(idx, rank)
	}
}

// Add hashes v with xxhash and folds it in.
func (s *Sketch) Add(v string) { s.AddHash(xxhash.Sum64String(v)) }

// Estimate returns the HLL cardinality estimate with the small-range
// (linear counting) correction; no large-range correction is applied.
func (s *Sketch) Estimate() float64 {
	m := float64(s.m)
	sum := 0.0
	zeros := 0
	for i := uint64(0); i < s.m; i++ {
		r := s.registerBits(i)
		sum += 1.0 / float64(uint64(1)<<r)
		if r == 0 {
			zeros++
		}
	}
	alpha := alphaFor(s.m)
	raw := alpha * m * m / sum

	switch {
	case raw <= 2.5*m && zeros > 0:
		return m * math.Log(m/float64(zeros))
	default:
		return raw
	}
}

func alphaFor(m uint64) float64 {
	switch m {
	case 16:
		return 0.673
	case 32:
		return 0.697
	case 64:
		return 0.709
	default:
		return 0.7213 / (1 + 1.079/float64(m))
	}
}

// Union merges other into s in place, keeping the per-register max (the
// HyperLogLog union rule). Union is commutative, associative, and
// idempotent (spec.md §8), which is what lets it serve as a DHT
// batch_upsert combiner across rounds.
func (s *Sketch) Union(other *Sketch) {
	for i := uint64(0); i < s.m; i++ {
		if o := other.registerBits(i); o > s.registerBits(i) {
			s.setRegisterBits(i, o)
		}
	}
}

// Clone returns an independent deep copy.
func (s *Sketch) Clone() *Sketch {
	return &Sketch{
		precision: s.precision,
		registers: s.registers.Clone(),
		m:         s.m,
	}
}
