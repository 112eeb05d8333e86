// Package centrality implements the two harmonic-centrality variants
// spec.md §4.5 calls for (an exact HLL-sketch-based computation run as an
// AMPC job over internal/ampc, and an approximate version sampling source
// nodes and running bounded Dijkstra from each), plus the path-graph
// betweenness centrality scenario named in spec.md §8.
package centrality

import "github.com/stract/stract/pkg/hll"

// HllUnionCombiner is the DHT combiner used by the exact harmonic
// centrality round loop: round r's table holds, per node, an HLL sketch
// of the set of nodes reachable within r hops. Union is commutative,
// associative, and idempotent (see pkg/hll.Sketch.Union), which is what
// makes it valid as a dht.Combiner (spec.md §4.4 requires combiners be
// associative and idempotent).
type HllUnionCombiner struct{}

func (HllUnionCombiner) Zero(v *hll.Sketch) *hll.Sketch { return v }

func (HllUnionCombiner) Combine(old, incoming *hll.Sketch) *hll.Sketch {
	merged := old.Clone()
	merged.Union(incoming)
	return merged
}
