package centrality

import (
	"container/heap"
	"math/rand"

	"github.com/stract/stract/internal/dht"
	"github.com/stract/stract/internal/webgraph"
)

// maxOutgoingEdges caps how many out-edges a single bounded-Dijkstra
// expansion follows per node, bounding per-source work on high-fanout
// hub pages (spec.md §4.5 "MAX_OUTGOING_EDGES cap").
const maxOutgoingEdges = 128

// ApproxHarmonicParams configures the sampled bounded-Dijkstra
// approximation (spec.md §4.5 "approximate-harmonic-via-bounded-Dijkstra:
// sampled sources, max_distance <= D, rel_flags exclusion set").
type ApproxHarmonicParams struct {
	NumSamples  int
	MaxDistance int
	Rand        *rand.Rand // nil uses a package-default source
}

// RunApproxHarmonic samples NumSamples source nodes, runs bounded
// Dijkstra (max depth MaxDistance, excluding edges in
// webgraph.SkippedRel) from each, and extrapolates each node's harmonic
// centrality from the fraction of samples that reached it, scaled by
// (numNodes / numSamples) per spec.md §4.5.
func RunApproxHarmonic(store *webgraph.Store, params ApproxHarmonicParams) []HarmonicResult {
	nodes := store.AllNodeIDs()
	n := len(nodes)
	if n <= 1 || params.NumSamples <= 0 {
		return nil
	}
	r := params.Rand
	if r == nil {
		r = rand.New(rand.NewSource(1))
	}
	samples := params.NumSamples
	if samples > n {
		samples = n
	}
	sourceIdx := r.Perm(n)[:samples]

	accum := dht.NewTable[NodeID, dht.KahanSum](0, func(id NodeID) uint64 { return uint64(id) })
	for _, idx := range sourceIdx {
		src := nodes[idx]
		dists := boundedDijkstra(store, src, params.MaxDistance)
		updates := make(map[NodeID]dht.KahanSum, len(dists))
		for target, d := range dists {
			if target == src || d <= 0 {
				continue
			}
			updates[target] = dht.KahanSum{Sum: 1.0 / float64(d)}
		}
		dht.BatchUpsert(accum, dht.KahanSumCombiner{}, updates)
	}

	scale := float64(n) / float64(samples)
	out := make([]HarmonicResult, 0, n)
	accum.Range(func(id NodeID, k dht.KahanSum) {
		out = append(out, HarmonicResult{Node: id, Score: k.Sum * scale / float64(n-1)})
	})
	return out
}

type distEntry struct {
	node NodeID
	dist int
}

type distHeap []distEntry

func (h distHeap) Len() int            { return len(h) }
func (h distHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h distHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x interface{}) { *h = append(*h, x.(distEntry)) }
func (h *distHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// boundedDijkstra runs unweighted shortest-path (each edge has cost 1)
// from src, stopping expansion past maxDistance hops and skipping edges
// whose Rel flags are in webgraph.SkippedRel (spec.md §4.5).
func boundedDijkstra(store *webgraph.Store, src NodeID, maxDistance int) map[NodeID]int {
	dist := map[NodeID]int{src: 0}
	h := &distHeap{{node: src, dist: 0}}
	for h.Len() > 0 {
		cur := heap.Pop(h).(distEntry)
		if best, ok := dist[cur.node]; ok && cur.dist > best {
			continue
		}
		if cur.dist >= maxDistance {
			continue
		}
		edges := store.Out(cur.node, webgraph.LevelPage, webgraph.Limit(maxOutgoingEdges))
		for _, e := range edges {
			if e.Rel.Any(webgraph.SkippedRel) {
				continue
			}
			nd := cur.dist + 1
			if best, ok := dist[e.To]; !ok || nd < best {
				dist[e.To] = nd
				heap.Push(h, distEntry{node: e.To, dist: nd})
			}
		}
	}
	return dist
}
