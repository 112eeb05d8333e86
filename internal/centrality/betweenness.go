package centrality

import "github.com/stract/stract/internal/webgraph"

// maxBetweennessNodes bounds how many source nodes a single betweenness
// computation expands from, mirroring the original implementation's
// `nodes().take(100_000)` cap on very large graphs.
const maxBetweennessNodes = 100_000

// Betweenness holds the result of ComputeBetweenness: every node's
// centrality plus the longest shortest-path distance seen during the
// computation.
type Betweenness struct {
	Centrality map[NodeID]float64
	MaxDist    int
}

// ComputeBetweenness runs Brandes' algorithm (Brandes, "A Faster
// Algorithm for Betweenness Centrality") over store's page-level graph:
// for every source node, a single BFS computes shortest-path counts and
// predecessors, then a back-propagation pass accumulates each node's
// dependency on every other node's shortest paths. Scores are normalized
// by n*(n-1) (spec.md §8 scenario 1).
func ComputeBetweenness(store *webgraph.Store) Betweenness {
	nodes := store.AllNodeIDs()
	if len(nodes) > maxBetweennessNodes {
		nodes = nodes[:maxBetweennessNodes]
	}

	centrality := make(map[NodeID]float64, len(nodes))
	maxDist := 0
	n := 0

	for _, s := range nodes {
		n++
		if _, ok := centrality[s]; !ok {
			centrality[s] = 0
		}

		var stack []NodeID
		predecessors := make(map[NodeID][]NodeID)
		sigma := map[NodeID]int64{s: 1}
		distances := map[NodeID]int{s: 0}

		queue := []NodeID{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)

			for _, e := range store.Out(v, webgraph.LevelPage, webgraph.Unlimited()) {
				w := e.To
				distV := distances[v]

				if _, seen := distances[w]; !seen {
					queue = append(queue, w)
					distances[w] = distV + 1
				}

				if distances[w] == distV+1 {
					sigma[w] += sigma[v]
					predecessors[w] = append(predecessors[w], v)
				}
			}
		}

		for _, d := range distances {
			if d > maxDist {
				maxDist = d
			}
		}

		delta := make(map[NodeID]float64)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range predecessors[w] {
				delta[v] += (float64(sigma[v]) / float64(sigma[w])) * (1.0 + delta[w])
			}
			if w != s {
				centrality[w] += delta[w]
			}
		}
	}

	norm := float64(n) * float64(n-1)
	if norm > 0 {
		for id := range centrality {
			centrality[id] /= norm
		}
	}

	return Betweenness{Centrality: centrality, MaxDist: maxDist}
}
