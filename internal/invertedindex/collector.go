package invertedindex

import (
	"container/heap"

	"github.com/stract/stract/internal/columnar"
	"github.com/stract/stract/pkg/sets"
)

// Pointer identifies one scored match: enough to re-fetch the document
// in round 2 of distributed search without carrying its full contents
// (spec.md §6 "Pointer{score, url_hash, doc_id}").
type Pointer struct {
	Score   float64
	UrlHash uint64
	DocID   columnar.DocID
	Host    string
}

type scoredHeap []Pointer

func (h scoredHeap) Len() int { return len(h) }
func (h scoredHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].UrlHash < h[j].UrlHash
}
func (h scoredHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoredHeap) Push(x any)         { *h = append(*h, x.(Pointer)) }
func (h *scoredHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Collector is a per-segment bounded min-heap collector: it keeps the
// num_results+offset highest-scoring pointers, evicting the lowest when
// full (spec.md §4.1 "bounded min-heap of size num_results + offset").
type Collector struct {
	cap int
	h   scoredHeap
}

// NewCollector creates a collector retaining at most capacity pointers.
func NewCollector(capacity int) *Collector {
	c := &Collector{cap: capacity}
	heap.Init(&c.h)
	return c
}

// Offer considers p for inclusion in the top-K set.
func (c *Collector) Offer(p Pointer) {
	if c.cap <= 0 {
		return
	}
	if c.h.Len() < c.cap {
		heap.Push(&c.h, p)
		return
	}
	if p.Score > c.h[0].Score {
		heap.Pop(&c.h)
		heap.Push(&c.h, p)
	}
}

// Fruits drains the collector into a descending-score slice, applying
// host de-duplication that keeps at most maxPerHost pointers per host
// (spec.md §4.1 "(2) host-similar de-rank (keep at most N per host)").
// maxPerHost<=0 disables de-duplication.
func (c *Collector) Fruits(maxPerHost int) []Pointer {
	all := make([]Pointer, len(c.h))
	copy(all, c.h)
	sortDescending(all)

	if maxPerHost <= 0 {
		return dedupeByURL(all)
	}
	seen := sets.NewHashSet[uint64](len(all))
	perHost := make(map[string]int)
	out := make([]Pointer, 0, len(all))
	for _, p := range all {
		if seen.Contains(p.UrlHash) {
			continue
		}
		if perHost[p.Host] >= maxPerHost {
			continue
		}
		seen.Add(p.UrlHash)
		perHost[p.Host]++
		out = append(out, p)
	}
	return out
}

func dedupeByURL(all []Pointer) []Pointer {
	seen := sets.NewHashSet[uint64](len(all))
	out := make([]Pointer, 0, len(all))
	for _, p := range all {
		if seen.Add(p.UrlHash) {
			out = append(out, p)
		}
	}
	return out
}

func sortDescending(p []Pointer) {
	for i := 1; i < len(p); i++ {
		for j := i; j > 0 && less(p[j], p[j-1]); j-- {
			p[j], p[j-1] = p[j-1], p[j]
		}
	}
}

// less reports whether a should sort before b in descending-score order
// with the deterministic tie-break (score desc, urlHash asc) spec.md §4.6
// uses at the coordinator merge step too.
func less(a, b Pointer) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.UrlHash < b.UrlHash
}
