package centrality

import (
	"context"
	"strconv"
	"sync"

	"github.com/stract/stract/internal/ampc"
	"github.com/stract/stract/internal/dht"
	"github.com/stract/stract/internal/webgraph"
	"github.com/stract/stract/pkg/bloomfilter"
	"github.com/stract/stract/pkg/hll"
)

// nodeKey renders a NodeID as the string bloomfilter.Filter hashes on.
func nodeKey(n NodeID) string { return strconv.FormatUint(uint64(n), 36) }

// NodeID aliases webgraph's stable node hash, the key type for every DHT
// table this package uses.
type NodeID = webgraph.NodeID

// harmonicJob is schedulable on any worker in a single-shard deployment;
// a sharded deployment would restrict this to the worker owning node's
// partition (spec.md §4.4 "Job ... is_schedulable(&worker)").
type harmonicJob struct{ node NodeID }

func (harmonicJob) IsSchedulable(worker *webgraph.Store) bool { return true }

// seedMapper runs round 0: every node's reachable-set sketch starts
// containing only itself (spec.md §4.5 "SetupCounters").
type seedMapper struct{}

func (seedMapper) Map(job ampc.Job[*webgraph.Store], worker *webgraph.Store, conn *ampc.DhtConn[NodeID, *hll.Sketch]) error {
	j := job.(harmonicJob)
	s := hll.New()
	s.AddHash(uint64(j.node))
	dht.BatchUpsert(conn.Next(), HllUnionCombiner{}, map[NodeID]*hll.Sketch{j.node: s})
	return nil
}

// propagateMapper runs every round after the first: a node's new sketch
// is the union of its own previous-round sketch with every out-neighbor's
// previous-round sketch, the standard HyperANF-style frontier expansion
// (spec.md §4.5 "Cardinalities via HLL union batch_upsert"). changed is
// last round's UpdateBloom snapshot (spec.md §4.5 "SetupBloom/UpdateBloom
// maintain a bloom filter of nodes whose sketch changed last round, so the
// next round touches only frontier-adjacent nodes"): a neighbor absent
// from it could not have grown, so its union can't grow merged either,
// and unioning it is skipped. Bloom filters never false-negative, so this
// only ever skips work that provably cannot change the result.
type propagateMapper struct{ changed *bloomfilter.Filter }

func (m propagateMapper) Map(job ampc.Job[*webgraph.Store], worker *webgraph.Store, conn *ampc.DhtConn[NodeID, *hll.Sketch]) error {
	j := job.(harmonicJob)
	self, ok := conn.Prev().Get(j.node)
	if !ok {
		self = hll.New()
		self.AddHash(uint64(j.node))
	}
	merged := self.Clone()
	for _, e := range worker.Out(j.node, webgraph.LevelPage, webgraph.Unlimited()) {
		if m.changed != nil && !m.changed.Test(nodeKey(e.To)) {
			continue
		}
		if nb, ok := conn.Prev().Get(e.To); ok {
			merged.Union(nb)
		}
	}
	dht.BatchUpsert(conn.Next(), HllUnionCombiner{}, map[NodeID]*hll.Sketch{j.node: merged})
	return nil
}

type harmonicSetup struct{ shards int }

func (s harmonicSetup) AllocateTable() *dht.Table[NodeID, *hll.Sketch] {
	return dht.NewTable[NodeID, *hll.Sketch](s.shards, func(n NodeID) uint64 { return uint64(n) })
}

func (harmonicSetup) SetupRound(next *dht.Table[NodeID, *hll.Sketch]) {}

// harmonicFinisher terminates once a round's total estimated reachable-set
// size stops growing across every node (spec.md §4.5 "termination on
// no-sketch-growth"). HLL estimates jitter slightly even with no real
// growth, so convergence uses a small relative tolerance rather than
// exact equality.
type harmonicFinisher struct {
	mu        sync.Mutex
	lastTotal float64
	calls     int
}

func (f *harmonicFinisher) IsFinished(prev *dht.Table[NodeID, *hll.Sketch]) bool {
	total := 0.0
	prev.Range(func(_ NodeID, v *hll.Sketch) { total += v.Estimate() })

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	grew := total > f.lastTotal*1.0001+1e-6
	f.lastTotal = total
	return !grew
}

// HarmonicResult is one node's exact (HLL-approximated) harmonic
// centrality score, normalized to [0, 1] by dividing the Kahan-summed
// accumulation by (numNodes - 1) (spec.md §4.5 "final score =
// accumulated/(numNodes-1)").
type HarmonicResult struct {
	Node  NodeID
	Score float64
}

// RunHarmonic computes harmonic centrality for every node in store by
// driving the AMPC round loop: each round's newly-reached node count
// (current cardinality minus last round's) contributes (delta * 1/round)
// to that node's... no: harmonic centrality sums 1/distance(u,v) over all
// v reachable from u, so the accumulation is keyed by the *source* whose
// sketch grew, at weight 1/round for the round in which growth occurred.
func RunHarmonic(ctx context.Context, store *webgraph.Store, shards, maxRounds int) ([]HarmonicResult, error) {
	nodes := store.AllNodeIDs()
	n := len(nodes)
	if n <= 1 {
		out := make([]HarmonicResult, n)
		for i, id := range nodes {
			out[i] = HarmonicResult{Node: id, Score: 0}
		}
		return out, nil
	}

	workers := []ampc.WorkerClient[NodeID, *hll.Sketch, *webgraph.Store]{
		ampc.NewLocalWorkerClient[NodeID, *hll.Sketch]("local", store),
	}
	finisher := &harmonicFinisher{}
	coord := ampc.NewCoordinator[NodeID, *hll.Sketch, *webgraph.Store](workers, harmonicSetup{shards: shards}, finisher, 32, nil)

	jobs := make([]ampc.Job[*webgraph.Store], len(nodes))
	for i, id := range nodes {
		jobs[i] = harmonicJob{node: id}
	}

	last := make(map[NodeID]float64, len(nodes))
	accum := make(map[NodeID]dht.KahanSum, len(nodes))
	var accumMu sync.Mutex

	// bloom is the most recent UpdateBloom/SaveBloom snapshot: the set of
	// nodes whose sketch grew last round (spec.md §4.5). onRound rebuilds
	// it after every round; roundJobs hands the frozen snapshot to that
	// round's propagateMapper. Both run sequentially from Coordinator.Run's
	// single driving goroutine, so no lock is needed around bloom itself.
	var bloom *bloomfilter.Filter

	onRound := func(round int, table *dht.Table[NodeID, *hll.Sketch]) {
		accumMu.Lock()
		defer accumMu.Unlock()
		next := bloomfilter.New(n, 0.01)
		if round == 0 {
			table.Range(func(id NodeID, s *hll.Sketch) {
				last[id] = s.Estimate()
				next.Add(nodeKey(id))
			})
			bloom = next
			return
		}
		table.Range(func(id NodeID, s *hll.Sketch) {
			cur := s.Estimate()
			delta := cur - last[id]
			if delta > 0 {
				k := accum[id]
				k = k.Add(delta * (1.0 / float64(round)))
				accum[id] = k
				next.Add(nodeKey(id))
			}
			last[id] = cur
		})
		bloom = next
	}

	_, err := coord.Run(ctx, func(round int) []ampc.MapperJobs[NodeID, *hll.Sketch, *webgraph.Store] {
		mapper := ampc.Mapper[NodeID, *hll.Sketch, *webgraph.Store](seedMapper{})
		if round > 0 {
			mapper = propagateMapper{changed: bloom}
		}
		return []ampc.MapperJobs[NodeID, *hll.Sketch, *webgraph.Store]{{Mapper: mapper, Jobs: jobs}}
	}, maxRounds, onRound)
	if err != nil {
		return nil, err
	}

	out := make([]HarmonicResult, 0, len(nodes))
	for _, id := range nodes {
		out = append(out, HarmonicResult{Node: id, Score: accum[id].Sum / float64(n-1)})
	}
	return out, nil
}
