package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stract/stract/internal/invertedindex"
	"github.com/stract/stract/internal/optic"
)

// ShardID identifies one persistent-index shard (spec.md §3 "Entity:
// Shard ... identified by ShardId").
type ShardID uint64

// Query is the coordinator's fan-out request (spec.md §6 "Search{query:
// SearchQuery}").
type Query struct {
	Text          string
	NumResults    int
	Offset        int
	DeRankSimilar bool
	Optic         *optic.Optic
}

// ShardClient is a schedulable handle to one remote (or in-process)
// shard. A real deployment dispatches this over the out-of-scope RPC
// wire format (spec.md §1); tests and single-process deployments can
// wrap an *invertedindex.Shard directly.
type ShardClient interface {
	ID() ShardID
	SearchInitial(ctx context.Context, q Query) (invertedindex.InitialResult, error)
	RetrieveWebsites(ctx context.Context, pointers []invertedindex.Pointer, query string) ([]invertedindex.Document, error)
}

// shardPointer pairs a round-1 Pointer with the shard it came from, so
// the coordinator's merge step can apply the deterministic
// (score, shardID, urlHash) tie-break and route round 2 back to the
// right owner (spec.md §4.6, §9 Open Questions #1).
type shardPointer struct {
	invertedindex.Pointer
	shard ShardID
}

// Result is the coordinator's final, assembled response: documents in
// merged-and-retrieved order, alongside the aggregate hit count.
type Result struct {
	Documents   []invertedindex.Document
	NumWebsites invertedindex.Count
	Bang        *BangHit
}

// Coordinator runs the two-round distributed search protocol (spec.md
// §4.6): round 1 fans Search out to every shard and merges partial top-K
// under a global deterministic ordering; round 2 scatters
// RetrieveWebsites to the surviving shards only, preserving round-1
// order.
type Coordinator struct {
	shards   []ShardClient
	bangs    *BangRegistry
	deadline time.Duration
	log      *slog.Logger
}

// NewCoordinator builds a Coordinator over a fixed shard set. deadline
// bounds each round's RPCs (spec.md §4.6 "Cancellation: each round has a
// deadline; shards exceeding it are treated as returning the empty
// result").
func NewCoordinator(shards []ShardClient, bangs *BangRegistry, deadline time.Duration, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{shards: shards, bangs: bangs, deadline: deadline, log: log}
}

// Search runs the full two-round protocol for q, or short-circuits to a
// BangHit if q.Text resolves one (spec.md §4.6 "Bang handling").
func (c *Coordinator) Search(ctx context.Context, q Query) (Result, error) {
	if c.bangs != nil {
		if hit, ok := c.bangs.MatchQuery(q.Text); ok {
			return Result{Bang: &hit}, nil
		}
	}

	merged, count, err := c.roundOne(ctx, q)
	if err != nil {
		return Result{}, err
	}
	if len(merged) == 0 {
		return Result{NumWebsites: count}, nil
	}

	docs, err := c.roundTwo(ctx, merged, q.Text)
	if err != nil {
		return Result{}, err
	}
	return Result{Documents: docs, NumWebsites: count}, nil
}

// roundOne fans Search out to every shard, tolerating individual shard
// failures (spec.md §7 "per-shard errors downgrade that shard's
// contribution to empty; the overall request still succeeds if any shard
// responded"), then merges and truncates to NumResults+Offset under the
// deterministic global ordering.
func (c *Coordinator) roundOne(ctx context.Context, q Query) ([]shardPointer, invertedindex.Count, error) {
	rctx, cancel := c.withDeadline(ctx)
	defer cancel()

	results := make([][]shardPointer, len(c.shards))
	counts := make([]invertedindex.Count, len(c.shards))
	anyReplied := false

	var g errgroup.Group
	var mu sync.Mutex
	for i, sc := range c.shards {
		i, sc := i, sc
		g.Go(func() error {
			res, err := sc.SearchInitial(rctx, q)
			if err != nil {
				c.log.Warn("shard search failed", slog.Uint64("shard", uint64(sc.ID())), slog.String("err", err.Error()))
				return nil // downgraded to empty, not fatal (spec.md §7)
			}
			sp := make([]shardPointer, len(res.Websites))
			for j, p := range res.Websites {
				sp[j] = shardPointer{Pointer: p, shard: sc.ID()}
			}
			mu.Lock()
			results[i] = sp
			counts[i] = res.NumWebsites
			anyReplied = true
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if !anyReplied {
		return nil, invertedindex.Count{}, errors.New("search: no shard replied")
	}

	var all []shardPointer
	var total uint64
	approx := false
	for i := range c.shards {
		all = append(all, results[i]...)
		total += counts[i].Value
		approx = approx || counts[i].Approximate
	}

	sortMerged(all)
	keep := q.NumResults + q.Offset
	if keep >= 0 && keep < len(all) {
		all = all[:keep]
	}
	return all, invertedindex.Count{Value: total, Approximate: approx}, nil
}

// roundTwo scatters RetrieveWebsites to the surviving pointers' owning
// shards only, then reassembles documents in the exact round-1 order
// (spec.md §4.6 "Round 2 ... Coordinator preserves the round-1 order").
func (c *Coordinator) roundTwo(ctx context.Context, merged []shardPointer, queryText string) ([]invertedindex.Document, error) {
	rctx, cancel := c.withDeadline(ctx)
	defer cancel()

	byShard := make(map[ShardID][]invertedindex.Pointer)
	for _, sp := range merged {
		byShard[sp.shard] = append(byShard[sp.shard], sp.Pointer)
	}

	docsByURLHash := make(map[uint64]invertedindex.Document)
	var mu sync.Mutex
	var g errgroup.Group
	for _, sc := range c.shards {
		ptrs, ok := byShard[sc.ID()]
		if !ok {
			continue
		}
		sc, ptrs := sc, ptrs
		g.Go(func() error {
			docs, err := sc.RetrieveWebsites(rctx, ptrs, queryText)
			if err != nil {
				c.log.Warn("shard retrieve failed", slog.Uint64("shard", uint64(sc.ID())), slog.String("err", err.Error()))
				return nil
			}
			mu.Lock()
			for i, p := range ptrs {
				if i < len(docs) {
					docsByURLHash[p.UrlHash] = docs[i]
				}
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := make([]invertedindex.Document, 0, len(merged))
	for _, sp := range merged {
		if d, ok := docsByURLHash[sp.UrlHash]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (c *Coordinator) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.deadline <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.deadline)
}

// sortMerged orders pointers by the coordinator's deterministic global
// ordering (spec.md §4.6 "descending score with deterministic tie-break
// by (shard_id, local_score, url_hash)"; resolved in spec.md §9 Open
// Questions as (score desc, shardID asc, urlHash asc)).
func sortMerged(all []shardPointer) {
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.shard != b.shard {
			return a.shard < b.shard
		}
		return a.UrlHash < b.UrlHash
	})
}
