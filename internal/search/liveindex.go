package search

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/stract/stract/internal/invertedindex"
)

// SplitID identifies one partition of the replicated live (recent) index
// (spec.md §9 GLOSSARY "Shard vs Split: shard = partition of the
// persistent index; split = partition of the live (recent, replicated)
// index").
type SplitID uint64

// ReplicaPolicy selects which replica of a split a ShardedClient should
// try next.
type ReplicaPolicy int

const (
	// ReplicaRandom picks a uniformly random replica per call.
	ReplicaRandom ReplicaPolicy = iota
	// ReplicaRoundRobin cycles through replicas in order across calls.
	ReplicaRoundRobin
)

// SplitClient is one replica of one live-index split.
type SplitClient interface {
	Split() SplitID
	SearchInitial(ctx context.Context, q Query) (invertedindex.InitialResult, error)
	RetrieveWebsites(ctx context.Context, pointers []invertedindex.Pointer, query string) ([]invertedindex.Document, error)
}

// ErrNoReplicaResponded is returned once every replica of a split has
// been tried and failed (spec.md §9 Open Questions #3: "at least one
// replica responds" is the only guarantee ShardedClient makes).
var ErrNoReplicaResponded = errors.New("search: no live-index replica responded")

// ShardedClient selects among a split's replicas per spec.md §4.6 ("a
// ShardedClient selects replicas with random/round-robin policies and a
// per-shard timeout"). Replication factor and stronger consistency
// guarantees than "at least one replica responds" are out of scope
// (spec.md §9 Open Questions #3).
type ShardedClient struct {
	replicas map[SplitID][]SplitClient
	policy   ReplicaPolicy
	timeout  time.Duration
	cursor   atomic.Uint64 // round-robin cursor, shared across splits for simplicity
}

// NewShardedClient groups replicas by split and builds a client that
// selects among them under policy, bounding each attempt by timeout.
func NewShardedClient(replicas []SplitClient, policy ReplicaPolicy, timeout time.Duration) *ShardedClient {
	byCli := make(map[SplitID][]SplitClient)
	for _, r := range replicas {
		byCli[r.Split()] = append(byCli[r.Split()], r)
	}
	return &ShardedClient{replicas: byCli, policy: policy, timeout: timeout}
}

func (sc *ShardedClient) pick(split SplitID) []SplitClient {
	all := sc.replicas[split]
	if len(all) == 0 {
		return nil
	}
	switch sc.policy {
	case ReplicaRoundRobin:
		start := int(sc.cursor.Add(1)-1) % len(all)
		out := make([]SplitClient, 0, len(all))
		out = append(out, all[start:]...)
		out = append(out, all[:start]...)
		return out
	default: // ReplicaRandom
		out := make([]SplitClient, len(all))
		copy(out, all)
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	}
}

// SearchInitial tries replicas of split, in policy order, until one
// responds within the per-shard timeout or all are exhausted.
func (sc *ShardedClient) SearchInitial(ctx context.Context, split SplitID, q Query) (invertedindex.InitialResult, error) {
	var lastErr error = ErrNoReplicaResponded
	for _, r := range sc.pick(split) {
		rctx, cancel := sc.withTimeout(ctx)
		res, err := r.SearchInitial(rctx, q)
		cancel()
		if err == nil {
			return res, nil
		}
		lastErr = err
	}
	return invertedindex.InitialResult{}, lastErr
}

// RetrieveWebsites mirrors SearchInitial's replica-selection policy for
// round 2 against a specific split.
func (sc *ShardedClient) RetrieveWebsites(ctx context.Context, split SplitID, pointers []invertedindex.Pointer, query string) ([]invertedindex.Document, error) {
	var lastErr error = ErrNoReplicaResponded
	for _, r := range sc.pick(split) {
		rctx, cancel := sc.withTimeout(ctx)
		docs, err := r.RetrieveWebsites(rctx, pointers, query)
		cancel()
		if err == nil {
			return docs, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (sc *ShardedClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if sc.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, sc.timeout)
}
