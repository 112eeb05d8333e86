// Package ampc implements the AMPC (asynchronous message-passing,
// coordinator-directed) distributed graph computation framework
// (spec.md §4.4): a round-synchronous coordinator drives a fixed set of
// workers through Job/Mapper/Setup/Finisher phases, exchanging partial
// results through a sharded DHT table between rounds.
package ampc

import "github.com/stract/stract/internal/dht"

// WorkerRef identifies one worker a Coordinator can schedule jobs onto.
// A string id, matching how internal/cluster identifies services by host.
type WorkerRef string

// Job associates a unit of round work with a specific worker and is
// schedulable only onto workers it names as eligible (spec.md §4.4
// "Job: associates with a specific Worker... is_schedulable(&worker)").
type Job[W any] interface {
	IsSchedulable(w W) bool
}

// DhtConn exposes the previous round's finished table and the next
// round's in-progress table to a Mapper/Setup/Finisher (spec.md §4.4
// "DhtConn: exposes prev() and next() views").
type DhtConn[K comparable, V any] struct {
	prev *dht.Table[K, V]
	next *dht.Table[K, V]
}

// NewDhtConn wraps a prev/next table pair.
func NewDhtConn[K comparable, V any](prev, next *dht.Table[K, V]) *DhtConn[K, V] {
	return &DhtConn[K, V]{prev: prev, next: next}
}

// Prev is the table as it stood at the end of the previous round.
func (c *DhtConn[K, V]) Prev() *dht.Table[K, V] { return c.prev }

// Next is the table being accumulated into during the current round.
func (c *DhtConn[K, V]) Next() *dht.Table[K, V] { return c.next }

// Mapper is the per-round logic applied to one (job, worker) pair. It may
// emit writes (batched upserts) to dht.Next() (spec.md §4.4 "Mapper:
// per-round logic map(job, worker, DhtConn); may emit writes... to
// dht.next()").
type Mapper[K comparable, V any, W any] interface {
	Map(job Job[W], worker W, conn *DhtConn[K, V]) error
}

// Setup allocates DHT tables, initializes round 0, and performs
// per-round setup on dht.Next() before each round's jobs are scheduled
// (spec.md §4.4 "Setup: allocates DHT tables, initializes round 0, and
// performs per-round setup on dht.next()").
type Setup[K comparable, V any] interface {
	AllocateTable() *dht.Table[K, V]
	SetupRound(next *dht.Table[K, V])
}

// Finisher decides termination by inspecting the previous round's tables
// (spec.md §4.4 "Finisher: decides termination by inspecting the
// previous-round tables").
type Finisher[K comparable, V any] interface {
	IsFinished(prev *dht.Table[K, V]) bool
}
