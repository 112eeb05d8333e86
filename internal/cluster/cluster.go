// Package cluster maintains the one genuinely global mutable structure in
// the core (spec.md §9): an eventually-consistent view of which services
// are running where, fed by gossip announcements over a message.Transport.
package cluster

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stract/stract/internal/message"
)

// ServiceKind tags the variant held by a Service, since Go has no enum
// variants (spec.md §9's "polymorphism without inheritance").
type ServiceKind int

const (
	ServiceAPI ServiceKind = iota
	ServiceSearcher
	ServiceLiveIndex
	ServiceHarmonicCoordinator
	ServiceHarmonicWorker
	ServiceDHT
	ServiceCrawler
	ServiceAlice
	ServiceEntitySearcher
)

// Service is a tagged union over the roles a Member can advertise. Only the
// fields relevant to Kind are meaningful.
type Service struct {
	Kind     ServiceKind
	Host     string
	Shard    uint64 // Searcher, HarmonicWorker, DHT
	SplitID  uint64 // LiveIndex
}

// Member is one gossip announcement: a stable id plus the service it hosts.
type Member struct {
	ID      uuid.UUID
	Service Service
	seenAt  time.Time
}

// View is an eventually-consistent, point-in-time snapshot of cluster
// membership. Callers that need a specific service retry until it appears
// (spec.md §6).
type View struct {
	mu      sync.RWMutex // guards members; readers get a copy, never the live map
	members map[uuid.UUID]Member
	ttl     time.Duration
}

// NewView creates an empty View. Members not re-announced within ttl are
// dropped on the next Prune call.
func NewView(ttl time.Duration) *View {
	return &View{members: make(map[uuid.UUID]Member), ttl: ttl}
}

func (v *View) upsert(m Member) {
	m.seenAt = time.Now()
	v.mu.Lock()
	v.members[m.ID] = m
	v.mu.Unlock()
}

// Prune removes members whose last announcement is older than the view's
// ttl. Intended to be called periodically by the gossip receive loop.
func (v *View) Prune() {
	cutoff := time.Now().Add(-v.ttl)
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, m := range v.members {
		if m.seenAt.Before(cutoff) {
			delete(v.members, id)
		}
	}
}

// Snapshot returns a copy of the current membership; callers never observe
// a partially-updated map.
func (v *View) Snapshot() []Member {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Member, 0, len(v.members))
	for _, m := range v.members {
		out = append(out, m)
	}
	return out
}

// ByKind filters Snapshot to members advertising a given ServiceKind.
func (v *View) ByKind(kind ServiceKind) []Member {
	all := v.Snapshot()
	out := all[:0:0]
	for _, m := range all {
		if m.Service.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// Gossip periodically announces self over transport and folds incoming
// announcements from other nodes into view.
type Gossip struct {
	self      Member
	view      *View
	transport message.Transport
	interval  time.Duration
	log       *slog.Logger
}

func NewGossip(self Member, view *View, transport message.Transport, interval time.Duration, log *slog.Logger) *Gossip {
	if log == nil {
		log = slog.Default()
	}
	return &Gossip{self: self, view: view, transport: transport, interval: interval, log: log}
}

// Run announces self on every tick and folds received announcements into
// view until ctx is cancelled. It is intended to run as a single
// long-lived goroutine per node.
func (g *Gossip) Run(ctx context.Context) {
	g.view.upsert(g.self)
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	go g.receiveLoop(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			env, err := message.New(g.self)
			if err != nil {
				g.log.Error("gossip encode self", slog.String("err", err.Error()))
				continue
			}
			if err := g.transport.Produce(ctx, env); err != nil {
				g.log.Warn("gossip announce", slog.String("err", err.Error()))
			}
			g.view.Prune()
		}
	}
}

func (g *Gossip) receiveLoop(ctx context.Context) {
	for {
		env, id, err := g.transport.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			g.log.Warn("gossip receive", slog.String("err", err.Error()))
			continue
		}
		var m Member
		if err := env.Unmarshal(&m); err != nil {
			g.log.Warn("gossip decode", slog.String("err", err.Error()))
		} else {
			g.view.upsert(m)
		}
		_ = g.transport.Ack(ctx, id)
	}
}
