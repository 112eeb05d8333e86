package ampc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stract/stract/internal/dht"
	xsync "github.com/stract/stract/pkg/sync"
)

// WorkerClient is a schedulable handle to one worker: it knows how to run
// one (job, mapper) pair against a DhtConn and report success or failure.
// A real deployment would dispatch over internal/message.Transport; this
// interface keeps the coordinator round loop agnostic to transport.
type WorkerClient[K comparable, V any, W any] interface {
	Ref() WorkerRef
	Worker() W
	RunJob(ctx context.Context, job Job[W], mapper Mapper[K, V, W], conn *DhtConn[K, V]) error
}

// backoffStart/backoffMax/backoffFactor are the reschedule backoff
// parameters (spec.md §4.4 "Scheduling": a failed job's reschedule delay
// grows exponentially, 100ms initial, 10s cap, factor 2).
const (
	backoffStart  = 100 * time.Millisecond
	backoffMax    = 10 * time.Second
	backoffFactor = 2
)

// Coordinator runs the AMPC round loop (spec.md §4.4): setup the round,
// push DHT metadata, schedule every job from every mapper onto a
// responsive worker, await completion with reschedule-on-failure, then
// advance the round. It terminates when Finisher reports the previous
// round's table is done.
//
// Grounded on core/scheduler.Scheduler's consume/work/produce/ack loop:
// a limiter-gated goroutine per unit of work, errors logged via
// log/slog rather than propagated, xsync.Go for goroutine spawn.
type Coordinator[K comparable, V any, W any] struct {
	workers  []WorkerClient[K, V, W]
	setup    Setup[K, V]
	finisher Finisher[K, V]
	limiter  *xsync.Limiter
	log      *slog.Logger
}

// NewCoordinator builds a Coordinator over a fixed worker set, with
// maxConcurrent jobs dispatched at once per round (mirrors the teacher's
// Scheduler.Config.MaxWorker).
func NewCoordinator[K comparable, V any, W any](workers []WorkerClient[K, V, W], setup Setup[K, V], finisher Finisher[K, V], maxConcurrent int, log *slog.Logger) *Coordinator[K, V, W] {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator[K, V, W]{
		workers:  workers,
		setup:    setup,
		finisher: finisher,
		limiter:  xsync.NewLimiter(maxConcurrent),
		log:      log,
	}
}

// MapperJobs pairs one round's mapper with the jobs it drives this round.
// Mappers run in the order given, matching spec.md §4.4's "for each
// mapper in order, schedule every job".
type MapperJobs[K comparable, V any, W any] struct {
	Mapper Mapper[K, V, W]
	Jobs   []Job[W]
}

// Run drives rounds, calling roundJobs(round) to obtain that round's
// mapper/job list, until Finisher.IsFinished reports true on the
// previous round's table or maxRounds is reached (0 means unbounded). If
// onRound is non-nil, it is called with the completed table after every
// round (before the finisher/termination check), so a caller-specific
// wrapper (e.g. internal/centrality's Kahan-sum accumulation) can observe
// intermediate round state that the generic Coordinator has no business
// knowing about. It returns the final table.
func (c *Coordinator[K, V, W]) Run(ctx context.Context, roundJobs func(round int) []MapperJobs[K, V, W], maxRounds int, onRound func(round int, table *dht.Table[K, V])) (*dht.Table[K, V], error) {
	prev := c.setup.AllocateTable()
	round := 0
	for {
		if maxRounds > 0 && round >= maxRounds {
			return prev, nil
		}
		if round > 0 && c.finisher.IsFinished(prev) {
			return prev, nil
		}

		next := c.setup.AllocateTable()
		c.setup.SetupRound(next)
		conn := NewDhtConn(prev, next)

		for _, mj := range roundJobs(round) {
			if err := c.scheduleAll(ctx, mj.Mapper, mj.Jobs, conn); err != nil {
				return prev, err
			}
		}

		prev = next
		if onRound != nil {
			onRound(round, prev)
		}
		round++
	}
}

// scheduleAll dispatches every job in jobs onto a schedulable worker (the
// first one, in registration order, not yet tried for that job) and
// reschedules failures onto a different worker with exponential backoff
// (spec.md §4.4 "Scheduling").
func (c *Coordinator[K, V, W]) scheduleAll(ctx context.Context, mapper Mapper[K, V, W], jobs []Job[W], conn *DhtConn[K, V]) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		job := job
		c.limiter.Acquire()
		g.Go(func() error {
			defer c.limiter.Release()
			return c.runWithReschedule(gctx, mapper, job, conn)
		})
	}
	return g.Wait()
}

func (c *Coordinator[K, V, W]) runWithReschedule(ctx context.Context, mapper Mapper[K, V, W], job Job[W], conn *DhtConn[K, V]) error {
	tried := make(map[WorkerRef]bool)
	delay := backoffStart

	for {
		wc := c.pickWorker(job, tried)
		if wc == nil {
			return fmt.Errorf("ampc: no schedulable worker left for job after trying %d", len(tried))
		}
		tried[wc.Ref()] = true

		err := wc.RunJob(ctx, job, mapper, conn)
		if err == nil {
			return nil
		}
		c.log.Warn("ampc job failed, rescheduling", slog.String("worker", string(wc.Ref())), slog.String("err", err.Error()))

		if len(tried) >= len(c.workers) {
			// every worker has been tried at least once; keep retrying the
			// least-recently-tried set rather than giving up immediately.
			tried = make(map[WorkerRef]bool)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= backoffFactor
		if delay > backoffMax {
			delay = backoffMax
		}
	}
}

// pickWorker returns the first worker that is schedulable for job and not
// already in tried, or nil if none qualify.
func (c *Coordinator[K, V, W]) pickWorker(job Job[W], tried map[WorkerRef]bool) WorkerClient[K, V, W] {
	for _, wc := range c.workers {
		if tried[wc.Ref()] {
			continue
		}
		if job.IsSchedulable(wc.Worker()) {
			return wc
		}
	}
	return nil
}
