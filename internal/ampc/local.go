package ampc

import (
	"context"
	"sync"

	"github.com/stract/stract/pkg/result"
)

// LocalWorkerClient runs a job synchronously in-process, for a
// single-machine deployment or for tests. It generalizes the teacher's
// worker.StreamWorker.Work(ctx, msg) signature (core/worker.go) from one
// fixed message type to any (Job, Mapper) pair.
type LocalWorkerClient[K comparable, V any, W any] struct {
	ref    WorkerRef
	worker W

	mu      sync.Mutex
	current Job[W]
}

// NewLocalWorkerClient wraps worker as a WorkerClient addressable by ref.
func NewLocalWorkerClient[K comparable, V any, W any](ref WorkerRef, worker W) *LocalWorkerClient[K, V, W] {
	return &LocalWorkerClient[K, V, W]{ref: ref, worker: worker}
}

func (l *LocalWorkerClient[K, V, W]) Ref() WorkerRef { return l.ref }
func (l *LocalWorkerClient[K, V, W]) Worker() W      { return l.worker }

// CurrentJob reports the job this worker is presently running, if any
// (spec.md §6 "AMPC worker RPC: CurrentJob() → Result<Option<Job>>"). A
// nil Job value inside a successful Result represents None.
func (l *LocalWorkerClient[K, V, W]) CurrentJob() result.Result[Job[W]] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return result.Value(l.current)
}

// RunJob calls mapper.Map directly against the calling goroutine; ctx
// cancellation is the caller's responsibility to check inside Map for
// long-running mappers.
func (l *LocalWorkerClient[K, V, W]) RunJob(ctx context.Context, job Job[W], mapper Mapper[K, V, W], conn *DhtConn[K, V]) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	l.mu.Lock()
	l.current = job
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.current = nil
		l.mu.Unlock()
	}()

	return mapper.Map(job, l.worker, conn)
}
