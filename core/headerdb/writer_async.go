package headerdb

import (
	"context"
	"sync"

	"github.com/ethergate/headerdb/core/types"
)

// AsyncChainWriter is the asynchronous surface over the same reorg
// algorithm ChainWriter implements (spec.md §9: "two traits/interfaces —
// one synchronous, one asynchronous — over the same underlying
// algorithm. Do not duplicate the reorg logic.").
//
// It does not introduce any new algorithm: every PersistChain call runs
// the identical ChainWriter.PersistChain, serialized through a single
// background worker goroutine so that concurrent callers never violate
// the single-writer contract of spec.md §5 (the synchronous ChainWriter
// assumes but does not enforce that contract; this wrapper enforces it).
// Cancellation of a submitted context is honored at the next suspension
// point — between queued jobs, and before the job actually begins
// running the backend calls — but a job already past that point runs to
// completion, since the core has no mid-reorg cancellation semantics
// (spec.md §5 "Cancellation").
type AsyncChainWriter struct {
	writer *ChainWriter

	jobs   chan asyncJob
	once   sync.Once
	closed chan struct{}
}

type asyncJob struct {
	ctx     context.Context
	headers []*types.Header
	result  chan asyncResult
}

type asyncResult struct {
	newCanonical []*types.Header
	oldCanonical []*types.Header
	err          error
}

// NewAsyncChainWriter wraps writer with a single background worker.
func NewAsyncChainWriter(writer *ChainWriter) *AsyncChainWriter {
	a := &AsyncChainWriter{
		writer: writer,
		jobs:   make(chan asyncJob),
		closed: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncChainWriter) run() {
	for {
		select {
		case job := <-a.jobs:
			if err := job.ctx.Err(); err != nil {
				job.result <- asyncResult{err: err}
				continue
			}
			newCanonical, oldCanonical, err := a.writer.PersistChain(job.headers)
			job.result <- asyncResult{newCanonical: newCanonical, oldCanonical: oldCanonical, err: err}
		case <-a.closed:
			return
		}
	}
}

// PersistChain submits headers to the single background writer and waits
// for the result, or for ctx to be cancelled first.
func (a *AsyncChainWriter) PersistChain(ctx context.Context, headers []*types.Header) (newCanonical, oldCanonical []*types.Header, err error) {
	result := make(chan asyncResult, 1)
	select {
	case a.jobs <- asyncJob{ctx: ctx, headers: headers, result: result}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-a.closed:
		return nil, nil, context.Canceled
	}
	select {
	case r := <-result:
		return r.newCanonical, r.oldCanonical, r.err
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// Persist is the single-header convenience form of PersistChain.
func (a *AsyncChainWriter) Persist(ctx context.Context, header *types.Header) (newCanonical, oldCanonical []*types.Header, err error) {
	return a.PersistChain(ctx, []*types.Header{header})
}

// Close stops the background worker. Jobs already accepted finish
// running; no new jobs are accepted afterward.
func (a *AsyncChainWriter) Close() {
	a.once.Do(func() { close(a.closed) })
}
