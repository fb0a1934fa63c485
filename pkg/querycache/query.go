// Package querycache holds client-side copies of remote resources and the
// optimistic mutation protocol applied to them.
package querycache

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrCanceled is returned by a fetch whose result was discarded because the
// query changed locally while it ran and there is no data to fall back to.
var ErrCanceled = errors.New("querycache: fetch superseded")

// Fetcher loads the authoritative value of a resource.
type Fetcher[T any] func(ctx context.Context) (T, error)

type inflight struct {
	cancel context.CancelFunc
}

// Query caches one remote resource. Concurrent fetches of the same
// generation share a single call. Any local write (SetData, Cancel, an
// optimistic mutation) starts a new generation so late results of older
// fetches never overwrite it.
type Query[T any] struct {
	key   string
	fetch Fetcher[T]
	group singleflight.Group

	mu      sync.Mutex
	data    T
	hasData bool
	stale   bool
	gen     uint64
	current *inflight
	pending int
	started uint64 // mutations begun so far
}

func New[T any](key string, fetch Fetcher[T]) *Query[T] {
	return &Query[T]{key: key, fetch: fetch, stale: true}
}

func (q *Query[T]) Key() string { return q.key }

// Data returns the cached value without I/O.
func (q *Query[T]) Data() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.data, q.hasData
}

func (q *Query[T]) IsStale() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stale
}

// Pending is the number of optimistic mutations currently in flight.
func (q *Query[T]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Fetch returns cached data when it is fresh and refetches otherwise.
func (q *Query[T]) Fetch(ctx context.Context) (T, error) {
	q.mu.Lock()
	if q.hasData && !q.stale {
		d := q.data
		q.mu.Unlock()
		return d, nil
	}
	q.mu.Unlock()

	return q.Refetch(ctx)
}

// Refetch always asks the fetcher. While a mutation is pending, or if the
// query is written locally during the call, the result is dropped and the
// local value is returned instead.
func (q *Query[T]) Refetch(ctx context.Context) (T, error) {
	q.mu.Lock()
	gen := q.gen
	q.mu.Unlock()

	ch := q.group.DoChan(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return q.run(ctx, gen)
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (q *Query[T]) run(ctx context.Context, gen uint64) (T, error) {
	// the shared call must not die with whichever caller started it
	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	q.mu.Lock()
	if q.gen != gen {
		q.mu.Unlock()
		return q.fallback()
	}
	call := &inflight{cancel: cancel}
	q.current = call
	q.mu.Unlock()

	v, err := q.fetch(fctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == call {
		q.current = nil
	}

	if q.gen != gen || q.pending > 0 {
		if q.hasData {
			return q.data, nil
		}
		var zero T
		return zero, ErrCanceled
	}
	if err != nil {
		var zero T
		return zero, err
	}

	q.data = v
	q.hasData = true
	q.stale = false
	return v, nil
}

func (q *Query[T]) fallback() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.hasData {
		return q.data, nil
	}
	var zero T
	return zero, ErrCanceled
}

// Cancel aborts the in-flight fetch, if any, and discards its result.
func (q *Query[T]) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelLocked()
}

func (q *Query[T]) cancelLocked() {
	q.gen++
	if q.current != nil {
		q.current.cancel()
		q.current = nil
	}
}

// SetData replaces the cached value. In-flight fetches started before the
// call are discarded.
func (q *Query[T]) SetData(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelLocked()
	q.data = v
	q.hasData = true
}

// Restore puts back a value captured earlier; had=false empties the query.
func (q *Query[T]) Restore(v T, had bool) {
	if !had {
		q.Reset()
		return
	}
	q.SetData(v)
}

// MarkStale makes the next Fetch go to the fetcher.
func (q *Query[T]) MarkStale() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stale = true
}

// Invalidate marks the query stale and refetches it.
func (q *Query[T]) Invalidate(ctx context.Context) (T, error) {
	q.MarkStale()
	return q.Refetch(ctx)
}

// Reset drops the cached value.
func (q *Query[T]) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelLocked()
	var zero T
	q.data = zero
	q.hasData = false
	q.stale = true
}

// begin cancels reads, snapshots the value and marks a mutation pending.
// seq identifies the mutation for overlappedSince.
func (q *Query[T]) begin() (snapshot T, had bool, seq uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelLocked()
	q.pending++
	q.started++
	return q.data, q.hasData, q.started
}

// overlappedSince reports whether another mutation began after seq or is
// still in flight alongside it.
func (q *Query[T]) overlappedSince(seq uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.started != seq || q.pending > 1
}

func (q *Query[T]) end() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending > 0 {
		q.pending--
	}
}
