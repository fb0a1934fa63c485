package querycache

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Phase is the state of one optimistic mutation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseOptimistic
	PhaseCommitted
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseOptimistic:
		return "optimistic-applied"
	case PhaseCommitted:
		return "settled-success"
	case PhaseRolledBack:
		return "settled-error-rolled-back"
	default:
		return "idle"
	}
}

// Mutation runs snapshot → speculative apply → commit-or-revert against a
// Query. A Mutation value is single-use.
type Mutation[T, R any] struct {
	Query *Query[T]

	// Project returns the expected value after the change. It must not modify
	// its argument, which is the rollback snapshot. Nil means the mutation has
	// no local projection.
	Project func(current T) T

	// Commit performs the remote call.
	Commit func(ctx context.Context) (R, error)

	// OnCommit replaces the default reconciliation (Invalidate) on success.
	OnCommit func(ctx context.Context, q *Query[T], result R)

	phase Phase
}

func (m *Mutation[T, R]) Phase() Phase { return m.phase }

// Run executes the mutation. On error the query holds exactly the snapshot
// taken at the start and the Commit error is returned unchanged. When other
// mutations overlapped this one the snapshot may already be outdated, so the
// query is also marked stale and refetched.
func (m *Mutation[T, R]) Run(ctx context.Context) (R, error) {
	q := m.Query
	snapshot, had, seq := q.begin()

	released := false
	release := func() {
		if !released {
			released = true
			q.end()
		}
	}
	defer release()

	if m.Project != nil {
		q.SetData(m.Project(snapshot))
		m.phase = PhaseOptimistic
	}

	result, err := m.Commit(ctx)
	if err != nil {
		m.phase = PhaseRolledBack
		if m.Project == nil {
			return result, err
		}

		overlapped := q.overlappedSince(seq)
		q.Restore(snapshot, had)
		if overlapped {
			q.MarkStale()
			release()
			if _, rerr := q.Refetch(ctx); rerr != nil {
				log.Warn().Err(rerr).Str("query", q.Key()).Msg("querycache: reconcile after overlapped rollback failed")
			}
		}
		return result, err
	}

	m.phase = PhaseCommitted
	// release before reconciling so the refetch result is accepted
	release()

	if m.OnCommit != nil {
		m.OnCommit(ctx, q, result)
		return result, nil
	}

	if _, rerr := q.Invalidate(ctx); rerr != nil {
		log.Warn().Err(rerr).Str("query", q.Key()).Msg("querycache: reconcile after mutation failed")
	}
	return result, nil
}
