package retryqueue

import (
	"context"
	"errors"

	"prescreen-engine/internal/domain/actor"
	domain "prescreen-engine/internal/domain/lead"
)

var ErrNoLeads = errors.New("no lead ids given")

// Usecase manages retry-queue membership. The orchestrator flags leads
// automatically on correctable bureau failures; operators toggle membership
// here (admin only). Queued leads stay out of automatic batch selection
// until explicitly dequeued or successfully resubmitted.
type Usecase struct {
	leads domain.Repository
}

func NewUsecase(leads domain.Repository) *Usecase { return &Usecase{leads: leads} }

func (u *Usecase) Enqueue(ctx context.Context, act actor.Actor, leadIDs []string) (int64, error) {
	return u.toggle(ctx, act, leadIDs, true)
}

func (u *Usecase) Dequeue(ctx context.Context, act actor.Actor, leadIDs []string) (int64, error) {
	return u.toggle(ctx, act, leadIDs, false)
}

func (u *Usecase) toggle(ctx context.Context, act actor.Actor, leadIDs []string, queued bool) (int64, error) {
	if !act.IsAdmin() {
		return 0, actor.ErrForbidden
	}
	if len(leadIDs) == 0 {
		return 0, ErrNoLeads
	}
	return u.leads.SetRetryQueued(ctx, leadIDs, queued)
}

func (u *Usecase) ListQueued(ctx context.Context) ([]domain.Lead, error) {
	return u.leads.ListRetryQueued(ctx)
}
