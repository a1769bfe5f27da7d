package retryqueue

import (
	"context"
	"errors"
	"testing"

	"prescreen-engine/internal/domain/actor"
	domain "prescreen-engine/internal/domain/lead"
	"prescreen-engine/internal/testutil/memstore"
	"prescreen-engine/pkg/id"
)

var (
	adminActor    = actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}
	operatorActor = actor.Actor{ID: "op-1", Role: actor.RoleOperator}
)

func seedLead(t *testing.T, s *memstore.Store) string {
	t.Helper()
	l := &domain.Lead{LeadID: id.NewID32(), FirstName: "Ann", LastName: "Lee",
		Tier: domain.TierPending, Status: domain.StatusPending, ProgramID: "prog-1"}
	if err := s.Leads().Create(context.Background(), l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return l.LeadID
}

func TestEnqueueDequeue(t *testing.T) {
	s := memstore.New()
	uc := NewUsecase(s.Leads())
	a, b := seedLead(t, s), seedLead(t, s)

	n, err := uc.Enqueue(context.Background(), adminActor, []string{a, b})
	if err != nil || n != 2 {
		t.Fatalf("Enqueue: n=%d err=%v", n, err)
	}
	queued, err := uc.ListQueued(context.Background())
	if err != nil || len(queued) != 2 {
		t.Fatalf("ListQueued: %d, %v", len(queued), err)
	}

	// Dequeuing one lead leaves exactly the other in the queue.
	if _, err := uc.Dequeue(context.Background(), adminActor, []string{a}); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	queued, _ = uc.ListQueued(context.Background())
	if len(queued) != 1 || queued[0].LeadID != b {
		t.Fatalf("queue after dequeue: %+v", queued)
	}
}

func TestEnqueue_ExcludesFromEligibleSelection(t *testing.T) {
	s := memstore.New()
	uc := NewUsecase(s.Leads())
	a, b := seedLead(t, s), seedLead(t, s)

	if _, err := uc.Enqueue(context.Background(), adminActor, []string{a}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	eligible, err := s.Leads().SelectEligible(context.Background(), "prog-1", 100)
	if err != nil {
		t.Fatalf("SelectEligible: %v", err)
	}
	if len(eligible) != 1 || eligible[0].LeadID != b {
		t.Fatalf("eligible = %+v, want only %s", eligible, b)
	}
}

func TestToggle_NonAdminForbidden(t *testing.T) {
	s := memstore.New()
	uc := NewUsecase(s.Leads())
	a := seedLead(t, s)
	if _, err := uc.Enqueue(context.Background(), operatorActor, []string{a}); !errors.Is(err, actor.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestToggle_EmptyInput(t *testing.T) {
	s := memstore.New()
	uc := NewUsecase(s.Leads())
	if _, err := uc.Enqueue(context.Background(), adminActor, nil); !errors.Is(err, ErrNoLeads) {
		t.Fatalf("err = %v, want ErrNoLeads", err)
	}
}
