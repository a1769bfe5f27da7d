package mysql

import (
	"context"
	"testing"

	domain "prescreen-engine/internal/domain/audit"
)

func TestAudit_CreateAndList(t *testing.T) {
	db := openTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	leadPK := uint64(5)
	entries := []domain.Entry{
		{Action: domain.ActionDecryptSSN, ActorID: "adm-1", ActorEmail: "a@example.com", LeadID: &leadPK, IP: "10.0.0.1"},
		{Action: domain.ActionDecryptSSN, ActorID: "adm-2", LeadID: &leadPK},
		{Action: domain.ActionFirmOfferSent, ActorID: "adm-1", LeadID: &leadPK},
	}
	for i := range entries {
		if err := repo.Create(ctx, &entries[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, total, err := repo.List(ctx, domain.QueryFilter{Action: domain.ActionDecryptSSN})
	if err != nil {
		t.Fatalf("List by action: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("action filter: total=%d len=%d", total, len(got))
	}

	got, total, err = repo.List(ctx, domain.QueryFilter{ActorID: "adm-1"})
	if err != nil || total != 2 {
		t.Fatalf("actor filter: total=%d err=%v", total, err)
	}
	for _, e := range got {
		if e.ActorID != "adm-1" {
			t.Errorf("wrong actor in result: %+v", e)
		}
	}

	_, total, err = repo.List(ctx, domain.QueryFilter{LeadID: &leadPK})
	if err != nil || total != 3 {
		t.Fatalf("lead filter: total=%d err=%v", total, err)
	}

	// pagination
	got, total, err = repo.List(ctx, domain.QueryFilter{PerPage: 2, Page: 2})
	if err != nil || total != 3 || len(got) != 1 {
		t.Fatalf("pagination: total=%d len=%d err=%v", total, len(got), err)
	}
}
