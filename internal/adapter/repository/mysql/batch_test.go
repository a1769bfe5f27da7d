package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "prescreen-engine/internal/domain/batch"
	"prescreen-engine/pkg/id"

	"gorm.io/gorm"
)

func makeBatch(batchID, name string) *domain.Batch {
	return &domain.Batch{
		BatchID:   batchID,
		Name:      name,
		ProgramID: "prog-1",
		Status:    domain.StatusPending,
	}
}

func TestBatch_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewBatchRepository(db)
	ctx := context.Background()

	batchID := id.NewID32()
	b := makeBatch(batchID, "March mailer")
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.ID == 0 {
		t.Fatalf("Create did not set auto-increment ID")
	}

	got, err := repo.GetByBatchID(ctx, batchID)
	if err != nil {
		t.Fatalf("GetByBatchID: %v", err)
	}
	if got.Name != "March mailer" || got.Status != domain.StatusPending {
		t.Errorf("unexpected batch: %+v", got)
	}
}

func TestBatch_GetByBatchID_NotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewBatchRepository(db)

	_, err := repo.GetByBatchID(context.Background(), "ffffffffffffffffffffffffffffffff")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestBatch_SaveLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewBatchRepository(db)
	ctx := context.Background()

	batchID := id.NewID32()
	b := makeBatch(batchID, "April mailer")
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	now := time.Now().UTC()
	b.Status = domain.StatusCompleted
	b.TotalRecords = 40
	b.QualifiedCount = 25
	b.CompletedAt = &now
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByBatchIDForUpdate(ctx, batchID)
	if err != nil {
		t.Fatalf("GetByBatchIDForUpdate: %v", err)
	}
	if got.Status != domain.StatusCompleted || got.QualifiedCount != 25 || got.CompletedAt == nil {
		t.Errorf("lifecycle not persisted: %+v", got)
	}
}

func TestBatch_ListRecent(t *testing.T) {
	db := openTestDB(t)
	repo := NewBatchRepository(db)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		b := makeBatch(id.NewID32(), "b")
		b.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, b); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("recent = %d, want 2", len(got))
	}
	if got[0].CreatedAt.Before(got[1].CreatedAt) {
		t.Fatalf("expected newest first")
	}

	all, total, err := repo.List(ctx, 1, 10)
	if err != nil || total != 4 || len(all) != 4 {
		t.Fatalf("List: len=%d total=%d err=%v", len(all), total, err)
	}
}
