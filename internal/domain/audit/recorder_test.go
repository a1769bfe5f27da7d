package audit

import (
	"context"
	"errors"
	"testing"
)

type mockRepo struct {
	CreateFn func(ctx context.Context, e *Entry) error
	ListFn   func(ctx context.Context, f QueryFilter) ([]Entry, int64, error)
}

func (m *mockRepo) Create(ctx context.Context, e *Entry) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, e)
	}
	return nil
}

func (m *mockRepo) List(ctx context.Context, f QueryFilter) ([]Entry, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, 0, errors.New("not implemented")
}

func TestRecord_WritesEntry(t *testing.T) {
	var got *Entry
	r := NewRecorder(&mockRepo{
		CreateFn: func(ctx context.Context, e *Entry) error { got = e; return nil },
	})
	r.Record(context.Background(), Entry{Action: ActionDecryptSSN, ActorID: "u1", ActorEmail: "u1@example.com"})
	if got == nil {
		t.Fatal("expected a Create call")
	}
	if got.Action != ActionDecryptSSN || got.ActorID != "u1" {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("timestamp should be filled in")
	}
}

func TestRecord_SwallowsStoreFailure(t *testing.T) {
	r := NewRecorder(&mockRepo{
		CreateFn: func(ctx context.Context, e *Entry) error { return errors.New("store down") },
	})
	// Must not panic or surface the error in any way.
	r.Record(context.Background(), Entry{Action: ActionFirmOfferSent, ActorID: "u1"})
}

func TestRecord_SurvivesCancelledRequest(t *testing.T) {
	called := false
	r := NewRecorder(&mockRepo{
		CreateFn: func(ctx context.Context, e *Entry) error {
			called = true
			if err := ctx.Err(); err != nil {
				t.Fatalf("store ctx already done: %v", err)
			}
			return nil
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Record(ctx, Entry{Action: ActionViewResults, ActorID: "u1"})
	if !called {
		t.Fatal("expected a Create call despite cancelled request context")
	}
}

func TestRecord_NilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.Record(context.Background(), Entry{Action: ActionDecryptDOB})
}
