package audit

import (
	"context"
	"log"
	"time"
)

// Recorder writes audit entries best-effort. A failed write is logged to
// process diagnostics and swallowed so that the primary operation (decrypt,
// firm-offer update, result view) never fails or blocks because of the
// trail. Every sensitive operation attempts exactly one write.
type Recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) *Recorder { return &Recorder{repo: repo} }

// Record fills in the timestamp if unset and appends the entry. It never
// returns an error.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.repo == nil {
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	// Detach from the request deadline: a cancelled request should still get
	// its trail entry, capped by our own short timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := r.repo.Create(ctx, &e); err != nil {
		log.Printf("audit: dropped %s entry for actor %s: %v", e.Action, e.ActorID, err)
	}
}
