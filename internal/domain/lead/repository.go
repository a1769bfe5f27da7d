package lead

import "context"

// ListFilter narrows List queries. Zero values mean "no filter".
type ListFilter struct {
	Status      Status
	Tier        Tier
	Qualified   *bool
	RetryQueued *bool
	BatchID     *uint64
	ProgramID   string
	// Search matches last name prefix or exact SSN last-four.
	Search string

	SortBy   string // created_at | last_name | middle_score
	SortDesc bool
	Page     int
	PerPage  int
}

// TierCount is a dashboard aggregate row.
type TierCount struct {
	Tier  Tier
	Count int64
}

// ScoreBandCount buckets scored leads for the dashboard.
type ScoreBandCount struct {
	Band  string // "<580", "580-619", "620-679", "680+"
	Count int64
}

type Repository interface {
	Create(ctx context.Context, l *Lead) error
	Save(ctx context.Context, l *Lead) error
	GetByLeadID(ctx context.Context, leadID string) (*Lead, error)
	GetByLeadIDForUpdate(ctx context.Context, leadID string) (*Lead, error)
	List(ctx context.Context, f ListFilter) ([]Lead, int64, error)

	// SelectEligible returns pending leads for a program that are not yet in
	// a batch and not parked in the retry queue, capped at limit.
	SelectEligible(ctx context.Context, programID string, limit int) ([]Lead, error)
	ListByBatch(ctx context.Context, batchPK uint64) ([]Lead, error)
	// SetRetryQueued toggles retry-queue membership for a set of lead ids.
	SetRetryQueued(ctx context.Context, leadIDs []string, queued bool) (int64, error)
	ListRetryQueued(ctx context.Context) ([]Lead, error)

	CountByTier(ctx context.Context) ([]TierCount, error)
	CountByScoreBand(ctx context.Context) ([]ScoreBandCount, error)
	CountHardPulls(ctx context.Context, leadPK uint64) (int64, error)
}

// ResultRepository is append-only: results are never updated or deleted.
type ResultRepository interface {
	Create(ctx context.Context, r *Result) error
	ListByLead(ctx context.Context, leadPK uint64) ([]Result, error)
	ListByBatch(ctx context.Context, batchPK uint64) ([]Result, error)
	// LeadPKsWithResults reports which of the given leads already have result
	// rows for a batch; used by crash recovery to find committed chunks.
	LeadPKsWithResults(ctx context.Context, batchPK uint64) (map[uint64]bool, error)
}
