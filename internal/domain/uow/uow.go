package uow

import (
	"context"

	"prescreen-engine/internal/domain/batch"
	"prescreen-engine/internal/domain/lead"
)

// Repos bundles the repositories a transactional flow needs. All of them
// are bound to the same underlying transaction.
type Repos struct {
	Leads   lead.Repository
	Results lead.ResultRepository
	Batches batch.Repository
}

// UnitOfWork runs fn inside one datastore transaction. The orchestrator
// uses it per chunk so that all of a chunk's result rows and lead updates
// commit or roll back together.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}
