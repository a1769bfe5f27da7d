package batch

import "context"

type Repository interface {
	Create(ctx context.Context, b *Batch) error
	Save(ctx context.Context, b *Batch) error
	GetByBatchID(ctx context.Context, batchID string) (*Batch, error)
	GetByBatchIDForUpdate(ctx context.Context, batchID string) (*Batch, error)
	List(ctx context.Context, page, perPage int) ([]Batch, int64, error)
	ListRecent(ctx context.Context, limit int) ([]Batch, error)
}
