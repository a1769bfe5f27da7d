package audit

import "context"

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, f QueryFilter) ([]Entry, int64, error)
}
