package mysql

import (
	"context"

	batchDomain "prescreen-engine/internal/domain/batch"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BatchRepository struct{ db *gorm.DB }

func NewBatchRepository(db *gorm.DB) *BatchRepository { return &BatchRepository{db: db} }

func (r *BatchRepository) Create(ctx context.Context, b *batchDomain.Batch) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BatchRepository) Save(ctx context.Context, b *batchDomain.Batch) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *BatchRepository) GetByBatchID(ctx context.Context, batchID string) (*batchDomain.Batch, error) {
	var out batchDomain.Batch
	res := r.db.WithContext(ctx).Where("batch_id = ?", batchID).First(&out)
	return &out, res.Error
}

func (r *BatchRepository) GetByBatchIDForUpdate(ctx context.Context, batchID string) (*batchDomain.Batch, error) {
	var out batchDomain.Batch
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("batch_id = ?", batchID).
		First(&out)
	return &out, res.Error
}

func (r *BatchRepository) List(ctx context.Context, page, perPage int) ([]batchDomain.Batch, int64, error) {
	q := r.db.WithContext(ctx).Model(&batchDomain.Batch{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order("created_at DESC, id DESC")
	if perPage > 0 {
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * perPage).Limit(perPage)
	}

	var out []batchDomain.Batch
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *BatchRepository) ListRecent(ctx context.Context, limit int) ([]batchDomain.Batch, error) {
	var out []batchDomain.Batch
	res := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out)
	return out, res.Error
}
