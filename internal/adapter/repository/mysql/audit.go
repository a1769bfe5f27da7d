package mysql

import (
	"context"

	auditDomain "prescreen-engine/internal/domain/audit"

	"gorm.io/gorm"
)

// AuditRepository only ever inserts and reads; entries are immutable.
type AuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) *AuditRepository { return &AuditRepository{db: db} }

func (r *AuditRepository) Create(ctx context.Context, e *auditDomain.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *AuditRepository) List(ctx context.Context, f auditDomain.QueryFilter) ([]auditDomain.Entry, int64, error) {
	q := r.db.WithContext(ctx).Model(&auditDomain.Entry{})

	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.LeadID != nil {
		q = q.Where("lead_id = ?", *f.LeadID)
	}
	if f.ActorID != "" {
		q = q.Where("actor_id = ?", f.ActorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order("created_at DESC, id DESC")
	if f.PerPage > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * f.PerPage).Limit(f.PerPage)
	}

	var out []auditDomain.Entry
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
