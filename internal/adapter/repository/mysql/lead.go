package mysql

import (
	"context"

	leadDomain "prescreen-engine/internal/domain/lead"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeadRepository struct{ db *gorm.DB }

func NewLeadRepository(db *gorm.DB) *LeadRepository { return &LeadRepository{db: db} }

func (r *LeadRepository) Create(ctx context.Context, l *leadDomain.Lead) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LeadRepository) Save(ctx context.Context, l *leadDomain.Lead) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LeadRepository) GetByLeadID(ctx context.Context, leadID string) (*leadDomain.Lead, error) {
	var out leadDomain.Lead
	res := r.db.WithContext(ctx).Where("lead_id = ?", leadID).First(&out)
	return &out, res.Error
}

func (r *LeadRepository) GetByLeadIDForUpdate(ctx context.Context, leadID string) (*leadDomain.Lead, error) {
	var out leadDomain.Lead
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("lead_id = ?", leadID).
		First(&out)
	return &out, res.Error
}

// sortColumns whitelists sortable columns so ListFilter.SortBy can never
// reach the query as raw SQL.
var sortColumns = map[string]string{
	"created_at":   "created_at",
	"last_name":    "last_name",
	"middle_score": "middle_score",
}

func (r *LeadRepository) List(ctx context.Context, f leadDomain.ListFilter) ([]leadDomain.Lead, int64, error) {
	q := r.db.WithContext(ctx).Model(&leadDomain.Lead{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Tier != "" {
		q = q.Where("tier = ?", f.Tier)
	}
	if f.Qualified != nil {
		q = q.Where("is_qualified = ?", *f.Qualified)
	}
	if f.RetryQueued != nil {
		q = q.Where("retry_queued = ?", *f.RetryQueued)
	}
	if f.BatchID != nil {
		q = q.Where("batch_id = ?", *f.BatchID)
	}
	if f.ProgramID != "" {
		q = q.Where("program_id = ?", f.ProgramID)
	}
	if f.Search != "" {
		q = q.Where("last_name LIKE ? OR ssn_last_four = ?", f.Search+"%", f.Search)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	q = q.Order(col + " " + dir + ", id " + dir)

	if f.PerPage > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * f.PerPage).Limit(f.PerPage)
	}

	var out []leadDomain.Lead
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// SelectEligible is a claiming read: the returned rows stay locked until
// the surrounding transaction commits.
func (r *LeadRepository) SelectEligible(ctx context.Context, programID string, limit int) ([]leadDomain.Lead, error) {
	var out []leadDomain.Lead
	q := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("program_id = ? AND status = ? AND batch_id IS NULL AND retry_queued = ?",
			programID, leadDomain.StatusPending, false).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return out, q.Find(&out).Error
}

func (r *LeadRepository) ListByBatch(ctx context.Context, batchPK uint64) ([]leadDomain.Lead, error) {
	var out []leadDomain.Lead
	res := r.db.WithContext(ctx).
		Where("batch_id = ?", batchPK).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

func (r *LeadRepository) SetRetryQueued(ctx context.Context, leadIDs []string, queued bool) (int64, error) {
	if len(leadIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&leadDomain.Lead{}).
		Where("lead_id IN ?", leadIDs).
		Update("retry_queued", queued)
	return res.RowsAffected, res.Error
}

func (r *LeadRepository) ListRetryQueued(ctx context.Context) ([]leadDomain.Lead, error) {
	var out []leadDomain.Lead
	res := r.db.WithContext(ctx).
		Where("retry_queued = ?", true).
		Order("updated_at ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *LeadRepository) CountByTier(ctx context.Context) ([]leadDomain.TierCount, error) {
	var out []leadDomain.TierCount
	res := r.db.WithContext(ctx).Model(&leadDomain.Lead{}).
		Select("tier, COUNT(*) AS count").
		Group("tier").
		Order("tier ASC").
		Scan(&out)
	return out, res.Error
}

func (r *LeadRepository) CountByScoreBand(ctx context.Context) ([]leadDomain.ScoreBandCount, error) {
	var out []leadDomain.ScoreBandCount
	res := r.db.WithContext(ctx).Raw(`
		SELECT CASE
			WHEN middle_score >= 680 THEN '680+'
			WHEN middle_score >= 620 THEN '620-679'
			WHEN middle_score >= 580 THEN '580-619'
			ELSE '<580'
		END AS band, COUNT(*) AS count
		FROM leads
		WHERE middle_score IS NOT NULL AND deleted_at IS NULL
		GROUP BY band
		ORDER BY band ASC`).
		Scan(&out)
	return out, res.Error
}

func (r *LeadRepository) CountHardPulls(ctx context.Context, leadPK uint64) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).Model(&leadDomain.HardPull{}).
		Where("lead_id = ?", leadPK).
		Count(&n)
	return n, res.Error
}

// ResultRepository is append-only; there is deliberately no Save or Delete.
type ResultRepository struct{ db *gorm.DB }

func NewResultRepository(db *gorm.DB) *ResultRepository { return &ResultRepository{db: db} }

func (r *ResultRepository) Create(ctx context.Context, res *leadDomain.Result) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *ResultRepository) ListByLead(ctx context.Context, leadPK uint64) ([]leadDomain.Result, error) {
	var out []leadDomain.Result
	res := r.db.WithContext(ctx).
		Where("lead_id = ?", leadPK).
		Order("created_at ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *ResultRepository) ListByBatch(ctx context.Context, batchPK uint64) ([]leadDomain.Result, error) {
	var out []leadDomain.Result
	res := r.db.WithContext(ctx).
		Where("batch_id = ?", batchPK).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

func (r *ResultRepository) LeadPKsWithResults(ctx context.Context, batchPK uint64) (map[uint64]bool, error) {
	var pks []uint64
	res := r.db.WithContext(ctx).Model(&leadDomain.Result{}).
		Distinct("lead_id").
		Where("batch_id = ?", batchPK).
		Pluck("lead_id", &pks)
	if res.Error != nil {
		return nil, res.Error
	}
	out := make(map[uint64]bool, len(pks))
	for _, pk := range pks {
		out[pk] = true
	}
	return out, nil
}
