package mysql

import (
	"context"

	programDomain "prescreen-engine/internal/domain/program"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgramRepository struct{ db *gorm.DB }

func NewProgramRepository(db *gorm.DB) *ProgramRepository { return &ProgramRepository{db: db} }

// Upsert keys on program_id so repeated gateway syncs refresh thresholds
// in place instead of piling up rows.
func (r *ProgramRepository) Upsert(ctx context.Context, p *programDomain.Program) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "program_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "status", "tier1_min", "tier2_min", "tier3_min", "updated_at",
			}),
		}).
		Create(p).Error
}

func (r *ProgramRepository) GetByProgramID(ctx context.Context, programID string) (*programDomain.Program, error) {
	var out programDomain.Program
	res := r.db.WithContext(ctx).Where("program_id = ?", programID).First(&out)
	return &out, res.Error
}

func (r *ProgramRepository) ListActive(ctx context.Context) ([]programDomain.Program, error) {
	var out []programDomain.Program
	res := r.db.WithContext(ctx).
		Where("status = ?", programDomain.StatusActive).
		Order("program_id ASC").
		Find(&out)
	return out, res.Error
}
