package program

import "context"

type Repository interface {
	// Upsert inserts or refreshes a program by its gateway program_id.
	Upsert(ctx context.Context, p *Program) error
	GetByProgramID(ctx context.Context, programID string) (*Program, error)
	ListActive(ctx context.Context) ([]Program, error)
}
