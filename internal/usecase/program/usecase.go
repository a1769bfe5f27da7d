package program

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"prescreen-engine/internal/bureau"
	domain "prescreen-engine/internal/domain/program"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKey = "programs:active"
	cacheTTL = 10 * time.Minute
)

// Lister is the slice of the bureau client this usecase needs.
type Lister interface {
	ListPrograms(ctx context.Context) ([]bureau.Program, error)
}

// Usecase keeps the local program table in sync with the gateway's listing
// and serves reads through a short-lived redis cache. The local rows are
// the source the classifier reads thresholds from, so reads never depend
// on gateway availability.
type Usecase struct {
	repo    domain.Repository
	gateway Lister
	rdb     *redis.Client
}

func NewUsecase(repo domain.Repository, gw Lister, rdb *redis.Client) *Usecase {
	return &Usecase{repo: repo, gateway: gw, rdb: rdb}
}

type ProgramDTO struct {
	ProgramID string `json:"program_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Tier1Min  int    `json:"tier1_min"`
	Tier2Min  int    `json:"tier2_min"`
	Tier3Min  int    `json:"tier3_min"`
}

// Sync pulls the gateway listing and upserts it locally, then drops the
// read cache. Called on a schedule and from the admin refresh action.
func (u *Usecase) Sync(ctx context.Context) (int, error) {
	listed, err := u.gateway.ListPrograms(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range listed {
		status := domain.StatusActive
		if p.Status == string(domain.StatusInactive) {
			status = domain.StatusInactive
		}
		row := &domain.Program{
			ProgramID: p.ProgramID,
			Name:      p.Name,
			Status:    status,
			Tier1Min:  p.Tier1Min,
			Tier2Min:  p.Tier2Min,
			Tier3Min:  p.Tier3Min,
		}
		if err := u.repo.Upsert(ctx, row); err != nil {
			return 0, err
		}
	}
	u.invalidate(ctx)
	return len(listed), nil
}

// List serves active programs, cache first.
func (u *Usecase) List(ctx context.Context) ([]ProgramDTO, error) {
	if u.rdb != nil {
		if raw, err := u.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []ProgramDTO
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}
	rows, err := u.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProgramDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, ProgramDTO{
			ProgramID: p.ProgramID,
			Name:      p.Name,
			Status:    string(p.Status),
			Tier1Min:  p.Tier1Min,
			Tier2Min:  p.Tier2Min,
			Tier3Min:  p.Tier3Min,
		})
	}
	if u.rdb != nil {
		if raw, err := json.Marshal(out); err == nil {
			if err := u.rdb.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
				log.Printf("program cache: set failed: %v", err)
			}
		}
	}
	return out, nil
}

func (u *Usecase) invalidate(ctx context.Context) {
	if u.rdb == nil {
		return
	}
	if err := u.rdb.Del(ctx, cacheKey).Err(); err != nil {
		log.Printf("program cache: invalidate failed: %v", err)
	}
}
