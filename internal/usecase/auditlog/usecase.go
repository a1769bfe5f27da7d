package auditlog

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"prescreen-engine/internal/domain/actor"
	"prescreen-engine/internal/domain/audit"
	lead "prescreen-engine/internal/domain/lead"
)

// Usecase serves the compliance view over the append-only audit trail.
// Read only; entries are written by the lead and batch flows.
type Usecase struct {
	repo  audit.Repository
	leads lead.Repository
}

func NewUsecase(repo audit.Repository, leads lead.Repository) *Usecase {
	return &Usecase{repo: repo, leads: leads}
}

type ListInput struct {
	Action  string
	LeadID  string
	ActorID string
	Page    int
	PerPage int
}

type EntryDTO struct {
	Action     string    `json:"action"`
	ActorID    string    `json:"actor_id"`
	ActorEmail string    `json:"actor_email,omitempty"`
	IP         string    `json:"ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListOutput struct {
	Entries []EntryDTO `json:"entries"`
	Total   int64      `json:"total"`
	Page    int        `json:"page"`
	PerPage int        `json:"per_page"`
}

// List returns audit entries newest first. Admin only. A lead_id filter is
// resolved against the lead store; an unknown lead is a not-found error
// rather than a silently empty page.
func (u *Usecase) List(ctx context.Context, act actor.Actor, in ListInput) (*ListOutput, error) {
	if !act.IsAdmin() {
		return nil, actor.ErrForbidden
	}
	if in.Page < 1 {
		in.Page = 1
	}
	if in.PerPage < 1 {
		in.PerPage = 20
	}

	f := audit.QueryFilter{
		Action:  audit.Action(in.Action),
		ActorID: in.ActorID,
		Page:    in.Page,
		PerPage: in.PerPage,
	}
	if in.LeadID != "" {
		l, err := u.leads.GetByLeadID(ctx, in.LeadID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, lead.ErrNotFound
			}
			return nil, err
		}
		f.LeadID = &l.ID
	}

	rows, total, err := u.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &ListOutput{
		Entries: make([]EntryDTO, 0, len(rows)),
		Total:   total,
		Page:    in.Page,
		PerPage: in.PerPage,
	}
	for _, e := range rows {
		out.Entries = append(out.Entries, EntryDTO{
			Action:     string(e.Action),
			ActorID:    e.ActorID,
			ActorEmail: e.ActorEmail,
			IP:         e.IP,
			UserAgent:  e.UserAgent,
			Details:    e.Details,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out, nil
}
