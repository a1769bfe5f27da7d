package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"prescreen-engine/internal/domain/audit"
	"prescreen-engine/internal/domain/batch"
	"prescreen-engine/internal/domain/lead"
	"prescreen-engine/internal/domain/program"
	"gorm.io/gorm"
)

// ---- lead.Repository ----

type leadRepo struct{ s *Store }

func (r leadRepo) Create(ctx context.Context, l *lead.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = r.s.id()
	cp := *l
	r.s.leads[l.ID] = &cp
	r.s.byLeadID[l.LeadID] = l.ID
	return nil
}

func (r leadRepo) Save(ctx context.Context, l *lead.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.ID == 0 {
		return errors.New("memstore: save of unstored lead")
	}
	cp := *l
	r.s.leads[l.ID] = &cp
	r.s.byLeadID[l.LeadID] = l.ID
	return nil
}

func (r leadRepo) GetByLeadID(ctx context.Context, leadID string) (*lead.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	pk, ok := r.s.byLeadID[leadID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r.s.leads[pk]
	return &cp, nil
}

func (r leadRepo) GetByLeadIDForUpdate(ctx context.Context, leadID string) (*lead.Lead, error) {
	return r.GetByLeadID(ctx, leadID)
}

func (r leadRepo) List(ctx context.Context, f lead.ListFilter) ([]lead.Lead, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []lead.Lead
	for _, l := range r.s.sortedLeads() {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.Tier != "" && l.Tier != f.Tier {
			continue
		}
		if f.Qualified != nil && l.IsQualified != *f.Qualified {
			continue
		}
		if f.RetryQueued != nil && l.RetryQueued != *f.RetryQueued {
			continue
		}
		if f.BatchID != nil && (l.BatchID == nil || *l.BatchID != *f.BatchID) {
			continue
		}
		if f.ProgramID != "" && l.ProgramID != f.ProgramID {
			continue
		}
		if f.Search != "" && !strings.HasPrefix(strings.ToLower(l.LastName), strings.ToLower(f.Search)) && l.SSNLastFour != f.Search {
			continue
		}
		out = append(out, *l)
	}
	total := int64(len(out))
	if f.PerPage > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		lo := (page - 1) * f.PerPage
		if lo > len(out) {
			lo = len(out)
		}
		hi := lo + f.PerPage
		if hi > len(out) {
			hi = len(out)
		}
		out = out[lo:hi]
	}
	return out, total, nil
}

func (r leadRepo) SelectEligible(ctx context.Context, programID string, limit int) ([]lead.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []lead.Lead
	for _, l := range r.s.sortedLeads() {
		if l.Status != lead.StatusPending || l.BatchID != nil || l.RetryQueued || l.ProgramID != programID {
			continue
		}
		out = append(out, *l)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r leadRepo) ListByBatch(ctx context.Context, batchPK uint64) ([]lead.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []lead.Lead
	for _, l := range r.s.sortedLeads() {
		if l.BatchID != nil && *l.BatchID == batchPK {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r leadRepo) SetRetryQueued(ctx context.Context, leadIDs []string, queued bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, lid := range leadIDs {
		if pk, ok := r.s.byLeadID[lid]; ok {
			r.s.leads[pk].RetryQueued = queued
			n++
		}
	}
	return n, nil
}

func (r leadRepo) ListRetryQueued(ctx context.Context) ([]lead.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []lead.Lead
	for _, l := range r.s.sortedLeads() {
		if l.RetryQueued {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r leadRepo) CountByTier(ctx context.Context) ([]lead.TierCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := make(map[lead.Tier]int64)
	for _, l := range r.s.leads {
		counts[l.Tier]++
	}
	out := make([]lead.TierCount, 0, len(counts))
	for tier, n := range counts {
		out = append(out, lead.TierCount{Tier: tier, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out, nil
}

func (r leadRepo) CountByScoreBand(ctx context.Context) ([]lead.ScoreBandCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[string]int64{}
	for _, l := range r.s.leads {
		if l.MiddleScore == nil {
			continue
		}
		switch s := *l.MiddleScore; {
		case s >= 680:
			counts["680+"]++
		case s >= 620:
			counts["620-679"]++
		case s >= 580:
			counts["580-619"]++
		default:
			counts["<580"]++
		}
	}
	out := make([]lead.ScoreBandCount, 0, len(counts))
	for band, n := range counts {
		out = append(out, lead.ScoreBandCount{Band: band, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Band < out[j].Band })
	return out, nil
}

func (r leadRepo) CountHardPulls(ctx context.Context, leadPK uint64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.pulls {
		if p.LeadID == leadPK {
			n++
		}
	}
	return n, nil
}

// ---- lead.ResultRepository ----

type resultRepo struct{ s *Store }

func (r resultRepo) Create(ctx context.Context, res *lead.Result) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res.ID = r.s.id()
	r.s.results = append(r.s.results, *res)
	return nil
}

func (r resultRepo) ListByLead(ctx context.Context, leadPK uint64) ([]lead.Result, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []lead.Result
	for _, res := range r.s.results {
		if res.LeadID == leadPK {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r resultRepo) ListByBatch(ctx context.Context, batchPK uint64) ([]lead.Result, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []lead.Result
	for _, res := range r.s.results {
		if res.BatchID != nil && *res.BatchID == batchPK {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r resultRepo) LeadPKsWithResults(ctx context.Context, batchPK uint64) (map[uint64]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uint64]bool)
	for _, res := range r.s.results {
		if res.BatchID != nil && *res.BatchID == batchPK {
			out[res.LeadID] = true
		}
	}
	return out, nil
}

// ---- batch.Repository ----

type batchRepo struct{ s *Store }

func (r batchRepo) Create(ctx context.Context, b *batch.Batch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b.ID = r.s.id()
	cp := *b
	r.s.batches[b.ID] = &cp
	r.s.byBatch[b.BatchID] = b.ID
	return nil
}

func (r batchRepo) Save(ctx context.Context, b *batch.Batch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *b
	r.s.batches[b.ID] = &cp
	r.s.byBatch[b.BatchID] = b.ID
	return nil
}

func (r batchRepo) GetByBatchID(ctx context.Context, batchID string) (*batch.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	pk, ok := r.s.byBatch[batchID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r.s.batches[pk]
	return &cp, nil
}

func (r batchRepo) GetByBatchIDForUpdate(ctx context.Context, batchID string) (*batch.Batch, error) {
	return r.GetByBatchID(ctx, batchID)
}

func (r batchRepo) List(ctx context.Context, page, perPage int) ([]batch.Batch, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.s.sortedBatches()
	total := int64(len(out))
	if perPage > 0 {
		if page < 1 {
			page = 1
		}
		lo := (page - 1) * perPage
		if lo > len(out) {
			lo = len(out)
		}
		hi := lo + perPage
		if hi > len(out) {
			hi = len(out)
		}
		out = out[lo:hi]
	}
	return out, total, nil
}

func (r batchRepo) ListRecent(ctx context.Context, limit int) ([]batch.Batch, error) {
	out, _, err := r.List(ctx, 1, limit)
	return out, err
}

// ---- program.Repository ----

type programRepo struct{ s *Store }

func (r programRepo) Upsert(ctx context.Context, p *program.Program) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.programs[p.ProgramID]; ok {
		p.ID = existing.ID
	} else {
		p.ID = r.s.id()
	}
	cp := *p
	r.s.programs[p.ProgramID] = &cp
	return nil
}

func (r programRepo) GetByProgramID(ctx context.Context, programID string) (*program.Program, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.programs[programID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r programRepo) ListActive(ctx context.Context) ([]program.Program, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []program.Program
	for _, p := range r.s.programs {
		if p.Status == program.StatusActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProgramID < out[j].ProgramID })
	return out, nil
}

// ---- audit.Repository ----

type auditRepo struct{ s *Store }

func (r auditRepo) Create(ctx context.Context, e *audit.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.AuditCreateErr != nil {
		return r.s.AuditCreateErr
	}
	e.ID = r.s.id()
	r.s.audits = append(r.s.audits, *e)
	return nil
}

func (r auditRepo) List(ctx context.Context, f audit.QueryFilter) ([]audit.Entry, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []audit.Entry
	for _, e := range r.s.audits {
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.LeadID != nil && (e.LeadID == nil || *e.LeadID != *f.LeadID) {
			continue
		}
		if f.ActorID != "" && e.ActorID != f.ActorID {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}
