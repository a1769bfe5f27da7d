// Package memstore holds in-memory implementations of the domain
// repositories for scenario tests. There is no rollback; WithinTx models
// only the mutual exclusion of transactions, by serializing them.
package memstore

import (
	"context"
	"sort"
	"sync"

	"prescreen-engine/internal/domain/audit"
	"prescreen-engine/internal/domain/batch"
	"prescreen-engine/internal/domain/lead"
	"prescreen-engine/internal/domain/program"
	"prescreen-engine/internal/domain/uow"
)

// Store is the shared backing state. Per-aggregate repository views are
// obtained from the accessor methods below.
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	nextID   uint64
	leads    map[uint64]*lead.Lead
	byLeadID map[string]uint64
	results  []lead.Result
	pulls    []lead.HardPull
	batches  map[uint64]*batch.Batch
	byBatch  map[string]uint64
	programs map[string]*program.Program
	audits   []audit.Entry

	// AuditCreateErr, when set, makes audit writes fail (store outage).
	AuditCreateErr error
}

func New() *Store {
	return &Store{
		leads:    make(map[uint64]*lead.Lead),
		byLeadID: make(map[string]uint64),
		batches:  make(map[uint64]*batch.Batch),
		byBatch:  make(map[string]uint64),
		programs: make(map[string]*program.Program),
	}
}

func (s *Store) id() uint64 { s.nextID++; return s.nextID }

func (s *Store) Leads() lead.Repository { return leadRepo{s} }

func (s *Store) Results() lead.ResultRepository { return resultRepo{s} }

func (s *Store) Batches() batch.Repository { return batchRepo{s} }

func (s *Store) Programs() program.Repository { return programRepo{s} }

func (s *Store) AuditLog() audit.Repository { return auditRepo{s} }

// WithinTx satisfies uow.UnitOfWork. Transactions run one at a time, so a
// claiming read inside one cannot interleave with another's writes.
func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(uow.Repos{Leads: s.Leads(), Results: s.Results(), Batches: s.Batches()})
}

// AddHardPull seeds a hard-pull row for tests.
func (s *Store) AddHardPull(leadPK uint64, pulledBy string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulls = append(s.pulls, lead.HardPull{LeadID: leadPK, PulledBy: pulledBy})
}

// Audits returns a snapshot of everything recorded so far.
func (s *Store) Audits() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Entry(nil), s.audits...)
}

func (s *Store) sortedLeads() []*lead.Lead {
	pks := make([]uint64, 0, len(s.leads))
	for pk := range s.leads {
		pks = append(pks, pk)
	}
	sort.Slice(pks, func(i, j int) bool { return pks[i] < pks[j] })
	out := make([]*lead.Lead, 0, len(pks))
	for _, pk := range pks {
		out = append(out, s.leads[pk])
	}
	return out
}

func (s *Store) sortedBatches() []batch.Batch {
	pks := make([]uint64, 0, len(s.batches))
	for pk := range s.batches {
		pks = append(pks, pk)
	}
	// newest first
	sort.Slice(pks, func(i, j int) bool { return pks[i] > pks[j] })
	out := make([]batch.Batch, 0, len(pks))
	for _, pk := range pks {
		out = append(out, *s.batches[pk])
	}
	return out
}
