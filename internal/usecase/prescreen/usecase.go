package prescreen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prescreen-engine/internal/bureau"
	"prescreen-engine/internal/domain/actor"
	"prescreen-engine/internal/domain/batch"
	"prescreen-engine/internal/domain/lead"
	"prescreen-engine/internal/domain/program"
	"prescreen-engine/internal/domain/uow"
	"prescreen-engine/pkg/fieldcrypt"
	"prescreen-engine/pkg/id"
)

// Auto-selection cap per submission; anything beyond waits for the next batch.
const maxAutoSelect = 1000

// Gateway is the slice of the bureau client the orchestrator needs.
type Gateway interface {
	MaxBatchSize() int
	SubmitBatch(ctx context.Context, programID string, records []bureau.Record) (*bureau.SubmitResponse, error)
}

// Usecase owns the batch lifecycle: pending -> processing -> completed|failed.
// processing is entered exactly once; a crash or cancellation mid-batch
// leaves it there until an operator runs Recover. Chunks are submitted
// sequentially and each chunk's writes commit in one transaction.
type Usecase struct {
	uow      uow.UnitOfWork
	leads    lead.Repository
	batches  batch.Repository
	programs program.Repository
	gateway  Gateway
	enc      *fieldcrypt.Encryptor
}

func NewUsecase(tx uow.UnitOfWork, leads lead.Repository, batches batch.Repository, programs program.Repository, gw Gateway, enc *fieldcrypt.Encryptor) *Usecase {
	return &Usecase{uow: tx, leads: leads, batches: batches, programs: programs, gateway: gw, enc: enc}
}

// Submit creates a batch for the program's eligible leads and runs it to a
// terminal state. A gateway-level failure is not an error return: the batch
// comes back with status failed and its unprocessed leads released for
// resubmission. Cancellation mid-flight returns the context error and
// leaves the batch processing for an operator Recover.
func (u *Usecase) Submit(ctx context.Context, act actor.Actor, in SubmitInput) (*BatchDTO, error) {
	prog, err := u.programs.GetByProgramID(ctx, in.ProgramID)
	if err != nil {
		return nil, program.ErrNotFound
	}

	name := in.Name
	if name == "" {
		name = fmt.Sprintf("%s %s", prog.Name, time.Now().UTC().Format("2006-01-02 15:04"))
	}
	b := &batch.Batch{
		BatchID:        id.NewID32(),
		Name:           name,
		ProgramID:      prog.ProgramID,
		Status:         batch.StatusPending,
		SubmittedBy:    act.ID,
		SubmitterEmail: act.Email,
	}

	// Selection and claim share one transaction, and both selection paths
	// read under row locks. A concurrent submission blocks on the locked
	// rows until the claim commits, then sees batch_id already set.
	var selected []lead.Lead
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		selected, err = selectForUpdate(ctx, r.Leads, in)
		if err != nil {
			return err
		}
		if len(selected) == 0 {
			return batch.ErrNoEligibleLeads
		}
		b.TotalRecords = len(selected)
		if err := r.Batches.Create(ctx, b); err != nil {
			return err
		}
		for i := range selected {
			selected[i].BatchID = &b.ID
			if err := r.Leads.Save(ctx, &selected[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	b.Status = batch.StatusProcessing
	b.SubmittedAt = &now
	if err := u.batches.Save(ctx, b); err != nil {
		return nil, err
	}

	if err := u.processLeads(ctx, b, prog, selected); err != nil {
		if ctx.Err() != nil {
			// Leave the batch in processing; never a false terminal state.
			return nil, err
		}
		if failErr := u.failBatch(ctx, b, selected, err); failErr != nil {
			return nil, failErr
		}
		return toBatchDTO(b), nil
	}

	if err := u.finishBatch(ctx, b); err != nil {
		return nil, err
	}
	return toBatchDTO(b), nil
}

// Lease window for a recovery claim. A second Recover inside the window is
// rejected; after it expires the batch is claimable again, covering the
// case where the recovering process itself died.
const recoverLease = 15 * time.Minute

// Recover is the operator-invoked reconciliation for a batch stranded in
// processing. Committed work is re-derived from existing result rows; only
// leads with no results (and not parked in the retry queue) are submitted
// again, so no record is double-pulled.
func (u *Usecase) Recover(ctx context.Context, act actor.Actor, batchID string) (*BatchDTO, error) {
	var (
		b         *batch.Batch
		remainder []lead.Lead
	)
	// Claim the batch under a row lock so two operators cannot recover it
	// at once, and compute the remainder before the claim commits.
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		b, err = r.Batches.GetByBatchIDForUpdate(ctx, batchID)
		if err != nil {
			return batch.ErrNotFound
		}
		if b.Status != batch.StatusProcessing {
			return batch.ErrInvalidTransition
		}
		now := time.Now().UTC()
		if b.ClaimedAt != nil && now.Sub(*b.ClaimedAt) < recoverLease {
			return batch.ErrRecoverInProgress
		}
		b.ClaimedAt = &now
		if err := r.Batches.Save(ctx, b); err != nil {
			return err
		}

		all, err := r.Leads.ListByBatch(ctx, b.ID)
		if err != nil {
			return err
		}
		done, err := r.Results.LeadPKsWithResults(ctx, b.ID)
		if err != nil {
			return err
		}
		for _, l := range all {
			if done[l.ID] || l.RetryQueued || l.Status != lead.StatusPending {
				continue
			}
			remainder = append(remainder, l)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prog, err := u.programs.GetByProgramID(ctx, b.ProgramID)
	if err != nil {
		return nil, program.ErrNotFound
	}

	if len(remainder) > 0 {
		if err := u.processLeads(ctx, b, prog, remainder); err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			if failErr := u.failBatch(ctx, b, remainder, err); failErr != nil {
				return nil, failErr
			}
			return toBatchDTO(b), nil
		}
	}
	if err := u.finishBatch(ctx, b); err != nil {
		return nil, err
	}
	return toBatchDTO(b), nil
}

// selectForUpdate picks the leads a submission will claim. It must run
// inside the claiming transaction: SelectEligible and GetByLeadIDForUpdate
// lock the rows they return until the claim commits.
func selectForUpdate(ctx context.Context, leads lead.Repository, in SubmitInput) ([]lead.Lead, error) {
	if len(in.LeadIDs) == 0 {
		return leads.SelectEligible(ctx, in.ProgramID, maxAutoSelect)
	}
	out := make([]lead.Lead, 0, len(in.LeadIDs))
	for _, lid := range in.LeadIDs {
		l, err := leads.GetByLeadIDForUpdate(ctx, lid)
		if err != nil {
			return nil, lead.ErrNotFound
		}
		if l.Status != lead.StatusPending || l.BatchID != nil {
			return nil, fmt.Errorf("lead %s is not eligible for submission", lid)
		}
		out = append(out, *l)
	}
	return out, nil
}

// processLeads drives sequential chunked gateway calls, persisting each
// chunk's outcomes transactionally before the next call starts.
func (u *Usecase) processLeads(ctx context.Context, b *batch.Batch, prog *program.Program, leads []lead.Lead) error {
	size := u.gateway.MaxBatchSize()
	for start := 0; start < len(leads); start += size {
		end := start + size
		if end > len(leads) {
			end = len(leads)
		}
		chunk := leads[start:end]

		records, localFailures := u.buildRecords(chunk)

		var resp *bureau.SubmitResponse
		if len(records) > 0 {
			var err error
			resp, err = u.gateway.SubmitBatch(ctx, b.ProgramID, records)
			if err != nil {
				return err
			}
		} else {
			resp = &bureau.SubmitResponse{}
		}

		if err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
			return u.applyChunk(ctx, r, b, prog, chunk, resp, localFailures)
		}); err != nil {
			return err
		}
	}
	return nil
}

// buildRecords decrypts PII into submission records. Leads whose SSN is
// missing or undecryptable never reach the gateway; they become local
// failures routed to the retry queue.
func (u *Usecase) buildRecords(chunk []lead.Lead) ([]bureau.Record, map[string]string) {
	records := make([]bureau.Record, 0, len(chunk))
	failures := make(map[string]string)
	for _, l := range chunk {
		if l.SSNEncrypted == "" {
			failures[l.LeadID] = "missing ssn"
			continue
		}
		ssn, err := u.enc.Decrypt(l.SSNEncrypted)
		if err != nil {
			failures[l.LeadID] = "ssn cannot be decrypted"
			continue
		}
		rec := bureau.Record{
			ReferenceID: l.LeadID,
			FirstName:   l.FirstName,
			MiddleName:  l.MiddleName,
			LastName:    l.LastName,
			SSN:         ssn,
			DOB:         l.DOB,
			Street:      l.Street,
			Street2:     l.Street2,
			City:        l.City,
			State:       l.State,
			Zip:         l.Zip,
		}
		records = append(records, rec)
	}
	return records, failures
}

func (u *Usecase) applyChunk(ctx context.Context, r uow.Repos, b *batch.Batch, prog *program.Program, chunk []lead.Lead, resp *bureau.SubmitResponse, localFailures map[string]string) error {
	outcomes := make(map[string]bureau.Outcome, len(resp.Outcomes))
	for _, o := range resp.Outcomes {
		outcomes[o.ReferenceID] = o
	}
	rejections := make(map[string]string, len(resp.Failures))
	for _, f := range resp.Failures {
		rejections[f.ReferenceID] = f.Reason
	}

	for i := range chunk {
		l := &chunk[i]
		switch {
		case localFailures[l.LeadID] != "":
			markFailed(l, lead.MatchMismatch, localFailures[l.LeadID])
		case rejections[l.LeadID] != "":
			markFailed(l, lead.MatchMismatch, rejections[l.LeadID])
		default:
			o, ok := outcomes[l.LeadID]
			if !ok {
				markFailed(l, lead.MatchNoHit, "no outcome returned by bureau")
				break
			}
			if err := u.applyOutcome(ctx, r, b, prog, l, o); err != nil {
				return err
			}
		}
		if err := r.Leads.Save(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// applyOutcome writes one result row per bureau and reclassifies the lead.
// Result rows double as the committed-chunk marker Recover keys on.
func (u *Usecase) applyOutcome(ctx context.Context, r uow.Repos, b *batch.Batch, prog *program.Program, l *lead.Lead, o bureau.Outcome) error {
	raw := string(o.Raw)
	rows := []lead.Result{
		{LeadID: l.ID, BatchID: &b.ID, Bureau: lead.BureauExperian, Score: o.Scores.Experian, RawResponse: raw},
		{LeadID: l.ID, BatchID: &b.ID, Bureau: lead.BureauEquifax, Score: o.Scores.Equifax, RawResponse: raw},
		{LeadID: l.ID, BatchID: &b.ID, Bureau: lead.BureauTransUnion, Score: o.Scores.TransUnion, RawResponse: raw},
	}
	for i := range rows {
		if err := r.Results.Create(ctx, &rows[i]); err != nil {
			return err
		}
	}

	switch o.MatchStatus {
	case bureau.MatchNoHit, bureau.MatchMismatch:
		l.MiddleScore = nil
		l.Tier = lead.TierFiltered
		l.IsQualified = false
		l.MatchStatus = o.MatchStatus
		l.RetryQueued = true
	default:
		mid := MiddleScore([]*int{o.Scores.Experian, o.Scores.Equifax, o.Scores.TransUnion})
		tier, qualified := Classify(mid, prog)
		l.MiddleScore = mid
		l.Tier = tier
		l.IsQualified = qualified
		l.MatchStatus = o.MatchStatus
		l.RetryQueued = false
		l.ErrorMessage = ""
	}
	return nil
}

func markFailed(l *lead.Lead, matchStatus, reason string) {
	l.MatchStatus = matchStatus
	l.ErrorMessage = reason
	l.RetryQueued = true
	l.IsQualified = false
	l.Tier = lead.TierFiltered
}

// failBatch marks the batch failed and releases the leads that never got an
// outcome so they can go into a fresh batch. Lead status is untouched.
func (u *Usecase) failBatch(ctx context.Context, b *batch.Batch, claimed []lead.Lead, cause error) error {
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		done, err := r.Results.LeadPKsWithResults(ctx, b.ID)
		if err != nil {
			return err
		}
		for i := range claimed {
			l := &claimed[i]
			if done[l.ID] {
				continue
			}
			l.BatchID = nil
			if err := r.Leads.Save(ctx, l); err != nil {
				return err
			}
		}
		now := time.Now().UTC()
		b.Status = batch.StatusFailed
		b.CompletedAt = &now
		b.ErrorMessage = cause.Error()
		return r.Batches.Save(ctx, b)
	})
}

// finishBatch recomputes the counters from the leads actually in the batch
// and closes it out.
func (u *Usecase) finishBatch(ctx context.Context, b *batch.Batch) error {
	all, err := u.leads.ListByBatch(ctx, b.ID)
	if err != nil {
		return err
	}
	qualified, failed := 0, 0
	for _, l := range all {
		if l.IsQualified {
			qualified++
		}
		if l.RetryQueued {
			failed++
		}
	}
	now := time.Now().UTC()
	b.Status = batch.StatusCompleted
	b.CompletedAt = &now
	b.TotalRecords = len(all)
	b.QualifiedCount = qualified
	b.FailedCount = failed
	return u.batches.Save(ctx, b)
}

// Rename updates a batch's display name.
func (u *Usecase) Rename(ctx context.Context, batchID, name string) (*BatchDTO, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}
	b, err := u.batches.GetByBatchID(ctx, batchID)
	if err != nil {
		return nil, batch.ErrNotFound
	}
	b.Name = name
	if err := u.batches.Save(ctx, b); err != nil {
		return nil, err
	}
	return toBatchDTO(b), nil
}

// Get returns one batch by public id.
func (u *Usecase) Get(ctx context.Context, batchID string) (*BatchDTO, error) {
	b, err := u.batches.GetByBatchID(ctx, batchID)
	if err != nil {
		return nil, batch.ErrNotFound
	}
	return toBatchDTO(b), nil
}

// List returns batches, newest first, with a total count for pagination.
func (u *Usecase) List(ctx context.Context, page, perPage int) ([]BatchDTO, int64, error) {
	rows, total, err := u.batches.List(ctx, page, perPage)
	if err != nil {
		return nil, 0, err
	}
	out := make([]BatchDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toBatchDTO(&rows[i]))
	}
	return out, total, nil
}

func toBatchDTO(b *batch.Batch) *BatchDTO {
	return &BatchDTO{
		BatchID:        b.BatchID,
		Name:           b.Name,
		ProgramID:      b.ProgramID,
		Status:         string(b.Status),
		TotalRecords:   b.TotalRecords,
		QualifiedCount: b.QualifiedCount,
		FailedCount:    b.FailedCount,
		SubmittedBy:    b.SubmittedBy,
		SubmitterEmail: b.SubmitterEmail,
		SubmittedAt:    b.SubmittedAt,
		CompletedAt:    b.CompletedAt,
		ErrorMessage:   b.ErrorMessage,
		CreatedAt:      b.CreatedAt,
	}
}
