package lead

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prescreen-engine/internal/domain/actor"
	"prescreen-engine/internal/domain/audit"
	"prescreen-engine/internal/domain/batch"
	domain "prescreen-engine/internal/domain/lead"
	"prescreen-engine/pkg/fieldcrypt"
	"prescreen-engine/pkg/id"

	"gorm.io/gorm"
)

const recentBatchLimit = 5

// Usecase covers the admin surface for leads: intake, list/patch,
// dismiss/restore, notes, sensitive-field decryption, firm-offer
// compliance tracking, and dashboard aggregates. Every decrypt and
// firm-offer mutation attempts exactly one audit write.
type Usecase struct {
	leads   domain.Repository
	results domain.ResultRepository
	batches batch.Repository
	enc     *fieldcrypt.Encryptor
	audit   *audit.Recorder
}

func NewUsecase(leads domain.Repository, results domain.ResultRepository, batches batch.Repository, enc *fieldcrypt.Encryptor, rec *audit.Recorder) *Usecase {
	return &Usecase{leads: leads, results: results, batches: batches, enc: enc, audit: rec}
}

func (u *Usecase) Create(ctx context.Context, in CreateLeadInput) (*LeadDTO, error) {
	l := &domain.Lead{
		LeadID:     id.NewID32(),
		FirstName:  in.FirstName,
		MiddleName: in.MiddleName,
		LastName:   in.LastName,
		Street:     in.Street,
		Street2:    in.Street2,
		City:       in.City,
		State:      in.State,
		Zip:        in.Zip,
		Tier:       domain.TierPending,
		Status:     domain.StatusPending,
		ProgramID:  in.ProgramID,
	}
	if in.SSN != "" {
		if err := u.setSSN(l, in.SSN); err != nil {
			return nil, err
		}
	}
	if in.DOB != "" {
		if err := u.setDOB(l, in.DOB); err != nil {
			return nil, err
		}
	}
	if err := u.leads.Create(ctx, l); err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

func (u *Usecase) Get(ctx context.Context, leadID string) (*LeadDTO, error) {
	l, err := u.getLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(l)
	rows, err := u.results.ListByLead(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		dto.Results = append(dto.Results, ResultDTO{Bureau: string(r.Bureau), Score: r.Score, CreatedAt: r.CreatedAt})
	}
	pulls, err := u.leads.CountHardPulls(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	dto.HardPullCount = &pulls
	return dto, nil
}

// List pages through leads. A non-empty batchID narrows the page to one
// batch's members and is resolved against the batch store first.
func (u *Usecase) List(ctx context.Context, f domain.ListFilter, batchID string) (*ListOutput, error) {
	if batchID != "" {
		b, err := u.batches.GetByBatchID(ctx, batchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, batch.ErrNotFound
			}
			return nil, err
		}
		f.BatchID = &b.ID
	}
	rows, total, err := u.leads.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &ListOutput{Total: total, Page: f.Page, PerPage: f.PerPage, Leads: make([]LeadDTO, 0, len(rows))}
	for i := range rows {
		out.Leads = append(out.Leads, *toDTO(&rows[i]))
	}
	return out, nil
}

// Update patches editable fields. Changing the SSN or DOB re-encrypts and
// re-derives the display digest, but deliberately does not clear
// retry_queued: resubmission needs an explicit dequeue or a successful
// later submission.
func (u *Usecase) Update(ctx context.Context, leadID string, in UpdateLeadInput) (*LeadDTO, error) {
	l, err := u.getLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&l.FirstName, in.FirstName)
	apply(&l.MiddleName, in.MiddleName)
	apply(&l.LastName, in.LastName)
	apply(&l.Street, in.Street)
	apply(&l.Street2, in.Street2)
	apply(&l.City, in.City)
	apply(&l.State, in.State)
	apply(&l.Zip, in.Zip)
	if in.SSN != nil {
		if err := u.setSSN(l, *in.SSN); err != nil {
			return nil, err
		}
	}
	if in.DOB != nil {
		if err := u.setDOB(l, *in.DOB); err != nil {
			return nil, err
		}
	}
	if err := u.leads.Save(ctx, l); err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

func (u *Usecase) Dismiss(ctx context.Context, leadID string) (*LeadDTO, error) {
	return u.setStatus(ctx, leadID, domain.StatusDismissed)
}

func (u *Usecase) Restore(ctx context.Context, leadID string) (*LeadDTO, error) {
	return u.setStatus(ctx, leadID, domain.StatusPending)
}

func (u *Usecase) UpdateNotes(ctx context.Context, leadID, notes string) (*LeadDTO, error) {
	l, err := u.getLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	l.Notes = notes
	if err := u.leads.Save(ctx, l); err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

// Decrypt returns the plaintext of one sensitive field for authorized
// display. Admin only; always audit-logged, success or not.
func (u *Usecase) Decrypt(ctx context.Context, act actor.Actor, leadID, field string) (string, error) {
	if !act.IsAdmin() {
		return "", actor.ErrForbidden
	}
	l, err := u.getLead(ctx, leadID)
	if err != nil {
		return "", err
	}
	var ciphertext string
	var action audit.Action
	switch field {
	case "ssn":
		ciphertext, action = l.SSNEncrypted, audit.ActionDecryptSSN
	case "dob":
		ciphertext, action = l.DOBEncrypted, audit.ActionDecryptDOB
	default:
		return "", &fieldcrypt.ValidationError{Field: "field", Message: "must be ssn or dob"}
	}
	if ciphertext == "" {
		return "", domain.ErrNoPlainField
	}
	plain, err := u.enc.Decrypt(ciphertext)
	u.audit.Record(ctx, audit.Entry{
		LeadID:     &l.ID,
		Action:     action,
		ActorID:    act.ID,
		ActorEmail: act.Email,
		IP:         act.IP,
		UserAgent:  act.UserAgent,
		Details:    decryptDetails(err),
	})
	if err != nil {
		return "", err
	}
	return plain, nil
}

func decryptDetails(err error) string {
	if err != nil {
		return "decryption failed"
	}
	return "decrypted for display"
}

// UpdateFirmOffer records whether/when/how the firm-offer notice went out.
// Admin only. The audit write is best-effort and never blocks the update.
func (u *Usecase) UpdateFirmOffer(ctx context.Context, act actor.Actor, leadID string, in FirmOfferInput) (*LeadDTO, error) {
	if !act.IsAdmin() {
		return nil, actor.ErrForbidden
	}
	l, err := u.getLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	action := audit.ActionFirmOfferCleared
	if in.Sent {
		date := in.Date
		if date == nil {
			now := time.Now().UTC()
			date = &now
		}
		l.FirmOfferSent = true
		l.FirmOfferDate = date
		l.FirmOfferMethod = in.Method
		action = audit.ActionFirmOfferSent
	} else {
		l.FirmOfferSent = false
		l.FirmOfferDate = nil
		l.FirmOfferMethod = ""
	}
	if err := u.leads.Save(ctx, l); err != nil {
		return nil, err
	}
	u.audit.Record(ctx, audit.Entry{
		LeadID:     &l.ID,
		Action:     action,
		ActorID:    act.ID,
		ActorEmail: act.Email,
		IP:         act.IP,
		UserAgent:  act.UserAgent,
		Details:    fmt.Sprintf("method=%s", l.FirmOfferMethod),
	})
	return toDTO(l), nil
}

// BatchResults returns the scored leads of one batch. Every view gets an
// audit trail entry tied to the batch.
func (u *Usecase) BatchResults(ctx context.Context, act actor.Actor, batchID string) (*BatchResultsDTO, error) {
	b, err := u.batches.GetByBatchID(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, batch.ErrNotFound
		}
		return nil, err
	}
	rows, err := u.leads.ListByBatch(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	out := &BatchResultsDTO{BatchID: b.BatchID, Name: b.Name, Status: string(b.Status)}
	for i := range rows {
		out.Leads = append(out.Leads, *toDTO(&rows[i]))
	}
	u.audit.Record(ctx, audit.Entry{
		BatchID:    &b.ID,
		Action:     audit.ActionViewResults,
		ActorID:    act.ID,
		ActorEmail: act.Email,
		IP:         act.IP,
		UserAgent:  act.UserAgent,
		Details:    fmt.Sprintf("viewed %d leads", len(rows)),
	})
	return out, nil
}

// Stats feeds the admin dashboard.
func (u *Usecase) Stats(ctx context.Context) (*StatsDTO, error) {
	tiers, err := u.leads.CountByTier(ctx)
	if err != nil {
		return nil, err
	}
	bands, err := u.leads.CountByScoreBand(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := u.batches.ListRecent(ctx, recentBatchLimit)
	if err != nil {
		return nil, err
	}
	out := &StatsDTO{
		ByTier:      make(map[string]int64, len(tiers)),
		ByScoreBand: make(map[string]int64, len(bands)),
	}
	for _, tc := range tiers {
		out.ByTier[string(tc.Tier)] = tc.Count
	}
	for _, bc := range bands {
		out.ByScoreBand[bc.Band] = bc.Count
	}
	for _, b := range recent {
		out.RecentBatches = append(out.RecentBatches, BatchSummary{
			BatchID:        b.BatchID,
			Name:           b.Name,
			Status:         string(b.Status),
			TotalRecords:   b.TotalRecords,
			QualifiedCount: b.QualifiedCount,
			SubmittedAt:    b.SubmittedAt,
		})
	}
	return out, nil
}

func (u *Usecase) setStatus(ctx context.Context, leadID string, st domain.Status) (*LeadDTO, error) {
	l, err := u.getLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	l.Status = st
	if err := u.leads.Save(ctx, l); err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

func (u *Usecase) getLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	l, err := u.leads.GetByLeadID(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

// setSSN normalizes, encrypts and derives the last-four digest in one step
// so the digest invariant (present iff ciphertext present, always matching
// it) cannot drift.
func (u *Usecase) setSSN(l *domain.Lead, raw string) error {
	digits, err := fieldcrypt.NormalizeSSN(raw)
	if err != nil {
		return err
	}
	ct, err := u.enc.Encrypt(digits)
	if err != nil {
		return err
	}
	lf, err := fieldcrypt.LastFour(digits)
	if err != nil {
		return err
	}
	l.SSNEncrypted = ct
	l.SSNLastFour = lf
	return nil
}

func (u *Usecase) setDOB(l *domain.Lead, raw string) error {
	normalized, err := fieldcrypt.NormalizeDOB(raw)
	if err != nil {
		return err
	}
	ct, err := u.enc.Encrypt(normalized)
	if err != nil {
		return err
	}
	l.DOB = normalized
	l.DOBEncrypted = ct
	return nil
}

func toDTO(l *domain.Lead) *LeadDTO {
	return &LeadDTO{
		LeadID:          l.LeadID,
		FirstName:       l.FirstName,
		MiddleName:      l.MiddleName,
		LastName:        l.LastName,
		Street:          l.Street,
		Street2:         l.Street2,
		City:            l.City,
		State:           l.State,
		Zip:             l.Zip,
		SSNLastFour:     l.SSNLastFour,
		DOB:             l.DOB,
		MiddleScore:     l.MiddleScore,
		Tier:            string(l.Tier),
		IsQualified:     l.IsQualified,
		MatchStatus:     l.MatchStatus,
		ErrorMessage:    l.ErrorMessage,
		RetryQueued:     l.RetryQueued,
		Status:          string(l.Status),
		Notes:           l.Notes,
		FirmOfferSent:   l.FirmOfferSent,
		FirmOfferDate:   l.FirmOfferDate,
		FirmOfferMethod: l.FirmOfferMethod,
		ProgramID:       l.ProgramID,
		BatchID:         l.BatchID,
		CreatedAt:       l.CreatedAt,
	}
}
