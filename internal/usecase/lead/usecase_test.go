package lead

import (
	"context"
	"errors"
	"testing"

	"prescreen-engine/internal/domain/actor"
	"prescreen-engine/internal/domain/audit"
	domain "prescreen-engine/internal/domain/lead"
	"prescreen-engine/internal/testutil/memstore"
	"prescreen-engine/pkg/fieldcrypt"
)

const testEncKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

var (
	adminActor    = actor.Actor{ID: "admin-1", Email: "admin@example.com", Role: actor.RoleAdmin, IP: "10.0.0.1", UserAgent: "go-test"}
	operatorActor = actor.Actor{ID: "op-1", Email: "op@example.com", Role: actor.RoleOperator}
)

type fixture struct {
	store *memstore.Store
	uc    *Usecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	enc, err := fieldcrypt.New(testEncKey)
	if err != nil {
		t.Fatalf("fieldcrypt.New: %v", err)
	}
	store := memstore.New()
	uc := NewUsecase(store.Leads(), store.Results(), store.Batches(), enc, audit.NewRecorder(store.AuditLog()))
	return &fixture{store: store, uc: uc}
}

func (f *fixture) createLead(t *testing.T, ssn, dob string) *LeadDTO {
	t.Helper()
	dto, err := f.uc.Create(context.Background(), CreateLeadInput{
		FirstName: "Ann", LastName: "Lee",
		Street: "1 Main St", City: "Austin", State: "TX", Zip: "78701",
		SSN: ssn, DOB: dob, ProgramID: "prog-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return dto
}

func TestCreate_EncryptsAndDerivesLastFour(t *testing.T) {
	f := newFixture(t)
	dto := f.createLead(t, "123-45-6789", "04/17/1990")

	if dto.SSNLastFour != "6789" {
		t.Fatalf("ssn_last_four = %q, want 6789", dto.SSNLastFour)
	}
	if dto.DOB != "1990-04-17" {
		t.Fatalf("dob = %q, want 1990-04-17", dto.DOB)
	}
	if dto.Tier != string(domain.TierPending) {
		t.Fatalf("tier = %s, want pending until a bureau result exists", dto.Tier)
	}

	// Stored row holds ciphertext only; no plaintext SSN anywhere.
	l, err := f.store.Leads().GetByLeadID(context.Background(), dto.LeadID)
	if err != nil {
		t.Fatalf("GetByLeadID: %v", err)
	}
	if l.SSNEncrypted == "" || l.SSNEncrypted == "123456789" {
		t.Fatalf("ssn_encrypted = %q", l.SSNEncrypted)
	}
	if l.DOBEncrypted == "" {
		t.Fatal("dob_encrypted empty")
	}
}

func TestCreate_RejectsMalformedSSN(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Create(context.Background(), CreateLeadInput{
		FirstName: "Ann", LastName: "Lee", SSN: "12345", ProgramID: "prog-1",
	})
	var ve *fieldcrypt.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
}

func TestDecrypt_AdminGetsPlaintextAndOneAuditEntry(t *testing.T) {
	f := newFixture(t)
	dto := f.createLead(t, "123456789", "")

	plain, err := f.uc.Decrypt(context.Background(), adminActor, dto.LeadID, "ssn")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plain != "123456789" {
		t.Fatalf("plaintext = %q", plain)
	}

	entries := f.store.Audits()
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want exactly 1", len(entries))
	}
	e := entries[0]
	if e.Action != audit.ActionDecryptSSN || e.ActorID != adminActor.ID || e.ActorEmail != adminActor.Email {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.IP != adminActor.IP || e.UserAgent != adminActor.UserAgent {
		t.Fatalf("entry missing request attribution: %+v", e)
	}
}

func TestDecrypt_NonAdminForbidden(t *testing.T) {
	f := newFixture(t)
	dto := f.createLead(t, "123456789", "")

	_, err := f.uc.Decrypt(context.Background(), operatorActor, dto.LeadID, "ssn")
	if !errors.Is(err, actor.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if n := len(f.store.Audits()); n != 0 {
		t.Fatalf("audit entries = %d, want 0 for a forbidden call", n)
	}
}

func TestDecrypt_DOBAndUnknownField(t *testing.T) {
	f := newFixture(t)
	dto := f.createLead(t, "123456789", "1990-04-17")

	plain, err := f.uc.Decrypt(context.Background(), adminActor, dto.LeadID, "dob")
	if err != nil || plain != "1990-04-17" {
		t.Fatalf("Decrypt dob = %q, %v", plain, err)
	}
	if _, err := f.uc.Decrypt(context.Background(), adminActor, dto.LeadID, "phone"); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestUpdate_ChangesSSNWithoutClearingRetryQueue(t *testing.T) {
	f := newFixture(t)
	dto := f.createLead(t, "123456789", "")
	if _, err := f.store.Leads().SetRetryQueued(context.Background(), []string{dto.LeadID}, true); err != nil {
		t.Fatalf("SetRetryQueued: %v", err)
	}

	newSSN := "987-65-4321"
	updated, err := f.uc.Update(context.Background(), dto.LeadID, UpdateLeadInput{SSN: &newSSN})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.SSNLastFour != "4321" {
		t.Fatalf("ssn_last_four = %q, want 4321", updated.SSNLastFour)
	}
	if !updated.RetryQueued {
		t.Fatal("editing a lead must not auto-clear retry_queued")
	}
}

func TestDismissRestore(t *testing.T) {
	f := newFixture(t)
	dto := f.createLead(t, "123456789", "")

	dismissed, err := f.uc.Dismiss(context.Background(), dto.LeadID)
	if err != nil || dismissed.Status != string(domain.StatusDismissed) {
		t.Fatalf("Dismiss: %v, status %s", err, dismissed.Status)
	}
	restored, err := f.uc.Restore(context.Background(), dto.LeadID)
	if err != nil || restored.Status != string(domain.StatusPending) {
		t.Fatalf("Restore: %v, status %s", err, restored.Status)
	}
}

func TestUpdateFirmOffer_SetAndClear(t *testing.T) {
	f := newFixture(t)
	dto := f.createLead(t, "123456789", "")

	sent, err := f.uc.UpdateFirmOffer(context.Background(), adminActor, dto.LeadID, FirmOfferInput{Sent: true, Method: "mail"})
	if err != nil {
		t.Fatalf("UpdateFirmOffer: %v", err)
	}
	if !sent.FirmOfferSent || sent.FirmOfferDate == nil || sent.FirmOfferMethod != "mail" {
		t.Fatalf("firm offer not recorded: %+v", sent)
	}

	cleared, err := f.uc.UpdateFirmOffer(context.Background(), adminActor, dto.LeadID, FirmOfferInput{Sent: false})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.FirmOfferSent || cleared.FirmOfferDate != nil {
		t.Fatalf("firm offer not cleared: %+v", cleared)
	}

	entries := f.store.Audits()
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(entries))
	}
	if entries[0].Action != audit.ActionFirmOfferSent || entries[1].Action != audit.ActionFirmOfferCleared {
		t.Fatalf("actions = %s, %s", entries[0].Action, entries[1].Action)
	}
}

func TestUpdateFirmOffer_NonAdminForbidden(t *testing.T) {
	f := newFixture(t)
	dto := f.createLead(t, "123456789", "")
	if _, err := f.uc.UpdateFirmOffer(context.Background(), operatorActor, dto.LeadID, FirmOfferInput{Sent: true}); !errors.Is(err, actor.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestUpdateFirmOffer_AuditOutageDoesNotFailUpdate(t *testing.T) {
	f := newFixture(t)
	dto := f.createLead(t, "123456789", "")
	f.store.AuditCreateErr = errors.New("audit store down")

	updated, err := f.uc.UpdateFirmOffer(context.Background(), adminActor, dto.LeadID, FirmOfferInput{Sent: true, Method: "email"})
	if err != nil {
		t.Fatalf("UpdateFirmOffer must not surface audit failures: %v", err)
	}
	if !updated.FirmOfferSent {
		t.Fatal("firm offer fields must still be updated")
	}
	l, _ := f.store.Leads().GetByLeadID(context.Background(), dto.LeadID)
	if !l.FirmOfferSent || l.FirmOfferMethod != "email" {
		t.Fatalf("stored lead: %+v", l)
	}
}

func TestGet_IncludesResultsAndHardPullCount(t *testing.T) {
	f := newFixture(t)
	dto := f.createLead(t, "123456789", "")
	stored, _ := f.store.Leads().GetByLeadID(context.Background(), dto.LeadID)
	score := 700
	_ = f.store.Results().Create(context.Background(), &domain.Result{LeadID: stored.ID, Bureau: domain.BureauExperian, Score: &score})
	f.store.AddHardPull(stored.ID, "lender-9")
	f.store.AddHardPull(stored.ID, "lender-9")

	got, err := f.uc.Get(context.Background(), dto.LeadID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Results) != 1 || *got.Results[0].Score != 700 {
		t.Fatalf("results: %+v", got.Results)
	}
	if got.HardPullCount == nil || *got.HardPullCount != 2 {
		t.Fatalf("hard pulls: %v", got.HardPullCount)
	}
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.uc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.createLead(t, "123456789", "")
	f.createLead(t, "234567891", "")

	stats, err := f.uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ByTier[string(domain.TierPending)] != 2 {
		t.Fatalf("by_tier: %+v", stats.ByTier)
	}
}
