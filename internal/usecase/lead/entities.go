package lead

import "time"

type CreateLeadInput struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	MiddleName string `json:"middle_name" validate:"max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Street     string `json:"street" validate:"max=255"`
	Street2    string `json:"street2" validate:"max=255"`
	City       string `json:"city" validate:"max=100"`
	State      string `json:"state" validate:"omitempty,len=2"`
	Zip        string `json:"zip" validate:"max=10"`
	SSN        string `json:"ssn" validate:"omitempty,ssn"`
	DOB        string `json:"dob" validate:"omitempty,dob"`
	ProgramID  string `json:"program_id" validate:"required"`
}

// UpdateLeadInput patches editable fields; nil means "leave unchanged".
// SSN and DOB are re-validated, normalized and re-encrypted on change.
type UpdateLeadInput struct {
	FirstName  *string `json:"first_name,omitempty"`
	MiddleName *string `json:"middle_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Street     *string `json:"street,omitempty"`
	Street2    *string `json:"street2,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	Zip        *string `json:"zip,omitempty"`
	SSN        *string `json:"ssn,omitempty"`
	DOB        *string `json:"dob,omitempty"`
}

type FirmOfferInput struct {
	Sent   bool       `json:"sent"`
	Method string     `json:"method,omitempty"` // mail | email
	Date   *time.Time `json:"date,omitempty"`
}

type ResultDTO struct {
	Bureau    string    `json:"bureau"`
	Score     *int      `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

type LeadDTO struct {
	LeadID     string `json:"lead_id"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name"`
	Street     string `json:"street,omitempty"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Zip        string `json:"zip,omitempty"`

	SSNLastFour string `json:"ssn_last_four,omitempty"`
	DOB         string `json:"dob,omitempty"`

	MiddleScore  *int   `json:"middle_score"`
	Tier         string `json:"tier"`
	IsQualified  bool   `json:"is_qualified"`
	MatchStatus  string `json:"match_status,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	RetryQueued bool   `json:"retry_queued"`
	Status      string `json:"status"`
	Notes       string `json:"notes,omitempty"`

	FirmOfferSent   bool       `json:"firm_offer_sent"`
	FirmOfferDate   *time.Time `json:"firm_offer_date,omitempty"`
	FirmOfferMethod string     `json:"firm_offer_method,omitempty"`

	ProgramID string    `json:"program_id"`
	BatchID   *uint64   `json:"-"`
	CreatedAt time.Time `json:"created_at"`

	// Detail view only.
	Results       []ResultDTO `json:"results,omitempty"`
	HardPullCount *int64      `json:"hard_pull_count,omitempty"`
}

type ListOutput struct {
	Leads   []LeadDTO `json:"leads"`
	Total   int64     `json:"total"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
}

type BatchResultsDTO struct {
	BatchID string    `json:"batch_id"`
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Leads   []LeadDTO `json:"leads"`
}

type BatchSummary struct {
	BatchID        string     `json:"batch_id"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	TotalRecords   int        `json:"total_records"`
	QualifiedCount int        `json:"qualified_count"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
}

type StatsDTO struct {
	ByTier        map[string]int64 `json:"by_tier"`
	ByScoreBand   map[string]int64 `json:"by_score_band"`
	RecentBatches []BatchSummary   `json:"recent_batches"`
}
