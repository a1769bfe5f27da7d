package bureau

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotConfigured means the gateway credentials are incomplete. The
	// client stays constructible so the connectivity check can report this
	// state distinctly from a reachable-but-erroring gateway.
	ErrNotConfigured = errors.New("bureau: gateway not configured")
	// ErrGatewayUnavailable is surfaced after the retry budget is exhausted
	// on network or 5xx failures.
	ErrGatewayUnavailable = errors.New("bureau: gateway unavailable")
	// ErrGatewayTimeout is a hung or slow upstream; retryable like
	// ErrGatewayUnavailable.
	ErrGatewayTimeout = errors.New("bureau: gateway timeout")
)

// Config holds gateway credentials and tuning. Zero Timeout/MaxBatchSize/
// MaxAttempts get the defaults below.
type Config struct {
	BaseURL   string
	Username  string
	Password  string
	CompanyID string

	Timeout      time.Duration
	MaxBatchSize int
	MaxAttempts  int
}

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBatchSize = 100
	defaultMaxAttempts  = 3

	// Refresh the cached token this long before its expiry so an in-flight
	// call never rides a token that lapses mid-request.
	refreshBuffer = 5 * time.Minute
)

// Record is one applicant as submitted for a soft pull. SSN is the
// normalized 9-digit value; decryption happens in the orchestrator just
// before submission and the plaintext never touches the datastore.
type Record struct {
	ReferenceID string `json:"referenceId"`
	FirstName   string `json:"firstName"`
	MiddleName  string `json:"middleName,omitempty"`
	LastName    string `json:"lastName"`
	SSN         string `json:"ssn"`
	DOB         string `json:"dob,omitempty"`
	Street      string `json:"street"`
	Street2     string `json:"street2,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
}

// Program is a prescreen product as listed by the gateway.
type Program struct {
	ProgramID string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Tier1Min  int    `json:"tier1Min"`
	Tier2Min  int    `json:"tier2Min"`
	Tier3Min  int    `json:"tier3Min"`
}

// Match status strings the gateway reports per record.
const (
	MatchHit      = "hit"
	MatchNoHit    = "no_hit"
	MatchMismatch = "mismatch"
)

// Scores carries up to three bureau scores; nil means that bureau returned
// no score for the record.
type Scores struct {
	Experian   *int `json:"experian"`
	Equifax    *int `json:"equifax"`
	TransUnion *int `json:"transunion"`
}

// Outcome is one scored (or matched-but-unscored) record.
type Outcome struct {
	ReferenceID string          `json:"referenceId"`
	MatchStatus string          `json:"matchStatus"`
	Scores      Scores          `json:"scores"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// Failure is a per-record rejection for a correctable reason (bad address,
// malformed field). These records belong in the retry queue, not a new
// gateway call.
type Failure struct {
	ReferenceID string `json:"referenceId"`
	Reason      string `json:"reason"`
}

// SubmitResponse splits a batch call into scored outcomes and per-record
// failures. A transport or auth failure of the whole call is an error
// return instead.
type SubmitResponse struct {
	Outcomes []Outcome `json:"results"`
	Failures []Failure `json:"failures"`
}

// Connectivity states reported by Check.
const (
	StatusOK            = "ok"
	StatusNotConfigured = "not_configured"
	StatusUnreachable   = "unreachable"
)
