package lead

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("lead not found")
	ErrDismissed    = errors.New("lead is dismissed")
	ErrNoPlainField = errors.New("lead has no encrypted value for that field")
)

// Status is the workflow state of a lead. Dismissed leads are excluded from
// batch selection but retained for compliance.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDismissed Status = "dismissed"
)

// Tier is the qualification bucket derived from the middle score.
type Tier string

const (
	TierPending  Tier = "pending"
	Tier1        Tier = "tier_1"
	Tier2        Tier = "tier_2"
	Tier3        Tier = "tier_3"
	TierBelow    Tier = "below"
	TierFiltered Tier = "filtered"
)

// Bureau names the three credit bureaus a Result can come from.
type Bureau string

const (
	BureauExperian   Bureau = "experian"
	BureauEquifax    Bureau = "equifax"
	BureauTransUnion Bureau = "transunion"
)

// Match status values reported by the bureau gateway per record.
const (
	MatchHit      = "hit"
	MatchNoHit    = "no_hit"
	MatchMismatch = "mismatch"
)

type Lead struct {
	ID     uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	LeadID string `gorm:"column:lead_id;type:char(32);not null;uniqueIndex:ux_leads_lead_id"`

	FirstName  string `gorm:"column:first_name;size:100;not null"`
	MiddleName string `gorm:"column:middle_name;size:100"`
	LastName   string `gorm:"column:last_name;size:100;not null"`
	Street     string `gorm:"column:street;size:255"`
	Street2    string `gorm:"column:street2;size:255"`
	City       string `gorm:"column:city;size:100"`
	State      string `gorm:"column:state;size:2"`
	Zip        string `gorm:"column:zip;size:10"`

	// Sensitive fields. Full values only as ciphertext; the last-four digest
	// is present iff the encrypted SSN is.
	SSNEncrypted string `gorm:"column:ssn_encrypted;type:text"`
	SSNLastFour  string `gorm:"column:ssn_last_four;type:char(4);index"`
	DOB          string `gorm:"column:dob;type:char(10)"` // display-only YYYY-MM-DD
	DOBEncrypted string `gorm:"column:dob_encrypted;type:text"`

	MiddleScore  *int   `gorm:"column:middle_score"`
	Tier         Tier   `gorm:"column:tier;type:varchar(16);default:'pending';index"`
	IsQualified  bool   `gorm:"column:is_qualified;default:false;index"`
	MatchStatus  string `gorm:"column:match_status;size:32"`
	ErrorMessage string `gorm:"column:error_message;type:text"`

	RetryQueued bool   `gorm:"column:retry_queued;default:false;index"`
	Status      Status `gorm:"column:status;type:varchar(16);default:'pending';index"`
	Notes       string `gorm:"column:notes;type:text"`

	FirmOfferSent   bool       `gorm:"column:firm_offer_sent;default:false"`
	FirmOfferDate   *time.Time `gorm:"column:firm_offer_date"`
	FirmOfferMethod string     `gorm:"column:firm_offer_method;size:32"`

	ProgramID string  `gorm:"column:program_id;size:64;index"`
	BatchID   *uint64 `gorm:"column:batch_id;index"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Lead) TableName() string { return "leads" }

// Result is one bureau's response for a lead. Rows are immutable once
// written; a correction inserts a new row rather than rewriting history.
type Result struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	LeadID      uint64    `gorm:"column:lead_id;not null;index"`
	BatchID     *uint64   `gorm:"column:batch_id;index"`
	Bureau      Bureau    `gorm:"column:bureau;type:varchar(16);not null"`
	Score       *int      `gorm:"column:score"`
	RawResponse string    `gorm:"column:raw_response;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Result) TableName() string { return "results" }

// HardPull records a hard credit inquiry against a lead. Only the count is
// ever surfaced; rows exist for compliance auditing.
type HardPull struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	LeadID    uint64    `gorm:"column:lead_id;not null;index"`
	PulledBy  string    `gorm:"column:pulled_by;size:64"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (HardPull) TableName() string { return "hard_pulls" }
