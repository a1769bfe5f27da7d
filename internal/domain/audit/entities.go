package audit

import "time"

// Action enumerates the sensitive operations that get an audit trail entry.
type Action string

const (
	ActionDecryptSSN       Action = "decrypt_ssn"
	ActionDecryptDOB       Action = "decrypt_dob"
	ActionFirmOfferSent    Action = "firm_offer_sent"
	ActionFirmOfferCleared Action = "firm_offer_cleared"
	ActionViewResults      Action = "view_results"
)

// Entry is one append-only audit row. Entries are never updated or deleted;
// the store exposes create and query only.
type Entry struct {
	ID      uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	LeadID  *uint64 `gorm:"column:lead_id;index"`
	BatchID *uint64 `gorm:"column:batch_id;index"`

	Action     Action `gorm:"column:action;type:varchar(32);not null;index"`
	ActorID    string `gorm:"column:actor_id;size:64;not null;index"`
	ActorEmail string `gorm:"column:actor_email;size:255"`
	IP         string `gorm:"column:ip;size:45"`
	UserAgent  string `gorm:"column:user_agent;size:255"`
	Details    string `gorm:"column:details;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Entry) TableName() string { return "audit_log_entries" }

// QueryFilter narrows audit log queries for compliance review.
type QueryFilter struct {
	Action  Action
	LeadID  *uint64
	ActorID string
	Page    int
	PerPage int
}
