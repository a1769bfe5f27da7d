package batch

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("batch not found")
	ErrInvalidTransition = errors.New("invalid batch state transition")
	ErrNoEligibleLeads   = errors.New("no eligible leads for batch")
	ErrRecoverInProgress = errors.New("batch recovery already in progress")
)

// Status is the batch lifecycle state. completed and failed are terminal;
// a batch left in processing after a crash stays there until an operator
// runs recovery.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type Batch struct {
	ID      uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	BatchID string `gorm:"column:batch_id;type:char(32);not null;uniqueIndex:ux_batches_batch_id"`
	Name    string `gorm:"column:name;size:120;not null"`

	ProgramID string `gorm:"column:program_id;size:64;not null;index"`
	Status    Status `gorm:"column:status;type:varchar(16);default:'pending';index"`

	TotalRecords   int `gorm:"column:total_records;default:0"`
	QualifiedCount int `gorm:"column:qualified_count;default:0"`
	FailedCount    int `gorm:"column:failed_count;default:0"`

	SubmittedBy    string     `gorm:"column:submitted_by;size:64"`
	SubmitterEmail string     `gorm:"column:submitter_email;size:255"`
	SubmittedAt    *time.Time `gorm:"column:submitted_at"`
	// Recovery lease. Stamped when an operator claims the batch for
	// recovery; a later Recover within the lease window is rejected.
	ClaimedAt    *time.Time `gorm:"column:claimed_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
	ErrorMessage string     `gorm:"column:error_message;type:text"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Batch) TableName() string { return "batches" }
