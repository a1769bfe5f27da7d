package program

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("program not found")

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Program is a bureau-side prescreen product. Rows mirror the gateway's
// program listing and are read-mostly; score thresholds drive the tier
// classifier.
type Program struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	ProgramID string `gorm:"column:program_id;size:64;not null;uniqueIndex:ux_programs_program_id"`
	Name      string `gorm:"column:name;size:120;not null"`
	Status    Status `gorm:"column:status;type:varchar(16);default:'active'"`

	Tier1Min int `gorm:"column:tier1_min;not null"`
	Tier2Min int `gorm:"column:tier2_min;not null"`
	Tier3Min int `gorm:"column:tier3_min;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Program) TableName() string { return "programs" }
