package prescreen

import "time"

type SubmitInput struct {
	ProgramID string   `json:"program_id" validate:"required"`
	Name      string   `json:"name" validate:"max=120"`
	LeadIDs   []string `json:"lead_ids,omitempty" validate:"dive,hex32"` // empty = auto-select eligible leads
}

type BatchDTO struct {
	BatchID        string     `json:"batch_id"`
	Name           string     `json:"name"`
	ProgramID      string     `json:"program_id"`
	Status         string     `json:"status"`
	TotalRecords   int        `json:"total_records"`
	QualifiedCount int        `json:"qualified_count"`
	FailedCount    int        `json:"failed_count"`
	SubmittedBy    string     `json:"submitted_by"`
	SubmitterEmail string     `json:"submitter_email"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
