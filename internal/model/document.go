package model

import "time"

// IngestionStatus tracks a document through the background ingestion run.
// PENDING is the only non-terminal state; a record transitions exactly once
// to SUCCESS or FAILED and never back.
type IngestionStatus string

const (
	IngestionPending IngestionStatus = "PENDING"
	IngestionSuccess IngestionStatus = "SUCCESS"
	IngestionFailed  IngestionStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s IngestionStatus) Terminal() bool {
	return s == IngestionSuccess || s == IngestionFailed
}

// Document is the metadata record for one uploaded file. FileReference is
// relative to the configured media root and immutable after creation.
type Document struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	Title           string          `gorm:"size:256;not null" json:"title"`
	FileReference   string          `gorm:"size:512;not null" json:"file_reference"`
	IngestionStatus IngestionStatus `gorm:"size:50;not null;default:'PENDING';index" json:"ingestion_status"`
	IngestionError  string          `gorm:"type:text" json:"ingestion_error,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
