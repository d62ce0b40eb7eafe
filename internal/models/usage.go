package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GenerationRecord is one plan generation attempt in the usage ledger.
// Plan content and user metrics are never stored.
type GenerationRecord struct {
	ID         uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	ClientKey  string    `gorm:"size:255;not null;index" json:"client_key"`
	MonthYear  string    `gorm:"size:7" json:"month_year,omitempty"`
	Provider   string    `gorm:"size:32" json:"provider"`
	Outcome    string    `gorm:"size:32;not null;index" json:"outcome"`
	StatusCode int       `gorm:"not null" json:"status_code"`
	DurationMS int64     `gorm:"not null" json:"duration_ms"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns an ID when the caller did not
func (r *GenerationRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
