package models

import (
	"time"

	"github.com/mizeapp/mize-backend/utils"
	"gorm.io/gorm"
)

// Love is a per-device endorsement of a contender. Toggling removes the row.
type Love struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ContenderID     uint      `gorm:"not null;uniqueIndex:uk_loves_contender_device" json:"contender_id"`
	DeviceToken     string    `gorm:"size:36;not null;uniqueIndex:uk_loves_contender_device" json:"device_token"`
	FingerprintHash string    `gorm:"size:64;not null" json:"fingerprint_hash"`
	CreatedAt       time.Time `json:"created_at"`

	// Relations
	Contender *Contender `gorm:"foreignKey:ContenderID" json:"contender,omitempty"`
}

// TableName returns the table name for the model
func (Love) TableName() string {
	return "loves"
}

// BeforeCreate is called before creating a new record
func (l *Love) BeforeCreate(tx *gorm.DB) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = utils.UTCNow()
	}
	return nil
}

// LoveFilter represents filter criteria for loves
type LoveFilter struct {
	ID          *uint   `json:"id,omitempty"`
	ContenderID *uint   `json:"contender_id,omitempty"`
	DeviceToken *string `json:"device_token,omitempty"`
}
