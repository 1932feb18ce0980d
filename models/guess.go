package models

import (
	"time"

	"github.com/mizeapp/mize-backend/utils"
	"gorm.io/gorm"
)

// Guess is a visitor's free-text identity guess for a contender.
// Repeat submissions from the same device are allowed.
type Guess struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ContenderID     uint      `gorm:"not null;index:idx_guesses_contender" json:"contender_id"`
	DisplayName     string    `gorm:"size:100;not null" json:"display_name"`
	GuessText       string    `gorm:"size:255;not null" json:"guess_text"`
	DeviceToken     string    `gorm:"size:36;not null" json:"device_token"`
	FingerprintHash string    `gorm:"size:64;not null" json:"fingerprint_hash"`
	CreatedAt       time.Time `gorm:"index:idx_guesses_created_at" json:"created_at"`

	// Relations
	Contender *Contender `gorm:"foreignKey:ContenderID" json:"contender,omitempty"`
}

// TableName returns the table name for the model
func (Guess) TableName() string {
	return "guesses"
}

// BeforeCreate is called before creating a new record
func (g *Guess) BeforeCreate(tx *gorm.DB) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = utils.UTCNow()
	}
	return nil
}

// GuessFilter represents filter criteria for guesses
type GuessFilter struct {
	ID          *uint   `json:"id,omitempty"`
	ContenderID *uint   `json:"contender_id,omitempty"`
	DeviceToken *string `json:"device_token,omitempty"`
}
