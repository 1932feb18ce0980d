package models

import (
	"time"

	"github.com/mizeapp/mize-backend/utils"
	"gorm.io/gorm"
)

// Vote is a device's single ballot within a cycle. The composite unique index
// on (cycle_id, device_token) is the authoritative one-vote-per-device guard;
// application-level checks are advisory.
type Vote struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CycleID         uint      `gorm:"not null;uniqueIndex:uk_votes_cycle_device" json:"cycle_id"`
	DeviceToken     string    `gorm:"size:36;not null;uniqueIndex:uk_votes_cycle_device" json:"device_token"`
	DisplayName     string    `gorm:"size:100;not null" json:"display_name"`
	FingerprintHash string    `gorm:"size:64;not null;index:idx_votes_fingerprint" json:"fingerprint_hash"`
	CreatedAt       time.Time `json:"created_at"`

	// Relations
	Cycle      *VoteCycle      `gorm:"foreignKey:CycleID" json:"cycle,omitempty"`
	Selections []VoteSelection `gorm:"foreignKey:VoteID" json:"selections,omitempty"`
}

// TableName returns the table name for the model
func (Vote) TableName() string {
	return "votes"
}

// BeforeCreate is called before creating a new record
func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = utils.UTCNow()
	}
	return nil
}

// VoteSelection links a ballot to one chosen contender
type VoteSelection struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	VoteID      uint `gorm:"not null;index:idx_vote_selections_vote" json:"vote_id"`
	ContenderID uint `gorm:"not null;index:idx_vote_selections_contender" json:"contender_id"`

	// Relations
	Vote      *Vote      `gorm:"foreignKey:VoteID" json:"vote,omitempty"`
	Contender *Contender `gorm:"foreignKey:ContenderID" json:"contender,omitempty"`
}

// TableName returns the table name for the model
func (VoteSelection) TableName() string {
	return "vote_selections"
}

// VoteFilter represents filter criteria for votes
type VoteFilter struct {
	ID              *uint   `json:"id,omitempty"`
	CycleID         *uint   `json:"cycle_id,omitempty"`
	DeviceToken     *string `json:"device_token,omitempty"`
	FingerprintHash *string `json:"fingerprint_hash,omitempty"`
}
