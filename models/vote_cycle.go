package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/mizeapp/mize-backend/utils"
	"gorm.io/gorm"
)

// CycleStatus is the computed lifecycle state of a voting cycle.
// It is never stored; always derived from the cycle's timestamps.
type CycleStatus string

const (
	CycleStatusScheduled CycleStatus = "scheduled"
	CycleStatusActive    CycleStatus = "active"
	CycleStatusEnded     CycleStatus = "ended"
	CycleStatusClosed    CycleStatus = "closed"
)

// String returns the string representation of the status
func (s CycleStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CycleStatus) Valid() bool {
	switch s {
	case CycleStatusScheduled, CycleStatusActive, CycleStatusEnded, CycleStatusClosed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CycleStatus
func (s *CycleStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CycleStatus(v)
	case []byte:
		*s = CycleStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CycleStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CycleStatus
func (s CycleStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CycleStatus: %s", s)
	}
	return string(s), nil
}

// VoteCycle represents a time-bounded voting window
type VoteCycle struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	StartAt         time.Time  `gorm:"not null;index:idx_vote_cycles_start_at" json:"start_at"`
	EndAt           time.Time  `gorm:"not null" json:"end_at"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	MaxVotesPerUser int        `gorm:"not null;default:3" json:"max_votes_per_user"`
	CreatedAt       time.Time  `json:"created_at"`

	// Relations
	Votes []Vote `gorm:"foreignKey:CycleID" json:"votes,omitempty"`
}

// TableName returns the table name for the model
func (VoteCycle) TableName() string {
	return "vote_cycles"
}

// BeforeCreate is called before creating a new record
func (vc *VoteCycle) BeforeCreate(tx *gorm.DB) error {
	if vc.MaxVotesPerUser <= 0 {
		vc.MaxVotesPerUser = DefaultMaxVotesPerUser
	}
	if vc.CreatedAt.IsZero() {
		vc.CreatedAt = utils.UTCNow()
	}
	return nil
}

// DefaultMaxVotesPerUser is the per-device selection cap applied when a cycle
// is created without an explicit limit.
const DefaultMaxVotesPerUser = 3

// StatusAt computes the lifecycle state of the cycle at the given instant.
// A manual close wins over the timestamps regardless of when it happened.
func (vc *VoteCycle) StatusAt(now time.Time) CycleStatus {
	if vc.ClosedAt != nil {
		return CycleStatusClosed
	}
	if now.Before(vc.StartAt) {
		return CycleStatusScheduled
	}
	if !now.Before(vc.EndAt) {
		return CycleStatusEnded
	}
	return CycleStatusActive
}

// IsVotableAt reports whether the cycle accepts votes at the given instant.
// The start boundary is inclusive, the end boundary exclusive.
func (vc *VoteCycle) IsVotableAt(now time.Time) bool {
	return vc.ClosedAt == nil && !now.Before(vc.StartAt) && now.Before(vc.EndAt)
}

// IsEffectivelyOpen reports whether the cycle has never been manually closed.
// A cycle whose end timestamp has passed but was never closed still counts as
// open for scheduling purposes and occupies its time slot.
func (vc *VoteCycle) IsEffectivelyOpen() bool {
	return vc.ClosedAt == nil
}

// EffectiveEndAt returns the instant the cycle actually stopped accepting
// votes: the manual close time when present, the scheduled end otherwise.
func (vc *VoteCycle) EffectiveEndAt() time.Time {
	if vc.ClosedAt != nil && vc.ClosedAt.Before(vc.EndAt) {
		return *vc.ClosedAt
	}
	return vc.EndAt
}

// VoteCycleFilter represents filter criteria for vote cycles
type VoteCycleFilter struct {
	ID        *uint `json:"id,omitempty"`
	OpenOnly  *bool `json:"open_only,omitempty"`
	ExcludeID *uint `json:"exclude_id,omitempty"`
}
