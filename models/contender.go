// Package models contains domain entities and business models for the voting system
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mizeapp/mize-backend/utils"
	"gorm.io/gorm"
)

// ContenderStatus represents the visibility/eligibility state of a contender
type ContenderStatus string

const (
	ContenderStatusActive   ContenderStatus = "active"
	ContenderStatusInactive ContenderStatus = "inactive"
	ContenderStatusHidden   ContenderStatus = "hidden"
)

// String returns the string representation of the status
func (s ContenderStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s ContenderStatus) Valid() bool {
	switch s {
	case ContenderStatusActive, ContenderStatusInactive, ContenderStatusHidden:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ContenderStatus
func (s *ContenderStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = ContenderStatus(v)
	case []byte:
		*s = ContenderStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ContenderStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ContenderStatus
func (s ContenderStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ContenderStatus: %s", s)
	}
	return string(s), nil
}

// StringList is a list of strings stored as a JSON column
type StringList []string

// Value implements the driver.Valuer interface for StringList
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for StringList
func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}

	return json.Unmarshal(bytes, l)
}

// Contender represents a masked performer visitors can love, guess at, and vote for
type Contender struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Nickname      string          `gorm:"size:100;not null" json:"nickname"`
	ImagePublicID string          `gorm:"size:255;not null" json:"image_public_id"`
	Videos        StringList      `gorm:"not null" json:"videos"`
	Status        ContenderStatus `gorm:"size:20;not null;default:'active';index:idx_contenders_status" json:"status"`
	CreatedAt     time.Time       `gorm:"index:idx_contenders_created_at" json:"created_at"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`

	// Relations
	Loves   []Love  `gorm:"foreignKey:ContenderID" json:"loves,omitempty"`
	Guesses []Guess `gorm:"foreignKey:ContenderID" json:"guesses,omitempty"`
}

// TableName returns the table name for the model
func (Contender) TableName() string {
	return "contenders"
}

// BeforeCreate is called before creating a new record
func (c *Contender) BeforeCreate(tx *gorm.DB) error {
	if c.Status == "" {
		c.Status = ContenderStatusActive
	}
	if c.Videos == nil {
		c.Videos = StringList{}
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Contender) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// IsVisible reports whether the contender appears on public surfaces
func (c *Contender) IsVisible() bool {
	return c.Status != ContenderStatusHidden
}

// IsVotable reports whether the contender can receive vote selections
func (c *Contender) IsVotable() bool {
	return c.Status == ContenderStatusActive
}

// ContenderFilter represents filter criteria for contenders
type ContenderFilter struct {
	ID            *uint            `json:"id,omitempty"`
	Status        *ContenderStatus `json:"status,omitempty"`
	ExcludeStatus *ContenderStatus `json:"exclude_status,omitempty"`
}
