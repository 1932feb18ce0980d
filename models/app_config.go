package models

import (
	"time"

	"github.com/mizeapp/mize-backend/utils"
	"gorm.io/gorm"
)

// AppConfigID is the fixed primary key of the settings singleton row.
const AppConfigID uint = 1

// AppConfig is a single-row table holding runtime-tunable settings.
type AppConfig struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ShowLikeButton bool       `gorm:"not null;default:true" json:"show_like_button"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (AppConfig) TableName() string {
	return "app_configs"
}

// BeforeCreate pins the singleton row to its fixed ID
func (a *AppConfig) BeforeCreate(tx *gorm.DB) error {
	a.ID = AppConfigID
	return nil
}

// BeforeUpdate is called before updating the record
func (a *AppConfig) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	a.UpdatedAt = &now
	return nil
}

// DefaultAppConfig returns the settings used until an admin changes them.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{ID: AppConfigID, ShowLikeButton: true}
}
