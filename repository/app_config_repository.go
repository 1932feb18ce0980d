package repository

import (
	"context"
	"errors"

	"github.com/mizeapp/mize-backend/models"
	"gorm.io/gorm"
)

// AppConfigRepositoryImpl implements the AppConfigRepository interface
type AppConfigRepositoryImpl struct {
	*BaseRepository[models.AppConfig, struct{}]
}

// NewAppConfigRepository creates a new app config repository
func NewAppConfigRepository(db *gorm.DB) AppConfigRepository {
	return &AppConfigRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AppConfig, struct{}](db),
	}
}

// Get retrieves the settings singleton, creating it with defaults on first read
func (r *AppConfigRepositoryImpl) Get(ctx context.Context) (*models.AppConfig, error) {
	db := r.getDB(ctx)

	var cfg models.AppConfig
	err := db.First(&cfg, models.AppConfigID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cfg = *models.DefaultAppConfig()
			if err := r.Save(ctx, &cfg); err != nil {
				return nil, err
			}
			return &cfg, nil
		}
		return nil, err
	}

	return &cfg, nil
}

// Update persists the settings singleton
func (r *AppConfigRepositoryImpl) Update(ctx context.Context, cfg models.AppConfig) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	cfg.ID = models.AppConfigID
	err = db.Save(&cfg).Error
	if err != nil {
		return err
	}

	return nil
}
