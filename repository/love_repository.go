package repository

import (
	"context"
	"errors"

	"github.com/mizeapp/mize-backend/models"
	"gorm.io/gorm"
)

// LoveRepositoryImpl implements the LoveRepository interface
type LoveRepositoryImpl struct {
	*BaseRepository[models.Love, models.LoveFilter]
}

// NewLoveRepository creates a new love repository
func NewLoveRepository(db *gorm.DB) LoveRepository {
	return &LoveRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Love, models.LoveFilter](db),
	}
}

// ByContenderAndDevice retrieves the device's love for a contender, if any
func (r *LoveRepositoryImpl) ByContenderAndDevice(ctx context.Context, contenderID uint, deviceToken string) (*models.Love, error) {
	db := r.getDB(ctx)

	var love models.Love
	err := db.Where("contender_id = ? AND device_token = ?", contenderID, deviceToken).
		First(&love).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &love, nil
}

// Delete removes a love by ID
func (r *LoveRepositoryImpl) Delete(ctx context.Context, id uint) error {
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

	err = db.Delete(&models.Love{}, id).Error
	if err != nil {
		return err
	}

	return nil
}

// CountByContender counts loves for a single contender
func (r *LoveRepositoryImpl) CountByContender(ctx context.Context, contenderID uint) (int64, error) {
	filter := models.LoveFilter{ContenderID: &contenderID}
	return r.Count(ctx, filter)
}

// CountsByContenders returns a map of contender_id -> love count
func (r *LoveRepositoryImpl) CountsByContenders(ctx context.Context, contenderIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64)
	if len(contenderIDs) == 0 {
		return out, nil
	}

	type row struct {
		ContenderID uint
		Loves       int64
	}
	var rows []row
	db := r.getDB(ctx)
	if err := db.Table("loves").
		Select("contender_id, COUNT(*) AS loves").
		Where("contender_id IN ?", contenderIDs).
		Group("contender_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ContenderID] = r.Loves
	}
	return out, nil
}

// LovedSetByDevice returns the contender IDs the device has loved
func (r *LoveRepositoryImpl) LovedSetByDevice(ctx context.Context, deviceToken string) (map[uint]struct{}, error) {
	db := r.getDB(ctx)

	var ids []uint
	err := db.Model(&models.Love{}).
		Where("device_token = ?", deviceToken).
		Pluck("contender_id", &ids).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// ByFilter retrieves loves based on filter criteria
func (r *LoveRepositoryImpl) ByFilter(ctx context.Context, filter models.LoveFilter, orderBy string, limit, offset int) ([]*models.Love, error) {
	db := r.getDB(ctx)

	var loves []*models.Love
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&loves).Error
	if err != nil {
		return nil, err
	}

	return loves, nil
}

// Count returns the number of loves matching the filter
func (r *LoveRepositoryImpl) Count(ctx context.Context, filter models.LoveFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Love{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any love matching the filter exists
func (r *LoveRepositoryImpl) Exists(ctx context.Context, filter models.LoveFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *LoveRepositoryImpl) applyFilter(db *gorm.DB, filter models.LoveFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ContenderID != nil {
		db = db.Where("contender_id = ?", *filter.ContenderID)
	}
	if filter.DeviceToken != nil {
		db = db.Where("device_token = ?", *filter.DeviceToken)
	}

	return db
}
