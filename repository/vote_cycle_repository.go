package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mizeapp/mize-backend/models"
	"gorm.io/gorm"
)

// VoteCycleRepositoryImpl implements the VoteCycleRepository interface
type VoteCycleRepositoryImpl struct {
	*BaseRepository[models.VoteCycle, models.VoteCycleFilter]
}

// NewVoteCycleRepository creates a new vote cycle repository
func NewVoteCycleRepository(db *gorm.DB) VoteCycleRepository {
	return &VoteCycleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.VoteCycle, models.VoteCycleFilter](db),
	}
}

// VotableAt retrieves the cycle accepting votes at the given instant, if any.
// Start boundary inclusive, end exclusive, never a manually closed cycle.
func (r *VoteCycleRepositoryImpl) VotableAt(ctx context.Context, now time.Time) (*models.VoteCycle, error) {
	db := r.getDB(ctx)

	var cycle models.VoteCycle
	err := db.Where("start_at <= ? AND end_at > ? AND closed_at IS NULL", now, now).
		Order("start_at DESC").
		First(&cycle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &cycle, nil
}

// List retrieves all cycles, most recent first
func (r *VoteCycleRepositoryImpl) List(ctx context.Context) ([]*models.VoteCycle, error) {
	return r.ByFilter(ctx, models.VoteCycleFilter{}, "start_at DESC", 0, 0)
}

// OverlapExists reports whether any open cycle's window intersects [startAt, endAt].
// Cycles whose end timestamp has passed but were never closed still block the slot.
func (r *VoteCycleRepositoryImpl) OverlapExists(ctx context.Context, startAt, endAt time.Time, excludeID *uint) (bool, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.VoteCycle{}).
		Where("closed_at IS NULL AND start_at <= ? AND end_at >= ?", endAt, startAt)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// Update updates a cycle
func (r *VoteCycleRepositoryImpl) Update(ctx context.Context, cycle models.VoteCycle) error {
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

	err = db.Save(&cycle).Error
	if err != nil {
		return err
	}

	return nil
}

// Close stamps the manual close time on a cycle
func (r *VoteCycleRepositoryImpl) Close(ctx context.Context, id uint, closedAt time.Time) error {
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

	err = db.Model(&models.VoteCycle{}).
		Where("id = ?", id).
		Update("closed_at", closedAt).Error
	if err != nil {
		return err
	}

	return nil
}

// Delete removes a cycle along with its votes and their selections
func (r *VoteCycleRepositoryImpl) Delete(ctx context.Context, id uint) error {
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

	if err = db.Where("vote_id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).Model(&models.Vote{}).Select("id").Where("cycle_id = ?", id),
	).Delete(&models.VoteSelection{}).Error; err != nil {
		return err
	}
	if err = db.Where("cycle_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	err = db.Delete(&models.VoteCycle{}, id).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves cycles based on filter criteria
func (r *VoteCycleRepositoryImpl) ByFilter(ctx context.Context, filter models.VoteCycleFilter, orderBy string, limit, offset int) ([]*models.VoteCycle, error) {
	db := r.getDB(ctx)

	var cycles []*models.VoteCycle
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

	err := query.Find(&cycles).Error
	if err != nil {
		return nil, err
	}

	return cycles, nil
}

// Count returns the number of cycles matching the filter
func (r *VoteCycleRepositoryImpl) Count(ctx context.Context, filter models.VoteCycleFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.VoteCycle{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any cycle matching the filter exists
func (r *VoteCycleRepositoryImpl) Exists(ctx context.Context, filter models.VoteCycleFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *VoteCycleRepositoryImpl) applyFilter(db *gorm.DB, filter models.VoteCycleFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.OpenOnly != nil && *filter.OpenOnly {
		db = db.Where("closed_at IS NULL")
	}
	if filter.ExcludeID != nil {
		db = db.Where("id <> ?", *filter.ExcludeID)
	}

	return db
}
