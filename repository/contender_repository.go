package repository

import (
	"context"

	"github.com/mizeapp/mize-backend/models"
	"gorm.io/gorm"
)

// ContenderRepositoryImpl implements the ContenderRepository interface
type ContenderRepositoryImpl struct {
	*BaseRepository[models.Contender, models.ContenderFilter]
}

// NewContenderRepository creates a new contender repository
func NewContenderRepository(db *gorm.DB) ContenderRepository {
	return &ContenderRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Contender, models.ContenderFilter](db),
	}
}

// ListVisible retrieves contenders shown on public surfaces, oldest first
func (r *ContenderRepositoryImpl) ListVisible(ctx context.Context) ([]*models.Contender, error) {
	hidden := models.ContenderStatusHidden
	filter := models.ContenderFilter{ExcludeStatus: &hidden}
	return r.ByFilter(ctx, filter, "created_at ASC, id ASC", 0, 0)
}

// ListAll retrieves every contender regardless of status, newest first
func (r *ContenderRepositoryImpl) ListAll(ctx context.Context) ([]*models.Contender, error) {
	return r.ByFilter(ctx, models.ContenderFilter{}, "created_at DESC, id DESC", 0, 0)
}

// ActiveIDs returns the set of contender IDs currently eligible for vote selections
func (r *ContenderRepositoryImpl) ActiveIDs(ctx context.Context) (map[uint]struct{}, error) {
	db := r.getDB(ctx)

	var ids []uint
	err := db.Model(&models.Contender{}).
		Where("status = ?", models.ContenderStatusActive).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// Update updates a contender
func (r *ContenderRepositoryImpl) Update(ctx context.Context, contender models.Contender) error {
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

	err = db.Save(&contender).Error
	if err != nil {
		return err
	}

	return nil
}

// Delete removes a contender along with its loves, guesses, and vote selections
func (r *ContenderRepositoryImpl) Delete(ctx context.Context, id uint) error {
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

	if err = db.Where("contender_id = ?", id).Delete(&models.Love{}).Error; err != nil {
		return err
	}
	if err = db.Where("contender_id = ?", id).Delete(&models.Guess{}).Error; err != nil {
		return err
	}
	if err = db.Where("contender_id = ?", id).Delete(&models.VoteSelection{}).Error; err != nil {
		return err
	}
	err = db.Delete(&models.Contender{}, id).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves contenders based on filter criteria
func (r *ContenderRepositoryImpl) ByFilter(ctx context.Context, filter models.ContenderFilter, orderBy string, limit, offset int) ([]*models.Contender, error) {
	db := r.getDB(ctx)

	var contenders []*models.Contender
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

	err := query.Find(&contenders).Error
	if err != nil {
		return nil, err
	}

	return contenders, nil
}

// Count returns the number of contenders matching the filter
func (r *ContenderRepositoryImpl) Count(ctx context.Context, filter models.ContenderFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Contender{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any contender matching the filter exists
func (r *ContenderRepositoryImpl) Exists(ctx context.Context, filter models.ContenderFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ContenderRepositoryImpl) applyFilter(db *gorm.DB, filter models.ContenderFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.ExcludeStatus != nil {
		db = db.Where("status <> ?", *filter.ExcludeStatus)
	}

	return db
}
