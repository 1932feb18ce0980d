package repository

import (
	"context"

	"github.com/mizeapp/mize-backend/models"
	"gorm.io/gorm"
)

// GuessRepositoryImpl implements the GuessRepository interface
type GuessRepositoryImpl struct {
	*BaseRepository[models.Guess, models.GuessFilter]
}

// NewGuessRepository creates a new guess repository
func NewGuessRepository(db *gorm.DB) GuessRepository {
	return &GuessRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Guess, models.GuessFilter](db),
	}
}

// ListByContender retrieves a contender's guesses, newest first
func (r *GuessRepositoryImpl) ListByContender(ctx context.Context, contenderID uint) ([]*models.Guess, error) {
	filter := models.GuessFilter{ContenderID: &contenderID}
	return r.ByFilter(ctx, filter, "created_at DESC, id DESC", 0, 0)
}

// WordCounts aggregates a contender's guesses by exact text, most frequent first.
// Guess text is trimmed at insert time, so grouping is on the stored value.
func (r *GuessRepositoryImpl) WordCounts(ctx context.Context, contenderID uint) ([]*WordCount, error) {
	db := r.getDB(ctx)

	var rows []*WordCount
	err := db.Table("guesses").
		Select("guess_text AS word, COUNT(*) AS count").
		Where("contender_id = ?", contenderID).
		Group("guess_text").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// CountsByContenders returns a map of contender_id -> guess count
func (r *GuessRepositoryImpl) CountsByContenders(ctx context.Context, contenderIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64)
	if len(contenderIDs) == 0 {
		return out, nil
	}

	type row struct {
		ContenderID uint
		Guesses     int64
	}
	var rows []row
	db := r.getDB(ctx)
	if err := db.Table("guesses").
		Select("contender_id, COUNT(*) AS guesses").
		Where("contender_id IN ?", contenderIDs).
		Group("contender_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ContenderID] = r.Guesses
	}
	return out, nil
}

// Update updates a guess
func (r *GuessRepositoryImpl) Update(ctx context.Context, guess models.Guess) error {
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

	err = db.Save(&guess).Error
	if err != nil {
		return err
	}

	return nil
}

// Delete removes a guess by ID
func (r *GuessRepositoryImpl) Delete(ctx context.Context, id uint) error {
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

	err = db.Delete(&models.Guess{}, id).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves guesses based on filter criteria
func (r *GuessRepositoryImpl) ByFilter(ctx context.Context, filter models.GuessFilter, orderBy string, limit, offset int) ([]*models.Guess, error) {
	db := r.getDB(ctx)

	var guesses []*models.Guess
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

	err := query.Find(&guesses).Error
	if err != nil {
		return nil, err
	}

	return guesses, nil
}

// Count returns the number of guesses matching the filter
func (r *GuessRepositoryImpl) Count(ctx context.Context, filter models.GuessFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Guess{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any guess matching the filter exists
func (r *GuessRepositoryImpl) Exists(ctx context.Context, filter models.GuessFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *GuessRepositoryImpl) applyFilter(db *gorm.DB, filter models.GuessFilter) *gorm.DB {
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
