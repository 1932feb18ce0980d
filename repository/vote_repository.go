package repository

import (
	"context"
	"errors"

	"github.com/mizeapp/mize-backend/models"
	"gorm.io/gorm"
)

// VoteRepositoryImpl implements the VoteRepository interface
type VoteRepositoryImpl struct {
	*BaseRepository[models.Vote, models.VoteFilter]
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &VoteRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Vote, models.VoteFilter](db),
	}
}

// ByCycleAndDevice retrieves the device's ballot in a cycle, if any
func (r *VoteRepositoryImpl) ByCycleAndDevice(ctx context.Context, cycleID uint, deviceToken string) (*models.Vote, error) {
	db := r.getDB(ctx)

	var vote models.Vote
	err := db.Preload("Selections").
		Where("cycle_id = ? AND device_token = ?", cycleID, deviceToken).
		First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &vote, nil
}

// ExistsByCycleAndFingerprint checks whether any ballot in the cycle carries the hash
func (r *VoteRepositoryImpl) ExistsByCycleAndFingerprint(ctx context.Context, cycleID uint, fingerprintHash string) (bool, error) {
	filter := models.VoteFilter{CycleID: &cycleID, FingerprintHash: &fingerprintHash}
	return r.Exists(ctx, filter)
}

// SelectionsByVote retrieves the selections belonging to a ballot
func (r *VoteRepositoryImpl) SelectionsByVote(ctx context.Context, voteID uint) ([]*models.VoteSelection, error) {
	db := r.getDB(ctx)

	var selections []*models.VoteSelection
	err := db.Where("vote_id = ?", voteID).
		Order("id ASC").
		Find(&selections).Error
	if err != nil {
		return nil, err
	}

	return selections, nil
}

// SaveSelections inserts the selections of a ballot
func (r *VoteRepositoryImpl) SaveSelections(ctx context.Context, selections []*models.VoteSelection) error {
	if len(selections) == 0 {
		return nil
	}

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

	err = db.CreateInBatches(selections, 100).Error
	if err != nil {
		return err
	}

	return nil
}

// DeleteWithSelections removes a ballot and its selections
func (r *VoteRepositoryImpl) DeleteWithSelections(ctx context.Context, voteID uint) error {
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

	if err = db.Where("vote_id = ?", voteID).Delete(&models.VoteSelection{}).Error; err != nil {
		return err
	}
	err = db.Delete(&models.Vote{}, voteID).Error
	if err != nil {
		return err
	}

	return nil
}

// CountByCycle counts ballots cast in a cycle
func (r *VoteRepositoryImpl) CountByCycle(ctx context.Context, cycleID uint) (int64, error) {
	filter := models.VoteFilter{CycleID: &cycleID}
	return r.Count(ctx, filter)
}

// CountsByCycles returns a map of cycle_id -> ballot count
func (r *VoteRepositoryImpl) CountsByCycles(ctx context.Context, cycleIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64)
	if len(cycleIDs) == 0 {
		return out, nil
	}

	type row struct {
		CycleID uint
		Votes   int64
	}
	var rows []row
	db := r.getDB(ctx)
	if err := db.Table("votes").
		Select("cycle_id, COUNT(*) AS votes").
		Where("cycle_id IN ?", cycleIDs).
		Group("cycle_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.CycleID] = r.Votes
	}
	return out, nil
}

// SelectionCountsByContenders returns a map of contender_id -> times selected across all cycles
func (r *VoteRepositoryImpl) SelectionCountsByContenders(ctx context.Context, contenderIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64)
	if len(contenderIDs) == 0 {
		return out, nil
	}

	type row struct {
		ContenderID uint
		Selections  int64
	}
	var rows []row
	db := r.getDB(ctx)
	if err := db.Table("vote_selections").
		Select("contender_id, COUNT(*) AS selections").
		Where("contender_id IN ?", contenderIDs).
		Group("contender_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ContenderID] = r.Selections
	}
	return out, nil
}

// ResultRowsByCycle returns one row per (selection, voter) pair for a cycle's ballots
func (r *VoteRepositoryImpl) ResultRowsByCycle(ctx context.Context, cycleID uint) ([]*VoteResultRow, error) {
	db := r.getDB(ctx)

	var rows []*VoteResultRow
	err := db.Table("vote_selections").
		Select("vote_selections.contender_id, votes.display_name").
		Joins("JOIN votes ON votes.id = vote_selections.vote_id").
		Where("votes.cycle_id = ?", cycleID).
		Order("votes.created_at ASC, vote_selections.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// ByFilter retrieves votes based on filter criteria
func (r *VoteRepositoryImpl) ByFilter(ctx context.Context, filter models.VoteFilter, orderBy string, limit, offset int) ([]*models.Vote, error) {
	db := r.getDB(ctx)

	var votes []*models.Vote
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

	query = query.Preload("Selections")

	err := query.Find(&votes).Error
	if err != nil {
		return nil, err
	}

	return votes, nil
}

// Count returns the number of votes matching the filter
func (r *VoteRepositoryImpl) Count(ctx context.Context, filter models.VoteFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Vote{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any vote matching the filter exists
func (r *VoteRepositoryImpl) Exists(ctx context.Context, filter models.VoteFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *VoteRepositoryImpl) applyFilter(db *gorm.DB, filter models.VoteFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.CycleID != nil {
		db = db.Where("cycle_id = ?", *filter.CycleID)
	}
	if filter.DeviceToken != nil {
		db = db.Where("device_token = ?", *filter.DeviceToken)
	}
	if filter.FingerprintHash != nil {
		db = db.Where("fingerprint_hash = ?", *filter.FingerprintHash)
	}

	return db
}
