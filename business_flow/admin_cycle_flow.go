// Package businessflow contains the core business logic and use cases for the voting workflows
package businessflow

import (
	"context"
	"sort"
	"time"

	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/app/services"
	"github.com/mizeapp/mize-backend/models"
	"github.com/mizeapp/mize-backend/repository"
	"github.com/mizeapp/mize-backend/utils"
	"gorm.io/gorm"
)

// AdminCycleFlow handles voting cycle management and results
type AdminCycleFlow interface {
	ListCycles(ctx context.Context) (*dto.ListCyclesResponse, error)
	CreateCycle(ctx context.Context, req *dto.CreateCycleRequest, metadata *ClientMetadata) (*dto.AdminCycleItem, error)
	UpdateCycle(ctx context.Context, cycleID uint, req *dto.UpdateCycleRequest, metadata *ClientMetadata) (*dto.AdminCycleItem, error)
	CloseCycle(ctx context.Context, cycleID uint, metadata *ClientMetadata) (*dto.AdminCycleItem, error)
	DeleteCycle(ctx context.Context, cycleID uint, metadata *ClientMetadata) error
	GetCycleResults(ctx context.Context, cycleID uint) (*dto.CycleResultsResponse, error)
	ExportCycleResults(ctx context.Context, cycleID uint) ([]byte, error)
}

// AdminCycleFlowImpl implements the admin cycle business flow
type AdminCycleFlowImpl struct {
	cycleRepo     repository.VoteCycleRepository
	voteRepo      repository.VoteRepository
	contenderRepo repository.ContenderRepository
	reportService services.ReportService
	db            *gorm.DB
}

// NewAdminCycleFlow creates a new admin cycle flow instance
func NewAdminCycleFlow(
	cycleRepo repository.VoteCycleRepository,
	voteRepo repository.VoteRepository,
	contenderRepo repository.ContenderRepository,
	reportService services.ReportService,
	db *gorm.DB,
) AdminCycleFlow {
	return &AdminCycleFlowImpl{
		cycleRepo:     cycleRepo,
		voteRepo:      voteRepo,
		contenderRepo: contenderRepo,
		reportService: reportService,
		db:            db,
	}
}

// ListCycles returns every cycle with its computed status and ballot count
func (s *AdminCycleFlowImpl) ListCycles(ctx context.Context) (*dto.ListCyclesResponse, error) {
	cycles, err := s.cycleRepo.List(ctx)
	if err != nil {
		return nil, NewBusinessError("CYCLE_LOOKUP_FAILED", "Failed to list cycles", err)
	}

	ids := make([]uint, 0, len(cycles))
	for _, c := range cycles {
		ids = append(ids, c.ID)
	}

	voteCounts, err := s.voteRepo.CountsByCycles(ctx, ids)
	if err != nil {
		return nil, NewBusinessError("VOTE_LOOKUP_FAILED", "Failed to count votes", err)
	}

	now := utils.UTCNow()
	items := make([]dto.AdminCycleItem, 0, len(cycles))
	for _, c := range cycles {
		items = append(items, adminCycleItem(c, voteCounts[c.ID], now))
	}

	return &dto.ListCyclesResponse{Cycles: items}, nil
}

// CreateCycle schedules a new voting window. The window may not intersect any
// open cycle; a cycle past its end timestamp but never closed still blocks
// the slot.
func (s *AdminCycleFlowImpl) CreateCycle(ctx context.Context, req *dto.CreateCycleRequest, metadata *ClientMetadata) (*dto.AdminCycleItem, error) {
	if req.StartAt.IsZero() || req.EndAt.IsZero() {
		return nil, NewBusinessError("CYCLE_VALIDATION_FAILED", "Start and end dates are required", ErrCycleDatesRequired)
	}
	if !req.EndAt.After(req.StartAt) {
		return nil, NewBusinessError("CYCLE_VALIDATION_FAILED", "End date must be after start date", ErrCycleEndBeforeStart)
	}

	overlap, err := s.cycleRepo.OverlapExists(ctx, req.StartAt, req.EndAt, nil)
	if err != nil {
		return nil, NewBusinessError("CYCLE_LOOKUP_FAILED", "Failed to check for overlapping cycles", err)
	}
	if overlap {
		return nil, NewBusinessError("CYCLE_OVERLAP", "Cycle overlaps an open cycle", ErrCycleOverlap)
	}

	cycle := &models.VoteCycle{
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
	}
	if req.MaxVotesPerUser != nil {
		cycle.MaxVotesPerUser = *req.MaxVotesPerUser
	}
	if err := s.cycleRepo.Save(ctx, cycle); err != nil {
		return nil, NewBusinessError("CYCLE_CREATION_FAILED", "Failed to create cycle", err)
	}

	item := adminCycleItem(cycle, 0, utils.UTCNow())
	return &item, nil
}

// UpdateCycle applies a partial update, re-running the overlap check against
// every other open cycle with the merged window.
func (s *AdminCycleFlowImpl) UpdateCycle(ctx context.Context, cycleID uint, req *dto.UpdateCycleRequest, metadata *ClientMetadata) (*dto.AdminCycleItem, error) {
	cycle, err := s.cycleRepo.ByID(ctx, cycleID)
	if err != nil {
		return nil, NewBusinessError("CYCLE_LOOKUP_FAILED", "Failed to lookup cycle", err)
	}
	if cycle == nil {
		return nil, NewBusinessError("CYCLE_NOT_FOUND", "Cycle not found", ErrCycleNotFound)
	}

	if req.StartAt != nil {
		cycle.StartAt = *req.StartAt
	}
	if req.EndAt != nil {
		cycle.EndAt = *req.EndAt
	}
	if req.MaxVotesPerUser != nil {
		cycle.MaxVotesPerUser = *req.MaxVotesPerUser
	}

	if !cycle.EndAt.After(cycle.StartAt) {
		return nil, NewBusinessError("CYCLE_VALIDATION_FAILED", "End date must be after start date", ErrCycleEndBeforeStart)
	}

	overlap, err := s.cycleRepo.OverlapExists(ctx, cycle.StartAt, cycle.EndAt, &cycleID)
	if err != nil {
		return nil, NewBusinessError("CYCLE_LOOKUP_FAILED", "Failed to check for overlapping cycles", err)
	}
	if overlap {
		return nil, NewBusinessError("CYCLE_OVERLAP", "Cycle overlaps an open cycle", ErrCycleOverlap)
	}

	if err := s.cycleRepo.Update(ctx, *cycle); err != nil {
		return nil, NewBusinessError("CYCLE_UPDATE_FAILED", "Failed to update cycle", err)
	}

	voteCount, err := s.voteRepo.CountByCycle(ctx, cycleID)
	if err != nil {
		return nil, NewBusinessError("VOTE_LOOKUP_FAILED", "Failed to count votes", err)
	}

	item := adminCycleItem(cycle, voteCount, utils.UTCNow())
	return &item, nil
}

// CloseCycle stops a cycle immediately. Closing twice is rejected.
func (s *AdminCycleFlowImpl) CloseCycle(ctx context.Context, cycleID uint, metadata *ClientMetadata) (*dto.AdminCycleItem, error) {
	cycle, err := s.cycleRepo.ByID(ctx, cycleID)
	if err != nil {
		return nil, NewBusinessError("CYCLE_LOOKUP_FAILED", "Failed to lookup cycle", err)
	}
	if cycle == nil {
		return nil, NewBusinessError("CYCLE_NOT_FOUND", "Cycle not found", ErrCycleNotFound)
	}
	if cycle.ClosedAt != nil {
		return nil, NewBusinessError("CYCLE_ALREADY_CLOSED", "Cycle is already closed", ErrCycleAlreadyClosed)
	}

	now := utils.UTCNow()
	if err := s.cycleRepo.Close(ctx, cycleID, now); err != nil {
		return nil, NewBusinessError("CYCLE_CLOSE_FAILED", "Failed to close cycle", err)
	}
	cycle.ClosedAt = &now

	voteCount, err := s.voteRepo.CountByCycle(ctx, cycleID)
	if err != nil {
		return nil, NewBusinessError("VOTE_LOOKUP_FAILED", "Failed to count votes", err)
	}

	item := adminCycleItem(cycle, voteCount, now)
	return &item, nil
}

// DeleteCycle removes a cycle and every ballot cast in it
func (s *AdminCycleFlowImpl) DeleteCycle(ctx context.Context, cycleID uint, metadata *ClientMetadata) error {
	cycle, err := s.cycleRepo.ByID(ctx, cycleID)
	if err != nil {
		return NewBusinessError("CYCLE_LOOKUP_FAILED", "Failed to lookup cycle", err)
	}
	if cycle == nil {
		return NewBusinessError("CYCLE_NOT_FOUND", "Cycle not found", ErrCycleNotFound)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.cycleRepo.Delete(txCtx, cycleID)
	})
	if err != nil {
		return NewBusinessError("CYCLE_DELETION_FAILED", "Failed to delete cycle", err)
	}

	return nil
}

// GetCycleResults tallies a cycle's ballots per contender, most voted first,
// with the display names of everyone who picked each contender.
func (s *AdminCycleFlowImpl) GetCycleResults(ctx context.Context, cycleID uint) (*dto.CycleResultsResponse, error) {
	cycle, err := s.cycleRepo.ByID(ctx, cycleID)
	if err != nil {
		return nil, NewBusinessError("CYCLE_LOOKUP_FAILED", "Failed to lookup cycle", err)
	}
	if cycle == nil {
		return nil, NewBusinessError("CYCLE_NOT_FOUND", "Cycle not found", ErrCycleNotFound)
	}

	contenders, err := s.contenderRepo.ListAll(ctx)
	if err != nil {
		return nil, NewBusinessError("CONTENDER_LOOKUP_FAILED", "Failed to list contenders", err)
	}

	rows, err := s.voteRepo.ResultRowsByCycle(ctx, cycleID)
	if err != nil {
		return nil, NewBusinessError("VOTE_LOOKUP_FAILED", "Failed to load ballots", err)
	}

	totalVotes, err := s.voteRepo.CountByCycle(ctx, cycleID)
	if err != nil {
		return nil, NewBusinessError("VOTE_LOOKUP_FAILED", "Failed to count votes", err)
	}

	countByContender := make(map[uint]int64)
	votersByContender := make(map[uint][]string)
	for _, row := range rows {
		countByContender[row.ContenderID]++
		votersByContender[row.ContenderID] = append(votersByContender[row.ContenderID], row.DisplayName)
	}

	results := make([]dto.ContenderResult, 0, len(contenders))
	for _, c := range contenders {
		voters := votersByContender[c.ID]
		if voters == nil {
			voters = []string{}
		}
		results = append(results, dto.ContenderResult{
			ContenderID: c.ID,
			Nickname:    c.Nickname,
			VoteCount:   countByContender[c.ID],
			Voters:      voters,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].VoteCount > results[j].VoteCount
	})

	return &dto.CycleResultsResponse{
		CycleID:    cycleID,
		TotalVotes: totalVotes,
		Results:    results,
	}, nil
}

// ExportCycleResults renders the results as an xlsx workbook
func (s *AdminCycleFlowImpl) ExportCycleResults(ctx context.Context, cycleID uint) ([]byte, error) {
	cycle, err := s.cycleRepo.ByID(ctx, cycleID)
	if err != nil {
		return nil, NewBusinessError("CYCLE_LOOKUP_FAILED", "Failed to lookup cycle", err)
	}
	if cycle == nil {
		return nil, NewBusinessError("CYCLE_NOT_FOUND", "Cycle not found", ErrCycleNotFound)
	}

	results, err := s.GetCycleResults(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	entries := make([]*services.CycleResultEntry, 0, len(results.Results))
	for _, r := range results.Results {
		entries = append(entries, &services.CycleResultEntry{
			ContenderID: r.ContenderID,
			Nickname:    r.Nickname,
			VoteCount:   r.VoteCount,
			Voters:      r.Voters,
		})
	}

	workbook, err := s.reportService.CycleResultsWorkbook(cycleID, cycle.StartAt, cycle.EndAt, entries)
	if err != nil {
		return nil, NewBusinessError("RESULTS_EXPORT_FAILED", "Failed to render results export", err)
	}

	return workbook, nil
}

// adminCycleItem converts a cycle model to its admin DTO form
func adminCycleItem(c *models.VoteCycle, voteCount int64, now time.Time) dto.AdminCycleItem {
	return dto.AdminCycleItem{
		ID:              c.ID,
		StartAt:         c.StartAt,
		EndAt:           c.EndAt,
		ClosedAt:        c.ClosedAt,
		MaxVotesPerUser: c.MaxVotesPerUser,
		Status:          c.StatusAt(now).String(),
		EffectiveEndAt:  c.EffectiveEndAt(),
		VoteCount:       voteCount,
		CreatedAt:       c.CreatedAt,
	}
}
