// Package businessflow contains the core business logic and use cases for the voting workflows
package businessflow

import (
	"context"
	"errors"
	"strings"

	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/app/services"
	"github.com/mizeapp/mize-backend/models"
	"github.com/mizeapp/mize-backend/repository"
	"github.com/mizeapp/mize-backend/utils"
	"gorm.io/gorm"
)

// VotingFlow handles ballot reads and submissions for anonymous devices
type VotingFlow interface {
	GetVoteStatus(ctx context.Context, deviceToken string) (*dto.VoteStatusResponse, error)
	SubmitVote(ctx context.Context, req *dto.SubmitVoteRequest, deviceToken string, metadata *ClientMetadata) (*dto.SubmitVoteResponse, error)
}

// VotingFlowImpl implements the voting business flow
type VotingFlowImpl struct {
	voteRepo      repository.VoteRepository
	cycleRepo     repository.VoteCycleRepository
	contenderRepo repository.ContenderRepository
	db            *gorm.DB
}

// NewVotingFlow creates a new voting flow instance
func NewVotingFlow(
	voteRepo repository.VoteRepository,
	cycleRepo repository.VoteCycleRepository,
	contenderRepo repository.ContenderRepository,
	db *gorm.DB,
) VotingFlow {
	return &VotingFlowImpl{
		voteRepo:      voteRepo,
		cycleRepo:     cycleRepo,
		contenderRepo: contenderRepo,
		db:            db,
	}
}

// GetVoteStatus reports whether a cycle is accepting votes and what the device
// has already submitted in it.
func (s *VotingFlowImpl) GetVoteStatus(ctx context.Context, deviceToken string) (*dto.VoteStatusResponse, error) {
	cycle, err := s.cycleRepo.VotableAt(ctx, utils.UTCNow())
	if err != nil {
		return nil, NewBusinessError("CYCLE_LOOKUP_FAILED", "Failed to lookup active cycle", err)
	}
	if cycle == nil {
		return &dto.VoteStatusResponse{HasActiveCycle: false, HasVoted: false}, nil
	}

	resp := &dto.VoteStatusResponse{
		HasActiveCycle:  true,
		Cycle:           cycleInfo(cycle),
		MaxVotesPerUser: cycle.MaxVotesPerUser,
	}

	vote, err := s.voteRepo.ByCycleAndDevice(ctx, cycle.ID, deviceToken)
	if err != nil {
		return nil, NewBusinessError("VOTE_LOOKUP_FAILED", "Failed to lookup vote", err)
	}
	if vote != nil {
		selections := make([]uint, 0, len(vote.Selections))
		for _, sel := range vote.Selections {
			selections = append(selections, sel.ContenderID)
		}
		resp.HasVoted = true
		resp.Vote = &dto.VoteInfo{
			DisplayName: vote.DisplayName,
			Selections:  selections,
		}
	}

	return resp, nil
}

// SubmitVote records or revises the device's ballot in the currently votable
// cycle. All eligibility checks run before any row is touched; the revision
// itself is a delete plus insert inside one transaction so observers never see
// a partial ballot.
func (s *VotingFlowImpl) SubmitVote(ctx context.Context, req *dto.SubmitVoteRequest, deviceToken string, metadata *ClientMetadata) (*dto.SubmitVoteResponse, error) {
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return nil, NewBusinessError("VOTE_VALIDATION_FAILED", "Display name is required", ErrDisplayNameRequired)
	}
	if len(req.Selections) == 0 {
		return nil, NewBusinessError("VOTE_VALIDATION_FAILED", "At least one selection is required", ErrSelectionsRequired)
	}
	if !services.ValidateFingerprintSignals(req.Fingerprint) {
		return nil, NewBusinessError("VOTE_VALIDATION_FAILED", "Fingerprint payload is malformed", ErrInvalidFingerprint)
	}
	fingerprintHash := services.HashFingerprint(services.ParseFingerprintSignals(req.Fingerprint))

	cycle, err := s.cycleRepo.VotableAt(ctx, utils.UTCNow())
	if err != nil {
		return nil, NewBusinessError("CYCLE_LOOKUP_FAILED", "Failed to lookup active cycle", err)
	}
	if cycle == nil {
		return nil, NewBusinessError("NO_ACTIVE_CYCLE", "No voting cycle is currently accepting votes", ErrNoActiveCycle)
	}

	if len(req.Selections) > cycle.MaxVotesPerUser {
		capErr := &TooManySelectionsError{Limit: cycle.MaxVotesPerUser}
		return nil, NewBusinessError("TOO_MANY_SELECTIONS", capErr.Error(), capErr)
	}

	existing, err := s.voteRepo.ByCycleAndDevice(ctx, cycle.ID, deviceToken)
	if err != nil {
		return nil, NewBusinessError("VOTE_LOOKUP_FAILED", "Failed to lookup existing vote", err)
	}

	// Fingerprint dedup applies only to first-time ballots; a device revising
	// its own vote naturally matches its own stored hash.
	if existing == nil {
		dup, err := s.voteRepo.ExistsByCycleAndFingerprint(ctx, cycle.ID, fingerprintHash)
		if err != nil {
			return nil, NewBusinessError("VOTE_LOOKUP_FAILED", "Failed to check fingerprint", err)
		}
		if dup {
			return nil, NewBusinessError("DUPLICATE_DEVICE", "A vote from this device already exists", ErrDuplicateDevice)
		}
	}

	activeIDs, err := s.contenderRepo.ActiveIDs(ctx)
	if err != nil {
		return nil, NewBusinessError("CONTENDER_LOOKUP_FAILED", "Failed to lookup contenders", err)
	}
	// The count of distinct votable selections must equal the ballot length,
	// so repeated IDs fail alongside inactive or unknown ones.
	votable := make(map[uint]struct{}, len(req.Selections))
	for _, contenderID := range req.Selections {
		if _, ok := activeIDs[contenderID]; ok {
			votable[contenderID] = struct{}{}
		}
	}
	if len(votable) != len(req.Selections) {
		return nil, NewBusinessError("INVALID_SELECTION", "One or more selections are not votable", ErrInvalidSelection)
	}

	var vote *models.Vote
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if existing != nil {
			if err := s.voteRepo.DeleteWithSelections(txCtx, existing.ID); err != nil {
				return err
			}
		}

		vote = &models.Vote{
			CycleID:         cycle.ID,
			DeviceToken:     deviceToken,
			DisplayName:     displayName,
			FingerprintHash: fingerprintHash,
		}
		if err := s.voteRepo.Save(txCtx, vote); err != nil {
			return err
		}

		selections := make([]*models.VoteSelection, 0, len(req.Selections))
		for _, contenderID := range req.Selections {
			selections = append(selections, &models.VoteSelection{
				VoteID:      vote.ID,
				ContenderID: contenderID,
			})
		}
		return s.voteRepo.SaveSelections(txCtx, selections)
	})
	if err != nil {
		// Two first-time ballots racing past the pre-check land here; the
		// constraint rejection gets the same shape as the advisory check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewBusinessError("DUPLICATE_DEVICE", "A vote from this device already exists", ErrDuplicateDevice)
		}
		return nil, NewBusinessError("VOTE_SUBMISSION_FAILED", "Vote submission failed", err)
	}

	updated := existing != nil
	message := "Your vote has been recorded"
	if updated {
		message = "Your vote has been updated"
	}

	return &dto.SubmitVoteResponse{
		Success: true,
		Message: message,
		VoteID:  vote.ID,
		Updated: updated,
	}, nil
}

// cycleInfo converts a cycle model to its public DTO form
func cycleInfo(cycle *models.VoteCycle) *dto.CycleInfo {
	return &dto.CycleInfo{
		ID:              cycle.ID,
		StartAt:         cycle.StartAt,
		EndAt:           cycle.EndAt,
		ClosedAt:        cycle.ClosedAt,
		MaxVotesPerUser: cycle.MaxVotesPerUser,
	}
}
