// Package businessflow contains the core business logic and use cases for the voting workflows
package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/app/services"
	"github.com/mizeapp/mize-backend/models"
	"github.com/mizeapp/mize-backend/repository"
	"github.com/mizeapp/mize-backend/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const loveCountCacheTTL = 30 * time.Second

// EngagementFlow handles the public browsing, love, and guess workflows
type EngagementFlow interface {
	GetPublicConfig(ctx context.Context) (*dto.PublicConfigResponse, error)
	ListContenders(ctx context.Context, deviceToken string) (*dto.ListContendersResponse, error)
	GetContender(ctx context.Context, contenderID uint, deviceToken string) (*dto.ContenderDetailResponse, error)
	ToggleLove(ctx context.Context, contenderID uint, req *dto.ToggleLoveRequest, deviceToken string, metadata *ClientMetadata) (*dto.ToggleLoveResponse, error)
	SubmitGuess(ctx context.Context, contenderID uint, req *dto.SubmitGuessRequest, deviceToken string, metadata *ClientMetadata) (*dto.SubmitGuessResponse, error)
}

// EngagementFlowImpl implements the engagement business flow
type EngagementFlowImpl struct {
	contenderRepo repository.ContenderRepository
	loveRepo      repository.LoveRepository
	guessRepo     repository.GuessRepository
	cycleRepo     repository.VoteCycleRepository
	appConfigRepo repository.AppConfigRepository
	rc            *redis.Client
	cloudName     string
	db            *gorm.DB
}

// NewEngagementFlow creates a new engagement flow instance
func NewEngagementFlow(
	contenderRepo repository.ContenderRepository,
	loveRepo repository.LoveRepository,
	guessRepo repository.GuessRepository,
	cycleRepo repository.VoteCycleRepository,
	appConfigRepo repository.AppConfigRepository,
	db *gorm.DB,
	rc *redis.Client,
	cloudName string,
) EngagementFlow {
	return &EngagementFlowImpl{
		contenderRepo: contenderRepo,
		loveRepo:      loveRepo,
		guessRepo:     guessRepo,
		cycleRepo:     cycleRepo,
		appConfigRepo: appConfigRepo,
		rc:            rc,
		cloudName:     cloudName,
		db:            db,
	}
}

// GetPublicConfig returns the bootstrap payload the web client loads first
func (s *EngagementFlowImpl) GetPublicConfig(ctx context.Context) (*dto.PublicConfigResponse, error) {
	cycle, err := s.cycleRepo.VotableAt(ctx, utils.UTCNow())
	if err != nil {
		return nil, NewBusinessError("CYCLE_LOOKUP_FAILED", "Failed to lookup active cycle", err)
	}

	appCfg, err := s.appConfigRepo.Get(ctx)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_LOOKUP_FAILED", "Failed to load settings", err)
	}

	resp := &dto.PublicConfigResponse{
		HasActiveCycle: cycle != nil,
		CloudName:      s.cloudName,
		ShowLikeButton: appCfg.ShowLikeButton,
	}
	if cycle != nil {
		resp.ActiveCycle = cycleInfo(cycle)
	}

	return resp, nil
}

// ListContenders returns all publicly visible contenders with the device's love state
func (s *EngagementFlowImpl) ListContenders(ctx context.Context, deviceToken string) (*dto.ListContendersResponse, error) {
	contenders, err := s.contenderRepo.ListVisible(ctx)
	if err != nil {
		return nil, NewBusinessError("CONTENDER_LOOKUP_FAILED", "Failed to list contenders", err)
	}

	ids := make([]uint, 0, len(contenders))
	for _, c := range contenders {
		ids = append(ids, c.ID)
	}

	loveCounts, err := s.loveRepo.CountsByContenders(ctx, ids)
	if err != nil {
		return nil, NewBusinessError("LOVE_LOOKUP_FAILED", "Failed to count loves", err)
	}

	lovedSet, err := s.loveRepo.LovedSetByDevice(ctx, deviceToken)
	if err != nil {
		return nil, NewBusinessError("LOVE_LOOKUP_FAILED", "Failed to lookup loves", err)
	}

	items := make([]dto.ContenderItem, 0, len(contenders))
	for _, c := range contenders {
		_, loved := lovedSet[c.ID]
		items = append(items, dto.ContenderItem{
			ID:            c.ID,
			Nickname:      c.Nickname,
			ImagePublicID: c.ImagePublicID,
			Videos:        c.Videos,
			Status:        c.Status.String(),
			LoveCount:     loveCounts[c.ID],
			IsLovedByUser: loved,
		})
	}

	return &dto.ListContendersResponse{Contenders: items}, nil
}

// GetContender returns one visible contender with its aggregated guesses
func (s *EngagementFlowImpl) GetContender(ctx context.Context, contenderID uint, deviceToken string) (*dto.ContenderDetailResponse, error) {
	contender, err := s.visibleContender(ctx, contenderID)
	if err != nil {
		return nil, err
	}

	loveCount, err := s.loveCount(ctx, contenderID)
	if err != nil {
		return nil, NewBusinessError("LOVE_LOOKUP_FAILED", "Failed to count loves", err)
	}

	love, err := s.loveRepo.ByContenderAndDevice(ctx, contenderID, deviceToken)
	if err != nil {
		return nil, NewBusinessError("LOVE_LOOKUP_FAILED", "Failed to lookup love", err)
	}

	wordCounts, err := s.guessRepo.WordCounts(ctx, contenderID)
	if err != nil {
		return nil, NewBusinessError("GUESS_LOOKUP_FAILED", "Failed to aggregate guesses", err)
	}

	resp := &dto.ContenderDetailResponse{
		ContenderItem: dto.ContenderItem{
			ID:            contender.ID,
			Nickname:      contender.Nickname,
			ImagePublicID: contender.ImagePublicID,
			Videos:        contender.Videos,
			Status:        contender.Status.String(),
			LoveCount:     loveCount,
			IsLovedByUser: love != nil,
		},
		GuessWords: make([]dto.GuessWord, 0, len(wordCounts)),
	}
	for _, wc := range wordCounts {
		resp.GuessWords = append(resp.GuessWords, dto.GuessWord{Word: wc.Word, Count: wc.Count})
	}

	return resp, nil
}

// ToggleLove flips the device's love for a contender. The existence check and
// the write are not atomic; concurrent toggles from one device may race, which
// is acceptable for a cosmetic counter.
func (s *EngagementFlowImpl) ToggleLove(ctx context.Context, contenderID uint, req *dto.ToggleLoveRequest, deviceToken string, metadata *ClientMetadata) (*dto.ToggleLoveResponse, error) {
	if !services.ValidateFingerprintSignals(req.Fingerprint) {
		return nil, NewBusinessError("LOVE_VALIDATION_FAILED", "Fingerprint payload is malformed", ErrInvalidFingerprint)
	}
	fingerprintHash := services.HashFingerprint(services.ParseFingerprintSignals(req.Fingerprint))

	if _, err := s.visibleContender(ctx, contenderID); err != nil {
		return nil, err
	}

	existing, err := s.loveRepo.ByContenderAndDevice(ctx, contenderID, deviceToken)
	if err != nil {
		return nil, NewBusinessError("LOVE_LOOKUP_FAILED", "Failed to lookup love", err)
	}

	loved := false
	if existing != nil {
		if err := s.loveRepo.Delete(ctx, existing.ID); err != nil {
			return nil, NewBusinessError("LOVE_TOGGLE_FAILED", "Failed to remove love", err)
		}
	} else {
		love := &models.Love{
			ContenderID:     contenderID,
			DeviceToken:     deviceToken,
			FingerprintHash: fingerprintHash,
		}
		if err := s.loveRepo.Save(ctx, love); err != nil {
			// A concurrent toggle won the insert; the device ends up loved either way.
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, NewBusinessError("LOVE_TOGGLE_FAILED", "Failed to save love", err)
			}
		}
		loved = true
	}

	s.invalidateLoveCount(ctx, contenderID)

	count, err := s.loveCount(ctx, contenderID)
	if err != nil {
		return nil, NewBusinessError("LOVE_LOOKUP_FAILED", "Failed to count loves", err)
	}

	return &dto.ToggleLoveResponse{Loved: loved, LoveCount: count}, nil
}

// SubmitGuess records a free-text identity guess. Devices may guess repeatedly.
func (s *EngagementFlowImpl) SubmitGuess(ctx context.Context, contenderID uint, req *dto.SubmitGuessRequest, deviceToken string, metadata *ClientMetadata) (*dto.SubmitGuessResponse, error) {
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return nil, NewBusinessError("GUESS_VALIDATION_FAILED", "Display name is required", ErrDisplayNameRequired)
	}
	guessText := strings.TrimSpace(req.GuessText)
	if guessText == "" {
		return nil, NewBusinessError("GUESS_VALIDATION_FAILED", "Guess text is required", ErrGuessTextRequired)
	}
	if !services.ValidateFingerprintSignals(req.Fingerprint) {
		return nil, NewBusinessError("GUESS_VALIDATION_FAILED", "Fingerprint payload is malformed", ErrInvalidFingerprint)
	}
	fingerprintHash := services.HashFingerprint(services.ParseFingerprintSignals(req.Fingerprint))

	if _, err := s.visibleContender(ctx, contenderID); err != nil {
		return nil, err
	}

	guess := &models.Guess{
		ContenderID:     contenderID,
		DisplayName:     displayName,
		GuessText:       guessText,
		DeviceToken:     deviceToken,
		FingerprintHash: fingerprintHash,
	}
	if err := s.guessRepo.Save(ctx, guess); err != nil {
		return nil, NewBusinessError("GUESS_SUBMISSION_FAILED", "Failed to save guess", err)
	}

	return &dto.SubmitGuessResponse{Success: true, Message: "Guess submitted"}, nil
}

// visibleContender loads a contender and hides hidden ones behind not-found
func (s *EngagementFlowImpl) visibleContender(ctx context.Context, contenderID uint) (*models.Contender, error) {
	contender, err := s.contenderRepo.ByID(ctx, contenderID)
	if err != nil {
		return nil, NewBusinessError("CONTENDER_LOOKUP_FAILED", "Failed to lookup contender", err)
	}
	if contender == nil || !contender.IsVisible() {
		return nil, NewBusinessError("CONTENDER_NOT_FOUND", "Contender not found", ErrContenderNotFound)
	}
	return contender, nil
}

// loveCount reads the love counter through the optional redis cache
func (s *EngagementFlowImpl) loveCount(ctx context.Context, contenderID uint) (int64, error) {
	key := loveCountKey(contenderID)
	if s.rc != nil {
		if cached, err := s.rc.Get(ctx, key).Result(); err == nil {
			if count, err := strconv.ParseInt(cached, 10, 64); err == nil {
				return count, nil
			}
		}
	}

	count, err := s.loveRepo.CountByContender(ctx, contenderID)
	if err != nil {
		return 0, err
	}

	if s.rc != nil {
		_ = s.rc.Set(ctx, key, strconv.FormatInt(count, 10), loveCountCacheTTL).Err()
	}

	return count, nil
}

func (s *EngagementFlowImpl) invalidateLoveCount(ctx context.Context, contenderID uint) {
	if s.rc == nil {
		return
	}
	_ = s.rc.Del(ctx, loveCountKey(contenderID)).Err()
}

func loveCountKey(contenderID uint) string {
	return fmt.Sprintf("mize:love_count:%d", contenderID)
}
