// Package businessflow contains the core business logic and use cases for the voting workflows
package businessflow

import (
	"context"
	"strings"

	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/models"
	"github.com/mizeapp/mize-backend/repository"
	"gorm.io/gorm"
)

// AdminContenderFlow handles contender and guess management for admins
type AdminContenderFlow interface {
	ListContenders(ctx context.Context) (*dto.ListAdminContendersResponse, error)
	CreateContender(ctx context.Context, req *dto.CreateContenderRequest, metadata *ClientMetadata) (*dto.AdminContenderItem, error)
	UpdateContender(ctx context.Context, contenderID uint, req *dto.UpdateContenderRequest, metadata *ClientMetadata) (*dto.AdminContenderItem, error)
	DeleteContender(ctx context.Context, contenderID uint, metadata *ClientMetadata) error
	ListGuesses(ctx context.Context, contenderID uint) (*dto.ListGuessesResponse, error)
	GetContenderStats(ctx context.Context, contenderID uint) (*dto.ContenderStatsResponse, error)
	UpdateGuess(ctx context.Context, guessID uint, req *dto.UpdateGuessRequest, metadata *ClientMetadata) (*dto.GuessItem, error)
	DeleteGuess(ctx context.Context, guessID uint, metadata *ClientMetadata) error
}

// AdminContenderFlowImpl implements the admin contender business flow
type AdminContenderFlowImpl struct {
	contenderRepo repository.ContenderRepository
	loveRepo      repository.LoveRepository
	guessRepo     repository.GuessRepository
	voteRepo      repository.VoteRepository
	db            *gorm.DB
}

// NewAdminContenderFlow creates a new admin contender flow instance
func NewAdminContenderFlow(
	contenderRepo repository.ContenderRepository,
	loveRepo repository.LoveRepository,
	guessRepo repository.GuessRepository,
	voteRepo repository.VoteRepository,
	db *gorm.DB,
) AdminContenderFlow {
	return &AdminContenderFlowImpl{
		contenderRepo: contenderRepo,
		loveRepo:      loveRepo,
		guessRepo:     guessRepo,
		voteRepo:      voteRepo,
		db:            db,
	}
}

// ListContenders returns every contender with its engagement counters
func (s *AdminContenderFlowImpl) ListContenders(ctx context.Context) (*dto.ListAdminContendersResponse, error) {
	contenders, err := s.contenderRepo.ListAll(ctx)
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
	guessCounts, err := s.guessRepo.CountsByContenders(ctx, ids)
	if err != nil {
		return nil, NewBusinessError("GUESS_LOOKUP_FAILED", "Failed to count guesses", err)
	}
	voteCounts, err := s.voteRepo.SelectionCountsByContenders(ctx, ids)
	if err != nil {
		return nil, NewBusinessError("VOTE_LOOKUP_FAILED", "Failed to count votes", err)
	}

	items := make([]dto.AdminContenderItem, 0, len(contenders))
	for _, c := range contenders {
		items = append(items, adminContenderItem(c, loveCounts[c.ID], guessCounts[c.ID], voteCounts[c.ID]))
	}

	return &dto.ListAdminContendersResponse{Contenders: items}, nil
}

// CreateContender adds a new contender, active unless stated otherwise
func (s *AdminContenderFlowImpl) CreateContender(ctx context.Context, req *dto.CreateContenderRequest, metadata *ClientMetadata) (*dto.AdminContenderItem, error) {
	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		return nil, NewBusinessError("CONTENDER_VALIDATION_FAILED", "Nickname is required", ErrNicknameRequired)
	}
	imagePublicID := strings.TrimSpace(req.ImagePublicID)
	if imagePublicID == "" {
		return nil, NewBusinessError("CONTENDER_VALIDATION_FAILED", "Image public ID is required", ErrImagePublicIDRequired)
	}

	status := models.ContenderStatusActive
	if req.Status != "" {
		status = models.ContenderStatus(req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("CONTENDER_VALIDATION_FAILED", "Invalid contender status", ErrInvalidContenderStatus)
		}
	}

	contender := &models.Contender{
		Nickname:      nickname,
		ImagePublicID: imagePublicID,
		Videos:        models.StringList(req.Videos),
		Status:        status,
	}
	if err := s.contenderRepo.Save(ctx, contender); err != nil {
		return nil, NewBusinessError("CONTENDER_CREATION_FAILED", "Failed to create contender", err)
	}

	item := adminContenderItem(contender, 0, 0, 0)
	return &item, nil
}

// UpdateContender applies a partial update to a contender
func (s *AdminContenderFlowImpl) UpdateContender(ctx context.Context, contenderID uint, req *dto.UpdateContenderRequest, metadata *ClientMetadata) (*dto.AdminContenderItem, error) {
	contender, err := s.contenderRepo.ByID(ctx, contenderID)
	if err != nil {
		return nil, NewBusinessError("CONTENDER_LOOKUP_FAILED", "Failed to lookup contender", err)
	}
	if contender == nil {
		return nil, NewBusinessError("CONTENDER_NOT_FOUND", "Contender not found", ErrContenderNotFound)
	}

	if req.Nickname != nil {
		nickname := strings.TrimSpace(*req.Nickname)
		if nickname == "" {
			return nil, NewBusinessError("CONTENDER_VALIDATION_FAILED", "Nickname is required", ErrNicknameRequired)
		}
		contender.Nickname = nickname
	}
	if req.ImagePublicID != nil {
		imagePublicID := strings.TrimSpace(*req.ImagePublicID)
		if imagePublicID == "" {
			return nil, NewBusinessError("CONTENDER_VALIDATION_FAILED", "Image public ID is required", ErrImagePublicIDRequired)
		}
		contender.ImagePublicID = imagePublicID
	}
	if req.Videos != nil {
		contender.Videos = models.StringList(*req.Videos)
	}
	if req.Status != nil {
		status := models.ContenderStatus(*req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("CONTENDER_VALIDATION_FAILED", "Invalid contender status", ErrInvalidContenderStatus)
		}
		contender.Status = status
	}

	if err := s.contenderRepo.Update(ctx, *contender); err != nil {
		return nil, NewBusinessError("CONTENDER_UPDATE_FAILED", "Failed to update contender", err)
	}

	return s.contenderItemWithCounts(ctx, contender)
}

// DeleteContender removes a contender and all engagement attached to it
func (s *AdminContenderFlowImpl) DeleteContender(ctx context.Context, contenderID uint, metadata *ClientMetadata) error {
	contender, err := s.contenderRepo.ByID(ctx, contenderID)
	if err != nil {
		return NewBusinessError("CONTENDER_LOOKUP_FAILED", "Failed to lookup contender", err)
	}
	if contender == nil {
		return NewBusinessError("CONTENDER_NOT_FOUND", "Contender not found", ErrContenderNotFound)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.contenderRepo.Delete(txCtx, contenderID)
	})
	if err != nil {
		return NewBusinessError("CONTENDER_DELETION_FAILED", "Failed to delete contender", err)
	}

	return nil
}

// ListGuesses returns a contender's raw guesses, newest first
func (s *AdminContenderFlowImpl) ListGuesses(ctx context.Context, contenderID uint) (*dto.ListGuessesResponse, error) {
	contender, err := s.contenderRepo.ByID(ctx, contenderID)
	if err != nil {
		return nil, NewBusinessError("CONTENDER_LOOKUP_FAILED", "Failed to lookup contender", err)
	}
	if contender == nil {
		return nil, NewBusinessError("CONTENDER_NOT_FOUND", "Contender not found", ErrContenderNotFound)
	}

	guesses, err := s.guessRepo.ListByContender(ctx, contenderID)
	if err != nil {
		return nil, NewBusinessError("GUESS_LOOKUP_FAILED", "Failed to list guesses", err)
	}

	items := make([]dto.GuessItem, 0, len(guesses))
	for _, g := range guesses {
		items = append(items, guessItem(g))
	}

	return &dto.ListGuessesResponse{Guesses: items}, nil
}

// GetContenderStats returns one contender's counters plus the guess word cloud
func (s *AdminContenderFlowImpl) GetContenderStats(ctx context.Context, contenderID uint) (*dto.ContenderStatsResponse, error) {
	contender, err := s.contenderRepo.ByID(ctx, contenderID)
	if err != nil {
		return nil, NewBusinessError("CONTENDER_LOOKUP_FAILED", "Failed to lookup contender", err)
	}
	if contender == nil {
		return nil, NewBusinessError("CONTENDER_NOT_FOUND", "Contender not found", ErrContenderNotFound)
	}

	loveCount, err := s.loveRepo.CountByContender(ctx, contenderID)
	if err != nil {
		return nil, NewBusinessError("LOVE_LOOKUP_FAILED", "Failed to count loves", err)
	}
	guessCounts, err := s.guessRepo.CountsByContenders(ctx, []uint{contenderID})
	if err != nil {
		return nil, NewBusinessError("GUESS_LOOKUP_FAILED", "Failed to count guesses", err)
	}
	voteCounts, err := s.voteRepo.SelectionCountsByContenders(ctx, []uint{contenderID})
	if err != nil {
		return nil, NewBusinessError("VOTE_LOOKUP_FAILED", "Failed to count votes", err)
	}
	wordCounts, err := s.guessRepo.WordCounts(ctx, contenderID)
	if err != nil {
		return nil, NewBusinessError("GUESS_LOOKUP_FAILED", "Failed to aggregate guesses", err)
	}

	resp := &dto.ContenderStatsResponse{
		ContenderID: contender.ID,
		Nickname:    contender.Nickname,
		LoveCount:   loveCount,
		GuessCount:  guessCounts[contenderID],
		VoteCount:   voteCounts[contenderID],
		GuessWords:  make([]dto.GuessWord, 0, len(wordCounts)),
	}
	for _, wc := range wordCounts {
		resp.GuessWords = append(resp.GuessWords, dto.GuessWord{Word: wc.Word, Count: wc.Count})
	}

	return resp, nil
}

// UpdateGuess edits a guess's display name or text
func (s *AdminContenderFlowImpl) UpdateGuess(ctx context.Context, guessID uint, req *dto.UpdateGuessRequest, metadata *ClientMetadata) (*dto.GuessItem, error) {
	guess, err := s.guessRepo.ByID(ctx, guessID)
	if err != nil {
		return nil, NewBusinessError("GUESS_LOOKUP_FAILED", "Failed to lookup guess", err)
	}
	if guess == nil {
		return nil, NewBusinessError("GUESS_NOT_FOUND", "Guess not found", ErrGuessNotFound)
	}

	if req.DisplayName != nil {
		displayName := strings.TrimSpace(*req.DisplayName)
		if displayName == "" {
			return nil, NewBusinessError("GUESS_VALIDATION_FAILED", "Display name is required", ErrDisplayNameRequired)
		}
		guess.DisplayName = displayName
	}
	if req.GuessText != nil {
		guessText := strings.TrimSpace(*req.GuessText)
		if guessText == "" {
			return nil, NewBusinessError("GUESS_VALIDATION_FAILED", "Guess text is required", ErrGuessTextRequired)
		}
		guess.GuessText = guessText
	}

	if err := s.guessRepo.Update(ctx, *guess); err != nil {
		return nil, NewBusinessError("GUESS_UPDATE_FAILED", "Failed to update guess", err)
	}

	item := guessItem(guess)
	return &item, nil
}

// DeleteGuess removes a guess
func (s *AdminContenderFlowImpl) DeleteGuess(ctx context.Context, guessID uint, metadata *ClientMetadata) error {
	guess, err := s.guessRepo.ByID(ctx, guessID)
	if err != nil {
		return NewBusinessError("GUESS_LOOKUP_FAILED", "Failed to lookup guess", err)
	}
	if guess == nil {
		return NewBusinessError("GUESS_NOT_FOUND", "Guess not found", ErrGuessNotFound)
	}

	if err := s.guessRepo.Delete(ctx, guessID); err != nil {
		return NewBusinessError("GUESS_DELETION_FAILED", "Failed to delete guess", err)
	}

	return nil
}

func (s *AdminContenderFlowImpl) contenderItemWithCounts(ctx context.Context, contender *models.Contender) (*dto.AdminContenderItem, error) {
	loveCount, err := s.loveRepo.CountByContender(ctx, contender.ID)
	if err != nil {
		return nil, NewBusinessError("LOVE_LOOKUP_FAILED", "Failed to count loves", err)
	}
	guessCounts, err := s.guessRepo.CountsByContenders(ctx, []uint{contender.ID})
	if err != nil {
		return nil, NewBusinessError("GUESS_LOOKUP_FAILED", "Failed to count guesses", err)
	}
	voteCounts, err := s.voteRepo.SelectionCountsByContenders(ctx, []uint{contender.ID})
	if err != nil {
		return nil, NewBusinessError("VOTE_LOOKUP_FAILED", "Failed to count votes", err)
	}

	item := adminContenderItem(contender, loveCount, guessCounts[contender.ID], voteCounts[contender.ID])
	return &item, nil
}

func adminContenderItem(c *models.Contender, loveCount, guessCount, voteCount int64) dto.AdminContenderItem {
	return dto.AdminContenderItem{
		ID:            c.ID,
		Nickname:      c.Nickname,
		ImagePublicID: c.ImagePublicID,
		Videos:        c.Videos,
		Status:        c.Status.String(),
		LoveCount:     loveCount,
		GuessCount:    guessCount,
		VoteCount:     voteCount,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func guessItem(g *models.Guess) dto.GuessItem {
	return dto.GuessItem{
		ID:          g.ID,
		ContenderID: g.ContenderID,
		DisplayName: g.DisplayName,
		GuessText:   g.GuessText,
		CreatedAt:   g.CreatedAt,
	}
}
