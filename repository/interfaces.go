// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/mizeapp/mize-backend/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ContenderRepository defines operations for contenders
type ContenderRepository interface {
	Repository[models.Contender, models.ContenderFilter]
	ListVisible(ctx context.Context) ([]*models.Contender, error)
	ListAll(ctx context.Context) ([]*models.Contender, error)
	ActiveIDs(ctx context.Context) (map[uint]struct{}, error)
	Update(ctx context.Context, contender models.Contender) error
	Delete(ctx context.Context, id uint) error
}

// VoteCycleRepository defines operations for voting cycles
type VoteCycleRepository interface {
	Repository[models.VoteCycle, models.VoteCycleFilter]
	VotableAt(ctx context.Context, now time.Time) (*models.VoteCycle, error)
	List(ctx context.Context) ([]*models.VoteCycle, error)
	OverlapExists(ctx context.Context, startAt, endAt time.Time, excludeID *uint) (bool, error)
	Update(ctx context.Context, cycle models.VoteCycle) error
	Close(ctx context.Context, id uint, closedAt time.Time) error
	Delete(ctx context.Context, id uint) error
}

// VoteRepository defines operations for votes and their selections
type VoteRepository interface {
	Repository[models.Vote, models.VoteFilter]
	ByCycleAndDevice(ctx context.Context, cycleID uint, deviceToken string) (*models.Vote, error)
	ExistsByCycleAndFingerprint(ctx context.Context, cycleID uint, fingerprintHash string) (bool, error)
	SelectionsByVote(ctx context.Context, voteID uint) ([]*models.VoteSelection, error)
	SaveSelections(ctx context.Context, selections []*models.VoteSelection) error
	DeleteWithSelections(ctx context.Context, voteID uint) error
	CountByCycle(ctx context.Context, cycleID uint) (int64, error)
	CountsByCycles(ctx context.Context, cycleIDs []uint) (map[uint]int64, error)
	SelectionCountsByContenders(ctx context.Context, contenderIDs []uint) (map[uint]int64, error)
	ResultRowsByCycle(ctx context.Context, cycleID uint) ([]*VoteResultRow, error)
}

// VoteResultRow is one (contender, voter) pair from a cycle's ballots
type VoteResultRow struct {
	ContenderID uint
	DisplayName string
}

// LoveRepository defines operations for loves
type LoveRepository interface {
	Repository[models.Love, models.LoveFilter]
	ByContenderAndDevice(ctx context.Context, contenderID uint, deviceToken string) (*models.Love, error)
	Delete(ctx context.Context, id uint) error
	CountByContender(ctx context.Context, contenderID uint) (int64, error)
	CountsByContenders(ctx context.Context, contenderIDs []uint) (map[uint]int64, error)
	LovedSetByDevice(ctx context.Context, deviceToken string) (map[uint]struct{}, error)
}

// GuessRepository defines operations for guesses
type GuessRepository interface {
	Repository[models.Guess, models.GuessFilter]
	ListByContender(ctx context.Context, contenderID uint) ([]*models.Guess, error)
	WordCounts(ctx context.Context, contenderID uint) ([]*WordCount, error)
	CountsByContenders(ctx context.Context, contenderIDs []uint) (map[uint]int64, error)
	Update(ctx context.Context, guess models.Guess) error
	Delete(ctx context.Context, id uint) error
}

// WordCount is an aggregated guess text with its occurrence count
type WordCount struct {
	Word  string `json:"word"`
	Count int64  `json:"count"`
}

// AppConfigRepository defines operations for the settings singleton
type AppConfigRepository interface {
	Get(ctx context.Context) (*models.AppConfig, error)
	Update(ctx context.Context, cfg models.AppConfig) error
}
