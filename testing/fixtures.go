// Package testing provides test utilities and database setup for testing the voting system
package testing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mizeapp/mize-backend/models"
	"github.com/mizeapp/mize-backend/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// NewDeviceToken returns a fresh v4 device identity
func NewDeviceToken() string {
	return uuid.New().String()
}

// CreateTestContender creates a contender with the given status
func (tf *TestFixtures) CreateTestContender(nickname string, status models.ContenderStatus) (*models.Contender, error) {
	contender := &models.Contender{
		Nickname:      nickname,
		ImagePublicID: fmt.Sprintf("contenders/%s", nickname),
		Videos:        models.StringList{},
		Status:        status,
	}

	if err := tf.DB.DB.Create(contender).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contender: %w", err)
	}

	return contender, nil
}

// CreateTestCycle creates a voting cycle spanning the given window
func (tf *TestFixtures) CreateTestCycle(startAt, endAt time.Time, maxVotes int) (*models.VoteCycle, error) {
	cycle := &models.VoteCycle{
		StartAt:         startAt.UTC(),
		EndAt:           endAt.UTC(),
		MaxVotesPerUser: maxVotes,
	}

	if err := tf.DB.DB.Create(cycle).Error; err != nil {
		return nil, fmt.Errorf("failed to create test cycle: %w", err)
	}

	return cycle, nil
}

// CreateActiveCycle creates a cycle that is currently accepting votes
func (tf *TestFixtures) CreateActiveCycle(maxVotes int) (*models.VoteCycle, error) {
	now := utils.UTCNow()
	return tf.CreateTestCycle(now.Add(-1*time.Hour), now.Add(1*time.Hour), maxVotes)
}

// CreateTestVote creates a ballot with its selections
func (tf *TestFixtures) CreateTestVote(cycleID uint, deviceToken, displayName, fingerprintHash string, contenderIDs []uint) (*models.Vote, error) {
	vote := &models.Vote{
		CycleID:         cycleID,
		DeviceToken:     deviceToken,
		DisplayName:     displayName,
		FingerprintHash: fingerprintHash,
	}

	if err := tf.DB.DB.Create(vote).Error; err != nil {
		return nil, fmt.Errorf("failed to create test vote: %w", err)
	}

	for _, contenderID := range contenderIDs {
		selection := &models.VoteSelection{
			VoteID:      vote.ID,
			ContenderID: contenderID,
		}
		if err := tf.DB.DB.Create(selection).Error; err != nil {
			return nil, fmt.Errorf("failed to create test vote selection: %w", err)
		}
	}

	return vote, nil
}

// CreateTestLove creates a love row for a contender and device
func (tf *TestFixtures) CreateTestLove(contenderID uint, deviceToken, fingerprintHash string) (*models.Love, error) {
	love := &models.Love{
		ContenderID:     contenderID,
		DeviceToken:     deviceToken,
		FingerprintHash: fingerprintHash,
	}

	if err := tf.DB.DB.Create(love).Error; err != nil {
		return nil, fmt.Errorf("failed to create test love: %w", err)
	}

	return love, nil
}

// CreateTestGuess creates an identity guess for a contender
func (tf *TestFixtures) CreateTestGuess(contenderID uint, displayName, guessText, deviceToken string) (*models.Guess, error) {
	guess := &models.Guess{
		ContenderID:     contenderID,
		DisplayName:     displayName,
		GuessText:       guessText,
		DeviceToken:     deviceToken,
		FingerprintHash: "0000000000000000000000000000000000000000000000000000000000000000",
	}

	if err := tf.DB.DB.Create(guess).Error; err != nil {
		return nil, fmt.Errorf("failed to create test guess: %w", err)
	}

	return guess, nil
}
