package businessflow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/app/services"
	"github.com/mizeapp/mize-backend/models"
	"github.com/mizeapp/mize-backend/repository"
	apptesting "github.com/mizeapp/mize-backend/testing"
	"github.com/mizeapp/mize-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flowTestEnv wires real repositories to an in-memory database
type flowTestEnv struct {
	db       *apptesting.TestDB
	fixtures *apptesting.TestFixtures

	contenderRepo repository.ContenderRepository
	cycleRepo     repository.VoteCycleRepository
	voteRepo      repository.VoteRepository
	loveRepo      repository.LoveRepository
	guessRepo     repository.GuessRepository
	appConfigRepo repository.AppConfigRepository
}

func newFlowTestEnv(t *testing.T) *flowTestEnv {
	t.Helper()

	db, err := apptesting.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.TeardownTestDB() })

	return &flowTestEnv{
		db:            db,
		fixtures:      apptesting.NewTestFixtures(db),
		contenderRepo: repository.NewContenderRepository(db.DB),
		cycleRepo:     repository.NewVoteCycleRepository(db.DB),
		voteRepo:      repository.NewVoteRepository(db.DB),
		loveRepo:      repository.NewLoveRepository(db.DB),
		guessRepo:     repository.NewGuessRepository(db.DB),
		appConfigRepo: repository.NewAppConfigRepository(db.DB),
	}
}

func (env *flowTestEnv) votingFlow() VotingFlow {
	return NewVotingFlow(env.voteRepo, env.cycleRepo, env.contenderRepo, env.db.DB)
}

// fingerprintFor builds a distinct but valid fingerprint payload per seed
func fingerprintFor(seed string) map[string]any {
	return map[string]any{
		"userAgent":      fmt.Sprintf("Mozilla/5.0 (%s)", seed),
		"platform":       "MacIntel",
		"language":       "en-US",
		"timezoneOffset": float64(-210),
		"screenWidth":    float64(1512),
		"screenHeight":   float64(982),
	}
}

func testMetadata() *ClientMetadata {
	return NewClientMetadata("203.0.113.10", "test-agent")
}

func TestSubmitVoteRecordsBallot(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.votingFlow()
	ctx := context.Background()

	alice, err := env.fixtures.CreateTestContender("alice", models.ContenderStatusActive)
	require.NoError(t, err)
	bob, err := env.fixtures.CreateTestContender("bob", models.ContenderStatusActive)
	require.NoError(t, err)
	_, err = env.fixtures.CreateActiveCycle(3)
	require.NoError(t, err)

	device := apptesting.NewDeviceToken()
	resp, err := flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "  Dana  ",
		Selections:  []uint{alice.ID, bob.ID},
		Fingerprint: fingerprintFor("dana"),
	}, device, testMetadata())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.False(t, resp.Updated)
	assert.NotZero(t, resp.VoteID)

	status, err := flow.GetVoteStatus(ctx, device)
	require.NoError(t, err)
	assert.True(t, status.HasActiveCycle)
	assert.True(t, status.HasVoted)
	require.NotNil(t, status.Vote)
	assert.Equal(t, "Dana", status.Vote.DisplayName, "display name is trimmed before storage")
	assert.ElementsMatch(t, []uint{alice.ID, bob.ID}, status.Vote.Selections)
}

func TestSubmitVoteRejectsWithoutActiveCycle(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.votingFlow()
	ctx := context.Background()

	alice, err := env.fixtures.CreateTestContender("alice", models.ContenderStatusActive)
	require.NoError(t, err)

	// An ended-but-unclosed cycle does not accept ballots
	now := utils.UTCNow()
	_, err = env.fixtures.CreateTestCycle(now.Add(-3*time.Hour), now.Add(-1*time.Hour), 3)
	require.NoError(t, err)

	_, err = flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "Dana",
		Selections:  []uint{alice.ID},
		Fingerprint: fingerprintFor("dana"),
	}, apptesting.NewDeviceToken(), testMetadata())
	require.Error(t, err)
	assert.True(t, IsNoActiveCycle(err))
}

func TestSubmitVoteEnforcesSelectionCap(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.votingFlow()
	ctx := context.Background()

	var ids []uint
	for _, name := range []string{"a", "b", "c"} {
		c, err := env.fixtures.CreateTestContender(name, models.ContenderStatusActive)
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	_, err := env.fixtures.CreateActiveCycle(2)
	require.NoError(t, err)

	_, err = flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "Dana",
		Selections:  ids,
		Fingerprint: fingerprintFor("dana"),
	}, apptesting.NewDeviceToken(), testMetadata())
	require.Error(t, err)
	assert.True(t, IsTooManySelections(err))

	// The message carries the cycle's own cap, not the default
	be, ok := err.(*BusinessError)
	require.True(t, ok)
	assert.Contains(t, be.Message, "2")
}

func TestSubmitVoteRejectsNonVotableSelections(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.votingFlow()
	ctx := context.Background()

	inactive, err := env.fixtures.CreateTestContender("benched", models.ContenderStatusInactive)
	require.NoError(t, err)
	_, err = env.fixtures.CreateActiveCycle(3)
	require.NoError(t, err)

	_, err = flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "Dana",
		Selections:  []uint{inactive.ID},
		Fingerprint: fingerprintFor("dana"),
	}, apptesting.NewDeviceToken(), testMetadata())
	require.Error(t, err)
	assert.True(t, IsInvalidSelection(err))
}

func TestSubmitVoteRejectsRepeatedSelections(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.votingFlow()
	ctx := context.Background()

	alice, err := env.fixtures.CreateTestContender("alice", models.ContenderStatusActive)
	require.NoError(t, err)
	cycle, err := env.fixtures.CreateActiveCycle(2)
	require.NoError(t, err)

	// Listing the same contender twice must not stack selection rows on them
	_, err = flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "Dana",
		Selections:  []uint{alice.ID, alice.ID},
		Fingerprint: fingerprintFor("dana"),
	}, apptesting.NewDeviceToken(), testMetadata())
	require.Error(t, err)
	assert.True(t, IsInvalidSelection(err))

	count, err := env.voteRepo.CountByCycle(ctx, cycle.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "a rejected ballot leaves no rows behind")
}

func TestSubmitVoteRevisionReplacesBallot(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.votingFlow()
	ctx := context.Background()

	alice, err := env.fixtures.CreateTestContender("alice", models.ContenderStatusActive)
	require.NoError(t, err)
	bob, err := env.fixtures.CreateTestContender("bob", models.ContenderStatusActive)
	require.NoError(t, err)
	cycle, err := env.fixtures.CreateActiveCycle(3)
	require.NoError(t, err)

	device := apptesting.NewDeviceToken()
	first, err := flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "Dana",
		Selections:  []uint{alice.ID},
		Fingerprint: fingerprintFor("dana"),
	}, device, testMetadata())
	require.NoError(t, err)

	second, err := flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "Dana R.",
		Selections:  []uint{bob.ID},
		Fingerprint: fingerprintFor("dana"),
	}, device, testMetadata())
	require.NoError(t, err)

	assert.True(t, second.Updated)
	assert.NotEqual(t, first.VoteID, second.VoteID, "revision replaces the row wholesale")

	status, err := flow.GetVoteStatus(ctx, device)
	require.NoError(t, err)
	require.NotNil(t, status.Vote)
	assert.Equal(t, "Dana R.", status.Vote.DisplayName)
	assert.Equal(t, []uint{bob.ID}, status.Vote.Selections)

	// Still exactly one ballot in the cycle
	count, err := env.voteRepo.CountByCycle(ctx, cycle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSubmitVoteBlocksDuplicateFingerprint(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.votingFlow()
	ctx := context.Background()

	alice, err := env.fixtures.CreateTestContender("alice", models.ContenderStatusActive)
	require.NoError(t, err)
	_, err = env.fixtures.CreateActiveCycle(3)
	require.NoError(t, err)

	shared := fingerprintFor("shared-browser")

	_, err = flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "First",
		Selections:  []uint{alice.ID},
		Fingerprint: shared,
	}, apptesting.NewDeviceToken(), testMetadata())
	require.NoError(t, err)

	// A different device with the same fingerprint is treated as the same machine
	_, err = flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "Second",
		Selections:  []uint{alice.ID},
		Fingerprint: shared,
	}, apptesting.NewDeviceToken(), testMetadata())
	require.Error(t, err)
	assert.True(t, IsDuplicateDevice(err))
}

func TestSubmitVoteFingerprintCheckSkippedOnRevision(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.votingFlow()
	ctx := context.Background()

	alice, err := env.fixtures.CreateTestContender("alice", models.ContenderStatusActive)
	require.NoError(t, err)
	bob, err := env.fixtures.CreateTestContender("bob", models.ContenderStatusActive)
	require.NoError(t, err)
	_, err = env.fixtures.CreateActiveCycle(3)
	require.NoError(t, err)

	device := apptesting.NewDeviceToken()
	shared := fingerprintFor("same-machine")

	_, err = flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "Dana",
		Selections:  []uint{alice.ID},
		Fingerprint: shared,
	}, device, testMetadata())
	require.NoError(t, err)

	// Revising with the device's own fingerprint must not trip the dedup
	resp, err := flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "Dana",
		Selections:  []uint{bob.ID},
		Fingerprint: shared,
	}, device, testMetadata())
	require.NoError(t, err)
	assert.True(t, resp.Updated)
}

// blindVoteRepo hides existing ballots from the advisory lookups, leaving the
// unique index on (cycle_id, device_token) as the only guard. This is the state
// two first-time submissions see when they interleave.
type blindVoteRepo struct {
	repository.VoteRepository
}

func (r *blindVoteRepo) ByCycleAndDevice(ctx context.Context, cycleID uint, deviceToken string) (*models.Vote, error) {
	return nil, nil
}

func (r *blindVoteRepo) ExistsByCycleAndFingerprint(ctx context.Context, cycleID uint, fingerprintHash string) (bool, error) {
	return false, nil
}

func TestSubmitVoteConstraintBacksUpAdvisoryChecks(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := NewVotingFlow(&blindVoteRepo{env.voteRepo}, env.cycleRepo, env.contenderRepo, env.db.DB)
	ctx := context.Background()

	alice, err := env.fixtures.CreateTestContender("alice", models.ContenderStatusActive)
	require.NoError(t, err)
	cycle, err := env.fixtures.CreateActiveCycle(3)
	require.NoError(t, err)

	device := apptesting.NewDeviceToken()
	_, err = flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "First",
		Selections:  []uint{alice.ID},
		Fingerprint: fingerprintFor("first"),
	}, device, testMetadata())
	require.NoError(t, err)

	// The second submission sails past the lookups and hits the index; the
	// constraint rejection surfaces as the same duplicate-device error.
	_, err = flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "Second",
		Selections:  []uint{alice.ID},
		Fingerprint: fingerprintFor("second"),
	}, device, testMetadata())
	require.Error(t, err)
	assert.True(t, IsDuplicateDevice(err))

	count, err := env.voteRepo.CountByCycle(ctx, cycle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "the losing submission rolls back cleanly")
}

func TestSubmitVoteValidationOrder(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.votingFlow()
	ctx := context.Background()

	// No cycle exists, but input validation runs first
	_, err := flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "   ",
		Selections:  []uint{1},
		Fingerprint: fingerprintFor("x"),
	}, apptesting.NewDeviceToken(), testMetadata())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "Dana",
		Selections:  []uint{1},
		Fingerprint: map[string]any{"userAgent": "x"},
	}, apptesting.NewDeviceToken(), testMetadata())
	require.Error(t, err)
	assert.True(t, IsInvalidFingerprint(err))
}

func TestGetVoteStatusWithoutCycle(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.votingFlow()

	status, err := flow.GetVoteStatus(context.Background(), apptesting.NewDeviceToken())
	require.NoError(t, err)
	assert.False(t, status.HasActiveCycle)
	assert.False(t, status.HasVoted)
	assert.Nil(t, status.Cycle)
	assert.Nil(t, status.Vote)
}

func TestSubmitVoteHashesMatchService(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.votingFlow()
	ctx := context.Background()

	alice, err := env.fixtures.CreateTestContender("alice", models.ContenderStatusActive)
	require.NoError(t, err)
	cycle, err := env.fixtures.CreateActiveCycle(3)
	require.NoError(t, err)

	raw := fingerprintFor("dana")
	device := apptesting.NewDeviceToken()
	_, err = flow.SubmitVote(ctx, &dto.SubmitVoteRequest{
		DisplayName: "Dana",
		Selections:  []uint{alice.ID},
		Fingerprint: raw,
	}, device, testMetadata())
	require.NoError(t, err)

	vote, err := env.voteRepo.ByCycleAndDevice(ctx, cycle.ID, device)
	require.NoError(t, err)
	require.NotNil(t, vote)

	expected := services.HashFingerprint(services.ParseFingerprintSignals(raw))
	assert.Equal(t, expected, vote.FingerprintHash)
}
