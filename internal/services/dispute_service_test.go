package services_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/guffzilla/wartest-sub004/internal/errors"
	"github.com/guffzilla/wartest-sub004/internal/events"
	"github.com/guffzilla/wartest-sub004/internal/models"
	"github.com/guffzilla/wartest-sub004/internal/repository"
	"github.com/guffzilla/wartest-sub004/internal/repository/sqlite"
	"github.com/guffzilla/wartest-sub004/internal/services"
	"github.com/guffzilla/wartest-sub004/internal/testutil"
	"github.com/guffzilla/wartest-sub004/internal/testutil/mocks"
)

type disputeFixture struct {
	svc      services.DisputeService
	matches  repository.MatchRepository
	players  repository.PlayerRepository
	emitter  *mocks.RecordingEmitter
	playerID int64
}

func newDisputeFixture(t *testing.T, matchStatus models.VerificationStatus) *disputeFixture {
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, db) })

	ctx := context.Background()
	players := sqlite.NewPlayerRepository(db)
	matches := sqlite.NewMatchRepository(db)
	disputes := sqlite.NewDisputeRepository(db)

	p, err := players.GetOrCreate(ctx, "p1@example.com", "wc2")
	require.NoError(t, err)
	require.NoError(t, matches.Insert(ctx, models.MatchRecord{
		ID:         "m1",
		GameTitle:  "wc2",
		MatchType:  models.MatchType1v1,
		WinnerTeam: 1,
		Status:     matchStatus,
		CreatedAt:  time.Now().UTC(),
	}))

	emitter := &mocks.RecordingEmitter{}
	return &disputeFixture{
		svc:      services.NewDisputeService(disputes, matches, players, emitter),
		matches:  matches,
		players:  players,
		emitter:  emitter,
		playerID: p.ID,
	}
}

func TestOpenDisputeFlipsMatchToDisputed(t *testing.T) {
	f := newDisputeFixture(t, models.StatusVerified)
	ctx := context.Background()

	d, err := f.svc.Open(ctx, "m1", f.playerID, "score was reversed", "")
	require.NoError(t, err)
	assert.Equal(t, models.DisputeOpen, d.Status)

	m, err := f.matches.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDisputed, m.Status)

	require.Equal(t, []string{events.TopicDisputeOpened}, f.emitter.Topics())
	ev := f.emitter.Events[0].Payload.(events.DisputeOpened)
	assert.Equal(t, d.ID, ev.DisputeID)
	assert.Equal(t, f.playerID, ev.PlayerID)
}

func TestOpenSecondDisputeKeepsMatchDisputed(t *testing.T) {
	f := newDisputeFixture(t, models.StatusVerified)
	ctx := context.Background()

	_, err := f.svc.Open(ctx, "m1", f.playerID, "score was reversed", "")
	require.NoError(t, err)

	other, err := f.players.GetOrCreate(ctx, "p2@example.com", "wc2")
	require.NoError(t, err)

	_, err = f.svc.Open(ctx, "m1", other.ID, "same here", "")
	require.NoError(t, err)

	m, err := f.matches.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDisputed, m.Status)
}

func TestOpenDuplicateDisputeIsConflict(t *testing.T) {
	f := newDisputeFixture(t, models.StatusVerified)
	ctx := context.Background()

	first, err := f.svc.Open(ctx, "m1", f.playerID, "score was reversed", "")
	require.NoError(t, err)

	_, err = f.svc.Open(ctx, "m1", f.playerID, "again", "")
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeConflict, appErr.Code)
	assert.Equal(t, first.ID, appErr.ExistingID)
}

func TestOpenDisputeInsertRaceIsConflict(t *testing.T) {
	disputes := new(mocks.MockDisputeRepository)
	matches := new(mocks.MockMatchRepository)
	players := new(mocks.MockPlayerRepository)
	emitter := &mocks.RecordingEmitter{}
	svc := services.NewDisputeService(disputes, matches, players, emitter)

	matches.On("Get", mock.Anything, "m1").Return(&models.MatchRecord{ID: "m1", Status: models.StatusVerified}, nil)
	players.On("Get", mock.Anything, int64(7)).Return(&models.Player{ID: 7}, nil)

	// The pre-check sees nothing, then the insert loses a same-player race
	// and the winning dispute is reported back.
	disputes.On("GetByMatchAndPlayer", mock.Anything, "m1", int64(7)).Return(nil, sql.ErrNoRows).Once()
	disputes.On("Insert", mock.Anything, mock.Anything).Return(repository.ErrDuplicateDispute)
	disputes.On("GetByMatchAndPlayer", mock.Anything, "m1", int64(7)).Return(&models.Dispute{ID: "d-existing"}, nil)

	_, err := svc.Open(context.Background(), "m1", 7, "score was reversed", "")
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeConflict, appErr.Code)
	assert.Equal(t, "d-existing", appErr.ExistingID)
	assert.Empty(t, emitter.Topics())
}

func TestOpenDisputeOnPendingMatchFails(t *testing.T) {
	f := newDisputeFixture(t, models.StatusPending)

	_, err := f.svc.Open(context.Background(), "m1", f.playerID, "r", "")
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
}

func TestResolveDispute(t *testing.T) {
	f := newDisputeFixture(t, models.StatusVerified)
	ctx := context.Background()

	d, err := f.svc.Open(ctx, "m1", f.playerID, "score was reversed", "")
	require.NoError(t, err)

	resolved, err := f.svc.Resolve(ctx, d.ID, "approve", "replay confirms it")
	require.NoError(t, err)
	assert.Equal(t, models.DisputeResolved, resolved.Status)
	assert.Equal(t, "replay confirms it", resolved.ResolutionNote)
	assert.NotNil(t, resolved.ResolvedAt)

	// Resolving again reports the settled record without changing it.
	again, err := f.svc.Resolve(ctx, d.ID, "reject", "")
	require.NoError(t, err)
	assert.Equal(t, models.DisputeResolved, again.Status)

	assert.Equal(t, []string{events.TopicDisputeOpened, events.TopicDisputeResolved}, f.emitter.Topics())
}

func TestResolveDisputeNeverTouchesRatings(t *testing.T) {
	f := newDisputeFixture(t, models.StatusVerified)
	ctx := context.Background()

	before, err := f.players.Get(ctx, f.playerID)
	require.NoError(t, err)

	d, err := f.svc.Open(ctx, "m1", f.playerID, "score was reversed", "")
	require.NoError(t, err)
	_, err = f.svc.Resolve(ctx, d.ID, "approve", "")
	require.NoError(t, err)

	after, err := f.players.Get(ctx, f.playerID)
	require.NoError(t, err)
	assert.Equal(t, before.Rating, after.Rating)
	assert.Equal(t, before.Version, after.Version)
}

func TestResolveInvalidDecision(t *testing.T) {
	f := newDisputeFixture(t, models.StatusVerified)
	ctx := context.Background()

	d, err := f.svc.Open(ctx, "m1", f.playerID, "r", "")
	require.NoError(t, err)

	_, err = f.svc.Resolve(ctx, d.ID, "maybe", "")
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
}
