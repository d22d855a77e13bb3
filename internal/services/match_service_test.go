package services_test

import (
	"context"
	stderrors "errors"
	"testing"

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

type matchFixture struct {
	svc     services.MatchService
	players repository.PlayerRepository
	matches repository.MatchRepository
	emitter *mocks.RecordingEmitter
}

func newMatchFixture(t *testing.T) *matchFixture {
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, db) })

	players := sqlite.NewPlayerRepository(db)
	matches := sqlite.NewMatchRepository(db)
	emitter := &mocks.RecordingEmitter{}
	return &matchFixture{
		svc:     services.NewMatchService(matches, players, emitter),
		players: players,
		matches: matches,
		emitter: emitter,
	}
}

func oneVsOneReport(evidence []string) models.MatchReport {
	return models.MatchReport{
		GameTitle:  "wc2",
		MatchType:  models.MatchType1v1,
		MapName:    "Gold Rush",
		WinnerTeam: 1,
		Evidence:   evidence,
		Participants: []models.ReportParticipant{
			{AccountID: "winner@example.com", Team: 1, Race: "human"},
			{AccountID: "loser@example.com", Team: 2, Race: "orc"},
		},
	}
}

func TestSubmitWithoutEvidenceIsRejected(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	m, err := f.svc.Submit(ctx, oneVsOneReport(nil))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, m.Status)
	assert.False(t, m.RatingApplied)

	require.Equal(t, []string{events.TopicMatchRejected}, f.emitter.Topics())
	rejected := f.emitter.Events[0].Payload.(events.MatchRejected)
	assert.Equal(t, "missing evidence", rejected.Reason)

	// The rejected record still resolved its participants.
	assert.NotNil(t, m.Participants[0].PlayerID)
}

func TestSubmitWithEvidenceStaysPending(t *testing.T) {
	f := newMatchFixture(t)

	m, err := f.svc.Submit(context.Background(), oneVsOneReport([]string{"https://replays.example.com/1.rep"}))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, m.Status)
	assert.Empty(t, f.emitter.Topics())
}

func TestSubmitValidation(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.MatchReport)
	}{
		{"empty game title", func(r *models.MatchReport) { r.GameTitle = "" }},
		{"unknown match type", func(r *models.MatchReport) { r.MatchType = "5v5" }},
		{"single participant", func(r *models.MatchReport) { r.Participants = r.Participants[:1] }},
		{"winner not a team", func(r *models.MatchReport) { r.WinnerTeam = 9 }},
		{"negative team", func(r *models.MatchReport) { r.Participants[1].Team = -1 }},
		{"human without account", func(r *models.MatchReport) { r.Participants[0].AccountID = "" }},
		{"all AI", func(r *models.MatchReport) {
			r.Participants[0].IsAI = true
			r.Participants[1].IsAI = true
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := oneVsOneReport([]string{"e"})
			tt.mutate(&report)

			_, err := f.svc.Submit(ctx, report)
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
		})
	}
}

func TestSubmitTeamZeroIsRejected(t *testing.T) {
	f := newMatchFixture(t)

	// Team 0 declared as the winner would be scored as a draw, silently
	// dropping the result. Such reports must never get past validation.
	report := oneVsOneReport([]string{"e"})
	report.Participants[0].Team = 0
	report.Participants[1].Team = 1
	report.WinnerTeam = 0

	_, err := f.svc.Submit(context.Background(), report)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
	assert.Empty(t, f.emitter.Topics())
}

func TestVerifyAppliesZeroSumDeltas(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	m, err := f.svc.Submit(ctx, oneVsOneReport([]string{"e"}))
	require.NoError(t, err)

	verified, err := f.svc.Verify(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, verified.Status)
	assert.True(t, verified.RatingApplied)
	require.NotNil(t, verified.VerifiedAt)
	assert.Equal(t, models.OutcomeWin, verified.Participants[0].Outcome)
	assert.Equal(t, models.OutcomeLoss, verified.Participants[1].Outcome)

	winner, err := f.players.GetByAccount(ctx, "winner@example.com", "wc2")
	require.NoError(t, err)
	loser, err := f.players.GetByAccount(ctx, "loser@example.com", "wc2")
	require.NoError(t, err)

	// Evenly rated players exchange half the K factor.
	assert.Equal(t, 1516, winner.Rating)
	assert.Equal(t, 1484, loser.Rating)

	require.Equal(t, []string{events.TopicMatchVerified}, f.emitter.Topics())
	ev := f.emitter.Events[0].Payload.(events.MatchVerified)
	require.Len(t, ev.Results, 2)
	assert.Equal(t, 16, ev.Results[0].Delta)
	assert.Equal(t, -16, ev.Results[1].Delta)
}

func TestVerifyIsIdempotent(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	m, err := f.svc.Submit(ctx, oneVsOneReport([]string{"e"}))
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, m.ID)
	require.NoError(t, err)

	again, err := f.svc.Verify(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, again.Status)

	winner, err := f.players.GetByAccount(ctx, "winner@example.com", "wc2")
	require.NoError(t, err)
	assert.Equal(t, 1516, winner.Rating)

	history, err := f.players.RatingHistory(ctx, winner.ID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	// No second verified event was emitted.
	assert.Equal(t, []string{events.TopicMatchVerified}, f.emitter.Topics())
}

func TestVerifyDrawIncrementsDrawCounters(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	report := oneVsOneReport([]string{"e"})
	report.WinnerTeam = models.DrawTeam
	m, err := f.svc.Submit(ctx, report)
	require.NoError(t, err)

	verified, err := f.svc.Verify(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeDraw, verified.Participants[0].Outcome)

	p, err := f.players.GetByAccount(ctx, "winner@example.com", "wc2")
	require.NoError(t, err)
	assert.Equal(t, models.BaselineRating, p.Rating)

	recs, err := f.players.RatingRecords(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Draws)
	assert.Equal(t, 1, recs[0].Matches)
}

func TestSubmitVsAIVerifiesInline(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	m, err := f.svc.Submit(ctx, models.MatchReport{
		GameTitle:  "wc2",
		MatchType:  models.MatchTypeVsAI,
		WinnerTeam: 1,
		Participants: []models.ReportParticipant{
			{AccountID: "solo@example.com", Team: 1, Race: "orc"},
			{Team: 2, Race: "human", IsAI: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, m.Status)

	p, err := f.players.GetByAccount(ctx, "solo@example.com", "wc2")
	require.NoError(t, err)
	assert.Equal(t, models.BaselineRating+12, p.Rating)
}

func TestVerifyNonPendingFails(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	m, err := f.svc.Submit(ctx, oneVsOneReport([]string{"e"}))
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, m.ID)
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, m.ID)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
}

func TestRejectIsIdempotent(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	m, err := f.svc.Submit(ctx, oneVsOneReport([]string{"e"}))
	require.NoError(t, err)

	first, err := f.svc.Reject(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, first.Status)

	second, err := f.svc.Reject(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, second.Status)
}

func TestVerifyMissingMatch(t *testing.T) {
	f := newMatchFixture(t)

	_, err := f.svc.Verify(context.Background(), "missing")
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeNotFound, appErr.Code)
}

func TestVerifyRetryExhaustionIsTransient(t *testing.T) {
	matches := new(mocks.MockMatchRepository)
	players := new(mocks.MockPlayerRepository)
	emitter := &mocks.RecordingEmitter{}
	svc := services.NewMatchService(matches, players, emitter)

	playerID := int64(7)
	m := &models.MatchRecord{
		ID:         "m1",
		GameTitle:  "wc2",
		MatchType:  models.MatchType1v1,
		WinnerTeam: 1,
		Status:     models.StatusPending,
		Participants: []models.ParticipantEntry{
			{MatchID: "m1", Slot: 0, AccountID: "a", PlayerID: &playerID, Team: 1},
			{MatchID: "m1", Slot: 1, Team: 2, IsAI: true},
		},
	}
	matches.On("Get", mock.Anything, "m1").Return(m, nil)
	players.On("Get", mock.Anything, playerID).Return(&models.Player{ID: playerID, Rating: 1500, Version: 3}, nil)
	players.On("RatingRecords", mock.Anything, playerID).Return([]models.RatingRecord{}, nil)
	players.On("ApplyRatingUpdate", mock.Anything, mock.Anything).Return(repository.ErrVersionConflict)

	_, err := svc.Verify(context.Background(), "m1")
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeTransient, appErr.Code)
	assert.True(t, stderrors.Is(err, repository.ErrVersionConflict))

	// Every attempt re-read the player before retrying.
	players.AssertNumberOfCalls(t, "ApplyRatingUpdate", 3)
	matches.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, emitter.Topics())
}
