package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/guffzilla/wartest-sub004/internal/models"
	"github.com/guffzilla/wartest-sub004/internal/rank"
	"github.com/guffzilla/wartest-sub004/internal/repository"
	"github.com/guffzilla/wartest-sub004/internal/repository/sqlite"
	"github.com/guffzilla/wartest-sub004/internal/testutil"
)

type PlayerRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.PlayerRepository
}

func (s *PlayerRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewPlayerRepository(s.db)
}

func (s *PlayerRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *PlayerRepositorySuite) TestGetOrCreateIsIdempotent() {
	ctx := context.Background()

	p1, err := s.repo.GetOrCreate(ctx, "grom@example.com", "wc2")
	s.Require().NoError(err)
	s.Equal(models.BaselineRating, p1.Rating)
	s.Equal(rank.TierFor(models.BaselineRating).Name, p1.Tier.Name)

	p2, err := s.repo.GetOrCreate(ctx, "grom@example.com", "wc2")
	s.Require().NoError(err)
	s.Equal(p1.ID, p2.ID)

	// Same account in another title is a separate profile.
	p3, err := s.repo.GetOrCreate(ctx, "grom@example.com", "wc3")
	s.Require().NoError(err)
	s.NotEqual(p1.ID, p3.ID)
}

func (s *PlayerRepositorySuite) applyUpdate(playerID int64, matchID string, version int64) error {
	rec := models.RatingRecord{
		PlayerID:  playerID,
		MatchType: models.MatchType1v1,
		Rating:    1516,
		Matches:   1,
		Wins:      1,
		WinRate:   1,
	}
	return s.repo.ApplyRatingUpdate(context.Background(), models.RatingUpdate{
		PlayerID:        playerID,
		ExpectedVersion: version,
		OverallRating:   1516,
		Tier:            rank.TierFor(1516),
		Record:          rec,
		Outcome:         models.OutcomeWin,
		Race:            "orc",
		MapName:         "Gold Rush",
		History: models.RatingHistoryEntry{
			PlayerID:    playerID,
			MatchID:     matchID,
			MatchType:   models.MatchType1v1,
			Delta:       16,
			RatingAfter: 1516,
			TierName:    rank.TierFor(1516).Name,
			VerifiedAt:  time.Now().UTC(),
		},
	})
}

func (s *PlayerRepositorySuite) TestApplyRatingUpdate() {
	ctx := context.Background()
	p, err := s.repo.GetOrCreate(ctx, "thrall@example.com", "wc2")
	s.Require().NoError(err)

	s.Require().NoError(s.applyUpdate(p.ID, "match-1", p.Version))

	updated, err := s.repo.Get(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(1516, updated.Rating)
	s.Equal(p.Version+1, updated.Version)

	recs, err := s.repo.RatingRecords(ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal(models.MatchType1v1, recs[0].MatchType)
	s.Equal(1, recs[0].Matches)

	races, err := s.repo.RaceStats(ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(races, 1)
	s.Equal("orc", races[0].Race)
	s.Equal(1, races[0].Wins)

	maps, err := s.repo.MapStats(ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(maps, 1)
	s.Equal("Gold Rush", maps[0].MapName)

	history, err := s.repo.RatingHistory(ctx, p.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal("match-1", history[0].MatchID)
	s.Equal(16, history[0].Delta)
}

func (s *PlayerRepositorySuite) TestApplyRatingUpdateVersionConflict() {
	ctx := context.Background()
	p, err := s.repo.GetOrCreate(ctx, "cairne@example.com", "wc2")
	s.Require().NoError(err)

	err = s.applyUpdate(p.ID, "match-1", p.Version+7)
	s.Require().ErrorIs(err, repository.ErrVersionConflict)

	// Nothing committed on the losing branch.
	history, err := s.repo.RatingHistory(ctx, p.ID, 10)
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *PlayerRepositorySuite) TestApplyRatingUpdateAlreadyApplied() {
	ctx := context.Background()
	p, err := s.repo.GetOrCreate(ctx, "rexxar@example.com", "wc2")
	s.Require().NoError(err)

	s.Require().NoError(s.applyUpdate(p.ID, "match-1", p.Version))

	current, err := s.repo.Get(ctx, p.ID)
	s.Require().NoError(err)

	// Re-applying the same match's delta is refused even with a fresh version.
	err = s.applyUpdate(p.ID, "match-1", current.Version)
	s.Require().ErrorIs(err, repository.ErrAlreadyApplied)

	after, err := s.repo.Get(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(current.Rating, after.Rating)
	s.Equal(current.Version, after.Version)

	// A different match applies fine.
	s.Require().NoError(s.applyUpdate(p.ID, "match-2", current.Version))
}

func TestPlayerRepositorySuite(t *testing.T) {
	suite.Run(t, new(PlayerRepositorySuite))
}
