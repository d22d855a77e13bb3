package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/guffzilla/wartest-sub004/internal/models"
	"github.com/guffzilla/wartest-sub004/internal/repository"
	"github.com/guffzilla/wartest-sub004/internal/repository/sqlite"
	"github.com/guffzilla/wartest-sub004/internal/testutil"
)

type DisputeRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.DisputeRepository
}

func (s *DisputeRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewDisputeRepository(s.db)
}

func (s *DisputeRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *DisputeRepositorySuite) seedMatchAndPlayer() int64 {
	ctx := context.Background()
	players := sqlite.NewPlayerRepository(s.db)
	p, err := players.GetOrCreate(ctx, "p1@example.com", "wc2")
	s.Require().NoError(err)

	matches := sqlite.NewMatchRepository(s.db)
	s.Require().NoError(matches.Insert(ctx, models.MatchRecord{
		ID:         "m1",
		GameTitle:  "wc2",
		MatchType:  models.MatchType1v1,
		WinnerTeam: 1,
		Status:     models.StatusVerified,
		CreatedAt:  time.Now().UTC(),
	}))
	return p.ID
}

func (s *DisputeRepositorySuite) TestInsertAndGet() {
	ctx := context.Background()
	playerID := s.seedMatchAndPlayer()

	d := models.Dispute{
		ID:          "d1",
		MatchID:     "m1",
		PlayerID:    playerID,
		Reason:      "opponent disconnected before the end",
		EvidenceURI: "https://replays.example.com/d1.rep",
		Status:      models.DisputeOpen,
		CreatedAt:   time.Now().UTC(),
	}
	s.Require().NoError(s.repo.Insert(ctx, d))

	got, err := s.repo.Get(ctx, "d1")
	s.Require().NoError(err)
	s.Equal(models.DisputeOpen, got.Status)
	s.Equal(playerID, got.PlayerID)
	s.Nil(got.ResolvedAt)

	byPair, err := s.repo.GetByMatchAndPlayer(ctx, "m1", playerID)
	s.Require().NoError(err)
	s.Equal("d1", byPair.ID)
}

func (s *DisputeRepositorySuite) TestUniquePerMatchAndPlayer() {
	ctx := context.Background()
	playerID := s.seedMatchAndPlayer()

	d := models.Dispute{ID: "d1", MatchID: "m1", PlayerID: playerID, Reason: "r", Status: models.DisputeOpen, CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.repo.Insert(ctx, d))

	dup := d
	dup.ID = "d2"
	s.Require().ErrorIs(s.repo.Insert(ctx, dup), repository.ErrDuplicateDispute)
}

func (s *DisputeRepositorySuite) TestResolve() {
	ctx := context.Background()
	playerID := s.seedMatchAndPlayer()

	d := models.Dispute{ID: "d1", MatchID: "m1", PlayerID: playerID, Reason: "r", Status: models.DisputeOpen, CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.repo.Insert(ctx, d))

	s.Require().NoError(s.repo.Resolve(ctx, "d1", models.DisputeResolved, "confirmed from replay", time.Now().UTC()))

	got, err := s.repo.Get(ctx, "d1")
	s.Require().NoError(err)
	s.Equal(models.DisputeResolved, got.Status)
	s.Equal("confirmed from replay", got.ResolutionNote)
	s.NotNil(got.ResolvedAt)

	s.Require().ErrorIs(s.repo.Resolve(ctx, "missing", models.DisputeResolved, "", time.Now().UTC()), sql.ErrNoRows)
}

func (s *DisputeRepositorySuite) TestListByStatus() {
	ctx := context.Background()
	playerID := s.seedMatchAndPlayer()

	s.Require().NoError(s.repo.Insert(ctx, models.Dispute{ID: "d1", MatchID: "m1", PlayerID: playerID, Reason: "r", Status: models.DisputeOpen, CreatedAt: time.Now().UTC()}))
	s.Require().NoError(s.repo.Resolve(ctx, "d1", models.DisputeRejected, "", time.Now().UTC()))

	open, err := s.repo.List(ctx, models.DisputeFilter{Status: models.DisputeOpen})
	s.Require().NoError(err)
	s.Empty(open)

	rejected, err := s.repo.List(ctx, models.DisputeFilter{MatchID: "m1", Status: models.DisputeRejected})
	s.Require().NoError(err)
	s.Len(rejected, 1)
}

func TestDisputeRepositorySuite(t *testing.T) {
	suite.Run(t, new(DisputeRepositorySuite))
}
