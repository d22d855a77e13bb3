package services

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/guffzilla/wartest-sub004/internal/errors"
	"github.com/guffzilla/wartest-sub004/internal/logger"
	"github.com/guffzilla/wartest-sub004/internal/models"
	"github.com/guffzilla/wartest-sub004/internal/repository"
)

// PlayerService exposes ladder profiles and rating history.
type PlayerService interface {
	Resolve(ctx context.Context, accountID, gameTitle string) (*models.Player, error)
	Profile(ctx context.Context, playerID int64) (*models.PlayerProfile, error)
	History(ctx context.Context, playerID int64, limit int) ([]models.RatingHistoryEntry, error)
}

type playerService struct {
	players repository.PlayerRepository
}

// NewPlayerService creates a new PlayerService
func NewPlayerService(players repository.PlayerRepository) PlayerService {
	return &playerService{players: players}
}

func (s *playerService) Resolve(ctx context.Context, accountID, gameTitle string) (*models.Player, error) {
	if accountID == "" {
		return nil, errors.NewValidationError("account_id", "cannot be empty")
	}
	if gameTitle == "" {
		return nil, errors.NewValidationError("game_title", "cannot be empty")
	}

	p, err := s.players.GetOrCreate(ctx, accountID, gameTitle)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return p, nil
}

func (s *playerService) Profile(ctx context.Context, playerID int64) (*models.PlayerProfile, error) {
	log := logger.FromContext(ctx)
	log.Debug().Int64("player_id", playerID).Msg("assembling player profile")

	p, err := s.players.Get(ctx, playerID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("player", playerID)
		}
		return nil, errors.NewInternalError(err)
	}

	records, err := s.players.RatingRecords(ctx, playerID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	races, err := s.players.RaceStats(ctx, playerID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	maps, err := s.players.MapStats(ctx, playerID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	return &models.PlayerProfile{
		Player:    *p,
		Records:   records,
		RaceStats: races,
		MapStats:  maps,
	}, nil
}

func (s *playerService) History(ctx context.Context, playerID int64, limit int) ([]models.RatingHistoryEntry, error) {
	if _, err := s.players.Get(ctx, playerID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("player", playerID)
		}
		return nil, errors.NewInternalError(err)
	}

	entries, err := s.players.RatingHistory(ctx, playerID, limit)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return entries, nil
}
