package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/guffzilla/wartest-sub004/internal/models"
)

// MockPlayerRepository is a mock implementation of repository.PlayerRepository
type MockPlayerRepository struct {
	mock.Mock
}

func (m *MockPlayerRepository) Get(ctx context.Context, id int64) (*models.Player, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Player), args.Error(1)
}

func (m *MockPlayerRepository) GetByAccount(ctx context.Context, accountID, gameTitle string) (*models.Player, error) {
	args := m.Called(ctx, accountID, gameTitle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Player), args.Error(1)
}

func (m *MockPlayerRepository) GetOrCreate(ctx context.Context, accountID, gameTitle string) (*models.Player, error) {
	args := m.Called(ctx, accountID, gameTitle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Player), args.Error(1)
}

func (m *MockPlayerRepository) RatingRecords(ctx context.Context, playerID int64) ([]models.RatingRecord, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RatingRecord), args.Error(1)
}

func (m *MockPlayerRepository) RaceStats(ctx context.Context, playerID int64) ([]models.RaceStat, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RaceStat), args.Error(1)
}

func (m *MockPlayerRepository) MapStats(ctx context.Context, playerID int64) ([]models.MapStat, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MapStat), args.Error(1)
}

func (m *MockPlayerRepository) RatingHistory(ctx context.Context, playerID int64, limit int) ([]models.RatingHistoryEntry, error) {
	args := m.Called(ctx, playerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RatingHistoryEntry), args.Error(1)
}

func (m *MockPlayerRepository) ApplyRatingUpdate(ctx context.Context, upd models.RatingUpdate) error {
	args := m.Called(ctx, upd)
	return args.Error(0)
}
