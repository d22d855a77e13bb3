package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/guffzilla/wartest-sub004/internal/models"
)

// MockDisputeRepository is a mock implementation of repository.DisputeRepository
type MockDisputeRepository struct {
	mock.Mock
}

func (m *MockDisputeRepository) Insert(ctx context.Context, d models.Dispute) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDisputeRepository) Get(ctx context.Context, id string) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) GetByMatchAndPlayer(ctx context.Context, matchID string, playerID int64) (*models.Dispute, error) {
	args := m.Called(ctx, matchID, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) List(ctx context.Context, filter models.DisputeFilter) ([]models.Dispute, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) Resolve(ctx context.Context, id string, status models.DisputeStatus, note string, resolvedAt time.Time) error {
	args := m.Called(ctx, id, status, note, resolvedAt)
	return args.Error(0)
}
