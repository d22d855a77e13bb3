package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/guffzilla/wartest-sub004/internal/models"
)

// MockMatchRepository is a mock implementation of repository.MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Insert(ctx context.Context, match models.MatchRecord) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) Get(ctx context.Context, id string) (*models.MatchRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchRecord), args.Error(1)
}

func (m *MockMatchRepository) List(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MatchRecord), args.Error(1)
}

func (m *MockMatchRepository) UpdateStatus(ctx context.Context, id string, status models.VerificationStatus, prior *models.VerificationStatus) error {
	args := m.Called(ctx, id, status, prior)
	return args.Error(0)
}

func (m *MockMatchRepository) MarkVerified(ctx context.Context, id string, verifiedAt time.Time, outcomes map[int]models.Outcome) error {
	args := m.Called(ctx, id, verifiedAt, outcomes)
	return args.Error(0)
}

func (m *MockMatchRepository) ResolveParticipant(ctx context.Context, matchID string, slot int, playerID int64) error {
	args := m.Called(ctx, matchID, slot, playerID)
	return args.Error(0)
}

func (m *MockMatchRepository) UpdateFields(ctx context.Context, id string, fields map[string]string) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockMatchRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
