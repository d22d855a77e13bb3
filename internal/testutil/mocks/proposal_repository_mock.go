package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/guffzilla/wartest-sub004/internal/models"
)

// MockProposalRepository is a mock implementation of repository.ProposalRepository
type MockProposalRepository struct {
	mock.Mock
}

func (m *MockProposalRepository) InsertPending(ctx context.Context, p models.EditProposal) (*models.EditProposal, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EditProposal), args.Error(1)
}

func (m *MockProposalRepository) Get(ctx context.Context, id string) (*models.EditProposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EditProposal), args.Error(1)
}

func (m *MockProposalRepository) PendingByMatch(ctx context.Context, matchID string) ([]models.EditProposal, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EditProposal), args.Error(1)
}

func (m *MockProposalRepository) Resolve(ctx context.Context, id string, status models.ProposalStatus, resolvedAt time.Time) error {
	args := m.Called(ctx, id, status, resolvedAt)
	return args.Error(0)
}
