package services

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/guffzilla/wartest-sub004/internal/errors"
	"github.com/guffzilla/wartest-sub004/internal/events"
	"github.com/guffzilla/wartest-sub004/internal/logger"
	"github.com/guffzilla/wartest-sub004/internal/models"
	"github.com/guffzilla/wartest-sub004/internal/repository"
)

// ProposalService queues and reviews edits to a match's descriptive fields.
// While any proposal is pending the match sits in pending_edit; resolving the
// last one restores the status the match held before.
type ProposalService interface {
	Propose(ctx context.Context, matchID string, authorPlayerID int64, fields map[string]string) (*models.EditProposal, error)
	Approve(ctx context.Context, proposalID string) (*models.EditProposal, error)
	Reject(ctx context.Context, proposalID string) (*models.EditProposal, error)
	Get(ctx context.Context, proposalID string) (*models.EditProposal, error)
}

type proposalService struct {
	proposals repository.ProposalRepository
	matches   repository.MatchRepository
	emitter   events.Emitter
}

// NewProposalService creates a new ProposalService
func NewProposalService(proposals repository.ProposalRepository, matches repository.MatchRepository, emitter events.Emitter) ProposalService {
	return &proposalService{proposals: proposals, matches: matches, emitter: emitter}
}

func (s *proposalService) Propose(ctx context.Context, matchID string, authorPlayerID int64, fields map[string]string) (*models.EditProposal, error) {
	log := logger.FromContext(ctx)
	log.Debug().Str("match_id", matchID).Int("fields", len(fields)).Msg("proposing match edit")

	if len(fields) == 0 {
		return nil, errors.NewValidationError("fields", "proposal must change at least one field")
	}
	for field := range fields {
		if !editableField(field) {
			return nil, errors.NewValidationError("fields", "field "+field+" is not editable")
		}
	}

	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("match", matchID)
		}
		return nil, errors.NewInternalError(err)
	}
	if m.Status.Terminal() {
		return nil, errors.NewValidationError("status", "rejected matches cannot be edited")
	}

	p := models.EditProposal{
		ID:             uuid.NewString(),
		MatchID:        matchID,
		AuthorPlayerID: authorPlayerID,
		Fields:         fields,
		Status:         models.ProposalPending,
		CreatedAt:      time.Now().UTC(),
	}
	conflict, err := s.proposals.InsertPending(ctx, p)
	switch {
	case stderrors.Is(err, repository.ErrProposalConflict):
		return nil, errors.NewConflictError("edit proposal", conflict.ID)
	case err != nil:
		return nil, errors.NewInternalError(err)
	}

	if m.Status != models.StatusPendingEdit {
		prior := m.Status
		if err := s.matches.UpdateStatus(ctx, matchID, models.StatusPendingEdit, &prior); err != nil {
			return nil, errors.NewInternalError(err)
		}
	}
	log.Info().Str("proposal_id", p.ID).Str("match_id", matchID).Msg("edit proposal queued")

	return s.Get(ctx, p.ID)
}

func editableField(field string) bool {
	switch field {
	case "map_name", "resource_setting", "notes":
		return true
	}
	return strings.HasPrefix(field, "race:")
}

func (s *proposalService) Approve(ctx context.Context, proposalID string) (*models.EditProposal, error) {
	log := logger.FromContext(ctx)
	log.Debug().Str("proposal_id", proposalID).Msg("approving edit proposal")

	p, err := s.Get(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProposalPending {
		// Already reviewed; report the settled record instead of failing.
		return p, nil
	}

	if err := s.matches.UpdateFields(ctx, p.MatchID, p.Fields); err != nil {
		return nil, errors.NewInternalError(err)
	}
	if err := s.proposals.Resolve(ctx, proposalID, models.ProposalApproved, time.Now().UTC()); err != nil {
		return nil, errors.NewInternalError(err)
	}
	if err := s.restorePriorStatus(ctx, p.MatchID); err != nil {
		return nil, err
	}
	log.Info().Str("proposal_id", proposalID).Str("match_id", p.MatchID).Msg("edit proposal approved")

	s.emitter.Emit(ctx, events.TopicProposalApproved, events.ProposalApproved{
		ProposalID: proposalID,
		MatchID:    p.MatchID,
		Fields:     p.Fields,
	})
	return s.Get(ctx, proposalID)
}

func (s *proposalService) Reject(ctx context.Context, proposalID string) (*models.EditProposal, error) {
	log := logger.FromContext(ctx)
	log.Debug().Str("proposal_id", proposalID).Msg("rejecting edit proposal")

	p, err := s.Get(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProposalPending {
		return p, nil
	}

	if err := s.proposals.Resolve(ctx, proposalID, models.ProposalRejected, time.Now().UTC()); err != nil {
		return nil, errors.NewInternalError(err)
	}
	if err := s.restorePriorStatus(ctx, p.MatchID); err != nil {
		return nil, err
	}
	log.Info().Str("proposal_id", proposalID).Str("match_id", p.MatchID).Msg("edit proposal rejected")

	return s.Get(ctx, proposalID)
}

// restorePriorStatus moves the match out of pending_edit once no pending
// proposals remain, returning it to whatever status it held before the first
// proposal was queued.
func (s *proposalService) restorePriorStatus(ctx context.Context, matchID string) error {
	pending, err := s.proposals.PendingByMatch(ctx, matchID)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if len(pending) > 0 {
		return nil
	}

	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if m.Status != models.StatusPendingEdit {
		return nil
	}

	restored := models.StatusPending
	if m.PriorStatus != nil {
		restored = *m.PriorStatus
	}
	if err := s.matches.UpdateStatus(ctx, matchID, restored, nil); err != nil {
		return errors.NewInternalError(err)
	}
	return nil
}

func (s *proposalService) Get(ctx context.Context, proposalID string) (*models.EditProposal, error) {
	p, err := s.proposals.Get(ctx, proposalID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("edit proposal", proposalID)
		}
		return nil, errors.NewInternalError(err)
	}
	return p, nil
}
