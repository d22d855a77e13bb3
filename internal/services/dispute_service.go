package services

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/guffzilla/wartest-sub004/internal/errors"
	"github.com/guffzilla/wartest-sub004/internal/events"
	"github.com/guffzilla/wartest-sub004/internal/logger"
	"github.com/guffzilla/wartest-sub004/internal/models"
	"github.com/guffzilla/wartest-sub004/internal/repository"
)

// DisputeService handles player objections against verified match records.
// Resolving a dispute never rolls ratings back; a dispute that warrants a
// correction goes through the edit-proposal workflow.
type DisputeService interface {
	Open(ctx context.Context, matchID string, playerID int64, reason, evidenceURI string) (*models.Dispute, error)
	Resolve(ctx context.Context, disputeID, decision, note string) (*models.Dispute, error)
	Get(ctx context.Context, disputeID string) (*models.Dispute, error)
	List(ctx context.Context, filter models.DisputeFilter) ([]models.Dispute, error)
}

type disputeService struct {
	disputes repository.DisputeRepository
	matches  repository.MatchRepository
	players  repository.PlayerRepository
	emitter  events.Emitter
}

// NewDisputeService creates a new DisputeService
func NewDisputeService(disputes repository.DisputeRepository, matches repository.MatchRepository, players repository.PlayerRepository, emitter events.Emitter) DisputeService {
	return &disputeService{disputes: disputes, matches: matches, players: players, emitter: emitter}
}

func (s *disputeService) Open(ctx context.Context, matchID string, playerID int64, reason, evidenceURI string) (*models.Dispute, error) {
	log := logger.FromContext(ctx)
	log.Debug().Str("match_id", matchID).Int64("player_id", playerID).Msg("opening dispute")

	if reason == "" {
		return nil, errors.NewValidationError("reason", "cannot be empty")
	}

	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("match", matchID)
		}
		return nil, errors.NewInternalError(err)
	}
	if m.Status != models.StatusVerified && m.Status != models.StatusDisputed {
		return nil, errors.NewValidationError("status", "only verified matches can be disputed")
	}

	if _, err := s.players.Get(ctx, playerID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("player", playerID)
		}
		return nil, errors.NewInternalError(err)
	}

	existing, err := s.disputes.GetByMatchAndPlayer(ctx, matchID, playerID)
	if err == nil {
		return nil, errors.NewConflictError("dispute", existing.ID)
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewInternalError(err)
	}

	d := models.Dispute{
		ID:          uuid.NewString(),
		MatchID:     matchID,
		PlayerID:    playerID,
		Reason:      reason,
		EvidenceURI: evidenceURI,
		Status:      models.DisputeOpen,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.disputes.Insert(ctx, d); err != nil {
		if stderrors.Is(err, repository.ErrDuplicateDispute) {
			// Lost a same-player race after the pre-check.
			if existing, gerr := s.disputes.GetByMatchAndPlayer(ctx, matchID, playerID); gerr == nil {
				return nil, errors.NewConflictError("dispute", existing.ID)
			}
			return nil, errors.NewConflictError("dispute", "")
		}
		return nil, errors.NewInternalError(err)
	}

	// First dispute flips the match into the disputed state. Ratings stay
	// as committed.
	if m.Status == models.StatusVerified {
		if err := s.matches.UpdateStatus(ctx, matchID, models.StatusDisputed, nil); err != nil {
			return nil, errors.NewInternalError(err)
		}
	}
	log.Info().Str("dispute_id", d.ID).Str("match_id", matchID).Msg("dispute opened")

	s.emitter.Emit(ctx, events.TopicDisputeOpened, events.DisputeOpened{
		DisputeID: d.ID,
		MatchID:   matchID,
		PlayerID:  playerID,
		Reason:    reason,
	})
	return s.Get(ctx, d.ID)
}

func (s *disputeService) Resolve(ctx context.Context, disputeID, decision, note string) (*models.Dispute, error) {
	log := logger.FromContext(ctx)
	log.Debug().Str("dispute_id", disputeID).Str("decision", decision).Msg("resolving dispute")

	d, err := s.Get(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if d.Status != models.DisputeOpen {
		// Already settled; report the settled record instead of failing.
		return d, nil
	}

	var status models.DisputeStatus
	switch decision {
	case "approve":
		status = models.DisputeResolved
	case "reject":
		status = models.DisputeRejected
	default:
		return nil, errors.NewValidationError("decision", "must be approve or reject")
	}

	if err := s.disputes.Resolve(ctx, disputeID, status, note, time.Now().UTC()); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("dispute", disputeID)
		}
		return nil, errors.NewInternalError(err)
	}
	log.Info().Str("dispute_id", disputeID).Str("status", string(status)).Msg("dispute resolved")

	s.emitter.Emit(ctx, events.TopicDisputeResolved, events.DisputeResolved{
		DisputeID: disputeID,
		MatchID:   d.MatchID,
		Decision:  decision,
	})
	return s.Get(ctx, disputeID)
}

func (s *disputeService) Get(ctx context.Context, disputeID string) (*models.Dispute, error) {
	d, err := s.disputes.Get(ctx, disputeID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("dispute", disputeID)
		}
		return nil, errors.NewInternalError(err)
	}
	return d, nil
}

func (s *disputeService) List(ctx context.Context, filter models.DisputeFilter) ([]models.Dispute, error) {
	disputes, err := s.disputes.List(ctx, filter)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return disputes, nil
}
