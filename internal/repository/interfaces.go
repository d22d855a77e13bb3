package repository

import (
	"context"
	"errors"
	"time"

	"github.com/guffzilla/wartest-sub004/internal/models"
)

// ErrVersionConflict is returned when an optimistic rating commit loses the
// race on a player's version counter. The caller re-reads and retries.
var ErrVersionConflict = errors.New("player version conflict")

// ErrAlreadyApplied is returned when a rating commit finds this match's
// delta already recorded for the player. Retried verifies skip the player.
var ErrAlreadyApplied = errors.New("rating already applied for match")

// ErrDuplicateDispute is returned when an insert hits the one-dispute-per
// (match, player) constraint. The caller reports the existing dispute.
var ErrDuplicateDispute = errors.New("dispute already open for match and player")

// ErrProposalConflict is returned when a pending proposal for the same match
// already claims one of the fields being inserted.
var ErrProposalConflict = errors.New("conflicting pending proposal")

// PlayerRepository handles player rating-profile data access
type PlayerRepository interface {
	Get(ctx context.Context, id int64) (*models.Player, error)
	GetByAccount(ctx context.Context, accountID, gameTitle string) (*models.Player, error)
	GetOrCreate(ctx context.Context, accountID, gameTitle string) (*models.Player, error)
	RatingRecords(ctx context.Context, playerID int64) ([]models.RatingRecord, error)
	RaceStats(ctx context.Context, playerID int64) ([]models.RaceStat, error)
	MapStats(ctx context.Context, playerID int64) ([]models.MapStat, error)
	RatingHistory(ctx context.Context, playerID int64, limit int) ([]models.RatingHistoryEntry, error)
	// ApplyRatingUpdate commits one player's delta atomically: sub-record,
	// overall rating, tier, reporting counters and history entry, guarded by
	// the version counter. Returns ErrVersionConflict on a lost update and
	// ErrAlreadyApplied when the (player, match) delta is already recorded.
	ApplyRatingUpdate(ctx context.Context, upd models.RatingUpdate) error
}

// MatchRepository handles match record data access
type MatchRepository interface {
	Insert(ctx context.Context, m models.MatchRecord) error
	Get(ctx context.Context, id string) (*models.MatchRecord, error)
	List(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error)
	UpdateStatus(ctx context.Context, id string, status models.VerificationStatus, prior *models.VerificationStatus) error
	MarkVerified(ctx context.Context, id string, verifiedAt time.Time, outcomes map[int]models.Outcome) error
	ResolveParticipant(ctx context.Context, matchID string, slot int, playerID int64) error
	UpdateFields(ctx context.Context, id string, fields map[string]string) error
	Delete(ctx context.Context, id string) error
}

// DisputeRepository handles dispute data access
type DisputeRepository interface {
	Insert(ctx context.Context, d models.Dispute) error
	Get(ctx context.Context, id string) (*models.Dispute, error)
	GetByMatchAndPlayer(ctx context.Context, matchID string, playerID int64) (*models.Dispute, error)
	List(ctx context.Context, filter models.DisputeFilter) ([]models.Dispute, error)
	Resolve(ctx context.Context, id string, status models.DisputeStatus, note string, resolvedAt time.Time) error
}

// ProposalRepository handles edit proposal data access
type ProposalRepository interface {
	// InsertPending inserts the proposal unless a pending proposal for the
	// same match already claims one of its fields. Check and insert run in
	// one transaction; on overlap the conflicting proposal is returned
	// along with ErrProposalConflict.
	InsertPending(ctx context.Context, p models.EditProposal) (*models.EditProposal, error)
	Get(ctx context.Context, id string) (*models.EditProposal, error)
	PendingByMatch(ctx context.Context, matchID string) ([]models.EditProposal, error)
	Resolve(ctx context.Context, id string, status models.ProposalStatus, resolvedAt time.Time) error
}
