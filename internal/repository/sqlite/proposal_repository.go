package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/guffzilla/wartest-sub004/internal/logger"
	"github.com/guffzilla/wartest-sub004/internal/models"
	"github.com/guffzilla/wartest-sub004/internal/repository"
)

type proposalRepository struct {
	db *sql.DB
}

// NewProposalRepository creates a new ProposalRepository implementation
func NewProposalRepository(db *sql.DB) repository.ProposalRepository {
	return &proposalRepository{db: db}
}

func (r *proposalRepository) InsertPending(ctx context.Context, p models.EditProposal) (*models.EditProposal, error) {
	log := logger.FromContext(ctx)
	log.Debug().Str("proposal_id", p.ID).Str("match_id", p.MatchID).Msg("inserting edit proposal")

	fields, err := json.Marshal(p.Fields)
	if err != nil {
		return nil, err
	}

	var conflict *models.EditProposal
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		pending, err := pendingProposals(ctx, tx, p.MatchID)
		if err != nil {
			return err
		}
		for i := range pending {
			if p.Conflicts(&pending[i]) {
				conflict = &pending[i]
				return repository.ErrProposalConflict
			}
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO edit_proposals (id, match_id, author_player_id, fields, status, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, p.ID, p.MatchID, p.AuthorPlayerID, string(fields), p.Status, p.CreatedAt)
		return err
	})
	if err != nil && !errors.Is(err, repository.ErrProposalConflict) {
		log.Error().Err(err).Msg("failed to insert edit proposal")
	}
	return conflict, err
}

func scanProposal(scan func(...any) error) (*models.EditProposal, error) {
	var p models.EditProposal
	var fields string
	var resolvedAt sql.NullTime
	if err := scan(&p.ID, &p.MatchID, &p.AuthorPlayerID, &fields, &p.Status, &p.CreatedAt, &resolvedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &p.Fields); err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		p.ResolvedAt = &t
	}
	return &p, nil
}

func (r *proposalRepository) Get(ctx context.Context, id string) (*models.EditProposal, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, `
SELECT id, match_id, author_player_id, fields, status, created_at, resolved_at
FROM edit_proposals WHERE id = ?
`, id)
	p, err := scanProposal(row.Scan)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error().Err(err).Msg("failed to get edit proposal")
		}
		return nil, err
	}
	return p, nil
}

func (r *proposalRepository) PendingByMatch(ctx context.Context, matchID string) ([]models.EditProposal, error) {
	log := logger.FromContext(ctx)

	proposals, err := pendingProposals(ctx, r.db, matchID)
	if err != nil {
		log.Error().Err(err).Msg("failed to query pending proposals")
		return nil, err
	}
	return proposals, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func pendingProposals(ctx context.Context, q querier, matchID string) ([]models.EditProposal, error) {
	rows, err := q.QueryContext(ctx, `
SELECT id, match_id, author_player_id, fields, status, created_at, resolved_at
FROM edit_proposals
WHERE match_id = ? AND status = ?
ORDER BY created_at
`, matchID, models.ProposalPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []models.EditProposal
	for rows.Next() {
		p, err := scanProposal(rows.Scan)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *p)
	}
	return proposals, rows.Err()
}

func (r *proposalRepository) Resolve(ctx context.Context, id string, status models.ProposalStatus, resolvedAt time.Time) error {
	log := logger.FromContext(ctx)
	log.Debug().Str("proposal_id", id).Str("status", string(status)).Msg("resolving edit proposal")

	res, err := r.db.ExecContext(ctx, `
UPDATE edit_proposals SET status = ?, resolved_at = ? WHERE id = ?
`, status, resolvedAt, id)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve edit proposal")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
