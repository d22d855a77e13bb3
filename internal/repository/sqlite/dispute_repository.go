package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"

	"github.com/guffzilla/wartest-sub004/internal/logger"
	"github.com/guffzilla/wartest-sub004/internal/models"
	"github.com/guffzilla/wartest-sub004/internal/repository"
)

type disputeRepository struct {
	db *sql.DB
}

// NewDisputeRepository creates a new DisputeRepository implementation
func NewDisputeRepository(db *sql.DB) repository.DisputeRepository {
	return &disputeRepository{db: db}
}

const disputeColumns = `id, match_id, player_id, reason, evidence_uri, status, resolution_note, created_at, resolved_at`

func scanDispute(scan func(...any) error) (*models.Dispute, error) {
	var d models.Dispute
	var resolvedAt sql.NullTime
	err := scan(&d.ID, &d.MatchID, &d.PlayerID, &d.Reason, &d.EvidenceURI, &d.Status, &d.ResolutionNote, &d.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		d.ResolvedAt = &t
	}
	return &d, nil
}

func (r *disputeRepository) Insert(ctx context.Context, d models.Dispute) error {
	log := logger.FromContext(ctx)
	log.Debug().Str("dispute_id", d.ID).Str("match_id", d.MatchID).Int64("player_id", d.PlayerID).Msg("inserting dispute")

	_, err := r.db.ExecContext(ctx, `
INSERT INTO disputes (id, match_id, player_id, reason, evidence_uri, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, d.ID, d.MatchID, d.PlayerID, d.Reason, d.EvidenceURI, d.Status, d.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return repository.ErrDuplicateDispute
		}
		log.Error().Err(err).Msg("failed to insert dispute")
	}
	return err
}

func (r *disputeRepository) Get(ctx context.Context, id string) (*models.Dispute, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = ?`, id)
	d, err := scanDispute(row.Scan)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error().Err(err).Msg("failed to get dispute")
		}
		return nil, err
	}
	return d, nil
}

func (r *disputeRepository) GetByMatchAndPlayer(ctx context.Context, matchID string, playerID int64) (*models.Dispute, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+disputeColumns+` FROM disputes WHERE match_id = ? AND player_id = ?
`, matchID, playerID)
	return scanDispute(row.Scan)
}

func (r *disputeRepository) List(ctx context.Context, filter models.DisputeFilter) ([]models.Dispute, error) {
	log := logger.FromContext(ctx)

	query := sqlBuilder.Select(
		"id", "match_id", "player_id", "reason", "evidence_uri",
		"status", "resolution_note", "created_at", "resolved_at",
	).From("disputes")

	if filter.MatchID != "" {
		query = query.Where(squirrel.Eq{"match_id": filter.MatchID})
	}
	if filter.PlayerID != 0 {
		query = query.Where(squirrel.Eq{"player_id": filter.PlayerID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}

	query = query.OrderBy("created_at DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error().Err(err).Msg("failed to build dispute list query")
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error().Err(err).Msg("failed to list disputes")
		return nil, err
	}
	defer rows.Close()

	var disputes []models.Dispute
	for rows.Next() {
		d, err := scanDispute(rows.Scan)
		if err != nil {
			log.Error().Err(err).Msg("failed to scan dispute row")
			return nil, err
		}
		disputes = append(disputes, *d)
	}
	return disputes, rows.Err()
}

func (r *disputeRepository) Resolve(ctx context.Context, id string, status models.DisputeStatus, note string, resolvedAt time.Time) error {
	log := logger.FromContext(ctx)
	log.Debug().Str("dispute_id", id).Str("status", string(status)).Msg("resolving dispute")

	res, err := r.db.ExecContext(ctx, `
UPDATE disputes SET status = ?, resolution_note = ?, resolved_at = ? WHERE id = ?
`, status, note, resolvedAt, id)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve dispute")
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
