package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/guffzilla/wartest-sub004/internal/logger"
	"github.com/guffzilla/wartest-sub004/internal/models"
	"github.com/guffzilla/wartest-sub004/internal/rank"
	"github.com/guffzilla/wartest-sub004/internal/repository"
)

type playerRepository struct {
	db *sql.DB
}

// NewPlayerRepository creates a new PlayerRepository implementation
func NewPlayerRepository(db *sql.DB) repository.PlayerRepository {
	return &playerRepository{db: db}
}

const playerColumns = `id, account_id, game_title, rating, tier_name, tier_index, version, created_at, updated_at`

func scanPlayer(row *sql.Row) (*models.Player, error) {
	var p models.Player
	err := row.Scan(&p.ID, &p.AccountID, &p.GameTitle, &p.Rating, &p.Tier.Name, &p.Tier.Index, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *playerRepository) Get(ctx context.Context, id int64) (*models.Player, error) {
	log := logger.FromContext(ctx)
	log.Debug().Int64("player_id", id).Msg("getting player")

	p, err := scanPlayer(r.db.QueryRowContext(ctx, `
SELECT `+playerColumns+` FROM players WHERE id = ?
`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug().Int64("player_id", id).Msg("player not found")
		} else {
			log.Error().Err(err).Msg("failed to get player")
		}
		return nil, err
	}
	return p, nil
}

func (r *playerRepository) GetByAccount(ctx context.Context, accountID, gameTitle string) (*models.Player, error) {
	log := logger.FromContext(ctx)
	log.Debug().Str("account_id", accountID).Str("game_title", gameTitle).Msg("getting player by account")

	p, err := scanPlayer(r.db.QueryRowContext(ctx, `
SELECT `+playerColumns+` FROM players WHERE account_id = ? AND game_title = ?
`, accountID, gameTitle))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error().Err(err).Msg("failed to get player by account")
		}
		return nil, err
	}
	return p, nil
}

// GetOrCreate resolves an account to its player row, creating it at the
// baseline rating on first participation.
func (r *playerRepository) GetOrCreate(ctx context.Context, accountID, gameTitle string) (*models.Player, error) {
	log := logger.FromContext(ctx)

	p, err := r.GetByAccount(ctx, accountID, gameTitle)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	tier := rank.TierFor(models.BaselineRating)
	// INSERT OR IGNORE keeps a concurrent first-participation race harmless.
	_, err = r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO players (account_id, game_title, rating, tier_name, tier_index)
VALUES (?, ?, ?, ?, ?)
`, accountID, gameTitle, models.BaselineRating, tier.Name, tier.Index)
	if err != nil {
		log.Error().Err(err).Msg("failed to create player")
		return nil, err
	}
	log.Info().Str("account_id", accountID).Str("game_title", gameTitle).Msg("player created")

	return r.GetByAccount(ctx, accountID, gameTitle)
}

func (r *playerRepository) RatingRecords(ctx context.Context, playerID int64) ([]models.RatingRecord, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, `
SELECT id, player_id, match_type, rating, matches, wins, losses, draws, win_rate
FROM rating_records
WHERE player_id = ?
ORDER BY match_type
`, playerID)
	if err != nil {
		log.Error().Err(err).Msg("failed to query rating records")
		return nil, err
	}
	defer rows.Close()

	var recs []models.RatingRecord
	for rows.Next() {
		var rec models.RatingRecord
		if err := rows.Scan(&rec.ID, &rec.PlayerID, &rec.MatchType, &rec.Rating, &rec.Matches, &rec.Wins, &rec.Losses, &rec.Draws, &rec.WinRate); err != nil {
			log.Error().Err(err).Msg("failed to scan rating record")
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *playerRepository) RaceStats(ctx context.Context, playerID int64) ([]models.RaceStat, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT player_id, race, matches, wins, losses, draws
FROM race_stats WHERE player_id = ? ORDER BY race
`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.RaceStat
	for rows.Next() {
		var s models.RaceStat
		if err := rows.Scan(&s.PlayerID, &s.Race, &s.Matches, &s.Wins, &s.Losses, &s.Draws); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *playerRepository) MapStats(ctx context.Context, playerID int64) ([]models.MapStat, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT player_id, map_name, matches, wins, losses, draws
FROM map_stats WHERE player_id = ? ORDER BY map_name
`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.MapStat
	for rows.Next() {
		var s models.MapStat
		if err := rows.Scan(&s.PlayerID, &s.MapName, &s.Matches, &s.Wins, &s.Losses, &s.Draws); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *playerRepository) RatingHistory(ctx context.Context, playerID int64, limit int) ([]models.RatingHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, player_id, match_id, match_type, delta, rating_after, tier_name, verified_at
FROM rating_history
WHERE player_id = ?
ORDER BY verified_at DESC, id DESC
LIMIT ?
`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.RatingHistoryEntry
	for rows.Next() {
		var e models.RatingHistoryEntry
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.MatchID, &e.MatchType, &e.Delta, &e.RatingAfter, &e.TierName, &e.VerifiedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *playerRepository) ApplyRatingUpdate(ctx context.Context, upd models.RatingUpdate) error {
	log := logger.FromContext(ctx)
	log.Debug().
		Int64("player_id", upd.PlayerID).
		Str("match_id", upd.History.MatchID).
		Int("delta", upd.History.Delta).
		Int64("expected_version", upd.ExpectedVersion).
		Msg("applying rating update")

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		// Per-player idempotence: a delta for this match may already be
		// committed by an earlier, partially-failed verify attempt.
		var exists int
		err := tx.QueryRowContext(ctx, `
SELECT 1 FROM rating_history WHERE player_id = ? AND match_id = ?
`, upd.PlayerID, upd.History.MatchID).Scan(&exists)
		if err == nil {
			return repository.ErrAlreadyApplied
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		res, err := tx.ExecContext(ctx, `
UPDATE players
SET rating = ?, tier_name = ?, tier_index = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND version = ?
`, upd.OverallRating, upd.Tier.Name, upd.Tier.Index, upd.PlayerID, upd.ExpectedVersion)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return repository.ErrVersionConflict
		}

		rec := upd.Record
		if _, err := tx.ExecContext(ctx, `
INSERT INTO rating_records (player_id, match_type, rating, matches, wins, losses, draws, win_rate)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (player_id, match_type) DO UPDATE SET
	rating = excluded.rating,
	matches = excluded.matches,
	wins = excluded.wins,
	losses = excluded.losses,
	draws = excluded.draws,
	win_rate = excluded.win_rate
`, rec.PlayerID, rec.MatchType, rec.Rating, rec.Matches, rec.Wins, rec.Losses, rec.Draws, rec.WinRate); err != nil {
			return err
		}

		wins, losses, draws := outcomeCounters(upd.Outcome)
		if upd.Race != "" {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO race_stats (player_id, race, matches, wins, losses, draws)
VALUES (?, ?, 1, ?, ?, ?)
ON CONFLICT (player_id, race) DO UPDATE SET
	matches = matches + 1,
	wins = wins + excluded.wins,
	losses = losses + excluded.losses,
	draws = draws + excluded.draws
`, upd.PlayerID, upd.Race, wins, losses, draws); err != nil {
				return err
			}
		}
		if upd.MapName != "" {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO map_stats (player_id, map_name, matches, wins, losses, draws)
VALUES (?, ?, 1, ?, ?, ?)
ON CONFLICT (player_id, map_name) DO UPDATE SET
	matches = matches + 1,
	wins = wins + excluded.wins,
	losses = losses + excluded.losses,
	draws = draws + excluded.draws
`, upd.PlayerID, upd.MapName, wins, losses, draws); err != nil {
				return err
			}
		}

		h := upd.History
		_, err = tx.ExecContext(ctx, `
INSERT INTO rating_history (player_id, match_id, match_type, delta, rating_after, tier_name, verified_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, h.PlayerID, h.MatchID, h.MatchType, h.Delta, h.RatingAfter, h.TierName, h.VerifiedAt)
		return err
	})
}

func outcomeCounters(o models.Outcome) (wins, losses, draws int) {
	switch o {
	case models.OutcomeWin:
		wins = 1
	case models.OutcomeLoss:
		losses = 1
	case models.OutcomeDraw:
		draws = 1
	}
	return wins, losses, draws
}
