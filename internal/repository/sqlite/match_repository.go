package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/guffzilla/wartest-sub004/internal/logger"
	"github.com/guffzilla/wartest-sub004/internal/models"
	"github.com/guffzilla/wartest-sub004/internal/repository"
)

type matchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a new MatchRepository implementation
func NewMatchRepository(db *sql.DB) repository.MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Insert(ctx context.Context, m models.MatchRecord) error {
	log := logger.FromContext(ctx)
	log.Debug().Str("match_id", m.ID).Str("match_type", string(m.MatchType)).Msg("inserting match")

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO matches (id, game_title, match_type, map_name, resource_setting, winner_team, notes, status, rating_applied, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, m.ID, m.GameTitle, m.MatchType, m.MapName, m.ResourceSetting, m.WinnerTeam, m.Notes, m.Status, boolToInt(m.RatingApplied), m.CreatedAt)
		if err != nil {
			return err
		}

		for _, p := range m.Participants {
			var playerID any
			if p.PlayerID != nil {
				playerID = *p.PlayerID
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO match_participants (match_id, slot, account_id, player_id, team, race, is_ai)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, m.ID, p.Slot, p.AccountID, playerID, p.Team, p.Race, boolToInt(p.IsAI)); err != nil {
				return err
			}
		}

		for _, uri := range m.Evidence {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO match_evidence (match_id, uri) VALUES (?, ?)
`, m.ID, uri); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *matchRepository) Get(ctx context.Context, id string) (*models.MatchRecord, error) {
	log := logger.FromContext(ctx)
	log.Debug().Str("match_id", id).Msg("getting match")

	var m models.MatchRecord
	var prior sql.NullString
	var verifiedAt sql.NullTime
	var ratingApplied int
	err := r.db.QueryRowContext(ctx, `
SELECT id, game_title, match_type, map_name, resource_setting, winner_team, notes, status, prior_status, rating_applied, verified_at, created_at
FROM matches
WHERE id = ?
`, id).Scan(&m.ID, &m.GameTitle, &m.MatchType, &m.MapName, &m.ResourceSetting, &m.WinnerTeam, &m.Notes, &m.Status, &prior, &ratingApplied, &verifiedAt, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug().Str("match_id", id).Msg("match not found")
		} else {
			log.Error().Err(err).Msg("failed to get match")
		}
		return nil, err
	}
	m.RatingApplied = ratingApplied != 0
	if prior.Valid {
		ps := models.VerificationStatus(prior.String)
		m.PriorStatus = &ps
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		m.VerifiedAt = &t
	}

	participants, err := r.participants(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Participants = participants

	evidence, err := r.evidence(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Evidence = evidence

	return &m, nil
}

func (r *matchRepository) participants(ctx context.Context, matchID string) ([]models.ParticipantEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT match_id, slot, account_id, player_id, team, race, is_ai, outcome
FROM match_participants
WHERE match_id = ?
ORDER BY slot
`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ParticipantEntry
	for rows.Next() {
		var p models.ParticipantEntry
		var playerID sql.NullInt64
		var outcome sql.NullString
		var isAI int
		if err := rows.Scan(&p.MatchID, &p.Slot, &p.AccountID, &playerID, &p.Team, &p.Race, &isAI, &outcome); err != nil {
			return nil, err
		}
		if playerID.Valid {
			id := playerID.Int64
			p.PlayerID = &id
		}
		if outcome.Valid {
			p.Outcome = models.Outcome(outcome.String)
		}
		p.IsAI = isAI != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *matchRepository) evidence(ctx context.Context, matchID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT uri FROM match_evidence WHERE match_id = ? ORDER BY id
`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uris []string
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, err
		}
		uris = append(uris, uri)
	}
	return uris, rows.Err()
}

// List returns match envelopes without participants or evidence.
func (r *matchRepository) List(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error) {
	log := logger.FromContext(ctx)

	query := sqlBuilder.Select(
		"id", "game_title", "match_type", "map_name", "resource_setting",
		"winner_team", "notes", "status", "prior_status", "rating_applied",
		"verified_at", "created_at",
	).From("matches")

	// Dynamic WHERE clauses
	if filter.GameTitle != "" {
		query = query.Where(squirrel.Eq{"game_title": filter.GameTitle})
	}
	if filter.MatchType != "" {
		query = query.Where(squirrel.Eq{"match_type": filter.MatchType})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.PlayerID != 0 {
		query = query.Where("id IN (SELECT match_id FROM match_participants WHERE player_id = ?)", filter.PlayerID)
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
		log.Error().Err(err).Msg("failed to build match list query")
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error().Err(err).Msg("failed to list matches")
		return nil, err
	}
	defer rows.Close()

	var matches []models.MatchRecord
	for rows.Next() {
		var m models.MatchRecord
		var prior sql.NullString
		var verifiedAt sql.NullTime
		var ratingApplied int
		if err := rows.Scan(&m.ID, &m.GameTitle, &m.MatchType, &m.MapName, &m.ResourceSetting, &m.WinnerTeam, &m.Notes, &m.Status, &prior, &ratingApplied, &verifiedAt, &m.CreatedAt); err != nil {
			log.Error().Err(err).Msg("failed to scan match row")
			return nil, err
		}
		m.RatingApplied = ratingApplied != 0
		if prior.Valid {
			ps := models.VerificationStatus(prior.String)
			m.PriorStatus = &ps
		}
		if verifiedAt.Valid {
			t := verifiedAt.Time
			m.VerifiedAt = &t
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *matchRepository) UpdateStatus(ctx context.Context, id string, status models.VerificationStatus, prior *models.VerificationStatus) error {
	log := logger.FromContext(ctx)
	log.Debug().Str("match_id", id).Str("status", string(status)).Msg("updating match status")

	var priorVal any
	if prior != nil {
		priorVal = string(*prior)
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE matches SET status = ?, prior_status = ? WHERE id = ?
`, status, priorVal, id)
	if err != nil {
		log.Error().Err(err).Msg("failed to update match status")
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

func (r *matchRepository) MarkVerified(ctx context.Context, id string, verifiedAt time.Time, outcomes map[int]models.Outcome) error {
	log := logger.FromContext(ctx)
	log.Debug().Str("match_id", id).Time("verified_at", verifiedAt).Msg("marking match verified")

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
UPDATE matches
SET status = ?, prior_status = NULL, rating_applied = 1, verified_at = ?
WHERE id = ?
`, models.StatusVerified, verifiedAt, id)
		if err != nil {
			return err
		}

		for slot, outcome := range outcomes {
			if _, err := tx.ExecContext(ctx, `
UPDATE match_participants SET outcome = ? WHERE match_id = ? AND slot = ?
`, outcome, id, slot); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *matchRepository) ResolveParticipant(ctx context.Context, matchID string, slot int, playerID int64) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE match_participants SET player_id = ? WHERE match_id = ? AND slot = ?
`, playerID, matchID, slot)
	return err
}

// UpdateFields applies an approved edit proposal's descriptive changes.
// Match-level keys map to columns; "race:<slot>" keys update a participant's
// race.
func (r *matchRepository) UpdateFields(ctx context.Context, id string, fields map[string]string) error {
	log := logger.FromContext(ctx)
	log.Debug().Str("match_id", id).Int("fields", len(fields)).Msg("updating match fields")

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for field, value := range fields {
			switch {
			case field == "map_name" || field == "resource_setting" || field == "notes":
				if _, err := tx.ExecContext(ctx,
					`UPDATE matches SET `+field+` = ? WHERE id = ?`, value, id); err != nil {
					return err
				}
			case strings.HasPrefix(field, "race:"):
				slot, err := parseSlot(field)
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx, `
UPDATE match_participants SET race = ? WHERE match_id = ? AND slot = ?
`, value, id, slot); err != nil {
					return err
				}
			default:
				return fmt.Errorf("field %q is not editable", field)
			}
		}
		return nil
	})
}

func parseSlot(field string) (int, error) {
	var slot int
	if _, err := fmt.Sscanf(field, "race:%d", &slot); err != nil {
		return 0, fmt.Errorf("malformed participant field %q", field)
	}
	return slot, nil
}

func (r *matchRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)
	log.Info().Str("match_id", id).Msg("deleting match")

	res, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		log.Error().Err(err).Msg("failed to delete match")
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
