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
	"github.com/guffzilla/wartest-sub004/internal/rank"
	"github.com/guffzilla/wartest-sub004/internal/rating"
	"github.com/guffzilla/wartest-sub004/internal/repository"
)

// maxApplyRetries bounds the optimistic-concurrency retry loop around a
// single player's rating commit. Exhaustion surfaces as TRANSIENT; the
// caller re-submits the verify, which is safe because application is
// idempotent per (player, match).
const maxApplyRetries = 3

// MatchService owns the match record lifecycle: submission, verification,
// rejection and administrative deletion.
type MatchService interface {
	Submit(ctx context.Context, report models.MatchReport) (*models.MatchRecord, error)
	Verify(ctx context.Context, matchID string) (*models.MatchRecord, error)
	Reject(ctx context.Context, matchID string) (*models.MatchRecord, error)
	Get(ctx context.Context, matchID string) (*models.MatchRecord, error)
	List(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error)
	Delete(ctx context.Context, matchID string) error
}

type matchService struct {
	matches repository.MatchRepository
	players repository.PlayerRepository
	emitter events.Emitter
}

// NewMatchService creates a new MatchService
func NewMatchService(matches repository.MatchRepository, players repository.PlayerRepository, emitter events.Emitter) MatchService {
	return &matchService{matches: matches, players: players, emitter: emitter}
}

func (s *matchService) Submit(ctx context.Context, report models.MatchReport) (*models.MatchRecord, error) {
	log := logger.FromContext(ctx)
	log.Debug().Str("match_type", string(report.MatchType)).Int("participants", len(report.Participants)).Msg("submitting match report")

	if err := validateReport(report); err != nil {
		return nil, err
	}

	m := models.MatchRecord{
		ID:              uuid.NewString(),
		GameTitle:       report.GameTitle,
		MatchType:       report.MatchType,
		MapName:         report.MapName,
		ResourceSetting: report.ResourceSetting,
		WinnerTeam:      report.WinnerTeam,
		Notes:           report.Notes,
		Status:          models.StatusPending,
		CreatedAt:       time.Now().UTC(),
		Evidence:        report.Evidence,
	}

	// Players are created lazily on first match participation.
	for i, rp := range report.Participants {
		entry := models.ParticipantEntry{
			MatchID:   m.ID,
			Slot:      i,
			AccountID: rp.AccountID,
			Team:      rp.Team,
			Race:      rp.Race,
			IsAI:      rp.IsAI,
		}
		if !rp.IsAI {
			player, err := s.players.GetOrCreate(ctx, rp.AccountID, report.GameTitle)
			if err != nil {
				log.Error().Err(err).Str("account_id", rp.AccountID).Msg("failed to resolve participant")
				return nil, errors.NewInternalError(err)
			}
			entry.PlayerID = &player.ID
		}
		m.Participants = append(m.Participants, entry)
	}

	// Without evidence there is nothing to verify against. Vs-AI and
	// system-verified reports bypass the guard and verify inline.
	skipEvidence := !report.MatchType.Competitive() || report.SystemVerified
	if !skipEvidence && len(report.Evidence) == 0 {
		m.Status = models.StatusRejected
		if err := s.matches.Insert(ctx, m); err != nil {
			return nil, errors.NewInternalError(err)
		}
		log.Info().Str("match_id", m.ID).Msg("match auto-rejected: no evidence")
		s.emitter.Emit(ctx, events.TopicMatchRejected, events.MatchRejected{
			MatchID: m.ID,
			Reason:  "missing evidence",
		})
		return s.Get(ctx, m.ID)
	}

	if err := s.matches.Insert(ctx, m); err != nil {
		return nil, errors.NewInternalError(err)
	}
	log.Info().Str("match_id", m.ID).Str("status", string(m.Status)).Msg("match submitted")

	if skipEvidence {
		return s.Verify(ctx, m.ID)
	}
	return s.Get(ctx, m.ID)
}

func validateReport(report models.MatchReport) error {
	if report.GameTitle == "" {
		return errors.NewValidationError("game_title", "cannot be empty")
	}
	if !report.MatchType.Valid() {
		return errors.NewValidationError("match_type", "unknown match type")
	}
	if len(report.Participants) < 2 {
		return errors.NewValidationError("participants", "a match needs at least two participants")
	}

	humans, ais := 0, 0
	teams := map[int]bool{}
	for _, p := range report.Participants {
		if p.IsAI {
			ais++
		} else {
			humans++
			if p.AccountID == "" {
				return errors.NewValidationError("participants", "human participant without account id")
			}
		}
		// Team 0 is reserved as the winner_team draw value.
		if p.Team < 1 {
			return errors.NewValidationError("participants", "team numbers start at 1")
		}
		teams[p.Team] = true
	}
	if humans == 0 {
		return errors.NewValidationError("participants", "a match needs at least one human participant")
	}
	if report.MatchType == models.MatchTypeVsAI && ais == 0 {
		return errors.NewValidationError("participants", "vs-AI match without an AI participant")
	}
	if report.WinnerTeam != models.DrawTeam && !teams[report.WinnerTeam] {
		return errors.NewValidationError("winner_team", "declared winner is not a participating team")
	}
	return nil
}

func (s *matchService) Verify(ctx context.Context, matchID string) (*models.MatchRecord, error) {
	log := logger.FromContext(ctx)
	log.Debug().Str("match_id", matchID).Msg("verifying match")

	m, err := s.get(ctx, matchID)
	if err != nil {
		return nil, err
	}

	// Idempotence short-circuit: the rating effect of a match is committed
	// at most once for the lifetime of the system.
	if m.RatingApplied {
		log.Info().Str("match_id", matchID).Msg("rating already applied, verify is a no-op")
		return m, nil
	}
	if m.Status != models.StatusPending {
		return nil, errors.NewValidationError("status", "match is not pending verification")
	}
	for _, p := range m.Participants {
		if !p.IsAI && p.PlayerID == nil {
			return nil, errors.NewValidationError("participants", "participant not resolved")
		}
	}

	verifiedAt := time.Now().UTC()
	outcomes := make(map[int]models.Outcome, len(m.Participants))
	for _, p := range m.Participants {
		outcomes[p.Slot] = m.OutcomeFor(p)
	}

	deltas, err := s.computeDeltas(ctx, m)
	if err != nil {
		return nil, err
	}

	verified := events.MatchVerified{
		MatchID:    m.ID,
		GameTitle:  m.GameTitle,
		MatchType:  string(m.MatchType),
		VerifiedAt: verifiedAt,
	}
	for _, p := range m.Participants {
		if p.IsAI {
			continue
		}
		result, err := s.applyWithRetry(ctx, *p.PlayerID, m, deltas[p.Slot], outcomes[p.Slot], p.Race, verifiedAt)
		if err != nil {
			return nil, err
		}
		result.AccountID = p.AccountID
		result.Outcome = string(outcomes[p.Slot])
		verified.Results = append(verified.Results, result)
	}

	if err := s.matches.MarkVerified(ctx, m.ID, verifiedAt, outcomes); err != nil {
		return nil, errors.NewInternalError(err)
	}
	log.Info().Str("match_id", m.ID).Int("players", len(verified.Results)).Msg("match verified, ratings applied")

	s.emitter.Emit(ctx, events.TopicMatchVerified, verified)
	return s.Get(ctx, m.ID)
}

// computeDeltas derives a signed delta per participant slot from the
// pre-match sub-ratings. Team deltas are computed from side averages and
// shared by every member of the side.
func (s *matchService) computeDeltas(ctx context.Context, m *models.MatchRecord) (map[int]int, error) {
	deltas := make(map[int]int, len(m.Participants))

	if m.MatchType == models.MatchTypeVsAI {
		for _, p := range m.Participants {
			if p.IsAI {
				continue
			}
			switch m.OutcomeFor(p) {
			case models.OutcomeWin:
				deltas[p.Slot] = rating.VersusAIDelta(true)
			case models.OutcomeLoss:
				deltas[p.Slot] = rating.VersusAIDelta(false)
			default:
				deltas[p.Slot] = 0
			}
		}
		return deltas, nil
	}

	ratings, err := s.subRatings(ctx, m)
	if err != nil {
		return nil, err
	}

	teamRatings := map[int][]int{}
	for _, p := range m.Participants {
		teamRatings[p.Team] = append(teamRatings[p.Team], ratings[p.Slot])
	}
	avg := map[int]int{}
	for team, rs := range teamRatings {
		avg[team] = rating.TeamRating(rs)
	}

	if m.WinnerTeam == models.DrawTeam {
		for _, p := range m.Participants {
			d, _ := rating.DrawDelta(avg[p.Team], avgOfOthers(avg, p.Team), rating.DefaultK)
			deltas[p.Slot] = d
		}
		return deltas, nil
	}

	winnerAvg := avg[m.WinnerTeam]
	winnerDelta, _ := rating.ComputeDelta(winnerAvg, avgOfOthers(avg, m.WinnerTeam), rating.DefaultK)
	for _, p := range m.Participants {
		if p.Team == m.WinnerTeam {
			deltas[p.Slot] = winnerDelta
		} else {
			_, loserDelta := rating.ComputeDelta(winnerAvg, avg[p.Team], rating.DefaultK)
			deltas[p.Slot] = loserDelta
		}
	}
	return deltas, nil
}

// subRatings loads each human participant's pre-match sub-rating for the
// match type, falling back to the baseline for first-timers. AI slots count
// at the baseline when averaging a mixed side.
func (s *matchService) subRatings(ctx context.Context, m *models.MatchRecord) (map[int]int, error) {
	out := make(map[int]int, len(m.Participants))
	for _, p := range m.Participants {
		out[p.Slot] = models.BaselineRating
		if p.IsAI || p.PlayerID == nil {
			continue
		}
		recs, err := s.players.RatingRecords(ctx, *p.PlayerID)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		for _, rec := range recs {
			if rec.MatchType == m.MatchType {
				out[p.Slot] = rec.Rating
				break
			}
		}
	}
	return out, nil
}

func avgOfOthers(avg map[int]int, team int) int {
	var others []int
	for t, a := range avg {
		if t != team {
			others = append(others, a)
		}
	}
	return rating.TeamRating(others)
}

// applyWithRetry commits one player's delta, retrying the read-compute-write
// cycle when the player's version counter moved underneath us.
func (s *matchService) applyWithRetry(ctx context.Context, playerID int64, m *models.MatchRecord, delta int, outcome models.Outcome, race string, verifiedAt time.Time) (events.PlayerResult, error) {
	log := logger.FromContext(ctx)

	for attempt := 1; attempt <= maxApplyRetries; attempt++ {
		player, err := s.players.Get(ctx, playerID)
		if err != nil {
			return events.PlayerResult{}, errors.NewInternalError(err)
		}
		recs, err := s.players.RatingRecords(ctx, playerID)
		if err != nil {
			return events.PlayerResult{}, errors.NewInternalError(err)
		}

		rec := rating.NewRecord(playerID, m.MatchType)
		rest := recs[:0:0]
		for _, existing := range recs {
			if existing.MatchType == m.MatchType {
				rec = existing
			} else {
				rest = append(rest, existing)
			}
		}

		newRec := rating.ApplyDelta(rec, delta, outcome)
		overall := rating.AggregateOverall(append(rest, newRec))
		tier := rank.TierFor(overall)

		err = s.players.ApplyRatingUpdate(ctx, models.RatingUpdate{
			PlayerID:        playerID,
			ExpectedVersion: player.Version,
			OverallRating:   overall,
			Tier:            tier,
			Record:          newRec,
			Outcome:         outcome,
			Race:            race,
			MapName:         m.MapName,
			History: models.RatingHistoryEntry{
				PlayerID:    playerID,
				MatchID:     m.ID,
				MatchType:   m.MatchType,
				Delta:       delta,
				RatingAfter: newRec.Rating,
				TierName:    tier.Name,
				VerifiedAt:  verifiedAt,
			},
		})
		switch {
		case err == nil:
			return events.PlayerResult{
				PlayerID:    playerID,
				Delta:       delta,
				RatingAfter: newRec.Rating,
				TierName:    tier.Name,
			}, nil
		case stderrors.Is(err, repository.ErrAlreadyApplied):
			// A previous, partially failed verify already committed this
			// player. Skip without touching the rating again.
			log.Info().Int64("player_id", playerID).Str("match_id", m.ID).Msg("delta already applied, skipping player")
			return events.PlayerResult{
				PlayerID:    playerID,
				Delta:       delta,
				RatingAfter: rec.Rating,
				TierName:    player.Tier.Name,
			}, nil
		case stderrors.Is(err, repository.ErrVersionConflict):
			log.Warn().Int64("player_id", playerID).Int("attempt", attempt).Msg("rating update lost the version race, retrying")
			continue
		default:
			return events.PlayerResult{}, errors.NewInternalError(err)
		}
	}
	return events.PlayerResult{}, errors.NewTransientError("rating update kept conflicting, re-submit verify", repository.ErrVersionConflict)
}

func (s *matchService) Reject(ctx context.Context, matchID string) (*models.MatchRecord, error) {
	log := logger.FromContext(ctx)

	m, err := s.get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status == models.StatusRejected {
		// The desired end state already holds.
		return m, nil
	}
	if !m.Status.CanTransition(models.StatusRejected) {
		return nil, errors.NewValidationError("status", "match cannot be rejected from "+string(m.Status))
	}

	if err := s.matches.UpdateStatus(ctx, matchID, models.StatusRejected, nil); err != nil {
		return nil, errors.NewInternalError(err)
	}
	log.Info().Str("match_id", matchID).Msg("match rejected")

	s.emitter.Emit(ctx, events.TopicMatchRejected, events.MatchRejected{
		MatchID: matchID,
		Reason:  "rejected by moderator",
	})
	return s.Get(ctx, matchID)
}

func (s *matchService) Get(ctx context.Context, matchID string) (*models.MatchRecord, error) {
	return s.get(ctx, matchID)
}

func (s *matchService) get(ctx context.Context, matchID string) (*models.MatchRecord, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("match", matchID)
		}
		return nil, errors.NewInternalError(err)
	}
	return m, nil
}

func (s *matchService) List(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error) {
	matches, err := s.matches.List(ctx, filter)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return matches, nil
}

func (s *matchService) Delete(ctx context.Context, matchID string) error {
	log := logger.FromContext(ctx)

	if err := s.matches.Delete(ctx, matchID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFoundError("match", matchID)
		}
		return errors.NewInternalError(err)
	}
	log.Info().Str("match_id", matchID).Msg("match deleted by administrator")
	return nil
}
