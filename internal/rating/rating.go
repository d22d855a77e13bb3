// Package rating computes and applies rating deltas. Everything here is pure
// arithmetic on models values; persistence and serialization happen at the
// commit boundary in the service layer.
package rating

import (
	"math"

	"github.com/guffzilla/wartest-sub004/internal/models"
	"github.com/guffzilla/wartest-sub004/internal/rank"
)

const (
	// DefaultK is the K-factor used for competitive deltas.
	DefaultK = 32
	// deviation scales the expected-score curve.
	deviation = 400

	// Vs-AI matches have no opponent rating to balance against, so they use
	// fixed asymmetric constants instead of a zero-sum exchange.
	aiWinDelta  = 12
	aiLossDelta = -6
)

// Expected returns the expected score of a player rated a against a player
// rated b.
func Expected(a, b int) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/deviation))
}

// ComputeDelta returns the paired zero-sum adjustment for a decided match.
// The magnitude shrinks as the favored side's margin grows and grows when
// the weaker-rated side wins. The loser's delta is the exact negation of the
// winner's.
func ComputeDelta(winnerRating, loserRating, k int) (winnerDelta, loserDelta int) {
	e := Expected(winnerRating, loserRating)
	winnerDelta = int(math.Round(float64(k) * (1 - e)))
	if winnerDelta < 1 {
		// A decided match always moves at least one point, even across a
		// rating gap wide enough to round the exchange to zero.
		winnerDelta = 1
	}
	return winnerDelta, -winnerDelta
}

// DrawDelta returns the paired adjustment when a match is drawn. The deltas
// cancel: the lower-rated side gains what the higher-rated side loses.
func DrawDelta(a, b, k int) (deltaA, deltaB int) {
	e := Expected(a, b)
	deltaA = int(math.Round(float64(k) * (0.5 - e)))
	return deltaA, -deltaA
}

// VersusAIDelta returns the fixed delta for a vs-AI match.
func VersusAIDelta(won bool) int {
	if won {
		return aiWinDelta
	}
	return aiLossDelta
}

// TeamRating averages a team's sub-ratings, rounded to nearest. Team and
// free-for-all deltas are computed from these averages and every member of a
// side receives the side's delta.
func TeamRating(ratings []int) int {
	if len(ratings) == 0 {
		return models.BaselineRating
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return int(math.Round(float64(sum) / float64(len(ratings))))
}

// NewRecord returns a fresh sub-record at the baseline rating with zero
// matches, so it never dilutes the weighted overall average.
func NewRecord(playerID int64, matchType models.MatchType) models.RatingRecord {
	return models.RatingRecord{
		PlayerID:  playerID,
		MatchType: matchType,
		Rating:    models.BaselineRating,
	}
}

// ApplyDelta returns the sub-record after one match: rating moved by delta
// and floored, counters incremented, win rate recomputed. The input record
// is not mutated.
func ApplyDelta(rec models.RatingRecord, delta int, outcome models.Outcome) models.RatingRecord {
	rec.Rating += delta
	if rec.Rating < models.FloorRating {
		rec.Rating = models.FloorRating
	}

	rec.Matches++
	switch outcome {
	case models.OutcomeWin:
		rec.Wins++
	case models.OutcomeLoss:
		rec.Losses++
	case models.OutcomeDraw:
		rec.Draws++
	}
	rec.WinRate = winRate(rec)
	return rec
}

func winRate(rec models.RatingRecord) float64 {
	if rec.Matches == 0 {
		return 0
	}
	return float64(rec.Wins) / float64(rec.Matches)
}

// AggregateOverall computes the matches-weighted mean across sub-ratings: a
// player with 200 1v1 matches and 2 team matches is rated by the format they
// actually play. Zero recorded matches in every type yields the baseline.
func AggregateOverall(recs []models.RatingRecord) int {
	var weighted, total int
	for _, rec := range recs {
		weighted += rec.Rating * rec.Matches
		total += rec.Matches
	}
	if total == 0 {
		return models.BaselineRating
	}
	return int(math.Round(float64(weighted) / float64(total)))
}

// TierForOverall recomputes the derived tier from an overall rating.
func TierForOverall(overall int) models.Tier {
	return rank.TierFor(overall)
}
