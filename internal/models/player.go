package models

import "time"

const (
	// BaselineRating is the rating every new player and sub-record starts at.
	BaselineRating = 1500
	// FloorRating is the hard lower bound a rating can never drop below.
	FloorRating = 1000
)

// Player is one rating profile per (account, game title) pair.
type Player struct {
	ID        int64     `json:"id"`
	AccountID string    `json:"account_id"`
	GameTitle string    `json:"game_title"`
	Rating    int       `json:"rating"`
	Tier      Tier      `json:"tier"`
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tier is a named rank band derived from the rating threshold table.
// It is never authoritative; it is always recomputed from the rating.
type Tier struct {
	Name      string `json:"name"`
	Index     int    `json:"index"`
	Threshold int    `json:"threshold"`
	Icon      string `json:"icon"`
}

// RatingRecord is the independently tracked sub-rating for one match type.
type RatingRecord struct {
	ID        int64     `json:"id"`
	PlayerID  int64     `json:"player_id"`
	MatchType MatchType `json:"match_type"`
	Rating    int       `json:"rating"`
	Matches   int       `json:"matches"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Draws     int       `json:"draws"`
	WinRate   float64   `json:"win_rate"`
}

// RaceStat is a denormalized per-race counter used only for reporting.
type RaceStat struct {
	PlayerID int64  `json:"player_id"`
	Race     string `json:"race"`
	Matches  int    `json:"matches"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
}

// MapStat is a denormalized per-map counter used only for reporting.
type MapStat struct {
	PlayerID int64  `json:"player_id"`
	MapName  string `json:"map_name"`
	Matches  int    `json:"matches"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
}

// PlayerProfile is the read-side view of a player: overall rating, tier,
// every sub-record and the reporting counters.
type PlayerProfile struct {
	Player    Player         `json:"player"`
	Records   []RatingRecord `json:"records"`
	RaceStats []RaceStat     `json:"race_stats"`
	MapStats  []MapStat      `json:"map_stats"`
}

// RatingHistoryEntry records one applied delta, stamped with the
// verification time so point-in-time tier history stays consistent.
type RatingHistoryEntry struct {
	ID          int64     `json:"id"`
	PlayerID    int64     `json:"player_id"`
	MatchID     string    `json:"match_id"`
	MatchType   MatchType `json:"match_type"`
	Delta       int       `json:"delta"`
	RatingAfter int       `json:"rating_after"`
	TierName    string    `json:"tier_name"`
	VerifiedAt  time.Time `json:"verified_at"`
}

// RatingUpdate is the atomic commit unit for one player's delta: the new
// sub-record, the recomputed overall rating and tier, the reporting counter
// increments and the history entry, guarded by the player's version counter.
type RatingUpdate struct {
	PlayerID        int64
	ExpectedVersion int64
	OverallRating   int
	Tier            Tier
	Record          RatingRecord
	Outcome         Outcome
	Race            string
	MapName         string
	History         RatingHistoryEntry
}
