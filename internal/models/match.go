package models

import "time"

// MatchType is the format category a match was played in. Each type carries
// its own sub-rating.
type MatchType string

const (
	MatchType1v1  MatchType = "1v1"
	MatchType2v2  MatchType = "2v2"
	MatchType3v3  MatchType = "3v3"
	MatchType4v4  MatchType = "4v4"
	MatchTypeFFA  MatchType = "ffa"
	MatchTypeVsAI MatchType = "vs_ai"
)

// MatchTypes lists every valid match type.
var MatchTypes = []MatchType{MatchType1v1, MatchType2v2, MatchType3v3, MatchType4v4, MatchTypeFFA, MatchTypeVsAI}

// Valid reports whether the match type is one of the known formats.
func (t MatchType) Valid() bool {
	for _, mt := range MatchTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// Competitive reports whether the type has a real opponent rating to balance
// against. Vs-AI matches use fixed asymmetric deltas instead.
func (t MatchType) Competitive() bool {
	return t != MatchTypeVsAI
}

// VerificationStatus is the state a match report moves through.
type VerificationStatus string

const (
	StatusPending     VerificationStatus = "pending"
	StatusVerified    VerificationStatus = "verified"
	StatusRejected    VerificationStatus = "rejected"
	StatusDisputed    VerificationStatus = "disputed"
	StatusPendingEdit VerificationStatus = "pending_edit"
)

// Terminal reports whether no further transitions are possible.
func (s VerificationStatus) Terminal() bool {
	return s == StatusRejected
}

// CanTransition reports whether the state machine allows moving to the given
// status. Entering pending_edit is allowed from every non-terminal state;
// nothing ever transitions back into pending (the edit round-trip restores a
// prior status, which is handled separately).
func (s VerificationStatus) CanTransition(to VerificationStatus) bool {
	if to == StatusPendingEdit {
		return !s.Terminal() && s != StatusPendingEdit
	}
	switch s {
	case StatusPending:
		return to == StatusVerified || to == StatusRejected
	case StatusVerified:
		return to == StatusDisputed
	default:
		return false
	}
}

// Outcome is a single participant's result in a match.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// DrawTeam is the winner-team value declaring the match a draw.
const DrawTeam = 0

// ParticipantEntry is one slot in a match's ordered participant list.
// PlayerID stays nil until the account has been resolved to a player row.
type ParticipantEntry struct {
	MatchID   string  `json:"match_id"`
	Slot      int     `json:"slot"`
	AccountID string  `json:"account_id"`
	PlayerID  *int64  `json:"player_id"`
	Team      int     `json:"team"`
	Race      string  `json:"race"`
	IsAI      bool    `json:"is_ai"`
	Outcome   Outcome `json:"outcome,omitempty"`
}

// MatchRecord is one immutable report of a completed contest plus its
// mutable verification envelope.
type MatchRecord struct {
	ID              string              `json:"id"`
	GameTitle       string              `json:"game_title"`
	MatchType       MatchType           `json:"match_type"`
	MapName         string              `json:"map_name"`
	ResourceSetting string              `json:"resource_setting"`
	WinnerTeam      int                 `json:"winner_team"`
	Notes           string              `json:"notes"`
	Status          VerificationStatus  `json:"status"`
	PriorStatus     *VerificationStatus `json:"prior_status,omitempty"`
	RatingApplied   bool                `json:"rating_applied"`
	VerifiedAt      *time.Time          `json:"verified_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	Participants    []ParticipantEntry  `json:"participants,omitempty"`
	Evidence        []string            `json:"evidence,omitempty"`
}

// OutcomeFor derives a participant's outcome from the declared winner team.
func (m *MatchRecord) OutcomeFor(p ParticipantEntry) Outcome {
	if m.WinnerTeam == DrawTeam {
		return OutcomeDraw
	}
	if p.Team == m.WinnerTeam {
		return OutcomeWin
	}
	return OutcomeLoss
}

// ReportParticipant is one participant slot in a submitted report.
type ReportParticipant struct {
	AccountID string `json:"account_id"`
	Team      int    `json:"team"`
	Race      string `json:"race"`
	IsAI      bool   `json:"is_ai"`
}

// MatchReport is the raw player-submitted report the engine ingests.
type MatchReport struct {
	GameTitle       string              `json:"game_title"`
	MatchType       MatchType           `json:"match_type"`
	MapName         string              `json:"map_name"`
	ResourceSetting string              `json:"resource_setting"`
	WinnerTeam      int                 `json:"winner_team"`
	Notes           string              `json:"notes"`
	SystemVerified  bool                `json:"system_verified"`
	Evidence        []string            `json:"evidence"`
	Participants    []ReportParticipant `json:"participants"`
}

// MatchFilter narrows match listings.
type MatchFilter struct {
	GameTitle string
	MatchType MatchType
	Status    VerificationStatus
	PlayerID  int64
	Limit     int
	Offset    int
}
