// Package events defines the domain events this engine emits and the
// publishing machinery that delivers them. The reward/achievement
// collaborator subscribes independently; nothing here waits on consumers.
package events

import "time"

// Topics.
const (
	TopicMatchVerified    = "match.verified"
	TopicMatchRejected    = "match.rejected"
	TopicDisputeOpened    = "dispute.opened"
	TopicDisputeResolved  = "dispute.resolved"
	TopicProposalApproved = "proposal.approved"
)

// PlayerResult is one player's verified outcome inside a MatchVerified event.
type PlayerResult struct {
	PlayerID    int64  `json:"player_id"`
	AccountID   string `json:"account_id"`
	Outcome     string `json:"outcome"`
	Delta       int    `json:"delta"`
	RatingAfter int    `json:"rating_after"`
	TierName    string `json:"tier_name"`
}

// MatchVerified is emitted exactly once per match, when its rating effect is
// committed.
type MatchVerified struct {
	MatchID    string         `json:"match_id"`
	GameTitle  string         `json:"game_title"`
	MatchType  string         `json:"match_type"`
	VerifiedAt time.Time      `json:"verified_at"`
	Results    []PlayerResult `json:"results"`
}

// MatchRejected is emitted when a report is rejected, including the
// auto-rejection of evidence-less submissions.
type MatchRejected struct {
	MatchID string `json:"match_id"`
	Reason  string `json:"reason"`
}

// DisputeOpened is emitted when a player formally contests a verified match.
type DisputeOpened struct {
	DisputeID string `json:"dispute_id"`
	MatchID   string `json:"match_id"`
	PlayerID  int64  `json:"player_id"`
	Reason    string `json:"reason"`
}

// DisputeResolved is emitted on adjudication. It is a signal only; any
// rating correction is a separate external action.
type DisputeResolved struct {
	DisputeID string `json:"dispute_id"`
	MatchID   string `json:"match_id"`
	Decision  string `json:"decision"`
}

// ProposalApproved is emitted when an edit proposal's descriptive changes
// are applied.
type ProposalApproved struct {
	ProposalID string            `json:"proposal_id"`
	MatchID    string            `json:"match_id"`
	Fields     map[string]string `json:"fields"`
}
