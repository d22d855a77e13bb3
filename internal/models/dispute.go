package models

import "time"

// DisputeStatus is the adjudication state of a dispute.
type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
	DisputeRejected DisputeStatus = "rejected"
)

// Dispute is a formal contest of a match's recorded outcome. At most one
// dispute exists per (match, disputing player) pair.
type Dispute struct {
	ID             string        `json:"id"`
	MatchID        string        `json:"match_id"`
	PlayerID       int64         `json:"player_id"`
	Reason         string        `json:"reason"`
	EvidenceURI    string        `json:"evidence_uri,omitempty"`
	Status         DisputeStatus `json:"status"`
	ResolutionNote string        `json:"resolution_note,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
}

// DisputeFilter narrows dispute listings.
type DisputeFilter struct {
	MatchID  string
	PlayerID int64
	Status   DisputeStatus
	Limit    int
	Offset   int
}

// ProposalStatus is the review state of an edit proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
)

// EditProposal is a queued change to a match's descriptive fields. Fields
// maps a field name to its proposed value; approval mutates only those
// fields and never re-triggers rating application.
type EditProposal struct {
	ID             string            `json:"id"`
	MatchID        string            `json:"match_id"`
	AuthorPlayerID int64             `json:"author_player_id"`
	Fields         map[string]string `json:"fields"`
	Status         ProposalStatus    `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	ResolvedAt     *time.Time        `json:"resolved_at,omitempty"`
}

// Conflicts reports whether the proposal targets any field already targeted
// by the other proposal. Used to reject lost-update edit conflicts.
func (p *EditProposal) Conflicts(other *EditProposal) bool {
	for field := range p.Fields {
		if _, ok := other.Fields[field]; ok {
			return true
		}
	}
	return false
}
