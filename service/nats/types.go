package nats

import (
	"time"
)

// SubmissionEvent is published after a transaction reaches its commitment.
// It is published to the subject "submissions.{fee_payer}" in JetStream.
type SubmissionEvent struct {
	// Transaction identifiers
	Signature string `json:"signature"`
	Kind      string `json:"kind"` // airdrop, transfer, drain, complete_prereq
	Cluster   string `json:"cluster"`

	// Accounts
	FeePayer string  `json:"fee_payer"`
	To       *string `json:"to,omitempty"`
	Derived  *string `json:"derived_address,omitempty"` // prereq account for program calls

	// Amounts in lamports
	Amount uint64 `json:"amount"`
	Fee    uint64 `json:"fee,omitempty"` // only known for drains

	Commitment  string    `json:"commitment"`
	ExplorerURL string    `json:"explorer_url"`
	PublishedAt time.Time `json:"published_at"`
}

// Subject returns the JetStream subject the event is published to.
func (e *SubmissionEvent) Subject() string {
	return SubjectPrefix + e.FeePayer
}
