package models

import (
	"time"

	id "gavel/pkg/domain"
)

// Status tracks a case through resolution. Cases land pending, and only a
// confirmed match moves them to resolved; ambiguous cases wait for review.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAmbiguous Status = "ambiguous"
	StatusResolved  Status = "resolved"
)

// Case is one adjudicated matter. The (judge, position) link is empty until
// matching succeeds.
type Case struct {
	ID         id.CaseID     `json:"id"`
	ExternalID string        `json:"external_id"`
	JudgeID    id.JudgeID    `json:"judge_id,omitempty"`
	PositionID id.PositionID `json:"position_id,omitempty"`

	JurisdictionKey string    `json:"jurisdiction_key"`
	Outcome         string    `json:"outcome"`
	CaseType        string    `json:"case_type"`
	DecidedAt       time.Time `json:"decided_at"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Window is a half-open observation interval [From, To) over decision
// dates. A zero To means "up to now".
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether the decision date falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}
