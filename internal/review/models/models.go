package models

import (
	"time"

	id "gavel/pkg/domain"
)

// Kind tags why an entry landed in the queue.
type Kind string

const (
	// KindAmbiguousMatch: the matcher found several comparable candidates.
	KindAmbiguousMatch Kind = "ambiguous_match"
	// KindNoMatch: the matcher found nobody and candidate creation was not
	// allowed.
	KindNoMatch Kind = "no_match"
	// KindValidatorRejection: a position transition failed the assignment
	// validator.
	KindValidatorRejection Kind = "validator_rejection"
)

// Status tracks an entry's lifecycle.
type Status string

const (
	StatusOpen      Status = "open"
	StatusResolved  Status = "resolved"
	StatusDismissed Status = "dismissed"
)

// Entry is one item awaiting human review. The queue is the system's
// explicit refusal to guess: everything here was deferred, not dropped.
type Entry struct {
	ID     id.ReviewID `json:"id"`
	Kind   Kind        `json:"kind"`
	Status Status      `json:"status"`

	// CaseID links match entries to the parked case. Nil for validator
	// rejections, which reference a judge instead.
	CaseID  id.CaseID  `json:"case_id,omitempty"`
	JudgeID id.JudgeID `json:"judge_id,omitempty"`

	// Candidates carries the equally plausible judges of an ambiguous
	// match.
	Candidates []id.JudgeID `json:"candidates,omitempty"`

	// ViolationKind is set for validator rejections.
	ViolationKind string `json:"violation_kind,omitempty"`
	Detail        string `json:"detail,omitempty"`

	Resolution string     `json:"resolution,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Open reports whether the entry still needs attention.
func (e *Entry) Open() bool {
	return e.Status == StatusOpen
}
