package models

import (
	"time"

	id "gavel/pkg/domain"
)

// Status is the lifecycle state of one (judge, court) tenure.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
	// StatusRetiredInferred marks a tenure closed by the inactivity sweep
	// rather than an authoritative record. The end date is the last
	// observed case date and may be corrected without losing history.
	StatusRetiredInferred Status = "retired_inferred"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusEnded, StatusRetiredInferred:
		return true
	}
	return false
}

// Position is one tenure interval of a judge at a court. Intervals are day
// granular and inclusive on both ends; a nil End means currently active.
// Positions are never physically deleted.
type Position struct {
	ID      id.PositionID `json:"id"`
	JudgeID id.JudgeID    `json:"judge_id"`
	CourtID id.CourtID    `json:"court_id"`

	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
	// EndInferred distinguishes a swept (inferred) end date from an
	// authoritative one.
	EndInferred bool   `json:"end_inferred,omitempty"`
	Status      Status `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Day truncates a timestamp to UTC midnight. All interval arithmetic works
// on day granularity.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Covers reports whether the position interval contains the given day.
func (p *Position) Covers(day time.Time) bool {
	day = Day(day)
	if day.Before(Day(p.Start)) {
		return false
	}
	return p.End == nil || !day.After(Day(*p.End))
}

// Overlaps reports whether two inclusive day intervals intersect. A nil end
// is open-ended.
func (p *Position) Overlaps(start time.Time, end *time.Time) bool {
	if p.End != nil && Day(*p.End).Before(Day(start)) {
		return false
	}
	if end != nil && Day(*end).Before(Day(p.Start)) {
		return false
	}
	return true
}

// IsActive reports whether the position is the judge's live tenure at its
// court.
func (p *Position) IsActive() bool { return p.Status == StatusActive }

// Aggregate is the unit of mutation for one judge's position history: all
// positions load, mutate, and commit together under a generation check, so
// the overlap invariants are always evaluated against a consistent view.
type Aggregate struct {
	JudgeID    id.JudgeID
	Generation uint64
	Positions  []*Position
	// LastActivity is the most recent resolved case date observed for this
	// judge; zero when no case has ever been resolved to them.
	LastActivity time.Time
}

// Active returns the currently active positions.
func (a *Aggregate) Active() []*Position {
	var out []*Position
	for _, p := range a.Positions {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	return out
}

// ActiveAt returns the active position at the given court, or nil.
func (a *Aggregate) ActiveAt(courtID id.CourtID) *Position {
	for _, p := range a.Positions {
		if p.IsActive() && p.CourtID == courtID {
			return p
		}
	}
	return nil
}

// Find returns the position with the given ID, or nil.
func (a *Aggregate) Find(positionID id.PositionID) *Position {
	for _, p := range a.Positions {
		if p.ID == positionID {
			return p
		}
	}
	return nil
}

// RecordKind classifies an authoritative admin/provider record.
type RecordKind string

const (
	// RecordAppointment opens a new position, superseding any active
	// position at a different court unless the judge is whitelisted for
	// multi-court service.
	RecordAppointment RecordKind = "appointment"
	// RecordEnd closes the active position at a court with an
	// authoritative end date.
	RecordEnd RecordKind = "end"
	// RecordRetirement closes all active positions authoritatively and
	// retires the judge.
	RecordRetirement RecordKind = "retirement"
)

// AuthoritativeRecord is an explicit instruction from the admin/review
// surface or a trusted provider feed. Only these records may reopen a
// closed history.
type AuthoritativeRecord struct {
	Kind    RecordKind  `json:"kind"`
	JudgeID id.JudgeID  `json:"judge_id"`
	CourtID id.CourtID  `json:"court_id,omitempty"`
	Start   time.Time   `json:"start,omitempty"`
	End     *time.Time  `json:"end,omitempty"`
}
