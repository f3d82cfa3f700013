// Package validator is the pure gate every position transition passes
// before commit. It holds no state and performs no I/O: callers assemble a
// Proposal from a consistent aggregate view and the court record, and get
// back zero or more structured violations.
package validator

import (
	"fmt"

	dirmodels "gavel/internal/directory/models"
	"gavel/internal/identity/jurisdiction"
	"gavel/internal/position/models"
	id "gavel/pkg/domain"
)

// Kind classifies a violation.
type Kind string

const (
	KindSeatConflict Kind = "seat_conflict"
	KindJurisdiction Kind = "jurisdiction_violation"
	KindOverlap      Kind = "overlap_violation"
	// KindRetiredJudge is raised by the tracker, not Validate: the retired
	// flag lives on the roster record, outside the Proposal.
	KindRetiredJudge Kind = "retired_judge"
)

// Violation is a structured rejection: the kind plus the positions already
// holding the state the proposal would break.
type Violation struct {
	Kind        Kind            `json:"kind"`
	PositionIDs []id.PositionID `json:"position_ids,omitempty"`
	Detail      string          `json:"detail"`
}

// Proposal is everything the gate needs to judge one new active position.
type Proposal struct {
	// Position is the candidate tenure (status active, end open or set).
	Position *models.Position
	// Court is the target court record.
	Court *dirmodels.Court
	// CaseJurisdiction is the resolved jurisdiction key of the triggering
	// case, when the transition came from case resolution. Empty or
	// unresolved skips the containment check: an unmappable jurisdiction
	// cannot falsify containment.
	CaseJurisdiction string
	// MultiCourt exempts the judge from the cross-court overlap rule.
	MultiCourt bool
	// JudgePositions is the judge's full history from the aggregate.
	JudgePositions []*models.Position
	// CourtActive is every active position at the target court, across all
	// judges.
	CourtActive []*models.Position
}

// Validate runs the checks in fixed order: seat cardinality, jurisdiction
// containment, temporal overlap. All violations are collected so the review
// queue shows the full picture, not just the first failure.
func Validate(p Proposal) []Violation {
	var out []Violation
	if v := checkSeats(p); v != nil {
		out = append(out, *v)
	}
	if v := checkJurisdiction(p); v != nil {
		out = append(out, *v)
	}
	if v := checkOverlap(p); v != nil {
		out = append(out, *v)
	}
	return out
}

// checkSeats enforces the court's concurrently-active cardinality. The
// judge's own active position at this court does not consume a second seat.
func checkSeats(p Proposal) *Violation {
	seats := p.Court.Seats
	if seats < 1 {
		seats = 1
	}
	var occupied []id.PositionID
	for _, existing := range p.CourtActive {
		if existing.JudgeID == p.Position.JudgeID {
			continue
		}
		occupied = append(occupied, existing.ID)
	}
	if len(occupied) >= seats {
		return &Violation{
			Kind:        KindSeatConflict,
			PositionIDs: occupied,
			Detail:      fmt.Sprintf("court %s has %d of %d seats occupied", p.Court.ID, len(occupied), seats),
		}
	}
	return nil
}

// checkJurisdiction requires the court's jurisdiction to sit on the same
// hierarchy branch as the case's recorded jurisdiction.
func checkJurisdiction(p Proposal) *Violation {
	if p.CaseJurisdiction == "" || p.CaseJurisdiction == jurisdiction.Unresolved {
		return nil
	}
	if jurisdiction.Compatible(p.Court.JurisdictionKey, p.CaseJurisdiction) {
		return nil
	}
	return &Violation{
		Kind: KindJurisdiction,
		Detail: fmt.Sprintf("court jurisdiction %q is not on the same branch as case jurisdiction %q",
			p.Court.JurisdictionKey, p.CaseJurisdiction),
	}
}

// checkOverlap rejects intervals that intersect the judge's active or ended
// positions at other courts, unless the judge is whitelisted multi-court.
func checkOverlap(p Proposal) *Violation {
	if p.MultiCourt {
		return nil
	}
	var conflicting []id.PositionID
	for _, existing := range p.JudgePositions {
		if existing.ID == p.Position.ID || existing.CourtID == p.Position.CourtID {
			continue
		}
		if existing.Status == models.StatusRetiredInferred {
			// An inferred retirement is a soft fact; authoritative new
			// activity reverses it rather than conflicting with it.
			continue
		}
		if existing.Overlaps(p.Position.Start, p.Position.End) {
			conflicting = append(conflicting, existing.ID)
		}
	}
	if len(conflicting) > 0 {
		return &Violation{
			Kind:        KindOverlap,
			PositionIDs: conflicting,
			Detail:      fmt.Sprintf("interval starting %s overlaps %d position(s) at other courts", p.Position.Start.Format("2006-01-02"), len(conflicting)),
		}
	}
	return nil
}
