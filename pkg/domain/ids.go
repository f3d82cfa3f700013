// Package domain defines the typed identifiers shared across modules.
// Wrapping uuid.UUID in distinct named types makes cross-entity ID mixups
// a compile error instead of a data-corruption incident.
package domain

import (
	"github.com/google/uuid"

	dErrors "gavel/pkg/domain-errors"
)

type (
	// JudgeID identifies a judge in the internal roster.
	JudgeID uuid.UUID
	// CourtID identifies a court.
	CourtID uuid.UUID
	// PositionID identifies one tenure interval of a judge at a court.
	PositionID uuid.UUID
	// CaseID identifies an adjudicated matter.
	CaseID uuid.UUID
	// SnapshotID identifies one versioned bias-profile computation.
	SnapshotID uuid.UUID
	// ReviewID identifies one entry in the manual review queue.
	ReviewID uuid.UUID
)

func NewJudgeID() JudgeID       { return JudgeID(uuid.New()) }
func NewCourtID() CourtID       { return CourtID(uuid.New()) }
func NewPositionID() PositionID { return PositionID(uuid.New()) }
func NewCaseID() CaseID         { return CaseID(uuid.New()) }
func NewSnapshotID() SnapshotID { return SnapshotID(uuid.New()) }
func NewReviewID() ReviewID     { return ReviewID(uuid.New()) }

func (id JudgeID) String() string    { return uuid.UUID(id).String() }
func (id CourtID) String() string    { return uuid.UUID(id).String() }
func (id PositionID) String() string { return uuid.UUID(id).String() }
func (id CaseID) String() string     { return uuid.UUID(id).String() }
func (id SnapshotID) String() string { return uuid.UUID(id).String() }
func (id ReviewID) String() string   { return uuid.UUID(id).String() }

func (id JudgeID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CourtID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id PositionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CaseID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SnapshotID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ReviewID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// ParseJudgeID parses and validates a judge ID from its string form.
func ParseJudgeID(s string) (JudgeID, error) {
	u, err := parseUUID(s)
	return JudgeID(u), err
}

func ParseCourtID(s string) (CourtID, error) {
	u, err := parseUUID(s)
	return CourtID(u), err
}

func ParsePositionID(s string) (PositionID, error) {
	u, err := parseUUID(s)
	return PositionID(u), err
}

func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s)
	return CaseID(u), err
}

func ParseSnapshotID(s string) (SnapshotID, error) {
	u, err := parseUUID(s)
	return SnapshotID(u), err
}

func ParseReviewID(s string) (ReviewID, error) {
	u, err := parseUUID(s)
	return ReviewID(u), err
}

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
