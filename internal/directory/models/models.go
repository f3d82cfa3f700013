package models

import (
	"time"

	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
)

// Judge is the stable internal identity a provider record resolves to.
// Judges are never deleted: retirement deactivates them while the position
// history stays intact.
type Judge struct {
	ID            id.JudgeID    `json:"id"`
	CanonicalName string        `json:"canonical_name"`
	NameKey       string        `json:"-"`
	FuzzyKey      string        `json:"-"`
	Variants      []NameVariant `json:"variants,omitempty"`

	// ExternalID binds this judge to the upstream provider's identifier.
	// Empty until observed; may later be corrected by admin input.
	ExternalID string `json:"external_id,omitempty"`

	AppointedAt *time.Time `json:"appointed_at,omitempty"`
	BirthYear   int        `json:"birth_year,omitempty"`

	Retired bool `json:"retired"`
	// RetirementInferredAt is set when retirement came from the inactivity
	// sweep rather than an authoritative record. It stays distinct from
	// authoritative position end dates so corrections lose nothing.
	RetirementInferredAt *time.Time `json:"retirement_inferred_at,omitempty"`

	// MultiCourt whitelists this judge for concurrent positions at
	// different courts (circuit-riding). Set only by admin input.
	MultiCourt bool `json:"multi_court"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NameVariant is a historical or alternate spelling mapped onto this judge.
// Variants map many-to-one; the canonical name stays unique.
type NameVariant struct {
	Name     string    `json:"name"`
	NameKey  string    `json:"-"`
	FuzzyKey string    `json:"-"`
	AddedAt  time.Time `json:"added_at"`
	// Source records how the variant was learned (external-id tier match,
	// admin entry).
	Source string `json:"source,omitempty"`
}

// HasVariantKey reports whether the judge already answers to the given
// exact name key, canonically or through a variant.
func (j *Judge) HasVariantKey(nameKey string) bool {
	if j.NameKey == nameKey {
		return true
	}
	for _, v := range j.Variants {
		if v.NameKey == nameKey {
			return true
		}
	}
	return false
}

// CourtLevel classifies a court within its jurisdiction.
type CourtLevel string

const (
	LevelTrial     CourtLevel = "trial"
	LevelAppellate CourtLevel = "appellate"
	LevelSupreme   CourtLevel = "supreme"
)

func (l CourtLevel) IsValid() bool {
	switch l {
	case LevelTrial, LevelAppellate, LevelSupreme:
		return true
	}
	return false
}

// Court is a venue with a canonical position in the jurisdiction hierarchy.
type Court struct {
	ID              id.CourtID `json:"id"`
	Name            string     `json:"name"`
	JurisdictionKey string     `json:"jurisdiction_key"`
	Level           CourtLevel `json:"level"`
	// Seats bounds the number of concurrently active positions. Default is
	// one seat per court.
	Seats     int       `json:"seats"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate enforces the court invariants before a write.
func (c *Court) Validate() error {
	if c.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "court name is required")
	}
	if c.JurisdictionKey == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "court jurisdiction is required")
	}
	if !c.Level.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid court level %q", c.Level)
	}
	if c.Seats < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "court must have at least one seat")
	}
	return nil
}
