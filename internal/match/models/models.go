package models

import (
	"time"

	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
)

// RawCaseRecord is one untrusted record from the external provider feed.
// Names and jurisdictions are free text; only normalization makes them
// comparable.
type RawCaseRecord struct {
	ExternalCaseID  string    `json:"external_case_id"`
	ExternalJudgeID string    `json:"external_judge_id,omitempty"`
	JudgeName       string    `json:"judge_name"`
	Jurisdiction    string    `json:"jurisdiction"`
	CourtName       string    `json:"court_name,omitempty"`
	DecidedAt       time.Time `json:"decided_at"`
	Outcome         string    `json:"outcome"`
	CaseType        string    `json:"case_type"`
}

// Validate rejects records too malformed to normalize. These are logged and
// skipped upstream, never fatal to a batch.
func (r RawCaseRecord) Validate() error {
	if r.ExternalCaseID == "" {
		return dErrors.New(dErrors.CodeUpstreamData, "record missing external case id")
	}
	if r.JudgeName == "" {
		return dErrors.New(dErrors.CodeUpstreamData, "record missing judge name")
	}
	if r.DecidedAt.IsZero() {
		return dErrors.New(dErrors.CodeUpstreamData, "record missing decision date")
	}
	if r.Outcome == "" {
		return dErrors.New(dErrors.CodeUpstreamData, "record missing outcome")
	}
	return nil
}

// Tier identifies which fallback stage produced a match. Stages run in
// fixed order from strictest to loosest; external-identifier runs last and
// overrides name evidence entirely.
type Tier string

const (
	TierExact                Tier = "exact"
	TierJurisdictionRelaxed  Tier = "jurisdiction_relaxed"
	TierFuzzy                Tier = "fuzzy"
	TierExternalID           Tier = "external_id"
)

// Confidence returns the tier's match confidence. External-identifier
// matches are authoritative bindings; name-evidence tiers decay with
// looseness.
func (t Tier) Confidence() float64 {
	switch t {
	case TierExternalID:
		return 1.0
	case TierExact:
		return 0.95
	case TierJurisdictionRelaxed:
		return 0.85
	case TierFuzzy:
		return 0.70
	default:
		return 0
	}
}

// Kind tags a match outcome. Uncertainty is a value here, not an error.
type Kind string

const (
	KindMatched   Kind = "matched"
	KindAmbiguous Kind = "ambiguous"
	KindNoMatch   Kind = "no_match"
)

// Result is the outcome of running a record through the tier pipeline.
type Result struct {
	Kind       Kind         `json:"kind"`
	JudgeID    id.JudgeID   `json:"judge_id,omitempty"`
	Confidence float64      `json:"confidence,omitempty"`
	Tier       Tier         `json:"tier,omitempty"`
	// Candidates carries the equally plausible judges of an ambiguous
	// outcome so the review queue can present them.
	Candidates []id.JudgeID `json:"candidates,omitempty"`
}

func Matched(judgeID id.JudgeID, tier Tier) Result {
	return Result{Kind: KindMatched, JudgeID: judgeID, Tier: tier, Confidence: tier.Confidence()}
}

func Ambiguous(candidates []id.JudgeID) Result {
	return Result{Kind: KindAmbiguous, Candidates: candidates}
}

func NoMatch() Result {
	return Result{Kind: KindNoMatch}
}
