package models

import (
	"time"

	"gavel/internal/analytics/confidence"
	"gavel/internal/docket/models"
	id "gavel/pkg/domain"
)

// Bucket aggregates a judge's resolved cases for one (case type, outcome)
// cell, alongside the jurisdiction-wide baseline for the same cell.
type Bucket struct {
	CaseType string `json:"case_type"`
	Outcome  string `json:"outcome"`

	// Count and Total are the judge's cases with this outcome and the
	// judge's cases of this type overall.
	Count int `json:"count"`
	Total int `json:"total"`

	// BaselineCount and BaselineTotal are the same pair over every judge
	// in the enclosing jurisdiction.
	BaselineCount int `json:"baseline_count"`
	BaselineTotal int `json:"baseline_total"`

	// Rate and BaselineRate are the observed proportions. Zero when the
	// respective total is zero.
	Rate         float64 `json:"rate"`
	BaselineRate float64 `json:"baseline_rate"`

	// Deviation is Rate - BaselineRate. Significant marks cells where the
	// two-proportion test rejects equality at the configured level.
	Deviation   float64 `json:"deviation"`
	Significant bool    `json:"significant"`

	// CILow and CIHigh bound the judge's rate (Wilson interval).
	CILow  float64 `json:"ci_low"`
	CIHigh float64 `json:"ci_high"`
}

// BiasProfile is one immutable snapshot of a judge's outcome pattern over a
// window. Recomputation appends a new snapshot with a higher version rather
// than mutating the old one.
type BiasProfile struct {
	ID      id.SnapshotID `json:"id"`
	JudgeID id.JudgeID    `json:"judge_id"`
	Window  models.Window `json:"window"`

	// Generation is the judge's position-aggregate generation at compute
	// time. A snapshot computed against a stale generation is discarded
	// and recomputed.
	Generation uint64 `json:"generation"`
	Version    int    `json:"version"`

	SampleSize int             `json:"sample_size"`
	SampleTier confidence.Tier `json:"sample_tier"`

	// PatternScore is the sample-weighted mean absolute deviation across
	// significant buckets, nil when no cell is significant.
	PatternScore *float64 `json:"pattern_score,omitempty"`

	Buckets []Bucket `json:"buckets"`

	ComputedAt time.Time `json:"computed_at"`
}

// Publishable reports whether the snapshot clears the sample gate.
func (p *BiasProfile) Publishable() bool {
	return p.SampleTier.Publishable()
}
