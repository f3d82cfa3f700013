// Package confidence grades how much weight a bias profile's sample can
// bear. The tiers gate publication: insufficient profiles are computed and
// stored but never surfaced.
package confidence

// Tier classifies a profile's sample size.
type Tier string

const (
	TierInsufficient Tier = "insufficient"
	TierBorderline   Tier = "borderline"
	TierSufficient   Tier = "sufficient"
)

// Publishable reports whether a profile at this tier may be surfaced to
// readers.
func (t Tier) Publishable() bool {
	return t != TierInsufficient
}

// Score pairs the sample tier with the half-width of the widest confidence
// interval backing the profile, so callers can show "±x" next to a rate.
type Score struct {
	Tier      Tier
	HalfWidth float64
}

// Scorer maps sample sizes onto tiers. Thresholds are inclusive lower
// bounds: a sample of exactly the minimum is borderline, not insufficient.
type Scorer struct {
	minSample        int
	sufficientSample int
}

func NewScorer(minSample, sufficientSample int) *Scorer {
	return &Scorer{minSample: minSample, sufficientSample: sufficientSample}
}

// Score grades a sample. intervalWidth is the full width of the widest
// confidence interval observed across the profile's buckets.
func (s *Scorer) Score(sampleSize int, intervalWidth float64) Score {
	tier := TierSufficient
	switch {
	case sampleSize < s.minSample:
		tier = TierInsufficient
	case sampleSize < s.sufficientSample:
		tier = TierBorderline
	}
	return Score{Tier: tier, HalfWidth: intervalWidth / 2}
}
