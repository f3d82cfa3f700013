package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreTiers(t *testing.T) {
	scorer := NewScorer(500, 1000)

	tests := []struct {
		sampleSize int
		want       Tier
	}{
		{0, TierInsufficient},
		{499, TierInsufficient},
		{500, TierBorderline},
		{999, TierBorderline},
		{1000, TierSufficient},
		{50000, TierSufficient},
	}
	for _, tt := range tests {
		got := scorer.Score(tt.sampleSize, 0)
		assert.Equal(t, tt.want, got.Tier, "sample size %d", tt.sampleSize)
	}
}

func TestScoreHalfWidth(t *testing.T) {
	scorer := NewScorer(500, 1000)
	got := scorer.Score(1000, 0.12)
	assert.InDelta(t, 0.06, got.HalfWidth, 1e-9)
}

func TestPublishable(t *testing.T) {
	assert.False(t, TierInsufficient.Publishable())
	assert.True(t, TierBorderline.Publishable())
	assert.True(t, TierSufficient.Publishable())
}
