package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DefaultMinSampleSize, cfg.MinSampleSize)
	assert.Equal(t, DefaultSufficientSampleSize, cfg.SufficientSampleSize)
	assert.Equal(t, time.Duration(DefaultRetirementHorizonDays)*24*time.Hour, cfg.RetirementHorizon)
	assert.Equal(t, DefaultFuzzyThreshold, cfg.FuzzyThreshold)
	// Candidate creation is opt-in.
	assert.False(t, cfg.AllowCandidateJudges)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("GAVEL_ALLOW_CANDIDATE_JUDGES", "true")
	t.Setenv("GAVEL_RETIREMENT_HORIZON_DAYS", "365")
	t.Setenv("GAVEL_KAFKA_BROKERS", "broker-1:9092, broker-2:9092")

	cfg := FromEnv()

	assert.True(t, cfg.AllowCandidateJudges)
	assert.Equal(t, 365*24*time.Hour, cfg.RetirementHorizon)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
}

func TestFromEnvIgnoresMalformedBool(t *testing.T) {
	t.Setenv("GAVEL_ALLOW_CANDIDATE_JUDGES", "definitely")
	assert.False(t, FromEnv().AllowCandidateJudges)
}
