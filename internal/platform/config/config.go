// Package config builds runtime configuration from environment variables so
// main stays lean. Policy constants live here as named defaults rather than
// magic literals scattered through services.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Policy defaults. Each is overridable through the environment; the values
// are business rules, not tuning knobs.
const (
	// DefaultMinSampleSize is the minimum number of resolved cases before a
	// bias profile may be published.
	DefaultMinSampleSize = 500
	// DefaultSufficientSampleSize upgrades a profile from borderline to
	// sufficient.
	DefaultSufficientSampleSize = 1000
	// DefaultRetirementHorizonDays is how long a judge's positions may sit
	// without case activity before retirement is inferred (~18 months).
	DefaultRetirementHorizonDays = 548
	// DefaultFuzzyThreshold is the minimum name similarity accepted by the
	// fuzzy matching tier.
	DefaultFuzzyThreshold = 0.85
)

// Config captures everything the server binary needs to wire the core.
type Config struct {
	Addr        string
	DatabaseURL string

	Redis RedisConfig
	Kafka KafkaConfig

	ProviderBaseURL string
	ProviderRPS     float64

	AliasFile string

	Workers int
	// AllowCandidateJudges lets the ingest pipeline create candidate judges
	// from no-match records instead of parking them for review. Off by
	// default; enable only for trusted provider feeds.
	AllowCandidateJudges bool

	MinSampleSize        int
	SufficientSampleSize int
	RetirementHorizon    time.Duration
	SweepSchedule        string
	FuzzyThreshold       float64
}

// RedisConfig captures connection settings for the published-profile cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig captures the raw-record ingestion topic settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Group   string
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() Config {
	return Config{
		Addr:        envString("GAVEL_ADDR", ":8080"),
		DatabaseURL: os.Getenv("GAVEL_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("GAVEL_REDIS_URL"),
			PoolSize:     envInt("GAVEL_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("GAVEL_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("GAVEL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("GAVEL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("GAVEL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("GAVEL_KAFKA_BROKERS")),
			Topic:   envString("GAVEL_KAFKA_TOPIC", "gavel.raw-cases"),
			Group:   envString("GAVEL_KAFKA_GROUP", "gavel-ingest"),
		},
		ProviderBaseURL:      os.Getenv("GAVEL_PROVIDER_BASE_URL"),
		ProviderRPS:          envFloat("GAVEL_PROVIDER_RPS", 2.0),
		AliasFile:            os.Getenv("GAVEL_ALIAS_FILE"),
		Workers:              envInt("GAVEL_WORKERS", 8),
		AllowCandidateJudges: envBool("GAVEL_ALLOW_CANDIDATE_JUDGES", false),
		MinSampleSize:        envInt("GAVEL_MIN_SAMPLE", DefaultMinSampleSize),
		SufficientSampleSize: envInt("GAVEL_SUFFICIENT_SAMPLE", DefaultSufficientSampleSize),
		RetirementHorizon:    time.Duration(envInt("GAVEL_RETIREMENT_HORIZON_DAYS", DefaultRetirementHorizonDays)) * 24 * time.Hour,
		SweepSchedule:        envString("GAVEL_SWEEP_SCHEDULE", "30 3 * * *"),
		FuzzyThreshold:       envFloat("GAVEL_FUZZY_THRESHOLD", DefaultFuzzyThreshold),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
