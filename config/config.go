// Package config holds process configuration for the freight negotiation
// backend. Values are layered by Load: defaults, then an optional YAML file,
// then FREIGHT_-prefixed environment variables.
package config

import "time"

// Config contains the full process configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DatabaseURL is the Postgres connection string.
	DatabaseURL string `koanf:"database_url"`

	// APIKey authenticates webhook calls from the voice platform.
	APIKey string `koanf:"api_key"`

	// JWTSecret signs dashboard operator tokens.
	JWTSecret string `koanf:"jwt_secret"`

	FMCSA       FMCSA       `koanf:"fmcsa"`
	Matching    Matching    `koanf:"matching"`
	Negotiation Negotiation `koanf:"negotiation"`

	// SessionTTL bounds how long an Open session may sit idle before the
	// sweep expires it.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// SweepInterval is how often the stale-session sweep runs.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// FMCSA configures the carrier verification client.
type FMCSA struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// Matching carries the load scoring weights. All weights are policy, not
// contract: tests pin behaviour through scenarios, not through these numbers.
type Matching struct {
	// BaseScore is granted to every load that survives filtering.
	BaseScore float64 `koanf:"base_score"`

	// PreferredLaneBonus is added when the destination state is preferred.
	PreferredLaneBonus float64 `koanf:"preferred_lane_bonus"`

	// PreferredLanes lists destination state codes that earn the bonus.
	PreferredLanes []string `koanf:"preferred_lanes"`

	// RateBonusPer100 is added per $100 of posted rate above the carrier's
	// stated minimum, up to RateBonusCap.
	RateBonusPer100 float64 `koanf:"rate_bonus_per_100"`
	RateBonusCap    float64 `koanf:"rate_bonus_cap"`

	// MilesPenaltyPer50 is subtracted per 50 miles of distance.
	MilesPenaltyPer50 float64 `koanf:"miles_penalty_per_50"`

	// MaxResults caps how many ranked loads a search returns.
	MaxResults int `koanf:"max_results"`
}

// Negotiation carries the rate negotiation policy.
type Negotiation struct {
	// MaxRounds bounds the number of counter-offer exchanges.
	MaxRounds int `koanf:"max_rounds"`

	// FloorFraction of the posted rate is the minimum the broker accepts.
	FloorFraction float64 `koanf:"floor_fraction"`

	// ConcessionSchedule gives, per round, the fraction of the remaining gap
	// between the carrier's offer and the target rate the broker concedes.
	ConcessionSchedule []float64 `koanf:"concession_schedule"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:        ":8080",
		LogLevel:    "info",
		DatabaseURL: "",
		APIKey:      "",
		JWTSecret:   "",
		FMCSA: FMCSA{
			BaseURL: "https://safer.fmcsa.dot.gov/query.asp",
			Timeout: 30 * time.Second,
		},
		Matching: Matching{
			BaseScore:          100,
			PreferredLaneBonus: 20,
			PreferredLanes:     []string{"TX", "GA", "IL", "OH"},
			RateBonusPer100:    10,
			RateBonusCap:       10,
			MilesPenaltyPer50:  1,
			MaxResults:         5,
		},
		Negotiation: Negotiation{
			MaxRounds:          3,
			FloorFraction:      0.90,
			ConcessionSchedule: []float64{0.5, 0.3, 0.15},
		},
		SessionTTL:    30 * time.Minute,
		SweepInterval: 5 * time.Minute,
	}
}
