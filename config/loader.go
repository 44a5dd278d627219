package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FREIGHT_CONFIG is set
//  3. env (prefix FREIGHT_, double underscore for nesting)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("FREIGHT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	// FREIGHT_DATABASE_URL -> database_url, FREIGHT_FMCSA__TIMEOUT -> fmcsa.timeout
	envProvider := env.Provider("FREIGHT_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "FREIGHT_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: addr must not be empty")
	}
	if c.Negotiation.MaxRounds <= 0 {
		return errors.New("config: negotiation max_rounds must be positive")
	}
	if c.Negotiation.FloorFraction <= 0 || c.Negotiation.FloorFraction > 1 {
		return errors.New("config: negotiation floor_fraction must be in (0, 1]")
	}
	if len(c.Negotiation.ConcessionSchedule) < c.Negotiation.MaxRounds {
		return errors.New("config: concession_schedule must cover every round")
	}
	for _, f := range c.Negotiation.ConcessionSchedule {
		if f < 0 || f > 1 {
			return errors.New("config: concession factors must be in [0, 1]")
		}
	}
	if c.Matching.MaxResults <= 0 {
		return errors.New("config: matching max_results must be positive")
	}
	return nil
}
