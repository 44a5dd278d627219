package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.Negotiation.MaxRounds != 3 {
		t.Fatalf("expected 3 max rounds, got %d", cfg.Negotiation.MaxRounds)
	}
	if got := len(cfg.Negotiation.ConcessionSchedule); got != 3 {
		t.Fatalf("expected 3 concession factors, got %d", got)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FREIGHT_ADDR", ":9999")
	t.Setenv("FREIGHT_NEGOTIATION__MAX_ROUNDS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("expected env addr :9999, got %q", cfg.Addr)
	}
	if cfg.Negotiation.MaxRounds != 2 {
		t.Fatalf("expected env max rounds 2, got %d", cfg.Negotiation.MaxRounds)
	}
}

func TestValidateRejectsBadPolicy(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"zero rounds", func(c *Config) { c.Negotiation.MaxRounds = 0 }},
		{"floor above one", func(c *Config) { c.Negotiation.FloorFraction = 1.2 }},
		{"short schedule", func(c *Config) { c.Negotiation.ConcessionSchedule = []float64{0.5} }},
		{"negative factor", func(c *Config) { c.Negotiation.ConcessionSchedule = []float64{0.5, -0.1, 0.2} }},
		{"zero results", func(c *Config) { c.Matching.MaxResults = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := New()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
