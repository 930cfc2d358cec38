package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TOKENRAIN_CONFIG is set
//  3. env (prefix TOKENRAIN_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("TOKENRAIN_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TOKENRAIN_ADDR, TOKENRAIN_MISS_TIMEOUT_MS, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("TOKENRAIN_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "tokenrain_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the configuration invariants.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.FeedURL == "":
		return fmt.Errorf("%w: feed_url must not be empty", ErrInvalidConfig)
	case c.MaxMisses <= 0:
		return fmt.Errorf("%w: max_misses must be positive", ErrInvalidConfig)
	case c.MissTimeoutMS <= 0:
		return fmt.Errorf("%w: miss_timeout_ms must be positive", ErrInvalidConfig)
	case c.MissTimeoutMS >= c.TokenLifetimeMS:
		// The miss must register before the token visually disappears.
		return fmt.Errorf("%w: miss_timeout_ms must be below token_lifetime_ms", ErrInvalidConfig)
	case strings.EqualFold(c.FavorableContract, c.HazardContract):
		return fmt.Errorf("%w: contracts must differ", ErrInvalidConfig)
	case len(c.DifficultyModuli) != len(c.DifficultyThresholds)+1:
		return fmt.Errorf("%w: difficulty_moduli needs one more entry than difficulty_thresholds", ErrInvalidConfig)
	}
	for _, m := range c.DifficultyModuli {
		if m < 1 {
			return fmt.Errorf("%w: difficulty moduli must be at least 1", ErrInvalidConfig)
		}
	}
	if !sort.IntsAreSorted(c.DifficultyThresholds) {
		return fmt.Errorf("%w: difficulty_thresholds must be ascending", ErrInvalidConfig)
	}
	return nil
}
