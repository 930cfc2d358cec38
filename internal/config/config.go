// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer
//   file/env sources on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"time"

	"github.com/okian/tokenrain/internal/domain/lifecycle"
)

// Default contract addresses for the two token kinds (USDC scores, USDT
// detonates).
const (
	DefaultFavorableContract = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	DefaultHazardContract    = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8090".
	Addr string `koanf:"addr"`

	// FeedURL is the websocket endpoint of the shred notification feed.
	FeedURL string `koanf:"feed_url"`

	// FavorableContract and HazardContract map contract addresses to token
	// kinds. Comparison is case-insensitive.
	FavorableContract string `koanf:"favorable_contract"`
	HazardContract    string `koanf:"hazard_contract"`

	// QueueSize bounds the raw event intake queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize bounds the deduplication set; 0 means unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	// MissTimeoutMS is the miss deadline; must stay below TokenLifetimeMS so
	// a miss registers while the token is still on screen.
	MissTimeoutMS   int `koanf:"miss_timeout_ms"`
	TokenLifetimeMS int `koanf:"token_lifetime_ms"`

	// MaxMisses ends the session when reached.
	MaxMisses int `koanf:"max_misses"`

	// DifficultyThresholds and DifficultyModuli describe the spawn-thinning
	// brackets; moduli needs one more entry than thresholds.
	DifficultyThresholds []int `koanf:"difficulty_thresholds"`
	DifficultyModuli     []int `koanf:"difficulty_moduli"`

	// ViewportWidth and ViewportHeight bound the presentational positions
	// passed through to the rendering side.
	ViewportWidth  float64 `koanf:"viewport_width"`
	ViewportHeight float64 `koanf:"viewport_height"`

	// DefaultPlayer is the handle used when start provides none.
	DefaultPlayer string `koanf:"default_player"`

	// MaxHighScoreLimit caps GET /highscores?limit.
	MaxHighScoreLimit int `koanf:"max_highscore_limit"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8090",
		FeedURL:              "ws://127.0.0.1:9345/shreds",
		FavorableContract:    DefaultFavorableContract,
		HazardContract:       DefaultHazardContract,
		QueueSize:            1024,
		DedupeSize:           0,
		MissTimeoutMS:        int(lifecycle.DefaultMissTimeout / time.Millisecond),
		TokenLifetimeMS:      int(lifecycle.DefaultTokenLifetime / time.Millisecond),
		MaxMisses:            10,
		DifficultyThresholds: []int{25, 50},
		DifficultyModuli:     []int{3, 2, 1},
		ViewportWidth:        1280,
		ViewportHeight:       720,
		DefaultPlayer:        "player1",
		MaxHighScoreLimit:    100,
	}
}
