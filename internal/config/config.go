package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds environment-driven defaults for the miner. CLI flags override
// these; these override the built-in defaults.
type Config struct {
	// LogPath is the append-only event log the miner reads.
	LogPath string `envconfig:"LOG_PATH" default:"data/events.log"`

	// TripletsPath is where mined triplets are written, one JSON object
	// per line.
	TripletsPath string `envconfig:"TRIPLETS_PATH" default:"data/triplets.jsonl"`

	// Mode is "replace" or "append".
	Mode string `envconfig:"MODE" default:"replace"`

	// MaxTriplets caps the number of triplets added per run. 0 = unlimited.
	MaxTriplets int `envconfig:"MAX_TRIPLETS" default:"0"`

	// CorpusID restricts mining to one corpus. Empty = all corpora.
	CorpusID string `envconfig:"CORPUS_ID"`

	// DataDir holds the sidecar run-history database. Empty disables the
	// sidecar entirely.
	DataDir string `envconfig:"DATA_DIR"`

	// CrossRunDedup skips tuples recorded by previous runs (append mode
	// only). Requires DataDir.
	CrossRunDedup bool `envconfig:"CROSS_RUN_DEDUP" default:"false"`

	Debug bool `envconfig:"DEBUG" default:"false"`
}

// Load reads configuration from a .env file (if present) and RELMINE_*
// environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("RELMINE", &cfg); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	return &cfg, nil
}
