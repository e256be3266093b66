// Package config holds the engine settings shared by the CLI and the
// persisted store.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/laurihuju/Chess-AI/internal/engine"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

const (
	maxHashMB  = 1 << 14
	maxThreads = 256
)

// Config is the persisted engine configuration.
type Config struct {
	HashMB     int            `json:"hash_mb"`
	Threads    int            `json:"threads"`
	Quiescence bool           `json:"quiescence"`
	Difficulty string         `json:"difficulty"` // easy, medium or hard
	LogLevel   string         `json:"log_level"`  // zerolog level name
	DataDir    string         `json:"data_dir"`   // empty means the platform default
	Persist    bool           `json:"persist"`    // record analyses in the store
	Weights    engine.Weights `json:"weights"`
}

// Default returns the configuration used when none is stored.
func Default() Config {
	opts := engine.DefaultOptions()
	return Config{
		HashMB:     opts.HashMB,
		Threads:    opts.Threads,
		Quiescence: opts.Quiescence,
		Difficulty: opts.Difficulty.String(),
		LogLevel:   zerolog.InfoLevel.String(),
		Persist:    true,
		Weights:    opts.Weights,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.HashMB < 1 || c.HashMB > maxHashMB {
		return fmt.Errorf("%w: hash_mb %d out of range [1, %d]", ErrInvalidConfig, c.HashMB, maxHashMB)
	}
	if c.Threads < 1 || c.Threads > maxThreads {
		return fmt.Errorf("%w: threads %d out of range [1, %d]", ErrInvalidConfig, c.Threads, maxThreads)
	}
	if _, err := engine.ParseDifficulty(c.Difficulty); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}
	if c.Weights.PSTPercent < 0 {
		return fmt.Errorf("%w: weights.pst_percent must not be negative", ErrInvalidConfig)
	}
	for pt, v := range c.Weights.Material[:5] {
		if v <= 0 {
			return fmt.Errorf("%w: weights.material[%d] must be positive", ErrInvalidConfig, pt)
		}
	}
	return nil
}

// Level returns the parsed log level. The config must be valid.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Parse decodes JSON over the defaults, so omitted fields keep their
// default values. Unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and validates a JSON config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// StorageDir returns the directory the analysis store lives in. A non-empty
// override, such as a command line flag, wins over DataDir.
func (c Config) StorageDir(override string) string {
	if override != "" {
		return override
	}
	return c.DataDir
}

// Marshal encodes the config as indented JSON.
func (c Config) Marshal() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// EngineOptions builds engine options from the config.
func (c Config) EngineOptions(log zerolog.Logger, store engine.AnalysisStore) (engine.Options, error) {
	if err := c.Validate(); err != nil {
		return engine.Options{}, err
	}
	d, _ := engine.ParseDifficulty(c.Difficulty)
	opts := engine.Options{
		HashMB:     c.HashMB,
		Threads:    c.Threads,
		Quiescence: c.Quiescence,
		Difficulty: d,
		Weights:    c.Weights,
		Logger:     log,
	}
	if c.Persist && store != nil {
		opts.Store = store
	}
	return opts, nil
}
