package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/laurihuju/Chess-AI/internal/engine"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero hash", func(c *Config) { c.HashMB = 0 }},
		{"huge hash", func(c *Config) { c.HashMB = maxHashMB + 1 }},
		{"no threads", func(c *Config) { c.Threads = 0 }},
		{"unknown difficulty", func(c *Config) { c.Difficulty = "impossible" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"negative pst", func(c *Config) { c.Weights.PSTPercent = -1 }},
		{"free knights", func(c *Config) { c.Weights.Material[1] = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"hash_mb": 128, "difficulty": "hard"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Default()
	want.HashMB = 128
	want.Difficulty = "hard"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Parse (-want +got):\n%s", diff)
	}
}

func TestParseRejects(t *testing.T) {
	for _, data := range []string{
		`{"hash_mb": "big"}`,
		`{"colour": "white"}`,
		`{"threads": -2}`,
		`not json`,
	} {
		if _, err := Parse([]byte(data)); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Parse(%s) = %v, want ErrInvalidConfig", data, err)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chessai.json")

	cfg := Default()
	cfg.Threads = 4
	cfg.LogLevel = "debug"
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("Load (-want +got):\n%s", diff)
	}
	if got.Level() != zerolog.DebugLevel {
		t.Errorf("Level() = %v", got.Level())
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) = %v", err)
	}
}

func TestStorageDir(t *testing.T) {
	cfg, err := Parse([]byte(`{"data_dir": "/var/lib/chessai"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := cfg.StorageDir(""); got != "/var/lib/chessai" {
		t.Errorf("StorageDir(\"\") = %q, want data_dir", got)
	}
	if got := cfg.StorageDir("/tmp/override"); got != "/tmp/override" {
		t.Errorf("StorageDir(override) = %q, want override", got)
	}
	if got := Default().StorageDir(""); got != "" {
		t.Errorf("default StorageDir = %q, want platform default (empty)", got)
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := Default()
	cfg.Difficulty = "easy"
	cfg.Persist = false

	opts, err := cfg.EngineOptions(zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("EngineOptions: %v", err)
	}
	if opts.Difficulty != engine.Easy || opts.HashMB != cfg.HashMB || opts.Store != nil {
		t.Errorf("unexpected options %+v", opts)
	}
}
