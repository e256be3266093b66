package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/laurihuju/Chess-AI/internal/config"
	"github.com/laurihuju/Chess-AI/internal/engine"
)

func openMemory(t *testing.T) *Storage {
	t.Helper()
	s, err := Open("", zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConfig(t *testing.T) {
	s := openMemory(t)

	if _, err := s.LoadConfig(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadConfig on empty store = %v, want ErrNotFound", err)
	}

	cfg := config.Default()
	cfg.HashMB = 32
	cfg.Difficulty = "hard"
	if err := s.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := s.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("LoadConfig (-want +got):\n%s", diff)
	}

	cfg.Threads = 0
	if err := s.SaveConfig(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("SaveConfig(invalid) = %v", err)
	}
}

func TestAnalysis(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	if _, found, err := s.LoadAnalysis(ctx, 42); err != nil || found {
		t.Fatalf("LoadAnalysis on empty store: found=%v err=%v", found, err)
	}

	a := engine.Analysis{
		Hash:      42,
		FEN:       "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		Move:      "e2e4",
		Score:     25,
		Depth:     6,
		Nodes:     123456,
		SearchID:  "0b5d2c1e-5a4f-4c4e-9a59-7d1d8c3e2f10",
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.SaveAnalysis(ctx, a); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	got, found, err := s.LoadAnalysis(ctx, 42)
	if err != nil || !found {
		t.Fatalf("LoadAnalysis: found=%v err=%v", found, err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("LoadAnalysis (-want +got):\n%s", diff)
	}

	// Served from the cache once the set has been applied.
	s.cache.Wait()
	if _, ok := s.cache.Get(42); !ok {
		t.Error("analysis not cached after load")
	}

	// A shallower result does not replace a deeper one.
	shallow := a
	shallow.Depth = 3
	shallow.Move = "d2d4"
	if err := s.SaveAnalysis(ctx, shallow); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	got, _, _ = s.LoadAnalysis(ctx, 42)
	if got.Move != "e2e4" {
		t.Errorf("shallower analysis replaced deeper one: %+v", got)
	}

	// A deeper one does, and the cached copy is dropped.
	deep := a
	deep.Depth = 9
	deep.Move = "g1f3"
	if err := s.SaveAnalysis(ctx, deep); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	s.cache.Wait()
	got, _, _ = s.LoadAnalysis(ctx, 42)
	if got.Move != "g1f3" || got.Depth != 9 {
		t.Errorf("deeper analysis not stored: %+v", got)
	}

	if n, err := s.AnalysisCount(); err != nil || n != 1 {
		t.Errorf("AnalysisCount = %d, %v", n, err)
	}
}

func TestAnalysisCacheCapacity(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	const n = 2000
	for h := uint64(1); h <= n; h++ {
		if err := s.SaveAnalysis(ctx, engine.Analysis{Hash: h, Move: "e2e4", Depth: 4}); err != nil {
			t.Fatalf("SaveAnalysis: %v", err)
		}
		if _, found, err := s.LoadAnalysis(ctx, h); err != nil || !found {
			t.Fatalf("LoadAnalysis(%d): found=%v err=%v", h, found, err)
		}
	}
	s.cache.Wait()

	cached := 0
	for h := uint64(1); h <= n; h++ {
		if _, ok := s.cache.Get(h); ok {
			cached++
		}
	}
	// Each analysis costs one unit, far below MaxCost.
	if cached < n/2 {
		t.Errorf("%d of %d analyses cached", cached, n)
	}
}

func TestCancelledContext(t *testing.T) {
	s := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.SaveAnalysis(ctx, engine.Analysis{Hash: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("SaveAnalysis = %v", err)
	}
	if _, _, err := s.LoadAnalysis(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("LoadAnalysis = %v", err)
	}
}

func TestOnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenDefault(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenDefault: %v", err)
	}
	if err := s.SaveAnalysis(ctx, engine.Analysis{Hash: 7, Move: "e2e4", Depth: 2}); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "db")); err != nil {
		t.Fatalf("database directory missing: %v", err)
	}

	s, err = OpenDefault(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	a, found, err := s.LoadAnalysis(ctx, 7)
	if err != nil || !found || a.Move != "e2e4" {
		t.Errorf("after reopen: %+v found=%v err=%v", a, found, err)
	}
}

func TestDataPaths(t *testing.T) {
	if os.Getenv("APPDATA") == "" {
		t.Setenv("XDG_DATA_HOME", t.TempDir())
	}

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}

	// Verify directory exists
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}
}
