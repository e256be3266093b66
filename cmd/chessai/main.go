// Command chessai runs the engine behind a UCI loop on stdin/stdout.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"

	"github.com/laurihuju/Chess-AI/internal/config"
	"github.com/laurihuju/Chess-AI/internal/storage"
	"github.com/laurihuju/Chess-AI/internal/uci"
)

var (
	configPath = flag.String("config", "", "JSON config file (overrides the stored config)")
	dataDir    = flag.String("data", "", "data directory (default: platform data dir)")
	memory     = flag.Bool("memory", false, "keep analyses in memory only")
	saveConfig = flag.Bool("save-config", false, "store the effective config for later runs")
	logLevel   = flag.String("log", "", "log level (trace, debug, info, warn, error)")
	hashMB     = flag.Int("hash", 0, "transposition table size in MB")
	threads    = flag.Int("threads", 0, "search threads")
	difficulty = flag.String("difficulty", "", "easy, medium or hard")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "chessai:", err)
		os.Exit(1)
	}
}

func run() error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("cpu profiling enabled")
	}

	// A config file is read before the store is opened so its data_dir
	// can choose the store location.
	var fileCfg *config.Config
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		fileCfg = &cfg
	}

	var (
		store *storage.Storage
		err   error
	)
	if *memory {
		store, err = storage.Open("", log)
	} else {
		dir := *dataDir
		if fileCfg != nil {
			dir = fileCfg.StorageDir(*dataDir)
		}
		store, err = storage.OpenDefault(dir, log)
	}
	if err != nil {
		return err
	}
	defer store.Close()

	cfg, err := loadConfig(store, fileCfg)
	if err != nil {
		return err
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	log = log.Level(cfg.Level())

	if *saveConfig {
		if err := store.SaveConfig(cfg); err != nil {
			return err
		}
		log.Info().Msg("config saved")
	}

	opts, err := cfg.EngineOptions(log, store)
	if err != nil {
		return err
	}
	if n, err := store.AnalysisCount(); err == nil {
		log.Debug().Int("analyses", n).Int("hash_mb", opts.HashMB).Int("threads", opts.Threads).Msg("engine ready")
	}

	return uci.New(opts, os.Stdout).Run(os.Stdin)
}

// loadConfig picks the config file if given, else the stored config,
// else the defaults.
func loadConfig(store *storage.Storage, fileCfg *config.Config) (config.Config, error) {
	if fileCfg != nil {
		return *fileCfg, nil
	}
	cfg, err := store.LoadConfig()
	if errors.Is(err, storage.ErrNotFound) {
		return config.Default(), nil
	}
	return cfg, err
}

func applyFlags(cfg *config.Config) {
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *hashMB > 0 {
		cfg.HashMB = *hashMB
	}
	if *threads > 0 {
		cfg.Threads = *threads
	}
	if *difficulty != "" {
		cfg.Difficulty = *difficulty
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
}
