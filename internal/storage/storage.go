package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog"

	"github.com/laurihuju/Chess-AI/internal/config"
	"github.com/laurihuju/Chess-AI/internal/engine"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Storage keys
const (
	keyConfig      = "config"
	analysisPrefix = "analysis/"
)

var _ engine.AnalysisStore = (*Storage)(nil)

// Storage wraps BadgerDB for persistent storage. Analysis reads go
// through an in-process ristretto cache.
type Storage struct {
	db    *badger.DB
	cache *ristretto.Cache[uint64, engine.Analysis]
	log   zerolog.Logger
}

// Open opens the database in dir. An empty dir keeps everything in memory.
func Open(dir string, log zerolog.Logger) (*Storage, error) {
	log = log.With().Str("component", "storage").Logger()

	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{log})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[uint64, engine.Analysis]{
		NumCounters: 1e5,
		MaxCost:     1 << 14, // entries; each costs 1
		BufferItems: 64,

		IgnoreInternalCost: true,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create analysis cache: %w", err)
	}

	log.Debug().Str("dir", dir).Bool("in_memory", dir == "").Msg("storage opened")
	return &Storage{db: db, cache: cache, log: log}, nil
}

// OpenDefault opens the database below dataDir, or the platform data
// directory when dataDir is empty.
func OpenDefault(dataDir string, log zerolog.Logger) (*Storage, error) {
	dbDir, err := GetDatabaseDir(dataDir)
	if err != nil {
		return nil, err
	}
	return Open(dbDir, log)
}

// Close closes the database
func (s *Storage) Close() error {
	s.cache.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig saves the engine configuration.
func (s *Storage) SaveConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyConfig), data)
	})
}

// LoadConfig loads the stored configuration. It returns ErrNotFound when
// none has been saved.
func (s *Storage) LoadConfig() (config.Config, error) {
	var cfg config.Config

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyConfig))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("config: %w", ErrNotFound)
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			cfg, err = config.Parse(val)
			return err
		})
	})

	return cfg, err
}

func analysisKey(hash uint64) []byte {
	key := make([]byte, len(analysisPrefix)+8)
	copy(key, analysisPrefix)
	binary.BigEndian.PutUint64(key[len(analysisPrefix):], hash)
	return key
}

// LoadAnalysis returns the stored analysis of the position with the given
// hash.
func (s *Storage) LoadAnalysis(ctx context.Context, hash uint64) (engine.Analysis, bool, error) {
	if err := ctx.Err(); err != nil {
		return engine.Analysis{}, false, err
	}
	if a, ok := s.cache.Get(hash); ok {
		return a, true, nil
	}

	var a engine.Analysis
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(analysisKey(hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &a)
		})
	})
	if err != nil {
		return engine.Analysis{}, false, fmt.Errorf("load analysis %016x: %w", hash, err)
	}
	if found {
		s.cache.Set(hash, a, 1)
	}
	return a, found, nil
}

// SaveAnalysis records a. An existing analysis of the same position is
// kept when it is deeper.
func (s *Storage) SaveAnalysis(ctx context.Context, a engine.Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}

	kept := false
	key := analysisKey(a.Hash)
	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			var old engine.Analysis
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &old)
			}); err != nil {
				return err
			}
			if old.Depth > a.Depth {
				kept = true
				return nil
			}
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("save analysis %016x: %w", a.Hash, err)
	}
	if kept {
		s.log.Debug().Uint64("hash", a.Hash).Int("depth", a.Depth).Msg("deeper analysis already stored")
		return nil
	}
	s.cache.Del(a.Hash)
	return nil
}

// AnalysisCount returns the number of stored analyses.
func (s *Storage) AnalysisCount() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(analysisPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// badgerLogger routes badger's log output through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
