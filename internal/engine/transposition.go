package engine

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/laurihuju/Chess-AI/internal/board"
)

// Bound indicates the type of score stored in the transposition table.
type Bound uint8

const (
	TTExact      Bound = iota // Exact score
	TTLowerBound              // Failed high (beta cutoff)
	TTUpperBound              // Failed low
)

func (b Bound) String() string {
	switch b {
	case TTExact:
		return "exact"
	case TTLowerBound:
		return "lower"
	case TTUpperBound:
		return "upper"
	default:
		return "unknown"
	}
}

// Number of shards for TT locking (power of 2 for fast modulo)
const ttShardCount = 256
const ttShardMask = ttShardCount - 1

// TTItem is one slot of the transposition table.
type TTItem struct {
	Hash       uint64     // Full 64-bit Zobrist hash for verification
	BestMove   board.Move // Best move found, NoMove if none
	Score      int32      // Score, mate scores relative to this node
	Depth      int16      // Remaining depth the score was searched to
	Bound      Bound
	Generation uint8 // Search generation that wrote the slot
	used       bool
}

// TranspositionTable is a fixed array of slots indexed by hash modulo its
// size. Uses sharded locking so parallel searchers can share it.
type TranspositionTable struct {
	items      []TTItem
	shards     [ttShardCount]sync.RWMutex
	size       uint64
	generation atomic.Uint32

	// Statistics (atomic for thread-safety)
	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable creates a table with exactly size slots.
func NewTranspositionTable(size int) *TranspositionTable {
	if size < 1 {
		size = 1
	}
	return &TranspositionTable{
		items: make([]TTItem, size),
		size:  uint64(size),
	}
}

// NewTranspositionTableMB creates a table filling roughly sizeMB megabytes.
func NewTranspositionTableMB(sizeMB int) *TranspositionTable {
	itemSize := int(unsafe.Sizeof(TTItem{}))
	return NewTranspositionTable(sizeMB * 1024 * 1024 / itemSize)
}

func (tt *TranspositionTable) index(hash uint64) (uint64, *sync.RWMutex) {
	idx := hash % tt.size
	return idx, &tt.shards[idx&ttShardMask]
}

// Probe looks up a position. Only a slot holding exactly this hash is a
// hit; a slot owned by another position is reported as a miss.
func (tt *TranspositionTable) Probe(hash uint64) (TTItem, bool) {
	tt.probes.Add(1)

	idx, lock := tt.index(hash)
	lock.RLock()
	item := tt.items[idx]
	lock.RUnlock()

	if item.used && item.Hash == hash {
		tt.hits.Add(1)
		return item, true
	}
	return TTItem{}, false
}

// Store saves a search result. The slot is overwritten when it is empty,
// was written by an older search, holds a shallower result, or holds the
// same position at equal or lower depth. Deeper or equal results of other
// positions from the current search are kept.
func (tt *TranspositionTable) Store(hash uint64, depth, score int, bound Bound, bestMove board.Move) {
	idx, lock := tt.index(hash)
	gen := tt.Generation()

	lock.Lock()
	item := &tt.items[idx]
	replace := !item.used ||
		item.Generation != gen ||
		int(item.Depth) < depth ||
		(item.Hash == hash && int(item.Depth) <= depth)
	if replace {
		*item = TTItem{
			Hash:       hash,
			BestMove:   bestMove,
			Score:      int32(score),
			Depth:      int16(depth),
			Bound:      bound,
			Generation: gen,
			used:       true,
		}
	}
	lock.Unlock()
}

// NewSearch advances the generation so older entries become replaceable.
func (tt *TranspositionTable) NewSearch() {
	tt.generation.Add(1)
}

// Generation returns the current search generation.
func (tt *TranspositionTable) Generation() uint8 {
	return uint8(tt.generation.Load())
}

// Clear empties every slot and resets the statistics.
func (tt *TranspositionTable) Clear() {
	for i := range tt.shards {
		tt.shards[i].Lock()
	}
	for i := range tt.items {
		tt.items[i] = TTItem{}
	}
	for i := range tt.shards {
		tt.shards[i].Unlock()
	}
	tt.generation.Store(0)
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// HashFull returns the permille (parts per thousand) of sampled slots
// written by the current search.
func (tt *TranspositionTable) HashFull() int {
	sampleSize := uint64(1000)
	if sampleSize > tt.size {
		sampleSize = tt.size
	}

	gen := tt.Generation()
	used := uint64(0)
	for i := uint64(0); i < sampleSize; i++ {
		_, lock := tt.index(i)
		lock.RLock()
		item := tt.items[i]
		lock.RUnlock()
		if item.used && item.Generation == gen {
			used++
		}
	}
	return int(used * 1000 / sampleSize)
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of slots in the table.
func (tt *TranspositionTable) Size() int {
	return int(tt.size)
}

// ScoreToTT converts a mate score relative to the root into one relative
// to the node at ply, so it stays valid when probed from another path.
func ScoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}

// ScoreFromTT is the inverse of ScoreToTT.
func ScoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}
