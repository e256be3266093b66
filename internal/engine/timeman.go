package engine

import (
	"time"

	"github.com/laurihuju/Chess-AI/internal/board"
)

// Budget bounds a single SelectMove call. Zero fields are unlimited; a
// fully zero Budget falls back to the engine's difficulty preset.
type Budget struct {
	Depth     int              // maximum search depth
	Nodes     uint64           // maximum nodes to search
	MoveTime  time.Duration    // fixed time per move (overrides the clock)
	Time      [2]time.Duration // remaining clock time per color
	Inc       [2]time.Duration // increment per move per color
	MovesToGo int              // moves until next time control (0 = sudden death)
	Infinite  bool             // search until stopped
}

// IsZero reports whether no limit is set.
func (b Budget) IsZero() bool {
	return b == Budget{}
}

func (b Budget) hasClock(us board.Color) bool {
	return b.MoveTime > 0 || b.Time[us] > 0
}

// TimeManager turns a Budget into a soft target and a hard deadline.
type TimeManager struct {
	optimumTime time.Duration // Target time for this move
	maximumTime time.Duration // Maximum time allowed
	baseOptimum time.Duration // Target before stability adjustments
	startTime   time.Time     // When search started
	limited     bool
	fixed       bool // MoveTime mode: always use the whole allowance
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init initializes the time manager for a new search.
// ply is the current game ply (half-move number).
func (tm *TimeManager) Init(b Budget, us board.Color, ply int) {
	tm.startTime = time.Now()
	tm.limited = !b.Infinite && b.hasClock(us)
	tm.fixed = b.MoveTime > 0

	// Fixed move time mode
	if tm.fixed {
		tm.optimumTime = b.MoveTime
		tm.maximumTime = b.MoveTime
		tm.baseOptimum = b.MoveTime
		return
	}

	if !tm.limited {
		tm.optimumTime = 0
		tm.maximumTime = 0
		return
	}

	timeLeft := b.Time[us]
	inc := b.Inc[us]

	mtg := b.MovesToGo
	if mtg == 0 {
		// Sudden death: expect fewer moves remaining as the game goes on.
		mtg = 50 - ply/4
		if mtg < 10 {
			mtg = 10
		}
		if mtg > 50 {
			mtg = 50
		}
	}

	baseTime := timeLeft/time.Duration(mtg) + inc*9/10
	tm.optimumTime = baseTime

	// Slight reduction for very early moves (give some buffer)
	if ply < 8 {
		tm.optimumTime = baseTime * 85 / 100
	}

	// Maximum time: 5x optimum or 80% of remaining, whichever is smaller
	tm.maximumTime = min(tm.optimumTime*5, timeLeft*8/10)

	// Minimum times
	if tm.optimumTime < 10*time.Millisecond {
		tm.optimumTime = 10 * time.Millisecond
	}
	if tm.maximumTime < 50*time.Millisecond {
		tm.maximumTime = 50 * time.Millisecond
	}

	// Never use more than 95% of remaining time
	if safety := timeLeft * 95 / 100; tm.maximumTime > safety {
		tm.maximumTime = safety
	}
	tm.baseOptimum = tm.optimumTime
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// OptimumTime returns the target time for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the maximum time allowed.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// Deadline returns the hard stop, or the zero time when unlimited.
func (tm *TimeManager) Deadline() time.Time {
	if !tm.limited {
		return time.Time{}
	}
	return tm.startTime.Add(tm.maximumTime)
}

// CanStartIteration reports whether another deepening iteration is
// likely to finish in time. An iteration usually costs more than all the
// previous ones together, so none is started past half the target.
func (tm *TimeManager) CanStartIteration() bool {
	return !tm.limited || tm.Elapsed() < tm.optimumTime/2
}

// AdjustForStability shortens the target when the best move has not
// changed for several depths.
func (tm *TimeManager) AdjustForStability(stability int) {
	if tm.fixed {
		return
	}
	switch {
	case stability >= 6:
		tm.optimumTime = tm.baseOptimum * 40 / 100
	case stability >= 4:
		tm.optimumTime = tm.baseOptimum * 60 / 100
	case stability >= 2:
		tm.optimumTime = tm.baseOptimum * 80 / 100
	default:
		tm.optimumTime = tm.baseOptimum
	}
}
