package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/laurihuju/Chess-AI/internal/board"
)

const (
	aspirationDepth  = 5  // first depth searched with a narrowed window
	aspirationWindow = 50 // centipawns either side of the previous score
)

// SearchInfo contains information about the current search.
type SearchInfo struct {
	SearchID string
	Depth    int
	Score    int
	Nodes    uint64
	NPS      uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// Result is the outcome of SelectMove: the best move of the deepest
// completed iteration.
type Result struct {
	SearchID  string
	Move      board.Move
	Score     int // centipawns from the mover's perspective
	Depth     int
	Nodes     uint64
	Time      time.Duration
	PV        []board.Move
	FromStore bool // served from the analysis store without searching
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // ~2-3 ply, 500ms
	Medium                   // ~4-5 ply, 2s
	Hard                     // ~6+ ply, 5s
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// ParseDifficulty parses "easy", "medium" or "hard".
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

// DifficultySettings maps difficulty to search budgets.
var DifficultySettings = map[Difficulty]Budget{
	Easy:   {Depth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 5, MoveTime: 2 * time.Second},
	Hard:   {Depth: 7, MoveTime: 5 * time.Second},
}

// Options configures an Engine.
type Options struct {
	HashMB     int  // transposition table size
	Threads    int  // 1 main searcher plus Threads-1 helpers
	Quiescence bool // extend leaves with a capture search
	Difficulty Difficulty
	Weights    Weights
	Logger     zerolog.Logger
	Store      AnalysisStore // optional
}

// DefaultOptions returns the options used by the CLI when no config is
// given.
func DefaultOptions() Options {
	return Options{
		HashMB:     64,
		Threads:    1,
		Quiescence: true,
		Difficulty: Medium,
		Weights:    DefaultWeights(),
		Logger:     zerolog.Nop(),
	}
}

// Engine is the chess AI engine. SelectMove calls are serialized; Stop
// may be called from any goroutine.
type Engine struct {
	mu      sync.Mutex
	opts    Options
	log     zerolog.Logger
	tt      *TranspositionTable
	main    *Searcher
	helpers []*Searcher
	tm      *TimeManager
	stop    atomic.Bool
	history []uint64

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine.
func NewEngine(opts Options) *Engine {
	if opts.HashMB <= 0 {
		opts.HashMB = DefaultOptions().HashMB
	}
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}

	e := &Engine{
		opts: opts,
		log:  opts.Logger.With().Str("component", "engine").Logger(),
		tt:   NewTranspositionTableMB(opts.HashMB),
		tm:   NewTimeManager(),
	}
	e.main = NewSearcher(e.tt, opts.Weights, opts.Quiescence, &e.stop)
	for i := 1; i < opts.Threads; i++ {
		e.helpers = append(e.helpers, NewSearcher(e.tt, opts.Weights, opts.Quiescence, &e.stop))
	}
	return e
}

// Options returns the options the engine was built with.
func (e *Engine) Options() Options {
	return e.opts
}

// SetDifficulty sets the preset used for an empty Budget.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.mu.Lock()
	e.opts.Difficulty = d
	e.mu.Unlock()
}

// SetHistory sets the hashes of the game positions played before the
// position passed to SelectMove, oldest first. The current position must
// not be included.
func (e *Engine) SetHistory(hashes []uint64) {
	e.mu.Lock()
	e.history = append(e.history[:0], hashes...)
	e.mu.Unlock()
}

// Stop stops the current search. The best move of the last completed
// iteration is still returned.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// Clear clears the transposition table and other caches.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.Clear()
	for _, s := range e.searchers() {
		s.orderer.Clear()
		s.eval.pawns.Clear()
	}
}

// HashFull returns the transposition table usage in permille.
func (e *Engine) HashFull() int {
	return e.tt.HashFull()
}

// Evaluate returns the static evaluation of s from the side to move's
// perspective.
func (e *Engine) Evaluate(s *board.GameState) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.main.eval.Evaluate(s)
}

// EvaluateMaterial returns the material balance of s from the side to
// move's perspective.
func (e *Engine) EvaluateMaterial(s *board.GameState) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.main.eval.EvaluateMaterial(s)
}

func (e *Engine) searchers() []*Searcher {
	return append([]*Searcher{e.main}, e.helpers...)
}

// SelectMove searches a copy of s within budget and returns the best move
// found. A zero budget uses the difficulty preset. The search ends at the
// budget, on Stop or when ctx is done; the first iteration always
// completes so a legal move is returned whenever one exists.
func (e *Engine) SelectMove(ctx context.Context, s *board.GameState, budget Budget) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stop.Store(false)

	if !s.HasLegalMoves() {
		return Result{}, fmt.Errorf("select move in %s: %w", s.FEN(), ErrNoLegalMoves)
	}
	if budget.IsZero() {
		budget = DifficultySettings[e.opts.Difficulty]
	}

	searchID := uuid.NewString()
	log := e.log.With().Str("search_id", searchID).Logger()
	log.Debug().
		Str("fen", s.FEN()).
		Int("depth", budget.Depth).
		Dur("movetime", budget.MoveTime).
		Uint64("nodes", budget.Nodes).
		Msg("search started")

	if res, ok := e.lookupStored(ctx, s, budget, log); ok {
		res.SearchID = searchID
		return res, nil
	}

	gamePly := (s.FullmoveNumber()-1)*2 + int(s.SideToMove())
	e.tm.Init(budget, s.SideToMove(), gamePly)
	e.tt.NewSearch()

	e.main.Reset(s.Copy(), e.history)
	e.main.SetLimits(ctx, e.tm.Deadline(), budget.Nodes)

	maxDepth := MaxDepth
	if budget.Depth > 0 && budget.Depth < MaxDepth {
		maxDepth = budget.Depth
	}

	stopHelpers := e.startHelpers(ctx, s, maxDepth)
	res := e.iterate(budget, maxDepth, searchID, log)
	helperNodes := stopHelpers()

	log.Debug().
		Str("move", res.Move.String()).
		Int("score", res.Score).
		Int("depth", res.Depth).
		Uint64("nodes", res.Nodes).
		Uint64("helper_nodes", helperNodes).
		Dur("time", res.Time).
		Float64("tt_hit_rate", e.tt.HitRate()).
		Msg("search finished")

	e.saveAnalysis(ctx, s, res, log)
	return res, nil
}

// iterate runs iterative deepening on the main searcher. Aborted
// iterations are discarded.
func (e *Engine) iterate(budget Budget, maxDepth int, searchID string, log zerolog.Logger) Result {
	res := Result{SearchID: searchID}
	stability := 0

	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 && !e.tm.CanStartIteration() {
			break
		}

		move, score, ok := e.searchDepth(depth, res.Score)
		if !ok {
			break
		}

		if move == res.Move {
			stability++
		} else {
			stability = 0
		}
		res.Move = move
		res.Score = score
		res.Depth = depth
		res.PV = e.main.PV()
		res.Nodes = e.main.Nodes()
		res.Time = e.tm.Elapsed()
		e.report(res, log)

		e.tm.AdjustForStability(stability)

		// Early termination: found mate
		if IsMateScore(score) && !budget.Infinite {
			break
		}
	}

	res.Nodes = e.main.Nodes()
	res.Time = e.tm.Elapsed()
	return res
}

// searchDepth searches one iteration, with an aspiration window around
// the previous score from aspirationDepth on. A bound that fails is
// widened to infinity and the depth searched again.
func (e *Engine) searchDepth(depth, prevScore int) (board.Move, int, bool) {
	mustFinish := depth == 1
	if depth < aspirationDepth || IsMateScore(prevScore) {
		return e.main.SearchDepth(depth, -Infinity, Infinity, mustFinish)
	}

	alpha := prevScore - aspirationWindow
	beta := prevScore + aspirationWindow
	for {
		move, score, ok := e.main.SearchDepth(depth, alpha, beta, mustFinish)
		switch {
		case !ok:
			return board.NoMove, 0, false
		case score <= alpha:
			alpha = -Infinity
		case score >= beta:
			beta = Infinity
		default:
			return move, score, true
		}
	}
}

func (e *Engine) report(res Result, log zerolog.Logger) {
	info := SearchInfo{
		SearchID: res.SearchID,
		Depth:    res.Depth,
		Score:    res.Score,
		Nodes:    res.Nodes,
		Time:     res.Time,
		PV:       res.PV,
		HashFull: e.tt.HashFull(),
	}
	if ms := res.Time.Milliseconds(); ms > 0 {
		info.NPS = res.Nodes * 1000 / uint64(ms)
	}

	log.Debug().
		Int("depth", info.Depth).
		Str("score", ScoreToString(info.Score)).
		Uint64("nodes", info.Nodes).
		Uint64("nps", info.NPS).
		Int("hashfull", info.HashFull).
		Str("pv", PVString(info.PV)).
		Func(func(ev *zerolog.Event) {
			// The main searcher is back at the root between iterations.
			ev.Strs("pv_san", board.MovesToSAN(e.main.state, info.PV))
		}).
		Msg("iteration complete")

	if e.OnInfo != nil {
		e.OnInfo(info)
	}
}

// historyFree reports whether a search of s to depth cannot be affected by
// the game history: no earlier position lies within reach of a repetition
// and the fifty-move rule cannot trigger inside the search.
func (e *Engine) historyFree(s *board.GameState, depth int) bool {
	n := s.HalfmoveClock()
	if n+depth >= 100 {
		return false
	}
	return n == 0 || len(e.history) == 0
}

// lookupStored returns a stored analysis of s that is at least as deep as
// the budget asks for. Only depth-limited budgets are served this way, and
// only when the game history cannot change the result.
func (e *Engine) lookupStored(ctx context.Context, s *board.GameState, budget Budget, log zerolog.Logger) (Result, bool) {
	if e.opts.Store == nil || budget.Depth <= 0 || budget.Infinite {
		return Result{}, false
	}
	if !e.historyFree(s, budget.Depth) {
		log.Debug().Msg("analysis store skipped, history in reach")
		return Result{}, false
	}

	a, found, err := e.opts.Store.LoadAnalysis(ctx, s.PositionHash())
	if err != nil {
		log.Warn().Err(err).Msg("analysis lookup failed")
		return Result{}, false
	}
	if !found || a.Depth < budget.Depth {
		return Result{}, false
	}
	m, err := board.ParseMove(a.Move, s)
	if err != nil {
		log.Warn().Err(err).Str("stored_fen", a.FEN).Msg("stored analysis does not fit position")
		return Result{}, false
	}

	log.Debug().
		Str("move", a.Move).
		Int("depth", a.Depth).
		Str("stored_search_id", a.SearchID).
		Msg("analysis served from store")
	return Result{
		Move:      m,
		Score:     a.Score,
		Depth:     a.Depth,
		Nodes:     a.Nodes,
		PV:        []board.Move{m},
		FromStore: true,
	}, true
}

func (e *Engine) saveAnalysis(ctx context.Context, s *board.GameState, res Result, log zerolog.Logger) {
	if e.opts.Store == nil || res.Depth == 0 || !e.historyFree(s, res.Depth) {
		return
	}
	a := Analysis{
		Hash:      s.PositionHash(),
		FEN:       s.FEN(),
		Move:      res.Move.String(),
		Score:     res.Score,
		Depth:     res.Depth,
		Nodes:     res.Nodes,
		SearchID:  res.SearchID,
		CreatedAt: time.Now().UTC(),
	}
	// A stopped search still has a result worth keeping.
	if err := e.opts.Store.SaveAnalysis(context.WithoutCancel(ctx), a); err != nil {
		log.Warn().Err(err).Msg("saving analysis failed")
	}
}

// Perft counts the leaf nodes of the legal move tree to depth.
func Perft(s *board.GameState, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := s.LegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, move := range moves {
		undo := s.Apply(move)
		nodes += Perft(s, depth-1)
		s.Undo(move, undo)
	}
	return nodes
}

// PerftEntry is the node count below one root move.
type PerftEntry struct {
	Move  board.Move
	Nodes uint64
}

// Divide runs Perft below each root move, in move generation order.
func Divide(s *board.GameState, depth int) []PerftEntry {
	if depth < 1 {
		return nil
	}
	moves := s.LegalMoves()
	entries := make([]PerftEntry, 0, len(moves))
	for _, move := range moves {
		undo := s.Apply(move)
		entries = append(entries, PerftEntry{Move: move, Nodes: Perft(s, depth-1)})
		s.Undo(move, undo)
	}
	return entries
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-MaxPly {
		return fmt.Sprintf("Mate in %d", (MateScore-score+1)/2)
	}
	if score < -MateScore+MaxPly {
		return fmt.Sprintf("Mated in %d", (MateScore+score+1)/2)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}

// PVString joins a principal variation in long algebraic notation.
func PVString(pv []board.Move) string {
	parts := make([]string, len(pv))
	for i, m := range pv {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}
