package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/laurihuju/Chess-AI/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
	MaxDepth  = 64 // deepest root iteration; leaves room for extensions
)

const (
	maxQuiescencePly = 32
	deltaMargin      = 200 // Delta pruning margin for quiescence
	stopCheckMask    = 2047
)

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher runs negamax alpha-beta on one GameState. It owns the state,
// its move buffers and its move ordering tables; only the transposition
// table is shared. A Searcher is not safe for concurrent use.
type Searcher struct {
	state      *board.GameState
	tt         *TranspositionTable
	eval       *Evaluator
	orderer    *MoveOrderer
	quiescence bool

	// Hashes of the positions before the current node: the caller's game
	// history followed by the search path.
	history []uint64

	moveBufs  [MaxPly][]board.Move
	scoreBufs [MaxPly][]int
	pv        PVTable
	nodes     uint64

	// Limits, polled every stopCheckMask+1 nodes.
	ctx        context.Context
	stop       *atomic.Bool
	deadline   time.Time
	nodeLimit  uint64
	mustFinish bool
	aborted    bool

	rootMove  board.Move
	rootScore int
}

// NewSearcher creates a searcher sharing tt. stop may be nil.
func NewSearcher(tt *TranspositionTable, w Weights, quiescence bool, stop *atomic.Bool) *Searcher {
	if stop == nil {
		stop = new(atomic.Bool)
	}
	return &Searcher{
		tt:         tt,
		eval:       NewEvaluator(w),
		orderer:    NewMoveOrderer(),
		quiescence: quiescence,
		stop:       stop,
		ctx:        context.Background(),
	}
}

// Reset prepares the searcher for a new search of s. history lists the
// hashes of earlier game positions, oldest first, for repetition checks.
// The searcher takes ownership of s.
func (s *Searcher) Reset(state *board.GameState, history []uint64) {
	s.state = state
	s.history = append(s.history[:0], history...)
	s.nodes = 0
	s.aborted = false
	s.orderer.Clear()
}

// SetLimits sets the cancellation sources polled during search.
func (s *Searcher) SetLimits(ctx context.Context, deadline time.Time, nodeLimit uint64) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx = ctx
	s.deadline = deadline
	s.nodeLimit = nodeLimit
}

// Nodes returns the number of nodes searched since Reset.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Aborted reports whether the last SearchDepth was cut short.
func (s *Searcher) Aborted() bool {
	return s.aborted
}

// PV returns the principal variation from the last search.
func (s *Searcher) PV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	copy(pv, s.pv.moves[0][:s.pv.length[0]])
	return pv
}

// Evaluate returns the static evaluation of the searcher's state.
func (s *Searcher) Evaluate() int {
	return s.eval.Evaluate(s.state)
}

// SearchDepth searches the root to depth within (alpha, beta) and returns
// the best root move and its score. mustFinish disables the stop checks
// so the iteration always completes. ok is false when the search was
// aborted; the result must then be discarded.
func (s *Searcher) SearchDepth(depth, alpha, beta int, mustFinish bool) (move board.Move, score int, ok bool) {
	s.mustFinish = mustFinish
	s.aborted = false
	s.rootMove = board.NoMove
	s.rootScore = -Infinity

	score = s.negamax(depth, 0, alpha, beta, board.NoMove)
	if s.aborted {
		return board.NoMove, 0, false
	}
	return s.rootMove, score, true
}

// shouldStop polls the stop sources every few thousand nodes.
func (s *Searcher) shouldStop() bool {
	if s.aborted {
		return true
	}
	if s.mustFinish || s.nodes&stopCheckMask != 0 {
		return false
	}
	s.aborted = s.limitReached()
	return s.aborted
}

func (s *Searcher) limitReached() bool {
	switch {
	case s.stop.Load():
		return true
	case s.ctx.Err() != nil:
		return true
	case s.nodeLimit > 0 && s.nodes >= s.nodeLimit:
		return true
	case !s.deadline.IsZero() && time.Now().After(s.deadline):
		return true
	}
	return false
}

// isDraw checks the fifty-move rule, insufficient material and threefold
// repetition. Only positions since the last capture or pawn move can
// repeat.
func (s *Searcher) isDraw() bool {
	st := s.state
	if st.HalfmoveClock() >= 100 || st.IsInsufficientMaterial() {
		return true
	}
	recent := s.history
	if n := st.HalfmoveClock(); n < len(recent) {
		recent = recent[len(recent)-n:]
	}
	return board.RepetitionCount(st.PositionHash(), recent) >= 2
}

// negamax implements the negamax algorithm with alpha-beta pruning.
func (s *Searcher) negamax(depth, ply, alpha, beta int, prevMove board.Move) int {
	if s.shouldStop() {
		return 0
	}
	s.nodes++
	s.pv.length[ply] = ply

	st := s.state
	if ply >= MaxPly-1 {
		return s.eval.Evaluate(st)
	}

	inCheck := st.InCheck()

	// Check extension
	if inCheck && ply > 0 {
		depth++
	}

	if depth <= 0 {
		if !st.HasLegalMoves() {
			return terminalScore(inCheck, ply)
		}
		if s.isDraw() {
			return 0
		}
		if s.quiescence {
			return s.quiesce(ply, 0, alpha, beta)
		}
		return s.eval.Evaluate(st)
	}

	moves := st.AppendLegalMoves(s.moveBufs[ply][:0])
	s.moveBufs[ply] = moves
	if len(moves) == 0 {
		return terminalScore(inCheck, ply)
	}
	if ply > 0 && s.isDraw() {
		return 0
	}

	// Probe transposition table
	hash := st.PositionHash()
	alphaOrig := alpha
	ttMove := board.NoMove
	if item, found := s.tt.Probe(hash); found {
		ttMove = item.BestMove
		if ply > 0 && int(item.Depth) >= depth {
			score := ScoreFromTT(int(item.Score), ply)
			switch item.Bound {
			case TTExact:
				return score
			case TTLowerBound:
				alpha = max(alpha, score)
			case TTUpperBound:
				beta = min(beta, score)
			}
			if alpha >= beta {
				return score
			}
		}
	}

	scores := s.orderer.ScoreMoves(moves, s.scoreBufs[ply], ply, ttMove, prevMove)
	s.scoreBufs[ply] = scores

	bestScore := -Infinity
	bestMove := board.NoMove

	for i := range moves {
		PickMove(moves, scores, i)
		move := moves[i]

		undo := st.Apply(move)
		s.history = append(s.history, hash)

		var score int
		if i == 0 {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha, move)
		} else {
			// Principal variation search: prove the move is no better
			// with a null window, re-search if it is.
			score = -s.negamax(depth-1, ply+1, -alpha-1, -alpha, move)
			if score > alpha && score < beta && !s.aborted {
				score = -s.negamax(depth-1, ply+1, -beta, -alpha, move)
			}
		}

		s.history = s.history[:len(s.history)-1]
		st.Undo(move, undo)

		if s.aborted {
			return 0
		}
		if ply == 0 && !s.mustFinish && s.limitReached() {
			s.aborted = true
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move
			if ply == 0 {
				s.rootMove, s.rootScore = move, score
			}

			if score > alpha {
				alpha = score

				s.pv.moves[ply][ply] = move
				for j := ply + 1; j < s.pv.length[ply+1]; j++ {
					s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
				}
				s.pv.length[ply] = s.pv.length[ply+1]
			}
		}

		// Beta cutoff
		if alpha >= beta {
			if move.IsQuiet() {
				s.orderer.UpdateKillers(move, ply)
				s.orderer.UpdateHistory(move, depth)
				s.orderer.UpdateCounterMove(prevMove, move)
				for _, tried := range moves[:i] {
					if tried.IsQuiet() {
						s.orderer.PenalizeHistory(tried, depth)
					}
				}
			}
			break
		}
	}

	bound := TTExact
	switch {
	case bestScore <= alphaOrig:
		bound = TTUpperBound
	case bestScore >= beta:
		bound = TTLowerBound
	}
	s.tt.Store(hash, depth, ScoreToTT(bestScore, ply), bound, bestMove)

	return bestScore
}

// quiesce searches captures and promotions until the position is quiet,
// so the static evaluation is never taken in the middle of an exchange.
// In check every evasion is searched instead.
func (s *Searcher) quiesce(ply, qPly int, alpha, beta int) int {
	if s.shouldStop() {
		return 0
	}
	s.nodes++

	st := s.state
	if ply >= MaxPly-1 || qPly > maxQuiescencePly {
		return s.eval.Evaluate(st)
	}

	inCheck := st.InCheck()
	var moves []board.Move
	standPat := -Infinity
	if inCheck {
		moves = st.AppendLegalMoves(s.moveBufs[ply][:0])
		if len(moves) == 0 {
			return -MateScore + ply
		}
	} else {
		standPat = s.eval.Evaluate(st)
		if standPat >= beta {
			return beta
		}
		if standPat > alpha {
			alpha = standPat
		}
		moves = st.AppendLegalCaptures(s.moveBufs[ply][:0])
	}
	s.moveBufs[ply] = moves

	scores := s.orderer.ScoreMoves(moves, s.scoreBufs[ply], MaxPly, board.NoMove, board.NoMove)
	s.scoreBufs[ply] = scores

	w := s.eval.Weights()
	// Pawn endings are left unpruned; a promotion race can swing past the margin.
	delta := !inCheck && st.HasNonPawnMaterial(st.SideToMove().Other())
	for i := range moves {
		PickMove(moves, scores, i)
		move := moves[i]

		// Delta pruning: even winning the piece cannot lift alpha.
		if delta {
			gain := 0
			if move.IsCapture() {
				gain = w.Material[move.Captured.Type()]
			}
			if move.IsPromotion() {
				gain += w.Material[move.Promotion] - w.Material[board.Pawn]
			}
			if standPat+gain+deltaMargin < alpha {
				continue
			}
		}

		undo := st.Apply(move)
		score := -s.quiesce(ply+1, qPly+1, -beta, -alpha)
		st.Undo(move, undo)

		if s.aborted {
			return 0
		}
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}

// terminalScore scores a node without legal moves: mate, preferring the
// shortest, or stalemate.
func terminalScore(inCheck bool, ply int) int {
	if inCheck {
		return -MateScore + ply
	}
	return 0
}

// IsMateScore reports whether score encodes a forced mate.
func IsMateScore(score int) bool {
	return score > MateScore-MaxPly || score < -MateScore+MaxPly
}
