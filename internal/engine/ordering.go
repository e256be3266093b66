package engine

import (
	"github.com/laurihuju/Chess-AI/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore     = 10000000 // TT move gets highest priority
	GoodCaptureBase = 1000000  // Base score for captures and promotions
	KillerScore1    = 900000   // First killer move
	KillerScore2    = 800000   // Second killer move
	CounterScore    = 790000   // Reply that refuted the previous move before
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
// Score = victimValue * 10 - attackerValue
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11}, // Pawn victim
	/* N */ {25, 24, 24, 23, 22, 21}, // Knight victim
	/* B */ {35, 34, 34, 33, 32, 31}, // Bishop victim
	/* R */ {45, 44, 44, 43, 42, 41}, // Rook victim
	/* Q */ {55, 54, 54, 53, 52, 51}, // Queen victim
	/* K */ {0, 0, 0, 0, 0, 0}, // King can't be captured
}

// historyLimit bounds history scores below the killer band.
const historyLimit = 400000

// MoveOrderer handles move ordering for the search.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs)
	killers [MaxPly][2]board.Move

	// History heuristic (indexed by [from][to])
	history [64][64]int

	// Counter move heuristic (indexed by [piece][to] of the previous move)
	counterMoves [12][64]board.Move
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets the move orderer for a new search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}

	// Age history scores rather than forgetting them.
	for i := range mo.history {
		for j := range mo.history[i] {
			mo.history[i][j] /= 2
		}
	}

	for i := range mo.counterMoves {
		for j := range mo.counterMoves[i] {
			mo.counterMoves[i][j] = board.NoMove
		}
	}
}

// ScoreMoves writes an ordering score for every move into scores, which
// is grown as needed and returned.
func (mo *MoveOrderer) ScoreMoves(moves []board.Move, scores []int, ply int, ttMove, prevMove board.Move) []int {
	scores = scores[:0]
	counter := mo.counterMove(prevMove)
	for _, m := range moves {
		s := mo.scoreMove(m, ply, ttMove)
		if s < CounterScore && !counter.IsNull() && m == counter {
			s = CounterScore
		}
		scores = append(scores, s)
	}
	return scores
}

// scoreMove returns the ordering score for a single move.
func (mo *MoveOrderer) scoreMove(m board.Move, ply int, ttMove board.Move) int {
	// The table move may come from a slot written for this hash by another
	// searcher; compare the action only.
	if !ttMove.IsNull() && m.SameAction(ttMove) {
		return TTMoveScore
	}

	if m.IsCapture() {
		victim := m.Captured.Type()
		attacker := m.Piece.Type()
		score := GoodCaptureBase + mvvLva[victim][attacker]*1000
		if m.IsPromotion() {
			score += int(m.Promotion) * 100
		}
		return score
	}

	// Promotions (non-capture), queen first.
	if m.IsPromotion() {
		return GoodCaptureBase - 1000 + int(m.Promotion)*100
	}

	if ply < MaxPly {
		if m == mo.killers[ply][0] {
			return KillerScore1
		}
		if m == mo.killers[ply][1] {
			return KillerScore2
		}
	}

	return mo.history[m.From][m.To]
}

// PickMove selects the best remaining move and moves it to position index.
// This allows lazy move sorting (only sort as much as needed).
func PickMove(moves []board.Move, scores []int, index int) {
	best := index
	for j := index + 1; j < len(moves); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves[index], moves[best] = moves[best], moves[index]
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly {
		return
	}

	// Don't store if it's already the first killer
	if mo.killers[ply][0] == m {
		return
	}

	// Shift killers
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory rewards a quiet move that caused a cutoff.
func (mo *MoveOrderer) UpdateHistory(m board.Move, depth int) {
	mo.history[m.From][m.To] += depth * depth
	if mo.history[m.From][m.To] > historyLimit {
		// Scale down all history scores
		for i := range mo.history {
			for j := range mo.history[i] {
				mo.history[i][j] /= 2
			}
		}
	}
}

// PenalizeHistory lowers the score of a quiet move searched before the
// cutoff move.
func (mo *MoveOrderer) PenalizeHistory(m board.Move, depth int) {
	mo.history[m.From][m.To] -= depth * depth
	if mo.history[m.From][m.To] < -historyLimit {
		mo.history[m.From][m.To] = -historyLimit
	}
}

// UpdateCounterMove records reply as the refutation of prevMove.
func (mo *MoveOrderer) UpdateCounterMove(prevMove, reply board.Move) {
	if prevMove.IsNull() {
		return
	}
	mo.counterMoves[prevMove.Piece][prevMove.To] = reply
}

func (mo *MoveOrderer) counterMove(prevMove board.Move) board.Move {
	if prevMove.IsNull() {
		return board.NoMove
	}
	return mo.counterMoves[prevMove.Piece][prevMove.To]
}
