// Package engine implements the chess AI: static evaluation, the
// transposition table and the alpha-beta search driven by iterative
// deepening.
package engine

import (
	"github.com/laurihuju/Chess-AI/internal/board"
)

// Weights are the tunable terms of the static evaluation, in centipawns.
type Weights struct {
	Material         [6]int `json:"material"`    // indexed by board.PieceType; the king entry is unused
	PSTPercent       int    `json:"pst_percent"` // scale applied to the piece-square tables
	BishopPair       int    `json:"bishop_pair"`
	DoubledPawn      int    `json:"doubled_pawn"`  // penalty per extra pawn on a file
	IsolatedPawn     int    `json:"isolated_pawn"` // penalty per pawn with no friendly pawn on adjacent files
	PassedPawn       [8]int `json:"passed_pawn"`   // bonus by relative rank
	RookOpenFile     int    `json:"rook_open_file"`
	RookSemiOpenFile int    `json:"rook_semi_open_file"`
	Tempo            int    `json:"tempo"`
}

// DefaultWeights returns the weights the engine plays with.
func DefaultWeights() Weights {
	return Weights{
		Material:         [6]int{100, 320, 330, 500, 900, 0},
		PSTPercent:       100,
		BishopPair:       30,
		DoubledPawn:      15,
		IsolatedPawn:     20,
		PassedPawn:       [8]int{0, 10, 20, 40, 70, 120, 200, 0},
		RookOpenFile:     20,
		RookSemiOpenFile: 10,
		Tempo:            10,
	}
}

// Piece-Square Tables (PST) for positional evaluation.
// Laid out as seen from White with rank 8 first; squares are mirrored
// for White and used as-is for Black.

// Pawn PST - encourages central control and advancement
var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

// Knight PST - encourages central positioning
var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

// Bishop PST - encourages central diagonals
var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

// Rook PST - encourages 7th rank and central files
var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

// Queen PST - slight central preference
var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

// King PST (middlegame) - encourages castling
var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

// King PST (endgame) - king should be active
var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

var psts = [...][64]int{
	pawnPST, knightPST, bishopPST, rookPST, queenPST, kingMidgamePST,
}

// pstIndex maps a square to its table entry from c's point of view.
func pstIndex(sq board.Square, c board.Color) int {
	if c == board.White {
		return int(sq.Mirror())
	}
	return int(sq)
}

// Evaluator scores positions statically. It caches pawn structure terms
// and is not safe for concurrent use; each searcher owns one.
type Evaluator struct {
	w     Weights
	pawns *PawnTable
}

// NewEvaluator returns an evaluator with its own pawn hash table.
func NewEvaluator(w Weights) *Evaluator {
	return &Evaluator{w: w, pawns: NewPawnTable(1)}
}

// Weights returns the evaluator's weights.
func (e *Evaluator) Weights() Weights {
	return e.w
}

// Evaluate returns the score of s from the side to move's perspective.
func (e *Evaluator) Evaluate(s *board.GameState) int {
	score := e.EvaluateWhite(s)
	if s.SideToMove() == board.Black {
		score = -score
	}
	return score + e.w.Tempo
}

// EvaluateWhite returns the score of s from White's perspective, without
// the tempo bonus.
func (e *Evaluator) EvaluateWhite(s *board.GameState) int {
	var (
		score     int
		kingMg    int
		kingEg    int
		pawnKey   uint64
		pawnFiles [2][8]int
		bishops   [2]int
		rooks     [2][10]board.Square // at most ten rooks per side
		rookCount [2]int
	)
	phase := s.Phase()

	for sq := board.A1; sq <= board.H8; sq++ {
		p := s.PieceAt(sq)
		if p == board.NoPiece {
			continue
		}
		c, pt := p.Color(), p.Type()
		sign := 1
		if c == board.Black {
			sign = -1
		}
		idx := pstIndex(sq, c)

		switch pt {
		case board.King:
			kingMg += sign * kingMidgamePST[idx]
			kingEg += sign * kingEndgamePST[idx]
			continue
		case board.Pawn:
			pawnKey ^= board.ZobristPiece(p, sq)
			pawnFiles[c][sq.File()]++
		case board.Bishop:
			bishops[c]++
		case board.Rook:
			if rookCount[c] < len(rooks[c]) {
				rooks[c][rookCount[c]] = sq
				rookCount[c]++
			}
		}
		score += sign * (e.w.Material[pt] + psts[pt][idx]*e.w.PSTPercent/100)
	}

	// King tables taper from middlegame to endgame with the phase.
	score += (kingMg*phase + kingEg*(board.MaxPhase-phase)) / board.MaxPhase

	mg, eg := e.pawnStructure(s, pawnKey, &pawnFiles)
	score += (mg*phase + eg*(board.MaxPhase-phase)) / board.MaxPhase

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		if bishops[c] >= 2 {
			score += sign * e.w.BishopPair
		}
		for _, sq := range rooks[c][:rookCount[c]] {
			f := sq.File()
			switch {
			case pawnFiles[c][f] == 0 && pawnFiles[c.Other()][f] == 0:
				score += sign * e.w.RookOpenFile
			case pawnFiles[c][f] == 0:
				score += sign * e.w.RookSemiOpenFile
			}
		}
	}
	return score
}

// pawnStructure returns the doubled, isolated and passed pawn terms from
// White's perspective, consulting the pawn hash table first.
func (e *Evaluator) pawnStructure(s *board.GameState, key uint64, files *[2][8]int) (mg, eg int) {
	if mg, eg, ok := e.pawns.Probe(key); ok {
		return mg, eg
	}

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for f := 0; f < 8; f++ {
			n := files[c][f]
			if n == 0 {
				continue
			}
			if n > 1 {
				mg -= sign * e.w.DoubledPawn * (n - 1)
				eg -= sign * e.w.DoubledPawn * (n - 1)
			}
			left, right := 0, 0
			if f > 0 {
				left = files[c][f-1]
			}
			if f < 7 {
				right = files[c][f+1]
			}
			if left == 0 && right == 0 {
				mg -= sign * e.w.IsolatedPawn * n
				eg -= sign * e.w.IsolatedPawn * n
			}
		}
	}

	for sq := board.A1; sq <= board.H8; sq++ {
		p := s.PieceAt(sq)
		if p.Type() != board.Pawn || !isPassedPawn(s, sq, p.Color()) {
			continue
		}
		bonus := e.w.PassedPawn[sq.RelativeRank(p.Color())]
		if p.Color() == board.Black {
			bonus = -bonus
		}
		mg += bonus / 2
		eg += bonus
	}

	e.pawns.Store(key, mg, eg)
	return mg, eg
}

// isPassedPawn reports whether no enemy pawn stands in front of the pawn
// on its own or an adjacent file.
func isPassedPawn(s *board.GameState, sq board.Square, c board.Color) bool {
	enemy := board.NewPiece(board.Pawn, c.Other())
	dr := 1
	if c == board.Black {
		dr = -1
	}
	for f := sq.File() - 1; f <= sq.File()+1; f++ {
		if f < 0 || f > 7 {
			continue
		}
		for r := sq.Rank() + dr; r >= 0 && r <= 7; r += dr {
			if s.PieceAt(board.NewSquare(f, r)) == enemy {
				return false
			}
		}
	}
	return true
}

// EvaluateMaterial returns the material balance from the side to move's
// perspective.
func (e *Evaluator) EvaluateMaterial(s *board.GameState) int {
	score := 0
	for sq := board.A1; sq <= board.H8; sq++ {
		p := s.PieceAt(sq)
		if p == board.NoPiece || p.Type() == board.King {
			continue
		}
		if p.Color() == s.SideToMove() {
			score += e.w.Material[p.Type()]
		} else {
			score -= e.w.Material[p.Type()]
		}
	}
	return score
}
