package board

// Ray directions as (file, rank) steps. The first four are orthogonal
// (rook), the last four diagonal (bishop).
var directions = [8][2]int{
	{0, 1}, {0, -1}, {1, 0}, {-1, 0},
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
}

var (
	orthogonalDirs = []int{0, 1, 2, 3}
	diagonalDirs   = []int{4, 5, 6, 7}
)

// Precomputed target lists for leaper pieces and sliding rays.
var (
	knightTargets [64][]Square
	kingTargets   [64][]Square
	rays          [64][8][]Square // squares along each direction, nearest first
)

func init() {
	initLeapers()
	initRays()
}

func initLeapers() {
	knightSteps := [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}

	for sq := A1; sq <= H8; sq++ {
		for _, st := range knightSteps {
			if to, ok := sq.Offset(st[0], st[1]); ok {
				knightTargets[sq] = append(knightTargets[sq], to)
			}
		}
		for _, d := range directions {
			if to, ok := sq.Offset(d[0], d[1]); ok {
				kingTargets[sq] = append(kingTargets[sq], to)
			}
		}
	}
}

func initRays() {
	for sq := A1; sq <= H8; sq++ {
		for dir, d := range directions {
			cur := sq
			for {
				next, ok := cur.Offset(d[0], d[1])
				if !ok {
					break
				}
				rays[sq][dir] = append(rays[sq][dir], next)
				cur = next
			}
		}
	}
}

// IsSquareAttacked reports whether any piece of color by attacks sq.
// Pins are ignored: a pinned piece still attacks.
func (s *GameState) IsSquareAttacked(sq Square, by Color) bool {
	// Pawns attack diagonally forward, so look one rank back from the
	// attacker's point of view.
	dr := -1
	if by == Black {
		dr = 1
	}
	pawn := NewPiece(Pawn, by)
	for _, df := range [2]int{-1, 1} {
		if from, ok := sq.Offset(df, dr); ok && s.board[from] == pawn {
			return true
		}
	}

	knight := NewPiece(Knight, by)
	for _, from := range knightTargets[sq] {
		if s.board[from] == knight {
			return true
		}
	}

	king := NewPiece(King, by)
	for _, from := range kingTargets[sq] {
		if s.board[from] == king {
			return true
		}
	}

	queen := NewPiece(Queen, by)
	if s.rayHits(sq, orthogonalDirs, NewPiece(Rook, by), queen) {
		return true
	}
	return s.rayHits(sq, diagonalDirs, NewPiece(Bishop, by), queen)
}

// rayHits walks the given rays from sq and reports whether the first
// occupied square on any of them holds one of the two slider pieces.
func (s *GameState) rayHits(sq Square, dirs []int, slider, queen Piece) bool {
	for _, dir := range dirs {
		for _, to := range rays[sq][dir] {
			p := s.board[to]
			if p == NoPiece {
				continue
			}
			if p == slider || p == queen {
				return true
			}
			break
		}
	}
	return false
}
