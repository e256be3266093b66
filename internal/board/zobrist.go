package board

// Zobrist keys, drawn from a fixed-seed PRNG so hashes are stable across
// runs and can be persisted.
var (
	zobristPiece      [2][7][64]uint64 // [Color][PieceType][Square]
	zobristEnPassant  [8]uint64        // One per file
	zobristCastling   [16]uint64       // All 16 castling combinations
	zobristSideToMove uint64           // XOR when black to move
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234) // Fixed seed

	// Piece keys
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}

	// En passant keys (one per file)
	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = rng.next()
	}

	// Castling keys (all 16 combinations)
	for i := 0; i < 16; i++ {
		zobristCastling[i] = rng.next()
	}

	// Side to move key
	zobristSideToMove = rng.next()
}

// ZobristPiece returns the Zobrist key for a piece on a square.
func ZobristPiece(p Piece, sq Square) uint64 {
	return zobristPiece[p.Color()][p.Type()][sq]
}

// ComputeHash recomputes the Zobrist hash from scratch: placement, side to
// move, castling rights and en passant file. The clocks are not hashed.
func (s *GameState) ComputeHash() uint64 {
	var hash uint64
	for sq := A1; sq <= H8; sq++ {
		if p := s.board[sq]; p != NoPiece {
			hash ^= zobristPiece[p.Color()][p.Type()][sq]
		}
	}
	if s.side == Black {
		hash ^= zobristSideToMove
	}
	hash ^= zobristCastling[s.castling]
	if s.ep != NoSquare {
		hash ^= zobristEnPassant[s.ep.File()]
	}
	return hash
}
