package board

import (
	"fmt"
	"strings"
)

// CastlingRights holds the four independent castling permissions.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	if c == White {
		if kingSide {
			return cr&WhiteKingSideCastle != 0
		}
		return cr&WhiteQueenSideCastle != 0
	}
	if kingSide {
		return cr&BlackKingSideCastle != 0
	}
	return cr&BlackQueenSideCastle != 0
}

// castlingLoss[sq] lists the rights forfeited when a piece moves from or
// to sq. Covers king moves, rook moves and rook captures on home squares.
var castlingLoss = func() (t [64]CastlingRights) {
	t[A1] = WhiteQueenSideCastle
	t[E1] = WhiteKingSideCastle | WhiteQueenSideCastle
	t[H1] = WhiteKingSideCastle
	t[A8] = BlackQueenSideCastle
	t[E8] = BlackKingSideCastle | BlackQueenSideCastle
	t[H8] = BlackKingSideCastle
	return t
}()

// Descriptor is the plain-data description of a position used to build a
// GameState. FEN text is one encoding of it.
type Descriptor struct {
	Board          [64]Piece
	SideToMove     Color
	Castling       CastlingRights
	EnPassant      Square
	HalfmoveClock  int
	FullmoveNumber int
}

// GameState is the mutable board plus the side-effect state of a game.
// It changes only through Apply/Undo pairs; after Undo it is identical to
// the state before the matching Apply.
type GameState struct {
	board    [64]Piece
	side     Color
	castling CastlingRights
	ep       Square
	halfmove int
	fullmove int
	kings    [2]Square
	hash     uint64
}

// NewGameState returns the standard starting position.
func NewGameState() *GameState {
	s, err := FromFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return s
}

// FromDescriptor builds a GameState, rejecting positions that cannot occur
// in a game. Castling rights whose king or rook is not on its home square
// and an en passant target with no capturable pawn are dropped.
func FromDescriptor(d Descriptor) (*GameState, error) {
	s := &GameState{
		board:    d.Board,
		side:     d.SideToMove,
		castling: d.Castling & AllCastling,
		ep:       d.EnPassant,
		halfmove: d.HalfmoveClock,
		fullmove: d.FullmoveNumber,
		kings:    [2]Square{NoSquare, NoSquare},
	}
	if s.side != White && s.side != Black {
		return nil, fmt.Errorf("%w: side to move %d", ErrInvalidPosition, d.SideToMove)
	}
	if s.halfmove < 0 {
		return nil, fmt.Errorf("%w: negative halfmove clock", ErrInvalidPosition)
	}
	if s.fullmove < 1 {
		s.fullmove = 1
	}

	for sq := A1; sq <= H8; sq++ {
		p := s.board[sq]
		if p > NoPiece {
			return nil, fmt.Errorf("%w: bad piece code on %s", ErrInvalidPosition, sq)
		}
		switch p.Type() {
		case King:
			if s.kings[p.Color()] != NoSquare {
				return nil, fmt.Errorf("%w: more than one %s king", ErrInvalidPosition, p.Color())
			}
			s.kings[p.Color()] = sq
		case Pawn:
			if sq.Rank() == 0 || sq.Rank() == 7 {
				return nil, fmt.Errorf("%w: pawn on %s", ErrInvalidPosition, sq)
			}
		}
	}
	for c := White; c <= Black; c++ {
		if s.kings[c] == NoSquare {
			return nil, fmt.Errorf("%w: no %s king", ErrInvalidPosition, c)
		}
	}
	if s.IsSquareAttacked(s.kings[s.side.Other()], s.side) {
		return nil, fmt.Errorf("%w: side not to move is in check", ErrInvalidPosition)
	}

	s.castling = s.sanitizeCastling()
	s.ep = s.sanitizeEnPassant()
	s.hash = s.ComputeHash()
	return s, nil
}

func (s *GameState) sanitizeCastling() CastlingRights {
	cr := s.castling
	home := [4]struct {
		right      CastlingRights
		king, rook Square
		color      Color
	}{
		{WhiteKingSideCastle, E1, H1, White},
		{WhiteQueenSideCastle, E1, A1, White},
		{BlackKingSideCastle, E8, H8, Black},
		{BlackQueenSideCastle, E8, A8, Black},
	}
	for _, h := range home {
		if s.board[h.king] != NewPiece(King, h.color) || s.board[h.rook] != NewPiece(Rook, h.color) {
			cr &^= h.right
		}
	}
	return cr
}

func (s *GameState) sanitizeEnPassant() Square {
	if !s.ep.IsValid() {
		return NoSquare
	}
	// The target sits behind a pawn of the side that just moved.
	wantRank, dr := 5, -1
	if s.side == Black {
		wantRank, dr = 2, 1
	}
	if s.ep.Rank() != wantRank || s.board[s.ep] != NoPiece {
		return NoSquare
	}
	pawnSq, _ := s.ep.Offset(0, dr)
	if s.board[pawnSq] != NewPiece(Pawn, s.side.Other()) {
		return NoSquare
	}
	return s.ep
}

// Descriptor returns the plain-data form of the state.
func (s *GameState) Descriptor() Descriptor {
	return Descriptor{
		Board:          s.board,
		SideToMove:     s.side,
		Castling:       s.castling,
		EnPassant:      s.ep,
		HalfmoveClock:  s.halfmove,
		FullmoveNumber: s.fullmove,
	}
}

// Copy returns an independent copy of the state.
func (s *GameState) Copy() *GameState {
	c := *s
	return &c
}

// PieceAt returns the piece on sq, or NoPiece if empty.
func (s *GameState) PieceAt(sq Square) Piece {
	return s.board[sq]
}

// SideToMove returns the color to move.
func (s *GameState) SideToMove() Color { return s.side }

// CastlingRights returns the remaining castling rights.
func (s *GameState) CastlingRights() CastlingRights { return s.castling }

// EnPassant returns the en passant target square, NoSquare if none.
func (s *GameState) EnPassant() Square { return s.ep }

// HalfmoveClock returns the plies since the last capture or pawn move.
func (s *GameState) HalfmoveClock() int { return s.halfmove }

// FullmoveNumber returns the move number, starting at 1.
func (s *GameState) FullmoveNumber() int { return s.fullmove }

// KingSquare returns the square of c's king.
func (s *GameState) KingSquare(c Color) Square {
	return s.kings[c]
}

// PositionHash returns the incrementally maintained Zobrist hash.
func (s *GameState) PositionHash() uint64 {
	return s.hash
}

// InCheck returns true if the side to move is in check.
func (s *GameState) InCheck() bool {
	return s.IsSquareAttacked(s.kings[s.side], s.side.Other())
}

// Material returns the summed piece values of c, kings excluded.
func (s *GameState) Material(c Color) int {
	total := 0
	for _, p := range s.board {
		if p != NoPiece && p.Color() == c && p.Type() != King {
			total += p.Value()
		}
	}
	return total
}

// Phase returns the game phase from MaxPhase (all pieces on) down to 0
// (kings and pawns only).
func (s *GameState) Phase() int {
	phase := 0
	for _, p := range s.board {
		if p != NoPiece {
			phase += PhaseWeight[p.Type()]
		}
	}
	if phase > MaxPhase {
		phase = MaxPhase
	}
	return phase
}

// HasNonPawnMaterial returns true if c has a piece other than pawns and king.
func (s *GameState) HasNonPawnMaterial(c Color) bool {
	for _, p := range s.board {
		if p != NoPiece && p.Color() == c && p.Type() != Pawn && p.Type() != King {
			return true
		}
	}
	return false
}

// String returns a visual representation of the position.
func (s *GameState) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteString(s.board[NewSquare(file, rank)].String())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", s.side)
	fmt.Fprintf(&sb, "Castling: %s\n", s.castling)
	fmt.Fprintf(&sb, "En passant: %s\n", s.ep)
	fmt.Fprintf(&sb, "Half-move clock: %d\n", s.halfmove)
	fmt.Fprintf(&sb, "Full move: %d\n", s.fullmove)
	fmt.Fprintf(&sb, "Hash: %016x\n", s.hash)
	return sb.String()
}
