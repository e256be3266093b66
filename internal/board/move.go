package board

import "fmt"

// MoveFlag classifies the special effects of a move.
type MoveFlag uint8

const (
	FlagNormal MoveFlag = iota
	FlagDoubleAdvance
	FlagEnPassant
	FlagCastleKingside
	FlagCastleQueenside
	FlagPromotion
)

func (f MoveFlag) String() string {
	switch f {
	case FlagNormal:
		return "normal"
	case FlagDoubleAdvance:
		return "double-advance"
	case FlagEnPassant:
		return "en-passant"
	case FlagCastleKingside:
		return "castle-kingside"
	case FlagCastleQueenside:
		return "castle-queenside"
	case FlagPromotion:
		return "promotion"
	default:
		return "unknown"
	}
}

// Move describes a single state transition. It carries everything Undo
// needs besides the prior rights and clocks kept in UndoInfo.
//
// The zero value is a null move (From == To); prefer NoMove, whose
// Captured and Promotion fields hold their empty values.
type Move struct {
	From      Square
	To        Square
	Piece     Piece // moving piece
	Captured  Piece // NoPiece unless the move captures
	Flag      MoveFlag
	Promotion PieceType // NoPieceType unless Flag == FlagPromotion
}

// NoMove is the null move. Any Move with From == To counts as null,
// including the zero value.
var NoMove = Move{Captured: NoPiece, Promotion: NoPieceType}

func newMove(from, to Square, piece, captured Piece, flag MoveFlag) Move {
	return Move{From: from, To: to, Piece: piece, Captured: captured, Flag: flag, Promotion: NoPieceType}
}

// IsNull reports whether m is the null move.
func (m Move) IsNull() bool {
	return m.From == m.To
}

// IsCapture reports whether the move removes an enemy piece.
func (m Move) IsCapture() bool {
	return m.Captured != NoPiece
}

// IsPromotion reports whether a pawn promotes.
func (m Move) IsPromotion() bool {
	return m.Flag == FlagPromotion
}

// IsCastle reports whether the move is a castling king move.
func (m Move) IsCastle() bool {
	return m.Flag == FlagCastleKingside || m.Flag == FlagCastleQueenside
}

// IsEnPassant reports whether the move is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag == FlagEnPassant
}

// IsQuiet reports whether the move neither captures nor promotes.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// CaptureSquare returns the square of the captured piece. It differs from
// To only for en passant.
func (m Move) CaptureSquare() Square {
	if m.Flag != FlagEnPassant {
		return m.To
	}
	return NewSquare(m.To.File(), m.From.Rank())
}

// String returns long algebraic notation ("e2e4", "e7e8q"), "0000" for the null move.
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += string(m.Promotion.Letter())
	}
	return s
}

// SameAction reports whether two moves describe the same from/to/promotion,
// ignoring the metadata. Used to match moves decoded from text or storage.
func (m Move) SameAction(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

// MoveList is an ordered sequence of moves.
type MoveList []Move

// Contains reports whether the list holds m.
func (ml MoveList) Contains(m Move) bool {
	return ml.Index(m) >= 0
}

// Index returns the position of m, or -1.
func (ml MoveList) Index(m Move) int {
	for i := range ml {
		if ml[i] == m {
			return i
		}
	}
	return -1
}

// Find returns the move with the given long algebraic text.
func (ml MoveList) Find(text string) (Move, bool) {
	for _, m := range ml {
		if m.String() == text {
			return m, true
		}
	}
	return NoMove, false
}

// UndoInfo holds the parts of a GameState that Apply overwrites and that
// cannot be recomputed from the Move itself.
type UndoInfo struct {
	Captured       Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfmoveClock  int
	Hash           uint64
}

// ParseMove resolves long algebraic text against the legal moves of s.
func ParseMove(text string, s *GameState) (Move, error) {
	if len(text) < 4 || len(text) > 5 {
		return NoMove, fmt.Errorf("%w: malformed move %q", ErrIllegalMove, text)
	}
	if _, err := ParseSquare(text[0:2]); err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	if _, err := ParseSquare(text[2:4]); err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	m, ok := MoveList(s.LegalMoves()).Find(text)
	if !ok {
		return NoMove, fmt.Errorf("%w: %s in %s", ErrIllegalMove, text, s.FEN())
	}
	return m, nil
}
