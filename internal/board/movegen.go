package board

import "fmt"

// LegalMoves returns every legal move of the side to move. Squares are
// scanned A1..H8 and each generator walks its directions in a fixed
// order, so the result is deterministic for a given state.
func (s *GameState) LegalMoves() []Move {
	return s.AppendLegalMoves(make([]Move, 0, 48))
}

// AppendLegalMoves appends the legal moves to dst and returns it.
func (s *GameState) AppendLegalMoves(dst []Move) []Move {
	return s.appendLegal(dst, genAll)
}

// LegalCaptures returns only the legal captures and promotions.
func (s *GameState) LegalCaptures() []Move {
	return s.AppendLegalCaptures(make([]Move, 0, 16))
}

// AppendLegalCaptures appends the legal captures and promotions to dst.
func (s *GameState) AppendLegalCaptures(dst []Move) []Move {
	return s.appendLegal(dst, genCaptures)
}

func (s *GameState) appendLegal(dst []Move, mode genMode) []Move {
	start := len(dst)
	us := s.side
	for sq := A1; sq <= H8; sq++ {
		p := s.board[sq]
		if p == NoPiece || p.Color() != us {
			continue
		}
		dst = generators[p.Type()](s, sq, p, mode, dst)
	}

	// Filter in place.
	n := start
	for i := start; i < len(dst); i++ {
		if s.leavesKingSafe(dst[i]) {
			dst[n] = dst[i]
			n++
		}
	}
	return dst[:n]
}

// leavesKingSafe applies m, tests whether the mover's king is attacked
// and undoes it.
func (s *GameState) leavesKingSafe(m Move) bool {
	u := s.Apply(m)
	safe := !s.IsSquareAttacked(s.kings[m.Piece.Color()], s.side)
	s.Undo(m, u)
	return safe
}

// IsLegal reports whether m is one of the legal moves of s.
func (s *GameState) IsLegal(m Move) bool {
	if !m.From.IsValid() || !m.To.IsValid() || s.board[m.From] != m.Piece || m.Piece.Color() != s.side {
		return false
	}
	var buf [32]Move
	for _, cand := range generators[m.Piece.Type()](s, m.From, m.Piece, genAll, buf[:0]) {
		if cand == m {
			return s.leavesKingSafe(m)
		}
	}
	return false
}

// HasLegalMoves returns true if the side to move has any legal move.
// It stops at the first one found.
func (s *GameState) HasLegalMoves() bool {
	var buf [32]Move
	us := s.side
	for sq := A1; sq <= H8; sq++ {
		p := s.board[sq]
		if p == NoPiece || p.Color() != us {
			continue
		}
		for _, m := range generators[p.Type()](s, sq, p, genAll, buf[:0]) {
			if s.leavesKingSafe(m) {
				return true
			}
		}
	}
	return false
}

// IsCheckmate returns true if the position is checkmate.
func (s *GameState) IsCheckmate() bool {
	return s.InCheck() && !s.HasLegalMoves()
}

// IsStalemate returns true if the position is stalemate.
func (s *GameState) IsStalemate() bool {
	return !s.InCheck() && !s.HasLegalMoves()
}

// IsInsufficientMaterial returns true if neither side can checkmate:
// bare kings, a single minor piece, or bishops all on one square color.
func (s *GameState) IsInsufficientMaterial() bool {
	var minors [2]int
	bishopColors := 0 // bit 0: light-squared bishop seen, bit 1: dark
	knights := 0
	for sq := A1; sq <= H8; sq++ {
		p := s.board[sq]
		switch p.Type() {
		case Pawn, Rook, Queen:
			return false
		case Knight:
			minors[p.Color()]++
			knights++
		case Bishop:
			minors[p.Color()]++
			if (sq.File()+sq.Rank())%2 == 0 {
				bishopColors |= 2
			} else {
				bishopColors |= 1
			}
		}
	}

	total := minors[White] + minors[Black]
	if total <= 1 {
		return true
	}
	// Only bishops, all on squares of one color.
	return knights == 0 && bishopColors != 3
}

// Apply plays m and returns the information Undo needs to reverse it.
// m must come from LegalMoves; a move that does not match the board
// panics with an error wrapping ErrIllegalMove.
func (s *GameState) Apply(m Move) UndoInfo {
	us := s.side
	them := us.Other()
	if !m.From.IsValid() || !m.To.IsValid() || m.Piece.Color() != us || s.board[m.From] != m.Piece {
		panic(fmt.Errorf("%w: %s does not move a %s piece from %s", ErrIllegalMove, m, us, m.From))
	}
	capSq := m.CaptureSquare()
	if s.board[capSq] != m.Captured || (m.Captured != NoPiece && m.Captured.Color() != them) {
		panic(fmt.Errorf("%w: %s expects %s on %s", ErrIllegalMove, m, m.Captured, capSq))
	}
	if m.IsEnPassant() && s.board[m.To] != NoPiece {
		panic(fmt.Errorf("%w: %s lands on occupied %s", ErrIllegalMove, m, m.To))
	}

	undo := UndoInfo{
		Captured:       m.Captured,
		CastlingRights: s.castling,
		EnPassant:      s.ep,
		HalfmoveClock:  s.halfmove,
		Hash:           s.hash,
	}
	hash := s.hash

	if s.ep != NoSquare {
		hash ^= zobristEnPassant[s.ep.File()]
		s.ep = NoSquare
	}

	if m.Captured != NoPiece {
		s.board[capSq] = NoPiece
		hash ^= zobristPiece[them][m.Captured.Type()][capSq]
	}

	s.board[m.From] = NoPiece
	hash ^= zobristPiece[us][m.Piece.Type()][m.From]
	placed := m.Piece
	if m.IsPromotion() {
		placed = NewPiece(m.Promotion, us)
	}
	s.board[m.To] = placed
	hash ^= zobristPiece[us][placed.Type()][m.To]

	switch m.Flag {
	case FlagCastleKingside, FlagCastleQueenside:
		rookFrom, rookTo := castleRookSquares(m)
		rook := NewPiece(Rook, us)
		s.board[rookFrom] = NoPiece
		s.board[rookTo] = rook
		hash ^= zobristPiece[us][Rook][rookFrom] ^ zobristPiece[us][Rook][rookTo]
	case FlagDoubleAdvance:
		s.ep = Square((int(m.From) + int(m.To)) / 2)
		hash ^= zobristEnPassant[s.ep.File()]
	}

	if m.Piece.Type() == King {
		s.kings[us] = m.To
	}

	if rights := s.castling &^ (castlingLoss[m.From] | castlingLoss[m.To]); rights != s.castling {
		hash ^= zobristCastling[s.castling] ^ zobristCastling[rights]
		s.castling = rights
	}

	if m.Piece.Type() == Pawn || m.Captured != NoPiece {
		s.halfmove = 0
	} else {
		s.halfmove++
	}
	if us == Black {
		s.fullmove++
	}

	s.side = them
	s.hash = hash ^ zobristSideToMove
	return undo
}

// Undo reverses Apply(m). u must be the value Apply returned.
func (s *GameState) Undo(m Move, u UndoInfo) {
	us := s.side.Other()
	s.side = us
	if us == Black {
		s.fullmove--
	}

	s.board[m.To] = NoPiece
	s.board[m.From] = m.Piece
	if m.Captured != NoPiece {
		s.board[m.CaptureSquare()] = m.Captured
	}
	if m.IsCastle() {
		rookFrom, rookTo := castleRookSquares(m)
		s.board[rookTo] = NoPiece
		s.board[rookFrom] = NewPiece(Rook, us)
	}
	if m.Piece.Type() == King {
		s.kings[us] = m.From
	}

	s.castling = u.CastlingRights
	s.ep = u.EnPassant
	s.halfmove = u.HalfmoveClock
	s.hash = u.Hash
}

func castleRookSquares(m Move) (from, to Square) {
	rank := m.From.Rank()
	if m.Flag == FlagCastleKingside {
		return NewSquare(7, rank), NewSquare(5, rank)
	}
	return NewSquare(0, rank), NewSquare(3, rank)
}
