package board

// genMode selects between full generation and the capture-only mode used
// by quiescence search.
type genMode uint8

const (
	genAll genMode = iota
	genCaptures
)

// generator appends the pseudo-legal moves of piece p standing on from.
type generator func(s *GameState, from Square, p Piece, mode genMode, dst []Move) []Move

// generators dispatches on PieceType.
var generators = [6]generator{
	Pawn:   genPawn,
	Knight: genKnight,
	Bishop: genBishop,
	Rook:   genRook,
	Queen:  genQueen,
	King:   genKing,
}

var promotionOrder = [4]PieceType{Queen, Rook, Bishop, Knight}

// PseudoLegalMoves appends the moves p could make from the given square,
// without checking whether its own king is left attacked.
func (p Piece) PseudoLegalMoves(from Square, s *GameState, dst []Move) []Move {
	if p == NoPiece {
		return dst
	}
	return generators[p.Type()](s, from, p, genAll, dst)
}

func genPawn(s *GameState, from Square, p Piece, mode genMode, dst []Move) []Move {
	us := p.Color()
	dr := 1
	if us == Black {
		dr = -1
	}

	if to, ok := from.Offset(0, dr); ok && s.board[to] == NoPiece {
		if to.RelativeRank(us) == 7 {
			dst = appendPromotions(dst, from, to, p, NoPiece)
		} else if mode == genAll {
			dst = append(dst, newMove(from, to, p, NoPiece, FlagNormal))
			if from.RelativeRank(us) == 1 {
				if to2, ok := to.Offset(0, dr); ok && s.board[to2] == NoPiece {
					dst = append(dst, newMove(from, to2, p, NoPiece, FlagDoubleAdvance))
				}
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		to, ok := from.Offset(df, dr)
		if !ok {
			continue
		}
		target := s.board[to]
		switch {
		case target != NoPiece && target.Color() != us:
			if to.RelativeRank(us) == 7 {
				dst = appendPromotions(dst, from, to, p, target)
			} else {
				dst = append(dst, newMove(from, to, p, target, FlagNormal))
			}
		case target == NoPiece && to == s.ep:
			victim := NewPiece(Pawn, us.Other())
			if s.board[NewSquare(to.File(), from.Rank())] == victim {
				dst = append(dst, newMove(from, to, p, victim, FlagEnPassant))
			}
		}
	}
	return dst
}

func appendPromotions(dst []Move, from, to Square, p, captured Piece) []Move {
	for _, pt := range promotionOrder {
		m := newMove(from, to, p, captured, FlagPromotion)
		m.Promotion = pt
		dst = append(dst, m)
	}
	return dst
}

func genKnight(s *GameState, from Square, p Piece, mode genMode, dst []Move) []Move {
	return genLeaper(s, from, p, knightTargets[from], mode, dst)
}

func genKing(s *GameState, from Square, p Piece, mode genMode, dst []Move) []Move {
	dst = genLeaper(s, from, p, kingTargets[from], mode, dst)
	if mode == genAll {
		dst = genCastles(s, from, p, dst)
	}
	return dst
}

func genLeaper(s *GameState, from Square, p Piece, targets []Square, mode genMode, dst []Move) []Move {
	for _, to := range targets {
		target := s.board[to]
		if target == NoPiece {
			if mode == genAll {
				dst = append(dst, newMove(from, to, p, NoPiece, FlagNormal))
			}
		} else if target.Color() != p.Color() {
			dst = append(dst, newMove(from, to, p, target, FlagNormal))
		}
	}
	return dst
}

func genBishop(s *GameState, from Square, p Piece, mode genMode, dst []Move) []Move {
	return genSlider(s, from, p, diagonalDirs, mode, dst)
}

func genRook(s *GameState, from Square, p Piece, mode genMode, dst []Move) []Move {
	return genSlider(s, from, p, orthogonalDirs, mode, dst)
}

// genQueen is the union of the bishop and rook generators.
func genQueen(s *GameState, from Square, p Piece, mode genMode, dst []Move) []Move {
	dst = genBishop(s, from, p, mode, dst)
	return genRook(s, from, p, mode, dst)
}

func genSlider(s *GameState, from Square, p Piece, dirs []int, mode genMode, dst []Move) []Move {
	for _, dir := range dirs {
		for _, to := range rays[from][dir] {
			target := s.board[to]
			if target == NoPiece {
				if mode == genAll {
					dst = append(dst, newMove(from, to, p, NoPiece, FlagNormal))
				}
				continue
			}
			if target.Color() != p.Color() {
				dst = append(dst, newMove(from, to, p, target, FlagNormal))
			}
			break
		}
	}
	return dst
}

// genCastles adds castling moves. The king may not start in, pass
// through or land on an attacked square.
func genCastles(s *GameState, from Square, p Piece, dst []Move) []Move {
	us := p.Color()
	home := E1
	if us == Black {
		home = E8
	}
	if from != home || s.castling&castlingLoss[home] == 0 {
		return dst
	}
	them := us.Other()
	if s.IsSquareAttacked(from, them) {
		return dst
	}
	rook := NewPiece(Rook, us)

	if s.castling.CanCastle(us, true) &&
		s.board[from+1] == NoPiece && s.board[from+2] == NoPiece && s.board[from+3] == rook &&
		!s.IsSquareAttacked(from+1, them) && !s.IsSquareAttacked(from+2, them) {
		dst = append(dst, newMove(from, from+2, p, NoPiece, FlagCastleKingside))
	}
	if s.castling.CanCastle(us, false) &&
		s.board[from-1] == NoPiece && s.board[from-2] == NoPiece && s.board[from-3] == NoPiece &&
		s.board[from-4] == rook &&
		!s.IsSquareAttacked(from-1, them) && !s.IsSquareAttacked(from-2, them) {
		dst = append(dst, newMove(from, from-2, p, NoPiece, FlagCastleQueenside))
	}
	return dst
}
