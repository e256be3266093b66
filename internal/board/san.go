package board

import (
	"fmt"
	"strings"
)

// SAN returns m in Standard Algebraic Notation ("Nf3", "exd5", "O-O",
// "e8=Q+"). m must be legal in s.
func (s *GameState) SAN(m Move) string {
	if m.IsNull() {
		return "-"
	}

	var sb strings.Builder
	switch m.Flag {
	case FlagCastleKingside:
		sb.WriteString("O-O")
	case FlagCastleQueenside:
		sb.WriteString("O-O-O")
	default:
		pt := m.Piece.Type()
		if pt != Pawn {
			sb.WriteByte("PNBRQK"[pt])
			sb.WriteString(s.disambiguation(m))
		}
		if m.IsCapture() {
			if pt == Pawn {
				sb.WriteByte('a' + byte(m.From.File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[m.Promotion])
		}
	}

	u := s.Apply(m)
	if s.InCheck() {
		if s.HasLegalMoves() {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	s.Undo(m, u)
	return sb.String()
}

// disambiguation returns the origin file, rank or square needed when
// another piece of the same kind can reach the same destination.
func (s *GameState) disambiguation(m Move) string {
	var candidates []Square
	for _, other := range s.LegalMoves() {
		if other.To == m.To && other.From != m.From && other.Piece == m.Piece {
			candidates = append(candidates, other.From)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range candidates {
		if sq.File() == m.From.File() {
			sameFile = true
		}
		if sq.Rank() == m.From.Rank() {
			sameRank = true
		}
	}
	if !sameFile {
		return string(rune('a' + m.From.File()))
	}
	if !sameRank {
		return string(rune('1' + m.From.Rank()))
	}
	return m.From.String()
}

// ParseSAN resolves SAN text against the legal moves of s.
func (s *GameState) ParseSAN(text string) (Move, error) {
	text = strings.TrimRight(strings.TrimSpace(text), "+#!?")
	for _, m := range s.LegalMoves() {
		if strings.TrimRight(s.SAN(m), "+#") == text {
			return m, nil
		}
	}
	// Accept the zero spelling of castling too.
	if alt := strings.ReplaceAll(text, "0", "O"); alt != text && strings.HasPrefix(alt, "O-O") {
		return s.ParseSAN(alt)
	}
	return NoMove, fmt.Errorf("%w: %q in %s", ErrIllegalMove, text, s.FEN())
}

// MovesToSAN converts a sequence of moves played from s into SAN. s is
// left unchanged.
func MovesToSAN(s *GameState, moves []Move) []string {
	result := make([]string, len(moves))
	c := s.Copy()
	for i, m := range moves {
		result[i] = c.SAN(m)
		c.Apply(m)
	}
	return result
}
