package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN decodes FEN text into a Descriptor. The clock fields are
// optional and default to 0 and 1.
func ParseFEN(fen string) (Descriptor, error) {
	d := Descriptor{EnPassant: NoSquare, FullmoveNumber: 1}
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return d, fmt.Errorf("%w: need at least 4 fields, got %d", ErrInvalidFEN, len(parts))
	}

	if err := parsePiecePlacement(&d, parts[0]); err != nil {
		return d, err
	}

	switch parts[1] {
	case "w":
		d.SideToMove = White
	case "b":
		d.SideToMove = Black
	default:
		return d, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, parts[1])
	}

	if err := parseCastlingRights(&d, parts[2]); err != nil {
		return d, err
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return d, fmt.Errorf("%w: en passant square %q", ErrInvalidFEN, parts[3])
		}
		d.EnPassant = sq
	}

	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil || hmc < 0 {
			return d, fmt.Errorf("%w: half-move clock %q", ErrInvalidFEN, parts[4])
		}
		d.HalfmoveClock = hmc
	}
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil || fmn < 1 {
			return d, fmt.Errorf("%w: full-move number %q", ErrInvalidFEN, parts[5])
		}
		d.FullmoveNumber = fmn
	}
	return d, nil
}

// FromFEN parses FEN text and builds the GameState it describes.
func FromFEN(fen string) (*GameState, error) {
	d, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return FromDescriptor(d)
}

func parsePiecePlacement(d *Descriptor, placement string) error {
	for i := range d.Board {
		d.Board[i] = NoPiece
	}
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0
		for _, c := range rankStr {
			if file > 7 {
				return fmt.Errorf("%w: too many squares in rank %d", ErrInvalidFEN, rank+1)
			}
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece := PieceFromLetter(byte(c))
			if piece == NoPiece {
				return fmt.Errorf("%w: piece character %q", ErrInvalidFEN, c)
			}
			d.Board[NewSquare(file, rank)] = piece
			file++
		}
		if file != 8 {
			return fmt.Errorf("%w: rank %d has %d squares", ErrInvalidFEN, rank+1, file)
		}
	}
	return nil
}

func parseCastlingRights(d *Descriptor, castling string) error {
	if castling == "-" {
		d.Castling = NoCastling
		return nil
	}
	for _, c := range castling {
		switch c {
		case 'K':
			d.Castling |= WhiteKingSideCastle
		case 'Q':
			d.Castling |= WhiteQueenSideCastle
		case 'k':
			d.Castling |= BlackKingSideCastle
		case 'q':
			d.Castling |= BlackQueenSideCastle
		default:
			return fmt.Errorf("%w: castling character %q", ErrInvalidFEN, c)
		}
	}
	return nil
}

// FEN returns the FEN representation of the state.
func (s *GameState) FEN() string {
	return s.Descriptor().FEN()
}

// FEN encodes d as FEN text.
func (d Descriptor) FEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := d.Board[NewSquare(file, rank)]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if d.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')
	sb.WriteString(d.Castling.String())
	sb.WriteByte(' ')
	sb.WriteString(d.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(d.HalfmoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(d.FullmoveNumber))
	return sb.String()
}
