package board

import "errors"

var (
	// ErrIllegalMove is reported when a move is not legal in the current
	// state. Apply panics with it; ParseMove returns it.
	ErrIllegalMove = errors.New("illegal move")

	// ErrInvalidPosition marks a position descriptor that breaks the rules
	// (missing king, pawn on a back rank, side not to move in check).
	ErrInvalidPosition = errors.New("invalid position")

	// ErrInvalidFEN marks FEN text that cannot be parsed.
	ErrInvalidFEN = errors.New("invalid FEN")
)
