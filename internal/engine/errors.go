package engine

import "errors"

// ErrNoLegalMoves is returned by SelectMove for checkmate and stalemate
// positions.
var ErrNoLegalMoves = errors.New("no legal moves")
