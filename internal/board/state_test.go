package board

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var roundTripFENs = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
}

// walk visits every legal move to the given depth and checks that Undo
// restores the exact prior state and that the incremental hash matches
// a full recomputation.
func walk(t *testing.T, s *GameState, depth int) {
	t.Helper()
	if depth == 0 {
		return
	}
	for _, m := range s.LegalMoves() {
		before := *s
		u := s.Apply(m)

		if got, want := s.PositionHash(), s.ComputeHash(); got != want {
			t.Fatalf("after %s from %s: incremental hash %016x, recomputed %016x", m, before.FEN(), got, want)
		}
		if s.IsSquareAttacked(s.KingSquare(m.Piece.Color()), s.SideToMove()) {
			t.Fatalf("%s from %s leaves own king attacked", m, before.FEN())
		}

		walk(t, s, depth-1)
		s.Undo(m, u)

		if diff := cmp.Diff(before, *s, cmp.AllowUnexported(GameState{})); diff != "" {
			t.Fatalf("undo %s from %s mismatch (-before +after):\n%s", m, before.FEN(), diff)
		}
	}
}

func TestApplyUndoRoundTrip(t *testing.T) {
	for _, fen := range roundTripFENs {
		t.Run(fen, func(t *testing.T) {
			walk(t, mustState(t, fen), 3)
		})
	}
}

func TestApplyPanicsOnIllegalMove(t *testing.T) {
	tests := []struct {
		name string
		m    Move
	}{
		// Black piece while white is to move.
		{"wrong side", Move{From: E7, To: E5, Piece: BlackPawn, Captured: NoPiece, Flag: FlagDoubleAdvance, Promotion: NoPieceType}},
		{"quiet onto own piece", Move{From: A1, To: A2, Piece: WhiteRook, Captured: NoPiece, Promotion: NoPieceType}},
		{"capture on empty square", Move{From: B1, To: C3, Piece: WhiteKnight, Captured: BlackPawn, Promotion: NoPieceType}},
		{"capture own piece", Move{From: A1, To: A2, Piece: WhiteRook, Captured: WhitePawn, Promotion: NoPieceType}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewGameState()
			before := *s
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !errors.Is(err, ErrIllegalMove) {
					t.Fatalf("recover() = %v, want error wrapping ErrIllegalMove", r)
				}
				if diff := cmp.Diff(before, *s, cmp.AllowUnexported(GameState{})); diff != "" {
					t.Errorf("rejected move changed the state (-before +after):\n%s", diff)
				}
			}()
			s.Apply(tc.m)
		})
	}
}

func TestNoMove(t *testing.T) {
	for _, m := range []Move{NoMove, {}} {
		if !m.IsNull() {
			t.Errorf("%+v: IsNull() = false", m)
		}
		if m.String() != "0000" {
			t.Errorf("%+v: String() = %q, want 0000", m, m.String())
		}
	}
	if NoMove.IsCapture() || !NoMove.IsQuiet() {
		t.Errorf("NoMove: IsCapture() = %v, IsQuiet() = %v", NoMove.IsCapture(), NoMove.IsQuiet())
	}
}

func TestTranspositionHash(t *testing.T) {
	a := NewGameState()
	play(t, a, "g1f3", "g8f6", "b1c3", "b8c6")
	b := NewGameState()
	play(t, b, "b1c3", "b8c6", "g1f3", "g8f6")

	if a.PositionHash() != b.PositionHash() {
		t.Errorf("transposed positions hash differently: %016x vs %016x", a.PositionHash(), b.PositionHash())
	}
	if a.FEN() != b.FEN() {
		t.Errorf("FEN mismatch: %s vs %s", a.FEN(), b.FEN())
	}
}

func TestHashIgnoresClocks(t *testing.T) {
	a := mustState(t, "4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	b := mustState(t, "4k3/8/8/8/8/8/8/4K2R w K - 37 60")
	if a.PositionHash() != b.PositionHash() {
		t.Error("clocks must not affect the position hash")
	}
}

func TestHashDependsOnRights(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"side", "4k3/8/8/8/8/8/8/4K3 w - - 0 1", "4k3/8/8/8/8/8/8/4K3 b - - 0 1"},
		{"castling", "4k3/8/8/8/8/8/8/4K2R w K - 0 1", "4k3/8/8/8/8/8/8/4K2R w - - 0 1"},
		{"en passant", "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2", "4k3/8/8/3pP3/8/8/8/4K3 w - - 0 2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if mustState(t, tc.a).PositionHash() == mustState(t, tc.b).PositionHash() {
				t.Errorf("%q and %q hash equal", tc.a, tc.b)
			}
		})
	}
}

func TestFENRoundTrip(t *testing.T) {
	for _, fen := range roundTripFENs {
		if got := mustState(t, fen).FEN(); got != fen {
			t.Errorf("FEN() = %q, want %q", got, fen)
		}
		d, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got := d.FEN(); got != fen {
			t.Errorf("Descriptor.FEN() = %q, want %q", got, fen)
		}
	}
}

func TestFromDescriptorRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want error
	}{
		{"too few fields", "8/8/8/8/8/8/8/8 w", ErrInvalidFEN},
		{"bad piece", "4k3/8/8/8/8/8/8/4X2K w - - 0 1", ErrInvalidFEN},
		{"short rank", "4k3/8/8/8/8/8/8/4K2 w - - 0 1", ErrInvalidFEN},
		{"bad side", "4k3/8/8/8/8/8/8/4K3 x - - 0 1", ErrInvalidFEN},
		{"no white king", "4k3/8/8/8/8/8/8/8 w - - 0 1", ErrInvalidPosition},
		{"two kings", "4k3/8/8/8/8/8/8/3KK3 w - - 0 1", ErrInvalidPosition},
		{"pawn on back rank", "4k2P/8/8/8/8/8/8/4K3 w - - 0 1", ErrInvalidPosition},
		{"opponent in check", "4k3/8/8/8/8/8/4Q3/4K3 w - - 0 1", ErrInvalidPosition},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromFEN(tc.fen)
			if !errors.Is(err, tc.want) {
				t.Errorf("FromFEN(%q) error = %v, want %v", tc.fen, err, tc.want)
			}
		})
	}
}

func TestFromDescriptorDropsStaleRights(t *testing.T) {
	// Rights claimed without rooks on their home squares, and an en passant
	// target with no pawn behind it.
	s := mustState(t, "4k3/8/8/8/8/8/8/4K3 w KQkq e6 0 1")
	if s.CastlingRights() != NoCastling {
		t.Errorf("castling = %s, want -", s.CastlingRights())
	}
	if s.EnPassant() != NoSquare {
		t.Errorf("en passant = %s, want -", s.EnPassant())
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	s := mustState(t, roundTripFENs[1])
	c, err := FromDescriptor(s.Descriptor())
	if err != nil {
		t.Fatalf("FromDescriptor: %v", err)
	}
	if diff := cmp.Diff(s, c, cmp.AllowUnexported(GameState{})); diff != "" {
		t.Errorf("descriptor round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	s := NewGameState()
	c := s.Copy()
	play(t, c, "e2e4")
	if s.PieceAt(E2) != WhitePawn || s.PieceAt(E4) != NoPiece {
		t.Error("applying to a copy changed the original")
	}
	if s.PositionHash() == c.PositionHash() {
		t.Error("copy hash did not change")
	}
}

func TestApplyBookkeeping(t *testing.T) {
	s := NewGameState()

	play(t, s, "e2e4")
	if s.EnPassant() != E3 {
		t.Errorf("en passant after e2e4 = %s, want e3", s.EnPassant())
	}
	if s.HalfmoveClock() != 0 || s.FullmoveNumber() != 1 || s.SideToMove() != Black {
		t.Errorf("clocks after e2e4: half=%d full=%d side=%s", s.HalfmoveClock(), s.FullmoveNumber(), s.SideToMove())
	}

	play(t, s, "g8f6")
	if s.EnPassant() != NoSquare {
		t.Errorf("en passant should expire, got %s", s.EnPassant())
	}
	if s.HalfmoveClock() != 1 || s.FullmoveNumber() != 2 {
		t.Errorf("clocks after g8f6: half=%d full=%d", s.HalfmoveClock(), s.FullmoveNumber())
	}

	play(t, s, "e1e2")
	if s.CastlingRights() != BlackKingSideCastle|BlackQueenSideCastle {
		t.Errorf("castling after king move = %s, want kq", s.CastlingRights())
	}
	if s.KingSquare(White) != E2 {
		t.Errorf("king square = %s, want e2", s.KingSquare(White))
	}
}

func TestRookCaptureForfeitsRights(t *testing.T) {
	s := mustState(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	play(t, s, "a1a8")
	if got, want := s.CastlingRights(), WhiteKingSideCastle|BlackKingSideCastle; got != want {
		t.Errorf("castling = %s, want %s", got, want)
	}
}
