package board

import "testing"

// perft counts the number of leaf nodes at the given depth.
// This is the standard way to verify move generation correctness.
func perft(s *GameState, depth int) int64 {
	if depth == 0 {
		return 1
	}

	moves := s.LegalMoves()
	if depth == 1 {
		return int64(len(moves))
	}

	var nodes int64
	for _, m := range moves {
		undo := s.Apply(m)
		nodes += perft(s, depth-1)
		s.Undo(m, undo)
	}
	return nodes
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name   string
		fen    string
		counts []int64 // indexed by depth-1
	}{
		{"start", StartFEN, []int64{20, 400, 8902, 197281}},
		// Kiwipete: castling, en passant and promotions all at once.
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", []int64{48, 2039, 97862}},
		{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", []int64{14, 191, 2812, 43238}},
		{"position4", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []int64{6, 264, 9467}},
		{"position5", "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []int64{44, 1486, 62379}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := FromFEN(tc.fen)
			if err != nil {
				t.Fatalf("FromFEN: %v", err)
			}
			for i, want := range tc.counts {
				depth := i + 1
				if testing.Short() && want > 50000 {
					continue
				}
				if got := perft(s, depth); got != want {
					t.Errorf("perft(%d) = %d, want %d", depth, got, want)
				}
			}
			if s.FEN() != mustState(t, tc.fen).FEN() {
				t.Errorf("state changed after perft: %s", s.FEN())
			}
		})
	}
}

func mustState(t *testing.T, fen string) *GameState {
	t.Helper()
	s, err := FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN(%q): %v", fen, err)
	}
	return s
}

// play applies a sequence of long algebraic moves.
func play(t *testing.T, s *GameState, moves ...string) {
	t.Helper()
	for _, text := range moves {
		m, err := ParseMove(text, s)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", text, err)
		}
		s.Apply(m)
	}
}
