package engine

import (
	"testing"

	"github.com/laurihuju/Chess-AI/internal/board"
)

func TestTranspositionTableStoreProbe(t *testing.T) {
	tt := NewTranspositionTable(16)
	s := board.NewGameState()
	move := s.LegalMoves()[0]

	tt.Store(5, 4, 37, TTExact, move)

	item, found := tt.Probe(5)
	if !found {
		t.Fatal("stored hash not found")
	}
	if item.Hash != 5 || item.Depth != 4 || item.Score != 37 || item.Bound != TTExact || item.BestMove != move {
		t.Errorf("unexpected item %+v", item)
	}

	if _, found := tt.Probe(6); found {
		t.Error("never stored hash reported as a hit")
	}

	// Same slot, different position.
	if _, found := tt.Probe(5 + 16); found {
		t.Error("colliding hash reported as a hit")
	}
	if _, found := tt.Probe(0); found {
		t.Error("empty slot with hash 0 reported as a hit")
	}
}

func TestTranspositionTableReplacement(t *testing.T) {
	const size = 8
	tests := []struct {
		name        string
		first       uint64
		firstDepth  int
		second      uint64
		secondDepth int
		newSearch   bool
		wantHash    uint64
	}{
		{"deeper other position replaces", 1, 3, 1 + size, 5, false, 1 + size},
		{"shallower other position kept out", 1, 5, 1 + size, 3, false, 1},
		{"equal depth other position kept out", 1, 4, 1 + size, 4, false, 1},
		{"older generation replaced", 1, 9, 1 + size, 1, true, 1 + size},
		{"same position equal depth refreshed", 1, 4, 1, 4, false, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt := NewTranspositionTable(size)
			tt.Store(tc.first, tc.firstDepth, 10, TTLowerBound, board.NoMove)
			if tc.newSearch {
				tt.NewSearch()
			}
			tt.Store(tc.second, tc.secondDepth, 20, TTExact, board.NoMove)

			item, found := tt.Probe(tc.wantHash)
			if !found {
				t.Fatalf("hash %d not in table", tc.wantHash)
			}
			if tc.wantHash == tc.second && item.Score != 20 {
				t.Errorf("score = %d, want the second store", item.Score)
			}
		})
	}
}

func TestTranspositionTableSameHashShallowerKept(t *testing.T) {
	tt := NewTranspositionTable(8)
	tt.Store(3, 6, 10, TTExact, board.NoMove)
	tt.Store(3, 2, 99, TTUpperBound, board.NoMove)

	item, _ := tt.Probe(3)
	if item.Depth != 6 || item.Score != 10 {
		t.Errorf("deeper entry was overwritten: %+v", item)
	}
}

func TestTranspositionTableClear(t *testing.T) {
	tt := NewTranspositionTable(1000)
	for h := uint64(0); h < 500; h++ {
		tt.Store(h, 1, 0, TTExact, board.NoMove)
	}
	if got := tt.HashFull(); got != 500 {
		t.Errorf("HashFull = %d, want 500", got)
	}

	tt.Clear()
	if got := tt.HashFull(); got != 0 {
		t.Errorf("HashFull after Clear = %d", got)
	}
	if _, found := tt.Probe(7); found {
		t.Error("probe hit after Clear")
	}
}

func TestMateScoreAdjustment(t *testing.T) {
	// Mate in 3 plies found at ply 5 is mate in 8 from the root.
	root := MateScore - 8
	stored := ScoreToTT(root, 5)
	if stored != MateScore-3 {
		t.Errorf("ScoreToTT = %d, want %d", stored, MateScore-3)
	}
	if got := ScoreFromTT(stored, 2); got != MateScore-5 {
		t.Errorf("ScoreFromTT at ply 2 = %d, want %d", got, MateScore-5)
	}

	for _, score := range []int{0, 150, -320, -MateScore + 10, MateScore - 10} {
		if got := ScoreFromTT(ScoreToTT(score, 7), 7); got != score {
			t.Errorf("round trip of %d gave %d", score, got)
		}
	}
	if ScoreToTT(250, 9) != 250 {
		t.Error("ordinary scores must not be adjusted")
	}
}
