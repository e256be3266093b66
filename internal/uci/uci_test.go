package uci

import (
	"bytes"
	"strings"
	"testing"

	"github.com/laurihuju/Chess-AI/internal/board"
	"github.com/laurihuju/Chess-AI/internal/engine"
)

func newTestUCI() (*UCI, *bytes.Buffer) {
	var out bytes.Buffer
	opts := engine.DefaultOptions()
	opts.HashMB = 4
	return New(opts, &out), &out
}

// bestMove waits for the running search and returns its bestmove.
func bestMove(t *testing.T, u *UCI, out *bytes.Buffer) string {
	t.Helper()
	if u.searchDone != nil {
		<-u.searchDone
	}
	for _, line := range strings.Split(out.String(), "\n") {
		if rest, ok := strings.CutPrefix(line, "bestmove "); ok {
			return rest
		}
	}
	t.Fatalf("no bestmove in output:\n%s", out.String())
	return ""
}

func TestHandshake(t *testing.T) {
	u, out := newTestUCI()
	if err := u.Run(strings.NewReader("uci\nisready\nquit\nisready\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "id name Chess-AI") || !strings.HasSuffix(got, "uciok\nreadyok\n") {
		t.Errorf("unexpected output:\n%s", got)
	}
}

func TestPositionWithMoves(t *testing.T) {
	u, _ := newTestUCI()
	u.Handle("position startpos moves e2e4 e7e5 g1f3")

	want := "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"
	if got := u.state.FEN(); got != want {
		t.Errorf("FEN = %s, want %s", got, want)
	}
	if len(u.history) != 3 {
		t.Errorf("history has %d hashes, want 3", len(u.history))
	}
}

func TestPositionRejectsBadInput(t *testing.T) {
	u, out := newTestUCI()
	u.Handle("position startpos moves e2e4")
	before := u.state.FEN()

	u.Handle("position fen not/a/fen w - - 0 1")
	u.Handle("position startpos moves e2e5")
	if u.state.FEN() != before {
		t.Errorf("bad input changed the position to %s", u.state.FEN())
	}
	if strings.Count(out.String(), "info string invalid") != 2 {
		t.Errorf("expected two rejections:\n%s", out.String())
	}
}

func TestGoDepth(t *testing.T) {
	u, out := newTestUCI()
	u.Handle("position fen 6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	u.Handle("go depth 3")

	if got := bestMove(t, u, out); got != "a1a8" {
		t.Errorf("bestmove %s, want a1a8", got)
	}
	if !strings.Contains(out.String(), "score mate 1") {
		t.Errorf("missing mate score:\n%s", out.String())
	}
}

func TestGoOnFinishedGame(t *testing.T) {
	u, out := newTestUCI()
	u.Handle("position startpos moves f2f3 e7e5 g2g4 d8h4")
	u.Handle("go depth 2")
	if got := bestMove(t, u, out); got != "0000" {
		t.Errorf("bestmove %s, want 0000", got)
	}
}

func TestStopReturnsLegalMove(t *testing.T) {
	u, out := newTestUCI()
	u.Handle("position startpos")
	u.Handle("go infinite")
	u.Handle("stop")

	got := bestMove(t, u, out)
	if _, err := board.ParseMove(got, board.NewGameState()); err != nil {
		t.Errorf("bestmove %s is not legal: %v", got, err)
	}
}

func TestParseGo(t *testing.T) {
	b := parseGo(strings.Fields("wtime 60000 btime 50000 winc 1000 binc 500 movestogo 20 depth 12 nodes 5000"))
	if b.Time[board.White].Milliseconds() != 60000 || b.Time[board.Black].Milliseconds() != 50000 {
		t.Errorf("clock = %v", b.Time)
	}
	if b.Inc[board.White].Milliseconds() != 1000 || b.Inc[board.Black].Milliseconds() != 500 {
		t.Errorf("inc = %v", b.Inc)
	}
	if b.MovesToGo != 20 || b.Depth != 12 || b.Nodes != 5000 {
		t.Errorf("unexpected budget %+v", b)
	}

	if b := parseGo([]string{"infinite"}); !b.Infinite {
		t.Error("infinite not parsed")
	}
	if b := parseGo([]string{"movetime", "250"}); b.MoveTime.Milliseconds() != 250 {
		t.Errorf("movetime = %v", b.MoveTime)
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{35, "cp 35"},
		{-120, "cp -120"},
		{engine.MateScore - 1, "mate 1"},
		{engine.MateScore - 5, "mate 3"},
		{-engine.MateScore + 2, "mate -1"},
		{-engine.MateScore + 4, "mate -2"},
	}
	for _, tt := range tests {
		if got := formatScore(tt.score); got != tt.want {
			t.Errorf("formatScore(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestSetOption(t *testing.T) {
	u, out := newTestUCI()
	u.Handle("setoption name Hash value 8")
	u.Handle("setoption name Difficulty value hard")
	u.Handle("setoption name Threads value 2")
	u.Handle("setoption name Colour value white")

	if u.opts.HashMB != 8 || u.opts.Difficulty != engine.Hard || u.opts.Threads != 2 {
		t.Errorf("options not applied: %+v", u.opts)
	}
	if u.engine.Options().Threads != 2 {
		t.Error("engine not rebuilt")
	}
	if !strings.Contains(out.String(), "unknown option Colour") {
		t.Errorf("unknown option not reported:\n%s", out.String())
	}
}

func TestPerftAndDisplay(t *testing.T) {
	u, out := newTestUCI()
	u.Handle("perft 2")
	if !strings.Contains(out.String(), "Nodes searched: 400") {
		t.Errorf("perft output:\n%s", out.String())
	}

	out.Reset()
	u.Handle("position startpos moves f2f3 e7e5 g2g4 d8h4")
	u.Handle("d")
	if !strings.Contains(out.String(), "Status: checkmate") {
		t.Errorf("display output:\n%s", out.String())
	}
}

func TestEval(t *testing.T) {
	u, out := newTestUCI()
	u.Handle("position fen 4k3/8/8/8/8/8/8/3QK3 b - - 0 1")
	u.Handle("eval")
	got := out.String()
	if !strings.Contains(got, "Material: -9.00 (side to move)") || !strings.Contains(got, "Evaluation: -") {
		t.Errorf("eval output:\n%s", got)
	}
}
