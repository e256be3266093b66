// Package uci drives the engine over a subset of the Universal Chess
// Interface protocol.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/laurihuju/Chess-AI/internal/board"
	"github.com/laurihuju/Chess-AI/internal/engine"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine *engine.Engine
	opts   engine.Options
	log    zerolog.Logger

	state *board.GameState
	// Hashes of the positions before state, for repetition detection
	history []uint64

	out   io.Writer
	outMu sync.Mutex

	// Search state
	searchDone chan struct{}
	cancel     context.CancelFunc
}

// New creates a new UCI protocol handler writing responses to out.
func New(opts engine.Options, out io.Writer) *UCI {
	u := &UCI{
		opts:  opts,
		log:   opts.Logger.With().Str("component", "uci").Logger(),
		state: board.NewGameState(),
		out:   out,
	}
	u.engine = engine.NewEngine(opts)
	return u
}

// Run reads commands from in until "quit" or end of input. A running
// search is stopped before Run returns.
func (u *UCI) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if quit := u.Handle(scanner.Text()); quit {
			return nil
		}
	}
	u.handleStop()
	return scanner.Err()
}

// Handle executes one command line and reports whether it was "quit".
func (u *UCI) Handle(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "uci":
		u.handleUCI()
	case "isready":
		u.println("readyok")
	case "ucinewgame":
		u.handleNewGame()
	case "position":
		u.handlePosition(args)
	case "go":
		u.handleGo(args)
	case "stop":
		u.handleStop()
	case "quit":
		u.handleStop()
		return true
	case "setoption":
		u.handleSetOption(args)
	// Debug commands
	case "d":
		u.handleDisplay()
	case "eval":
		u.handleEval()
	case "perft":
		u.handlePerft(args)
	default:
		u.log.Debug().Str("command", cmd).Msg("unknown command")
		u.printf("info string unknown command %s\n", cmd)
	}
	return false
}

func (u *UCI) println(s string) {
	u.outMu.Lock()
	fmt.Fprintln(u.out, s)
	u.outMu.Unlock()
}

func (u *UCI) printf(format string, args ...any) {
	u.outMu.Lock()
	fmt.Fprintf(u.out, format, args...)
	u.outMu.Unlock()
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	def := engine.DefaultOptions()
	u.println("id name Chess-AI")
	u.println("id author Chess-AI authors")
	u.println("")
	u.printf("option name Hash type spin default %d min 1 max 4096\n", def.HashMB)
	u.printf("option name Threads type spin default %d min 1 max 64\n", def.Threads)
	u.printf("option name Quiescence type check default %t\n", def.Quiescence)
	u.printf("option name Difficulty type combo default %s var easy var medium var hard\n", def.Difficulty)
	u.println("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Clear()
	u.state = board.NewGameState()
	u.history = nil
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}
	u.handleStop()

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var state *board.GameState
	switch args[0] {
	case "startpos":
		state = board.NewGameState()
	case "fen":
		var err error
		state, err = board.FromFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.log.Warn().Err(err).Msg("position rejected")
			u.printf("info string invalid position: %v\n", err)
			return
		}
	default:
		return
	}

	var history []uint64
	if movesAt < len(args) {
		for _, text := range args[movesAt+1:] {
			m, err := board.ParseMove(text, state)
			if err != nil {
				u.log.Warn().Err(err).Msg("move rejected")
				u.printf("info string invalid move %s\n", text)
				return
			}
			history = append(history, state.PositionHash())
			state.Apply(m)
		}
	}

	u.state = state
	u.history = history
	if info := board.NewGameInfo(state, history); info.Status.IsTerminal() {
		u.log.Info().Stringer("status", info.Status).Stringer("reason", info.DrawReason).Msg("game over")
	}
}

// parseGo converts "go" arguments to a search budget.
func parseGo(args []string) engine.Budget {
	var b engine.Budget

	duration := func(i int) time.Duration {
		ms, _ := strconv.Atoi(args[i])
		return time.Duration(ms) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		hasValue := i+1 < len(args)
		switch args[i] {
		case "infinite":
			b.Infinite = true
			continue
		case "depth":
			if hasValue {
				b.Depth, _ = strconv.Atoi(args[i+1])
			}
		case "nodes":
			if hasValue {
				b.Nodes, _ = strconv.ParseUint(args[i+1], 10, 64)
			}
		case "movetime":
			if hasValue {
				b.MoveTime = duration(i + 1)
			}
		case "wtime":
			if hasValue {
				b.Time[board.White] = duration(i + 1)
			}
		case "btime":
			if hasValue {
				b.Time[board.Black] = duration(i + 1)
			}
		case "winc":
			if hasValue {
				b.Inc[board.White] = duration(i + 1)
			}
		case "binc":
			if hasValue {
				b.Inc[board.Black] = duration(i + 1)
			}
		case "movestogo":
			if hasValue {
				b.MovesToGo, _ = strconv.Atoi(args[i+1])
			}
		default:
			continue
		}
		i++
	}
	return b
}

// handleGo starts a search in the background; "bestmove" is printed when
// it ends.
func (u *UCI) handleGo(args []string) {
	u.handleStop()

	budget := parseGo(args)
	u.engine.SetHistory(u.history)
	u.engine.OnInfo = u.sendInfo

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	u.cancel = cancel
	u.searchDone = done

	state := u.state.Copy()
	go func() {
		defer close(done)
		res, err := u.engine.SelectMove(ctx, state, budget)
		if err != nil {
			u.log.Debug().Err(err).Msg("no move to search")
			u.println("bestmove 0000")
			return
		}
		u.println("bestmove " + res.Move.String())
	}()
}

func (u *UCI) sendInfo(info engine.SearchInfo) {
	parts := []string{fmt.Sprintf("depth %d", info.Depth), "score " + formatScore(info.Score)}
	parts = append(parts,
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("nps %d", info.NPS),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	)
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if len(info.PV) > 0 {
		parts = append(parts, "pv "+engine.PVString(info.PV))
	}
	u.println("info " + strings.Join(parts, " "))
}

// formatScore renders a score as "cp N" or "mate N" in moves.
func formatScore(score int) string {
	switch {
	case score > engine.MateScore-engine.MaxPly:
		return fmt.Sprintf("mate %d", (engine.MateScore-score+1)/2)
	case score < -engine.MateScore+engine.MaxPly:
		return fmt.Sprintf("mate %d", -(engine.MateScore+score)/2)
	}
	return fmt.Sprintf("cp %d", score)
}

// handleStop stops a running search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.searchDone == nil {
		return
	}
	u.engine.Stop()
	u.cancel()
	<-u.searchDone
	u.searchDone = nil
	u.cancel = nil
}

func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	target := &name
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			*target = append(*target, arg)
		}
	}
	key := strings.ToLower(strings.Join(name, " "))
	val := strings.Join(value, " ")

	u.handleStop()
	opts := u.opts
	switch key {
	case "hash":
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			u.printf("info string invalid Hash %q\n", val)
			return
		}
		opts.HashMB = n
	case "threads":
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			u.printf("info string invalid Threads %q\n", val)
			return
		}
		opts.Threads = n
	case "quiescence":
		opts.Quiescence = strings.EqualFold(val, "true")
	case "difficulty":
		d, err := engine.ParseDifficulty(val)
		if err != nil {
			u.printf("info string %v\n", err)
			return
		}
		opts.Difficulty = d
		u.opts = opts
		u.engine.SetDifficulty(d)
		return
	default:
		u.printf("info string unknown option %s\n", strings.Join(name, " "))
		return
	}

	u.opts = opts
	u.engine = engine.NewEngine(opts)
	u.log.Debug().Str("option", key).Str("value", val).Msg("engine rebuilt")
}

func (u *UCI) handleDisplay() {
	info := board.NewGameInfo(u.state, u.history)
	u.println(u.state.String())
	u.printf("Fen: %s\n", u.state.FEN())
	u.printf("Key: %016X\n", info.Hash)
	u.printf("Status: %s", info.Status)
	if info.DrawReason != board.NoDraw {
		u.printf(" (%s)", info.DrawReason)
	}
	u.printf("\nLegal moves: %d\n", info.LegalMoves)
}

func (u *UCI) handleEval() {
	u.handleStop()
	score := u.engine.Evaluate(u.state)
	material := u.engine.EvaluateMaterial(u.state)
	u.printf("Material: %s (side to move)\n", engine.ScoreToString(material))
	u.printf("Evaluation: %s (side to move)\n", engine.ScoreToString(score))
}

func (u *UCI) handlePerft(args []string) {
	depth := 1
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}
	u.handleStop()

	start := time.Now()
	var total uint64
	for _, e := range engine.Divide(u.state.Copy(), depth) {
		u.printf("%s: %d\n", e.Move, e.Nodes)
		total += e.Nodes
	}
	elapsed := time.Since(start)

	nps := uint64(0)
	if elapsed > 0 {
		nps = uint64(float64(total) / elapsed.Seconds())
	}
	u.printf("\nNodes searched: %d\n", total)
	u.printf("info string perft %d: %s nodes in %s (%s nps)\n",
		depth, humanize.Comma(int64(total)), elapsed.Round(time.Millisecond), humanize.SIWithDigits(float64(nps), 1, ""))
}
