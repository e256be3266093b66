package board

// Status is the derived state of a game.
type Status uint8

const (
	InProgress Status = iota
	Check
	Checkmate
	Stalemate
	DrawByRule
)

func (st Status) String() string {
	switch st {
	case InProgress:
		return "in progress"
	case Check:
		return "check"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case DrawByRule:
		return "draw"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the game is over.
func (st Status) IsTerminal() bool {
	return st == Checkmate || st == Stalemate || st == DrawByRule
}

// DrawReason names the rule behind a DrawByRule status.
type DrawReason uint8

const (
	NoDraw DrawReason = iota
	FiftyMoveRule
	ThreefoldRepetition
	InsufficientMaterial
)

func (r DrawReason) String() string {
	switch r {
	case FiftyMoveRule:
		return "fifty-move rule"
	case ThreefoldRepetition:
		return "threefold repetition"
	case InsufficientMaterial:
		return "insufficient material"
	default:
		return "none"
	}
}

// GameInfo is a read-only summary derived from a GameState.
type GameInfo struct {
	Status     Status
	DrawReason DrawReason
	SideToMove Color
	InCheck    bool
	LegalMoves int
	Material   [2]int // per color, kings excluded
	Phase      int    // MaxPhase in the opening down to 0
	Hash       uint64
}

// NewGameInfo derives the summary of s. history holds the hashes of the
// positions reached earlier in the game, oldest first; it may be nil.
// Checkmate and stalemate take precedence over draws by rule.
func NewGameInfo(s *GameState, history []uint64) GameInfo {
	info := GameInfo{
		SideToMove: s.side,
		InCheck:    s.InCheck(),
		LegalMoves: len(s.LegalMoves()),
		Material:   [2]int{s.Material(White), s.Material(Black)},
		Phase:      s.Phase(),
		Hash:       s.hash,
	}

	switch {
	case info.LegalMoves == 0 && info.InCheck:
		info.Status = Checkmate
	case info.LegalMoves == 0:
		info.Status = Stalemate
	case s.halfmove >= 100:
		info.Status, info.DrawReason = DrawByRule, FiftyMoveRule
	case RepetitionCount(s.hash, history) >= 2:
		info.Status, info.DrawReason = DrawByRule, ThreefoldRepetition
	case s.IsInsufficientMaterial():
		info.Status, info.DrawReason = DrawByRule, InsufficientMaterial
	case info.InCheck:
		info.Status = Check
	}
	return info
}

// RepetitionCount returns how many times hash occurs in history. With the
// current occurrence added, a count of 2 means threefold repetition.
func RepetitionCount(hash uint64, history []uint64) int {
	n := 0
	for _, h := range history {
		if h == hash {
			n++
		}
	}
	return n
}
