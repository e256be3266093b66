package engine

import (
	"context"
	"time"
)

// Analysis is a finished search result recorded for a position.
type Analysis struct {
	Hash      uint64    `json:"hash"`
	FEN       string    `json:"fen"`
	Move      string    `json:"move"` // long algebraic, e.g. "e2e4"
	Score     int       `json:"score"`
	Depth     int       `json:"depth"`
	Nodes     uint64    `json:"nodes"`
	SearchID  string    `json:"search_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AnalysisStore persists analyses between engine runs. LoadAnalysis
// reports found=false, not an error, for an unknown position.
type AnalysisStore interface {
	LoadAnalysis(ctx context.Context, hash uint64) (a Analysis, found bool, err error)
	SaveAnalysis(ctx context.Context, a Analysis) error
}
