package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/laurihuju/Chess-AI/internal/board"
)

// startHelpers launches the Lazy SMP helpers. Each helper searches its
// own copy of s and shares only the transposition table, so the entries
// it leaves behind speed up the main searcher. Odd helpers skip a depth
// to spread the work. The returned function stops the helpers, waits for
// them and returns the nodes they searched.
func (e *Engine) startHelpers(ctx context.Context, s *board.GameState, maxDepth int) func() uint64 {
	if len(e.helpers) == 0 {
		return func() uint64 { return 0 }
	}

	hctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(hctx)
	for i, h := range e.helpers {
		h.Reset(s.Copy(), e.history)
		h.SetLimits(gctx, e.tm.Deadline(), 0)
		skip := (i + 1) % 2
		h := h
		g.Go(func() error {
			return h.runHelper(maxDepth, skip)
		})
	}

	return func() uint64 {
		cancel()
		if err := g.Wait(); err != nil {
			e.log.Warn().Err(err).Msg("helper search failed")
		}
		var nodes uint64
		for _, h := range e.helpers {
			nodes += h.Nodes()
		}
		return nodes
	}
}

// runHelper deepens until the limits stop it or maxDepth is done. Its
// results reach the main searcher through the transposition table only.
func (s *Searcher) runHelper(maxDepth, skip int) error {
	for depth := 1 + skip; depth <= maxDepth && !s.Aborted(); depth++ {
		s.SearchDepth(depth, -Infinity, Infinity, false)
	}
	return nil
}
