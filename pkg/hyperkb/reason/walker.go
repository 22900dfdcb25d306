// Package reason implements bounded multi-hop exploration of the fact
// graph: breadth-first expansion from a seed edge through edges that share
// an atomic symbol, up to a hop limit.
package reason

import (
	"context"

	"go.uber.org/zap"

	"github.com/cognicore/hyperkb/pkg/hyperkb/edge"
	"github.com/cognicore/hyperkb/pkg/hyperkb/sanitize"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store"
)

// Default traversal bounds.
const (
	DefaultHops           = 2
	DefaultResultLimit    = 100
	DefaultPerSymbolLimit = 20
)

// Result is one emitted edge of a walk. Path records the canonical texts
// from the seed to this edge; it is not guaranteed to be a shortest path.
type Result struct {
	Edge  edge.Edge
	Text  string
	Depth int
	Path  []string
	Attrs store.Attributes
}

// Options configures a Walker.
type Options struct {
	Store  store.Store
	Logger *zap.Logger
	// PerSymbolLimit caps how many neighbors one symbol expansion may
	// enqueue.
	PerSymbolLimit int
}

// Walker performs bounded BFS over shared atoms. It holds no mutable state
// between walks.
type Walker struct {
	store          store.Store
	logger         *zap.Logger
	perSymbolLimit int
}

// New creates a Walker.
func New(opts Options) *Walker {
	w := &Walker{
		store:          opts.Store,
		logger:         opts.Logger,
		perSymbolLimit: opts.PerSymbolLimit,
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	if w.perSymbolLimit <= 0 {
		w.perSymbolLimit = DefaultPerSymbolLimit
	}
	return w
}

// WalkPattern sanitizes and parses a textual seed, then walks from it.
func (w *Walker) WalkPattern(ctx context.Context, pattern string, hops, limit int) ([]Result, error) {
	if err := sanitize.Pattern(pattern); err != nil {
		return nil, err
	}
	seed, err := edge.Parse(pattern)
	if err != nil {
		return nil, err
	}
	return w.Walk(ctx, seed, hops, limit)
}

type queueItem struct {
	edge  edge.Edge
	depth int
	path  []string
}

// Walk expands from the seed up to hops levels, emitting at most limit
// results. Each distinct canonical edge text is emitted at most once: the
// visited check runs at dequeue time, so duplicate enqueues are cheap
// filters rather than correctness bugs. A failed per-symbol neighbor search
// skips that symbol and continues; it never aborts the walk.
func (w *Walker) Walk(ctx context.Context, seed edge.Edge, hops, limit int) ([]Result, error) {
	if hops < 0 {
		hops = DefaultHops
	}
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	visited := make(map[string]struct{})
	queue := []queueItem{{edge: seed, depth: 0, path: []string{seed.String()}}}
	var results []Result

	for len(queue) > 0 && len(results) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := queue[0]
		queue = queue[1:]

		text := item.edge.String()
		if _, seen := visited[text]; seen {
			continue
		}
		visited[text] = struct{}{}

		attrs, _, err := w.store.Attributes(ctx, item.edge)
		if err != nil {
			// Attributes are decoration on the result record; a read
			// fault degrades to a nil map.
			w.logger.Debug("attribute read failed during walk",
				zap.String("edge", text), zap.Error(err))
			attrs = nil
		}

		results = append(results, Result{
			Edge:  item.edge,
			Text:  text,
			Depth: item.depth,
			Path:  item.path,
			Attrs: attrs,
		})

		if item.depth >= hops {
			continue
		}

		for _, symbol := range item.edge.Atoms() {
			if err := sanitize.Pattern(symbol); err != nil {
				w.logger.Debug("skipping unsafe expansion symbol",
					zap.String("symbol", symbol), zap.Error(err))
				continue
			}
			neighbors, err := w.store.Search(ctx, edge.Atom(symbol), w.perSymbolLimit)
			if err != nil {
				w.logger.Debug("neighbor search failed, skipping symbol",
					zap.String("symbol", symbol), zap.Error(err))
				continue
			}
			for _, n := range neighbors {
				nText := n.String()
				if _, seen := visited[nText]; seen {
					continue
				}
				path := make([]string, len(item.path), len(item.path)+1)
				copy(path, item.path)
				queue = append(queue, queueItem{
					edge:  n,
					depth: item.depth + 1,
					path:  append(path, nText),
				})
			}
		}
	}

	return results, nil
}
