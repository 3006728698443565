package mcts

import (
	"context"
	"math/rand"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/thisiscam/elderchess-mcts/pkg/game"
	"github.com/thisiscam/elderchess-mcts/pkg/worker"
)

// Engine owns a single search tree and drives GetMoveCounts /
// GetMoveProbs over a shared worker pool. It is the single-tree
// counterpart of BatchEngine.
type Engine[M comparable, S game.State[M, S]] struct {
	tree     *Tree[M, S]
	pool     *worker.Pool
	eval     Evaluator[M, S]
	cfg      *Config
	rng      *rand.Rand
	listener *Listener[M]
}

// NewEngine constructs an engine with a fresh tree, backed by pool and
// eval, configured per cfg.
func NewEngine[M comparable, S game.State[M, S]](cfg *Config, pool *worker.Pool, eval Evaluator[M, S]) *Engine[M, S] {
	return &Engine[M, S]{
		tree: NewTree[M, S](),
		pool: pool,
		eval: eval,
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(1)),
	}
}

// SetSeed reseeds the engine's RNG. Two engines built with the same
// seed and run with a single-threaded pool explore the same set of
// nodes up to tie-break randomness.
func (e *Engine[M, S]) SetSeed(seed int64) *Engine[M, S] {
	e.rng = rand.New(rand.NewSource(seed))
	return e
}

// SetListener attaches diagnostic hooks for a host process to observe
// search progress without this package exposing its own I/O surface.
func (e *Engine[M, S]) SetListener(l *Listener[M]) *Engine[M, S] {
	e.listener = l
	return e
}

// Reset drops the tree and allocates a fresh root.
func (e *Engine[M, S]) Reset() {
	e.tree.Reset()
}

// UpdateWithMove re-roots the tree after an externally chosen move.
func (e *Engine[M, S]) UpdateWithMove(stateNext S, move M) error {
	return e.tree.UpdateWithMove(stateNext, move)
}

// UpdateWithMoveIndex re-roots the tree by child index.
func (e *Engine[M, S]) UpdateWithMoveIndex(stateCur S, i int) error {
	return e.tree.UpdateWithMoveIndex(stateCur, i)
}

// GetMoveCounts runs the configured playout budget from state and
// returns the active root's children as (moves, raw visit counts).
// Returns (nil, nil, nil) if the active root has no children: either
// state is terminal at entry, or the root is still unexpanded because
// the playout budget is zero.
func (e *Engine[M, S]) GetMoveCounts(state S) ([]M, []int32, error) {
	if err := e.run(context.Background(), state); err != nil {
		return nil, nil, err
	}
	moves, counts := e.extractCounts()
	if e.listener != nil && e.listener.onStop != nil {
		e.listener.onStop(CycleStats[M]{RootVisits: e.tree.Root().Visits(), Moves: moves, Counts: counts})
	}
	return moves, counts, nil
}

// GetMoveProbs is GetMoveCounts normalized to a probability
// distribution over the root's children.
func (e *Engine[M, S]) GetMoveProbs(state S) ([]M, []float64, error) {
	moves, counts, err := e.GetMoveCounts(state)
	if err != nil {
		return nil, nil, err
	}
	if len(moves) == 0 {
		return nil, nil, nil
	}
	total := 0
	for _, c := range counts {
		total += int(c)
	}
	probs := make([]float64, len(counts))
	if total == 0 {
		uniform := 1.0 / float64(len(counts))
		for i := range probs {
			probs[i] = uniform
		}
		return moves, probs, nil
	}
	for i, c := range counts {
		probs[i] = float64(c) / float64(total)
	}
	return moves, probs, nil
}

// extractCounts reads (moves, counts) off the active root's children.
func (e *Engine[M, S]) extractCounts() ([]M, []int32) {
	children := e.tree.Root().Children
	if len(children) == 0 {
		return nil, nil
	}
	moves := make([]M, len(children))
	counts := make([]int32, len(children))
	for i := range children {
		moves[i] = children[i].Move
		counts[i] = children[i].Visits()
	}
	return moves, counts
}

// run partitions NPlayout across ThreadPoolSize workers, submits one
// task per worker to the pool, and waits for all of them.
func (e *Engine[M, S]) run(ctx context.Context, state S) error {
	if state.GameEnded() {
		return nil // terminal at entry: nothing to search.
	}

	threads := e.cfg.ThreadPoolSize
	total := e.cfg.NPlayout
	base := total / threads
	rem := total % threads

	// An unexplored player-turn root is evaluated and expanded up front,
	// so every playout of the budget descends into one of its children.
	root := e.tree.Root()
	if total > 0 && root.IsLeaf() && !state.IsEnvMove() {
		results := e.eval([]S{state.Clone()}, newScratch(e.cfg.CompactStateSize, e.cfg.EvalBatchSize))
		root.Lock()
		expanded := root.Expand(results[0].Priors)
		root.Unlock()
		if expanded {
			root.Update(results[0].Value)
		}
	}

	var mu sync.Mutex
	var merr *multierror.Error

	for w := 0; w < threads; w++ {
		budget := base
		if w < rem {
			budget++
		}
		if budget == 0 {
			continue
		}
		seed := e.rng.Int63()
		e.pool.Submit(ctx, func(ctx context.Context) error {
			if err := e.runWorker(state, budget, seed); err != nil {
				mu.Lock()
				merr = multierror.Append(merr, err)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := e.pool.WaitAll(); err != nil {
		return err
	}
	return merr.ErrorOrNil()
}

// runWorker executes budget playouts against the shared tree, flushing
// its batch buffer whenever it fills and once more at the end if a
// partial batch remains.
func (e *Engine[M, S]) runWorker(state S, budget int, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	scratch := newScratch(e.cfg.CompactStateSize, e.cfg.EvalBatchSize)
	b := newBatch[M, S](e.cfg.EvalBatchSize)

	for i := 0; i < budget; i++ {
		if err := playout(e.tree, state, rng, e.cfg.CPuct, b); err != nil {
			return err
		}
		if b.full() {
			if err := b.flush(e.eval, scratch); err != nil {
				return err
			}
		}
	}
	if !b.empty() {
		if err := b.flush(e.eval, scratch); err != nil {
			return err
		}
	}
	return nil
}
