package mcts

import (
	"context"
	"math/rand"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/thisiscam/elderchess-mcts/pkg/game"
	"github.com/thisiscam/elderchess-mcts/pkg/worker"
)

// BatchEngine runs many independent games in parallel, one tree per
// game, sharing the same batching discipline across all of them. Each
// worker owns a disjoint slice of games rather than a slice of one
// game's playout budget.
type BatchEngine[M comparable, S game.State[M, S]] struct {
	trees []*Tree[M, S]
	pool  *worker.Pool
	eval  Evaluator[M, S]
	cfg   *Config
	rng   *rand.Rand
}

// NewBatchEngine allocates nGames independent fresh trees.
func NewBatchEngine[M comparable, S game.State[M, S]](cfg *Config, pool *worker.Pool, eval Evaluator[M, S], nGames int) *BatchEngine[M, S] {
	trees := make([]*Tree[M, S], nGames)
	for i := range trees {
		trees[i] = NewTree[M, S]()
	}
	return &BatchEngine[M, S]{trees: trees, pool: pool, eval: eval, cfg: cfg, rng: rand.New(rand.NewSource(1))}
}

// SetSeed reseeds the engine's RNG.
func (be *BatchEngine[M, S]) SetSeed(seed int64) *BatchEngine[M, S] {
	be.rng = rand.New(rand.NewSource(seed))
	return be
}

// Tree returns game i's tree, e.g. for UpdateWithMove after a move
// commits in that game.
func (be *BatchEngine[M, S]) Tree(i int) *Tree[M, S] {
	return be.trees[i]
}

// NumGames reports how many independent games this engine tracks.
func (be *BatchEngine[M, S]) NumGames() int {
	return len(be.trees)
}

// GetMoveCounts runs the configured playout budget as NPlayout sweeps
// over every game, each worker owning a disjoint slice of games, then
// extracts each game's (moves, counts) the same way the single-tree
// engine does. When smallTemp is true each game's result is collapsed
// to a one-hot distribution at its argmax (ties broken by first
// occurrence in iteration order).
func (be *BatchEngine[M, S]) GetMoveCounts(states []S, smallTemp bool) ([][]M, [][]int32, error) {
	if len(states) != len(be.trees) {
		panic("mcts: len(states) must equal NumGames()")
	}
	if err := be.run(context.Background(), states); err != nil {
		return nil, nil, err
	}

	moves := make([][]M, len(be.trees))
	results := make([][]int32, len(be.trees))
	for i, tree := range be.trees {
		children := tree.Root().Children
		if len(children) == 0 {
			continue
		}
		m := make([]M, len(children))
		counts := make([]int32, len(children))
		for j := range children {
			m[j] = children[j].Move
			counts[j] = children[j].Visits()
		}
		moves[i] = m
		if smallTemp {
			results[i] = oneHot(counts)
		} else {
			results[i] = counts
		}
	}
	return moves, results, nil
}

// oneHot returns a distribution with 1 at the first index achieving the
// maximum count and 0 elsewhere.
func oneHot(counts []int32) []int32 {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	out := make([]int32, len(counts))
	out[best] = 1
	return out
}

// run schedules workers across disjoint game slices, each running
// NPlayout sweeps producing at most one staged leaf per game per sweep
// before flushing.
func (be *BatchEngine[M, S]) run(ctx context.Context, states []S) error {
	threads := be.cfg.ThreadPoolSize
	n := len(be.trees)
	base := n / threads
	rem := n % threads

	var mu sync.Mutex
	var merr *multierror.Error

	start := 0
	for w := 0; w < threads; w++ {
		size := base
		if w < rem {
			size++
		}
		if size == 0 {
			continue
		}
		indices := make([]int, size)
		for k := range indices {
			indices[k] = start + k
		}
		start += size

		seed := be.rng.Int63()
		be.pool.Submit(ctx, func(ctx context.Context) error {
			if err := be.runWorker(indices, states, seed); err != nil {
				mu.Lock()
				merr = multierror.Append(merr, err)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := be.pool.WaitAll(); err != nil {
		return err
	}
	return merr.ErrorOrNil()
}

// runWorker sweeps its slice of games NPlayout times, each sweep
// contributing at most one staged leaf per game to the shared batch
// buffer before it is flushed.
func (be *BatchEngine[M, S]) runWorker(indices []int, states []S, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	scratch := newScratch(be.cfg.CompactStateSize, be.cfg.EvalBatchSize)
	b := newBatch[M, S](be.cfg.EvalBatchSize)

	for sweep := 0; sweep < be.cfg.NPlayout; sweep++ {
		for _, gi := range indices {
			if states[gi].GameEnded() {
				continue
			}
			if err := playout(be.trees[gi], states[gi], rng, be.cfg.CPuct, b); err != nil {
				return err
			}
			if b.full() {
				if err := b.flush(be.eval, scratch); err != nil {
					return err
				}
			}
		}
	}
	if !b.empty() {
		if err := b.flush(be.eval, scratch); err != nil {
			return err
		}
	}
	return nil
}
