package mcts

import "github.com/thisiscam/elderchess-mcts/pkg/game"

// pathEntry records one playout's path metadata: the leaf node it
// landed on and the per-ply player-to-move history used by signed
// back-propagation.
type pathEntry[M comparable] struct {
	node    *Node[M]
	players []game.Player
}

// leaf is one slot in a batch's shared buffer. Non-terminal slots carry
// a cloned state for the evaluator; terminal slots carry an
// already-known value and skip evaluation entirely.
type leaf[M comparable, S any] struct {
	pathEntry[M]
	state    S
	terminal bool
	value    float64
}

// batch is a single worker's staging buffer. Non-terminal leaves fill it
// front-to-back (index 0 upward); terminal leaves fill it back-to-front
// (index cap-1 downward) in the very same backing array: the two
// regions can only collide once the buffer is full, so one allocation
// serves both purposes.
type batch[M comparable, S any] struct {
	entries []leaf[M, S]
	front   int // next free non-terminal slot
	back    int // next free terminal slot
}

func newBatch[M comparable, S any](cap int) *batch[M, S] {
	return &batch[M, S]{
		entries: make([]leaf[M, S], cap),
		front:   0,
		back:    cap - 1,
	}
}

// cap reports the buffer's fixed capacity.
func (b *batch[M, S]) cap() int {
	return len(b.entries)
}

// full reports whether the combined occupancy equals capacity.
func (b *batch[M, S]) full() bool {
	return b.front > b.back
}

// empty reports whether no entries are staged.
func (b *batch[M, S]) empty() bool {
	return b.front == 0 && b.back == len(b.entries)-1
}

// stageNonTerminal records a non-terminal leaf awaiting evaluation.
// Precondition: !full()
func (b *batch[M, S]) stageNonTerminal(node *Node[M], players []game.Player, state S) {
	b.entries[b.front] = leaf[M, S]{
		pathEntry: pathEntry[M]{node: node, players: players},
		state:     state,
	}
	b.front++
}

// stageTerminal records a terminal leaf whose value is already known.
// Precondition: !full().
func (b *batch[M, S]) stageTerminal(node *Node[M], players []game.Player, value float64) {
	b.entries[b.back] = leaf[M, S]{
		pathEntry: pathEntry[M]{node: node, players: players},
		terminal:  true,
		value:     value,
	}
	b.back--
}

// reset clears the buffer for the next batch.
func (b *batch[M, S]) reset() {
	b.front = 0
	b.back = len(b.entries) - 1
}

// nonTerminalStates returns the staged non-terminal slice in front-to-
// back order, for handing to the evaluator.
func (b *batch[M, S]) nonTerminalStates() []S {
	states := make([]S, b.front)
	for i := 0; i < b.front; i++ {
		states[i] = b.entries[i].state
	}
	return states
}

// flush drains the buffer: non-terminal entries are evaluated, expanded
// (if still a leaf) and back-propagated; terminal entries are
// back-propagated directly using their already-known value. Called
// either when the buffer fills or when a worker's playout budget is
// exhausted with a non-empty partial batch.
func (b *batch[M, S]) flush(eval Evaluator[M, S], scratch []float64) error {
	defer b.reset()

	if b.front > 0 {
		states := b.nonTerminalStates()
		results := eval(states, scratch)
		for i := 0; i < b.front; i++ {
			entry := &b.entries[i]
			node := entry.node
			node.Lock()
			wasLeaf := node.IsLeaf()
			if wasLeaf {
				node.Expand(results[i].Priors)
			}
			node.Unlock()

			if !wasLeaf {
				// Another descent beat us to expanding this node; its
				// own flush already back-propagated a value for this
				// path. Only undo the virtual losses this descent added.
				unwindVirtualLoss(entry.node, entry.players)
				continue
			}
			if err := backprop(entry.node, results[i].Value, entry.players); err != nil {
				return err
			}
		}
	}

	for i := len(b.entries) - 1; i > b.back; i-- {
		entry := &b.entries[i]
		if err := backprop(entry.node, entry.value, entry.players); err != nil {
			return err
		}
	}
	return nil
}
