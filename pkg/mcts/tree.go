package mcts

import (
	"github.com/thisiscam/elderchess-mcts/pkg/game"
)

// Tree owns the structural root node of a search and a non-owning
// currentRoot pointer designating the active search root after
// re-rooting. Ancestors above currentRoot stay allocated (the tree
// still owns them) but are never visited by a playout.
type Tree[M comparable, S game.State[M, S]] struct {
	root        *Node[M]
	currentRoot *Node[M]
}

// NewTree allocates a fresh tree: a root node of prior 1, no children,
// currentRoot pointing at that same root.
func NewTree[M comparable, S game.State[M, S]]() *Tree[M, S] {
	root := NewRoot[M]()
	return &Tree[M, S]{root: root, currentRoot: root}
}

// Root returns the active search root.
func (t *Tree[M, S]) Root() *Node[M] {
	return t.currentRoot
}

// Reset drops the entire tree and allocates a fresh root.
func (t *Tree[M, S]) Reset() {
	root := NewRoot[M]()
	t.root = root
	t.currentRoot = root
}

// UpdateWithMove locates the child of the active root whose move equals
// move and reassigns the active root to it. If the active root is a
// leaf the call is a no-op: there is no subtree to descend into, and
// the caller simply loses prior work on the next search. If move is not
// among the children this is a contract violation.
//
// If the new active root represents an environment turn and is still a
// leaf, it is pre-expanded with stateNext's env_move_weights so the next
// search's first descent finds a materialized environment mixture
// instead of an empty leaf.
func (t *Tree[M, S]) UpdateWithMove(stateNext S, move M) error {
	root := t.currentRoot
	if root.IsLeaf() {
		return nil
	}
	for i := range root.Children {
		if root.Children[i].Move == move {
			t.currentRoot = &root.Children[i]
			t.maybeExpandEnvRoot(stateNext)
			return nil
		}
	}
	return errMoveNotFound()
}

// UpdateWithMoveIndex is UpdateWithMove by child index, avoiding the
// linear search over moves when the caller already knows which child it
// picked.
func (t *Tree[M, S]) UpdateWithMoveIndex(stateCur S, i int) error {
	root := t.currentRoot
	if root.IsLeaf() {
		return nil
	}
	if i < 0 || i >= len(root.Children) {
		return errChildIndexOutOfRange(i, len(root.Children))
	}
	t.currentRoot = &root.Children[i]
	t.maybeExpandEnvRoot(stateCur)
	return nil
}

func (t *Tree[M, S]) maybeExpandEnvRoot(state S) {
	root := t.currentRoot
	if !state.IsEnvMove() || !root.IsLeaf() {
		return
	}
	root.Lock()
	defer root.Unlock()
	if !root.IsLeaf() {
		return
	}
	weights := state.EnvMoveWeights()
	priors := make([]Prior[M], len(weights))
	for i, w := range weights {
		priors[i] = Prior[M]{Move: w.Move, Value: w.Weight}
	}
	root.Expand(priors)
}
