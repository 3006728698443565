package mcts

import (
	"math"
	"runtime"
	"sync/atomic"
)

// spinlock is the short critical-section primitive guarding a node's
// first-time expansion. A full sync.Mutex would work too, but the
// critical section here is a handful of slice writes, so a test-and-set
// spinlock avoids the syscall-capable path a mutex takes under
// contention.
type spinlock struct {
	held atomic.Bool
}

func (s *spinlock) Lock() {
	for !s.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (s *spinlock) Unlock() {
	s.held.Store(false)
}

// Prior pairs a move with the probability mass assigned to it at
// expansion time: from the evaluator for player turns, from the state's
// env_move_weights for env turns.
type Prior[M comparable] struct {
	Move  M
	Value float64
}

// Node is a single mutable statistics record in the search tree. It is
// never copied after being reached through a pointer: Parent back-edges
// and the child addresses taken at the indices selectPUCT/selectEnv
// return all point into the Children slice of some ancestor, which is
// populated exactly once and never reallocated afterward.
type Node[M comparable] struct {
	// Move is the move that was applied to the parent to reach this
	// node. Unused (zero value) on the structural root.
	Move M

	// Parent is a non-owning back-edge: navigation only, the parent
	// owns this node via its Children slice.
	Parent *Node[M]

	// Children is empty iff this node is unexpanded. Populated exactly
	// once, in full, by Expand.
	Children []Node[M]

	// Prior is the probability mass assigned to Move by the parent's
	// expansion. The structural root's prior is 1.
	Prior float64

	lock     spinlock
	expanded atomic.Bool // published (release) once Children is fully set

	visits      atomic.Int32
	virtualLoss atomic.Int32
	wBits       atomic.Uint64 // math.Float64bits(W), updated via CAS loop
}

// NewRoot constructs a fresh, unexpanded root node with prior 1.
func NewRoot[M comparable]() *Node[M] {
	return &Node[M]{Prior: 1}
}

// Lock acquires the node's short critical section. Must be paired with
// Unlock, and held across an IsLeaf check plus a conditional Expand.
func (n *Node[M]) Lock() { n.lock.Lock() }

// Unlock releases the node's short critical section.
func (n *Node[M]) Unlock() { n.lock.Unlock() }

// IsLeaf reports whether this node has no children yet. Safe to call
// either while holding Lock (the authoritative check before Expand), or
// lock-free after observing Expanded(): both paths are gated by the
// same atomic "expanded" flag underneath.
func (n *Node[M]) IsLeaf() bool {
	return !n.expanded.Load()
}

// Expanded is the lock-free fast-path check used while descending
// through already-expanded ancestors, where re-acquiring Lock at every
// level would serialize otherwise-independent threads for no reason.
func (n *Node[M]) Expanded() bool {
	return n.expanded.Load()
}

// IsRoot reports whether this is the structural root of the tree (no
// parent), not necessarily the active search root after re-rooting.
func (n *Node[M]) IsRoot() bool {
	return n.Parent == nil
}

// Expand creates one child per entry in priors. Must be called with
// Lock held and IsLeaf() already confirmed true under that same lock;
// it is a no-op (returns false) if another thread expanded this node
// first. The sum of prior values need not be 1.
func (n *Node[M]) Expand(priors []Prior[M]) bool {
	if !n.IsLeaf() {
		return false
	}
	children := make([]Node[M], len(priors))
	for i, p := range priors {
		children[i] = Node[M]{
			Move:   p.Move,
			Parent: n,
			Prior:  p.Value,
		}
	}
	n.Children = children
	n.expanded.Store(true) // release: publishes Children to lock-free readers
	return true
}

// Visits returns the node's completed-backprop visit count (n_visit).
func (n *Node[M]) Visits() int32 {
	return n.visits.Load()
}

// VirtualLoss returns the node's current in-flight virtual-loss counter.
func (n *Node[M]) VirtualLoss() int32 {
	return n.virtualLoss.Load()
}

// SumValue returns W, the cumulative signed value backed up into this
// node from its subtree.
func (n *Node[M]) SumValue() float64 {
	return math.Float64frombits(n.wBits.Load())
}

// AddVirtualLoss applies a +1 in-flight penalty, discouraging other
// threads from following the same path until this descent resolves.
func (n *Node[M]) AddVirtualLoss() {
	n.virtualLoss.Add(1)
}

// RemoveVirtualLoss undoes a previously applied virtual loss. Called
// either by back-propagation (the common case) or explicitly when an
// expansion attempt is aborted mid-flight.
func (n *Node[M]) RemoveVirtualLoss() {
	n.virtualLoss.Add(-1)
}

// Update atomically increments n_visit by 1 and adds v to W. W uses a
// compare-exchange retry loop because not every target has an atomic
// float64 add; correctness only requires atomicity, not ordering
// between concurrent Update calls.
func (n *Node[M]) Update(v float64) {
	n.visits.Add(1)
	n.addW(v)
}

func (n *Node[M]) addW(v float64) {
	for {
		old := n.wBits.Load()
		next := math.Float64bits(math.Float64frombits(old) + v)
		if n.wBits.CompareAndSwap(old, next) {
			return
		}
	}
}
