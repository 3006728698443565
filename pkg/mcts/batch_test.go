package mcts

import (
	"testing"

	"github.com/thisiscam/elderchess-mcts/pkg/game"
)

func TestBatchFlushExpandsAndBackpropagatesNonTerminal(t *testing.T) {
	tree := NewTree[fixtureMove, *fixtureState]()
	root := tree.Root()
	root.AddVirtualLoss()

	b := newBatch[fixtureMove, *fixtureState](4)
	b.stageNonTerminal(root, []game.Player{game.Player0}, newFixtureState())

	eval := func(states []*fixtureState, scratch []float64) []EvalResult[fixtureMove] {
		return []EvalResult[fixtureMove]{{
			Priors: []Prior[fixtureMove]{{Move: 0, Value: 0.5}, {Move: 1, Value: 0.5}},
			Value:  0.3,
		}}
	}
	if err := b.flush(eval, nil); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if root.IsLeaf() {
		t.Fatal("flush should have expanded the staged leaf")
	}
	if root.Visits() != 1 {
		t.Fatalf("root visits = %d, want 1", root.Visits())
	}
	if root.VirtualLoss() != 0 {
		t.Fatalf("root virtual loss = %d, want 0 after flush", root.VirtualLoss())
	}
}

func TestBatchFlushDropsAlreadyExpandedEntry(t *testing.T) {
	tree := NewTree[fixtureMove, *fixtureState]()
	root := tree.Root()
	root.Lock()
	root.Expand([]Prior[fixtureMove]{{Move: 0, Value: 1}})
	root.Unlock()
	root.AddVirtualLoss()

	b := newBatch[fixtureMove, *fixtureState](4)
	b.stageNonTerminal(root, []game.Player{game.Player0}, newFixtureState())

	eval := func(states []*fixtureState, scratch []float64) []EvalResult[fixtureMove] {
		return []EvalResult[fixtureMove]{{Priors: nil, Value: 1}}
	}
	if err := b.flush(eval, nil); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if root.Visits() != 0 {
		t.Fatalf("an already-expanded node must not be re-counted: visits = %d, want 0", root.Visits())
	}
	if root.VirtualLoss() != 0 {
		t.Fatalf("virtual loss must still be unwound on a dropped entry: got %d, want 0", root.VirtualLoss())
	}
}

func TestBatchFlushTerminalBypassesEvaluator(t *testing.T) {
	tree := NewTree[fixtureMove, *fixtureState]()
	root := tree.Root()
	root.AddVirtualLoss()

	b := newBatch[fixtureMove, *fixtureState](4)
	b.stageTerminal(root, []game.Player{game.Player0}, -1)

	called := false
	eval := func(states []*fixtureState, scratch []float64) []EvalResult[fixtureMove] {
		called = true
		return nil
	}
	if err := b.flush(eval, nil); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if called {
		t.Fatal("a purely terminal batch must not invoke the evaluator")
	}
	if root.SumValue() != -1 {
		t.Fatalf("root W = %v, want -1", root.SumValue())
	}
}
