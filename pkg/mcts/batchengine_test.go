package mcts

import (
	"testing"

	"github.com/thisiscam/elderchess-mcts/pkg/worker"
)

func TestBatchEngineRunsIndependentGames(t *testing.T) {
	cfg := DefaultConfig().SetNPlayout(20).SetThreadPoolSize(2).SetEvalBatchSize(4)
	be := NewBatchEngine[fixtureMove, twoMoveState](cfg, worker.New(cfg.ThreadPoolSize), skewedEvaluator[twoMoveState]([]float64{0.9, 0.1}), 3)

	states := make([]twoMoveState, be.NumGames())
	moves, counts, err := be.GetMoveCounts(states, false)
	if err != nil {
		t.Fatalf("GetMoveCounts: %v", err)
	}
	if len(moves) != 3 || len(counts) != 3 {
		t.Fatalf("expected 3 games' worth of results, got %d moves, %d counts", len(moves), len(counts))
	}
	for i, c := range counts {
		sum := int32(0)
		for _, v := range c {
			sum += v
		}
		if int(sum) != cfg.NPlayout {
			t.Errorf("game %d: visits sum to %d, want %d", i, sum, cfg.NPlayout)
		}
	}
}

func TestBatchEngineSmallTempOneHot(t *testing.T) {
	cfg := DefaultConfig().SetNPlayout(50).SetThreadPoolSize(1).SetEvalBatchSize(2)
	be := NewBatchEngine[fixtureMove, twoMoveState](cfg, worker.New(cfg.ThreadPoolSize), skewedEvaluator[twoMoveState]([]float64{0.95, 0.05}), 1)

	_, counts, err := be.GetMoveCounts([]twoMoveState{{}}, true)
	if err != nil {
		t.Fatalf("GetMoveCounts: %v", err)
	}
	total := int32(0)
	for _, c := range counts[0] {
		total += c
	}
	if total != 1 {
		t.Fatalf("small_temp result should be one-hot (sum 1), got sum %d over %v", total, counts[0])
	}
}
