package mcts

import (
	"math/rand"

	"github.com/thisiscam/elderchess-mcts/pkg/game"
)

// playout runs a single descent from the active root to a leaf,
// preparing it for either immediate (terminal) or batched (non-terminal)
// back-propagation. rootState is cloned once per playout; the clone is
// the one mutated by DoMove as the descent advances.
func playout[M comparable, S game.State[M, S]](tree *Tree[M, S], rootState S, rng *rand.Rand, cPuct float64, b *batch[M, S]) error {
	cur := rootState.Clone()
	node := tree.Root()
	players := make([]game.Player, 0, 8)

	for {
		players = append(players, cur.CurrentPlayer())
		node.AddVirtualLoss()
		node.Lock()

		if node.IsLeaf() {
			if cur.IsEnvMove() {
				weights := cur.EnvMoveWeights()
				if len(weights) == 0 {
					node.Unlock()
					unwindVirtualLoss(node, players)
					return errEmptyEnvWeights()
				}
				priors := make([]Prior[M], len(weights))
				for i, w := range weights {
					priors[i] = Prior[M]{Move: w.Move, Value: w.Weight}
				}
				node.Expand(priors)
				node.Unlock()

				idx := selectEnv(node.Children, rng)
				move := node.Children[idx].Move
				cur.DoMove(move)
				node = &node.Children[idx]
				continue
			}
			// Player-turn leaf: this is the evaluation target.
			node.Unlock()
			break
		}

		node.Unlock()
		var idx int
		if cur.IsEnvMove() {
			idx = selectEnv(node.Children, rng)
		} else {
			idx = selectPUCT(node.Children, node.Visits(), cPuct, rng)
		}
		move := node.Children[idx].Move
		cur.DoMove(move)
		node = &node.Children[idx]
	}

	if cur.GameEnded() {
		b.stageTerminal(node, players, terminalValue(cur.Winner(), cur.CurrentPlayer()))
	} else {
		b.stageNonTerminal(node, players, cur)
	}
	return nil
}

// terminalValue resolves a leaf's value: +1 if the terminal winner
// equals the state's current player at the leaf, -1 for the opponent,
// 0 for a draw.
func terminalValue(w game.Winner, mover game.Player) float64 {
	switch w {
	case game.WinnerPlayer0:
		if mover == game.Player0 {
			return 1
		}
		return -1
	case game.WinnerPlayer1:
		if mover == game.Player1 {
			return 1
		}
		return -1
	default:
		return 0
	}
}
