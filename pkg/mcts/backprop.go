package mcts

import "github.com/thisiscam/elderchess-mcts/pkg/game"

// signedValue expresses v (the leaf value, in the perspective of the
// player to move at the leaf) from ancestor node p's perspective: +v if
// p is the same player as the leaf's mover, -v if p is that player's
// opponent, 0 for an environment turn, which never receives a signed
// value.
func signedValue(p, lastPlayer game.Player, v float64) float64 {
	switch p {
	case lastPlayer:
		return v
	case lastPlayer.Opponent():
		return -v
	default:
		return 0
	}
}

// backprop walks from leaf back to the active root (inclusive), using
// players (recorded root-to-leaf during descent) to know each
// ancestor's player and to bound how far up the walk goes. At every
// ancestor it removes the virtual loss this playout added on the way
// down and applies update() with the player-signed value.
//
// Every node on the path, including the active root, receives exactly
// one update() per playout that reaches (or passes through) it. A
// player-turn node's very first update() comes from the evaluation that
// expanded it, before any child exists, so its visit count equals one
// plus the sum of its children's visit counts without any separate
// root-only bookkeeping. An env-turn node is expanded mid-descent by a
// playout that continues into one of its children, so its visit count
// equals the sum of its children's.
func backprop[M comparable](leafNode *Node[M], v float64, players []game.Player) error {
	if len(players) == 0 {
		return errPlayersExhausted()
	}
	lastPlayer := players[len(players)-1]
	node := leafNode
	for i := len(players) - 1; i >= 0; i-- {
		if node == nil {
			return errPlayersExhausted()
		}
		node.RemoveVirtualLoss()
		node.Update(signedValue(players[i], lastPlayer, v))
		node = node.Parent
	}
	return nil
}

// unwindVirtualLoss undoes the virtual loss this playout added along
// its path without otherwise touching n_visit or W. Used when an
// expansion attempt loses the race to another thread: that other
// thread's own flush already back-propagated a value for this leaf, so
// this path must not double-count it.
func unwindVirtualLoss[M comparable](leafNode *Node[M], players []game.Player) {
	node := leafNode
	for range players {
		if node == nil {
			return
		}
		node.RemoveVirtualLoss()
		node = node.Parent
	}
}
