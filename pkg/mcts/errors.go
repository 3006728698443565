package mcts

import "github.com/pkg/errors"

// Contract-violation errors: move-not-found on re-rooting, an empty env
// distribution on an env turn, a back-propagation path that outruns its
// player-history vector. All are fatal and meant to terminate the
// search the caller built around this tree.

// errMoveNotFound is returned by UpdateWithMove when move does not match
// any of current_root's children.
func errMoveNotFound() error {
	return errors.New("mcts: move not found among active root's children")
}

// errEmptyEnvWeights is returned when a state reports IsEnvMove() true
// but EnvMoveWeights() is empty, violating the game-state contract.
func errEmptyEnvWeights() error {
	return errors.New("mcts: env_move_weights empty on an env turn")
}

// errPlayersExhausted is a defensive contract check: back-propagation
// was given an empty players vector, or reached a nil parent (past the
// tree's structural root) while players entries remained, which can
// only happen if the tree or the path bookkeeping is corrupt.
func errPlayersExhausted() error {
	return errors.New("mcts: back-propagation path outran its players vector")
}

// errChildIndexOutOfRange is returned by UpdateWithMoveIndex.
func errChildIndexOutOfRange(i, n int) error {
	return errors.Errorf("mcts: child index %d out of range [0, %d)", i, n)
}
