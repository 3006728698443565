package mcts

import "github.com/thisiscam/elderchess-mcts/pkg/game"

// fixtureMove is the opaque move type for the in-package fixture game:
// branches 0-3 during the ENV turn, then 0/1 during the single player
// decision that immediately ends the game. Stands in for the out-of-scope
// dark-chess move type the same way the teacher's mcts_test.go drives its
// search against a DummyOps fixture instead of a real game.
type fixtureMove int

// fixtureState is a four-branch coin-flip followed by a single
// player-0 decision: current_player starts as EnvPlayer (the coin has
// not been flipped), env_move_weights offers four unevenly weighted
// branches, and whichever branch is drawn determines which of
// player-0's two possible replies wins outright. This is the smallest
// state machine that exercises a genuine ENV turn, terminal resolution,
// and a real PUCT decision in one tree.
type fixtureState struct {
	branch int // -1 until the env move resolves it
	done   bool
	winner game.Winner
}

func newFixtureState() *fixtureState {
	return &fixtureState{branch: -1}
}

func (s *fixtureState) CurrentPlayer() game.Player {
	if s.branch < 0 {
		return game.EnvPlayer
	}
	return game.Player0
}

func (s *fixtureState) IsEnvMove() bool { return s.branch < 0 }

func (s *fixtureState) GameEnded() bool { return s.done }

func (s *fixtureState) Winner() game.Winner { return s.winner }

func (s *fixtureState) LegalMoves() []fixtureMove {
	if s.branch < 0 {
		return nil
	}
	return []fixtureMove{0, 1}
}

func (s *fixtureState) EnvMoveWeights() []game.EnvOutcome[fixtureMove] {
	return []game.EnvOutcome[fixtureMove]{
		{Move: 0, Weight: 4},
		{Move: 1, Weight: 3},
		{Move: 2, Weight: 2},
		{Move: 3, Weight: 1},
	}
}

func (s *fixtureState) DoMove(m fixtureMove) {
	if s.branch < 0 {
		s.branch = int(m)
		return
	}
	s.done = true
	if int(m) == s.branch%2 {
		s.winner = game.WinnerPlayer0
	} else {
		s.winner = game.WinnerPlayer1
	}
}

func (s *fixtureState) Clone() *fixtureState {
	cp := *s
	return &cp
}

// uniformEvaluator returns a uniform prior over each state's legal
// moves and a value of 0, a stub evaluator for tests that don't care
// about the priors' shape.
func uniformEvaluator(states []*fixtureState, scratch []float64) []EvalResult[fixtureMove] {
	out := make([]EvalResult[fixtureMove], len(states))
	for i, st := range states {
		moves := st.LegalMoves()
		priors := make([]Prior[fixtureMove], len(moves))
		p := 1.0 / float64(len(moves))
		for j, m := range moves {
			priors[j] = Prior[fixtureMove]{Move: m, Value: p}
		}
		out[i] = EvalResult[fixtureMove]{Priors: priors, Value: 0}
	}
	return out
}

// skewedEvaluator assigns priors to each state's legal moves per
// weights (matched by position), ignoring state contents otherwise.
// Used by the prior-dominance and re-rooting tests, where children are
// non-terminal with stub value 0.
func skewedEvaluator[S game.State[fixtureMove, S]](weights []float64) Evaluator[fixtureMove, S] {
	return func(states []S, scratch []float64) []EvalResult[fixtureMove] {
		out := make([]EvalResult[fixtureMove], len(states))
		for i, st := range states {
			moves := st.LegalMoves()
			priors := make([]Prior[fixtureMove], len(moves))
			for j, m := range moves {
				priors[j] = Prior[fixtureMove]{Move: m, Value: weights[j]}
			}
			out[i] = EvalResult[fixtureMove]{Priors: priors, Value: 0}
		}
		return out
	}
}

// terminalAtEntryState reports game_ended()=true from construction,
// winner 0, current_player 0.
type terminalAtEntryState struct{}

func (terminalAtEntryState) CurrentPlayer() game.Player     { return game.Player0 }
func (terminalAtEntryState) IsEnvMove() bool                { return false }
func (terminalAtEntryState) GameEnded() bool                { return true }
func (terminalAtEntryState) Winner() game.Winner            { return game.WinnerPlayer0 }
func (terminalAtEntryState) LegalMoves() []fixtureMove      { return nil }
func (s terminalAtEntryState) Clone() terminalAtEntryState  { return s }
func (terminalAtEntryState) EnvMoveWeights() []game.EnvOutcome[fixtureMove] {
	return nil
}
func (terminalAtEntryState) DoMove(fixtureMove) {}

// singleLegalLossState has exactly one legal move, which ends the game
// in a loss for the mover.
type singleLegalLossState struct {
	done bool
}

func (s *singleLegalLossState) CurrentPlayer() game.Player { return game.Player0 }
func (s *singleLegalLossState) IsEnvMove() bool            { return false }
func (s *singleLegalLossState) GameEnded() bool             { return s.done }
func (s *singleLegalLossState) Winner() game.Winner {
	if s.done {
		return game.WinnerPlayer1
	}
	return game.WinnerNone
}
func (s *singleLegalLossState) LegalMoves() []fixtureMove { return []fixtureMove{0} }
func (s *singleLegalLossState) EnvMoveWeights() []game.EnvOutcome[fixtureMove] {
	return nil
}
func (s *singleLegalLossState) DoMove(fixtureMove) { s.done = true }
func (s *singleLegalLossState) Clone() *singleLegalLossState {
	cp := *s
	return &cp
}
