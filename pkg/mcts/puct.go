package mcts

import (
	"math/rand"

	"github.com/chewxy/math32"
)

// selectPUCT picks the child index maximizing the PUCT score, breaking
// ties uniformly at random among the exact argmax set: this keeps
// parallel workers from all piling onto the same branch whenever
// several children score identically early in a search, most commonly
// when every child still has zero real visits and the prior dominates.
func selectPUCT[M comparable](children []Node[M], parentVisits int32, cPuct float64, rng *rand.Rand) int {
	parentVisitsSqrt := math32.Sqrt(float32(parentVisits))
	c := float32(cPuct)

	best := math32.Inf(-1)
	var tied []int
	for i := range children {
		child := &children[i]
		score := scoreChild(child, parentVisitsSqrt, c)
		switch {
		case score > best:
			best = score
			tied = tied[:0]
			tied = append(tied, i)
		case score == best:
			tied = append(tied, i)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}
	return tied[rng.Intn(len(tied))]
}

// scoreChild computes the virtual-loss adjusted PUCT score for a child:
// effective denominator n_visit + virtual_loss for the exploitation term
// (W/n, treated as 0 when the denominator is 0), and 1 + n_visit +
// virtual_loss for the exploration term; virtual_loss is subtracted from
// W in the numerator. Computed in float32 via chewxy/math32, since the
// evaluator's priors and values are float32-shaped NN outputs and this
// avoids a float64 round trip on every child scored during a descent.
func scoreChild[M comparable](child *Node[M], parentVisitsSqrt, cPuct float32) float32 {
	visits := child.Visits()
	vloss := child.VirtualLoss()
	n := visits + vloss

	var exploit float32
	if n > 0 {
		exploit = (float32(child.SumValue()) - float32(vloss)) / float32(n)
	}

	exploration := cPuct * float32(child.Prior) * parentVisitsSqrt / float32(1+n)
	return exploit + exploration
}

// selectEnv samples a child index in proportion to its prior (the
// env-mixture weights stored at expansion time).
func selectEnv[M comparable](children []Node[M], rng *rand.Rand) int {
	total := 0.0
	for i := range children {
		total += children[i].Prior
	}
	if total <= 0 {
		return rng.Intn(len(children))
	}
	r := rng.Float64() * total
	for i := range children {
		r -= children[i].Prior
		if r <= 0 {
			return i
		}
	}
	return len(children) - 1
}
