// Package scoring converts guess distances into points. It is pure and is
// shared by the single-player and duel modes: every client must compute the
// same score for the same guess.
package scoring

import "math"

// Params are the scoring tunables. The map is a 100x100 percent-coordinate
// space, so MaxDistance is its diagonal minus the perfect radius.
type Params struct {
	MaxScore      int
	PerfectRadius float64
	// FloorPenalty multiplies the score when the guessed floor is wrong.
	FloorPenalty float64
	// MinTimeMultiplier floors the hard-mode time decay.
	MinTimeMultiplier float64
}

// Defaults returns the production tunables.
func Defaults() Params {
	return Params{
		MaxScore:          5000,
		PerfectRadius:     5,
		FloorPenalty:      0.8,
		MinTimeMultiplier: 0.5,
	}
}

// MaxDistance is the largest meaningful guess distance.
func (p Params) MaxDistance() float64 {
	return math.Hypot(100, 100) - p.PerfectRadius
}

// Score maps a distance to points. Within the perfect radius the score is
// MaxScore; beyond it the score decays exponentially, reaching ~0 at
// MaxDistance. The result is clamped to [0, MaxScore].
func (p Params) Score(distance float64) int {
	if distance <= p.PerfectRadius {
		return p.MaxScore
	}
	r := (distance - p.PerfectRadius) / (p.MaxDistance() - p.PerfectRadius)
	s := int(math.Round(float64(p.MaxScore) * math.Exp(-100*r*r)))
	if s < 0 {
		return 0
	}
	if s > p.MaxScore {
		return p.MaxScore
	}
	return s
}

// ApplyFloor applies the floor modifier: unchanged on a correct floor,
// penalized on a wrong one. Call only when the guessed region demands a
// floor and the true floor is known.
func (p Params) ApplyFloor(score int, correct bool) int {
	if correct {
		return score
	}
	return int(math.Round(float64(score) * p.FloorPenalty))
}

// ApplyTimeDecay scales a score by how much of the round time had elapsed
// when the guess was placed. Single-player hard mode only. The multiplier
// is non-increasing in elapsed time and never drops below MinTimeMultiplier.
func (p Params) ApplyTimeDecay(score int, elapsed, total float64) int {
	if total <= 0 {
		return score
	}
	m := 1 - elapsed/total
	if m < p.MinTimeMultiplier {
		m = p.MinTimeMultiplier
	}
	if m > 1 {
		m = 1
	}
	return int(math.Round(float64(score) * m))
}
