// Package irt implements the three-parameter logistic (3PL) item response
// model: the probability that an examinee at ability θ answers an item
// correctly, and the Fisher information the item carries at that ability.
package irt

import "math"

const (
	// MinAbility and MaxAbility bound the latent ability scale.
	MinAbility = -4.0
	MaxAbility = 4.0

	// minProbability and maxProbability keep log-likelihood terms away
	// from 0 and 1 where they degenerate.
	minProbability = 0.001
	maxProbability = 0.999
)

// Params holds the 3PL parameters for a single item.
type Params struct {
	// Discrimination (a) controls how sharply the item separates
	// examinees below and above its difficulty. Must be > 0.
	Discrimination float64 `json:"a"`

	// Difficulty (b) is the ability at which the item is answered
	// correctly with probability halfway between guessing and certainty.
	Difficulty float64 `json:"b"`

	// Guessing (c) is the asymptotic probability of a correct answer at
	// very low ability. In [0, 1).
	Guessing float64 `json:"c"`
}

// Probability returns P(correct | θ) under the 3PL model,
// c + (1-c) / (1 + exp(-a(θ-b))), clamped to [0.001, 0.999].
func Probability(theta float64, p Params) float64 {
	exponent := -p.Discrimination * (theta - p.Difficulty)
	prob := p.Guessing + (1-p.Guessing)/(1+math.Exp(exponent))
	return clamp(prob, minProbability, maxProbability)
}

// Information returns the Fisher information of an item at ability θ,
// a²·P·(1-P) / (1-c)².
func Information(theta float64, p Params) float64 {
	prob := Probability(theta, p)
	denom := (1 - p.Guessing) * (1 - p.Guessing)
	if denom == 0 {
		return 0
	}
	return p.Discrimination * p.Discrimination * prob * (1 - prob) / denom
}

// ClampAbility bounds θ to the supported ability scale.
func ClampAbility(theta float64) float64 {
	return clamp(theta, MinAbility, MaxAbility)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
