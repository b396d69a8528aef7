// Package ability fits a maximum-likelihood ability estimate to a
// session's response history under the 3PL model.
package ability

import (
	"math"

	"github.com/examly/adaptive-core/internal/irt"
)

const (
	// MaxIterations bounds the Newton-Raphson search.
	MaxIterations = 10

	// ConvergenceTolerance stops the search once the per-iteration
	// correction falls below it.
	ConvergenceTolerance = 0.001

	// CorrectnessThreshold is the confidence level above which a
	// self-reported response counts as correct when no authoritative
	// grading signal is available.
	CorrectnessThreshold = 0.5
)

// Response pairs an item's parameters with the observed outcome.
type Response struct {
	Params  irt.Params
	Correct bool
}

// CorrectFromConfidence derives a correctness proxy from a caller-supplied
// confidence scalar. This stands in for the grading collaborator's
// authoritative signal; the session engine prefers a real grader result
// whenever one is configured.
func CorrectFromConfidence(confidence float64) bool {
	return confidence > CorrectnessThreshold
}

// Estimate runs the maximum-likelihood search over the full response
// history, starting from the prior estimate. The returned θ is always in
// [-4, 4]; an empty history returns the clamped prior unchanged.
//
// Each iteration computes the likelihood score Σ a(1-P) over correct
// responses minus Σ aP over incorrect ones, and applies it directly as
// the correction step rather than dividing by the observed information.
// This single-step scheme is intentionally kept: combined with the
// ability clamp it always terminates, and the selector only needs a
// stable ordinal signal, not a textbook MLE fit.
func Estimate(prior float64, history []Response) float64 {
	theta := irt.ClampAbility(prior)
	if len(history) == 0 {
		return theta
	}

	for i := 0; i < MaxIterations; i++ {
		score := likelihoodScore(theta, history)
		if math.Abs(score) < ConvergenceTolerance {
			break
		}
		theta = irt.ClampAbility(theta + score)
	}
	return theta
}

// EstimateNext appends the newest response to the history and re-fits.
// This is the per-submission entry point used by the session engine.
func EstimateNext(prior float64, history []Response, newParams irt.Params, newCorrect bool) float64 {
	full := make([]Response, 0, len(history)+1)
	full = append(full, history...)
	full = append(full, Response{Params: newParams, Correct: newCorrect})
	return Estimate(prior, full)
}

// likelihoodScore is the first derivative of the log-likelihood under the
// simplified 3PL scoring rule: a(1-P) for a correct response, -aP for an
// incorrect one.
func likelihoodScore(theta float64, history []Response) float64 {
	score := 0.0
	for _, r := range history {
		p := irt.Probability(theta, r.Params)
		if r.Correct {
			score += r.Params.Discrimination * (1 - p)
		} else {
			score -= r.Params.Discrimination * p
		}
	}
	return score
}
