package session

import (
	"math"

	"github.com/examly/adaptive-core/internal/irt"
)

const (
	// stabilityWindow is the number of trailing ability estimates
	// examined by the stabilization check.
	stabilityWindow = 3

	// stabilityVariance is the variance below which ability is
	// considered stabilized.
	stabilityVariance = 0.1

	// minConfidence floors the confidence level so early sessions never
	// report zero measurement confidence.
	minConfidence = 0.1
)

// Confidence computes measurement confidence from the total Fisher
// information of all answered items at the current ability estimate.
// Zero information maps to a standard error of 1.
func Confidence(ability float64, answered []irt.Params) float64 {
	total := 0.0
	for _, p := range answered {
		total += irt.Information(ability, p)
	}

	se := 1.0
	if total > 0 {
		se = 1.0 / math.Sqrt(total)
	}

	conf := 1.0 - 0.5*se
	if conf < minConfidence {
		return minConfidence
	}
	if conf > 1.0 {
		return 1.0
	}
	return conf
}

// ShouldContinue applies the continuation policy. Rules are evaluated in
// order; the first match wins.
func ShouldContinue(cfg AdaptiveConfig, responses int, confidence float64, abilityHistory []float64) bool {
	if responses < cfg.MinItems {
		return true
	}
	if responses >= cfg.MaxItems {
		return false
	}
	if confidence >= cfg.ConfidenceThreshold {
		return false
	}
	if len(abilityHistory) >= stabilityWindow {
		recent := abilityHistory[len(abilityHistory)-stabilityWindow:]
		if variance(recent) < stabilityVariance {
			return false
		}
	}
	return true
}

// CompletionPct estimates how far along the session is, in [0, 100].
// The item-count ratio acts as a floor so progress never moves backward
// when confidence dips.
func CompletionPct(cfg AdaptiveConfig, responses int, confidence float64) float64 {
	itemRatio := float64(responses) / float64(cfg.MaxItems)
	blended := 0.6*itemRatio + 0.4*confidence/cfg.ConfidenceThreshold

	pct := math.Max(blended, itemRatio) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// variance is the population variance.
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	v := 0.0
	for _, x := range xs {
		d := x - mean
		v += d * d
	}
	return v / float64(len(xs))
}
