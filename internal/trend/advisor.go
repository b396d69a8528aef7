// Package trend implements the cross-session difficulty advisor: a
// read-mostly heuristic that recommends tier adjustments from rolling
// accuracy, speed, and ability statistics. It consumes the same ability
// signal as the per-item loop but never feeds back into it.
package trend

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/examly/adaptive-core/internal/irt"
	"github.com/examly/adaptive-core/internal/store"
)

const (
	// MaxSnapshots caps the per-user performance history; the oldest
	// snapshot is evicted first.
	MaxSnapshots = 20

	// recommendWindow is how many recent snapshots feed a recommendation.
	recommendWindow = 5

	// Accuracy thresholds for tier adjustment.
	raiseAccuracy = 0.85
	lowerAccuracy = 0.5

	// Speed thresholds, as ratios of the tier's expected response time.
	fastRatio = 0.6
	slowRatio = 1.5
)

// expectedTimeMs is the nominal per-item response time for each tier.
var expectedTimeMs = map[irt.Tier]float64{
	irt.TierBeginner:     30_000,
	irt.TierIntermediate: 45_000,
	irt.TierAdvanced:     60_000,
	irt.TierExpert:       75_000,
}

// PerformanceSnapshot summarizes one completed session.
type PerformanceSnapshot struct {
	CorrectCount      int
	TotalCount        int
	AvgResponseTimeMs float64
	AbilityEstimate   float64
	ConfidenceLevel   float64
}

// Accuracy returns the snapshot's proportion correct, 0 when empty.
func (s PerformanceSnapshot) Accuracy() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.TotalCount)
}

// Recommendation is the advisor's verdict for one examinee.
type Recommendation struct {
	CurrentTier   irt.Tier `json:"current_tier"`
	SuggestedTier irt.Tier `json:"suggested_tier"`

	// Confidence reflects how stable the recent ability estimates are,
	// in [0, 1].
	Confidence float64 `json:"confidence"`

	Reasoning []string `json:"reasoning"`
}

// Trend holds linear-regression slopes over the stored snapshot history.
// Positive slopes mean the metric is rising session-over-session.
type Trend struct {
	Accuracy   float64 `json:"accuracy"`
	Speed      float64 `json:"speed"`
	Difficulty float64 `json:"difficulty"`
	Ability    float64 `json:"ability"`
}

// Advisor reads and writes per-user performance snapshots.
type Advisor struct {
	snapshots store.SnapshotRepo

	// factor scales the expected response times, letting deployments
	// loosen or tighten the speed thresholds.
	factor float64
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithAdjustmentFactor scales the speed thresholds. Default 1.0.
func WithAdjustmentFactor(f float64) Option {
	return func(a *Advisor) {
		if f > 0 {
			a.factor = f
		}
	}
}

// NewAdvisor creates an Advisor over the given snapshot repository.
func NewAdvisor(snapshots store.SnapshotRepo, opts ...Option) *Advisor {
	a := &Advisor{snapshots: snapshots, factor: 1.0}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Record stores a session's performance snapshot and evicts history
// beyond MaxSnapshots.
func (a *Advisor) Record(ctx context.Context, userID string, snap PerformanceSnapshot) error {
	err := a.snapshots.Save(ctx, &store.Snapshot{
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Data: store.SnapshotData{
			Version:       1,
			Ability:       snap.AbilityEstimate,
			Confidence:    snap.ConfidenceLevel,
			Accuracy:      snap.Accuracy(),
			AvgResponseMs: snap.AvgResponseTimeMs,
			ItemsAnswered: snap.TotalCount,
		},
	})
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}

	if err := a.snapshots.Prune(ctx, userID, MaxSnapshots); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// Recommend suggests a difficulty tier from the user's recent sessions.
// With no recorded history it keeps the intermediate default and says so.
func (a *Advisor) Recommend(ctx context.Context, userID string) (*Recommendation, error) {
	recent, err := a.snapshots.Recent(ctx, userID, recommendWindow)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	if len(recent) == 0 {
		return &Recommendation{
			CurrentTier:   irt.TierIntermediate,
			SuggestedTier: irt.TierIntermediate,
			Confidence:    0,
			Reasoning:     []string{"no performance history recorded"},
		}, nil
	}

	latest := recent[len(recent)-1]
	current := TierForAbility(latest.Data.Ability)

	var accSum, timeSum float64
	abilities := make([]float64, len(recent))
	for i, s := range recent {
		accSum += s.Data.Accuracy
		timeSum += s.Data.AvgResponseMs
		abilities[i] = s.Data.Ability
	}
	avgAccuracy := accSum / float64(len(recent))
	avgTime := timeSum / float64(len(recent))
	expected := expectedTimeMs[current] * a.factor

	rec := &Recommendation{
		CurrentTier:   current,
		SuggestedTier: current,
		Confidence:    recommendConfidence(abilities),
	}

	switch {
	case avgAccuracy > raiseAccuracy:
		rec.SuggestedTier = irt.TierForValue(current.Value() + 1)
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("accuracy %.0f%% exceeds %.0f%%", avgAccuracy*100, raiseAccuracy*100))
	case avgTime > 0 && avgTime < fastRatio*expected:
		rec.SuggestedTier = irt.TierForValue(current.Value() + 1)
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("avg response %.1fs is well under the %.1fs expected", avgTime/1000, expected/1000))
	case avgAccuracy < lowerAccuracy:
		rec.SuggestedTier = irt.TierForValue(current.Value() - 1)
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("accuracy %.0f%% is below %.0f%%", avgAccuracy*100, lowerAccuracy*100))
	case avgTime > slowRatio*expected:
		rec.SuggestedTier = irt.TierForValue(current.Value() - 1)
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("avg response %.1fs is well over the %.1fs expected", avgTime/1000, expected/1000))
	default:
		rec.Reasoning = append(rec.Reasoning, "performance within expected range for current tier")
	}

	return rec, nil
}

// TrendFor computes regression slopes over the user's stored snapshots.
// Fewer than two snapshots yields all-zero slopes.
func (a *Advisor) TrendFor(ctx context.Context, userID string) (*Trend, error) {
	history, err := a.snapshots.Recent(ctx, userID, MaxSnapshots)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	if len(history) < 2 {
		return &Trend{}, nil
	}

	accuracy := make([]float64, len(history))
	speed := make([]float64, len(history))
	difficulty := make([]float64, len(history))
	abilities := make([]float64, len(history))
	for i, s := range history {
		accuracy[i] = s.Data.Accuracy
		speed[i] = s.Data.AvgResponseMs
		difficulty[i] = float64(TierForAbility(s.Data.Ability).Value())
		abilities[i] = s.Data.Ability
	}

	return &Trend{
		Accuracy:   slope(accuracy),
		Speed:      slope(speed),
		Difficulty: slope(difficulty),
		Ability:    slope(abilities),
	}, nil
}

// TierForAbility maps an ability estimate onto the nearest tier.
func TierForAbility(theta float64) irt.Tier {
	best := irt.TierIntermediate
	bestDist := math.Inf(1)
	for _, t := range irt.AllTiers {
		if d := math.Abs(theta - t.Ability()); d < bestDist {
			best = t
			bestDist = d
		}
	}
	return best
}

// recommendConfidence is 1 minus the variance of the recent ability
// estimates, floored at 0: volatile ability means low confidence.
func recommendConfidence(abilities []float64) float64 {
	c := 1 - variance(abilities)
	if c < 0 {
		return 0
	}
	return c
}

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
