package session

import (
	"fmt"

	"github.com/examly/adaptive-core/internal/irt"
)

// AdaptiveConfig controls a single assessment session. It is supplied at
// session start and immutable for the session's lifetime.
type AdaptiveConfig struct {
	// InitialTier seeds the starting ability estimate.
	InitialTier irt.Tier `json:"initial_tier"`

	// MinItems is the minimum number of responses before the session may
	// complete (except forced termination on pool exhaustion).
	MinItems int `json:"min_items"`

	// MaxItems is the hard cap on responses per session.
	MaxItems int `json:"max_items"`

	// TargetAccuracy is the desired proportion of correct responses.
	// Informational; the selector steers difficulty toward it indirectly
	// through ability tracking.
	TargetAccuracy float64 `json:"target_accuracy"`

	// ConfidenceThreshold stops the session once measurement confidence
	// reaches it. Must be in (0, 1].
	ConfidenceThreshold float64 `json:"confidence_threshold"`

	// DifficultyAdjustmentFactor scales the trend advisor's speed
	// thresholds. Unused by the per-item loop.
	DifficultyAdjustmentFactor float64 `json:"difficulty_adjustment_factor"`

	// ContentTags restricts selection to items matching these topics.
	// Empty means no restriction.
	ContentTags []string `json:"content_tags,omitempty"`
}

// DefaultConfig returns a config suitable for a standard assessment.
func DefaultConfig() AdaptiveConfig {
	return AdaptiveConfig{
		InitialTier:                irt.TierIntermediate,
		MinItems:                   5,
		MaxItems:                   20,
		TargetAccuracy:             0.7,
		ConfidenceThreshold:        0.8,
		DifficultyAdjustmentFactor: 1.0,
	}
}

// Validate checks the structural invariants of the config.
func (c AdaptiveConfig) Validate() error {
	if c.MinItems <= 0 {
		return fmt.Errorf("%w: min items must be positive, got %d", ErrInvalidConfig, c.MinItems)
	}
	if c.MaxItems <= 0 {
		return fmt.Errorf("%w: max items must be positive, got %d", ErrInvalidConfig, c.MaxItems)
	}
	if c.MinItems > c.MaxItems {
		return fmt.Errorf("%w: min items %d exceeds max items %d", ErrInvalidConfig, c.MinItems, c.MaxItems)
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence threshold must be in (0, 1], got %g", ErrInvalidConfig, c.ConfidenceThreshold)
	}
	return nil
}
