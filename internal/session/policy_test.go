package session

import (
	"math"
	"testing"

	"github.com/examly/adaptive-core/internal/irt"
)

func TestConfidence_NoInformation(t *testing.T) {
	// Zero total information maps to a standard error of 1.
	got := Confidence(0, nil)
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Confidence(no items) = %f, want 0.5", got)
	}
}

func TestConfidence_GrowsWithInformation(t *testing.T) {
	p := irt.Params{Discrimination: 1.5, Difficulty: 0, Guessing: 0.2}

	few := Confidence(0, []irt.Params{p, p})
	many := Confidence(0, []irt.Params{p, p, p, p, p, p, p, p})
	if many <= few {
		t.Errorf("confidence with 8 items (%f) should exceed 2 items (%f)", many, few)
	}
	if many > 1.0 {
		t.Errorf("confidence = %f, exceeds 1.0", many)
	}
}

func TestConfidence_Floor(t *testing.T) {
	// One barely informative item far from theta: confidence floors at 0.1.
	p := irt.Params{Discrimination: 0.3, Difficulty: 4, Guessing: 0.2}
	got := Confidence(-4, []irt.Params{p})
	if got != minConfidence {
		t.Errorf("Confidence = %f, want floor %f", got, minConfidence)
	}
}

func TestShouldContinue_RuleOrder(t *testing.T) {
	cfg := AdaptiveConfig{MinItems: 5, MaxItems: 20, ConfidenceThreshold: 0.8}

	tests := []struct {
		name       string
		responses  int
		confidence float64
		history    []float64
		want       bool
	}{
		{"below min continues despite high confidence", 3, 0.99, []float64{1, 1, 1}, true},
		{"at max stops despite low confidence", 20, 0.2, nil, false},
		{"above max stops", 25, 0.2, nil, false},
		{"confidence threshold stops", 10, 0.85, []float64{0, 1, 2}, false},
		{"stabilized ability stops", 10, 0.5, []float64{0.50, 0.52, 0.51}, false},
		{"volatile ability continues", 10, 0.5, []float64{-1, 1, -1}, true},
		{"short history skips stability check", 5, 0.5, []float64{0.5, 0.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldContinue(cfg, tt.responses, tt.confidence, tt.history)
			if got != tt.want {
				t.Errorf("ShouldContinue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompletionPct(t *testing.T) {
	cfg := AdaptiveConfig{MinItems: 5, MaxItems: 20, ConfidenceThreshold: 0.8}

	// Blended estimate: 0.6*(10/20) + 0.4*(0.4/0.8) = 0.5.
	got := CompletionPct(cfg, 10, 0.4)
	if math.Abs(got-50) > 1e-9 {
		t.Errorf("CompletionPct = %f, want 50", got)
	}

	// Item ratio floors the estimate when confidence is low.
	got = CompletionPct(cfg, 18, 0.1)
	if got < 90 {
		t.Errorf("CompletionPct = %f, want >= 90 (item-ratio floor)", got)
	}

	// Capped at 100.
	got = CompletionPct(cfg, 20, 1.0)
	if got != 100 {
		t.Errorf("CompletionPct = %f, want 100", got)
	}
}

func TestVariance(t *testing.T) {
	tests := []struct {
		xs   []float64
		want float64
	}{
		{nil, 0},
		{[]float64{2, 2, 2}, 0},
		{[]float64{1, 2, 3}, 2.0 / 3.0},
	}
	for _, tt := range tests {
		if got := variance(tt.xs); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("variance(%v) = %f, want %f", tt.xs, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AdaptiveConfig)
		wantErr bool
	}{
		{"default is valid", func(c *AdaptiveConfig) {}, false},
		{"zero min items", func(c *AdaptiveConfig) { c.MinItems = 0 }, true},
		{"negative max items", func(c *AdaptiveConfig) { c.MaxItems = -1 }, true},
		{"min exceeds max", func(c *AdaptiveConfig) { c.MinItems = 30 }, true},
		{"zero threshold", func(c *AdaptiveConfig) { c.ConfidenceThreshold = 0 }, true},
		{"threshold above one", func(c *AdaptiveConfig) { c.ConfidenceThreshold = 1.2 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
