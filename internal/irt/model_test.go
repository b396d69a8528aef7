package irt

import (
	"math"
	"testing"
)

func TestProbability_Bounds(t *testing.T) {
	params := []Params{
		{Discrimination: 1.0, Difficulty: 0.0, Guessing: 0.2},
		{Discrimination: 2.5, Difficulty: -3.0, Guessing: 0.0},
		{Discrimination: 0.3, Difficulty: 3.5, Guessing: 0.25},
	}

	for _, p := range params {
		for theta := -8.0; theta <= 8.0; theta += 0.25 {
			got := Probability(theta, p)
			if got < 0.001 || got > 0.999 {
				t.Errorf("Probability(%.2f, %+v) = %f, want within [0.001, 0.999]", theta, p, got)
			}
		}
	}
}

func TestProbability_AtDifficulty(t *testing.T) {
	// At θ = b the logistic term is 0.5, so P = c + (1-c)/2.
	p := Params{Discrimination: 1.0, Difficulty: 0.5, Guessing: 0.2}
	got := Probability(0.5, p)
	want := 0.2 + 0.8/2
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Probability(b, p) = %f, want %f", got, want)
	}
}

func TestProbability_Monotonic(t *testing.T) {
	p := Params{Discrimination: 1.3, Difficulty: 0.0, Guessing: 0.1}
	prev := Probability(-4, p)
	for theta := -3.5; theta <= 4.0; theta += 0.5 {
		got := Probability(theta, p)
		if got < prev {
			t.Errorf("Probability not monotonic at θ=%.1f: %f < %f", theta, got, prev)
		}
		prev = got
	}
}

func TestInformation_PeaksNearDifficulty(t *testing.T) {
	p := Params{Discrimination: 1.5, Difficulty: 1.0, Guessing: 0.0}
	atB := Information(1.0, p)
	farBelow := Information(-3.0, p)
	farAbove := Information(3.9, p)
	if atB <= farBelow || atB <= farAbove {
		t.Errorf("Information at b (%f) should exceed tails (%f, %f)", atB, farBelow, farAbove)
	}
}

func TestInformation_HigherDiscrimination(t *testing.T) {
	// Two items at θ equal to their own b differ only in a; the sharper
	// item must carry strictly more information.
	low := Params{Discrimination: 1.0, Difficulty: 0.0, Guessing: 0.2}
	high := Params{Discrimination: 2.0, Difficulty: 0.0, Guessing: 0.2}
	if Information(0.0, high) <= Information(0.0, low) {
		t.Errorf("Information(a=2) = %f should exceed Information(a=1) = %f",
			Information(0.0, high), Information(0.0, low))
	}
}

func TestTier_Value(t *testing.T) {
	tests := []struct {
		tier Tier
		want int
	}{
		{TierBeginner, 0},
		{TierIntermediate, 1},
		{TierAdvanced, 2},
		{TierExpert, 3},
		{Tier("unknown"), 1},
	}
	for _, tt := range tests {
		if got := tt.tier.Value(); got != tt.want {
			t.Errorf("Tier(%q).Value() = %d, want %d", tt.tier, got, tt.want)
		}
	}
}

func TestTier_Ability(t *testing.T) {
	tests := []struct {
		tier Tier
		want float64
	}{
		{TierBeginner, -1.5},
		{TierIntermediate, 0.0},
		{TierAdvanced, 1.5},
		{TierExpert, 3.0},
	}
	for _, tt := range tests {
		if got := tt.tier.Ability(); got != tt.want {
			t.Errorf("Tier(%q).Ability() = %f, want %f", tt.tier, got, tt.want)
		}
	}
}

func TestItem_Params_TierDefaults(t *testing.T) {
	choice := Item{ID: "q1", Tier: TierAdvanced, Type: TypeMultipleChoice}
	p := choice.Params()
	if p.Discrimination != 1.0 {
		t.Errorf("default a = %f, want 1.0", p.Discrimination)
	}
	if p.Difficulty != 1.5 {
		t.Errorf("default b for advanced = %f, want 1.5", p.Difficulty)
	}
	if p.Guessing != 0.25 {
		t.Errorf("default c for choice item = %f, want 0.25", p.Guessing)
	}

	open := Item{ID: "q2", Tier: TierBeginner, Type: TypeShortAnswer}
	if got := open.Params().Guessing; got != 0.1 {
		t.Errorf("default c for short answer = %f, want 0.1", got)
	}

	untyped := Item{ID: "q3", Tier: TierBeginner}
	if got := untyped.Params().Guessing; got != 0.2 {
		t.Errorf("default c for untyped item = %f, want 0.2", got)
	}
}

func TestItem_Params_CalibratedWins(t *testing.T) {
	cal := &Params{Discrimination: 1.8, Difficulty: -0.3, Guessing: 0.05}
	it := Item{ID: "q1", Tier: TierExpert, Type: TypeMultipleChoice, Calibrated: cal}
	if got := it.Params(); got != *cal {
		t.Errorf("Params() = %+v, want calibrated %+v", got, *cal)
	}
}
