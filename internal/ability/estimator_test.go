package ability

import (
	"testing"

	"github.com/examly/adaptive-core/internal/irt"
)

func stdParams() irt.Params {
	return irt.Params{Discrimination: 1.0, Difficulty: 0.0, Guessing: 0.2}
}

func TestEstimate_EmptyHistory(t *testing.T) {
	if got := Estimate(0.7, nil); got != 0.7 {
		t.Errorf("Estimate with empty history = %f, want prior 0.7", got)
	}
	// Out-of-range priors are clamped even without responses.
	if got := Estimate(9.0, nil); got != 4.0 {
		t.Errorf("Estimate(9, nil) = %f, want 4.0", got)
	}
}

func TestEstimate_CorrectRaisesAbility(t *testing.T) {
	paramSets := []irt.Params{
		{Discrimination: 1.0, Difficulty: 0.0, Guessing: 0.2},
		{Discrimination: 2.0, Difficulty: 1.0, Guessing: 0.25},
		{Discrimination: 0.5, Difficulty: -2.0, Guessing: 0.0},
	}
	for _, p := range paramSets {
		prior := 0.0
		got := EstimateNext(prior, nil, p, true)
		if got < prior {
			t.Errorf("correct response lowered ability: %f -> %f (params %+v)", prior, got, p)
		}
	}
}

func TestEstimate_IncorrectLowersAbility(t *testing.T) {
	paramSets := []irt.Params{
		{Discrimination: 1.0, Difficulty: 0.0, Guessing: 0.2},
		{Discrimination: 2.0, Difficulty: -1.0, Guessing: 0.1},
	}
	for _, p := range paramSets {
		prior := 0.0
		got := EstimateNext(prior, nil, p, false)
		if got > prior {
			t.Errorf("incorrect response raised ability: %f -> %f (params %+v)", prior, got, p)
		}
	}
}

func TestEstimate_MonotoneOverCorrectStreak(t *testing.T) {
	var history []Response
	theta := 0.0
	for i := 0; i < 8; i++ {
		next := EstimateNext(theta, history, stdParams(), true)
		if next < theta {
			t.Fatalf("ability decreased on correct streak at step %d: %f -> %f", i, theta, next)
		}
		history = append(history, Response{Params: stdParams(), Correct: true})
		theta = next
	}
	if theta <= 0.0 {
		t.Errorf("ability after 8 correct answers = %f, want > 0", theta)
	}
}

func TestEstimate_AlwaysWithinBounds(t *testing.T) {
	hard := irt.Params{Discrimination: 2.5, Difficulty: 3.5, Guessing: 0.0}
	var history []Response
	theta := 0.0
	for i := 0; i < 30; i++ {
		history = append(history, Response{Params: hard, Correct: true})
		theta = Estimate(theta, history)
		if theta < -4 || theta > 4 {
			t.Fatalf("ability escaped bounds at step %d: %f", i, theta)
		}
	}

	history = history[:0]
	theta = 0.0
	for i := 0; i < 30; i++ {
		history = append(history, Response{Params: hard, Correct: false})
		theta = Estimate(theta, history)
		if theta < -4 || theta > 4 {
			t.Fatalf("ability escaped bounds at step %d: %f", i, theta)
		}
	}
}

func TestEstimate_MixedHistoryStaysNearDifficulty(t *testing.T) {
	// Alternating outcomes on an item at b=0 should keep the estimate
	// near zero rather than running to a bound.
	var history []Response
	for i := 0; i < 12; i++ {
		history = append(history, Response{Params: stdParams(), Correct: i%2 == 0})
	}
	got := Estimate(0.0, history)
	if got < -2.0 || got > 2.0 {
		t.Errorf("balanced history estimate = %f, want near 0", got)
	}
}

func TestCorrectFromConfidence(t *testing.T) {
	tests := []struct {
		confidence float64
		want       bool
	}{
		{0.0, false},
		{0.5, false},
		{0.51, true},
		{1.0, true},
	}
	for _, tt := range tests {
		if got := CorrectFromConfidence(tt.confidence); got != tt.want {
			t.Errorf("CorrectFromConfidence(%.2f) = %v, want %v", tt.confidence, got, tt.want)
		}
	}
}
