package selector

import (
	"testing"

	"github.com/examly/adaptive-core/internal/irt"
)

func calibrated(id string, tier irt.Tier, a, b, c float64, tags ...string) irt.Item {
	return irt.Item{
		ID:         id,
		Tier:       tier,
		Tags:       tags,
		Type:       irt.TypeMultipleChoice,
		Calibrated: &irt.Params{Discrimination: a, Difficulty: b, Guessing: c},
	}
}

func exploitState(asked ...string) State {
	return State{Ability: 0.0, Asked: asked, ResponseCount: ExplorationResponses}
}

func TestScore_HigherDiscriminationWinsOnInformation(t *testing.T) {
	// Both items sit exactly at the examinee's ability, identical in
	// every dimension except discrimination.
	low := calibrated("low", irt.TierIntermediate, 1.0, 0.0, 0.2)
	high := calibrated("high", irt.TierIntermediate, 2.0, 0.0, 0.2)
	st := exploitState()
	c := Criteria{TargetDifficulty: 1}

	sLow := Score(low, st, c)
	sHigh := Score(high, st, c)

	if sHigh.Information <= sLow.Information {
		t.Errorf("information: a=2 scored %f, a=1 scored %f; want strictly higher",
			sHigh.Information, sLow.Information)
	}
	if sHigh.Total <= sLow.Total {
		t.Errorf("total: a=2 scored %f, a=1 scored %f; want strictly higher", sHigh.Total, sLow.Total)
	}
}

func TestScore_DifficultyMatch(t *testing.T) {
	beginner := calibrated("b", irt.TierBeginner, 1, -1.5, 0.2)
	expert := calibrated("e", irt.TierExpert, 1, 3.0, 0.2)

	st := exploitState()
	c := Criteria{TargetDifficulty: 0}

	sb := Score(beginner, st, c)
	se := Score(expert, st, c)
	if sb.DifficultyMatch != 1.0 {
		t.Errorf("beginner at target 0 = %f, want 1.0", sb.DifficultyMatch)
	}
	if se.DifficultyMatch != 0.0 {
		t.Errorf("expert at target 0 = %f, want 0.0", se.DifficultyMatch)
	}
}

func TestScore_ContentRelevance(t *testing.T) {
	it := calibrated("q", irt.TierIntermediate, 1, 0, 0.2, "Algebra", "linear-equations")
	st := exploitState()

	full := Score(it, st, Criteria{ContentTags: []string{"algebra"}})
	if full.ContentRelevance != 1.0 {
		t.Errorf("case-insensitive match = %f, want 1.0", full.ContentRelevance)
	}

	half := Score(it, st, Criteria{ContentTags: []string{"linear", "geometry"}})
	if half.ContentRelevance != 0.5 {
		t.Errorf("substring half match = %f, want 0.5", half.ContentRelevance)
	}

	none := Score(it, st, Criteria{})
	if none.ContentRelevance != 1.0 {
		t.Errorf("no tags requested = %f, want 1.0", none.ContentRelevance)
	}
}

func TestScore_DiversityDecaysWithRecency(t *testing.T) {
	it := calibrated("q", irt.TierIntermediate, 1, 0, 0.2)

	fresh := Score(it, State{ResponseCount: 9}, Criteria{})
	if fresh.Diversity != 1.0 {
		t.Errorf("diversity with nothing asked = %f, want 1.0", fresh.Diversity)
	}

	saturated := Score(it, State{Asked: []string{"a", "b", "c", "d", "e", "f", "g"}, ResponseCount: 9}, Criteria{})
	if saturated.Diversity != 0.5 {
		t.Errorf("diversity with saturated window = %f, want 0.5 (1 - 0.1×5)", saturated.Diversity)
	}
}

func TestSelect_ExcludesAskedItems(t *testing.T) {
	s := New(1)
	items := []irt.Item{
		calibrated("q1", irt.TierIntermediate, 1.5, 0, 0.2),
		calibrated("q2", irt.TierIntermediate, 1.0, 0, 0.2),
	}

	got, ok := s.Select(items, exploitState("q1"), Criteria{TargetDifficulty: 1})
	if !ok {
		t.Fatal("expected a selection")
	}
	if got.ID != "q2" {
		t.Errorf("selected %q, want q2 (q1 excluded)", got.ID)
	}
}

func TestSelect_EmptyPool(t *testing.T) {
	s := New(1)
	items := []irt.Item{calibrated("q1", irt.TierIntermediate, 1, 0, 0.2)}

	if _, ok := s.Select(items, exploitState("q1"), Criteria{}); ok {
		t.Error("expected no selection when every candidate is excluded")
	}
	if _, ok := s.Select(nil, exploitState(), Criteria{}); ok {
		t.Error("expected no selection from empty candidate list")
	}
}

func TestSelect_ExploitPhaseIsDeterministic(t *testing.T) {
	items := []irt.Item{
		calibrated("q1", irt.TierIntermediate, 0.8, 0, 0.2),
		calibrated("q2", irt.TierIntermediate, 2.0, 0, 0.2),
		calibrated("q3", irt.TierIntermediate, 1.2, 0, 0.2),
	}

	for seed := uint64(1); seed <= 5; seed++ {
		s := New(seed)
		got, ok := s.Select(items, exploitState(), Criteria{TargetDifficulty: 1})
		if !ok || got.ID != "q2" {
			t.Errorf("seed %d: selected %q, want q2 (highest information)", seed, got.ID)
		}
	}
}

func TestSelect_ExplorePhaseStaysInTopThree(t *testing.T) {
	items := []irt.Item{
		calibrated("q1", irt.TierIntermediate, 2.0, 0, 0.2),
		calibrated("q2", irt.TierIntermediate, 1.8, 0, 0.2),
		calibrated("q3", irt.TierIntermediate, 1.6, 0, 0.2),
		calibrated("q4", irt.TierExpert, 0.3, 3, 0.2),
	}
	st := State{Ability: 0, ResponseCount: 0}

	s := New(42)
	picked := make(map[string]int)
	for i := 0; i < 200; i++ {
		got, ok := s.Select(items, st, Criteria{TargetDifficulty: 1})
		if !ok {
			t.Fatal("expected a selection")
		}
		picked[got.ID]++
	}

	if picked["q4"] > 0 {
		t.Errorf("exploration picked q4 (outside top 3) %d times", picked["q4"])
	}
	if len(picked) < 2 {
		t.Errorf("exploration always picked the same item: %v", picked)
	}
	if picked["q1"] <= picked["q3"] {
		t.Errorf("expected rank-0 item picked more often than rank-2: %v", picked)
	}
}

func TestSelectBatch_DoesNotMutateState(t *testing.T) {
	s := New(7)
	items := []irt.Item{
		calibrated("q1", irt.TierIntermediate, 1.9, 0, 0.2),
		calibrated("q2", irt.TierIntermediate, 1.5, 0, 0.2),
		calibrated("q3", irt.TierIntermediate, 1.2, 0, 0.2),
	}
	st := exploitState("q0")

	batch := s.SelectBatch(items, st, Criteria{TargetDifficulty: 1}, 5)

	if len(batch) != 3 {
		t.Fatalf("batch size = %d, want 3 (pool exhausts)", len(batch))
	}
	seen := make(map[string]bool)
	for _, it := range batch {
		if seen[it.ID] {
			t.Errorf("batch repeated item %q", it.ID)
		}
		seen[it.ID] = true
	}
	if len(st.Asked) != 1 || st.Asked[0] != "q0" {
		t.Errorf("SelectBatch mutated caller state: %v", st.Asked)
	}
}

func TestTargetDifficultyForAbility(t *testing.T) {
	tests := []struct {
		theta float64
		want  float64
	}{
		{-4.0, 0},
		{-1.5, 0},
		{0.0, 1},
		{1.5, 2},
		{3.0, 3},
		{4.0, 3},
	}
	for _, tt := range tests {
		if got := TargetDifficultyForAbility(tt.theta); got != tt.want {
			t.Errorf("TargetDifficultyForAbility(%.1f) = %f, want %f", tt.theta, got, tt.want)
		}
	}
}
