package trend

import (
	"context"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/examly/adaptive-core/internal/irt"
	"github.com/examly/adaptive-core/internal/store"
)

// memSnapshots is an in-memory store.SnapshotRepo for advisor tests.
type memSnapshots struct {
	rows []*store.Snapshot
}

func (m *memSnapshots) Save(_ context.Context, snap *store.Snapshot) error {
	c := *snap
	m.rows = append(m.rows, &c)
	return nil
}

func (m *memSnapshots) forUser(userID string) []*store.Snapshot {
	var out []*store.Snapshot
	for _, s := range m.rows {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (m *memSnapshots) Latest(_ context.Context, userID string) (*store.Snapshot, error) {
	rows := m.forUser(userID)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[len(rows)-1], nil
}

func (m *memSnapshots) Recent(_ context.Context, userID string, n int) ([]*store.Snapshot, error) {
	rows := m.forUser(userID)
	if len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	return rows, nil
}

func (m *memSnapshots) Prune(_ context.Context, userID string, keep int) error {
	rows := m.forUser(userID)
	if len(rows) <= keep {
		return nil
	}
	drop := make(map[*store.Snapshot]bool)
	for _, s := range rows[:len(rows)-keep] {
		drop[s] = true
	}
	var kept []*store.Snapshot
	for _, s := range m.rows {
		if !drop[s] {
			kept = append(kept, s)
		}
	}
	m.rows = kept
	return nil
}

// record seeds n snapshots for userID with fixed stats.
func record(t *testing.T, a *Advisor, userID string, n int, accuracy, avgMs, ab float64) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := a.Record(context.Background(), userID, PerformanceSnapshot{
			CorrectCount:      int(accuracy * 10),
			TotalCount:        10,
			AvgResponseTimeMs: avgMs,
			AbilityEstimate:   ab,
			ConfidenceLevel:   0.8,
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}
}

func TestRecommend_NoHistory(t *testing.T) {
	a := NewAdvisor(&memSnapshots{})

	rec, err := a.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.SuggestedTier != irt.TierIntermediate {
		t.Errorf("suggested = %s, want intermediate default", rec.SuggestedTier)
	}
	if rec.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", rec.Confidence)
	}
	if len(rec.Reasoning) == 0 {
		t.Error("expected reasoning for the no-history case")
	}
}

func TestRecommend_HighAccuracyRaisesTier(t *testing.T) {
	a := NewAdvisor(&memSnapshots{})
	// Ability 0.0 maps to intermediate; 90% accuracy should raise it.
	record(t, a, "u1", 5, 0.9, 45_000, 0.0)

	rec, err := a.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.CurrentTier != irt.TierIntermediate {
		t.Errorf("current = %s, want intermediate", rec.CurrentTier)
	}
	if rec.SuggestedTier != irt.TierAdvanced {
		t.Errorf("suggested = %s, want advanced", rec.SuggestedTier)
	}
}

func TestRecommend_LowAccuracyLowersTier(t *testing.T) {
	a := NewAdvisor(&memSnapshots{})
	record(t, a, "u1", 5, 0.3, 45_000, 0.0)

	rec, err := a.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.SuggestedTier != irt.TierBeginner {
		t.Errorf("suggested = %s, want beginner", rec.SuggestedTier)
	}
}

func TestRecommend_FastResponsesRaiseTier(t *testing.T) {
	a := NewAdvisor(&memSnapshots{})
	// 70% accuracy is in-range, but 20s against the 45s intermediate
	// expectation is under the 0.6 ratio.
	record(t, a, "u1", 5, 0.7, 20_000, 0.0)

	rec, err := a.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.SuggestedTier != irt.TierAdvanced {
		t.Errorf("suggested = %s, want advanced", rec.SuggestedTier)
	}
}

func TestRecommend_SlowResponsesLowerTier(t *testing.T) {
	a := NewAdvisor(&memSnapshots{})
	record(t, a, "u1", 5, 0.7, 80_000, 0.0)

	rec, err := a.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.SuggestedTier != irt.TierBeginner {
		t.Errorf("suggested = %s, want beginner", rec.SuggestedTier)
	}
}

func TestRecommend_InRangeKeepsTier(t *testing.T) {
	a := NewAdvisor(&memSnapshots{})
	record(t, a, "u1", 5, 0.7, 45_000, 0.0)

	rec, err := a.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.SuggestedTier != rec.CurrentTier {
		t.Errorf("suggested = %s, want unchanged %s", rec.SuggestedTier, rec.CurrentTier)
	}
}

func TestRecommend_ExpertNotRaisedBeyondTop(t *testing.T) {
	a := NewAdvisor(&memSnapshots{})
	record(t, a, "u1", 5, 0.95, 45_000, 3.0)

	rec, err := a.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.SuggestedTier != irt.TierExpert {
		t.Errorf("suggested = %s, want expert (clamped)", rec.SuggestedTier)
	}
}

func TestRecommend_AdjustmentFactorScalesSpeed(t *testing.T) {
	// Factor 2.0 doubles the expected times: 80s is no longer slow for
	// the intermediate tier (1.5 x 90s = 135s).
	a := NewAdvisor(&memSnapshots{}, WithAdjustmentFactor(2.0))
	record(t, a, "u1", 5, 0.7, 80_000, 0.0)

	rec, err := a.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.SuggestedTier != rec.CurrentTier {
		t.Errorf("suggested = %s, want unchanged with relaxed thresholds", rec.SuggestedTier)
	}
}

func TestRecommend_VolatileAbilityLowersConfidence(t *testing.T) {
	repo := &memSnapshots{}
	a := NewAdvisor(repo)

	abilities := []float64{-2, 2, -2, 2, -2}
	for i, ab := range abilities {
		repo.rows = append(repo.rows, &store.Snapshot{
			UserID:    "u1",
			Timestamp: time.Now().Add(time.Duration(i) * time.Minute),
			Data:      store.SnapshotData{Version: 1, Ability: ab, Accuracy: 0.7, AvgResponseMs: 45_000},
		})
	}

	rec, err := a.Recommend(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	// Variance of alternating +-2 is about 3.84; confidence floors at 0.
	if rec.Confidence != 0 {
		t.Errorf("confidence = %f, want 0 for volatile ability", rec.Confidence)
	}
}

func TestRecord_EvictsBeyondCap(t *testing.T) {
	repo := &memSnapshots{}
	a := NewAdvisor(repo)

	for i := 0; i < MaxSnapshots+5; i++ {
		err := a.Record(context.Background(), "u1", PerformanceSnapshot{
			CorrectCount: 7, TotalCount: 10, AbilityEstimate: 0.1,
		})
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	if got := len(repo.forUser("u1")); got != MaxSnapshots {
		t.Errorf("stored snapshots = %d, want %d", got, MaxSnapshots)
	}
}

func TestTrendFor_Slopes(t *testing.T) {
	repo := &memSnapshots{}
	a := NewAdvisor(repo)

	// Rising accuracy and ability, falling response time.
	for i := 0; i < 6; i++ {
		repo.rows = append(repo.rows, &store.Snapshot{
			UserID:    "u1",
			Timestamp: time.Now().Add(time.Duration(i) * time.Minute),
			Data: store.SnapshotData{
				Version:       1,
				Accuracy:      0.5 + 0.05*float64(i),
				AvgResponseMs: 60_000 - 2_000*float64(i),
				Ability:       -0.5 + 0.2*float64(i),
			},
		})
	}

	tr, err := a.TrendFor(context.Background(), "u1")
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if tr.Accuracy <= 0 {
		t.Errorf("accuracy slope = %f, want positive", tr.Accuracy)
	}
	if math.Abs(tr.Accuracy-0.05) > 1e-9 {
		t.Errorf("accuracy slope = %f, want 0.05", tr.Accuracy)
	}
	if tr.Speed >= 0 {
		t.Errorf("speed slope = %f, want negative", tr.Speed)
	}
	if tr.Ability <= 0 {
		t.Errorf("ability slope = %f, want positive", tr.Ability)
	}
}

func TestTrendFor_InsufficientHistory(t *testing.T) {
	a := NewAdvisor(&memSnapshots{})

	tr, err := a.TrendFor(context.Background(), "u1")
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if *tr != (Trend{}) {
		t.Errorf("trend = %+v, want zero slopes", tr)
	}
}

func TestTierForAbility(t *testing.T) {
	tests := []struct {
		theta float64
		want  irt.Tier
	}{
		{-3.0, irt.TierBeginner},
		{-1.5, irt.TierBeginner},
		{-1.0, irt.TierBeginner},
		{-0.4, irt.TierIntermediate},
		{0.0, irt.TierIntermediate},
		{0.9, irt.TierAdvanced},
		{1.5, irt.TierAdvanced},
		{2.5, irt.TierExpert},
		{4.0, irt.TierExpert},
	}
	for _, tt := range tests {
		if got := TierForAbility(tt.theta); got != tt.want {
			t.Errorf("TierForAbility(%g) = %s, want %s", tt.theta, got, tt.want)
		}
	}
}
