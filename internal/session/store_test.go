package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_PutGet(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	st := &State{
		SessionID:      "sid",
		UserID:         "u1",
		AssessmentID:   "a1",
		CurrentAbility: 0.5,
		QuestionsAsked: []string{"q1"},
		AbilityHistory: []float64{0.5},
		Responses:      []Response{{ItemID: "q1", Correct: true}},
	}
	if err := m.Put(ctx, st); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := m.Get(ctx, Key("u1", "a1"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.SessionID != "sid" {
		t.Fatalf("got %+v, want stored session", got)
	}
}

func TestMemoryStore_MissingKey(t *testing.T) {
	m := NewMemoryStore()

	got, err := m.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for missing key", got)
	}
}

func TestMemoryStore_ClonesIsolateCallers(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	st := &State{
		UserID:         "u1",
		AssessmentID:   "a1",
		QuestionsAsked: []string{"q1"},
	}
	if err := m.Put(ctx, st); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Mutating the original after Put must not affect the store.
	st.QuestionsAsked = append(st.QuestionsAsked, "q2")

	got, _ := m.Get(ctx, Key("u1", "a1"))
	if len(got.QuestionsAsked) != 1 {
		t.Errorf("stored asked = %v, want unaffected by caller mutation", got.QuestionsAsked)
	}

	// Mutating a Get result must not affect the store either.
	got.QuestionsAsked[0] = "mutated"
	again, _ := m.Get(ctx, Key("u1", "a1"))
	if again.QuestionsAsked[0] != "q1" {
		t.Errorf("stored asked[0] = %q, want q1", again.QuestionsAsked[0])
	}
}

func TestMemoryStore_DeleteAndAll(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	for _, u := range []string{"u1", "u2", "u3"} {
		err := m.Put(ctx, &State{UserID: u, AssessmentID: "a1", LastActivity: time.Now()})
		if err != nil {
			t.Fatalf("put %s: %v", u, err)
		}
	}

	all, err := m.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all = %d sessions, want 3", len(all))
	}

	if err := m.Delete(ctx, Key("u2", "a1")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("len = %d after delete, want 2", m.Len())
	}

	// Deleting an absent key is a no-op.
	if err := m.Delete(ctx, "absent"); err != nil {
		t.Errorf("delete absent: %v", err)
	}
}
