package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/examly/adaptive-core/internal/grading"
	"github.com/examly/adaptive-core/internal/irt"
	"github.com/examly/adaptive-core/internal/itembank"
	"github.com/examly/adaptive-core/internal/store"
)

// testBank builds a deterministic pool of n calibrated items spread
// across all tiers.
func testBank(n int) *itembank.MemoryBank {
	items := make([]irt.Item, n)
	for i := 0; i < n; i++ {
		tier := irt.AllTiers[i%len(irt.AllTiers)]
		items[i] = irt.Item{
			ID:        fmt.Sprintf("q%02d", i),
			Text:      fmt.Sprintf("question %d", i),
			Tier:      tier,
			Type:      irt.TypeMultipleChoice,
			AnswerKey: "42",
			Tags:      []string{"algebra"},
			Calibrated: &irt.Params{
				Discrimination: 0.8 + 0.05*float64(i%8),
				Difficulty:     tier.Ability() + 0.1*float64(i%3),
				Guessing:       0.2,
			},
		}
	}
	return itembank.NewMemoryBank(items...)
}

func testEngine(bank itembank.Bank, opts ...Option) *Engine {
	return NewEngine(bank, NewMemoryStore(), append([]Option{WithSeed(7)}, opts...)...)
}

// memEvents is a recording store.EventRepo fake.
type memEvents struct {
	responses []store.ResponseEventData
	sessions  []store.SessionEventData
	llm       []store.LLMRequestEventData
}

func (m *memEvents) AppendResponse(_ context.Context, d store.ResponseEventData) error {
	m.responses = append(m.responses, d)
	return nil
}

func (m *memEvents) AppendSessionEvent(_ context.Context, d store.SessionEventData) error {
	m.sessions = append(m.sessions, d)
	return nil
}

func (m *memEvents) AppendLLMRequest(_ context.Context, d store.LLMRequestEventData) error {
	m.llm = append(m.llm, d)
	return nil
}

func (m *memEvents) SessionAccuracy(context.Context, string) (float64, error) {
	return 0, nil
}

func (m *memEvents) SessionSummaries(context.Context, store.QueryOpts) ([]store.SessionSummary, error) {
	return nil, nil
}

func (m *memEvents) LLMUsage(context.Context) (store.LLMTotals, error) {
	return store.LLMTotals{}, nil
}

func TestStartSession_IntermediateAbility(t *testing.T) {
	e := testEngine(testBank(20))
	cfg := AdaptiveConfig{InitialTier: irt.TierIntermediate, MinItems: 5, MaxItems: 20, ConfidenceThreshold: 0.8}

	st, err := e.StartSession(context.Background(), "u1", "a1", cfg)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if st.CurrentAbility != 0.0 {
		t.Errorf("ability = %f, want 0.0", st.CurrentAbility)
	}
	if st.NextItemID == "" {
		t.Error("expected a non-empty next item")
	}
	if st.IsComplete {
		t.Error("new session must not be complete")
	}
	if st.SessionID == "" {
		t.Error("expected a generated session id")
	}
}

func TestStartSession_BeginnerAbility(t *testing.T) {
	e := testEngine(testBank(20))
	cfg := AdaptiveConfig{InitialTier: irt.TierBeginner, MinItems: 5, MaxItems: 20, ConfidenceThreshold: 0.8}

	st, err := e.StartSession(context.Background(), "u1", "a1", cfg)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if st.CurrentAbility != -1.5 {
		t.Errorf("ability = %f, want -1.5", st.CurrentAbility)
	}
}

func TestStartSession_InvalidConfig(t *testing.T) {
	e := testEngine(testBank(20))
	cfg := AdaptiveConfig{InitialTier: irt.TierBeginner, MinItems: 10, MaxItems: 5, ConfidenceThreshold: 0.8}

	_, err := e.StartSession(context.Background(), "u1", "a1", cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestStartSession_EmptyPool(t *testing.T) {
	e := testEngine(itembank.NewMemoryBank())
	cfg := DefaultConfig()

	_, err := e.StartSession(context.Background(), "u1", "a1", cfg)
	if !errors.Is(err, ErrNoCandidateItems) {
		t.Errorf("err = %v, want ErrNoCandidateItems", err)
	}
}

func TestSubmitResponse_UnknownSession(t *testing.T) {
	e := testEngine(testBank(20))

	_, err := e.SubmitResponse(context.Background(), "ghost", "a1", Response{ItemID: "q00"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSubmitResponse_LowThresholdCompletesAtMin(t *testing.T) {
	e := testEngine(testBank(20))
	cfg := AdaptiveConfig{InitialTier: irt.TierIntermediate, MinItems: 2, MaxItems: 20, ConfidenceThreshold: 0.1}
	ctx := context.Background()

	st, err := e.StartSession(ctx, "u1", "a1", cfg)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// High-confidence correct responses until completion.
	for i := 0; i < 5 && !st.IsComplete; i++ {
		st, err = e.SubmitResponse(ctx, "u1", "a1", Response{ItemID: st.NextItemID, Confidence: 0.95})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	if !st.IsComplete {
		t.Fatal("session should have completed")
	}
	// The 0.1 threshold is met as soon as minItems is satisfied.
	if len(st.Responses) != 2 {
		t.Errorf("responses = %d, want 2", len(st.Responses))
	}
	if st.EstimatedCompletionPct != 100 {
		t.Errorf("completion = %f, want 100", st.EstimatedCompletionPct)
	}
	if st.NextItemID != "" {
		t.Errorf("next item = %q, want empty on completion", st.NextItemID)
	}
}

func TestSubmitResponse_AfterCompleteFails(t *testing.T) {
	e := testEngine(testBank(20))
	cfg := AdaptiveConfig{InitialTier: irt.TierIntermediate, MinItems: 1, MaxItems: 20, ConfidenceThreshold: 0.1}
	ctx := context.Background()

	st, _ := e.StartSession(ctx, "u1", "a1", cfg)
	st, err := e.SubmitResponse(ctx, "u1", "a1", Response{ItemID: st.NextItemID, Confidence: 0.9})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !st.IsComplete {
		t.Fatal("session should be complete")
	}

	_, err = e.SubmitResponse(ctx, "u1", "a1", Response{ItemID: "q05", Confidence: 0.9})
	if !errors.Is(err, ErrSessionAlreadyComplete) {
		t.Errorf("err = %v, want ErrSessionAlreadyComplete", err)
	}
}

func TestSubmitResponse_PoolExhaustionForcesCompletion(t *testing.T) {
	e := testEngine(testBank(2))
	cfg := AdaptiveConfig{InitialTier: irt.TierIntermediate, MinItems: 5, MaxItems: 20, ConfidenceThreshold: 0.99}
	ctx := context.Background()

	st, err := e.StartSession(ctx, "u1", "a1", cfg)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	st, err = e.SubmitResponse(ctx, "u1", "a1", Response{ItemID: st.NextItemID, Confidence: 0.9})
	if err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if st.IsComplete {
		t.Fatal("one item left, session should continue")
	}

	st, err = e.SubmitResponse(ctx, "u1", "a1", Response{ItemID: st.NextItemID, Confidence: 0.9})
	if err != nil {
		t.Fatalf("submit 2: %v", err)
	}
	if !st.IsComplete {
		t.Error("exhausted pool must force completion despite minItems")
	}
	if len(st.Responses) != 2 {
		t.Errorf("responses = %d, want 2", len(st.Responses))
	}
}

func TestSubmitResponse_InvariantsHoldThroughout(t *testing.T) {
	e := testEngine(testBank(40))
	cfg := AdaptiveConfig{InitialTier: irt.TierIntermediate, MinItems: 3, MaxItems: 8, ConfidenceThreshold: 0.99}
	ctx := context.Background()

	st, err := e.StartSession(ctx, "u1", "a1", cfg)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	confidences := []float64{0.9, 0.2, 0.8, 0.3, 0.9, 0.9, 0.1, 0.7}
	for i := 0; !st.IsComplete && i < len(confidences); i++ {
		st, err = e.SubmitResponse(ctx, "u1", "a1", Response{
			ItemID:     st.NextItemID,
			Confidence: confidences[i],
			TimeMs:     20_000,
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}

		if len(st.Responses) != len(st.QuestionsAsked) || len(st.Responses) != len(st.AbilityHistory) {
			t.Fatalf("lengths diverged: responses=%d asked=%d history=%d",
				len(st.Responses), len(st.QuestionsAsked), len(st.AbilityHistory))
		}
		seen := make(map[string]bool)
		for _, id := range st.QuestionsAsked {
			if seen[id] {
				t.Fatalf("duplicate item %s in questionsAsked", id)
			}
			seen[id] = true
		}
		if st.CurrentAbility < irt.MinAbility || st.CurrentAbility > irt.MaxAbility {
			t.Fatalf("ability %f out of bounds", st.CurrentAbility)
		}
	}

	if !st.IsComplete {
		t.Fatal("session should have completed within maxItems")
	}
	if len(st.Responses) > cfg.MaxItems {
		t.Errorf("responses = %d exceeds max %d", len(st.Responses), cfg.MaxItems)
	}
	if len(st.Responses) < cfg.MinItems {
		t.Errorf("responses = %d below min %d with a full pool", len(st.Responses), cfg.MinItems)
	}
}

func TestSubmitResponse_DuplicateItemRejected(t *testing.T) {
	e := testEngine(testBank(20))
	cfg := AdaptiveConfig{InitialTier: irt.TierIntermediate, MinItems: 3, MaxItems: 20, ConfidenceThreshold: 0.99}
	ctx := context.Background()

	st, _ := e.StartSession(ctx, "u1", "a1", cfg)
	first := st.NextItemID

	if _, err := e.SubmitResponse(ctx, "u1", "a1", Response{ItemID: first, Confidence: 0.9}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := e.SubmitResponse(ctx, "u1", "a1", Response{ItemID: first, Confidence: 0.9}); err == nil {
		t.Error("expected error resubmitting the same item")
	}
}

func TestGetSessionState_Idempotent(t *testing.T) {
	e := testEngine(testBank(20))
	ctx := context.Background()

	if _, err := e.StartSession(ctx, "u1", "a1", DefaultConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}

	first, err := e.GetSessionState(ctx, "u1", "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := e.GetSessionState(ctx, "u1", "a1")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated reads without submissions must return identical state")
	}

	if _, err := e.GetSessionState(ctx, "ghost", "a1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestGraderPreferredOverConfidenceProxy(t *testing.T) {
	e := testEngine(testBank(20), WithGrader(grading.NewKeyGrader()))
	cfg := AdaptiveConfig{InitialTier: irt.TierIntermediate, MinItems: 3, MaxItems: 20, ConfidenceThreshold: 0.99}
	ctx := context.Background()

	st, _ := e.StartSession(ctx, "u1", "a1", cfg)

	// Wrong answer with high self-reported confidence: the grader wins.
	st, err := e.SubmitResponse(ctx, "u1", "a1", Response{
		ItemID:     st.NextItemID,
		Answer:     "wrong",
		Confidence: 0.95,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if st.Responses[0].Correct {
		t.Error("grader verdict should override the confidence proxy")
	}

	// Right answer with low confidence.
	st, err = e.SubmitResponse(ctx, "u1", "a1", Response{
		ItemID:     st.NextItemID,
		Answer:     "42",
		Confidence: 0.1,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !st.Responses[1].Correct {
		t.Error("grader verdict should mark the keyed answer correct")
	}
}

func TestEventsRecorded(t *testing.T) {
	events := &memEvents{}
	e := testEngine(testBank(20), WithEventRepo(events))
	cfg := AdaptiveConfig{InitialTier: irt.TierIntermediate, MinItems: 1, MaxItems: 20, ConfidenceThreshold: 0.1}
	ctx := context.Background()

	st, _ := e.StartSession(ctx, "u1", "a1", cfg)
	if _, err := e.SubmitResponse(ctx, "u1", "a1", Response{ItemID: st.NextItemID, Confidence: 0.9}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(events.sessions) != 2 {
		t.Fatalf("session events = %d, want started + completed", len(events.sessions))
	}
	if events.sessions[0].Action != "started" || events.sessions[1].Action != "completed" {
		t.Errorf("actions = %s, %s", events.sessions[0].Action, events.sessions[1].Action)
	}
	if len(events.responses) != 1 {
		t.Fatalf("response events = %d, want 1", len(events.responses))
	}
	if events.responses[0].ItemID == "" || events.responses[0].UserID != "u1" {
		t.Errorf("response event = %+v", events.responses[0])
	}
}

func TestCleanupExpiredStates(t *testing.T) {
	st := NewMemoryStore()
	e := NewEngine(testBank(20), st, WithSeed(7))
	ctx := context.Background()

	// One session runs to completion, one stays active, one goes stale.
	doneCfg := AdaptiveConfig{InitialTier: irt.TierIntermediate, MinItems: 1, MaxItems: 20, ConfidenceThreshold: 0.1}
	s1, _ := e.StartSession(ctx, "done", "a1", doneCfg)
	if _, err := e.SubmitResponse(ctx, "done", "a1", Response{ItemID: s1.NextItemID, Confidence: 0.9}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := e.StartSession(ctx, "active", "a1", DefaultConfig()); err != nil {
		t.Fatalf("start active: %v", err)
	}

	if _, err := e.StartSession(ctx, "stale", "a1", DefaultConfig()); err != nil {
		t.Fatalf("start stale: %v", err)
	}
	stale, _ := st.Get(ctx, Key("stale", "a1"))
	stale.LastActivity = time.Now().Add(-48 * time.Hour)
	if err := st.Put(ctx, stale); err != nil {
		t.Fatalf("age stale session: %v", err)
	}

	removed, err := e.CleanupExpiredStates(ctx, DefaultRetention)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want completed + stale", removed)
	}

	if _, err := e.GetSessionState(ctx, "active", "a1"); err != nil {
		t.Errorf("active session should survive the sweep: %v", err)
	}
	if _, err := e.GetSessionState(ctx, "done", "a1"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("completed session should be swept")
	}
	if _, err := e.GetSessionState(ctx, "stale", "a1"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("stale session should be swept")
	}
}
