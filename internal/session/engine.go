// Package session owns the per-(user, assessment) adaptive state machine:
// it orchestrates ability estimation and item selection on every submitted
// response and applies the continuation policy that decides when a test
// has gathered enough evidence to stop.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/examly/adaptive-core/internal/ability"
	"github.com/examly/adaptive-core/internal/grading"
	"github.com/examly/adaptive-core/internal/irt"
	"github.com/examly/adaptive-core/internal/itembank"
	"github.com/examly/adaptive-core/internal/selector"
	"github.com/examly/adaptive-core/internal/store"
	"github.com/examly/adaptive-core/internal/trend"
)

// DefaultRetention is how long an idle session survives before the
// expiry sweep reclaims it.
const DefaultRetention = 24 * time.Hour

// Engine drives adaptive assessment sessions. All mutations of a single
// session are serialized through a per-key mutex; sessions with
// different keys proceed independently.
type Engine struct {
	bank     itembank.Bank
	sessions SessionStore
	selector *selector.Selector
	grader   grading.Grader
	events   store.EventRepo
	advisor  *trend.Advisor
	log      *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithGrader installs an authoritative grader. Without one, correctness
// falls back to the self-reported confidence proxy.
func WithGrader(g grading.Grader) Option {
	return func(e *Engine) { e.grader = g }
}

// WithEventRepo enables event-sourced persistence of responses and
// session transitions.
func WithEventRepo(r store.EventRepo) Option {
	return func(e *Engine) { e.events = r }
}

// WithTrendAdvisor records a performance snapshot with the advisor on
// every session completion.
func WithTrendAdvisor(a *trend.Advisor) Option {
	return func(e *Engine) { e.advisor = a }
}

// WithLogger installs a structured logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithSeed fixes the selector's exploration seed, for deterministic tests.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.selector = selector.New(seed) }
}

// NewEngine creates an Engine over the given item bank and session store.
func NewEngine(bank itembank.Bank, sessions SessionStore, opts ...Option) *Engine {
	e := &Engine{
		bank:     bank,
		sessions: sessions,
		selector: selector.New(uint64(time.Now().UnixNano())),
		log:      zap.NewNop(),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartSession creates a fresh session for the key, replacing any prior
// one, and selects the first item. The starting ability comes from the
// configured initial tier.
func (e *Engine) StartSession(ctx context.Context, userID, assessmentID string, cfg AdaptiveConfig) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lock := e.keyLock(Key(userID, assessmentID))
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	st := &State{
		SessionID:      uuid.NewString(),
		UserID:         userID,
		AssessmentID:   assessmentID,
		Config:         cfg,
		CurrentAbility: cfg.InitialTier.Ability(),
		StartedAt:      now,
		LastActivity:   now,
	}
	st.ConfidenceLevel = Confidence(st.CurrentAbility, nil)
	st.EstimatedCompletionPct = CompletionPct(cfg, 0, st.ConfidenceLevel)

	next, ok, err := e.selectNext(ctx, st)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: assessment %s", ErrNoCandidateItems, assessmentID)
	}
	st.NextItemID = next

	if err := e.sessions.Put(ctx, st); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	e.appendSessionEvent(ctx, st, "started", 0)
	e.log.Info("session started",
		zap.String("session_id", st.SessionID),
		zap.String("user_id", userID),
		zap.String("assessment_id", assessmentID),
		zap.Float64("ability", st.CurrentAbility),
		zap.String("next_item", st.NextItemID),
	)

	return st.Clone(), nil
}

// SubmitResponse processes one answer: grade, re-estimate ability,
// re-check the continuation policy, and pick the next item if the
// session continues.
func (e *Engine) SubmitResponse(ctx context.Context, userID, assessmentID string, resp Response) (*State, error) {
	key := Key(userID, assessmentID)
	lock := e.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	st, err := e.sessions.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if st == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrSessionNotFound, userID, assessmentID)
	}
	if st.IsComplete {
		return nil, fmt.Errorf("%w: %s", ErrSessionAlreadyComplete, st.SessionID)
	}
	for _, id := range st.QuestionsAsked {
		if id == resp.ItemID {
			return nil, fmt.Errorf("item %s already answered in session %s", resp.ItemID, st.SessionID)
		}
	}

	item, err := e.bank.Get(ctx, resp.ItemID)
	if err != nil {
		return nil, fmt.Errorf("resolve item %s: %w", resp.ItemID, err)
	}
	if item != nil {
		resp.Params = item.Params()
	} else {
		// Unknown item: tier-derived defaults keep estimation total.
		resp.Params = irt.DefaultParams(st.Config.InitialTier, "")
	}

	resp.Correct, resp.Score = e.gradeResponse(ctx, item, resp)

	history := make([]ability.Response, len(st.Responses))
	for i, r := range st.Responses {
		history[i] = ability.Response{Params: r.Params, Correct: r.Correct}
	}
	theta := ability.EstimateNext(st.CurrentAbility, history, resp.Params, resp.Correct)

	st.QuestionsAsked = append(st.QuestionsAsked, resp.ItemID)
	st.Responses = append(st.Responses, resp)
	st.CurrentAbility = theta
	st.AbilityHistory = append(st.AbilityHistory, theta)
	st.LastActivity = time.Now().UTC()

	answered := make([]irt.Params, len(st.Responses))
	for i, r := range st.Responses {
		answered[i] = r.Params
	}
	st.ConfidenceLevel = Confidence(theta, answered)

	keepGoing := ShouldContinue(st.Config, len(st.Responses), st.ConfidenceLevel, st.AbilityHistory)
	if keepGoing {
		next, ok, err := e.selectNext(ctx, st)
		if err != nil {
			return nil, err
		}
		if ok {
			st.NextItemID = next
			st.EstimatedCompletionPct = CompletionPct(st.Config, len(st.Responses), st.ConfidenceLevel)
		} else {
			// Pool exhausted: forced termination regardless of policy.
			keepGoing = false
		}
	}
	if !keepGoing {
		e.complete(ctx, st)
	}

	if err := e.sessions.Put(ctx, st); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	e.appendResponseEvent(ctx, st, resp)
	e.log.Debug("response processed",
		zap.String("session_id", st.SessionID),
		zap.String("item_id", resp.ItemID),
		zap.Bool("correct", resp.Correct),
		zap.Float64("ability", theta),
		zap.Float64("confidence", st.ConfidenceLevel),
		zap.Bool("complete", st.IsComplete),
	)

	return st.Clone(), nil
}

// GetSessionState returns a copy of the current state.
func (e *Engine) GetSessionState(ctx context.Context, userID, assessmentID string) (*State, error) {
	st, err := e.sessions.Get(ctx, Key(userID, assessmentID))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if st == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrSessionNotFound, userID, assessmentID)
	}
	return st, nil
}

// CleanupExpiredStates removes completed sessions and sessions idle
// longer than maxAge. Returns the number of sessions removed.
func (e *Engine) CleanupExpiredStates(ctx context.Context, maxAge time.Duration) (int, error) {
	states, err := e.sessions.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	now := time.Now().UTC()
	removed := 0
	for _, st := range states {
		expired := now.Sub(st.LastActivity) > maxAge
		if !st.IsComplete && !expired {
			continue
		}

		lock := e.keyLock(st.Key())
		lock.Lock()
		err := e.sessions.Delete(ctx, st.Key())
		lock.Unlock()
		if err != nil {
			return removed, fmt.Errorf("delete session %s: %w", st.Key(), err)
		}
		removed++

		if expired && !st.IsComplete {
			e.appendSessionEvent(ctx, st, "expired", int(now.Sub(st.StartedAt).Seconds()))
		}
	}

	if removed > 0 {
		e.log.Info("expired sessions swept", zap.Int("removed", removed))
	}
	return removed, nil
}

// gradeResponse determines correctness and score, preferring the
// configured grader and falling back to the confidence proxy.
func (e *Engine) gradeResponse(ctx context.Context, item *irt.Item, resp Response) (bool, float64) {
	if e.grader != nil && item != nil && resp.Answer != "" {
		res, err := e.grader.Grade(ctx, *item, resp.Answer)
		if err == nil {
			score := res.Score
			if res.MaxScore > 0 {
				score = res.Score / res.MaxScore
			}
			return res.IsCorrect, score
		}
		e.log.Warn("grading failed, falling back to confidence proxy",
			zap.String("item_id", resp.ItemID),
			zap.Error(err),
		)
	}

	correct := ability.CorrectFromConfidence(resp.Confidence)
	if correct {
		return true, 1
	}
	return false, 0
}

// selectNext asks the selector for the next item, excluding everything
// already asked. ok is false when the pool is exhausted.
func (e *Engine) selectNext(ctx context.Context, st *State) (string, bool, error) {
	candidates, err := e.bank.Search(ctx, itembank.Filter{ExcludeIDs: st.QuestionsAsked})
	if err != nil {
		return "", false, fmt.Errorf("search items: %w", err)
	}

	item, ok := e.selector.Select(candidates, selector.State{
		Ability:       st.CurrentAbility,
		Asked:         st.QuestionsAsked,
		ResponseCount: len(st.Responses),
	}, selector.Criteria{
		TargetDifficulty: selector.TargetDifficultyForAbility(st.CurrentAbility),
		ContentTags:      st.Config.ContentTags,
	})
	if !ok {
		return "", false, nil
	}
	return item.ID, true, nil
}

// complete marks the session terminal, records the completion event, and
// feeds the trend advisor.
func (e *Engine) complete(ctx context.Context, st *State) {
	st.IsComplete = true
	st.NextItemID = ""
	st.EstimatedCompletionPct = 100

	duration := int(st.LastActivity.Sub(st.StartedAt).Seconds())
	e.appendSessionEvent(ctx, st, "completed", duration)

	if e.advisor != nil {
		totalMs := 0
		for _, r := range st.Responses {
			totalMs += r.TimeMs
		}
		avgMs := 0.0
		if len(st.Responses) > 0 {
			avgMs = float64(totalMs) / float64(len(st.Responses))
		}

		err := e.advisor.Record(ctx, st.UserID, trend.PerformanceSnapshot{
			CorrectCount:      st.CorrectCount(),
			TotalCount:        len(st.Responses),
			AvgResponseTimeMs: avgMs,
			AbilityEstimate:   st.CurrentAbility,
			ConfidenceLevel:   st.ConfidenceLevel,
		})
		if err != nil {
			e.log.Warn("recording trend snapshot failed",
				zap.String("user_id", st.UserID),
				zap.Error(err),
			)
		}
	}

	e.log.Info("session complete",
		zap.String("session_id", st.SessionID),
		zap.Int("responses", len(st.Responses)),
		zap.Float64("final_ability", st.CurrentAbility),
		zap.Float64("confidence", st.ConfidenceLevel),
	)
}

func (e *Engine) appendSessionEvent(ctx context.Context, st *State, action string, durationSecs int) {
	if e.events == nil {
		return
	}
	err := e.events.AppendSessionEvent(ctx, store.SessionEventData{
		SessionID:      st.SessionID,
		UserID:         st.UserID,
		Action:         action,
		ItemsServed:    len(st.QuestionsAsked),
		CorrectAnswers: st.CorrectCount(),
		FinalAbility:   st.CurrentAbility,
		Confidence:     st.ConfidenceLevel,
		DurationSecs:   durationSecs,
	})
	if err != nil {
		e.log.Warn("appending session event failed",
			zap.String("session_id", st.SessionID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func (e *Engine) appendResponseEvent(ctx context.Context, st *State, resp Response) {
	if e.events == nil {
		return
	}
	itemType := "unknown"
	tier := "unknown"
	if item, err := e.bank.Get(ctx, resp.ItemID); err == nil && item != nil {
		itemType = string(item.Type)
		tier = string(item.Tier)
	}
	err := e.events.AppendResponse(ctx, store.ResponseEventData{
		SessionID:    st.SessionID,
		UserID:       st.UserID,
		ItemID:       resp.ItemID,
		Tier:         tier,
		ItemType:     itemType,
		Correct:      resp.Correct,
		Score:        resp.Score,
		TimeMs:       resp.TimeMs,
		AbilityAfter: st.CurrentAbility,
	})
	if err != nil {
		e.log.Warn("appending response event failed",
			zap.String("session_id", st.SessionID),
			zap.String("item_id", resp.ItemID),
			zap.Error(err),
		)
	}
}

// keyLock returns the mutex serializing writers for one session key.
func (e *Engine) keyLock(key string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	return l
}
