package session

import (
	"time"

	"github.com/examly/adaptive-core/internal/irt"
)

// Status is the lifecycle phase of a session.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
)

// Response is one submitted answer together with its grading outcome.
// Params and Correct are resolved by the engine at submission time; the
// caller supplies the rest.
type Response struct {
	ItemID string `json:"item_id"`

	// Answer is the raw submitted answer, used for grading.
	Answer string `json:"answer"`

	// Confidence is the caller's self-reported confidence in [0, 1].
	// Used as a correctness proxy when no grader is available.
	Confidence float64 `json:"confidence"`

	// TimeMs is the time taken to answer, in milliseconds.
	TimeMs int `json:"time_ms"`

	// Params are the IRT parameters of the answered item, resolved at
	// submission so ability re-estimation never needs an item lookup.
	Params irt.Params `json:"params"`

	// Correct is the grading outcome.
	Correct bool `json:"correct"`

	// Score is the normalized grade in [0, 1].
	Score float64 `json:"score"`
}

// State is the full adaptive state of one assessment session, keyed by
// (user, assessment). It is owned exclusively by the Engine; callers
// receive deep copies.
type State struct {
	SessionID    string `json:"session_id"`
	UserID       string `json:"user_id"`
	AssessmentID string `json:"assessment_id"`

	Config AdaptiveConfig `json:"config"`

	// CurrentAbility is the running theta estimate, always in [-4, 4].
	CurrentAbility float64 `json:"current_ability"`

	// AbilityHistory holds one theta per processed response, in
	// submission order.
	AbilityHistory []float64 `json:"ability_history"`

	// QuestionsAsked holds served item IDs in order, no duplicates.
	// Index-aligned with Responses.
	QuestionsAsked []string `json:"questions_asked"`

	Responses []Response `json:"responses"`

	// ConfidenceLevel is the measurement confidence in [0, 1].
	ConfidenceLevel float64 `json:"confidence_level"`

	IsComplete bool `json:"is_complete"`

	// NextItemID is the item to serve next. Empty once complete.
	NextItemID string `json:"next_item_id"`

	EstimatedCompletionPct float64 `json:"estimated_completion_pct"`

	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Key builds the store key for a (user, assessment) pair.
func Key(userID, assessmentID string) string {
	return userID + ":" + assessmentID
}

// Key returns the store key of this state.
func (s *State) Key() string {
	return Key(s.UserID, s.AssessmentID)
}

// Status reports the lifecycle phase.
func (s *State) Status() Status {
	if s.IsComplete {
		return StatusComplete
	}
	return StatusInProgress
}

// CorrectCount returns the number of correct responses so far.
func (s *State) CorrectCount() int {
	n := 0
	for _, r := range s.Responses {
		if r.Correct {
			n++
		}
	}
	return n
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate engine-owned state.
func (s *State) Clone() *State {
	c := *s
	c.AbilityHistory = append([]float64(nil), s.AbilityHistory...)
	c.QuestionsAsked = append([]string(nil), s.QuestionsAsked...)
	c.Responses = append([]Response(nil), s.Responses...)
	c.Config.ContentTags = append([]string(nil), s.Config.ContentTags...)
	return &c
}
