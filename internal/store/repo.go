package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// ResponseEventData captures a single graded response.
type ResponseEventData struct {
	SessionID    string
	UserID       string
	ItemID       string
	Tier         string
	ItemType     string
	Correct      bool
	Score        float64
	TimeMs       int
	AbilityAfter float64
}

// SessionEventData captures a session lifecycle transition.
type SessionEventData struct {
	SessionID      string
	UserID         string
	Action         string // started, completed, expired
	ItemsServed    int
	CorrectAnswers int
	FinalAbility   float64
	Confidence     float64
	DurationSecs   int
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// SessionSummary is a completed-session record used for reporting.
type SessionSummary struct {
	Sequence       int64
	Timestamp      time.Time
	SessionID      string
	UserID         string
	Action         string
	ItemsServed    int
	CorrectAnswers int
	FinalAbility   float64
	Confidence     float64
	DurationSecs   int
}

// LLMTotals aggregates LLM usage across all recorded requests.
type LLMTotals struct {
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendResponse records a graded response event.
	AppendResponse(ctx context.Context, data ResponseEventData) error

	// AppendSessionEvent records a session lifecycle event.
	AppendSessionEvent(ctx context.Context, data SessionEventData) error

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// SessionAccuracy returns the fraction of correct responses in a
	// session, or 0 when the session has no responses.
	SessionAccuracy(ctx context.Context, sessionID string) (float64, error)

	// SessionSummaries returns session lifecycle events, newest first.
	SessionSummaries(ctx context.Context, opts QueryOpts) ([]SessionSummary, error)

	// LLMUsage aggregates recorded LLM requests.
	LLMUsage(ctx context.Context) (LLMTotals, error)
}

// SnapshotData is a per-examinee performance snapshot recorded at
// session completion.
type SnapshotData struct {
	Version       int     `json:"version"`
	Ability       float64 `json:"ability"`
	Confidence    float64 `json:"confidence"`
	Accuracy      float64 `json:"accuracy"`
	AvgResponseMs float64 `json:"avg_response_ms"`
	ItemsAnswered int     `json:"items_answered"`
}

// Snapshot represents one examinee performance snapshot.
type Snapshot struct {
	ID        int
	UserID    string
	Sequence  int64
	Timestamp time.Time
	Data      SnapshotData
}

// SnapshotRepo manages per-examinee performance snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the user's most recent snapshot, or nil if none exist.
	Latest(ctx context.Context, userID string) (*Snapshot, error)

	// Recent returns up to n of the user's most recent snapshots in
	// chronological order (oldest first).
	Recent(ctx context.Context, userID string, n int) ([]*Snapshot, error)

	// Prune deletes all but the user's N most recent snapshots.
	Prune(ctx context.Context, userID string, keep int) error
}
