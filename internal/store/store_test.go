package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	require.NotNil(t, s.Client())
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is only meaningful with file-based DBs.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		require.NoError(t, err, "PRAGMA %s", tt.pragma)
		assert.Equal(t, tt.want, got, "PRAGMA %s", tt.pragma)
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Monotonically increasing starting from 1.
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		require.NoError(t, err, "next %d", i)
		assert.Equal(t, int64(i+1), seq)
	}
}

func TestResponseEventsAndAccuracy(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	responses := []ResponseEventData{
		{SessionID: "s1", UserID: "u1", ItemID: "q1", Tier: "beginner", ItemType: "multiple_choice", Correct: true, Score: 1, AbilityAfter: 0.2},
		{SessionID: "s1", UserID: "u1", ItemID: "q2", Tier: "beginner", ItemType: "multiple_choice", Correct: false, Score: 0, AbilityAfter: -0.1},
		{SessionID: "s1", UserID: "u1", ItemID: "q3", Tier: "intermediate", ItemType: "short_answer", Correct: true, Score: 1, AbilityAfter: 0.3},
		{SessionID: "s2", UserID: "u2", ItemID: "q1", Tier: "beginner", ItemType: "multiple_choice", Correct: false, Score: 0, AbilityAfter: -0.4},
	}
	for i, data := range responses {
		require.NoError(t, repo.AppendResponse(ctx, data), "append %d", i)
	}

	acc, err := repo.SessionAccuracy(ctx, "s1")
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, acc, 1e-9)

	// Unknown session has no responses.
	acc, err = repo.SessionAccuracy(ctx, "nope")
	require.NoError(t, err)
	assert.Zero(t, acc)
}

func TestSessionSummaries(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i, action := range []string{"started", "completed"} {
		err := repo.AppendSessionEvent(ctx, SessionEventData{
			SessionID:      "s1",
			UserID:         "u1",
			Action:         action,
			ItemsServed:    i * 10,
			CorrectAnswers: i * 7,
			FinalAbility:   0.5,
			Confidence:     0.8,
		})
		require.NoError(t, err, "append session event")
	}

	summaries, err := repo.SessionSummaries(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Newest first.
	assert.Equal(t, "completed", summaries[0].Action)
	assert.Equal(t, 10, summaries[0].ItemsServed)
	assert.Equal(t, 7, summaries[0].CorrectAnswers)

	limited, err := repo.SessionSummaries(ctx, QueryOpts{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestLLMUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "m", Purpose: "grade-response", InputTokens: 100, OutputTokens: 50, Success: true},
		{Provider: "anthropic", Model: "m", Purpose: "grade-response", InputTokens: 80, OutputTokens: 0, Success: false, ErrorMessage: "timeout"},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, e))
	}

	totals, err := repo.LLMUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Requests)
	assert.Equal(t, 1, totals.Failures)
	assert.Equal(t, 180, totals.InputTokens)
	assert.Equal(t, 50, totals.OutputTokens)
}

func TestSnapshotSaveAndLatest(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	// No snapshot yet.
	snap, err := repo.Latest(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, snap)

	now := time.Now().UTC().Truncate(time.Second)
	err = repo.Save(ctx, &Snapshot{
		UserID:    "u1",
		Sequence:  42,
		Timestamp: now,
		Data:      SnapshotData{Version: 1, Ability: 0.75, Accuracy: 0.8},
	})
	require.NoError(t, err)

	snap, err = repo.Latest(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, int64(42), snap.Sequence)
	assert.Equal(t, 0.75, snap.Data.Ability)

	// Another user sees nothing.
	snap, err = repo.Latest(ctx, "u2")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshotRecentChronological(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 6; i++ {
		err := repo.Save(ctx, &Snapshot{
			UserID:    "u1",
			Sequence:  int64(i + 1),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Data:      SnapshotData{Version: 1, Ability: float64(i) * 0.1},
		})
		require.NoError(t, err, "save %d", i)
	}

	recent, err := repo.Recent(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	// Oldest first within the window: sequences 4, 5, 6.
	for i, snap := range recent {
		assert.Equal(t, int64(i+4), snap.Sequence, "recent[%d]", i)
	}
}

func TestSnapshotPrune(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 7; i++ {
		err := repo.Save(ctx, &Snapshot{
			UserID:    "u1",
			Sequence:  int64(i + 1),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Data:      SnapshotData{Version: 1},
		})
		require.NoError(t, err, "save %d", i)
	}
	// Another user's snapshot must survive the prune.
	err := repo.Save(ctx, &Snapshot{
		UserID:    "u2",
		Sequence:  100,
		Timestamp: base,
		Data:      SnapshotData{Version: 1},
	})
	require.NoError(t, err)

	require.NoError(t, repo.Prune(ctx, "u1", 5))

	count, err := s.Client().Snapshot.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count) // 5 for u1 + 1 for u2

	snap, err := repo.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), snap.Sequence)
}

func TestSnapshotPruneWithFewerThanKeep(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 2; i++ {
		err := repo.Save(ctx, &Snapshot{
			UserID:    "u1",
			Sequence:  int64(i + 1),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Data:      SnapshotData{Version: 1},
		})
		require.NoError(t, err, "save %d", i)
	}

	// keep=5 with only 2 stored is a no-op.
	require.NoError(t, repo.Prune(ctx, "u1", 5))

	count, err := s.Client().Snapshot.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
