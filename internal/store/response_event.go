package store

import (
	"context"
	"fmt"

	"github.com/examly/adaptive-core/ent"
	"github.com/examly/adaptive-core/ent/responseevent"
)

// eventRepo implements EventRepo backed by ent and the global sequence counter.
type eventRepo struct {
	client *ent.Client
	seq    *sequenceCounter
}

func (r *eventRepo) AppendResponse(ctx context.Context, data ResponseEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.client.ResponseEvent.Create().
		SetSequence(seqNum).
		SetSessionID(data.SessionID).
		SetUserID(data.UserID).
		SetItemID(data.ItemID).
		SetTier(data.Tier).
		SetItemType(data.ItemType).
		SetCorrect(data.Correct).
		SetScore(data.Score).
		SetTimeMs(data.TimeMs).
		SetAbilityAfter(data.AbilityAfter).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("save response event: %w", err)
	}
	return nil
}

func (r *eventRepo) SessionAccuracy(ctx context.Context, sessionID string) (float64, error) {
	events, err := r.client.ResponseEvent.Query().
		Where(responseevent.SessionID(sessionID)).
		All(ctx)
	if err != nil {
		return 0, fmt.Errorf("query session accuracy: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	correct := 0
	for _, e := range events {
		if e.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(events)), nil
}
