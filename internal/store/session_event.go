package store

import (
	"context"
	"fmt"

	"github.com/examly/adaptive-core/ent"
	"github.com/examly/adaptive-core/ent/sessionevent"
)

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.client.SessionEvent.Create().
		SetSequence(seqNum).
		SetSessionID(data.SessionID).
		SetUserID(data.UserID).
		SetAction(data.Action).
		SetItemsServed(data.ItemsServed).
		SetCorrectAnswers(data.CorrectAnswers).
		SetFinalAbility(data.FinalAbility).
		SetConfidence(data.Confidence).
		SetDurationSecs(data.DurationSecs).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) SessionSummaries(ctx context.Context, opts QueryOpts) ([]SessionSummary, error) {
	q := r.client.SessionEvent.Query().
		Order(ent.Desc(sessionevent.FieldSequence))

	if opts.After > 0 {
		q = q.Where(sessionevent.SequenceGT(opts.After))
	}
	if opts.Before > 0 {
		q = q.Where(sessionevent.SequenceLT(opts.Before))
	}
	if !opts.From.IsZero() {
		q = q.Where(sessionevent.TimestampGTE(opts.From))
	}
	if !opts.To.IsZero() {
		q = q.Where(sessionevent.TimestampLTE(opts.To))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	events, err := q.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query session summaries: %w", err)
	}

	out := make([]SessionSummary, len(events))
	for i, e := range events {
		out[i] = SessionSummary{
			Sequence:       e.Sequence,
			Timestamp:      e.Timestamp,
			SessionID:      e.SessionID,
			UserID:         e.UserID,
			Action:         e.Action,
			ItemsServed:    e.ItemsServed,
			CorrectAnswers: e.CorrectAnswers,
			FinalAbility:   e.FinalAbility,
			Confidence:     e.Confidence,
			DurationSecs:   e.DurationSecs,
		}
	}
	return out, nil
}
