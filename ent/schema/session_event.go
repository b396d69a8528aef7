package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SessionEvent records assessment session lifecycle transitions.
type SessionEvent struct {
	ent.Schema
}

func (SessionEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (SessionEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			NotEmpty().
			Comment("Session identifier"),
		field.String("user_id").
			NotEmpty().
			Comment("Examinee the session belongs to"),
		field.String("action").
			NotEmpty().
			Comment("started, completed, or expired"),
		field.Int("items_served").
			Default(0).
			Comment("Number of items served so far"),
		field.Int("correct_answers").
			Default(0).
			Comment("Number of correct responses"),
		field.Float("final_ability").
			Default(0).
			Comment("Ability estimate at the time of the event"),
		field.Float("confidence").
			Default(0).
			Comment("Measurement confidence at the time of the event"),
		field.Int("duration_secs").
			Default(0).
			Comment("Session duration in seconds"),
	}
}

func (SessionEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
		index.Fields("user_id"),
		index.Fields("action"),
	}
}
