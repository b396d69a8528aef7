package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ResponseEvent records a single graded response within an assessment
// session.
type ResponseEvent struct {
	ent.Schema
}

func (ResponseEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (ResponseEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			NotEmpty().
			Comment("Links to SessionEvent"),
		field.String("user_id").
			NotEmpty().
			Comment("Examinee this response belongs to"),
		field.String("item_id").
			NotEmpty().
			Comment("Item that was answered"),
		field.String("tier").
			NotEmpty().
			Comment("beginner, intermediate, advanced, or expert"),
		field.String("item_type").
			NotEmpty().
			Comment("multiple_choice, true_false, short_answer, or essay"),
		field.Bool("correct").
			Comment("Whether the response was scored correct"),
		field.Float("score").
			Default(0).
			Comment("Normalized score in [0, 1]"),
		field.Int("time_ms").
			Default(0).
			Comment("Milliseconds to answer"),
		field.Float("ability_after").
			Comment("Ability estimate after this response"),
	}
}

func (ResponseEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
		index.Fields("user_id"),
		index.Fields("item_id"),
		index.Fields("correct"),
	}
}
