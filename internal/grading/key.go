package grading

import (
	"context"
	"fmt"
	"strings"

	"github.com/examly/adaptive-core/internal/irt"
)

// KeyGrader grades deterministically against the item's answer key:
// case-insensitive comparison after trimming whitespace. Suitable for
// choice and short-answer items; essay items need a rubric grader.
type KeyGrader struct{}

// NewKeyGrader creates a KeyGrader.
func NewKeyGrader() *KeyGrader { return &KeyGrader{} }

func (g *KeyGrader) Grade(_ context.Context, item irt.Item, answer string) (*Result, error) {
	if item.AnswerKey == "" {
		return nil, fmt.Errorf("item %s has no answer key", item.ID)
	}

	correct := normalize(answer) == normalize(item.AnswerKey)
	score := 0.0
	if correct {
		score = 1.0
	}
	return &Result{Score: score, MaxScore: 1.0, IsCorrect: correct}, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
