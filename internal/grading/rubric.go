package grading

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/examly/adaptive-core/internal/irt"
	"github.com/examly/adaptive-core/internal/llm"
)

const rubricSystemPrompt = `You are a strict but fair grader for an online assessment platform.
Grade the examinee's answer against the question. Award partial credit for
partially correct reasoning. Keep feedback to two sentences or fewer.`

// gradeSchema constrains the LLM to the Result shape. Validation happens
// inside the provider, so a malformed grade surfaces as an error instead
// of a silently wrong verdict.
var gradeSchema = &llm.Schema{
	Name:        "grade-response",
	Description: "Grading verdict for one submitted answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score":      map[string]any{"type": "number", "minimum": 0},
			"max_score":  map[string]any{"type": "number", "minimum": 1},
			"is_correct": map[string]any{"type": "boolean"},
			"feedback":   map[string]any{"type": "string"},
		},
		"required":             []any{"score", "max_score", "is_correct"},
		"additionalProperties": false,
	},
}

// RubricGrader grades free-form answers with an LLM provider. It is the
// production implementation behind essay and short-answer items; tests
// drive it with the mock provider.
type RubricGrader struct {
	provider  llm.Provider
	maxTokens int
}

// NewRubricGrader creates a RubricGrader on top of a provider.
func NewRubricGrader(provider llm.Provider) *RubricGrader {
	return &RubricGrader{provider: provider, maxTokens: 512}
}

func (g *RubricGrader) Grade(ctx context.Context, item irt.Item, answer string) (*Result, error) {
	if item.Text == "" {
		return nil, fmt.Errorf("item %s has no question text to grade against", item.ID)
	}

	prompt := fmt.Sprintf("Question:\n%s\n", item.Text)
	if item.AnswerKey != "" {
		prompt += fmt.Sprintf("\nReference answer:\n%s\n", item.AnswerKey)
	}
	prompt += fmt.Sprintf("\nExaminee answer:\n%s\n", answer)

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:    rubricSystemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Schema:    gradeSchema,
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("rubric grade: %w", err)
	}

	var result Result
	if err := json.Unmarshal(resp.Content, &result); err != nil {
		return nil, fmt.Errorf("decode grade: %w", err)
	}
	if result.MaxScore <= 0 {
		result.MaxScore = 1.0
	}
	return &result, nil
}
