// Package grading defines the grading collaborator that turns a raw
// submitted answer into an authoritative correctness signal. The session
// engine prefers a grader's verdict over the examinee's self-reported
// confidence whenever one is configured.
package grading

import (
	"context"

	"github.com/examly/adaptive-core/internal/irt"
)

// Result is the outcome of grading one response.
type Result struct {
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"max_score"`
	IsCorrect bool    `json:"is_correct"`

	// Feedback is optional explanatory text (rubric graders only).
	Feedback string `json:"feedback,omitempty"`
}

// Grader scores a submitted answer against an item.
type Grader interface {
	Grade(ctx context.Context, item irt.Item, answer string) (*Result, error)
}
