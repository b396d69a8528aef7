package grading

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/examly/adaptive-core/internal/irt"
	"github.com/examly/adaptive-core/internal/llm"
)

func TestKeyGrader(t *testing.T) {
	g := NewKeyGrader()
	item := irt.Item{ID: "q1", Text: "2 + 2 = ?", AnswerKey: "4"}

	tests := []struct {
		answer string
		want   bool
	}{
		{"4", true},
		{"  4  ", true},
		{"four", false},
		{"5", false},
	}
	for _, tt := range tests {
		res, err := g.Grade(context.Background(), item, tt.answer)
		if err != nil {
			t.Fatalf("Grade(%q): %v", tt.answer, err)
		}
		if res.IsCorrect != tt.want {
			t.Errorf("Grade(%q).IsCorrect = %v, want %v", tt.answer, res.IsCorrect, tt.want)
		}
		if res.MaxScore != 1.0 {
			t.Errorf("MaxScore = %f, want 1.0", res.MaxScore)
		}
	}
}

func TestKeyGrader_CaseInsensitive(t *testing.T) {
	g := NewKeyGrader()
	item := irt.Item{ID: "q1", AnswerKey: "Paris"}

	res, err := g.Grade(context.Background(), item, "paris")
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if !res.IsCorrect {
		t.Error("expected case-insensitive match to be correct")
	}
}

func TestKeyGrader_NoKey(t *testing.T) {
	g := NewKeyGrader()
	if _, err := g.Grade(context.Background(), irt.Item{ID: "q1"}, "x"); err == nil {
		t.Error("expected error for item without answer key")
	}
}

func TestRubricGrader(t *testing.T) {
	verdict := Result{Score: 0.5, MaxScore: 1, IsCorrect: false, Feedback: "Half right."}
	raw, _ := json.Marshal(verdict)
	mock := llm.NewMockProvider(llm.MockResponse{Content: raw})

	g := NewRubricGrader(mock)
	item := irt.Item{ID: "q1", Text: "Explain overfitting.", Type: irt.TypeEssay}

	res, err := g.Grade(context.Background(), item, "It memorizes.")
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if res.Score != 0.5 || res.IsCorrect {
		t.Errorf("result = %+v, want score 0.5, incorrect", res)
	}

	if mock.CallCount() != 1 {
		t.Fatalf("provider calls = %d, want 1", mock.CallCount())
	}
	req := mock.Calls[0]
	if req.Schema == nil || req.Schema.Name != "grade-response" {
		t.Error("expected grade schema on the request")
	}
}

func TestRubricGrader_NoText(t *testing.T) {
	g := NewRubricGrader(llm.NewMockProvider())
	if _, err := g.Grade(context.Background(), irt.Item{ID: "q1"}, "x"); err == nil {
		t.Error("expected error for item without question text")
	}
}
