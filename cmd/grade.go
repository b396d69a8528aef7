package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/examly/adaptive-core/internal/grading"
	"github.com/examly/adaptive-core/internal/irt"
	"github.com/examly/adaptive-core/internal/llm"
	"github.com/examly/adaptive-core/internal/store"
)

var gradeCmd = &cobra.Command{
	Use:   "grade <question> <answer>",
	Short: "Grade a free-form answer with the configured LLM provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		question, answer := args[0], args[1]
		key, _ := cmd.Flags().GetString("key")

		cfg, ok := llm.DiscoverConfig()
		if !ok {
			return fmt.Errorf("no LLM API key found (set GEMINI_API_KEY, OPENAI_API_KEY, or ANTHROPIC_API_KEY)")
		}

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := llm.WithPurpose(context.Background(), "grading")
		provider, err := llm.NewProvider(ctx, cfg, s.EventRepo())
		if err != nil {
			return fmt.Errorf("init provider: %w", err)
		}

		grader := grading.NewRubricGrader(provider)
		result, err := grader.Grade(ctx, irt.Item{
			ID:        "adhoc",
			Text:      question,
			Type:      irt.TypeShortAnswer,
			AnswerKey: key,
		}, answer)
		if err != nil {
			return fmt.Errorf("grade: %w", err)
		}

		verdict := "incorrect"
		if result.IsCorrect {
			verdict = "correct"
		}
		fmt.Printf("Verdict:  %s\n", verdict)
		fmt.Printf("Score:    %.2f / %.2f\n", result.Score, result.MaxScore)
		if result.Feedback != "" {
			fmt.Printf("Feedback: %s\n", result.Feedback)
		}
		return nil
	},
}

func init() {
	gradeCmd.Flags().String("key", "", "Optional reference answer to grade against")
}
