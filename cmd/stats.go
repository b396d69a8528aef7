package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/examly/adaptive-core/internal/store"
	"github.com/examly/adaptive-core/internal/trend"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recorded session outcomes, per-user trends, and LLM usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		userID, _ := cmd.Flags().GetString("user")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := context.Background()
		if userID != "" {
			return printUserTrend(ctx, s, userID)
		}

		summaries, err := s.EventRepo().SessionSummaries(ctx, store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}

		if len(summaries) == 0 {
			fmt.Println("No sessions recorded yet.")
		} else {
			fmt.Printf("%-19s  %-10s  %-12s  %-9s  %5s  %8s  %8s  %6s\n",
				"Timestamp", "User", "Session", "Action", "Items", "Accuracy", "θ", "Conf")
			fmt.Println(strings.Repeat("─", 92))
			for _, sum := range summaries {
				accuracy := "-"
				if sum.ItemsServed > 0 {
					accuracy = fmt.Sprintf("%5.0f%%", 100*float64(sum.CorrectAnswers)/float64(sum.ItemsServed))
				}
				sid := sum.SessionID
				if len(sid) > 12 {
					sid = sid[:12]
				}
				fmt.Printf("%-19s  %-10s  %-12s  %-9s  %5d  %8s  %8.3f  %6.3f\n",
					sum.Timestamp.Local().Format("2006-01-02 15:04:05"),
					sum.UserID,
					sid,
					sum.Action,
					sum.ItemsServed,
					accuracy,
					sum.FinalAbility,
					sum.Confidence,
				)
			}
		}

		totals, err := s.EventRepo().LLMUsage(ctx)
		if err != nil {
			return fmt.Errorf("query LLM usage: %w", err)
		}
		if totals.Requests > 0 {
			fmt.Println()
			fmt.Printf("LLM usage: %d requests (%d failed), %d input / %d output tokens\n",
				totals.Requests, totals.Failures, totals.InputTokens, totals.OutputTokens)
		}

		return nil
	},
}

func printUserTrend(ctx context.Context, s *store.Store, userID string) error {
	advisor := trend.NewAdvisor(s.SnapshotRepo())

	rec, err := advisor.Recommend(ctx, userID)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	fmt.Printf("User %s\n", userID)
	fmt.Printf("  Tier:       %s -> %s (confidence %.2f)\n", rec.CurrentTier, rec.SuggestedTier, rec.Confidence)
	fmt.Printf("  Reasoning:  %s\n", strings.Join(rec.Reasoning, "; "))

	tr, err := advisor.TrendFor(ctx, userID)
	if err != nil {
		return fmt.Errorf("trend: %w", err)
	}
	fmt.Printf("  Slopes:     accuracy %+.4f, speed %+.1f ms, difficulty %+.3f, ability %+.4f\n",
		tr.Accuracy, tr.Speed, tr.Difficulty, tr.Ability)
	return nil
}

func init() {
	statsCmd.Flags().IntP("limit", "n", 20, "Number of session events to show")
	statsCmd.Flags().StringP("user", "u", "", "Show trend data for one user instead of session history")
}
