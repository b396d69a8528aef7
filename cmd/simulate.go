package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/examly/adaptive-core/internal/irt"
	"github.com/examly/adaptive-core/internal/itembank"
	"github.com/examly/adaptive-core/internal/session"
	"github.com/examly/adaptive-core/internal/store"
	"github.com/examly/adaptive-core/internal/trend"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a simulated adaptive session against a synthetic item bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		tierName, _ := cmd.Flags().GetString("tier")
		trueTheta, _ := cmd.Flags().GetFloat64("theta")
		minItems, _ := cmd.Flags().GetInt("min")
		maxItems, _ := cmd.Flags().GetInt("max")
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		perTier, _ := cmd.Flags().GetInt("pool")
		seed, _ := cmd.Flags().GetUint64("seed")
		userID, _ := cmd.Flags().GetString("user")
		verbose, _ := cmd.Flags().GetBool("verbose")

		tier, err := parseTier(tierName)
		if err != nil {
			return err
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

		log := zap.NewNop()
		if verbose {
			log, err = zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()
		}

		bank := itembank.NewDemoBank(perTier, seed)
		advisor := trend.NewAdvisor(s.SnapshotRepo())
		engine := session.NewEngine(bank, session.NewMemoryStore(),
			session.WithSeed(seed),
			session.WithEventRepo(s.EventRepo()),
			session.WithTrendAdvisor(advisor),
			session.WithLogger(log),
		)

		cfg := session.DefaultConfig()
		cfg.InitialTier = tier
		cfg.MinItems = minItems
		cfg.MaxItems = maxItems
		cfg.ConfidenceThreshold = threshold

		ctx := context.Background()
		st, err := engine.StartSession(ctx, userID, "simulation", cfg)
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}

		fmt.Printf("Session %s  (true θ = %.2f, starting θ = %.2f)\n\n", st.SessionID[:8], trueTheta, st.CurrentAbility)
		fmt.Printf("%-4s  %-12s  %-7s  %8s  %8s  %6s\n", "#", "Tier", "Correct", "θ", "Conf", "Done%")
		fmt.Println(strings.Repeat("─", 56))

		rng := rand.New(rand.NewPCG(seed+42, seed+43))
		for !st.IsComplete {
			item, err := bank.Get(ctx, st.NextItemID)
			if err != nil || item == nil {
				return fmt.Errorf("resolve item %s: %w", st.NextItemID, err)
			}

			// The simulated examinee answers correctly with the 3PL
			// probability implied by their true ability.
			p := irt.Probability(trueTheta, item.Params())
			correct := rng.Float64() < p
			conf := 0.15
			if correct {
				conf = 0.9
			}

			st, err = engine.SubmitResponse(ctx, userID, "simulation", session.Response{
				ItemID:     item.ID,
				Confidence: conf,
				TimeMs:     int(20_000 + rng.Float64()*40_000),
			})
			if err != nil {
				return fmt.Errorf("submit response: %w", err)
			}

			last := st.Responses[len(st.Responses)-1]
			mark := "✗"
			if last.Correct {
				mark = "✓"
			}
			fmt.Printf("%-4d  %-12s  %-7s  %8.3f  %8.3f  %5.0f%%\n",
				len(st.Responses), item.Tier, mark, st.CurrentAbility, st.ConfidenceLevel, st.EstimatedCompletionPct)
		}

		fmt.Println(strings.Repeat("─", 56))
		fmt.Printf("Final ability: %.3f (true %.2f) after %d items, confidence %.3f\n",
			st.CurrentAbility, trueTheta, len(st.Responses), st.ConfidenceLevel)

		rec, err := advisor.Recommend(ctx, userID)
		if err != nil {
			return fmt.Errorf("recommend: %w", err)
		}
		fmt.Printf("\nRecommended tier: %s -> %s (confidence %.2f)\n", rec.CurrentTier, rec.SuggestedTier, rec.Confidence)
		fmt.Printf("  %s\n", strings.Join(rec.Reasoning, "; "))

		return nil
	},
}

func parseTier(name string) (irt.Tier, error) {
	for _, t := range irt.AllTiers {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tier %q (expected beginner, intermediate, advanced, or expert)", name)
}

func init() {
	simulateCmd.Flags().String("tier", "intermediate", "Starting difficulty tier")
	simulateCmd.Flags().Float64("theta", 1.0, "True ability of the simulated examinee")
	simulateCmd.Flags().Int("min", 5, "Minimum items before the session may terminate")
	simulateCmd.Flags().Int("max", 20, "Maximum items per session")
	simulateCmd.Flags().Float64("threshold", 0.8, "Confidence threshold for early termination")
	simulateCmd.Flags().Int("pool", 25, "Synthetic items per tier in the demo bank")
	simulateCmd.Flags().Uint64("seed", 1, "Random seed for the bank and the simulated examinee")
	simulateCmd.Flags().String("user", "demo-user", "User ID to record events and snapshots under")
	simulateCmd.Flags().Bool("verbose", false, "Enable debug logging")
}
