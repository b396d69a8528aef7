package itembank

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/examly/adaptive-core/internal/irt"
)

// demoTopics are the content tags the demo bank draws from.
var demoTopics = []string{"arithmetic", "algebra", "geometry", "statistics", "logic"}

// NewDemoBank builds a synthetic bank for the simulation CLI: perTier
// items in each tier, with calibrated parameters jittered around the
// tier defaults so selection has something to discriminate on.
func NewDemoBank(perTier int, seed uint64) *MemoryBank {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	bank := NewMemoryBank()

	for _, tier := range irt.AllTiers {
		for i := 0; i < perTier; i++ {
			topic := demoTopics[rng.IntN(len(demoTopics))]
			a := 0.6 + rng.Float64()*1.6           // discrimination in [0.6, 2.2)
			b := tier.Ability() + rng.Float64() - 0.5 // difficulty near the tier center
			c := 0.1 + rng.Float64()*0.15

			bank.Add(irt.Item{
				ID:   uuid.NewString(),
				Text: fmt.Sprintf("%s question %d (%s)", topic, i+1, tier),
				Tier: tier,
				Tags: []string{topic},
				Type: irt.TypeMultipleChoice,
				Calibrated: &irt.Params{
					Discrimination: a,
					Difficulty:     irt.ClampAbility(b),
					Guessing:       c,
				},
			})
		}
	}
	return bank
}
