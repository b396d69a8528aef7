// Package selector scores and picks the next assessment item for a
// session: a weighted blend of Fisher information, difficulty match,
// content relevance, and pool diversity, with a short exploration phase
// at the start of each session.
package selector

import (
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/examly/adaptive-core/internal/irt"
)

const (
	// ExplorationResponses is how many responses a session answers
	// before selection becomes fully deterministic.
	ExplorationResponses = 3

	// explorationPool is the number of top-scored candidates the
	// exploration phase samples from.
	explorationPool = 3

	// explorationDecay weights the sampling: rank r gets 0.7^r.
	explorationDecay = 0.7

	// DefaultRecentWindow is the recency window for the diversity score.
	DefaultRecentWindow = 5
)

// Sub-score weights. Information dominates; diversity is a light nudge.
const (
	weightInformation = 0.4
	weightDifficulty  = 0.3
	weightContent     = 0.2
	weightDiversity   = 0.1
)

// Criteria configures a single selection round.
type Criteria struct {
	// TargetDifficulty is the desired difficulty on the 0..3 tier-value
	// scale, usually derived from the current ability estimate.
	TargetDifficulty float64

	// ContentTags restricts relevance scoring to these topics. Empty
	// means every item is fully relevant.
	ContentTags []string

	// RecentWindow overrides DefaultRecentWindow when > 0.
	RecentWindow int
}

// State is the slice of session state the selector needs.
type State struct {
	Ability       float64
	Asked         []string
	ResponseCount int
}

// ScoredItem is a candidate with its sub-scores, kept for diagnostics.
type ScoredItem struct {
	Item             irt.Item
	Information      float64
	DifficultyMatch  float64
	ContentRelevance float64
	Diversity        float64
	Total            float64
}

// Selector picks items. Safe for concurrent use; the random source is
// only consulted during the exploration phase.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Selector seeded for reproducible exploration. Production
// callers pass a varying seed; tests pass a fixed one.
func New(seed uint64) *Selector {
	return &Selector{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// TargetDifficultyForAbility maps an ability estimate onto the 0..3
// tier-value scale, the inverse of the tier→ability mapping.
func TargetDifficultyForAbility(theta float64) float64 {
	v := (theta + 1.5) / 1.5
	if v < 0 {
		return 0
	}
	if v > 3 {
		return 3
	}
	return v
}

// Select returns the best next item from candidates, excluding anything
// already asked. The second return is false when no eligible candidate
// remains; the session engine treats that as forced termination.
func (s *Selector) Select(candidates []irt.Item, st State, c Criteria) (irt.Item, bool) {
	scored := s.rank(candidates, st, c)
	if len(scored) == 0 {
		return irt.Item{}, false
	}

	if st.ResponseCount < ExplorationResponses {
		return s.explore(scored), true
	}
	return scored[0].Item, true
}

// SelectBatch previews the next n selections without touching real
// session state: the exclusion set and response count advance on a
// working copy, so a preview never commits anything.
func (s *Selector) SelectBatch(candidates []irt.Item, st State, c Criteria, n int) []irt.Item {
	working := State{
		Ability:       st.Ability,
		Asked:         append([]string(nil), st.Asked...),
		ResponseCount: st.ResponseCount,
	}

	var batch []irt.Item
	for len(batch) < n {
		item, ok := s.Select(candidates, working, c)
		if !ok {
			break
		}
		batch = append(batch, item)
		working.Asked = append(working.Asked, item.ID)
		working.ResponseCount++
	}
	return batch
}

// Rank scores all eligible candidates, best first. Exposed for
// diagnostics and the CLI.
func (s *Selector) Rank(candidates []irt.Item, st State, c Criteria) []ScoredItem {
	return s.rank(candidates, st, c)
}

func (s *Selector) rank(candidates []irt.Item, st State, c Criteria) []ScoredItem {
	excluded := make(map[string]bool, len(st.Asked))
	for _, id := range st.Asked {
		excluded[id] = true
	}

	scored := make([]ScoredItem, 0, len(candidates))
	for _, it := range candidates {
		if excluded[it.ID] {
			continue
		}
		scored = append(scored, Score(it, st, c))
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Total != scored[j].Total {
			return scored[i].Total > scored[j].Total
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})
	return scored
}

// explore samples from the top candidates with geometrically decaying
// weights, so early questions vary between sessions instead of always
// opening on the single best-scored item.
func (s *Selector) explore(scored []ScoredItem) irt.Item {
	pool := scored
	if len(pool) > explorationPool {
		pool = pool[:explorationPool]
	}

	total := 0.0
	for rank := range pool {
		total += math.Pow(explorationDecay, float64(rank))
	}

	s.mu.Lock()
	roll := s.rng.Float64() * total
	s.mu.Unlock()

	for rank := range pool {
		roll -= math.Pow(explorationDecay, float64(rank))
		if roll <= 0 {
			return pool[rank].Item
		}
	}
	return pool[len(pool)-1].Item
}

// Score computes the four sub-scores and their weighted total for one
// candidate.
func Score(it irt.Item, st State, c Criteria) ScoredItem {
	si := ScoredItem{
		Item:             it,
		Information:      informationScore(st.Ability, it),
		DifficultyMatch:  difficultyScore(it, c.TargetDifficulty),
		ContentRelevance: contentScore(it, c.ContentTags),
		Diversity:        diversityScore(len(st.Asked), c.RecentWindow),
	}
	si.Total = weightInformation*si.Information +
		weightDifficulty*si.DifficultyMatch +
		weightContent*si.ContentRelevance +
		weightDiversity*si.Diversity
	return si
}

func informationScore(theta float64, it irt.Item) float64 {
	info := irt.Information(theta, it.Params())
	if info > 1.0 {
		return 1.0
	}
	return info
}

func difficultyScore(it irt.Item, target float64) float64 {
	dist := math.Abs(float64(it.Tier.Value()) - target)
	score := 1 - dist/3
	if score < 0 {
		return 0
	}
	return score
}

// contentScore is the fraction of requested tags the item satisfies,
// using case-insensitive substring matching.
func contentScore(it irt.Item, tags []string) float64 {
	if len(tags) == 0 {
		return 1.0
	}

	matched := 0
	for _, want := range tags {
		w := strings.ToLower(want)
		for _, have := range it.Tags {
			if strings.Contains(strings.ToLower(have), w) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(tags))
}

// diversityScore penalizes a recently saturated pool. It depends only on
// how many questions the session asked within the window, not on item
// similarity; see the selection criteria for tuning the window.
func diversityScore(askedCount, window int) float64 {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	recent := askedCount
	if recent > window {
		recent = window
	}
	score := 1 - 0.1*float64(recent)
	if score < 0.1 {
		return 0.1
	}
	return score
}
