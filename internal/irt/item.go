package irt

// Tier is the ordinal difficulty category assigned to an item by the
// item bank's calibration workflow.
type Tier string

const (
	TierBeginner     Tier = "beginner"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
	TierExpert       Tier = "expert"
)

// AllTiers lists the tiers in ascending difficulty order.
var AllTiers = []Tier{TierBeginner, TierIntermediate, TierAdvanced, TierExpert}

// Value returns the ordinal value of the tier (0..3). Unknown tiers map
// to intermediate.
func (t Tier) Value() int {
	switch t {
	case TierBeginner:
		return 0
	case TierIntermediate:
		return 1
	case TierAdvanced:
		return 2
	case TierExpert:
		return 3
	}
	return 1
}

// Ability returns the ability level (θ) at which a typical item of this
// tier sits on the latent scale. Used both as the default difficulty
// parameter for uncalibrated items and as the starting ability of a
// session configured with this tier.
func (t Tier) Ability() float64 {
	switch t {
	case TierBeginner:
		return -1.5
	case TierIntermediate:
		return 0.0
	case TierAdvanced:
		return 1.5
	case TierExpert:
		return 3.0
	}
	return 0.0
}

// TierForValue returns the tier for an ordinal value, clamping out-of-range
// values to the nearest tier.
func TierForValue(v int) Tier {
	switch {
	case v <= 0:
		return TierBeginner
	case v == 1:
		return TierIntermediate
	case v == 2:
		return TierAdvanced
	default:
		return TierExpert
	}
}

// ItemType classifies how an item is answered. The type drives the
// default pseudo-guessing parameter: choice items can be guessed, open
// responses mostly cannot.
type ItemType string

const (
	TypeMultipleChoice ItemType = "multiple_choice"
	TypeTrueFalse      ItemType = "true_false"
	TypeShortAnswer    ItemType = "short_answer"
	TypeEssay          ItemType = "essay"
)

// Item is an assessment item as exposed by the item bank. The core reads
// items; it never mutates them.
type Item struct {
	ID   string   `json:"id"`
	Text string   `json:"text,omitempty"`
	Tier Tier     `json:"tier"`
	Tags []string `json:"tags,omitempty"`
	Type ItemType `json:"type,omitempty"`

	// AnswerKey is the canonical answer for deterministically gradable
	// items. Empty for rubric-graded types.
	AnswerKey string `json:"answer_key,omitempty"`

	// Calibrated holds explicitly fitted 3PL parameters. When nil, the
	// item falls back to tier-derived defaults.
	Calibrated *Params `json:"calibrated,omitempty"`
}

// Params returns the item's 3PL parameters, deriving defaults from the
// tier and type when the item has not been calibrated.
func (it Item) Params() Params {
	if it.Calibrated != nil {
		return *it.Calibrated
	}
	return DefaultParams(it.Tier, it.Type)
}

// DefaultParams derives 3PL parameters for an uncalibrated item:
// discrimination 1.0, difficulty from the tier's ability level, and a
// guessing floor based on the item type.
func DefaultParams(tier Tier, itemType ItemType) Params {
	return Params{
		Discrimination: 1.0,
		Difficulty:     tier.Ability(),
		Guessing:       defaultGuessing(itemType),
	}
}

func defaultGuessing(itemType ItemType) float64 {
	switch itemType {
	case TypeMultipleChoice, TypeTrueFalse:
		return 0.25
	case TypeShortAnswer, TypeEssay:
		return 0.1
	}
	return 0.2
}
