package itembank

import (
	"context"
	"testing"

	"github.com/examly/adaptive-core/internal/irt"
)

func tierPtr(t irt.Tier) *irt.Tier { return &t }

func sample() []irt.Item {
	return []irt.Item{
		{ID: "q1", Tier: irt.TierBeginner, Tags: []string{"Algebra"}, Type: irt.TypeMultipleChoice},
		{ID: "q2", Tier: irt.TierBeginner, Tags: []string{"geometry"}, Type: irt.TypeShortAnswer},
		{ID: "q3", Tier: irt.TierAdvanced, Tags: []string{"algebra", "proofs"}, Type: irt.TypeMultipleChoice},
	}
}

func TestMemoryBank_Get(t *testing.T) {
	bank := NewMemoryBank(sample()...)
	ctx := context.Background()

	it, err := bank.Get(ctx, "q2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if it == nil || it.ID != "q2" {
		t.Errorf("Get(q2) = %+v, want item q2", it)
	}

	missing, err := bank.Get(ctx, "nope")
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("Get(nope) = %+v, want nil", missing)
	}
}

func TestMemoryBank_SearchByTier(t *testing.T) {
	bank := NewMemoryBank(sample()...)

	got, err := bank.Search(context.Background(), Filter{Tier: tierPtr(irt.TierBeginner)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("beginner items = %d, want 2", len(got))
	}
}

func TestMemoryBank_SearchByTagAndExclude(t *testing.T) {
	bank := NewMemoryBank(sample()...)

	got, err := bank.Search(context.Background(), Filter{
		Tags:       []string{"algebra"},
		ExcludeIDs: []string{"q1"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "q3" {
		t.Errorf("Search = %v, want [q3]", got)
	}
}

func TestMemoryBank_AddReplaces(t *testing.T) {
	bank := NewMemoryBank(sample()...)
	bank.Add(irt.Item{ID: "q1", Tier: irt.TierExpert})

	if bank.Len() != 3 {
		t.Errorf("Len = %d, want 3 after replace", bank.Len())
	}
	it, _ := bank.Get(context.Background(), "q1")
	if it.Tier != irt.TierExpert {
		t.Errorf("replaced tier = %q, want expert", it.Tier)
	}
}

func TestNewDemoBank(t *testing.T) {
	bank := NewDemoBank(5, 99)
	if bank.Len() != 20 {
		t.Fatalf("demo bank size = %d, want 20", bank.Len())
	}

	all, err := bank.Search(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, it := range all {
		if it.Calibrated == nil {
			t.Errorf("demo item %s missing calibrated params", it.ID)
			continue
		}
		if it.Calibrated.Discrimination <= 0 {
			t.Errorf("demo item %s has a=%f, want > 0", it.ID, it.Calibrated.Discrimination)
		}
	}
}
