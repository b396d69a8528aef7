// Package itembank defines the item bank collaborator consumed by the
// adaptive engine, plus an in-memory implementation used by tests and
// the simulation CLI. Production deployments back this interface with
// the platform's real item service.
package itembank

import (
	"context"
	"strings"

	"github.com/examly/adaptive-core/internal/irt"
)

// Filter narrows a Search call. Zero-valued fields match everything.
type Filter struct {
	Tier       *irt.Tier
	Type       *irt.ItemType
	Tags       []string
	ExcludeIDs []string
}

// Bank is the read-only item lookup surface the engine depends on.
type Bank interface {
	// Search returns items matching the filter. An empty result is not
	// an error.
	Search(ctx context.Context, f Filter) ([]irt.Item, error)

	// Get returns the item with the given id, or (nil, nil) when the id
	// is unknown.
	Get(ctx context.Context, id string) (*irt.Item, error)
}

// Matches reports whether an item passes the filter. Tag matching is
// case-insensitive substring, mirroring the selector's relevance rule.
func (f Filter) Matches(it irt.Item) bool {
	if f.Tier != nil && it.Tier != *f.Tier {
		return false
	}
	if f.Type != nil && it.Type != *f.Type {
		return false
	}
	for _, ex := range f.ExcludeIDs {
		if it.ID == ex {
			return false
		}
	}
	for _, want := range f.Tags {
		w := strings.ToLower(want)
		found := false
		for _, have := range it.Tags {
			if strings.Contains(strings.ToLower(have), w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
