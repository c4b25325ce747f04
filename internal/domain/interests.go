package domain

import "slices"

// ============================================================================
// Interest catalog
// ============================================================================

const (
	MinInterests = 3
	MaxInterests = 8
)

var interestCatalog = []string{
	"Fitness", "Café / Brunch", "Walking", "Study Sessions",
	"Art & Museums", "Running", "Cooking", "Nightlife",
	"Language Exchange", "Photography", "Board Games", "Live Music",
}

// InterestCatalog returns the selectable interests in display order.
func InterestCatalog() []string {
	return slices.Clone(interestCatalog)
}

// IsKnownInterest checks the interest against the catalog.
func IsKnownInterest(interest string) bool {
	return slices.Contains(interestCatalog, interest)
}

// ============================================================================
// Selection draft
// ============================================================================

// InterestSelection is the draft set built on the interests screen.
// It keeps insertion order and never grows past MaxInterests.
type InterestSelection struct {
	items []string
}

// NewInterestSelection builds a selection from a list, applying the same
// rules as repeated Toggle calls.
func NewInterestSelection(interests ...string) InterestSelection {
	var s InterestSelection
	for _, interest := range interests {
		if !s.Has(interest) {
			s = s.Toggle(interest)
		}
	}
	return s
}

// Toggle removes interest when selected, otherwise adds it.
// Adding beyond MaxInterests is a no-op.
func (s InterestSelection) Toggle(interest string) InterestSelection {
	if i := slices.Index(s.items, interest); i >= 0 {
		return InterestSelection{items: slices.Delete(slices.Clone(s.items), i, i+1)}
	}
	if len(s.items) >= MaxInterests {
		return s
	}
	return InterestSelection{items: append(slices.Clone(s.items), interest)}
}

func (s InterestSelection) Has(interest string) bool {
	return slices.Contains(s.items, interest)
}

func (s InterestSelection) Len() int {
	return len(s.items)
}

// CanComplete reports whether the "find my circle" action is enabled.
func (s InterestSelection) CanComplete() bool {
	return len(s.items) >= MinInterests && len(s.items) <= MaxInterests
}

// Items returns the selected interests in selection order.
func (s InterestSelection) Items() []string {
	if s.items == nil {
		return []string{}
	}
	return slices.Clone(s.items)
}
