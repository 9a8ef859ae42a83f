package usecase

import (
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/pantrymatch/backend/internal/domain"
)

// defaultEntry is the fallback returned when no fragment matches
var defaultEntry = domain.TaxonomyEntry{
	MatchFragment: domain.DefaultFragment,
	Category:      domain.CategoryCount,
	CanonicalUnit: "units",
	Confidence:    0,
}

// Registry is an immutable ingredient taxonomy. Build a new one to change it.
type Registry struct {
	entries  []domain.TaxonomyEntry // insertion order, default excluded
	runeLens []int                  // fragment length in characters, parallel to entries
	fallback domain.TaxonomyEntry
	version  int64
}

// NewRegistry validates entries and freezes them into a registry.
// A missing default entry is added; a malformed one is an error.
func NewRegistry(entries []domain.TaxonomyEntry) (*Registry, error) {
	r := &Registry{
		entries:  make([]domain.TaxonomyEntry, 0, len(entries)),
		runeLens: make([]int, 0, len(entries)),
		fallback: defaultEntry,
	}

	seenDefault := false
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		e.MatchFragment = NormalizeName(e.MatchFragment)
		e.CanonicalUnit = strings.TrimSpace(e.CanonicalUnit)

		if e.MatchFragment == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty fragment", domain.ErrInvalidTaxonomy, i)
		}
		if !e.Category.Valid() {
			return nil, fmt.Errorf("%w: entry %q has unknown category %q", domain.ErrInvalidTaxonomy, e.MatchFragment, e.Category)
		}
		if e.Confidence < 0 || e.Confidence > 1 {
			return nil, fmt.Errorf("%w: entry %q confidence %.2f outside [0,1]", domain.ErrInvalidTaxonomy, e.MatchFragment, e.Confidence)
		}

		if e.IsDefault() {
			if seenDefault {
				return nil, fmt.Errorf("%w: more than one default entry", domain.ErrInvalidTaxonomy)
			}
			if e.Category != domain.CategoryCount || e.Confidence != 0 {
				return nil, fmt.Errorf("%w: default entry must be count with confidence 0", domain.ErrInvalidTaxonomy)
			}
			if e.CanonicalUnit == "" {
				e.CanonicalUnit = defaultEntry.CanonicalUnit
			}
			r.fallback = e
			seenDefault = true
			continue
		}

		if e.CanonicalUnit == "" {
			return nil, fmt.Errorf("%w: entry %q has no canonical unit", domain.ErrInvalidTaxonomy, e.MatchFragment)
		}
		if seen[e.MatchFragment] {
			return nil, fmt.Errorf("%w: duplicate fragment %q", domain.ErrInvalidTaxonomy, e.MatchFragment)
		}
		seen[e.MatchFragment] = true
		r.entries = append(r.entries, e)
		r.runeLens = append(r.runeLens, utf8.RuneCountInString(e.MatchFragment))
	}

	return r, nil
}

// Classify returns the entry whose fragment is the longest substring of name,
// measured in characters.
// Equal-length matches resolve to the earlier entry. No match yields the default entry.
func (r *Registry) Classify(name string) domain.TaxonomyEntry {
	folded := NormalizeName(name)
	if folded == "" {
		return r.fallback
	}

	best, bestLen := -1, 0
	for i, e := range r.entries {
		n := r.runeLens[i]
		if n <= bestLen {
			continue
		}
		if strings.Contains(folded, e.MatchFragment) {
			best, bestLen = i, n
		}
	}
	if best < 0 {
		return r.fallback
	}
	return r.entries[best]
}

// Entries returns a copy of the table including the default entry last
func (r *Registry) Entries() []domain.TaxonomyEntry {
	out := make([]domain.TaxonomyEntry, 0, len(r.entries)+1)
	out = append(out, r.entries...)
	return append(out, r.fallback)
}

// Version identifies the registry generation installed by a TaxonomyHolder
func (r *Registry) Version() int64 {
	return r.version
}

// Len returns the number of entries, default excluded
func (r *Registry) Len() int {
	return len(r.entries)
}

// TaxonomyHolder shares one registry across requests and replaces it wholesale.
// Readers never observe a partially updated table.
type TaxonomyHolder struct {
	current atomic.Pointer[Registry]
	version atomic.Int64
}

// NewTaxonomyHolder installs the initial registry built from entries
func NewTaxonomyHolder(entries []domain.TaxonomyEntry) (*TaxonomyHolder, error) {
	h := &TaxonomyHolder{}
	if err := h.Swap(entries); err != nil {
		return nil, err
	}
	return h, nil
}

// Current returns the registry in effect
func (h *TaxonomyHolder) Current() *Registry {
	return h.current.Load()
}

// Classify classifies against the registry in effect
func (h *TaxonomyHolder) Classify(name string) domain.TaxonomyEntry {
	return h.Current().Classify(name)
}

// Swap builds a registry from entries and installs it. On error the previous
// registry stays in effect.
func (h *TaxonomyHolder) Swap(entries []domain.TaxonomyEntry) error {
	r, err := NewRegistry(entries)
	if err != nil {
		return err
	}
	r.version = h.version.Add(1)
	h.current.Store(r)
	return nil
}

// DefaultTaxonomy is the built-in table used when no taxonomy file is configured
func DefaultTaxonomy() []domain.TaxonomyEntry {
	liquid := func(f, unit string, c float64) domain.TaxonomyEntry {
		return domain.TaxonomyEntry{MatchFragment: f, Category: domain.CategoryLiquid, CanonicalUnit: unit, Confidence: c}
	}
	weight := func(f string, c float64) domain.TaxonomyEntry {
		return domain.TaxonomyEntry{MatchFragment: f, Category: domain.CategoryWeight, CanonicalUnit: "g", Confidence: c}
	}
	count := func(f, unit string, c float64) domain.TaxonomyEntry {
		return domain.TaxonomyEntry{MatchFragment: f, Category: domain.CategoryCount, CanonicalUnit: unit, Confidence: c}
	}
	dry := func(f, unit string, c float64) domain.TaxonomyEntry {
		return domain.TaxonomyEntry{MatchFragment: f, Category: domain.CategoryVolumeDry, CanonicalUnit: unit, Confidence: c}
	}

	return []domain.TaxonomyEntry{
		liquid("oil", "ml", 0.9),
		liquid("olive oil", "ml", 0.95),
		liquid("milk", "ml", 0.95),
		liquid("water", "ml", 0.9),
		liquid("juice", "ml", 0.85),
		liquid("vinegar", "ml", 0.9),
		liquid("soy sauce", "ml", 0.9),
		liquid("stock", "ml", 0.8),
		liquid("broth", "ml", 0.85),
		liquid("cream", "ml", 0.7),
		liquid("wine", "ml", 0.85),
		liquid("honey", "ml", 0.55),
		liquid("buttermilk", "ml", 0.9),
		weight("flour", 0.85),
		weight("sugar", 0.8),
		weight("rice", 0.85),
		weight("pasta", 0.85),
		weight("butter", 0.8),
		weight("cheese", 0.8),
		weight("chicken", 0.8),
		weight("beef", 0.85),
		weight("pork", 0.85),
		weight("salt", 0.5),
		weight("chocolate", 0.7),
		count("egg", "units", 0.95),
		count("eggplant", "units", 0.8),
		count("onion", "units", 0.7),
		count("garlic", "cloves", 0.75),
		count("lemon", "units", 0.85),
		count("lime", "units", 0.85),
		count("tomato", "units", 0.65),
		count("avocado", "units", 0.9),
		count("banana", "units", 0.9),
		count("apple", "units", 0.8),
		count("bread", "slices", 0.6),
		dry("baking powder", "tsp", 0.85),
		dry("baking soda", "tsp", 0.85),
		dry("cinnamon", "tsp", 0.8),
		dry("paprika", "tsp", 0.8),
		dry("oats", "cup", 0.65),
		dry("pepper", "tsp", 0.5),
		count("bell pepper", "units", 0.85),
		defaultEntry,
	}
}
