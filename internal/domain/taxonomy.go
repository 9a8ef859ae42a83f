package domain

import (
	"fmt"
	"strings"
)

// Category groups units that can be compared without conversion
type Category string

const (
	CategoryLiquid    Category = "liquid"
	CategoryWeight    Category = "weight"
	CategoryCount     Category = "count"
	CategoryVolumeDry Category = "volume_dry"
)

// DefaultFragment is the match fragment of the fallback taxonomy entry
const DefaultFragment = "default"

// ParseCategory accepts the canonical names plus the CamelCase forms used in
// hand-written taxonomy files ("Liquid", "VolumeDry").
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "liquid":
		return CategoryLiquid, nil
	case "weight":
		return CategoryWeight, nil
	case "count":
		return CategoryCount, nil
	case "volumedry":
		return CategoryVolumeDry, nil
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidTaxonomy, s)
}

// Valid reports whether c is one of the four known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryLiquid, CategoryWeight, CategoryCount, CategoryVolumeDry:
		return true
	}
	return false
}

// TaxonomyEntry maps an ingredient-name fragment to its measurement category
type TaxonomyEntry struct {
	MatchFragment string   `json:"matchFragment" yaml:"fragment"`
	Category      Category `json:"category" yaml:"category"`
	CanonicalUnit string   `json:"canonicalUnit" yaml:"unit"`
	Confidence    float64  `json:"confidence" yaml:"confidence"` // 0.0-1.0
}

// IsDefault reports whether the entry is the fallback entry
func (e TaxonomyEntry) IsDefault() bool {
	return e.MatchFragment == DefaultFragment
}

// Suggestion is a non-blocking hint that the chosen unit looks wrong for an ingredient
type Suggestion struct {
	SuggestedUnit string   `json:"suggestedUnit"`
	Category      Category `json:"category"`
	Reason        string   `json:"reason"`
	Confidence    float64  `json:"confidence"`
}
