package usecase

import (
	"fmt"
	"strings"

	"github.com/pantrymatch/backend/internal/domain"
)

// DefaultMinSuggestionConfidence is the confidence a taxonomy entry must exceed
// before the advisor second-guesses a unit
const DefaultMinSuggestionConfidence = 0.6

// TaxonomyClassifier is satisfied by *Registry and *TaxonomyHolder
type TaxonomyClassifier interface {
	Classify(name string) domain.TaxonomyEntry
}

// UnitAdvisor flags units that look wrong for an ingredient. It never blocks
// or rewrites input; callers decide whether to show or adopt a suggestion.
type UnitAdvisor struct {
	taxonomy      TaxonomyClassifier
	minConfidence float64
}

// NewUnitAdvisor creates an advisor. A non-positive minConfidence uses the default.
func NewUnitAdvisor(taxonomy TaxonomyClassifier, minConfidence float64) *UnitAdvisor {
	if minConfidence <= 0 {
		minConfidence = DefaultMinSuggestionConfidence
	}
	return &UnitAdvisor{
		taxonomy:      taxonomy,
		minConfidence: minConfidence,
	}
}

// Suggest returns a suggestion when chosenUnit's category disagrees with the
// ingredient's taxonomy category and the taxonomy is confident. Otherwise nil.
func (a *UnitAdvisor) Suggest(name, chosenUnit string) *domain.Suggestion {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(chosenUnit) == "" {
		return nil
	}

	chosenCategory, known := UnitCategory(chosenUnit)
	if !known {
		return nil
	}

	entry := a.taxonomy.Classify(name)
	if entry.Category == chosenCategory || entry.Confidence <= a.minConfidence {
		return nil
	}

	return &domain.Suggestion{
		SuggestedUnit: entry.CanonicalUnit,
		Category:      entry.Category,
		Reason: fmt.Sprintf("%q is usually measured by %s (e.g. %s), not by %s",
			entry.MatchFragment, categoryLabel(entry.Category), entry.CanonicalUnit, categoryLabel(chosenCategory)),
		Confidence: entry.Confidence,
	}
}

func categoryLabel(c domain.Category) string {
	switch c {
	case domain.CategoryLiquid:
		return "liquid volume"
	case domain.CategoryWeight:
		return "weight"
	case domain.CategoryVolumeDry:
		return "dry volume"
	default:
		return "count"
	}
}
