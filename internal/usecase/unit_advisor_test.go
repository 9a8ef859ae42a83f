package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrymatch/backend/internal/domain"
)

func TestUnitAdvisorSuggest(t *testing.T) {
	reg, err := NewRegistry(DefaultTaxonomy())
	require.NoError(t, err)
	advisor := NewUnitAdvisor(reg, 0)

	t.Run("liquid counted in units", func(t *testing.T) {
		s := advisor.Suggest("Olive Oil", "units")
		require.NotNil(t, s)
		assert.Equal(t, "ml", s.SuggestedUnit)
		assert.Equal(t, domain.CategoryLiquid, s.Category)
		assert.Equal(t, 0.95, s.Confidence)
		assert.Contains(t, s.Reason, "olive oil")
	})

	t.Run("eggs by weight", func(t *testing.T) {
		s := advisor.Suggest("eggs", "g")
		require.NotNil(t, s)
		assert.Equal(t, "units", s.SuggestedUnit)
		assert.Equal(t, domain.CategoryCount, s.Category)
	})

	noSuggestion := []struct {
		name, item, unit string
	}{
		{"matching category", "olive oil", "ml"},
		{"matching category other spelling", "milk", "Liters"},
		{"confidence below threshold", "salt", "units"},
		{"default entry", "xylitol", "g"},
		{"unknown unit", "milk", "handful"},
		{"empty name", "", "g"},
		{"empty unit", "milk", " "},
	}
	for _, tt := range noSuggestion {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, advisor.Suggest(tt.item, tt.unit))
		})
	}

	t.Run("threshold is strict", func(t *testing.T) {
		reg, err := NewRegistry([]domain.TaxonomyEntry{
			entry("rice", domain.CategoryWeight, "g", 0.6),
		})
		require.NoError(t, err)
		assert.Nil(t, NewUnitAdvisor(reg, 0.6).Suggest("rice", "cups"))
		assert.NotNil(t, NewUnitAdvisor(reg, 0.5).Suggest("rice", "cups"))
	})

	t.Run("follows holder swaps", func(t *testing.T) {
		holder, err := NewTaxonomyHolder([]domain.TaxonomyEntry{entry("stock", domain.CategoryLiquid, "ml", 0.9)})
		require.NoError(t, err)
		a := NewUnitAdvisor(holder, 0)
		assert.Nil(t, a.Suggest("stock", "ml"))

		require.NoError(t, holder.Swap([]domain.TaxonomyEntry{entry("stock", domain.CategoryCount, "cubes", 0.9)}))
		s := a.Suggest("stock", "ml")
		require.NotNil(t, s)
		assert.Equal(t, "cubes", s.SuggestedUnit)
	})
}

func TestUnitCategory(t *testing.T) {
	tests := []struct {
		unit      string
		want      domain.Category
		wantKnown bool
	}{
		{"ml", domain.CategoryLiquid, true},
		{"ML", domain.CategoryLiquid, true},
		{"fl oz", domain.CategoryLiquid, true},
		{"Tbsp.", domain.CategoryVolumeDry, true},
		{"cups", domain.CategoryVolumeDry, true},
		{"kg", domain.CategoryWeight, true},
		{"cloves", domain.CategoryCount, true},
		{"handful", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			got, known := UnitCategory(tt.unit)
			assert.Equal(t, tt.wantKnown, known)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnitsCompatible(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"ml", "l", true},
		{"ml", "ML", true},
		{"g", "lb", true},
		{"ml", "cup", false},
		{"units", "g", false},
		{"handful", "units", true},
		{"handful", "handful", true},
		{"handful", "g", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, UnitsCompatible(tt.a, tt.b))
			assert.Equal(t, tt.want, UnitsCompatible(tt.b, tt.a))
		})
	}
}
