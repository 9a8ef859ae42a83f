package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrymatch/backend/internal/domain"
)

const sampleYAML = `
entries:
  - fragment: olive oil
    category: Liquid
    unit: ml
    confidence: 0.95
  - fragment: egg
    category: count
    unit: units
    confidence: 0.9
  - fragment: cinnamon
    category: VolumeDry
    unit: tsp
    confidence: 0.8
  - fragment: default
    category: Count
    unit: units
    confidence: 0
`

func TestParse(t *testing.T) {
	entries, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "olive oil", entries[0].MatchFragment)
	assert.Equal(t, domain.CategoryLiquid, entries[0].Category)
	assert.Equal(t, "ml", entries[0].CanonicalUnit)
	assert.Equal(t, 0.95, entries[0].Confidence)
	assert.Equal(t, domain.CategoryCount, entries[1].Category)
	assert.Equal(t, domain.CategoryVolumeDry, entries[2].Category)
	assert.True(t, entries[3].IsDefault())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "entries: [unclosed"},
		{"no entries", "entries: []"},
		{"unknown category", "entries:\n  - fragment: x\n    category: Gas\n    unit: l\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, domain.ErrInvalidTaxonomy)
		})
	}
}

func TestLoadFileAndMarshalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")

	_, err := LoadFile(path)
	assert.Error(t, err)

	want := []domain.TaxonomyEntry{
		{MatchFragment: "milk", Category: domain.CategoryLiquid, CanonicalUnit: "ml", Confidence: 0.9},
		{MatchFragment: "flour", Category: domain.CategoryWeight, CanonicalUnit: "g", Confidence: 0.8},
	}
	data, err := Marshal(want)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
