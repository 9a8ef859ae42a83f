// Package taxonomy reads ingredient taxonomy tables from YAML files and keeps
// a running registry in sync with the file on disk.
package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pantrymatch/backend/internal/domain"
)

// File is the on-disk layout:
//
//	entries:
//	  - fragment: olive oil
//	    category: Liquid
//	    unit: ml
//	    confidence: 0.95
type File struct {
	Entries []FileEntry `yaml:"entries"`
}

// FileEntry is one taxonomy row as written by hand
type FileEntry struct {
	Fragment   string  `yaml:"fragment"`
	Category   string  `yaml:"category"`
	Unit       string  `yaml:"unit"`
	Confidence float64 `yaml:"confidence"`
}

// Parse decodes a taxonomy document. Only syntax and categories are checked
// here; table invariants are enforced when the registry is built.
func Parse(data []byte) ([]domain.TaxonomyEntry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTaxonomy, err)
	}
	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", domain.ErrInvalidTaxonomy)
	}

	out := make([]domain.TaxonomyEntry, 0, len(f.Entries))
	for i, e := range f.Entries {
		category, err := domain.ParseCategory(e.Category)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i, e.Fragment, err)
		}
		out = append(out, domain.TaxonomyEntry{
			MatchFragment: e.Fragment,
			Category:      category,
			CanonicalUnit: e.Unit,
			Confidence:    e.Confidence,
		})
	}
	return out, nil
}

// LoadFile reads and parses a taxonomy file
func LoadFile(path string) ([]domain.TaxonomyEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	return Parse(data)
}

// Marshal renders entries in the file layout
func Marshal(entries []domain.TaxonomyEntry) ([]byte, error) {
	f := File{Entries: make([]FileEntry, 0, len(entries))}
	for _, e := range entries {
		f.Entries = append(f.Entries, FileEntry{
			Fragment:   e.MatchFragment,
			Category:   string(e.Category),
			Unit:       e.CanonicalUnit,
			Confidence: e.Confidence,
		})
	}
	return yaml.Marshal(f)
}
