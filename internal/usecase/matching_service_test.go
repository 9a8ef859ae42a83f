package usecase

import (
	"reflect"
	"testing"

	"github.com/pantrymatch/backend/internal/domain"
)

func TestNewMatchCalculator(t *testing.T) {
	t.Run("defaults to exact policy", func(t *testing.T) {
		c := NewMatchCalculator(MatchConfig{})
		if c.Policy() != MatchPolicyExact {
			t.Errorf("Policy() = %v, want exact", c.Policy())
		}
	})

	t.Run("clamps negative edit distance", func(t *testing.T) {
		c := NewMatchCalculator(MatchConfig{Policy: MatchPolicyToken, FuzzyEditDistance: -3})
		if c.fuzzyEditDistance != 0 {
			t.Errorf("fuzzyEditDistance = %v, want 0", c.fuzzyEditDistance)
		}
	})
}

func TestParseMatchPolicy(t *testing.T) {
	for _, s := range []string{"", "exact", "token"} {
		if _, err := ParseMatchPolicy(s); err != nil {
			t.Errorf("ParseMatchPolicy(%q) error = %v", s, err)
		}
	}
	if _, err := ParseMatchPolicy("fuzzy"); err == nil {
		t.Error("ParseMatchPolicy(fuzzy) expected error")
	}
}

func snapshotOf(names ...string) []domain.PantryEntry {
	out := make([]domain.PantryEntry, 0, len(names))
	for i, n := range names {
		out = append(out, pantryEntry(string(rune('a'+i)), "owner", NormalizeName(n), 1, "units"))
	}
	return out
}

func TestComputeMatchExact(t *testing.T) {
	calc := NewMatchCalculator(MatchConfig{Policy: MatchPolicyExact})

	t.Run("two of three ingredients", func(t *testing.T) {
		got := calc.ComputeMatch("r1", []string{"flour", "eggs", "milk"}, snapshotOf("flour", "eggs"))
		if got.Percentage != 67 {
			t.Errorf("Percentage = %d, want 67", got.Percentage)
		}
		if !reflect.DeepEqual(got.MatchedIngredients, []string{"flour", "eggs"}) {
			t.Errorf("Matched = %v", got.MatchedIngredients)
		}
		if !reflect.DeepEqual(got.MissingIngredients, []string{"milk"}) {
			t.Errorf("Missing = %v", got.MissingIngredients)
		}
		if got.RecipeID != "r1" {
			t.Errorf("RecipeID = %q", got.RecipeID)
		}
	})

	t.Run("empty recipe is zero percent", func(t *testing.T) {
		got := calc.ComputeMatch("r", nil, snapshotOf("flour"))
		if got.Percentage != 0 {
			t.Errorf("Percentage = %d, want 0", got.Percentage)
		}
		if len(got.MatchedIngredients)+len(got.MissingIngredients) != 0 {
			t.Errorf("expected no ingredients, got %+v", got)
		}
	})

	t.Run("empty pantry misses everything", func(t *testing.T) {
		got := calc.ComputeMatch("r", []string{"flour", "milk"}, nil)
		if got.Percentage != 0 || len(got.MissingIngredients) != 2 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("full pantry is one hundred", func(t *testing.T) {
		got := calc.ComputeMatch("r", []string{"Flour", "MILK"}, snapshotOf("flour", "milk", "sugar"))
		if got.Percentage != 100 {
			t.Errorf("Percentage = %d, want 100", got.Percentage)
		}
	})

	t.Run("names compared after normalization", func(t *testing.T) {
		got := calc.ComputeMatch("r", []string{"  Olive   OIL "}, snapshotOf("olive oil"))
		if !reflect.DeepEqual(got.MatchedIngredients, []string{"olive oil"}) {
			t.Errorf("Matched = %v", got.MatchedIngredients)
		}
	})

	t.Run("zero quantity is not present", func(t *testing.T) {
		snap := snapshotOf("flour", "milk")
		snap[1].Quantity = 0
		got := calc.ComputeMatch("r", []string{"flour", "milk"}, snap)
		if got.Percentage != 50 {
			t.Errorf("Percentage = %d, want 50", got.Percentage)
		}
	})

	t.Run("duplicate recipe lines count individually", func(t *testing.T) {
		got := calc.ComputeMatch("r", []string{"egg", "egg", "milk"}, snapshotOf("egg"))
		if got.Percentage != 67 {
			t.Errorf("Percentage = %d, want 67", got.Percentage)
		}
		if len(got.MatchedIngredients) != 2 {
			t.Errorf("Matched = %v", got.MatchedIngredients)
		}
	})

	t.Run("plurals do not match under exact policy", func(t *testing.T) {
		got := calc.ComputeMatch("r", []string{"tomatoes"}, snapshotOf("tomato"))
		if got.Percentage != 0 {
			t.Errorf("Percentage = %d, want 0", got.Percentage)
		}
	})

	t.Run("one third rounds down", func(t *testing.T) {
		got := calc.ComputeMatch("r", []string{"a1", "b1", "c1"}, snapshotOf("a1"))
		if got.Percentage != 33 {
			t.Errorf("Percentage = %d, want 33", got.Percentage)
		}
	})
}

func TestComputeMatchToken(t *testing.T) {
	calc := NewMatchCalculator(MatchConfig{Policy: MatchPolicyToken, FuzzyEditDistance: 1})

	tests := []struct {
		name    string
		recipe  string
		pantry  string
		matched bool
	}{
		{"plural folded", "tomatoes", "tomato", true},
		{"noise words ignored", "chopped onions", "onion", true},
		{"word order ignored", "oil olive", "olive oil", true},
		{"typo in long token", "parmesan", "parmesen", true},
		{"extra token is not a match", "whole milk", "milk", false},
		{"different ingredient", "butter", "flour", false},
		{"short tokens need exact match", "ham", "jam", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forward := calc.ComputeMatch("r", []string{tt.recipe}, snapshotOf(tt.pantry))
			backward := calc.ComputeMatch("r", []string{tt.pantry}, snapshotOf(tt.recipe))

			if got := len(forward.MatchedIngredients) == 1; got != tt.matched {
				t.Errorf("matched(%q in %q) = %v, want %v", tt.recipe, tt.pantry, got, tt.matched)
			}
			if forward.Percentage != backward.Percentage {
				t.Errorf("policy not symmetric: %d vs %d", forward.Percentage, backward.Percentage)
			}
		})
	}

	t.Run("zero edit distance disables typo tolerance", func(t *testing.T) {
		strict := NewMatchCalculator(MatchConfig{Policy: MatchPolicyToken})
		got := strict.ComputeMatch("r", []string{"parmesan"}, snapshotOf("parmesen"))
		if got.Percentage != 0 {
			t.Errorf("Percentage = %d, want 0", got.Percentage)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		snap := snapshotOf("flour", "eggs", "tomato")
		ing := []string{"Flour", "egg", "tomatoes", "basil"}
		first := calc.ComputeMatch("r", ing, snap)
		for i := 0; i < 20; i++ {
			if got := calc.ComputeMatch("r", ing, snap); !reflect.DeepEqual(got, first) {
				t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
			}
		}
	})
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"milk", "milk", 0},
		{"parmesan", "parmesen", 1},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
