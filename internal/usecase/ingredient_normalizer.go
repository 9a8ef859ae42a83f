package usecase

import (
	"regexp"
	"strings"
)

// Compiled regex patterns for ingredient name normalization
var (
	multiSpacePattern  = regexp.MustCompile(`\s+`)
	punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// ingredientNoiseWords are quantity, unit and packaging words that say nothing
// about which ingredient a line refers to
var ingredientNoiseWords = map[string]bool{
	// Stop words
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"for": true, "with": true, "to": true, "some": true,
	// Units
	"ml": true, "l": true, "g": true, "kg": true, "mg": true, "oz": true, "lb": true,
	"lbs": true, "cup": true, "cups": true, "tbsp": true, "tsp": true, "pinch": true,
	"gram": true, "grams": true, "liter": true, "liters": true, "ounce": true, "ounces": true,
	"tablespoon": true, "tablespoons": true, "teaspoon": true, "teaspoons": true,
	// Packaging
	"pack": true, "can": true, "cans": true, "jar": true, "bottle": true, "bag": true,
	"box": true, "carton": true,
	// Preparation noise
	"fresh": true, "chopped": true, "diced": true, "sliced": true, "minced": true,
	"large": true, "medium": true, "small": true,
}

// NormalizeName folds an ingredient name to its dedup key: lowercase, single
// spaces, trimmed. Pantry dedup and recipe matching both go through it.
func NormalizeName(name string) string {
	folded := strings.ToLower(name)
	folded = multiSpacePattern.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}

// NormalizeUnit folds a unit string for comparisons and separate-entry keys
func NormalizeUnit(unit string) string {
	return NormalizeName(strings.TrimSuffix(strings.TrimSpace(unit), "."))
}

// IngredientTokens splits a name into content tokens for the token match policy.
// Removes punctuation, noise words and numbers, and folds simple plurals.
func IngredientTokens(name string) []string {
	cleaned := punctuationPattern.ReplaceAllString(NormalizeName(name), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 || ingredientNoiseWords[word] || isNumeric(word) {
			continue
		}
		tokens = append(tokens, singularize(word))
	}
	return tokens
}

// singularize folds the plural endings common in ingredient lists
func singularize(word string) string {
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case len(word) > 4 && strings.HasSuffix(word, "oes"):
		return word[:len(word)-2]
	case len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return word[:len(word)-1]
	}
	return word
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
