package usecase

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/pantrymatch/backend/internal/domain"
)

// MatchPolicy decides when a recipe ingredient counts as present in a pantry
type MatchPolicy string

const (
	// MatchPolicyExact compares normalized names for equality
	MatchPolicyExact MatchPolicy = "exact"
	// MatchPolicyToken compares content-token sets, tolerating small typos in long tokens
	MatchPolicyToken MatchPolicy = "token"
)

// ParseMatchPolicy parses a policy name, defaulting empty to exact
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch MatchPolicy(s) {
	case "", MatchPolicyExact:
		return MatchPolicyExact, nil
	case MatchPolicyToken:
		return MatchPolicyToken, nil
	}
	return "", fmt.Errorf("%w: unknown match policy %q", domain.ErrInvalidRequest, s)
}

// MatchConfig holds configuration for the match calculator
type MatchConfig struct {
	Policy             MatchPolicy
	FuzzyEditDistance  int
	EnableDebugLogging bool
	Logger             *zap.Logger
}

// MatchCalculator computes recipe/pantry match results. Every surface that
// shows a match percentage must get it from here.
type MatchCalculator struct {
	policy             MatchPolicy
	fuzzyEditDistance  int
	enableDebugLogging bool
	logger             *zap.Logger
}

// NewMatchCalculator creates a match calculator with the given configuration
func NewMatchCalculator(config MatchConfig) *MatchCalculator {
	policy := config.Policy
	if policy == "" {
		policy = MatchPolicyExact
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist < 0 {
		fuzzyDist = 0
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MatchCalculator{
		policy:             policy,
		fuzzyEditDistance:  fuzzyDist,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger,
	}
}

// Policy returns the policy in use
func (c *MatchCalculator) Policy() MatchPolicy {
	return c.policy
}

// ComputeMatch splits recipe ingredients into matched and missing against a
// pantry snapshot. Pure: no I/O, safe for concurrent use. Entries with zero
// quantity do not count as present.
func (c *MatchCalculator) ComputeMatch(recipeID string, ingredients []string, snapshot []domain.PantryEntry) domain.MatchResult {
	result := domain.MatchResult{
		RecipeID:           recipeID,
		MatchedIngredients: make([]string, 0, len(ingredients)),
		MissingIngredients: make([]string, 0),
	}

	present := c.presentNames(snapshot)

	for _, ingredient := range ingredients {
		name := NormalizeName(ingredient)
		if c.isPresent(name, present) {
			result.MatchedIngredients = append(result.MatchedIngredients, name)
		} else {
			result.MissingIngredients = append(result.MissingIngredients, name)
		}
	}

	result.Percentage = matchPercentage(len(result.MatchedIngredients), len(ingredients))

	if c.enableDebugLogging {
		c.logger.Debug("match computed",
			zap.String("recipe_id", recipeID),
			zap.String("policy", string(c.policy)),
			zap.Int("percentage", result.Percentage),
			zap.Strings("matched", result.MatchedIngredients),
			zap.Strings("missing", result.MissingIngredients),
		)
	}

	return result
}

// matchPercentage rounds 100*matched/total; an empty recipe is 0%, not 100%
func matchPercentage(matched, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(matched) / float64(total)))
}

// presentNames indexes the normalized names of entries with stock on hand
func (c *MatchCalculator) presentNames(snapshot []domain.PantryEntry) map[string][]string {
	present := make(map[string][]string, len(snapshot))
	for _, entry := range snapshot {
		if entry.Quantity <= 0 {
			continue
		}
		name := NormalizeName(entry.ItemName)
		if name == "" {
			continue
		}
		if _, ok := present[name]; !ok {
			present[name] = IngredientTokens(name)
		}
	}
	return present
}

func (c *MatchCalculator) isPresent(name string, present map[string][]string) bool {
	if name == "" {
		return false
	}
	if _, ok := present[name]; ok {
		return true
	}
	if c.policy != MatchPolicyToken {
		return false
	}

	tokens := IngredientTokens(name)
	if len(tokens) == 0 {
		return false
	}
	for _, pantryTokens := range present {
		if c.tokenSetsEquivalent(tokens, pantryTokens) {
			return true
		}
	}
	return false
}

// tokenSetsEquivalent is symmetric: both sides need the same number of tokens
// and every token on either side needs a partner on the other.
func (c *MatchCalculator) tokenSetsEquivalent(a, b []string) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	return c.covers(a, b) && c.covers(b, a)
}

func (c *MatchCalculator) covers(from, to []string) bool {
	for _, t := range from {
		found := false
		for _, u := range to {
			if fuzzyTokenMatch(t, u, c.fuzzyEditDistance) {
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

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to tokens >= 4 chars to avoid false positives
	if threshold == 0 || len(token1) < 4 || len(token2) < 4 {
		return false
	}

	// Quick length check - if lengths differ by more than threshold, can't match
	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
