package domain

// Recipe is the part of a recipe this service reads from the recipe collaborator
type Recipe struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Ingredients []RecipeIngredient `json:"ingredients"`
}

// RecipeIngredient is one ingredient line of a recipe
type RecipeIngredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity,omitempty"`
	Unit     string  `json:"unit,omitempty"`
}

// IngredientNames returns the ingredient names in recipe order
func (r *Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}

// MatchResult is the share of a recipe's ingredients present in a pantry snapshot.
// len(MatchedIngredients)+len(MissingIngredients) equals the recipe's ingredient count.
type MatchResult struct {
	RecipeID           string   `json:"recipeId"`
	Percentage         int      `json:"percentage"` // 0-100, rounded
	MatchedIngredients []string `json:"matchedIngredients"`
	MissingIngredients []string `json:"missingIngredients"`
}
