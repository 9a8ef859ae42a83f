package recipes

import (
	"strings"

	"github.com/pantrymatch/backend/internal/domain"
)

// RecipeDTO is the recipe service's wire format. Older payloads use "name"
// instead of "title".
type RecipeDTO struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Name        string          `json:"name"`
	Ingredients []IngredientDTO `json:"ingredients"`
}

// IngredientDTO is one ingredient line on the wire
type IngredientDTO struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// MapToRecipe converts the wire format to a domain recipe. Ingredient lines
// without a name are dropped; fallbackID is used when the payload has no id.
func MapToRecipe(dto RecipeDTO, fallbackID string) *domain.Recipe {
	recipe := &domain.Recipe{
		ID:          dto.ID,
		Title:       strings.TrimSpace(dto.Title),
		Ingredients: make([]domain.RecipeIngredient, 0, len(dto.Ingredients)),
	}
	if recipe.ID == "" {
		recipe.ID = fallbackID
	}
	if recipe.Title == "" {
		recipe.Title = strings.TrimSpace(dto.Name)
	}

	for _, ing := range dto.Ingredients {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		recipe.Ingredients = append(recipe.Ingredients, domain.RecipeIngredient{
			Name:     name,
			Quantity: ing.Quantity,
			Unit:     strings.TrimSpace(ing.Unit),
		})
	}
	return recipe
}
