package usecase

import "github.com/pantrymatch/backend/internal/domain"

// unitCategories maps every unit spelling we recognise to its category
var unitCategories = map[string]domain.Category{
	// Liquid
	"ml": domain.CategoryLiquid, "milliliter": domain.CategoryLiquid, "milliliters": domain.CategoryLiquid,
	"l": domain.CategoryLiquid, "liter": domain.CategoryLiquid, "liters": domain.CategoryLiquid,
	"litre": domain.CategoryLiquid, "litres": domain.CategoryLiquid,
	"cl": domain.CategoryLiquid, "dl": domain.CategoryLiquid,
	"fl oz": domain.CategoryLiquid, "fl-oz": domain.CategoryLiquid, "floz": domain.CategoryLiquid,
	"gallon": domain.CategoryLiquid, "gallons": domain.CategoryLiquid, "gal": domain.CategoryLiquid,
	"quart": domain.CategoryLiquid, "quarts": domain.CategoryLiquid, "qt": domain.CategoryLiquid,
	"pint": domain.CategoryLiquid, "pints": domain.CategoryLiquid, "pt": domain.CategoryLiquid,

	// Dry volume
	"cup": domain.CategoryVolumeDry, "cups": domain.CategoryVolumeDry,
	"tbsp": domain.CategoryVolumeDry, "tablespoon": domain.CategoryVolumeDry, "tablespoons": domain.CategoryVolumeDry,
	"tsp": domain.CategoryVolumeDry, "teaspoon": domain.CategoryVolumeDry, "teaspoons": domain.CategoryVolumeDry,
	"pinch": domain.CategoryVolumeDry, "dash": domain.CategoryVolumeDry,

	// Weight
	"mg": domain.CategoryWeight, "g": domain.CategoryWeight, "gram": domain.CategoryWeight,
	"grams": domain.CategoryWeight, "kg": domain.CategoryWeight, "kilogram": domain.CategoryWeight,
	"kilograms": domain.CategoryWeight, "oz": domain.CategoryWeight, "ounce": domain.CategoryWeight,
	"ounces": domain.CategoryWeight, "lb": domain.CategoryWeight, "lbs": domain.CategoryWeight,
	"pound": domain.CategoryWeight, "pounds": domain.CategoryWeight,

	// Count
	"unit": domain.CategoryCount, "units": domain.CategoryCount, "pc": domain.CategoryCount,
	"pcs": domain.CategoryCount, "piece": domain.CategoryCount, "pieces": domain.CategoryCount,
	"whole": domain.CategoryCount, "clove": domain.CategoryCount, "cloves": domain.CategoryCount,
	"slice": domain.CategoryCount, "slices": domain.CategoryCount, "can": domain.CategoryCount,
	"cans": domain.CategoryCount, "pack": domain.CategoryCount, "packs": domain.CategoryCount,
	"bunch": domain.CategoryCount, "dozen": domain.CategoryCount, "each": domain.CategoryCount,
}

// UnitCategory returns the category of a unit and whether the unit is known
func UnitCategory(unit string) (domain.Category, bool) {
	c, ok := unitCategories[NormalizeUnit(unit)]
	return c, ok
}

// unitCategoryOrCount treats unknown units like the taxonomy's default entry
func unitCategoryOrCount(unit string) domain.Category {
	if c, ok := UnitCategory(unit); ok {
		return c
	}
	return domain.CategoryCount
}

// UnitsCompatible reports whether two units share a category.
// Identical spellings are always compatible, even if unknown.
func UnitsCompatible(a, b string) bool {
	if NormalizeUnit(a) == NormalizeUnit(b) {
		return true
	}
	return unitCategoryOrCount(a) == unitCategoryOrCount(b)
}
