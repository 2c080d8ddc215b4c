package inventory

import "math"

// UnconstrainedCapacity is the sentinel reported for menu items with no
// linked ingredients. Kept numeric and storable rather than a true infinity;
// the value matches what the stall dashboards already display.
const UnconstrainedCapacity = 9999

// CapacityResult carries the producible servings for one menu item and the
// ingredient that limited it ("" when unconstrained).
type CapacityResult struct {
	Capacity int
	Limiting string
}

// Capacity computes floor(min over linked ingredients of stock/rate) for one
// menu item. Ties on the minimum keep the first-encountered ingredient.
func Capacity(menuName string, link Linkage, recipe []RecipeItem) CapacityResult {
	ingredients := link.MenuIngredients[menuName]
	if len(ingredients) == 0 {
		return CapacityResult{Capacity: UnconstrainedCapacity}
	}

	result := CapacityResult{Capacity: -1}
	for _, ingredient := range ingredients {
		stock := link.StockLevels[ingredient]
		rate := consumptionRate(ingredient, recipe)
		servings := int(math.Floor(stock / rate))
		if servings < 0 {
			servings = 0
		}
		if result.Capacity < 0 || servings < result.Capacity {
			result.Capacity = servings
			result.Limiting = ingredient
		}
	}

	return result
}

// MenuCapacities computes the capacity array aligned to menuNames.
// recipes is parallel to menuNames; a shorter slice means the trailing menu
// items have no recipe and use the legacy one-unit-per-serving rate.
func MenuCapacities(menuNames []string, stocks []string, recipes []string) []int {
	link := ResolveLinkage(ParseStocks(stocks))

	out := make([]int, len(menuNames))
	for i, name := range menuNames {
		var recipe []RecipeItem
		if i < len(recipes) {
			recipe = ParseRecipe(recipes[i])
		}
		out[i] = Capacity(name, link, recipe).Capacity
	}
	return out
}

// Availability derives the customer-facing flags: a menu item is available
// exactly when at least one serving is producible.
func Availability(capacities []int) []bool {
	out := make([]bool, len(capacities))
	for i, c := range capacities {
		out[i] = c > 0
	}
	return out
}
