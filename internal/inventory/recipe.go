package inventory

import (
	"fmt"
	"strconv"
	"strings"
)

// Recipes persist one string per menu item, pipe-delimited triples of
// ingredient^requiredAmount^unit.

type RecipeItem struct {
	Ingredient string
	Amount     float64
	Unit       string
}

// ParseRecipe decodes a recipe string, skipping malformed triples.
func ParseRecipe(raw string) []RecipeItem {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	out := make([]RecipeItem, 0, len(parts))
	for _, part := range parts {
		fields := strings.Split(part, "^")
		if len(fields) != 3 {
			continue
		}
		ingredient := strings.TrimSpace(fields[0])
		if ingredient == "" {
			continue
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil || amount < 0 {
			continue
		}
		out = append(out, RecipeItem{
			Ingredient: ingredient,
			Amount:     amount,
			Unit:       strings.TrimSpace(fields[2]),
		})
	}
	return out
}

func EncodeRecipe(items []RecipeItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		amount := strconv.FormatFloat(item.Amount, 'f', -1, 64)
		parts = append(parts, fmt.Sprintf("%s^%s^%s", item.Ingredient, amount, item.Unit))
	}
	return strings.Join(parts, "|")
}

// consumptionRate returns how much of an ingredient one serving consumes.
// The recipe quantity governs when present; entries without a covering
// recipe fall back to the legacy constant of one unit per serving.
func consumptionRate(ingredient string, recipe []RecipeItem) float64 {
	for _, item := range recipe {
		if item.Ingredient == ingredient && item.Amount > 0 {
			return item.Amount
		}
	}
	return 1
}
