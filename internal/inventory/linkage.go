package inventory

// Linkage maps the stall's stock ledger both ways: which ingredients gate
// each menu item, and how much of each ingredient is on hand across batches.
type Linkage struct {
	MenuIngredients map[string][]string
	StockLevels     map[string]float64
}

// ResolveLinkage walks the parsed ledger once. Ingredient sets per menu are
// deduplicated in first-seen order. Amounts for the same ingredient across
// batches are summed; batches whose amount failed to parse contribute nothing,
// so a menu gated only by such a batch reads as out of stock rather than
// unconstrained.
func ResolveLinkage(entries []StockEntry) Linkage {
	link := Linkage{
		MenuIngredients: make(map[string][]string),
		StockLevels:     make(map[string]float64),
	}

	seen := make(map[string]map[string]bool)
	for _, entry := range entries {
		if entry.Ingredient == "" {
			continue
		}
		for _, menu := range entry.LinkedMenus {
			if seen[menu] == nil {
				seen[menu] = make(map[string]bool)
			}
			if seen[menu][entry.Ingredient] {
				continue
			}
			seen[menu][entry.Ingredient] = true
			link.MenuIngredients[menu] = append(link.MenuIngredients[menu], entry.Ingredient)
		}
		if entry.HasAmount {
			link.StockLevels[entry.Ingredient] += entry.Amount
		}
	}

	return link
}

// ParseStocks decodes a raw ledger, silently dropping malformed lines.
func ParseStocks(stocks []string) []StockEntry {
	entries := make([]StockEntry, 0, len(stocks))
	for _, raw := range stocks {
		if entry, ok := ParseStockEntry(raw); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}
