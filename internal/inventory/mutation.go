package inventory

import "fmt"

// OutOfStockError is the business-rule rejection for decrements against a
// depleted ingredient. The message text is surfaced verbatim to callers.
type OutOfStockError struct {
	Ingredient string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("Cannot decrease stock. Ingredient %q is out of stock.", e.Ingredient)
}

// ApplyDelta applies quantityDelta to every stock entry linked to menuName
// and returns the updated ledger. Malformed entries and entries for other
// menu items pass through unchanged, byte for byte.
//
// Decrements are all-or-nothing: a pre-flight pass rejects the whole
// operation if any linked entry is already at zero, before anything is
// mutated. This blocks even when the depleted ingredient might not be the
// limiting one for this delta; deliberately conservative, pending product
// clarification. Amounts clamp at zero and persist at two decimals.
func ApplyDelta(stocks []string, menuName string, quantityDelta float64) ([]string, error) {
	if quantityDelta < 0 {
		for _, raw := range stocks {
			entry, ok := ParseStockEntry(raw)
			if !ok || !entry.HasAmount || !entry.LinkedTo(menuName) {
				continue
			}
			if entry.Amount <= 0 {
				return nil, &OutOfStockError{Ingredient: entry.Ingredient}
			}
		}
	}

	out := make([]string, len(stocks))
	for i, raw := range stocks {
		entry, ok := ParseStockEntry(raw)
		if !ok || !entry.HasAmount || !entry.LinkedTo(menuName) {
			out[i] = raw
			continue
		}
		entry.Amount = Round2(entry.Amount + quantityDelta)
		if entry.Amount < 0 {
			entry.Amount = 0
		}
		out[i] = entry.Encode()
	}

	return out, nil
}
