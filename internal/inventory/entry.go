package inventory

import (
	"fmt"
	"strconv"
	"strings"
)

// Stock entries persist as flat pipe-delimited strings:
//
//	group|ingredientName::csvLinkedMenus|<amount> <unit>|batchDate|expiryDate
//
// The format is load-bearing: older records written by the previous stall
// dashboard must keep round-tripping byte-for-byte, so the codec lives here
// and nothing outside this package splits these strings by hand.

const stockEntryFieldCount = 5

const ingredientLinkSeparator = "::"

type StockEntry struct {
	Group       string
	Ingredient  string
	LinkedMenus []string
	Amount      float64
	HasAmount   bool
	Unit        string
	BatchDate   string
	ExpiryDate  string
}

// ParseStockEntry decodes one ledger line. ok is false when the line does not
// have exactly five pipe fields; callers skip such lines on read paths and
// pass them through unchanged on write paths. An amount token that does not
// parse leaves HasAmount false so aggregation treats the batch as absent
// instead of zero.
func ParseStockEntry(raw string) (StockEntry, bool) {
	parts := strings.Split(raw, "|")
	if len(parts) != stockEntryFieldCount {
		return StockEntry{}, false
	}

	entry := StockEntry{
		Group:      parts[0],
		BatchDate:  parts[3],
		ExpiryDate: parts[4],
	}

	ingredientData := parts[1]
	name, csv := ingredientData, ""
	if idx := strings.Index(ingredientData, ingredientLinkSeparator); idx >= 0 {
		name = ingredientData[:idx]
		csv = ingredientData[idx+len(ingredientLinkSeparator):]
	}
	entry.Ingredient = name
	entry.LinkedMenus = splitLinkedMenus(csv)

	amountToken, unit := parts[2], ""
	if idx := strings.Index(parts[2], " "); idx >= 0 {
		amountToken = parts[2][:idx]
		unit = parts[2][idx+1:]
	}
	entry.Unit = unit

	amount, err := strconv.ParseFloat(strings.TrimSpace(amountToken), 64)
	if err == nil {
		if amount < 0 {
			amount = 0
		}
		entry.Amount = amount
		entry.HasAmount = true
	}

	return entry, true
}

// Encode re-serializes the entry in the persisted wire format, with the
// amount rounded to two decimals.
func (e StockEntry) Encode() string {
	quantity := strconv.FormatFloat(Round2(e.Amount), 'f', 2, 64)
	if strings.TrimSpace(e.Unit) != "" {
		quantity = quantity + " " + e.Unit
	}
	ingredientData := e.Ingredient + ingredientLinkSeparator + strings.Join(e.LinkedMenus, ",")
	return fmt.Sprintf("%s|%s|%s|%s|%s", e.Group, ingredientData, quantity, e.BatchDate, e.ExpiryDate)
}

// LinkedTo reports whether this batch gates the given menu item.
func (e StockEntry) LinkedTo(menuName string) bool {
	for _, name := range e.LinkedMenus {
		if name == menuName {
			return true
		}
	}
	return false
}

// ValidateStocks checks that every entry has exactly five pipe-delimited,
// non-empty fields. Used before whole-array inventory writes.
func ValidateStocks(stocks []string) error {
	for i, raw := range stocks {
		parts := strings.Split(raw, "|")
		if len(parts) != stockEntryFieldCount {
			return fmt.Errorf("stock entry %d must have exactly %d pipe-delimited fields", i, stockEntryFieldCount)
		}
		for _, field := range parts {
			if strings.TrimSpace(field) == "" {
				return fmt.Errorf("stock entry %d has an empty field", i)
			}
		}
	}
	return nil
}

// Round2 rounds to the nearest two-decimal value. Stock amounts are
// persisted at this precision.
func Round2(v float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}

func splitLinkedMenus(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
