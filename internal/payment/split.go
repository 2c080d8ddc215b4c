package payment

import "strconv"

// Split is one order's settlement: the plaza keeps its commission and the
// stall receives the remainder. Parts always sum exactly to the total.
type Split struct {
	Total           float64 `json:"total"`
	PlazaCommission float64 `json:"plazaCommission"`
	StallPayout     float64 `json:"stallPayout"`
}

type LineItem struct {
	Price    float64
	Quantity int32
}

// OrderTotal accumulates line subtotals and rounds once at the end.
func OrderTotal(items []LineItem) float64 {
	total := 0.0
	for _, item := range items {
		if item.Quantity <= 0 || item.Price < 0 {
			continue
		}
		total += item.Price * float64(item.Quantity)
	}
	return round2(total)
}

// ComputeSplit apportions the total at the given commission rate. Commission
// rounds to two decimals; the payout is the exact remainder so rounding drift
// never creates or destroys money.
func ComputeSplit(total float64, commissionRate float64) Split {
	if total < 0 {
		total = 0
	}
	if commissionRate < 0 {
		commissionRate = 0
	}
	if commissionRate > 1 {
		commissionRate = 1
	}

	total = round2(total)
	commission := round2(total * commissionRate)
	return Split{
		Total:           total,
		PlazaCommission: commission,
		StallPayout:     round2(total - commission),
	}
}

func round2(v float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}
