package payment

import "testing"

func TestOrderTotal(t *testing.T) {
	cases := []struct {
		name     string
		items    []LineItem
		expected float64
	}{
		{
			name: "accumulates line subtotals",
			items: []LineItem{
				{Price: 4.5, Quantity: 2},
				{Price: 1.2, Quantity: 3},
			},
			expected: 12.6,
		},
		{
			name: "skips invalid lines",
			items: []LineItem{
				{Price: 4.5, Quantity: 0},
				{Price: -1, Quantity: 2},
				{Price: 2, Quantity: 1},
			},
			expected: 2,
		},
		{
			name:     "empty order",
			expected: 0,
		},
		{
			name: "rounds to two decimals",
			items: []LineItem{
				{Price: 0.1, Quantity: 3},
			},
			expected: 0.3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := OrderTotal(tc.items); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestComputeSplit(t *testing.T) {
	cases := []struct {
		name       string
		total      float64
		rate       float64
		commission float64
		payout     float64
	}{
		{name: "ten percent", total: 100, rate: 0.10, commission: 10, payout: 90},
		{name: "rounds commission", total: 12.55, rate: 0.10, commission: 1.26, payout: 11.29},
		{name: "zero rate", total: 50, rate: 0, commission: 0, payout: 50},
		{name: "negative total clamps", total: -5, rate: 0.10, commission: 0, payout: 0},
		{name: "rate above one clamps", total: 10, rate: 2, commission: 10, payout: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			split := ComputeSplit(tc.total, tc.rate)
			if split.PlazaCommission != tc.commission {
				t.Fatalf("expected commission %v, got %v", tc.commission, split.PlazaCommission)
			}
			if split.StallPayout != tc.payout {
				t.Fatalf("expected payout %v, got %v", tc.payout, split.StallPayout)
			}
			if got := split.PlazaCommission + split.StallPayout; round2(got) != split.Total {
				t.Fatalf("split must sum to total: %v + %v != %v", split.PlazaCommission, split.StallPayout, split.Total)
			}
		})
	}
}
