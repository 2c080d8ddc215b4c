package inventory

import (
	"reflect"
	"testing"
)

func TestMenuCapacities(t *testing.T) {
	cases := []struct {
		name     string
		menus    []string
		stocks   []string
		recipes  []string
		expected []int
	}{
		{
			name:  "constrained and unconstrained",
			menus: []string{"Burger", "Soda"},
			stocks: []string{
				"A|Cheese::Burger|10.00 kg|2024-01-01|2024-06-01",
			},
			expected: []int{10, UnconstrainedCapacity},
		},
		{
			name:  "minimum over ingredients wins",
			menus: []string{"Burger"},
			stocks: []string{
				"A|Cheese::Burger|10.00 kg|2024-01-01|2024-06-01",
				"A|Patty::Burger|4.00 pcs|2024-01-01|2024-06-01",
			},
			expected: []int{4},
		},
		{
			name:  "recipe rate governs consumption",
			menus: []string{"Burger"},
			stocks: []string{
				"A|Cheese::Burger|10.00 kg|2024-01-01|2024-06-01",
			},
			recipes:  []string{"Cheese^0.5^kg"},
			expected: []int{20},
		},
		{
			name:  "recipe fallback to constant rate",
			menus: []string{"Burger"},
			stocks: []string{
				"A|Cheese::Burger|10.00 kg|2024-01-01|2024-06-01",
				"A|Patty::Burger|6.00 pcs|2024-01-01|2024-06-01",
			},
			recipes:  []string{"Cheese^2^kg"},
			expected: []int{5},
		},
		{
			name:  "zero stock means zero capacity",
			menus: []string{"Burger"},
			stocks: []string{
				"A|Cheese::Burger|0.00 kg|2024-01-01|2024-06-01",
				"A|Patty::Burger|10.00 pcs|2024-01-01|2024-06-01",
			},
			expected: []int{0},
		},
		{
			name:  "unparseable stock means zero capacity",
			menus: []string{"Burger"},
			stocks: []string{
				"A|Cheese::Burger|lots kg|2024-01-01|2024-06-01",
			},
			expected: []int{0},
		},
		{
			name:  "batches of the same ingredient sum",
			menus: []string{"Burger"},
			stocks: []string{
				"A|Cheese::Burger|3.00 kg|2024-01-01|2024-06-01",
				"B|Cheese::Burger|4.50 kg|2024-02-01|2024-07-01",
			},
			expected: []int{7},
		},
		{
			name:  "malformed ledger line skipped",
			menus: []string{"Burger"},
			stocks: []string{
				"not a stock entry",
				"A|Cheese::Burger|5.00 kg|2024-01-01|2024-06-01",
			},
			expected: []int{5},
		},
		{
			name:     "empty ledger leaves menus unconstrained",
			menus:    []string{"Burger", "Soda"},
			expected: []int{UnconstrainedCapacity, UnconstrainedCapacity},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MenuCapacities(tc.menus, tc.stocks, tc.recipes)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
			for _, c := range got {
				if c < 0 {
					t.Fatalf("capacity must never be negative, got %v", got)
				}
			}
		})
	}
}

func TestCapacityLimitingIngredient(t *testing.T) {
	stocks := []string{
		"A|Cheese::Burger|4.00 kg|2024-01-01|2024-06-01",
		"A|Patty::Burger|4.00 pcs|2024-01-01|2024-06-01",
		"A|Bun::Burger|9.00 pcs|2024-01-01|2024-06-01",
	}
	link := ResolveLinkage(ParseStocks(stocks))

	result := Capacity("Burger", link, nil)
	if result.Capacity != 4 {
		t.Fatalf("expected capacity 4, got %d", result.Capacity)
	}
	// Tie between Cheese and Patty breaks on iteration order.
	if result.Limiting != "Cheese" {
		t.Fatalf("expected first-encountered limiting ingredient Cheese, got %q", result.Limiting)
	}

	unconstrained := Capacity("Soda", link, nil)
	if unconstrained.Capacity != UnconstrainedCapacity || unconstrained.Limiting != "" {
		t.Fatalf("unexpected unconstrained result: %+v", unconstrained)
	}
}

func TestAvailability(t *testing.T) {
	got := Availability([]int{0, 1, UnconstrainedCapacity, 0})
	expected := []bool{false, true, true, false}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}

func TestResolveLinkageDeduplicates(t *testing.T) {
	stocks := []string{
		"A|Cheese::Burger|3.00 kg|2024-01-01|2024-06-01",
		"B|Cheese::Burger|4.00 kg|2024-02-01|2024-07-01",
	}
	link := ResolveLinkage(ParseStocks(stocks))

	if got := link.MenuIngredients["Burger"]; len(got) != 1 || got[0] != "Cheese" {
		t.Fatalf("expected deduplicated [Cheese], got %v", got)
	}
	if got := link.StockLevels["Cheese"]; got != 7 {
		t.Fatalf("expected summed stock 7, got %v", got)
	}
}
