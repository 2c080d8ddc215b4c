package inventory

import (
	"reflect"
	"testing"
)

func TestParseStockEntry(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		ok        bool
		expect    StockEntry
	}{
		{
			name: "well formed entry",
			raw:  "A|Cheese::Burger,Fries|5.00 kg|2024-01-01|2024-06-01",
			ok:   true,
			expect: StockEntry{
				Group:       "A",
				Ingredient:  "Cheese",
				LinkedMenus: []string{"Burger", "Fries"},
				Amount:      5,
				HasAmount:   true,
				Unit:        "kg",
				BatchDate:   "2024-01-01",
				ExpiryDate:  "2024-06-01",
			},
		},
		{
			name: "no linked menus",
			raw:  "B|Salt::|0.25 kg|2024-02-01|2025-02-01",
			ok:   true,
			expect: StockEntry{
				Group:      "B",
				Ingredient: "Salt",
				Amount:     0.25,
				HasAmount:  true,
				Unit:       "kg",
				BatchDate:  "2024-02-01",
				ExpiryDate: "2025-02-01",
			},
		},
		{
			name: "missing link separator",
			raw:  "B|Salt|1.00 kg|2024-02-01|2025-02-01",
			ok:   true,
			expect: StockEntry{
				Group:      "B",
				Ingredient: "Salt",
				Amount:     1,
				HasAmount:  true,
				Unit:       "kg",
				BatchDate:  "2024-02-01",
				ExpiryDate: "2025-02-01",
			},
		},
		{
			name: "csv with blanks and padding",
			raw:  "A|Oil:: Burger , ,Fries |2.00 L|2024-01-01|2024-06-01",
			ok:   true,
			expect: StockEntry{
				Group:       "A",
				Ingredient:  "Oil",
				LinkedMenus: []string{"Burger", "Fries"},
				Amount:      2,
				HasAmount:   true,
				Unit:        "L",
				BatchDate:   "2024-01-01",
				ExpiryDate:  "2024-06-01",
			},
		},
		{
			name: "unparseable amount kept absent",
			raw:  "A|Cheese::Burger|lots kg|2024-01-01|2024-06-01",
			ok:   true,
			expect: StockEntry{
				Group:       "A",
				Ingredient:  "Cheese",
				LinkedMenus: []string{"Burger"},
				Unit:        "kg",
				BatchDate:   "2024-01-01",
				ExpiryDate:  "2024-06-01",
			},
		},
		{
			name: "negative amount clamps to zero",
			raw:  "A|Cheese::Burger|-3.50 kg|2024-01-01|2024-06-01",
			ok:   true,
			expect: StockEntry{
				Group:       "A",
				Ingredient:  "Cheese",
				LinkedMenus: []string{"Burger"},
				Amount:      0,
				HasAmount:   true,
				Unit:        "kg",
				BatchDate:   "2024-01-01",
				ExpiryDate:  "2024-06-01",
			},
		},
		{
			name: "four fields rejected",
			raw:  "A|Cheese::Burger|5.00 kg|2024-01-01",
			ok:   false,
		},
		{
			name: "six fields rejected",
			raw:  "A|Cheese::Burger|5.00 kg|2024-01-01|2024-06-01|extra",
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry, ok := ParseStockEntry(tc.raw)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if !tc.ok {
				return
			}
			if !reflect.DeepEqual(entry, tc.expect) {
				t.Fatalf("expected %+v, got %+v", tc.expect, entry)
			}
		})
	}
}

func TestStockEntryRoundTrip(t *testing.T) {
	raws := []string{
		"A|Cheese::Burger,Fries|5.00 kg|2024-01-01|2024-06-01",
		"B|Salt::|0.25 kg|2024-02-01|2025-02-01",
		"C|Patty::Burger|12.00 pcs|2024-03-10|2024-03-20",
	}

	for _, raw := range raws {
		first, ok := ParseStockEntry(raw)
		if !ok {
			t.Fatalf("parse failed for %q", raw)
		}
		second, ok := ParseStockEntry(first.Encode())
		if !ok {
			t.Fatalf("reparse failed for %q", first.Encode())
		}
		if second.Ingredient != first.Ingredient {
			t.Fatalf("ingredient changed: %q -> %q", first.Ingredient, second.Ingredient)
		}
		if !reflect.DeepEqual(second.LinkedMenus, first.LinkedMenus) {
			t.Fatalf("linked menus changed: %v -> %v", first.LinkedMenus, second.LinkedMenus)
		}
		if second.Amount != Round2(first.Amount) {
			t.Fatalf("amount changed: %v -> %v", first.Amount, second.Amount)
		}
	}
}

func TestStockEntryEncodeFormat(t *testing.T) {
	entry := StockEntry{
		Group:       "A",
		Ingredient:  "Cheese",
		LinkedMenus: []string{"Burger", "Fries"},
		Amount:      3,
		HasAmount:   true,
		Unit:        "kg",
		BatchDate:   "2024-01-01",
		ExpiryDate:  "2024-06-01",
	}
	expected := "A|Cheese::Burger,Fries|3.00 kg|2024-01-01|2024-06-01"
	if got := entry.Encode(); got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}
}

func TestValidateStocks(t *testing.T) {
	cases := []struct {
		name    string
		stocks  []string
		wantErr bool
	}{
		{
			name:   "valid entries",
			stocks: []string{"A|Cheese::Burger|5.00 kg|2024-01-01|2024-06-01"},
		},
		{
			name:    "four fields",
			stocks:  []string{"A|Cheese::Burger|5.00 kg|2024-01-01"},
			wantErr: true,
		},
		{
			name:    "empty field",
			stocks:  []string{"A|Cheese::Burger||2024-01-01|2024-06-01"},
			wantErr: true,
		},
		{
			name:   "empty list",
			stocks: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStocks(tc.stocks)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseRecipe(t *testing.T) {
	recipe := ParseRecipe("Cheese^0.2^kg|Patty^1^pcs|bad-triple|^2^kg")
	if len(recipe) != 2 {
		t.Fatalf("expected 2 recipe items, got %d", len(recipe))
	}
	if recipe[0].Ingredient != "Cheese" || recipe[0].Amount != 0.2 || recipe[0].Unit != "kg" {
		t.Fatalf("unexpected first item: %+v", recipe[0])
	}
	if recipe[1].Ingredient != "Patty" || recipe[1].Amount != 1 {
		t.Fatalf("unexpected second item: %+v", recipe[1])
	}

	if got := ParseRecipe(""); got != nil {
		t.Fatalf("expected nil for empty recipe, got %v", got)
	}
}

func TestRecipeRoundTrip(t *testing.T) {
	raw := "Cheese^0.2^kg|Patty^1^pcs"
	if got := EncodeRecipe(ParseRecipe(raw)); got != raw {
		t.Fatalf("expected %q, got %q", raw, got)
	}
}
