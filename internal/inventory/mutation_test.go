package inventory

import (
	"errors"
	"reflect"
	"testing"
)

func TestApplyDeltaConsume(t *testing.T) {
	stocks := []string{
		"A|Cheese::Burger,Fries|5.00 kg|2024-01-01|2024-06-01",
		"A|Patty::Burger|8.00 pcs|2024-01-01|2024-06-01",
		"A|Syrup::Soda|2.00 L|2024-01-01|2024-06-01",
	}

	updated, err := ApplyDelta(stocks, "Burger", -2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{
		"A|Cheese::Burger,Fries|3.00 kg|2024-01-01|2024-06-01",
		"A|Patty::Burger|6.00 pcs|2024-01-01|2024-06-01",
		"A|Syrup::Soda|2.00 L|2024-01-01|2024-06-01",
	}
	if !reflect.DeepEqual(updated, expected) {
		t.Fatalf("expected %v, got %v", expected, updated)
	}
}

func TestApplyDeltaRestock(t *testing.T) {
	stocks := []string{"A|Cheese::Burger|0.00 kg|2024-01-01|2024-06-01"}

	updated, err := ApplyDelta(stocks, "Burger", 1.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated[0] != "A|Cheese::Burger|1.50 kg|2024-01-01|2024-06-01" {
		t.Fatalf("unexpected entry: %q", updated[0])
	}
}

func TestApplyDeltaClampsAtZero(t *testing.T) {
	stocks := []string{"A|Cheese::Burger|1.00 kg|2024-01-01|2024-06-01"}

	updated, err := ApplyDelta(stocks, "Burger", -5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated[0] != "A|Cheese::Burger|0.00 kg|2024-01-01|2024-06-01" {
		t.Fatalf("expected clamp to 0.00, got %q", updated[0])
	}
}

func TestApplyDeltaOutOfStockPreflight(t *testing.T) {
	stocks := []string{
		"A|Cheese::Burger|0.00 kg|2024-01-01|2024-06-01",
		"A|Patty::Burger|8.00 pcs|2024-01-01|2024-06-01",
	}
	before := append([]string(nil), stocks...)

	updated, err := ApplyDelta(stocks, "Burger", -1)
	if err == nil {
		t.Fatalf("expected out-of-stock rejection")
	}

	var oos *OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("expected OutOfStockError, got %T", err)
	}
	expectedMsg := `Cannot decrease stock. Ingredient "Cheese" is out of stock.`
	if err.Error() != expectedMsg {
		t.Fatalf("expected %q, got %q", expectedMsg, err.Error())
	}
	if updated != nil {
		t.Fatalf("expected no ledger on rejection, got %v", updated)
	}
	// All-or-nothing: the input must be untouched.
	if !reflect.DeepEqual(stocks, before) {
		t.Fatalf("input ledger mutated: %v", stocks)
	}
}

func TestApplyDeltaPassesThroughUnrelatedAndMalformed(t *testing.T) {
	stocks := []string{
		"garbage line",
		"A|Cheese::Fries|5.00 kg|2024-01-01|2024-06-01",
		"A|Mystery::Burger|??? kg|2024-01-01|2024-06-01",
	}

	updated, err := ApplyDelta(stocks, "Burger", -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(updated, stocks) {
		t.Fatalf("expected byte-identical pass-through, got %v", updated)
	}
}

func TestApplyDeltaRestockIgnoresPreflight(t *testing.T) {
	stocks := []string{"A|Cheese::Burger|0.00 kg|2024-01-01|2024-06-01"}

	if _, err := ApplyDelta(stocks, "Burger", 3); err != nil {
		t.Fatalf("restock must not be blocked by depleted stock: %v", err)
	}
}
