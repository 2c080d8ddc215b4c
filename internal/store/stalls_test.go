package store

import (
	"reflect"
	"testing"
)

func TestZipMenuAlignsByName(t *testing.T) {
	menu := zipMenu(
		[]string{"Burger", "Soda", "Fries"},
		[]float64{4.5, 1.2},
		[]int32{10, 20, 30},
		[]bool{true},
		nil,
		[]string{"Cheese^0.2^kg"},
	)

	if len(menu) != 3 {
		t.Fatalf("expected 3 items, got %d", len(menu))
	}
	if menu[0].Name != "Burger" || menu[0].Price != 4.5 || !menu[0].Available {
		t.Fatalf("unexpected first item: %+v", menu[0])
	}
	if menu[1].Available {
		t.Fatalf("missing availability tail must default to false")
	}
	if menu[2].Price != 0 {
		t.Fatalf("missing price tail must default to zero, got %v", menu[2].Price)
	}
	if menu[0].Recipe != "Cheese^0.2^kg" || menu[1].Recipe != "" {
		t.Fatalf("unexpected recipes: %+v", menu)
	}
}

func TestSplitMenuRoundTrip(t *testing.T) {
	menu := []MenuItem{
		{Name: "Burger", Price: 4.5, Quantity: 10, Available: true, Image: "burger.jpg", Recipe: "Cheese^0.2^kg"},
		{Name: "Soda", Price: 1.2, Quantity: 50, Available: false},
	}

	names, prices, quantities, availability, images, recipes := splitMenu(menu)
	rebuilt := zipMenu(names, prices, quantities, availability, images, recipes)

	if !reflect.DeepEqual(rebuilt, menu) {
		t.Fatalf("round trip changed menu: %+v vs %+v", rebuilt, menu)
	}
}
