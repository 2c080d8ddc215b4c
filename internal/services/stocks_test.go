package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"foodplaza-services/internal/store"

	"go.uber.org/zap"
)

type fakeStalls struct {
	stall *store.Stall

	stockConflicts   int
	availabilityErr  error
	inventoryErr     error
	lastQuantities   []int32
	availabilityRows []bool
}

func (f *fakeStalls) GetStall(_ context.Context, stallID int64) (*store.Stall, error) {
	if f.stall == nil || f.stall.ID != stallID {
		return nil, store.ErrNotFound
	}
	clone := *f.stall
	clone.Stocks = append([]string(nil), f.stall.Stocks...)
	clone.Menu = append([]store.MenuItem(nil), f.stall.Menu...)
	return &clone, nil
}

func (f *fakeStalls) UpdateStocks(_ context.Context, stallID int64, version int64, stocks []string, menuQuantities []int32) error {
	if f.stall == nil || f.stall.ID != stallID {
		return store.ErrNotFound
	}
	if f.stockConflicts > 0 {
		f.stockConflicts--
		f.stall.Version++
		return store.ErrVersionConflict
	}
	if version != f.stall.Version {
		return store.ErrVersionConflict
	}
	f.stall.Stocks = append([]string(nil), stocks...)
	f.lastQuantities = append([]int32(nil), menuQuantities...)
	f.stall.Version++
	return nil
}

func (f *fakeStalls) UpdateInventory(_ context.Context, stallID int64, version int64, stocks []string) error {
	if f.inventoryErr != nil {
		return f.inventoryErr
	}
	if f.stall == nil || f.stall.ID != stallID {
		return store.ErrNotFound
	}
	if version != f.stall.Version {
		return store.ErrVersionConflict
	}
	f.stall.Stocks = append([]string(nil), stocks...)
	f.stall.Version++
	return nil
}

func (f *fakeStalls) UpdateAvailability(_ context.Context, stallID int64, version int64, availability []bool) error {
	if f.availabilityErr != nil {
		return f.availabilityErr
	}
	if f.stall == nil || f.stall.ID != stallID {
		return store.ErrNotFound
	}
	if version != f.stall.Version {
		return store.ErrVersionConflict
	}
	f.availabilityRows = append([]bool(nil), availability...)
	for i := range f.stall.Menu {
		if i < len(availability) {
			f.stall.Menu[i].Available = availability[i]
		}
	}
	f.stall.Version++
	return nil
}

type fakePublisher struct {
	keys []string
}

func (f *fakePublisher) PublishJSON(_ context.Context, _ string, routingKey string, _ any) error {
	f.keys = append(f.keys, routingKey)
	return nil
}

func burgerStall() *store.Stall {
	return &store.Stall{
		ID:      7,
		Version: 1,
		Menu: []store.MenuItem{
			{Name: "Burger", Price: 4.5, Quantity: 10},
			{Name: "Soda", Price: 1.2, Quantity: 50},
		},
		Stocks: []string{
			"A|Cheese::Burger,Fries|5.00 kg|2024-01-01|2024-06-01",
		},
	}
}

func newTestStocks(f *fakeStalls, q EventPublisher) *Stocks {
	return NewStocks(f, q, zap.NewNop())
}

func TestGetMenuCapacity(t *testing.T) {
	f := &fakeStalls{stall: burgerStall()}
	f.stall.Stocks = []string{"A|Cheese::Burger|10.00 kg|2024-01-01|2024-06-01"}
	s := newTestStocks(f, nil)

	result := s.GetMenuCapacity(context.Background(), 7)
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if !reflect.DeepEqual(result.Data, []int{10, 9999}) {
		t.Fatalf("expected [10 9999], got %v", result.Data)
	}
}

func TestGetMenuCapacityValidation(t *testing.T) {
	s := newTestStocks(&fakeStalls{}, nil)

	if result := s.GetMenuCapacity(context.Background(), 0); result.Success || result.Error == "" {
		t.Fatalf("expected validation failure, got %+v", result)
	}
	if result := s.GetMenuCapacity(context.Background(), 99); result.Success || result.Error != "Stall not found" {
		t.Fatalf("expected stall not found, got %+v", result)
	}
}

func TestAdjustIngredientStockConsume(t *testing.T) {
	f := &fakeStalls{stall: burgerStall()}
	pub := &fakePublisher{}
	s := newTestStocks(f, pub)

	quantities := []int32{8, 50}
	result := s.AdjustIngredientStock(context.Background(), 7, quantities, "Burger", -2)
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	expected := []string{"A|Cheese::Burger,Fries|3.00 kg|2024-01-01|2024-06-01"}
	if !reflect.DeepEqual(f.stall.Stocks, expected) {
		t.Fatalf("expected %v, got %v", expected, f.stall.Stocks)
	}
	if !reflect.DeepEqual(f.lastQuantities, quantities) {
		t.Fatalf("menu quantities not persisted verbatim: %v", f.lastQuantities)
	}
	if len(pub.keys) != 1 || pub.keys[0] != RoutingStockAdjusted {
		t.Fatalf("expected one %s event, got %v", RoutingStockAdjusted, pub.keys)
	}
}

func TestAdjustIngredientStockOutOfStock(t *testing.T) {
	f := &fakeStalls{stall: burgerStall()}
	f.stall.Stocks = []string{"A|Cheese::Burger|0.00 kg|2024-01-01|2024-06-01"}
	before := append([]string(nil), f.stall.Stocks...)
	s := newTestStocks(f, nil)

	result := s.AdjustIngredientStock(context.Background(), 7, []int32{10, 50}, "Burger", -1)
	if result.Success {
		t.Fatalf("expected rejection, got %+v", result)
	}
	expectedMsg := `Cannot decrease stock. Ingredient "Cheese" is out of stock.`
	if result.Error != expectedMsg {
		t.Fatalf("expected %q, got %q", expectedMsg, result.Error)
	}
	if !reflect.DeepEqual(f.stall.Stocks, before) {
		t.Fatalf("ledger must be untouched on rejection: %v", f.stall.Stocks)
	}
}

func TestAdjustIngredientStockRetriesOnConflict(t *testing.T) {
	f := &fakeStalls{stall: burgerStall(), stockConflicts: 2}
	s := newTestStocks(f, nil)

	result := s.AdjustIngredientStock(context.Background(), 7, []int32{9, 50}, "Burger", -1)
	if !result.Success {
		t.Fatalf("expected success after retries, got %+v", result)
	}
}

func TestAdjustIngredientStockGivesUpAfterRetries(t *testing.T) {
	f := &fakeStalls{stall: burgerStall(), stockConflicts: 10}
	s := newTestStocks(f, nil)

	result := s.AdjustIngredientStock(context.Background(), 7, []int32{9, 50}, "Burger", -1)
	if result.Success || result.Error == "" {
		t.Fatalf("expected conflict failure, got %+v", result)
	}
}

func TestGetMenuCapacityAndUpdateAvailability(t *testing.T) {
	f := &fakeStalls{stall: burgerStall()}
	f.stall.Stocks = []string{"A|Cheese::Burger|0.00 kg|2024-01-01|2024-06-01"}
	s := newTestStocks(f, nil)

	result := s.GetMenuCapacityAndUpdateAvailability(context.Background(), 7)
	if !result.Success || !result.AvailabilityUpdated {
		t.Fatalf("expected success with availability update, got %+v", result)
	}
	if !reflect.DeepEqual(result.Data, []int{0, 9999}) {
		t.Fatalf("expected [0 9999], got %v", result.Data)
	}
	if !reflect.DeepEqual(f.availabilityRows, []bool{false, true}) {
		t.Fatalf("availability must equal capacity > 0, got %v", f.availabilityRows)
	}
}

func TestGetMenuCapacityAndUpdateAvailabilityWriteFailure(t *testing.T) {
	f := &fakeStalls{stall: burgerStall(), availabilityErr: errors.New("backend down")}
	s := newTestStocks(f, nil)

	result := s.GetMenuCapacityAndUpdateAvailability(context.Background(), 7)
	if !result.Success {
		t.Fatalf("computation result must survive a write failure, got %+v", result)
	}
	if result.AvailabilityUpdated {
		t.Fatalf("availabilityUpdated must be false on write failure")
	}
	if len(result.Data) != 2 {
		t.Fatalf("expected capacities, got %v", result.Data)
	}
}

func TestGetStocksInfo(t *testing.T) {
	f := &fakeStalls{stall: burgerStall()}
	s := newTestStocks(f, nil)

	result := s.GetStocksInfo(context.Background(), 7)
	if !result.Success || result.Data == nil {
		t.Fatalf("expected success, got %+v", result)
	}
	if !reflect.DeepEqual(result.Data.MenuNames, []string{"Burger", "Soda"}) {
		t.Fatalf("unexpected menu names: %v", result.Data.MenuNames)
	}
	if !reflect.DeepEqual(result.Data.StockAvailability, []bool{true, true}) {
		t.Fatalf("unexpected availability: %v", result.Data.StockAvailability)
	}
	if got := result.Data.IngredientStockLevels["Cheese"]; got != 5 {
		t.Fatalf("expected Cheese at 5, got %v", got)
	}
}

func TestUpdateInventoryValidation(t *testing.T) {
	f := &fakeStalls{stall: burgerStall()}
	before := append([]string(nil), f.stall.Stocks...)
	s := newTestStocks(f, nil)

	result := s.UpdateInventory(context.Background(), 7, []string{"A|Cheese::Burger|5.00 kg|2024-01-01"})
	if result.Success {
		t.Fatalf("expected formatting rejection, got %+v", result)
	}
	if !reflect.DeepEqual(f.stall.Stocks, before) {
		t.Fatalf("no write must happen on validation failure")
	}
}

func TestUpdateInventory(t *testing.T) {
	f := &fakeStalls{stall: burgerStall()}
	pub := &fakePublisher{}
	s := newTestStocks(f, pub)

	stocks := []string{"B|Patty::Burger|12.00 pcs|2024-03-01|2024-03-20"}
	result := s.UpdateInventory(context.Background(), 7, stocks)
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if !reflect.DeepEqual(f.stall.Stocks, stocks) {
		t.Fatalf("expected %v, got %v", stocks, f.stall.Stocks)
	}
	if len(pub.keys) != 1 || pub.keys[0] != RoutingInventoryUpdated {
		t.Fatalf("expected %s event, got %v", RoutingInventoryUpdated, pub.keys)
	}
}

func TestConsumeOrderDecrementsAllLines(t *testing.T) {
	f := &fakeStalls{stall: burgerStall()}
	f.stall.Stocks = []string{
		"A|Cheese::Burger|5.00 kg|2024-01-01|2024-06-01",
		"A|Syrup::Soda|6.00 l|2024-01-01|2024-06-01",
	}
	pub := &fakePublisher{}
	s := newTestStocks(f, pub)

	result := s.ConsumeOrder(context.Background(), 7, []OrderLine{
		{MenuName: "Burger", Quantity: 2},
		{MenuName: "Soda", Quantity: 3},
	})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	expected := []string{
		"A|Cheese::Burger|3.00 kg|2024-01-01|2024-06-01",
		"A|Syrup::Soda|3.00 l|2024-01-01|2024-06-01",
	}
	if !reflect.DeepEqual(f.stall.Stocks, expected) {
		t.Fatalf("expected %v, got %v", expected, f.stall.Stocks)
	}
	if !reflect.DeepEqual(f.lastQuantities, []int32{8, 47}) {
		t.Fatalf("expected menu quantities [8 47], got %v", f.lastQuantities)
	}
	if len(pub.keys) != 1 || pub.keys[0] != RoutingStockAdjusted {
		t.Fatalf("expected one %s event, got %v", RoutingStockAdjusted, pub.keys)
	}
}

func TestConsumeOrderOutOfStockRejectsWholeOrder(t *testing.T) {
	f := &fakeStalls{stall: burgerStall()}
	f.stall.Stocks = []string{
		"A|Cheese::Burger|5.00 kg|2024-01-01|2024-06-01",
		"A|Syrup::Soda|0.00 l|2024-01-01|2024-06-01",
	}
	before := append([]string(nil), f.stall.Stocks...)
	s := newTestStocks(f, nil)

	result := s.ConsumeOrder(context.Background(), 7, []OrderLine{
		{MenuName: "Burger", Quantity: 2},
		{MenuName: "Soda", Quantity: 3},
	})
	if result.Success {
		t.Fatalf("expected rejection, got %+v", result)
	}
	if result.Error != `Cannot decrease stock. Ingredient "Syrup" is out of stock.` {
		t.Fatalf("unexpected error: %q", result.Error)
	}
	if !reflect.DeepEqual(f.stall.Stocks, before) {
		t.Fatalf("ledger must be untouched on rejection")
	}
	if f.lastQuantities != nil {
		t.Fatalf("menu quantities must not be written on rejection")
	}
}

func TestConsumeOrderClampsAtZero(t *testing.T) {
	f := &fakeStalls{stall: burgerStall()}
	f.stall.Stocks = []string{
		"A|Syrup::Soda|1.00 l|2024-01-01|2024-06-01",
	}
	s := newTestStocks(f, nil)

	// Pre-flight only blocks entries already at zero; a positive amount
	// smaller than the delta clamps instead of rejecting.
	result := s.ConsumeOrder(context.Background(), 7, []OrderLine{
		{MenuName: "Soda", Quantity: 3},
	})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	expected := []string{"A|Syrup::Soda|0.00 l|2024-01-01|2024-06-01"}
	if !reflect.DeepEqual(f.stall.Stocks, expected) {
		t.Fatalf("expected %v, got %v", expected, f.stall.Stocks)
	}
	if !reflect.DeepEqual(f.lastQuantities, []int32{10, 47}) {
		t.Fatalf("expected menu quantities [10 47], got %v", f.lastQuantities)
	}
}

func TestConsumeOrderValidation(t *testing.T) {
	s := newTestStocks(&fakeStalls{stall: burgerStall()}, nil)

	if result := s.ConsumeOrder(context.Background(), 7, nil); result.Success {
		t.Fatalf("expected empty order rejection, got %+v", result)
	}
	if result := s.ConsumeOrder(context.Background(), 7, []OrderLine{{MenuName: "Burger", Quantity: 0}}); result.Success {
		t.Fatalf("expected zero quantity rejection, got %+v", result)
	}
}
