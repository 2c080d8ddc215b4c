package services

import (
	"context"
	"errors"

	"foodplaza-services/internal/inventory"
	"foodplaza-services/internal/store"

	"go.uber.org/zap"
)

// Exchange and routing keys for stall stock events.
const (
	EventsExchange          = "plaza.events"
	RoutingStockAdjusted    = "stock.adjusted"
	RoutingInventoryUpdated = "stock.inventory.updated"
	RoutingOrderCreated     = "order.created"
)

// conflictRetries bounds the reload-and-retry loop on version conflicts.
const conflictRetries = 3

// StallStore is the document-store contract the stock operations need.
// Writes are conditional on the version token and return
// store.ErrVersionConflict when another writer got there first.
type StallStore interface {
	GetStall(ctx context.Context, stallID int64) (*store.Stall, error)
	UpdateStocks(ctx context.Context, stallID int64, version int64, stocks []string, menuQuantities []int32) error
	UpdateInventory(ctx context.Context, stallID int64, version int64, stocks []string) error
	UpdateAvailability(ctx context.Context, stallID int64, version int64, availability []bool) error
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, exchange string, routingKey string, payload any) error
}

// Stocks implements the caller-facing stock operations. Every method returns
// an envelope instead of an error so HTTP and worker callers never need
// exception handling; backend failures are logged and folded into the
// envelope.
type Stocks struct {
	Store  StallStore
	Queue  EventPublisher
	Logger *zap.Logger
}

func NewStocks(st StallStore, queue EventPublisher, logger *zap.Logger) *Stocks {
	return &Stocks{Store: st, Queue: queue, Logger: logger}
}

type CapacityResult struct {
	Success bool   `json:"success"`
	Data    []int  `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type CapacityAvailabilityResult struct {
	Success             bool   `json:"success"`
	Data                []int  `json:"data,omitempty"`
	AvailabilityUpdated bool   `json:"availabilityUpdated"`
	Error               string `json:"error,omitempty"`
}

type StocksInfo struct {
	StockAvailability     []bool             `json:"stockAvailability"`
	MenuNames             []string           `json:"menuNames"`
	IngredientStockLevels map[string]float64 `json:"ingredientStockLevels"`
}

type StocksInfoResult struct {
	Success bool        `json:"success"`
	Data    *StocksInfo `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type StocksUpdateResult struct {
	Success bool     `json:"success"`
	Data    []string `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// GetMenuCapacity computes producible servings per menu item, aligned to the
// stall's menu order.
func (s *Stocks) GetMenuCapacity(ctx context.Context, stallID int64) CapacityResult {
	if stallID <= 0 {
		return CapacityResult{Error: "Valid stall id is required"}
	}

	stall, err := s.Store.GetStall(ctx, stallID)
	if err != nil {
		return CapacityResult{Error: s.loadError(stallID, err)}
	}

	capacities := inventory.MenuCapacities(stall.MenuNames(), stall.Stocks, stall.MenuRecipes())
	return CapacityResult{Success: true, Data: capacities}
}

// GetMenuCapacityAndUpdateAvailability computes capacities and persists the
// derived availability flags. A write failure does not discard the computed
// capacities: Success reflects the computation, AvailabilityUpdated the
// persistence.
func (s *Stocks) GetMenuCapacityAndUpdateAvailability(ctx context.Context, stallID int64) CapacityAvailabilityResult {
	if stallID <= 0 {
		return CapacityAvailabilityResult{Error: "Valid stall id is required"}
	}

	var capacities []int
	for attempt := 0; attempt <= conflictRetries; attempt++ {
		stall, err := s.Store.GetStall(ctx, stallID)
		if err != nil {
			return CapacityAvailabilityResult{Error: s.loadError(stallID, err)}
		}

		capacities = inventory.MenuCapacities(stall.MenuNames(), stall.Stocks, stall.MenuRecipes())
		availability := inventory.Availability(capacities)

		err = s.Store.UpdateAvailability(ctx, stallID, stall.Version, availability)
		if err == nil {
			return CapacityAvailabilityResult{Success: true, Data: capacities, AvailabilityUpdated: true}
		}
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		s.Logger.Error("availability write failed", zap.Int64("stallId", stallID), zap.Error(err))
		break
	}

	return CapacityAvailabilityResult{Success: true, Data: capacities, AvailabilityUpdated: false}
}

// GetStocksInfo reports the derived per-menu availability together with the
// summed on-hand amount per ingredient.
func (s *Stocks) GetStocksInfo(ctx context.Context, stallID int64) StocksInfoResult {
	if stallID <= 0 {
		return StocksInfoResult{Error: "Valid stall id is required"}
	}

	stall, err := s.Store.GetStall(ctx, stallID)
	if err != nil {
		return StocksInfoResult{Error: s.loadError(stallID, err)}
	}

	menuNames := stall.MenuNames()
	capacities := inventory.MenuCapacities(menuNames, stall.Stocks, stall.MenuRecipes())
	link := inventory.ResolveLinkage(inventory.ParseStocks(stall.Stocks))

	return StocksInfoResult{
		Success: true,
		Data: &StocksInfo{
			StockAvailability:     inventory.Availability(capacities),
			MenuNames:             menuNames,
			IngredientStockLevels: link.StockLevels,
		},
	}
}

// AdjustIngredientStock applies quantityChange to every ledger entry linked
// to menuName and persists the ledger together with the caller-supplied menu
// quantities in a single write. Decrements are all-or-nothing.
func (s *Stocks) AdjustIngredientStock(ctx context.Context, stallID int64, updatedMenuQuantities []int32, menuName string, quantityChange float64) StocksUpdateResult {
	if stallID <= 0 {
		return StocksUpdateResult{Error: "Valid stall id is required"}
	}
	if menuName == "" {
		return StocksUpdateResult{Error: "Menu name is required"}
	}
	if updatedMenuQuantities == nil {
		return StocksUpdateResult{Error: "Updated menu quantities are required"}
	}

	for attempt := 0; attempt <= conflictRetries; attempt++ {
		stall, err := s.Store.GetStall(ctx, stallID)
		if err != nil {
			return StocksUpdateResult{Error: s.loadError(stallID, err)}
		}

		updated, err := inventory.ApplyDelta(stall.Stocks, menuName, quantityChange)
		if err != nil {
			var oos *inventory.OutOfStockError
			if errors.As(err, &oos) {
				return StocksUpdateResult{Error: err.Error()}
			}
			return StocksUpdateResult{Error: "Failed to adjust stock"}
		}

		err = s.Store.UpdateStocks(ctx, stallID, stall.Version, updated, updatedMenuQuantities)
		if err == nil {
			s.publish(ctx, RoutingStockAdjusted, map[string]any{
				"stallId":        stallID,
				"menuName":       menuName,
				"quantityChange": quantityChange,
			})
			return StocksUpdateResult{Success: true, Data: updated}
		}
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			return StocksUpdateResult{Error: "Stall not found"}
		}
		s.Logger.Error("stock write failed", zap.Int64("stallId", stallID), zap.Error(err))
		return StocksUpdateResult{Error: "Failed to update stock"}
	}

	return StocksUpdateResult{Error: "Stock update conflicted with another change; please retry"}
}

// OrderLine is one menu item of an order being consumed.
type OrderLine struct {
	MenuName string
	Quantity int32
}

// ConsumeOrder decrements the ingredient ledger and the menu quantities for
// every line of an order in one conditional write. A single out-of-stock
// ingredient rejects the whole order and nothing is written.
func (s *Stocks) ConsumeOrder(ctx context.Context, stallID int64, lines []OrderLine) StocksUpdateResult {
	if stallID <= 0 {
		return StocksUpdateResult{Error: "Valid stall id is required"}
	}
	if len(lines) == 0 {
		return StocksUpdateResult{Error: "Order lines are required"}
	}
	for _, line := range lines {
		if line.MenuName == "" || line.Quantity <= 0 {
			return StocksUpdateResult{Error: "Each order line needs a menu name and a positive quantity"}
		}
	}

	for attempt := 0; attempt <= conflictRetries; attempt++ {
		stall, err := s.Store.GetStall(ctx, stallID)
		if err != nil {
			return StocksUpdateResult{Error: s.loadError(stallID, err)}
		}

		stocks := stall.Stocks
		names := stall.MenuNames()
		quantities := stall.MenuQuantities()
		for _, line := range lines {
			stocks, err = inventory.ApplyDelta(stocks, line.MenuName, -float64(line.Quantity))
			if err != nil {
				var oos *inventory.OutOfStockError
				if errors.As(err, &oos) {
					return StocksUpdateResult{Error: err.Error()}
				}
				return StocksUpdateResult{Error: "Failed to adjust stock"}
			}
			for i := range names {
				if names[i] != line.MenuName {
					continue
				}
				if quantities[i] > line.Quantity {
					quantities[i] -= line.Quantity
				} else {
					quantities[i] = 0
				}
			}
		}

		err = s.Store.UpdateStocks(ctx, stallID, stall.Version, stocks, quantities)
		if err == nil {
			s.publish(ctx, RoutingStockAdjusted, map[string]any{
				"stallId": stallID,
				"reason":  "order",
			})
			return StocksUpdateResult{Success: true, Data: stocks}
		}
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			return StocksUpdateResult{Error: "Stall not found"}
		}
		s.Logger.Error("order stock write failed", zap.Int64("stallId", stallID), zap.Error(err))
		return StocksUpdateResult{Error: "Failed to update stock"}
	}

	return StocksUpdateResult{Error: "Stock update conflicted with another change; please retry"}
}

// UpdateInventory replaces the whole ledger after validating every entry has
// exactly five non-empty pipe-delimited fields. Nothing is written when
// validation fails.
func (s *Stocks) UpdateInventory(ctx context.Context, stallID int64, stocks []string) StocksUpdateResult {
	if stallID <= 0 {
		return StocksUpdateResult{Error: "Valid stall id is required"}
	}
	if stocks == nil {
		return StocksUpdateResult{Error: "Stocks array is required"}
	}
	if err := inventory.ValidateStocks(stocks); err != nil {
		return StocksUpdateResult{Error: err.Error()}
	}

	for attempt := 0; attempt <= conflictRetries; attempt++ {
		stall, err := s.Store.GetStall(ctx, stallID)
		if err != nil {
			return StocksUpdateResult{Error: s.loadError(stallID, err)}
		}

		err = s.Store.UpdateInventory(ctx, stallID, stall.Version, stocks)
		if err == nil {
			s.publish(ctx, RoutingInventoryUpdated, map[string]any{"stallId": stallID})
			return StocksUpdateResult{Success: true, Data: stocks}
		}
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			return StocksUpdateResult{Error: "Stall not found"}
		}
		s.Logger.Error("inventory write failed", zap.Int64("stallId", stallID), zap.Error(err))
		return StocksUpdateResult{Error: "Failed to update inventory"}
	}

	return StocksUpdateResult{Error: "Inventory update conflicted with another change; please retry"}
}

// RefreshAvailability is the worker entry point: recompute capacities and
// persist the derived flags, reporting an error so the consumer can retry.
func (s *Stocks) RefreshAvailability(ctx context.Context, stallID int64) error {
	result := s.GetMenuCapacityAndUpdateAvailability(ctx, stallID)
	if !result.Success {
		return errors.New(result.Error)
	}
	if !result.AvailabilityUpdated {
		return errors.New("availability flags were not persisted")
	}
	return nil
}

func (s *Stocks) publish(ctx context.Context, routingKey string, payload map[string]any) {
	if s.Queue == nil {
		return
	}
	if err := s.Queue.PublishJSON(ctx, EventsExchange, routingKey, payload); err != nil {
		s.Logger.Warn("event publish failed", zap.String("routingKey", routingKey), zap.Error(err))
	}
}

func (s *Stocks) loadError(stallID int64, err error) string {
	if errors.Is(err, store.ErrNotFound) {
		return "Stall not found"
	}
	s.Logger.Error("stall load failed", zap.Int64("stallId", stallID), zap.Error(err))
	return "Failed to load stall"
}
