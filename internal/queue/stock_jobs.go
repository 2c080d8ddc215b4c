package queue

import (
	"context"
	"encoding/json"
	"fmt"
)

// Availability refresh topology: stock and order events land on one queue
// whose consumer re-derives menu availability for the affected stall.
const (
	EventsExchange        = "plaza.events"
	AvailabilityQueue     = "plaza.availability"
	stockEventsBindingKey = "stock.#"
	orderEventsBindingKey = "order.#"
)

// EnsureAvailabilityTopology declares the exchange, the refresh queue and
// its bindings. The '#' wildcard covers multi-segment keys like
// 'stock.inventory.updated'.
func EnsureAvailabilityTopology(c *Client) error {
	if err := c.EnsureExchange(EventsExchange); err != nil {
		return err
	}
	if _, err := c.EnsureQueue(AvailabilityQueue); err != nil {
		return err
	}
	if err := c.BindQueue(AvailabilityQueue, EventsExchange, stockEventsBindingKey); err != nil {
		return err
	}
	return c.BindQueue(AvailabilityQueue, EventsExchange, orderEventsBindingKey)
}

type stallEvent struct {
	StallID int64 `json:"stallId"`
}

// AvailabilityRefresher re-derives and persists menu availability for one
// stall; implemented by the stocks service.
type AvailabilityRefresher interface {
	RefreshAvailability(ctx context.Context, stallID int64) error
}

// ProcessStallEvent translates one stock/order event into an availability
// refresh for the stall it names.
func ProcessStallEvent(ctx context.Context, refresher AvailabilityRefresher, body []byte) error {
	var event stallEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("malformed stall event: %w", err)
	}
	if event.StallID <= 0 {
		return fmt.Errorf("stall event missing stallId")
	}
	return refresher.RefreshAvailability(ctx, event.StallID)
}
