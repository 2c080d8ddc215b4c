package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"foodplaza-services/internal/store"
	"foodplaza-services/pkg/response"
)

const streamKeepAliveInterval = 30 * time.Second

type menuStockUpdate struct {
	Name      string `json:"name"`
	Quantity  int32  `json:"quantity"`
	Available bool   `json:"available"`
}

// PublicStallStockStream pushes menu quantity and availability changes for one
// stall over server-sent events. Clients get a full snapshot on connect, then
// only the items that changed.
func (h *Handler) PublicStallStockStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stallID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Stall ID is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Streaming not supported")
		return
	}

	initial, err := h.fetchMenuStock(ctx, stallID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "STALL_NOT_FOUND", "Stall not found")
			return
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch stock data")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	previous := make(map[string]menuStockUpdate, len(initial))
	for _, item := range initial {
		previous[item.Name] = item
	}

	if payload, err := json.Marshal(initial); err == nil {
		_, _ = fmt.Fprintf(w, "event: initial\ndata: %s\n\n", payload)
		flusher.Flush()
	}

	keepAliveTicker := time.NewTicker(streamKeepAliveInterval)
	stockTicker := time.NewTicker(h.Config.StockStreamPollInterval)
	defer keepAliveTicker.Stop()
	defer stockTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAliveTicker.C:
			_, _ = fmt.Fprintf(w, ": keep-alive\n\n")
			flusher.Flush()
		case <-stockTicker.C:
			current, err := h.fetchMenuStock(ctx, stallID)
			if err != nil {
				continue
			}
			changes := make([]menuStockUpdate, 0)
			for _, item := range current {
				if prev, seen := previous[item.Name]; !seen || prev != item {
					changes = append(changes, item)
					previous[item.Name] = item
				}
			}
			if len(changes) > 0 {
				if payload, err := json.Marshal(changes); err == nil {
					_, _ = fmt.Fprintf(w, "event: stock-update\ndata: %s\n\n", payload)
					flusher.Flush()
				}
			}
		}
	}
}

func (h *Handler) fetchMenuStock(ctx context.Context, stallID int64) ([]menuStockUpdate, error) {
	stall, err := h.Stalls.GetStall(ctx, stallID)
	if err != nil {
		return nil, err
	}
	updates := make([]menuStockUpdate, 0, len(stall.Menu))
	for _, item := range stall.Menu {
		updates = append(updates, menuStockUpdate{
			Name:      item.Name,
			Quantity:  item.Quantity,
			Available: item.Available,
		})
	}
	return updates, nil
}
