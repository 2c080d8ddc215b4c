package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"foodplaza-services/pkg/response"
)

// The stock endpoints return the service envelope as-is: the service layer
// already produces the {success, data, error} shape callers expect, and a
// business-rule rejection is still a 200 with success=false.

func (h *Handler) StallMenuCapacity(w http.ResponseWriter, r *http.Request) {
	stallID, ok := requireStall(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, h.Stocks.GetMenuCapacity(r.Context(), stallID))
}

func (h *Handler) StallMenuCapacityRefresh(w http.ResponseWriter, r *http.Request) {
	stallID, ok := requireStall(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, h.Stocks.GetMenuCapacityAndUpdateAvailability(r.Context(), stallID))
}

func (h *Handler) StallStocksInfo(w http.ResponseWriter, r *http.Request) {
	stallID, ok := requireStall(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, h.Stocks.GetStocksInfo(r.Context(), stallID))
}

type stockAdjustPayload struct {
	UpdatedMenuQuantities []int32 `json:"updatedMenuQuantities"`
	MenuName              string  `json:"menuName"`
	QuantityChange        float64 `json:"quantityChange"`
}

func (h *Handler) StallStocksAdjust(w http.ResponseWriter, r *http.Request) {
	stallID, ok := requireStall(w, r)
	if !ok {
		return
	}

	var payload stockAdjustPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	payload.MenuName = strings.TrimSpace(payload.MenuName)

	result := h.Stocks.AdjustIngredientStock(r.Context(), stallID, payload.UpdatedMenuQuantities, payload.MenuName, payload.QuantityChange)
	response.JSON(w, http.StatusOK, result)
}

type inventoryUpdatePayload struct {
	Stocks []string `json:"stocks"`
}

func (h *Handler) StallInventoryUpdate(w http.ResponseWriter, r *http.Request) {
	stallID, ok := requireStall(w, r)
	if !ok {
		return
	}

	var payload inventoryUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result := h.Stocks.UpdateInventory(r.Context(), stallID, payload.Stocks)
	response.JSON(w, http.StatusOK, result)
}
