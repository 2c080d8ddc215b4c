package handlers

import (
	"errors"
	"net/http"

	"foodplaza-services/internal/store"
	"foodplaza-services/pkg/response"
)

func (h *Handler) PublicStallList(w http.ResponseWriter, r *http.Request) {
	stalls, err := h.Stalls.ListStalls(r.Context())
	if err != nil {
		h.Logger.Error("public stall list failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve stalls")
		return
	}

	out := make([]map[string]any, 0, len(stalls))
	for _, stall := range stalls {
		available := 0
		for _, item := range stall.Menu {
			if item.Available {
				available++
			}
		}
		out = append(out, map[string]any{
			"id":             stall.ID,
			"name":           stall.Name,
			"description":    stall.Description,
			"menuCount":      len(stall.Menu),
			"availableCount": available,
		})
	}

	response.Success(w, http.StatusOK, map[string]any{"stalls": out})
}

func (h *Handler) PublicStallMenu(w http.ResponseWriter, r *http.Request) {
	stallID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Stall ID is required")
		return
	}

	stall, err := h.Stalls.GetStall(r.Context(), stallID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "STALL_NOT_FOUND", "Stall not found")
			return
		}
		h.Logger.Error("public stall menu load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve menu")
		return
	}

	// Recipes and the raw stock ledger stay private to the stall.
	items := make([]map[string]any, 0, len(stall.Menu))
	for _, item := range stall.Menu {
		items = append(items, map[string]any{
			"name":      item.Name,
			"price":     item.Price,
			"quantity":  item.Quantity,
			"available": item.Available,
			"image":     nullableString(item.Image),
		})
	}

	response.Success(w, http.StatusOK, map[string]any{
		"stall": map[string]any{
			"id":          stall.ID,
			"name":        stall.Name,
			"description": stall.Description,
		},
		"menu": items,
	})
}
