package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"foodplaza-services/internal/inventory"
	"foodplaza-services/internal/store"
	"foodplaza-services/pkg/response"

	"go.uber.org/zap"
)

const menuWriteRetries = 3

type menuItemPayload struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int32   `json:"quantity"`
	Available bool    `json:"available"`
	Image     string  `json:"image"`
	Recipe    string  `json:"recipe"`
}

type menuReplacePayload struct {
	Menu []menuItemPayload `json:"menu"`
}

type menuRecipePayload struct {
	Recipe string `json:"recipe"`
}

func (h *Handler) StallMenuList(w http.ResponseWriter, r *http.Request) {
	stallID, ok := requireStall(w, r)
	if !ok {
		return
	}

	stall, err := h.Stalls.GetStall(r.Context(), stallID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "STALL_NOT_FOUND", "Stall not found")
			return
		}
		h.Logger.Error("stall menu load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve menu")
		return
	}

	items := make([]map[string]any, 0, len(stall.Menu))
	for _, item := range stall.Menu {
		items = append(items, map[string]any{
			"name":      item.Name,
			"price":     item.Price,
			"quantity":  item.Quantity,
			"available": item.Available,
			"image":     nullableString(item.Image),
			"recipe":    item.Recipe,
		})
	}

	response.Success(w, http.StatusOK, map[string]any{"menu": items})
}

func (h *Handler) StallMenuReplace(w http.ResponseWriter, r *http.Request) {
	stallID, ok := requireStall(w, r)
	if !ok {
		return
	}

	var payload menuReplacePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	menu := make([]store.MenuItem, 0, len(payload.Menu))
	seen := make(map[string]bool, len(payload.Menu))
	for _, item := range payload.Menu {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Menu item name is required")
			return
		}
		if seen[name] {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Duplicate menu item: "+name)
			return
		}
		seen[name] = true
		if item.Price < 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Price cannot be negative")
			return
		}
		if item.Quantity < 0 {
			item.Quantity = 0
		}
		menu = append(menu, store.MenuItem{
			Name:      name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Available: item.Available,
			Image:     strings.TrimSpace(item.Image),
			Recipe:    inventory.EncodeRecipe(inventory.ParseRecipe(item.Recipe)),
		})
	}

	if !h.writeMenu(r.Context(), w, stallID, func(stall *store.Stall) []store.MenuItem {
		return menu
	}) {
		return
	}

	h.refreshAvailability(r.Context(), stallID)
	response.Success(w, http.StatusOK, map[string]any{"menuCount": len(menu)})
}

func (h *Handler) StallMenuRecipeUpdate(w http.ResponseWriter, r *http.Request) {
	stallID, ok := requireStall(w, r)
	if !ok {
		return
	}

	menuName := strings.TrimSpace(readPathString(r, "name"))
	if menuName == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Menu name is required")
		return
	}

	var payload menuRecipePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	recipe := inventory.EncodeRecipe(inventory.ParseRecipe(payload.Recipe))

	found := false
	if !h.writeMenu(r.Context(), w, stallID, func(stall *store.Stall) []store.MenuItem {
		menu := make([]store.MenuItem, len(stall.Menu))
		copy(menu, stall.Menu)
		for i := range menu {
			if menu[i].Name == menuName {
				menu[i].Recipe = recipe
				found = true
			}
		}
		return menu
	}) {
		return
	}
	if !found {
		response.Error(w, http.StatusNotFound, "MENU_ITEM_NOT_FOUND", "Menu item not found")
		return
	}

	h.refreshAvailability(r.Context(), stallID)
	response.Success(w, http.StatusOK, map[string]any{"name": menuName, "recipe": recipe})
}

// writeMenu runs the read-modify-write cycle for the menu columns, retrying
// on version conflicts. The mutate function receives the freshly read stall
// each attempt. Returns false after writing an error response.
func (h *Handler) writeMenu(ctx context.Context, w http.ResponseWriter, stallID int64, mutate func(stall *store.Stall) []store.MenuItem) bool {
	for attempt := 0; attempt < menuWriteRetries; attempt++ {
		stall, err := h.Stalls.GetStall(ctx, stallID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "STALL_NOT_FOUND", "Stall not found")
				return false
			}
			h.Logger.Error("stall load failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update menu")
			return false
		}

		err = h.Stalls.UpdateMenu(ctx, stallID, stall.Version, mutate(stall))
		if err == nil {
			return true
		}
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		h.Logger.Error("stall menu write failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update menu")
		return false
	}

	response.Error(w, http.StatusConflict, "CONFLICT", "Menu was modified concurrently, please retry")
	return false
}

func (h *Handler) refreshAvailability(ctx context.Context, stallID int64) {
	if err := h.Stocks.RefreshAvailability(ctx, stallID); err != nil {
		h.Logger.Warn("availability refresh after menu change failed",
			zap.Int64("stallId", stallID), zapError(err))
	}
}
