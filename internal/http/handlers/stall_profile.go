package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"foodplaza-services/internal/store"
	"foodplaza-services/pkg/response"
)

type stallProfilePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) StallProfileGet(w http.ResponseWriter, r *http.Request) {
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
		h.Logger.Error("stall profile load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve stall")
		return
	}

	response.Success(w, http.StatusOK, map[string]any{
		"id":          stall.ID,
		"name":        stall.Name,
		"description": stall.Description,
		"createdAt":   stall.CreatedAt,
		"updatedAt":   stall.UpdatedAt,
	})
}

func (h *Handler) StallProfileUpdate(w http.ResponseWriter, r *http.Request) {
	stallID, ok := requireStall(w, r)
	if !ok {
		return
	}

	var payload stallProfilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name is required")
		return
	}

	if err := h.Stalls.UpdateProfile(r.Context(), stallID, name, strings.TrimSpace(payload.Description)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "STALL_NOT_FOUND", "Stall not found")
			return
		}
		h.Logger.Error("stall profile update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update stall")
		return
	}

	response.Success(w, http.StatusOK, map[string]any{
		"id":          stallID,
		"name":        name,
		"description": strings.TrimSpace(payload.Description),
	})
}
