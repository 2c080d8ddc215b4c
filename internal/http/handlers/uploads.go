package handlers

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"foodplaza-services/internal/store"
	"foodplaza-services/internal/utils"
	"foodplaza-services/pkg/response"
)

const (
	menuImageMaxSide = 1400
	menuThumbSize    = 600
)

var menuSlugPattern = regexp.MustCompile(`[^a-z0-9-]+`)

func menuSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = menuSlugPattern.ReplaceAllString(slug, "")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "item"
	}
	return slug
}

func (h *Handler) readImageUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "FILE_REQUIRED", "File is required")
		return nil, false
	}
	defer file.Close()

	maxBytes := h.Config.MaxFileSizeBytes
	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read file")
		return nil, false
	}
	if int64(len(data)) > maxBytes {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", fmt.Sprintf("File size must be less than %dMB.", maxBytes/(1024*1024)))
		return nil, false
	}

	ct := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if ct == "" {
		ct = utils.DetectContentType(data)
	}
	if !utils.ValidateImageContentType(ct) {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", "Invalid file type. Please upload an image file.")
		return nil, false
	}

	return data, true
}

// StallUploadMenuImage normalizes the uploaded image to JPEG, stores the full
// size and a square thumbnail, and points the menu item at the full image.
func (h *Handler) StallUploadMenuImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stallID, ok := requireStall(w, r)
	if !ok {
		return
	}
	if h.Objects == nil {
		response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Image storage is not configured")
		return
	}

	menuName := strings.TrimSpace(r.FormValue("menuName"))
	if menuName == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Menu name is required")
		return
	}

	data, ok := h.readImageUpload(w, r)
	if !ok {
		return
	}

	fullJpeg, meta, err := utils.EncodeJpegFitInside(data, menuImageMaxSide, 88)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", "Could not process image")
		return
	}
	thumbJpeg, _, err := utils.EncodeJpegCoverSquare(data, menuThumbSize, 80)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", "Could not process image")
		return
	}

	timestamp := time.Now().UnixMilli()
	slug := menuSlug(menuName)
	fullKey := fmt.Sprintf("stalls/%d/menus/%s-%d.jpg", stallID, slug, timestamp)
	thumbKey := fmt.Sprintf("stalls/%d/menus/%s-thumb-%d.jpg", stallID, slug, timestamp)

	fullURL, err := h.Objects.PutObject(ctx, fullKey, fullJpeg, "image/jpeg")
	if err != nil {
		h.Logger.Error("menu image upload failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to upload image")
		return
	}
	thumbURL, err := h.Objects.PutObject(ctx, thumbKey, thumbJpeg, "image/jpeg")
	if err != nil {
		h.Logger.Error("menu thumb upload failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to upload image")
		return
	}

	var previousURL string
	found := false
	if !h.writeMenu(ctx, w, stallID, func(stall *store.Stall) []store.MenuItem {
		menu := make([]store.MenuItem, len(stall.Menu))
		copy(menu, stall.Menu)
		for i := range menu {
			if menu[i].Name == menuName {
				previousURL = menu[i].Image
				menu[i].Image = fullURL
				found = true
			}
		}
		return menu
	}) {
		return
	}
	if !found {
		_ = h.Objects.DeleteKey(ctx, fullKey)
		_ = h.Objects.DeleteKey(ctx, thumbKey)
		response.Error(w, http.StatusNotFound, "MENU_ITEM_NOT_FOUND", "Menu item not found")
		return
	}

	if previousURL != "" && previousURL != fullURL {
		if err := h.Objects.DeleteURL(ctx, previousURL); err != nil {
			h.Logger.Warn("previous menu image cleanup failed", zapError(err))
		}
	}

	response.Success(w, http.StatusOK, map[string]any{
		"menuName": menuName,
		"url":      fullURL,
		"thumbUrl": thumbURL,
		"source":   meta,
	})
}

// StallDeleteMenuImage removes the stored object and clears the menu item's
// image reference.
func (h *Handler) StallDeleteMenuImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stallID, ok := requireStall(w, r)
	if !ok {
		return
	}

	menuName := strings.TrimSpace(r.URL.Query().Get("menuName"))
	if menuName == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Menu name is required")
		return
	}

	var imageURL string
	found := false
	if !h.writeMenu(ctx, w, stallID, func(stall *store.Stall) []store.MenuItem {
		menu := make([]store.MenuItem, len(stall.Menu))
		copy(menu, stall.Menu)
		for i := range menu {
			if menu[i].Name == menuName {
				imageURL = menu[i].Image
				menu[i].Image = ""
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

	if h.Objects != nil && imageURL != "" {
		if err := h.Objects.DeleteURL(ctx, imageURL); err != nil {
			h.Logger.Warn("menu image delete failed", zapError(err))
		}
	}

	response.Success(w, http.StatusOK, map[string]any{"menuName": menuName, "removed": true})
}
