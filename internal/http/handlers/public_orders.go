package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"foodplaza-services/internal/payment"
	"foodplaza-services/internal/services"
	"foodplaza-services/internal/store"
	"foodplaza-services/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type publicOrderItemRequest struct {
	Name     string `json:"name"`
	Quantity int32  `json:"quantity"`
}

type publicOrderRequest struct {
	CustomerName  string                   `json:"customerName"`
	CustomerPhone string                   `json:"customerPhone"`
	Notes         string                   `json:"notes"`
	Items         []publicOrderItemRequest `json:"items"`
}

type orderItemRecord struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int32   `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}

type orderRatingRequest struct {
	Rating  int32  `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) PublicOrderCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stallID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Stall ID is required")
		return
	}

	var body publicOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	customerName := strings.TrimSpace(body.CustomerName)
	if customerName == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Customer name is required")
		return
	}
	if len(body.Items) == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order must contain at least one item")
		return
	}

	stall, err := h.Stalls.GetStall(ctx, stallID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "STALL_NOT_FOUND", "Stall not found")
			return
		}
		h.Logger.Error("order stall load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create order")
		return
	}

	menuByName := make(map[string]store.MenuItem, len(stall.Menu))
	for _, item := range stall.Menu {
		menuByName[item.Name] = item
	}

	records := make([]orderItemRecord, 0, len(body.Items))
	lines := make([]services.OrderLine, 0, len(body.Items))
	lineItems := make([]payment.LineItem, 0, len(body.Items))
	for _, item := range body.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" || item.Quantity <= 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Each item needs a name and a positive quantity")
			return
		}
		menuItem, ok := menuByName[name]
		if !ok {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown menu item: "+name)
			return
		}
		if !menuItem.Available {
			response.Error(w, http.StatusConflict, "ITEM_UNAVAILABLE", "Menu item is not available: "+name)
			return
		}
		records = append(records, orderItemRecord{
			Name:     name,
			Price:    menuItem.Price,
			Quantity: item.Quantity,
			Subtotal: menuItem.Price * float64(item.Quantity),
		})
		lines = append(lines, services.OrderLine{MenuName: name, Quantity: item.Quantity})
		lineItems = append(lineItems, payment.LineItem{Price: menuItem.Price, Quantity: item.Quantity})
	}

	total := payment.OrderTotal(lineItems)
	split := payment.ComputeSplit(total, h.Config.PlazaCommissionRate)

	consume := h.Stocks.ConsumeOrder(ctx, stallID, lines)
	if !consume.Success {
		status := http.StatusConflict
		if strings.Contains(consume.Error, "required") {
			status = http.StatusBadRequest
		}
		response.Error(w, status, "ORDER_REJECTED", consume.Error)
		return
	}

	orderNumber := h.generateOrderNumber(ctx, stallID)
	itemsJSON, err := json.Marshal(records)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create order")
		return
	}

	var orderID int64
	var placedAt time.Time
	if err := h.DB.QueryRow(ctx, `
        insert into orders (stall_id, order_number, status, customer_name, customer_phone, notes,
                            items, total_amount, plaza_commission, stall_payout, updated_at)
        values ($1, $2, 'PENDING', $3, $4, $5, $6, $7, $8, $9, now())
        returning id, placed_at
    `, stallID, orderNumber, customerName, nullableString(strings.TrimSpace(body.CustomerPhone)),
		nullableString(strings.TrimSpace(body.Notes)), itemsJSON,
		split.Total, split.PlazaCommission, split.StallPayout).Scan(&orderID, &placedAt); err != nil {
		h.Logger.Error("order insert failed", zap.Int64("stallId", stallID), zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create order")
		return
	}

	if h.Queue != nil {
		if err := h.Queue.PublishJSON(ctx, services.EventsExchange, services.RoutingOrderCreated, map[string]any{
			"stallId":     stallID,
			"orderId":     orderID,
			"orderNumber": orderNumber,
		}); err != nil {
			h.Logger.Warn("order event publish failed", zap.Int64("orderId", orderID), zapError(err))
		}
	}

	response.Success(w, http.StatusCreated, map[string]any{
		"order": map[string]any{
			"id":          orderID,
			"orderNumber": orderNumber,
			"status":      "PENDING",
			"items":       records,
			"totalAmount": split.Total,
			"placedAt":    placedAt,
		},
	})
}

func (h *Handler) PublicOrderDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	var (
		stallID     int64
		orderNumber string
		status      string
		customer    string
		itemsJSON   []byte
		totalAmount float64
		rating      pgtype.Int4
		placedAt    time.Time
		updatedAt   time.Time
	)
	err = h.DB.QueryRow(ctx, `
        select stall_id, order_number, status, customer_name, items, total_amount, rating, placed_at, updated_at
        from orders where id = $1
    `, orderID).Scan(&stallID, &orderNumber, &status, &customer, &itemsJSON, &totalAmount, &rating, &placedAt, &updatedAt)
	if err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	var records []orderItemRecord
	_ = json.Unmarshal(itemsJSON, &records)

	var ratingValue any
	if rating.Valid {
		ratingValue = rating.Int32
	}

	response.Success(w, http.StatusOK, map[string]any{
		"order": map[string]any{
			"id":           orderID,
			"stallId":      stallID,
			"orderNumber":  orderNumber,
			"status":       status,
			"customerName": customer,
			"items":        records,
			"totalAmount":  totalAmount,
			"rating":       ratingValue,
			"placedAt":     placedAt,
			"updatedAt":    updatedAt,
		},
	})
}

func (h *Handler) PublicOrderRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	var body orderRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if body.Rating < 1 || body.Rating > 5 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Rating must be between 1 and 5")
		return
	}

	tag, err := h.DB.Exec(ctx, `
        update orders set rating = $1, rating_comment = $2, updated_at = now()
        where id = $3 and status = 'COMPLETED'
    `, body.Rating, nullableString(strings.TrimSpace(body.Comment)), orderID)
	if err != nil {
		h.Logger.Error("order rating update failed", zap.Int64("orderId", orderID), zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save rating")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusConflict, "ORDER_NOT_RATEABLE", "Only completed orders can be rated")
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"orderId": orderID, "rating": body.Rating})
}

// generateOrderNumber issues a short daily-unique pickup code, falling back
// to the clock when ten random draws all collide.
func (h *Handler) generateOrderNumber(ctx context.Context, stallID int64) string {
	const characters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for attempt := 0; attempt < 10; attempt++ {
		var sb strings.Builder
		for i := 0; i < 4; i++ {
			sb.WriteByte(characters[rand.Intn(len(characters))])
		}
		value := sb.String()
		start := time.Now().Truncate(24 * time.Hour)
		end := start.Add(24*time.Hour - time.Millisecond)
		var exists bool
		_ = h.DB.QueryRow(ctx, `
            select exists(
                select 1 from orders where stall_id = $1 and order_number = $2 and placed_at >= $3 and placed_at <= $4
            )
        `, stallID, value, start, end).Scan(&exists)
		if !exists {
			return value
		}
	}
	return strings.ToUpper(time.Now().Format("1504"))
}
