package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"foodplaza-services/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// Order lifecycle. Terminal states have no outgoing transitions.
var orderTransitions = map[string][]string{
	"PENDING":   {"ACCEPTED", "REJECTED"},
	"ACCEPTED":  {"PREPARING", "CANCELLED"},
	"PREPARING": {"READY", "CANCELLED"},
	"READY":     {"COMPLETED"},
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) StallOrderList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stallID, ok := requireStall(w, r)
	if !ok {
		return
	}

	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))

	rows, err := h.DB.Query(ctx, `
        select id, order_number, status, customer_name, items, total_amount, stall_payout, rating, placed_at, updated_at
        from orders
        where stall_id = $1 and ($2 = '' or status = $2)
        order by placed_at desc
        limit 100
    `, stallID, status)
	if err != nil {
		h.Logger.Error("stall order list failed", zap.Int64("stallId", stallID), zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve orders")
		return
	}
	defer rows.Close()

	orders := make([]map[string]any, 0)
	for rows.Next() {
		var (
			id          int64
			orderNumber string
			orderStatus string
			customer    string
			itemsJSON   []byte
			totalAmount float64
			stallPayout float64
			rating      pgtype.Int4
			placedAt    time.Time
			updatedAt   time.Time
		)
		if err := rows.Scan(&id, &orderNumber, &orderStatus, &customer, &itemsJSON, &totalAmount, &stallPayout, &rating, &placedAt, &updatedAt); err != nil {
			h.Logger.Error("stall order list scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve orders")
			return
		}

		var records []orderItemRecord
		_ = json.Unmarshal(itemsJSON, &records)

		var ratingValue any
		if rating.Valid {
			ratingValue = rating.Int32
		}

		orders = append(orders, map[string]any{
			"id":           id,
			"orderNumber":  orderNumber,
			"status":       orderStatus,
			"customerName": customer,
			"items":        records,
			"totalAmount":  totalAmount,
			"stallPayout":  stallPayout,
			"rating":       ratingValue,
			"placedAt":     placedAt,
			"updatedAt":    updatedAt,
		})
	}

	response.Success(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) StallOrderUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stallID, ok := requireStall(w, r)
	if !ok {
		return
	}

	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	var body orderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	next := strings.ToUpper(strings.TrimSpace(body.Status))
	if next == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Status is required")
		return
	}

	var current string
	if err := h.DB.QueryRow(ctx, `
        select status from orders where id = $1 and stall_id = $2
    `, orderID, stallID).Scan(&current); err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	if !transitionAllowed(current, next) {
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", "Cannot move order from "+current+" to "+next)
		return
	}

	tag, err := h.DB.Exec(ctx, `
        update orders set status = $1, updated_at = now()
        where id = $2 and stall_id = $3 and status = $4
    `, next, orderID, stallID, current)
	if err != nil {
		h.Logger.Error("order status update failed", zap.Int64("orderId", orderID), zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusConflict, "CONFLICT", "Order was modified concurrently, please retry")
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"orderId": orderID, "status": next})
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
