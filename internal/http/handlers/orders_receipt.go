package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"foodplaza-services/pkg/response"

	"github.com/phpdave11/gofpdf"
)

type receiptLine struct {
	Name     string
	Quantity int32
	Unit     string
	Subtotal string
}

type receiptData struct {
	StallName    string
	OrderNumber  string
	CustomerName string
	PlacedAt     string
	Status       string
	Items        []receiptLine
	Commission   string
	Payout       string
	TotalAmount  string
}

func (h *Handler) StallOrderReceiptPDF(w http.ResponseWriter, r *http.Request) {
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

	data, err := h.fetchReceiptData(ctx, stallID, orderID)
	if err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	buf, err := renderReceiptPDF(data)
	if err != nil {
		h.Logger.Error("receipt render failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate receipt")
		return
	}

	filename := fmt.Sprintf("receipt_%s.pdf", sanitizeFilename(data.OrderNumber))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) fetchReceiptData(ctx context.Context, stallID int64, orderID int64) (receiptData, error) {
	var (
		data        receiptData
		itemsJSON   []byte
		total       float64
		commission  float64
		stallPayout float64
		placedAt    time.Time
	)
	err := h.DB.QueryRow(ctx, `
        select s.name, o.order_number, o.customer_name, o.status, o.items,
               o.total_amount, o.plaza_commission, o.stall_payout, o.placed_at
        from orders o
        join stalls s on s.id = o.stall_id
        where o.id = $1 and o.stall_id = $2
    `, orderID, stallID).Scan(&data.StallName, &data.OrderNumber, &data.CustomerName, &data.Status,
		&itemsJSON, &total, &commission, &stallPayout, &placedAt)
	if err != nil {
		return data, err
	}

	var records []orderItemRecord
	_ = json.Unmarshal(itemsJSON, &records)
	for _, record := range records {
		data.Items = append(data.Items, receiptLine{
			Name:     record.Name,
			Quantity: record.Quantity,
			Unit:     formatAmount(record.Price),
			Subtotal: formatAmount(record.Subtotal),
		})
	}

	data.PlacedAt = placedAt.Format("2006-01-02 15:04")
	data.TotalAmount = formatAmount(total)
	data.Commission = formatAmount(commission)
	data.Payout = formatAmount(stallPayout)
	return data, nil
}

func renderReceiptPDF(data receiptData) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, data.StallName, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order %s", data.OrderNumber), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if data.CustomerName != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Customer: %s", data.CustomerName), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("Placed: %s", data.PlacedAt), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Status: %s", data.Status), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Items", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, item := range data.Items {
		pdf.CellFormat(0, 5, fmt.Sprintf("%dx %s @ %s", item.Quantity, item.Name, item.Unit), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Subtotal: %s", item.Subtotal), "", 1, "L", false, 0, "")
		pdf.Ln(1)
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Totals", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Plaza commission: %s", data.Commission), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Stall payout: %s", data.Payout), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %s", data.TotalAmount), "", 1, "L", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

func sanitizeFilename(value string) string {
	re := regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	clean := re.ReplaceAllString(value, "_")
	return strings.Trim(clean, "_")
}
