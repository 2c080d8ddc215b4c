package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"foodplaza-services/internal/store"
	"foodplaza-services/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type adminStallCreateRequest struct {
	StallName     string `json:"stallName"`
	Description   string `json:"description"`
	OwnerName     string `json:"ownerName"`
	OwnerEmail    string `json:"ownerEmail"`
	OwnerPassword string `json:"ownerPassword"`
}

type adminLeaseCreateRequest struct {
	StallID     int64   `json:"stallId"`
	MonthlyRent float64 `json:"monthlyRent"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
}

// AdminStallCreate onboards a stall in one shot: the owner account, the empty
// stall document, and the stall link.
func (h *Handler) AdminStallCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body adminStallCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	stallName := strings.TrimSpace(body.StallName)
	ownerName := strings.TrimSpace(body.OwnerName)
	ownerEmail := strings.ToLower(strings.TrimSpace(body.OwnerEmail))
	if stallName == "" || ownerName == "" || ownerEmail == "" || body.OwnerPassword == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Stall name, owner name, email, and password are required")
		return
	}

	var existingID int64
	if err := h.DB.QueryRow(ctx, "select id from users where lower(email) = lower($1)", ownerEmail).Scan(&existingID); err == nil {
		response.Error(w, http.StatusConflict, "EMAIL_ALREADY_EXISTS", "Email already registered")
		return
	} else if err != pgx.ErrNoRows {
		h.Logger.Error("owner email check failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create stall")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.OwnerPassword), 10)
	if err != nil {
		h.Logger.Error("owner password hash failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create stall")
		return
	}

	var ownerID int64
	if err := h.DB.QueryRow(ctx, `
        insert into users (name, email, password_hash, role, is_active)
        values ($1, $2, $3, 'STALL_OWNER', true)
        returning id
    `, ownerName, ownerEmail, string(hashed)).Scan(&ownerID); err != nil {
		h.Logger.Error("owner create failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create stall")
		return
	}

	stall, err := h.Stalls.CreateStall(ctx, ownerID, stallName, strings.TrimSpace(body.Description))
	if err != nil {
		if errors.Is(err, store.ErrOwnerHasStall) {
			response.Error(w, http.StatusConflict, "OWNER_HAS_STALL", "Owner already has a stall")
			return
		}
		h.Logger.Error("stall create failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create stall")
		return
	}

	if _, err := h.DB.Exec(ctx, `
        insert into stall_users (stall_id, user_id, role, is_active, permissions)
        values ($1, $2, 'OWNER', true, '{}')
    `, stall.ID, ownerID); err != nil {
		h.Logger.Error("owner link create failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create stall")
		return
	}

	response.Success(w, http.StatusCreated, map[string]any{
		"stall": map[string]any{
			"id":   stall.ID,
			"name": stall.Name,
		},
		"owner": map[string]any{
			"id":    ownerID,
			"name":  ownerName,
			"email": ownerEmail,
		},
	})
}

func (h *Handler) AdminStallList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `
        select s.id, s.name, u.name, u.email,
               coalesce(sl.status::text, ''), sl.monthly_rent, sl.start_date, sl.end_date
        from stalls s
        join users u on u.id = s.owner_user_id
        left join stall_leases sl on sl.stall_id = s.id and sl.is_current = true
        order by s.name
    `)
	if err != nil {
		h.Logger.Error("admin stall list failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve stalls")
		return
	}
	defer rows.Close()

	stalls := make([]map[string]any, 0)
	for rows.Next() {
		var (
			id          int64
			name        string
			ownerName   string
			ownerEmail  string
			leaseStatus string
			monthlyRent pgtype.Float8
			startDate   pgtype.Date
			endDate     pgtype.Date
		)
		if err := rows.Scan(&id, &name, &ownerName, &ownerEmail, &leaseStatus, &monthlyRent, &startDate, &endDate); err != nil {
			h.Logger.Error("admin stall list scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve stalls")
			return
		}

		lease := map[string]any{"status": nullableString(leaseStatus)}
		if monthlyRent.Valid {
			lease["monthlyRent"] = monthlyRent.Float64
		}
		if startDate.Valid {
			lease["startDate"] = startDate.Time.Format("2006-01-02")
		}
		if endDate.Valid {
			lease["endDate"] = endDate.Time.Format("2006-01-02")
		}

		stalls = append(stalls, map[string]any{
			"id":         id,
			"name":       name,
			"ownerName":  ownerName,
			"ownerEmail": ownerEmail,
			"lease":      lease,
		})
	}

	response.Success(w, http.StatusOK, map[string]any{"stalls": stalls})
}

// AdminLeaseCreate starts a new current lease for a stall, ending any
// previous one.
func (h *Handler) AdminLeaseCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body adminLeaseCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if body.StallID <= 0 || body.MonthlyRent < 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Valid stall id and rent are required")
		return
	}

	startDate, err := time.Parse("2006-01-02", body.StartDate)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "startDate must be YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse("2006-01-02", body.EndDate)
	if err != nil || !endDate.After(startDate) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "endDate must be after startDate")
		return
	}

	if _, err := h.Stalls.GetStall(ctx, body.StallID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "STALL_NOT_FOUND", "Stall not found")
			return
		}
		h.Logger.Error("lease stall load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create lease")
		return
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("lease tx begin failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create lease")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
        update stall_leases set is_current = false, status = 'ENDED', updated_at = now()
        where stall_id = $1 and is_current = true
    `, body.StallID); err != nil {
		h.Logger.Error("previous lease close failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create lease")
		return
	}

	var leaseID int64
	if err := tx.QueryRow(ctx, `
        insert into stall_leases (stall_id, monthly_rent, start_date, end_date, status, is_current)
        values ($1, $2, $3, $4, 'ACTIVE', true)
        returning id
    `, body.StallID, body.MonthlyRent, startDate, endDate).Scan(&leaseID); err != nil {
		h.Logger.Error("lease insert failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create lease")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("lease tx commit failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create lease")
		return
	}

	response.Success(w, http.StatusCreated, map[string]any{
		"lease": map[string]any{
			"id":          leaseID,
			"stallId":     body.StallID,
			"monthlyRent": body.MonthlyRent,
			"startDate":   body.StartDate,
			"endDate":     body.EndDate,
			"status":      "ACTIVE",
		},
	})
}

// AdminLeaseEnd suspends or ends the current lease. A non-active lease locks
// the stall out of every write route.
func (h *Handler) AdminLeaseEnd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stallID, err := readPathInt64(r, "stallId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Stall ID is required")
		return
	}

	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	if status == "" {
		status = "ENDED"
	}
	if status != "ENDED" && status != "SUSPENDED" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Status must be ENDED or SUSPENDED")
		return
	}

	tag, err := h.DB.Exec(ctx, `
        update stall_leases set status = $1, updated_at = now()
        where stall_id = $2 and is_current = true
    `, status, stallID)
	if err != nil {
		h.Logger.Error("lease end failed", zap.Int64("stallId", stallID), zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update lease")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "LEASE_NOT_FOUND", "No current lease for this stall")
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"stallId": stallID, "status": status})
}

// AdminPayoutReport aggregates completed orders per stall over a period. The
// split columns are frozen at order time, so historical reports survive
// commission rate changes.
func (h *Handler) AdminPayoutReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, err := parseReportRange(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	rows, err := h.DB.Query(ctx, `
        select s.id, s.name, count(o.id),
               coalesce(sum(o.total_amount), 0),
               coalesce(sum(o.plaza_commission), 0),
               coalesce(sum(o.stall_payout), 0)
        from stalls s
        left join orders o on o.stall_id = s.id
            and o.status = 'COMPLETED'
            and o.placed_at >= $1 and o.placed_at < $2
        group by s.id, s.name
        order by s.name
    `, from, to)
	if err != nil {
		h.Logger.Error("payout report query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report")
		return
	}
	defer rows.Close()

	payouts := make([]map[string]any, 0)
	var totalCommission float64
	for rows.Next() {
		var (
			id         int64
			name       string
			orderCount int64
			gross      float64
			commission float64
			payout     float64
		)
		if err := rows.Scan(&id, &name, &orderCount, &gross, &commission, &payout); err != nil {
			h.Logger.Error("payout report scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report")
			return
		}
		totalCommission += commission
		payouts = append(payouts, map[string]any{
			"stallId":         id,
			"stallName":       name,
			"orderCount":      orderCount,
			"grossSales":      gross,
			"plazaCommission": commission,
			"stallPayout":     payout,
		})
	}

	response.Success(w, http.StatusOK, map[string]any{
		"from":            from.Format("2006-01-02"),
		"to":              to.Format("2006-01-02"),
		"plazaCommission": totalCommission,
		"payouts":         payouts,
	})
}

// parseReportRange reads from/to query params, defaulting to the current
// month. The upper bound is exclusive.
func parseReportRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, errors.New("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, errors.New("to must be YYYY-MM-DD")
		}
		to = parsed
	}
	if !to.After(from) {
		return from, to, errors.New("to must be after from")
	}
	return from, to, nil
}
