package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"foodplaza-services/internal/auth"
	"foodplaza-services/internal/middleware"
	"foodplaza-services/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"
)

type staffCreateRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Phone       string   `json:"phone"`
	Permissions []string `json:"permissions"`
}

type staffPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

type staffToggleRequest struct {
	IsActive *bool `json:"isActive"`
}

func requireOwner(w http.ResponseWriter, r *http.Request) (*middleware.AuthContext, int64, bool) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || authCtx.StallID == nil {
		response.Error(w, http.StatusBadRequest, "STALL_ID_REQUIRED", "Stall ID is required")
		return nil, 0, false
	}
	if !authCtx.IsOwner {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Owner access required")
		return nil, 0, false
	}
	return authCtx, *authCtx.StallID, true
}

func (h *Handler) StallStaffList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, stallID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	search := strings.TrimSpace(r.URL.Query().Get("search"))

	rows, err := h.DB.Query(ctx, `
        select su.id, su.user_id, u.name, u.email, u.phone, u.role, su.is_active, su.permissions, su.created_at
        from stall_users su
        join users u on u.id = su.user_id
        where su.stall_id = $1
          and ($2 = '' or u.name ilike '%' || $2 || '%' or u.email ilike '%' || $2 || '%')
        order by case when u.role = 'STALL_OWNER' then 0 else 1 end, su.created_at desc
    `, stallID, search)
	if err != nil {
		h.Logger.Error("stall staff list query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve staff")
		return
	}
	defer rows.Close()

	staff := make([]map[string]any, 0)
	for rows.Next() {
		var (
			id          int64
			userID      int64
			name        string
			email       string
			phone       pgtype.Text
			role        string
			isActive    bool
			permissions []string
			createdAt   time.Time
		)
		if err := rows.Scan(&id, &userID, &name, &email, &phone, &role, &isActive, &permissions, &createdAt); err != nil {
			h.Logger.Error("stall staff list scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve staff")
			return
		}
		staff = append(staff, map[string]any{
			"id":          id,
			"userId":      userID,
			"name":        name,
			"email":       email,
			"phone":       nullableText(phone),
			"role":        role,
			"isActive":    isActive,
			"permissions": permissions,
			"joinedAt":    createdAt,
		})
	}

	response.Success(w, http.StatusOK, map[string]any{"staff": staff})
}

func (h *Handler) StallStaffCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, stallID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var body staffCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	name := strings.TrimSpace(body.Name)
	email := strings.ToLower(strings.TrimSpace(body.Email))
	password := strings.TrimSpace(body.Password)
	phone := strings.TrimSpace(body.Phone)

	if name == "" || email == "" || password == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name, email, and password are required")
		return
	}
	if !strings.Contains(email, "@") {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid email")
		return
	}

	permissions := auth.NormalizeStaffPermissions(body.Permissions)

	var existingID int64
	if err := h.DB.QueryRow(ctx, "select id from users where lower(email) = lower($1)", email).Scan(&existingID); err == nil {
		response.Error(w, http.StatusConflict, "EMAIL_ALREADY_EXISTS", "Email already registered")
		return
	} else if err != pgx.ErrNoRows {
		h.Logger.Error("staff email check failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create staff")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		h.Logger.Error("staff password hash failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create staff")
		return
	}

	var (
		userID    int64
		userName  string
		userEmail string
		userPhone pgtype.Text
	)
	if err := h.DB.QueryRow(ctx, `
        insert into users (name, email, phone, password_hash, role, is_active)
        values ($1, $2, $3, $4, 'STALL_STAFF', true)
        returning id, name, email, phone
    `, name, email, nullableString(phone), string(hashed)).Scan(&userID, &userName, &userEmail, &userPhone); err != nil {
		h.Logger.Error("staff user create failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create staff")
		return
	}

	if _, err := h.DB.Exec(ctx, `
        insert into stall_users (stall_id, user_id, role, is_active, permissions)
        values ($1, $2, 'STAFF', true, $3)
    `, stallID, userID, permissions); err != nil {
		h.Logger.Error("staff link create failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create staff")
		return
	}

	response.Success(w, http.StatusCreated, map[string]any{
		"staff": map[string]any{
			"id":          userID,
			"name":        userName,
			"email":       userEmail,
			"phone":       nullableText(userPhone),
			"role":        "STALL_STAFF",
			"isActive":    true,
			"permissions": permissions,
		},
	})
}

func (h *Handler) StallStaffUpdatePermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, stallID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	userID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid userId")
		return
	}

	var body staffPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	permissions := auth.NormalizeStaffPermissions(body.Permissions)

	tag, err := h.DB.Exec(ctx, `
        update stall_users set permissions = $1, updated_at = now()
        where stall_id = $2 and user_id = $3 and role = 'STAFF'
    `, permissions, stallID, userID)
	if err != nil {
		h.Logger.Error("staff permissions update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update staff")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "STAFF_NOT_FOUND", "Staff member not found")
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"userId": userID, "permissions": permissions})
}

func (h *Handler) StallStaffToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, stallID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	userID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid userId")
		return
	}
	if userID == authCtx.UserID {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Cannot deactivate yourself")
		return
	}

	var body staffToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsActive == nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "isActive is required")
		return
	}

	tag, err := h.DB.Exec(ctx, `
        update stall_users set is_active = $1, updated_at = now()
        where stall_id = $2 and user_id = $3 and role = 'STAFF'
    `, *body.IsActive, stallID, userID)
	if err != nil {
		h.Logger.Error("staff toggle failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update staff")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "STAFF_NOT_FOUND", "Staff member not found")
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"userId": userID, "isActive": *body.IsActive})
}

func (h *Handler) StallStaffDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, stallID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	userID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid userId")
		return
	}
	if userID == authCtx.UserID {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Cannot remove yourself")
		return
	}

	tag, err := h.DB.Exec(ctx, `
        delete from stall_users where stall_id = $1 and user_id = $2 and role = 'STAFF'
    `, stallID, userID)
	if err != nil {
		h.Logger.Error("staff delete failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove staff")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "STAFF_NOT_FOUND", "Staff member not found")
		return
	}

	// Any live sessions for the removed staff member stop working immediately.
	if _, err := h.DB.Exec(ctx, "delete from user_sessions where user_id = $1", userID); err != nil {
		h.Logger.Warn("staff session cleanup failed", zapError(err))
	}

	response.Success(w, http.StatusOK, map[string]any{"userId": userID, "removed": true})
}
