package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"foodplaza-services/internal/auth"
	"foodplaza-services/pkg/response"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) AuthLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	password := body.Password
	if email == "" || password == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required")
		return
	}

	var (
		userID       int64
		name         string
		role         string
		passwordHash string
		isActive     bool
	)
	err := h.DB.QueryRow(ctx, `
        select id, name, role, password_hash, is_active
        from users where lower(email) = lower($1)
    `, email).Scan(&userID, &name, &role, &passwordHash, &isActive)
	if err != nil {
		if err == pgx.ErrNoRows {
			response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
			return
		}
		h.Logger.Error("login lookup failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}
	if !isActive {
		response.Error(w, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is disabled")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	// Owners and staff carry their stall in the token so stall routes never
	// need an explicit stall id.
	var stallID *int64
	if role == string(auth.RoleStallOwner) || role == string(auth.RoleStallStaff) {
		var id int64
		err := h.DB.QueryRow(ctx, `
            select stall_id from stall_users where user_id = $1 and is_active = true
            order by created_at asc limit 1
        `, userID).Scan(&id)
		if err != nil {
			if err != pgx.ErrNoRows {
				h.Logger.Error("login stall lookup failed", zapError(err))
			}
			response.Error(w, http.StatusForbidden, "NO_STALL_ACCESS", "No stall is linked to this account")
			return
		}
		stallID = &id
	}

	expiresAt := time.Now().Add(time.Duration(h.Config.JWTRefreshExpirySeconds) * time.Second)
	var sessionID int64
	if err := h.DB.QueryRow(ctx, `
        insert into user_sessions (user_id, status, expires_at) values ($1, 'ACTIVE', $2) returning id
    `, userID, expiresAt).Scan(&sessionID); err != nil {
		h.Logger.Error("session create failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}

	claims := &auth.Claims{
		UserID:    strconv.FormatInt(userID, 10),
		SessionID: strconv.FormatInt(sessionID, 10),
		Role:      auth.UserRole(role),
		Email:     email,
		Name:      &name,
	}
	if stallID != nil {
		value := strconv.FormatInt(*stallID, 10)
		claims.StallID = &value
	}

	token, err := auth.SignAccessToken(claims, h.Config.JWTSecret, h.Config.JWTExpirySeconds)
	if err != nil {
		h.Logger.Error("token sign failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}

	user := map[string]any{
		"id":    userID,
		"name":  name,
		"email": email,
		"role":  role,
	}
	if stallID != nil {
		user["stallId"] = *stallID
	}

	response.Success(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresIn": h.Config.JWTExpirySeconds,
		"user":      user,
	})
}

// AuthLogout revokes the caller's session. It verifies the token itself so a
// single route serves every role.
func (h *Handler) AuthLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := auth.ParseBearerToken(r.Header.Get("Authorization"))
	claims, err := auth.VerifyAccessToken(token, h.Config.JWTSecret)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	var userID, sessionID int64
	if _, err := fmt.Sscan(claims.UserID, &userID); err != nil {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}
	if _, err := fmt.Sscan(claims.SessionID, &sessionID); err != nil {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	if _, err := h.DB.Exec(ctx, `
        update user_sessions set status = 'REVOKED' where id = $1 and user_id = $2
    `, sessionID, userID); err != nil {
		h.Logger.Error("logout failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign out")
		return
	}

	response.Success(w, http.StatusOK, map[string]any{"signedOut": true})
}
