package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"foodplaza-services/internal/auth"

	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const authContextKey contextKey = "authContext"

type AuthContext struct {
	UserID      int64
	SessionID   int64
	Role        auth.UserRole
	Email       string
	StallID     *int64
	IsOwner     bool
	Permissions []string
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeAuthErrorDebug(w, status, message, "")
}

func writeAuthErrorDebug(w http.ResponseWriter, status int, message string, debug string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload := map[string]any{
		"success": false,
		"error":   "UNAUTHORIZED",
		"message": message,
	}

	if os.Getenv("APP_ENV") == "development" && strings.TrimSpace(debug) != "" {
		payload["debug"] = debug
	}

	_ = json.NewEncoder(w).Encode(payload)
}

// Reads stay allowed on an expired lease so owners can still see their data;
// writes are blocked until the lease is renewed.
func isLeaseLockExempt(path string, method string) bool {
	if method == http.MethodGet {
		return true
	}
	if strings.HasPrefix(path, "/api/stall/lease") {
		return true
	}
	return false
}

func StallAuth(db *pgxpool.Pool, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Authorization token required", err.Error())
				return
			}

			if claims.Role != auth.RoleStallOwner && claims.Role != auth.RoleStallStaff {
				writeAuthError(w, http.StatusForbidden, "Stall access required")
				return
			}

			if claims.StallID == nil {
				writeAuthError(w, http.StatusUnauthorized, "Stall not found")
				return
			}
			stallID, err := parseInt64(*claims.StallID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Stall not found")
				return
			}

			userID, err := parseInt64(claims.UserID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			sessionID, err := parseInt64(claims.SessionID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			// Validate session + stall link + lease status
			var (
				role        string
				permissions []string
				linkActive  bool
				leaseStatus string
			)

			query := `
				select u.role, su.permissions, su.is_active, coalesce(sl.status::text, '')
				from users u
				join stall_users su on su.user_id = u.id and su.stall_id = $2
				join stalls s on s.id = su.stall_id
				left join stall_leases sl on sl.stall_id = s.id and sl.is_current = true
				join user_sessions us on us.id = $3 and us.user_id = u.id and us.status = 'ACTIVE' and us.expires_at > now()
				where u.id = $1
			`
			err = db.QueryRow(r.Context(), query, userID, stallID, sessionID).Scan(&role, &permissions, &linkActive, &leaseStatus)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Stall access required", err.Error())
				return
			}

			if !linkActive {
				writeAuthError(w, http.StatusForbidden, "Stall access is disabled")
				return
			}

			if !isLeaseLockExempt(r.URL.Path, r.Method) {
				if !strings.EqualFold(leaseStatus, "ACTIVE") {
					writeAuthError(w, http.StatusForbidden, "Stall lease is not active. Please contact plaza administration.")
					return
				}
			}

			isOwner := claims.Role == auth.RoleStallOwner

			// Permissions for staff
			if claims.Role == auth.RoleStallStaff {
				perm := auth.GetPermissionForAPI(r.URL.Path, r.Method)
				if perm != nil {
					has := false
					for _, p := range permissions {
						if p == string(*perm) {
							has = true
							break
						}
					}
					if !has {
						writeAuthError(w, http.StatusForbidden, "You do not have permission to access this resource")
						return
					}
				}
			}

			authCtx := &AuthContext{
				UserID:      userID,
				SessionID:   sessionID,
				Role:        claims.Role,
				Email:       claims.Email,
				StallID:     &stallID,
				IsOwner:     isOwner,
				Permissions: permissions,
			}

			ctx := WithAuthContext(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminAuth(db *pgxpool.Pool, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Authorization token required", err.Error())
				return
			}

			if claims.Role != auth.RoleAdmin {
				writeAuthError(w, http.StatusForbidden, "Administrator access required")
				return
			}

			userID, err := parseInt64(claims.UserID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			sessionID, err := parseInt64(claims.SessionID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			var sessionOK bool
			err = db.QueryRow(r.Context(), `
				select exists(
					select 1 from user_sessions us
					join users u on u.id = us.user_id
					where us.id = $1 and us.user_id = $2 and us.status = 'ACTIVE' and us.expires_at > now()
					  and u.role = 'PLAZA_ADMIN'
				)
			`, sessionID, userID).Scan(&sessionOK)
			if err != nil || !sessionOK {
				writeAuthError(w, http.StatusUnauthorized, "Administrator access required")
				return
			}

			authCtx := &AuthContext{
				UserID:    userID,
				SessionID: sessionID,
				Role:      claims.Role,
				Email:     claims.Email,
			}

			ctx := WithAuthContext(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseInt64(value string) (int64, error) {
	var out int64
	_, err := fmt.Sscan(value, &out)
	return out, err
}
