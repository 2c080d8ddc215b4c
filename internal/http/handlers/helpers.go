package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"foodplaza-services/internal/middleware"
	"foodplaza-services/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

var errMissingParam = errors.New("missing param")

func readPathString(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := readPathString(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	var out int64
	_, err := fmt.Sscan(value, &out)
	return out, err
}

func zapError(err error) zap.Field {
	return zap.Error(err)
}

func nullableText(value pgtype.Text) any {
	if value.Valid {
		return value.String
	}
	return nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// requireStall reads the authenticated stall id or writes the error response
// and returns false.
func requireStall(w http.ResponseWriter, r *http.Request) (int64, bool) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || authCtx.StallID == nil {
		response.Error(w, http.StatusBadRequest, "STALL_ID_REQUIRED", "Stall ID is required")
		return 0, false
	}
	return *authCtx.StallID, true
}
