package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"foodplaza-services/internal/config"
	"foodplaza-services/internal/http/handlers"
	"foodplaza-services/internal/middleware"
	"foodplaza-services/internal/queue"
	"foodplaza-services/internal/services"
	"foodplaza-services/internal/storage"
	"foodplaza-services/internal/store"
	"foodplaza-services/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Deps struct {
	DB      *pgxpool.Pool
	Logger  *zap.Logger
	Config  config.Config
	Queue   *queue.Client
	Stalls  *store.Stalls
	Stocks  *services.Stocks
	Objects *storage.ObjectStore
	WS      *ws.Server
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config

	r := chi.NewRouter()
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.RequestID())

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
				"Last-Event-ID",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{
		DB:      deps.DB,
		Logger:  deps.Logger,
		Config:  cfg,
		Queue:   deps.Queue,
		Stalls:  deps.Stalls,
		Stocks:  deps.Stocks,
		Objects: deps.Objects,
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.AuthLogin)
		r.Post("/logout", h.AuthLogout)
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/stalls", h.PublicStallList)
		r.Get("/stalls/{id}", h.PublicStallMenu)
		r.Get("/stalls/{id}/stock-stream", h.PublicStallStockStream)
		r.Post("/stalls/{id}/orders", h.PublicOrderCreate)
		r.Get("/orders/{orderId}", h.PublicOrderDetail)
		r.Post("/orders/{orderId}/rating", h.PublicOrderRate)
	})

	r.Route("/api/stall", func(r chi.Router) {
		r.Use(middleware.StallAuth(deps.DB, cfg.JWTSecret))

		r.Get("/profile", h.StallProfileGet)
		r.Put("/profile", h.StallProfileUpdate)

		r.Get("/menu", h.StallMenuList)
		r.Put("/menu", h.StallMenuReplace)
		r.Put("/menu/{name}/recipe", h.StallMenuRecipeUpdate)

		r.Get("/capacity", h.StallMenuCapacity)
		r.Post("/capacity/refresh", h.StallMenuCapacityRefresh)
		r.Get("/stocks", h.StallStocksInfo)
		r.Post("/stocks/adjust", h.StallStocksAdjust)
		r.Put("/stocks", h.StallInventoryUpdate)

		r.Get("/orders", h.StallOrderList)
		r.Patch("/orders/{orderId}/status", h.StallOrderUpdateStatus)
		r.Get("/orders/{orderId}/receipt", h.StallOrderReceiptPDF)

		r.Post("/upload/menu-image", h.StallUploadMenuImage)
		r.Delete("/upload/menu-image", h.StallDeleteMenuImage)

		r.Get("/staff", h.StallStaffList)
		r.Post("/staff", h.StallStaffCreate)
		r.Put("/staff/{id}/permissions", h.StallStaffUpdatePermissions)
		r.Patch("/staff/{id}", h.StallStaffToggle)
		r.Delete("/staff/{id}", h.StallStaffDelete)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.AdminAuth(deps.DB, cfg.JWTSecret))

		r.Get("/stalls", h.AdminStallList)
		r.Post("/stalls", h.AdminStallCreate)
		r.Post("/leases", h.AdminLeaseCreate)
		r.Post("/leases/{stallId}/end", h.AdminLeaseEnd)
		r.Get("/reports/payouts", h.AdminPayoutReport)
	})

	if deps.WS != nil {
		r.Get("/ws/stall/orders", deps.WS.StallOrdersWS)
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
