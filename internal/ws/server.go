package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"foodplaza-services/internal/auth"
	"foodplaza-services/internal/config"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server pushes live order activity to connected stall dashboards. Each
// connection polls the stall's active orders and only writes when the
// newest updated_at moves.
type Server struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config
}

func New(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config) *Server {
	return &Server{DB: db, Logger: logger, Config: cfg}
}

type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(value)
}

func (c *wsClient) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

type orderSnapshot struct {
	ID          int64     `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	PlacedAt    time.Time `json:"placedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// StallOrdersWS authenticates via a token query parameter (browser WebSocket
// clients cannot set an Authorization header) and streams active orders.
func (s *Server) StallOrdersWS(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.VerifyAccessToken(r.URL.Query().Get("token"), s.Config.JWTSecret)
	if err != nil || claims.StallID == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if claims.Role != auth.RoleStallOwner && claims.Role != auth.RoleStallStaff {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var stallID int64
	if _, err := fmt.Sscan(*claims.StallID, &stallID); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	client := &wsClient{conn: conn}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain reads so close frames and pongs are processed.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pollTicker := time.NewTicker(s.Config.WSOrderPollInterval)
	pingTicker := time.NewTicker(s.Config.WSHeartbeatInterval)
	defer pollTicker.Stop()
	defer pingTicker.Stop()

	var lastUpdated time.Time
	if orders, updated, err := s.fetchActiveOrders(ctx, stallID); err == nil {
		lastUpdated = updated
		_ = client.writeJSON(map[string]any{"type": "orders", "data": orders})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-pingTicker.C:
			if err := client.ping(); err != nil {
				return
			}
		case <-pollTicker.C:
			updated := s.fetchActiveOrdersUpdatedAt(ctx, stallID)
			if !updated.After(lastUpdated) {
				continue
			}
			orders, newest, err := s.fetchActiveOrders(ctx, stallID)
			if err != nil {
				continue
			}
			lastUpdated = newest
			if err := client.writeJSON(map[string]any{"type": "orders", "data": orders}); err != nil {
				return
			}
		}
	}
}

func (s *Server) fetchActiveOrdersUpdatedAt(ctx context.Context, stallID int64) time.Time {
	var updated time.Time
	err := s.DB.QueryRow(ctx, `
		select coalesce(max(updated_at), 'epoch'::timestamptz)
		from orders
		where stall_id = $1 and status in ('PENDING', 'ACCEPTED', 'PREPARING', 'READY')
	`, stallID).Scan(&updated)
	if err != nil {
		return time.Time{}
	}
	return updated
}

func (s *Server) fetchActiveOrders(ctx context.Context, stallID int64) ([]orderSnapshot, time.Time, error) {
	rows, err := s.DB.Query(ctx, `
		select id, order_number, status, total_amount, placed_at, updated_at
		from orders
		where stall_id = $1 and status in ('PENDING', 'ACCEPTED', 'PREPARING', 'READY')
		order by placed_at desc
	`, stallID)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	orders := make([]orderSnapshot, 0)
	var newest time.Time
	for rows.Next() {
		var order orderSnapshot
		if err := rows.Scan(&order.ID, &order.OrderNumber, &order.Status, &order.TotalAmount, &order.PlacedAt, &order.UpdatedAt); err != nil {
			return nil, time.Time{}, err
		}
		if order.UpdatedAt.After(newest) {
			newest = order.UpdatedAt
		}
		orders = append(orders, order)
	}
	return orders, newest, rows.Err()
}
