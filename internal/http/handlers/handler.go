package handlers

import (
	"foodplaza-services/internal/config"
	"foodplaza-services/internal/queue"
	"foodplaza-services/internal/services"
	"foodplaza-services/internal/storage"
	"foodplaza-services/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Handler struct {
	DB      *pgxpool.Pool
	Logger  *zap.Logger
	Config  config.Config
	Queue   *queue.Client
	Stalls  *store.Stalls
	Stocks  *services.Stocks
	Objects *storage.ObjectStore
}
