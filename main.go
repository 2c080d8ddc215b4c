package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodplaza-services/internal/config"
	"foodplaza-services/internal/db"
	httpapi "foodplaza-services/internal/http"
	"foodplaza-services/internal/logger"
	"foodplaza-services/internal/queue"
	"foodplaza-services/internal/services"
	"foodplaza-services/internal/storage"
	"foodplaza-services/internal/store"
	"foodplaza-services/internal/ws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	var queueClient *queue.Client
	if cfg.RabbitMQURL != "" {
		log.Info("rabbitmq enabled", zap.String("queue", queue.AvailabilityQueue))
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; continuing without worker", zap.Error(err))
			qc = nil
		}
		if qc != nil {
			if err := queue.EnsureAvailabilityTopology(qc); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq topology failed", zap.Error(err))
				}
				log.Warn("rabbitmq topology failed; continuing without worker", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}

		queueClient = qc
		if qc != nil {
			defer qc.Close()
		}
	} else {
		log.Info("availability worker disabled (RABBITMQ_URL is empty)")
	}

	stalls := store.NewStalls(pool)

	var publisher services.EventPublisher
	if queueClient != nil {
		publisher = queueClient
	}
	stocks := services.NewStocks(stalls, publisher, log)

	if queueClient != nil {
		if cfg.RabbitMQWorkerMode == "daemon" {
			log.Info("availability worker enabled", zap.String("mode", "daemon"))
			go func() {
				err := queueClient.ConsumeWithRetry(queue.AvailabilityQueue, func(ctx context.Context, body []byte) error {
					return queue.ProcessStallEvent(ctx, stocks, body)
				}, 5, 5*time.Second)
				if err != nil {
					log.Error("consumer stopped", zap.Error(err))
				}
			}()
		} else {
			log.Info("availability worker disabled", zap.String("mode", cfg.RabbitMQWorkerMode))
		}
	}

	var objects *storage.ObjectStore
	if cfg.ObjectStoreEndpoint != "" {
		objects, err = storage.NewObjectStore(ctx, storage.Config{
			Endpoint:        cfg.ObjectStoreEndpoint,
			Region:          cfg.ObjectStoreRegion,
			AccessKeyID:     cfg.ObjectStoreAccessKeyID,
			SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
			Bucket:          cfg.ObjectStoreBucket,
			PublicBaseURL:   cfg.ObjectStorePublicBaseURL,
			StorageClass:    cfg.ObjectStoreStorageClass,
		})
		if err != nil {
			log.Warn("object store disabled", zap.Error(err))
			objects = nil
		}
	} else {
		log.Info("object store disabled (no endpoint configured)")
	}

	wsServer := ws.New(pool, log, cfg)
	apiServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			DB:      pool,
			Logger:  log,
			Config:  cfg,
			Queue:   queueClient,
			Stalls:  stalls,
			Stocks:  stocks,
			Objects: objects,
			WS:      wsServer,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("plaza api ready", zap.String("base", "/api"))
		log.Info("plaza ws ready", zap.String("base", "/ws"))
		log.Info("plaza service listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}
