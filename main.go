package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-pos/internal/checkout"
	checkout_api "ms-pos/internal/checkout/api"
	checkout_db "ms-pos/internal/checkout/db"
	"ms-pos/internal/checkout/receipt"
	rediswrap "ms-pos/internal/checkout/redis"
	"ms-pos/internal/config"
	"ms-pos/internal/database/migrations"
	"ms-pos/internal/inventory"
	inventory_api "ms-pos/internal/inventory/api"
	inventory_db "ms-pos/internal/inventory/db"
	"ms-pos/internal/kafka"
	"ms-pos/internal/lifecycle"
	lifecycle_api "ms-pos/internal/lifecycle/api"
	"ms-pos/internal/logger"
	"ms-pos/internal/metrics"
	metrics_api "ms-pos/internal/metrics/api"
	"ms-pos/internal/sse"
	"ms-pos/internal/summary"
	summary_api "ms-pos/internal/summary/api"
	"ms-pos/internal/utils"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.Username, cfg.Database.Password,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func runMigrations(bunDB *bun.DB, log *logger.Logger) {
	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}
	log.Info("DATABASE", "Schema migrations applied")
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting POS Engine initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	runMigrations(bunDB, log)

	var checkoutPublisher checkout.KafkaPublisher
	var dayPublisher lifecycle.KafkaPublisher
	if cfg.Kafka.Enabled {
		if cfg.Kafka.MockMode {
			log.Warn("KAFKA", "Running with mock Kafka producer")
			mock := kafka.NewMockProducer()
			checkoutPublisher = mock
			dayPublisher = mock
		} else {
			producer := kafka.NewProducer(cfg.Kafka.Brokers)
			defer producer.Close()
			log.Info("KAFKA", "Kafka producer initialized successfully")

			requiredTopics := []string{
				kafka.TopicOrderCompleted,
				kafka.TopicDayClosed,
			}
			if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
				log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
			} else {
				log.Info("KAFKA", "Required topics ensured successfully")
			}
			checkoutPublisher = producer
			dayPublisher = producer
		}
	} else {
		log.Warn("KAFKA", "Kafka disabled, integration events will not be published")
	}

	stockEmitter := sse.NewStockEventEmitter()

	ledger := inventory.NewLedger(inventory_db.New(bunDB))
	aggregator := summary.NewAggregator(summary.NewDB(bunDB))
	lifecycleService := lifecycle.NewService(lifecycle.NewDB(bunDB), aggregator, dayPublisher)
	metricsService := metrics.NewService(metrics.NewDB(bunDB), lifecycle.NewDB(bunDB))

	checkoutService := checkout.NewService(
		checkout_db.New(bunDB),
		rediswrap.NewRedis(redisClient),
		checkoutPublisher,
	)
	checkoutService.Emitter = stockEmitter
	if cfg.Receipt.QRSecret != "" {
		checkoutService.Receipts = receipt.NewGenerator(cfg.Receipt.QRSecret)
		log.Info("APP", "Receipt QR generation enabled")
	}

	checkoutHandler := checkout_api.NewHandler(checkoutService, log)
	sseHandler := checkout_api.NewSSEHandler(log, stockEmitter)
	lifecycleHandler := lifecycle_api.NewHandler(lifecycleService, log)
	inventoryHandler := inventory_api.NewHandler(ledger, log)
	summaryHandler := summary_api.NewHandler(aggregator, log)
	metricsHandler := metrics_api.NewHandler(metricsService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := bunDB.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(utils.Unhealthy("pos-engine", "database unreachable"))
			return
		}
		json.NewEncoder(w).Encode(utils.Healthy("pos-engine"))
	})

	r.Route("/api/pos", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Post("/", lifecycleHandler.RegisterEvent)
			r.Get("/", lifecycleHandler.ListEvents)
			r.Get("/{eventId}", lifecycleHandler.GetEvent)
			r.Post("/{eventId}/day/start", lifecycleHandler.StartDay)
			r.Post("/{eventId}/day/end", lifecycleHandler.EndDay)
			r.Post("/{eventId}/complete", lifecycleHandler.CompleteEvent)
			r.Post("/{eventId}/archive", lifecycleHandler.ArchiveEvent)

			r.Post("/{eventId}/items", inventoryHandler.AddItem)
			r.Get("/{eventId}/items", inventoryHandler.ListItems)
			r.Get("/{eventId}/stock", inventoryHandler.StockLevels)
			r.Get("/{eventId}/stock/stream", sseHandler.HandleEventStock)
			r.Post("/{eventId}/deals", inventoryHandler.AddDeal)
			r.Get("/{eventId}/deals", inventoryHandler.ListDeals)

			r.Get("/{eventId}/summaries", summaryHandler.ListSummaries)
			r.Get("/{eventId}/summaries/{dayNumber}", summaryHandler.GetSummary)

			r.Get("/{eventId}/metrics/live", metricsHandler.LiveDay)
			r.Get("/{eventId}/metrics/total", metricsHandler.EventToDate)
			r.Get("/{eventId}/metrics/top-items", metricsHandler.TopItems)
		})
		log.Info("ROUTER", "Event routes registered under /api/pos/events")

		r.Route("/items", func(r chi.Router) {
			r.Put("/{itemId}/restock", inventoryHandler.Restock)
			r.Post("/{itemId}/retire", inventoryHandler.RetireItem)
			r.Delete("/{itemId}", inventoryHandler.RemoveItem)
		})
		log.Info("ROUTER", "Item routes registered under /api/pos/items")

		r.Post("/checkout", checkoutHandler.Checkout)
		r.Get("/orders/{orderId}", checkoutHandler.GetOrder)
		log.Info("ROUTER", "Checkout routes registered under /api/pos/checkout")
	})

	// No WriteTimeout: the stock stream endpoint holds its response open.
	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("POS Engine running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "POS Engine shutdown complete")
	}
}
