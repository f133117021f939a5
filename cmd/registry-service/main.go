package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ticket-registry/internal/auth"
	"ticket-registry/internal/config"
	kafkapkg "ticket-registry/internal/kafka"
	"ticket-registry/internal/logger"
	"ticket-registry/internal/ownership"
	"ticket-registry/internal/payment"
	"ticket-registry/internal/qr"
	"ticket-registry/internal/registry"
	regdb "ticket-registry/internal/registry/db"
	"ticket-registry/internal/registry/registry_api"
	"ticket-registry/internal/sse"
)

func openDatabase(cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	var sqldb *sql.DB
	var err error
	var bunDB *bun.DB

	switch cfg.Driver {
	case "postgres":
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	case "sqlite":
		sqldb, err = sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		bunDB = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.LogDatabase("CONNECT", cfg.Driver, "connection successful")
	return bunDB, nil
}

func buildOwnership(cfg *config.Config, log *logger.Logger) (registry.OwnershipAdapter, error) {
	switch cfg.Ownership.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info("OWNERSHIP", "redis holder registry at "+cfg.Redis.Addr)
		return ownership.NewRedis(client), nil
	case "memory":
		log.Warn("OWNERSHIP", "in-memory holder registry; holders are lost on restart")
		return ownership.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown OWNERSHIP_BACKEND %q", cfg.Ownership.Backend)
	}
}

func buildNotifier(cfg *config.Config, emitter *sse.NotificationEmitter, log *logger.Logger) registry.Notifier {
	notifiers := registry.MultiNotifier{emitter}
	if !cfg.Kafka.Enabled {
		log.Warn("KAFKA", "disabled; notifications go to SSE subscribers only")
		return notifiers
	}
	if cfg.Kafka.MockMode {
		log.Warn("KAFKA", "mock mode; notifications are logged, not published")
		return append(notifiers, kafkapkg.NewMockProducer(log))
	}

	topics := []string{
		cfg.Kafka.Topics.EventCreated,
		cfg.Kafka.Topics.TicketMinted,
		cfg.Kafka.Topics.TicketUsed,
		cfg.Kafka.Topics.EventCancelled,
	}
	if err := kafkapkg.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
		log.Error("KAFKA", fmt.Sprintf("topic bootstrap failed: %v", err))
	}
	return append(notifiers, kafkapkg.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics, log))
}

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	ctx := context.Background()

	bunDB, err := openDatabase(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	store := &regdb.DB{Bun: bunDB}
	if err := store.Init(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("schema init failed: %v", err))
	}

	owners, err := buildOwnership(cfg, log)
	if err != nil {
		log.Fatal("OWNERSHIP", err.Error())
	}

	var payments registry.PaymentAdapter
	if cfg.Stripe.Enabled {
		payments = payment.NewStripePayer(cfg.Stripe.APIKey, cfg.Stripe.Currency, log)
		log.Info("PAYMENT", "stripe transfers enabled")
	} else {
		payments = payment.NewMemory()
		log.Warn("PAYMENT", "stripe disabled; transfers are recorded in memory only")
	}

	emitter := sse.NewNotificationEmitter()
	notifier := buildNotifier(cfg, emitter, log)
	admins := auth.NewAdminList(cfg.Auth.AdminSubjects)

	reg := registry.NewRegistry(store, owners, payments, notifier, admins, log)
	handler := registry_api.NewHandler(reg, emitter, qr.NewGenerator(cfg.QR.SecretKey))

	r := chi.NewRouter()
	r.Use(auth.Middleware(cfg.Auth.JWTSecret))
	handler.Routes(r)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", "Ticket registry on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("SERVER", "Ticket registry shutdown complete")
}
