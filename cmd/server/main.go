package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	checkoutapp "github.com/pos/backend/internal/application/checkout"
	shiftapp "github.com/pos/backend/internal/application/shift"
	stockapp "github.com/pos/backend/internal/application/stock"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/pos/backend/internal/infrastructure/cache"
	"github.com/pos/backend/internal/infrastructure/config"
	"github.com/pos/backend/internal/infrastructure/event"
	"github.com/pos/backend/internal/infrastructure/logger"
	"github.com/pos/backend/internal/infrastructure/persistence"
	"github.com/pos/backend/internal/infrastructure/telemetry"
	"github.com/pos/backend/internal/interfaces/http/handler"
	"github.com/pos/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting POS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if err := valueobject.SetPrecision(cfg.Checkout.CurrencyPrecision); err != nil {
		log.Fatal("Invalid currency precision", zap.Error(err))
	}

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled {
		if err := db.EnableTracing(); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	parkStore, err := cache.NewRedisParkStore(cfg.Redis, cfg.Checkout.ParkTTL)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := parkStore.Close(); err != nil {
			log.Error("Error closing Redis connection", zap.Error(err))
		}
	}()
	log.Info("Redis connected successfully")

	// Event bus with the audit trail subscribed to every domain event
	eventBus := event.NewInMemoryEventBus(log)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)
	eventBus.Subscribe(event.NewAuditLogHandler(auditRepo, log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Transaction scopes
	checkoutScope := persistence.NewGormCheckoutTransactionScope(db.DB)
	shiftScope := persistence.NewGormShiftTransactionScope(db.DB)
	stockScope := persistence.NewGormStockTransactionScope(db.DB)

	// Application services
	catalogLookup := persistence.NewGormCatalogLookup(db.DB)

	saleService := checkoutapp.NewSaleService(checkoutScope, catalogLookup, log)
	saleService.SetEventPublisher(eventBus)
	saleService.SetParkStore(parkStore)
	saleService.SetMaxRetries(cfg.Checkout.MaxRetries)

	refundService := checkoutapp.NewRefundService(checkoutScope, log)
	refundService.SetEventPublisher(eventBus)
	refundService.SetMaxRetries(cfg.Checkout.MaxRetries)

	shiftService := shiftapp.NewShiftService(shiftScope, log)
	shiftService.SetEventPublisher(eventBus)

	stockService := stockapp.NewStockService(stockScope, log)
	stockService.SetEventPublisher(eventBus)

	// HTTP interface
	engine := router.NewEngine(cfg, log)
	router.NewRouter(engine).
		Register(handler.NewCheckoutHandler(saleService, refundService)).
		Register(handler.NewShiftHandler(shiftService)).
		Register(handler.NewStockHandler(stockService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
