// main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"seat-booking/cmd"
	"seat-booking/internal/clock"
	"seat-booking/internal/data/repository"
	"seat-booking/internal/wire"
	"seat-booking/internal/worker"
	"seat-booking/migrations"
	"seat-booking/pkg/broker"
	"seat-booking/pkg/database"
	"seat-booking/pkg/telemetry"
	"seat-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, config.Telemetry, config.App.Name, logger)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("Failed to shutdown telemetry", zap.Error(err))
		}
	}()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if err := database.RunMigrations(database.ConnString(config.Database), migrations.FS); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	rdb, err := database.InitRedis(config.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	var limiter redis.Scripter
	if rdb != nil {
		defer rdb.Close()
		limiter = rdb
		logger.Info("Redis connected, rate limiting enabled")
	}

	publisher, err := broker.New(config.RabbitMQ.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to rabbitmq", zap.Error(err))
	}
	defer publisher.Close()

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)
	clk := clock.NewSystem()

	// Wire all dependencies
	app := wire.Wiring(wire.Deps{
		Repo:      repos,
		Publisher: publisher,
		Clock:     clk,
		DB:        db,
		Limiter:   limiter,
	}, config, logger)

	created, err := app.Service.Catalog.EnsureInventory(ctx)
	if err != nil {
		logger.Fatal("Failed to bootstrap seat inventory", zap.Error(err))
	}
	logger.Info("Seat inventory ready", zap.Int("created", created))

	workers := []*worker.Periodic{
		worker.NewExpirySweeper(app.Service.Booking, clk, config.Booking.SweepInterval, logger),
		worker.NewCatalogReset(app.Service.Catalog, config.Booking.ResetInterval, logger),
	}

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *worker.Periodic) {
			defer wg.Done()
			w.Run(ctx)
		}(w)
	}

	// Start server
	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
		stop()
	}

	wg.Wait()
	logger.Info("Server stopped")
}
