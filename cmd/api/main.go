package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/janlord02/thryft-backend-sub000/internal/config"
	"github.com/janlord02/thryft-backend-sub000/internal/handler"
	"github.com/janlord02/thryft-backend-sub000/internal/notify"
	"github.com/janlord02/thryft-backend-sub000/internal/repository"
	"github.com/janlord02/thryft-backend-sub000/internal/service"
	"github.com/janlord02/thryft-backend-sub000/internal/validator"
	"github.com/janlord02/thryft-backend-sub000/migrations"
	"github.com/janlord02/thryft-backend-sub000/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	closeLog := initLogger(cfg)
	defer closeLog()

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if cfg.DB.AutoMigrate {
		if err := database.ApplySchema(ctx, pool, migrations.Schema); err != nil {
			log.Fatal().Err(err).Msg("failed to apply schema")
		}
		log.Info().Msg("database schema applied")
	}

	// Realtime status events are optional
	var (
		redisClient *redis.Client
		publisher   notify.StatusPublisher = notify.NopStatusPublisher{}
		redisPinger handler.Pinger
	)
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable at startup, realtime events will be retried per publish")
		}
		publisher = notify.NewRedisStatusPublisher(redisClient)
		redisPinger = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	} else {
		log.Info().Msg("REDIS_ADDR not set, realtime status events disabled")
	}

	// Notifications run on the dispatcher, never on the request goroutine
	dispatcher := notify.NewDispatcher(cfg.Notify.Workers, cfg.Notify.QueueSize, cfg.Notify.TaskTimeout)
	dispatcher.Start()
	emitter := notify.NewEmitter(dispatcher, notify.NewDatabaseNotifier(pool), publisher)

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Thryft Coupon Ledger",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	validate := validator.New()

	// Layered wiring: repositories -> services -> handlers
	couponRepo := repository.NewCouponRepository(pool)
	claimRepo := repository.NewClaimRepository(pool)

	catalogService := service.NewCatalogService(pool, couponRepo, claimRepo)
	claimService := service.NewClaimService(pool, couponRepo, claimRepo, emitter)
	redemptionService := service.NewRedemptionService(claimRepo, emitter)
	maintenanceService := service.NewMaintenanceService(pool, couponRepo, claimRepo, emitter)

	handler.RegisterRoutes(app, handler.Handlers{
		Health:     handler.NewHealthHandler(pool, redisPinger),
		Coupon:     handler.NewCouponHandler(catalogService, validate),
		Claim:      handler.NewClaimHandler(claimService, validate),
		Redemption: handler.NewRedemptionHandler(redemptionService, validate),
		Admin:      handler.NewAdminHandler(maintenanceService, validate),
	}, cfg.Auth.JWTSecret)

	// Background sweeper
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	var sweepWG sync.WaitGroup
	if cfg.Sweep.Enabled {
		sweepWG.Add(1)
		go func() {
			defer sweepWG.Done()
			maintenanceService.RunSweeper(sweepCtx, cfg.Sweep.Interval)
		}()
	}

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	stopSweep()
	sweepWG.Wait()

	// Drain queued notifications before their database and redis go away
	log.Info().Msg("draining notification queue...")
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("notification queue not drained before timeout")
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis client")
		}
	}

	// Close database pool last (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
// The returned func closes the log file, if any.
func initLogger(cfg *config.Config) func() {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Human-readable output for development
	if cfg.Log.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
		return func() {}
	}

	// JSON output for production, optionally to a rotating file
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.Log.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.FileMaxSizeMB,
			MaxBackups: cfg.Log.FileMaxBackup,
			MaxAge:     cfg.Log.FileMaxAgeDay,
			Compress:   true,
		}
		out = rotator
		closeFn = func() { _ = rotator.Close() }
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closeFn
}
