package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-manager/configs"
	v1 "task-manager/internal/api/v1"
	"task-manager/internal/config"
	"task-manager/internal/middleware"
	"task-manager/internal/repository"
	"task-manager/pkg/cache"
	"task-manager/pkg/database"
	"task-manager/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg := configs.LoadConfig()

	// Inisialisasi logger
	if err := logger.InitLoggers(cfg.LogDir); err != nil {
		fmt.Fprintf(os.Stderr, "init loggers: %v\n", err)
		os.Exit(1)
	}
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	if err := run(cfg); err != nil {
		logger.ErrorLogger.Error("Application stopped with error", zap.Error(err))
		logger.SyncLoggers()
		os.Exit(1)
	}
}

func run(cfg configs.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UsesDefaultSecret() {
		logger.SecurityLogger.Warn("JWT_SECRET not set, using the insecure default secret")
	}

	// Inisialisasi database
	db, err := database.ConnectDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)
	logger.SystemLogger.Info("Database Connected", zap.String("driver", cfg.DBDriver))

	// Buat tabel jika belum ada
	if err := repository.CreateTableIfNotExists(db); err != nil {
		return err
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := repository.CreateAdminUser(ctx, db, repository.AdminSeed{
			Email:      cfg.AdminEmail,
			Name:       cfg.AdminName,
			Password:   cfg.AdminPassword,
			BcryptCost: cfg.BcryptCost,
		}); err != nil {
			return err
		}
	}

	// Redis opsional; tanpa REDIS_HOST cache dimatikan
	var taskCache cache.Cache = cache.Noop{}
	if cfg.RedisHost != "" {
		client, err := database.ConnectRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		taskCache = cache.NewRedisCache(client, cfg.CacheTTL)
		logger.SystemLogger.Info("Redis Connected", zap.String("host", cfg.RedisHost))
	}

	deps := config.NewDependencies(cfg, db, taskCache)
	go deps.Hub.Run(ctx)

	app := fiber.New(fiber.Config{AppName: "Task Management API"})

	// Middleware
	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))

	v1.RegisterRoutes(app, deps)

	go func() {
		<-ctx.Done()
		logger.SystemLogger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.ErrorLogger.Error("Shutdown error", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.AppPort)
	logger.SystemLogger.Info("Application ready", zap.String("addr", addr))
	return app.Listen(addr)
}
