package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"go-retail-ws/internal/handler"
	"go-retail-ws/internal/middleware"
	"go-retail-ws/internal/repository"
	"go-retail-ws/internal/service"
	"go-retail-ws/internal/ws"
	"go-retail-ws/pkg/cache"
	"go-retail-ws/pkg/config"
	"go-retail-ws/pkg/database"
	"go-retail-ws/pkg/jwt"
	"go-retail-ws/pkg/logger"
	"go-retail-ws/pkg/metrics"
	"go-retail-ws/pkg/migrate"
)

func main() {
	// 1. Load Env
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		ServiceName: cfg.App.Name,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := log.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	// 2. Setup Database
	db, err := database.Connect(cfg.DB, cfg.App.LogLevel == "debug")
	requireResource(ctx, log, "database", err)
	defer db.Close()

	if cfg.DB.AutoMigrate {
		sqlDB, err := db.SQL()
		requireResource(ctx, log, "sql database", err)
		requireResource(ctx, log, "migrations", migrate.Up(ctx, sqlDB, cfg.DB.Driver, log))
	}

	// 3. Setup WebSocket Hub and metrics
	wsHub := ws.NewHub(log)
	go wsHub.Run()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	hooks := service.Hooks{Events: wsHub, Metrics: metrics.New(registry), Log: log}

	// 4. Optional Redis for idempotent replays
	var store cache.IdempotencyStore
	if cfg.Redis.URL != "" {
		redisStore, err := cache.NewRedis(ctx, cfg.Redis.URL, "retail")
		requireResource(ctx, log, "redis", err)
		defer redisStore.Close()
		store = redisStore
	} else {
		log.Warn(ctx, "REDIS_URL not set, Idempotency-Key replay disabled")
	}

	// 5. Dependency Injection (Wiring Layers)
	conn := db.DB()
	productRepo := repository.NewProductRepo(conn)
	inventoryRepo := repository.NewInventoryRepo(conn)
	customerRepo := repository.NewCustomerRepo(conn)
	orderRepo := repository.NewOrderRepo(conn)
	returnRepo := repository.NewReturnRepo(conn)
	ledgerRepo := repository.NewLedgerRepo(conn)
	reportRepo := repository.NewReportRepo(conn)
	staffRepo := repository.NewStaffRepo(conn)

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	services := handler.Services{
		Auth:      service.NewAuthService(staffRepo, tokens, hooks),
		Staff:     service.NewStaffService(staffRepo, hooks),
		Products:  service.NewProductService(db, productRepo, inventoryRepo, cfg.Inventory.DefaultReorderLevel, hooks),
		Inventory: service.NewInventoryService(db, productRepo, inventoryRepo, hooks),
		Customers: service.NewCustomerService(customerRepo, hooks),
		Orders:    service.NewOrderService(db, orderRepo, customerRepo, productRepo, inventoryRepo, ledgerRepo, hooks),
		Returns:   service.NewReturnService(db, returnRepo, orderRepo, productRepo, inventoryRepo, ledgerRepo, hooks),
		Financial: service.NewFinancialService(db, ledgerRepo, orderRepo, hooks),
		Reports:   service.NewReportService(reportRepo, hooks),
		Dashboard: service.NewDashboardService(reportRepo, inventoryRepo),
	}

	// 6. Seed the bootstrap admin
	created, err := services.Staff.EnsureAdmin(ctx, cfg.Seed)
	requireResource(ctx, log, "admin seed", err)
	if created {
		log.Info(log.WithField(ctx, "email", cfg.Seed.AdminEmail), "bootstrap admin created")
	}

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: handler.NewErrorHandler(log, cfg.App.IsDev()),
	})

	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.App.CORSOrigins}))

	// 8. Routes
	handler.Register(app, handler.RouterConfig{
		Services:       services,
		Log:            log,
		Store:          store,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		Hub:            wsHub,
		Gatherer:       registry,
		Health: func(c *fiber.Ctx) error {
			pingCtx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.Ping(pingCtx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
			return c.JSON(fiber.Map{"status": "ok"})
		},
	})

	// 9. Graceful Shutdown
	go func() {
		log.Info(log.WithField(ctx, "port", cfg.App.Port), "server listening")
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Error(ctx, "server stopped", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error(ctx, "server forced to shutdown", err)
	}
	log.Info(ctx, "server exited")
}

func requireResource(ctx context.Context, log *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	log.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
