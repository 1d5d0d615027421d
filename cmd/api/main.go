package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/tablepos-backend/api/routes"
	"github.com/angelmondragon/tablepos-backend/internal/cashsessions"
	"github.com/angelmondragon/tablepos-backend/internal/catalog"
	"github.com/angelmondragon/tablepos-backend/internal/expenses"
	"github.com/angelmondragon/tablepos-backend/internal/inventory"
	"github.com/angelmondragon/tablepos-backend/internal/orders"
	"github.com/angelmondragon/tablepos-backend/pkg/clock"
	"github.com/angelmondragon/tablepos-backend/pkg/config"
	"github.com/angelmondragon/tablepos-backend/pkg/db"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
	"github.com/angelmondragon/tablepos-backend/pkg/metrics"
	"github.com/angelmondragon/tablepos-backend/pkg/migrate"
	"github.com/angelmondragon/tablepos-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	loc, err := cfg.App.Location()
	if err != nil {
		logg.Error(context.Background(), "invalid business timezone", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	posMetrics := metrics.NewPOSMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	services, err := buildServices(cfg, logg, loc, dbClient, posMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"timezone": loc.String(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, loc, dbClient, redisClient, services, routes.Observability{
			HTTP:     httpMetrics,
			Gatherer: registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, loc *time.Location, dbClient *db.Client, posMetrics *metrics.POSMetrics) (routes.Services, error) {
	conn := dbClient.DB()
	clk := clock.System()

	catalogSvc := catalog.NewService(catalog.NewRepository(conn))

	inventorySvc, err := inventory.NewService(inventory.Deps{
		Repo:     inventory.NewRepository(conn),
		Products: catalogSvc,
		Tx:       dbClient,
		Clock:    clk,
		Location: loc,
		Logger:   logg,
		Metrics:  posMetrics,
	})
	if err != nil {
		return routes.Services{}, err
	}

	expenseSvc, err := expenses.NewService(expenses.NewRepository(conn), clk, loc, logg)
	if err != nil {
		return routes.Services{}, err
	}

	sessionSvc, err := cashsessions.NewService(cashsessions.Deps{
		Repo:     cashsessions.NewRepository(conn),
		Expenses: expenseSvc,
		Tx:       dbClient,
		Clock:    clk,
		Logger:   logg,
		Metrics:  posMetrics,
	})
	if err != nil {
		return routes.Services{}, err
	}

	orderSvc, err := orders.NewService(orders.Deps{
		Repo:           orders.NewRepository(conn),
		Tx:             dbClient,
		Sessions:       sessionSvc,
		Catalog:        catalogSvc,
		Inventory:      inventorySvc,
		Clock:          clk,
		Location:       loc,
		MaxTableNumber: cfg.Orders.MaxTableNumber,
		MaxLines:       cfg.Orders.MaxLinesPerOrder,
		Logger:         logg,
		Metrics:        posMetrics,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Catalog:      catalogSvc,
		Inventory:    inventorySvc,
		CashSessions: sessionSvc,
		Orders:       orderSvc,
		Expenses:     expenseSvc,
	}, nil
}
