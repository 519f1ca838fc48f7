package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mobilevet/routefill/internal/api/router"
	appconfig "github.com/mobilevet/routefill/internal/config"
	"github.com/mobilevet/routefill/internal/gapfill"
	"github.com/mobilevet/routefill/internal/http/handlers"
	"github.com/mobilevet/routefill/internal/observability/metrics"
	"github.com/mobilevet/routefill/internal/outreach"
	"github.com/mobilevet/routefill/internal/schedule"
	"github.com/mobilevet/routefill/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	mode := cfg.Mode()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting routefill API server",
		"env", cfg.Env,
		"mode", string(mode),
		"port", cfg.Port,
	)

	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)

	// Candidate fetching
	optimizerClient := gapfill.NewClient(cfg.SchedulerBaseURL, cfg.SchedulerTimeout, logger, workflowMetrics)
	candidateService := gapfill.NewService(optimizerClient)

	// Outreach sending, with an optional audit trail when a database is configured
	sender := outreach.NewGatewaySender(cfg.MessagingBaseURL, cfg.MessagingTimeout, logger)
	var auditStore *outreach.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		auditStore = outreach.NewStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set; outreach audit trail disabled")
	}
	var auditLog outreach.AuditLog
	if auditStore != nil {
		auditLog = auditStore
	}
	manager := outreach.NewManager(mode, sender, auditLog, logger, workflowMetrics,
		outreach.WithSuccessWindow(cfg.SuccessDisplayWindow))

	// Preview resolution with the provider identifier cache
	var providerCache schedule.ProviderIDCache = schedule.NewMemoryProviderCache()
	if cfg.ProviderCacheBackend == "redis" && cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		providerCache = schedule.NewRedisProviderCache(redis.NewClient(opts))
		logger.Info("provider id cache backed by redis", "addr", cfg.RedisAddr)
	}
	employeeClient := schedule.NewEmployeeClient(cfg.EmployeesBaseURL, cfg.EmployeesTimeout, logger)
	resolver := schedule.NewResolver(employeeClient, providerCache, logger, workflowMetrics)

	gapfillHandler := handlers.NewGapfillHandler(candidateService, manager, resolver, auditStore, logger)

	r := router.New(&router.Config{
		Logger:         logger,
		GapfillHandler: gapfillHandler,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
