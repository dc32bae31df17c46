// Package main provides the API server entry point for the portfolio advisor.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/portfolio-advisor/internal/adapter"
	"github.com/portfolio-advisor/internal/api"
	"github.com/portfolio-advisor/internal/circuitbreaker"
	"github.com/portfolio-advisor/internal/completion"
	"github.com/portfolio-advisor/internal/config"
	"github.com/portfolio-advisor/internal/logging"
	"github.com/portfolio-advisor/internal/metrics"
	"github.com/portfolio-advisor/internal/ratelimit"
	"github.com/portfolio-advisor/internal/service"
	"github.com/portfolio-advisor/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.WithError(err).Fatal("Failed to load configuration")
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	ctx := context.Background()
	ms := metrics.NewMetricsService()

	// Ledger access
	registry := adapter.NewNetworkRegistry(cfg.Networks.Endpoints, cfg.Networks.Default)
	var ledger adapter.ClientFactory = adapter.NewSuiClientFactory(registry, &cfg.Networks, ms)
	var stakingLedger adapter.ClientFactory = adapter.NewSuiClientFactory(
		registry.WithEndpoint(cfg.Analysis.StakingNetwork, cfg.Analysis.StakingRPCURL), &cfg.Networks, ms)

	if cfg.Networks.BreakerFailures > 0 {
		breaker := &circuitbreaker.Config{
			MaxFailures:      cfg.Networks.BreakerFailures,
			Cooldown:         cfg.Networks.BreakerCooldown,
			HalfOpenMaxCalls: 1,
		}
		ledger = adapter.NewGuardedFactory(ledger, breaker)
		stakingLedger = adapter.NewGuardedFactory(stakingLedger, breaker)
	}

	// Optional stores
	var history service.AdvisoryHistory
	var snapshots service.SnapshotRecorder
	var metricsHistory api.MetricsHistoryInterface

	if cfg.Database.Redis.Enabled {
		redis, err := storage.NewRedisCache(ctx, &cfg.Database.Redis)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redis.Close()

		tracker, err := ratelimit.NewCUBudgetTracker(&ratelimit.CUBudgetTrackerConfig{
			Redis:       redis.Client(),
			TotalBudget: cfg.RateLimit.RPCBudgetPerSecond,
		})
		if err != nil {
			logger.WithError(err).Fatal("Failed to create RPC budget tracker")
		}

		costs := ratelimit.NewCUCostRegistry(nil)
		ledger = ratelimit.NewBudgetedFactory(ledger, tracker, costs, ratelimit.PriorityHigh, cfg.RateLimit.RPCMaxWait, ms)
		stakingLedger = ratelimit.NewBudgetedFactory(stakingLedger, tracker, costs, ratelimit.PriorityHigh, cfg.RateLimit.RPCMaxWait, ms)
		logger.WithField("budget_cu_per_second", tracker.GetTotalBudget()).Info("RPC budget enabled")
	}

	if cfg.Database.Postgres.Enabled {
		postgres, err := storage.NewPostgresDB(ctx, &cfg.Database.Postgres)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Postgres")
		}
		defer postgres.Close()
		history = storage.NewAdvisoryRepository(postgres, ms)
		logger.Info("Advisory history enabled")
	}

	if cfg.Database.ClickHouse.Enabled {
		clickhouse, err := storage.NewClickHouseDB(ctx, &cfg.Database.ClickHouse)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to ClickHouse")
		}
		defer clickhouse.Close()
		analytics := storage.NewAnalyticsRepository(clickhouse, ms)
		snapshots = analytics
		metricsHistory = analytics
		logger.Info("Advisory analytics enabled")
	}

	// Services
	gas := service.NewGasAnalyzer(ledger, cfg.Analysis.GasTxWindow, ms)
	staking := service.NewStakingAnalyzer(stakingLedger, cfg.Analysis.StakingNetwork, ms)
	tax := service.NewTaxAnalyzer(ledger, cfg.Analysis.TaxTxWindow, ms)
	portfolio := service.NewPortfolioService(ledger, cfg.Analysis.PortfolioTxWindow, ms)

	if cfg.Completion.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; advisory requests will fail")
	}

	advisory := service.NewAdvisoryService(service.AdvisoryServiceConfig{
		Gas:       gas,
		Staking:   staking,
		Tax:       tax,
		Portfolio: portfolio,
		Completer: completion.NewOpenAIClient(&cfg.Completion, ms),
		History:   history,
		Snapshots: snapshots,
		Metrics:   ms,
	})

	serverConfig := &api.ServerConfig{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		Networks:          registry,
	}

	server := api.NewServer(serverConfig, api.Services{
		Portfolio:      portfolio,
		Gas:            gas,
		Staking:        staking,
		Tax:            tax,
		Advisory:       advisory,
		MetricsHistory: metricsHistory,
	}, ms)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host":            cfg.Server.Host,
		"port":            cfg.Server.Port,
		"default_network": string(registry.Fallback()),
		"staking_network": string(staking.Network()),
	}).Info("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
		return
	}

	logger.Info("Server exited")
}
