// Package main prints the portfolio summary and analyzer reports for one address
// without calling the completion service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/portfolio-advisor/internal/adapter"
	"github.com/portfolio-advisor/internal/circuitbreaker"
	"github.com/portfolio-advisor/internal/config"
	"github.com/portfolio-advisor/internal/logging"
	"github.com/portfolio-advisor/internal/ratelimit"
	"github.com/portfolio-advisor/internal/service"
	"github.com/portfolio-advisor/internal/storage"
)

func main() {
	var (
		address = flag.String("address", "", "Wallet address to analyze")
		network = flag.String("network", "", "Network: mainnet, testnet, devnet, localnet")
		timeout = flag.Duration("timeout", 60*time.Second, "Overall timeout")
	)
	flag.Parse()

	if *address == "" {
		fmt.Fprintln(os.Stderr, "usage: wallet_report -address 0x... [-network testnet]")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.WithError(err).Fatal("Failed to load config")
	}
	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.FormatText)

	registry := adapter.NewNetworkRegistry(cfg.Networks.Endpoints, cfg.Networks.Default)
	var ledger adapter.ClientFactory = adapter.NewSuiClientFactory(registry, &cfg.Networks, nil)
	var stakingLedger adapter.ClientFactory = adapter.NewSuiClientFactory(
		registry.WithEndpoint(cfg.Analysis.StakingNetwork, cfg.Analysis.StakingRPCURL), &cfg.Networks, nil)
	if cfg.Networks.BreakerFailures > 0 {
		breaker := &circuitbreaker.Config{
			MaxFailures: cfg.Networks.BreakerFailures,
			Cooldown:    cfg.Networks.BreakerCooldown,
		}
		ledger = adapter.NewGuardedFactory(ledger, breaker)
		stakingLedger = adapter.NewGuardedFactory(stakingLedger, breaker)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if cfg.Database.Redis.Enabled {
		redis, err := storage.NewRedisCache(ctx, &cfg.Database.Redis)
		if err != nil {
			logging.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redis.Close()

		tracker, err := ratelimit.NewCUBudgetTracker(&ratelimit.CUBudgetTrackerConfig{
			Redis:       redis.Client(),
			TotalBudget: cfg.RateLimit.RPCBudgetPerSecond,
		})
		if err != nil {
			logging.WithError(err).Fatal("Failed to create RPC budget tracker")
		}

		// reports draw from the shared pool so they never starve API traffic
		costs := ratelimit.NewCUCostRegistry(nil)
		ledger = ratelimit.NewBudgetedFactory(ledger, tracker, costs, ratelimit.PriorityLow, cfg.RateLimit.RPCMaxWait, nil)
		stakingLedger = ratelimit.NewBudgetedFactory(stakingLedger, tracker, costs, ratelimit.PriorityLow, cfg.RateLimit.RPCMaxWait, nil)
	}

	advisory := service.NewAdvisoryService(service.AdvisoryServiceConfig{
		Gas:       service.NewGasAnalyzer(ledger, cfg.Analysis.GasTxWindow, nil),
		Staking:   service.NewStakingAnalyzer(stakingLedger, cfg.Analysis.StakingNetwork, nil),
		Tax:       service.NewTaxAnalyzer(ledger, cfg.Analysis.TaxTxWindow, nil),
		Portfolio: service.NewPortfolioService(ledger, cfg.Analysis.PortfolioTxWindow, nil),
	})

	data, err := advisory.Analyze(ctx, *address, registry.Resolve(*network))
	if err != nil {
		logging.WithError(err).WithField("address", *address).Fatal("Failed to build wallet report")
	}

	fmt.Println(service.BuildPortfolioData(*address, data))
}
