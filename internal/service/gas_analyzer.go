package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfolio-advisor/internal/adapter"
	"github.com/portfolio-advisor/internal/logging"
	"github.com/portfolio-advisor/internal/metrics"
	"github.com/portfolio-advisor/internal/types"
)

// HighGasThreshold is the nano gas above which a transaction counts as high-gas
var HighGasThreshold = decimal.NewFromInt(1_000_000_000)

// Efficiency tiers on average gas per transaction in SUI
const (
	EfficiencyExcellent = 100
	EfficiencyGood      = 85
	EfficiencyAverage   = 60
	EfficiencyPoor      = 30
)

// EfficiencyTier maps average gas per transaction to its score.
// Bounds are strict, so 0.005 scores 85.
func EfficiencyTier(avgGasSUI float64) int {
	switch {
	case avgGasSUI < 0.005:
		return EfficiencyExcellent
	case avgGasSUI < 0.01:
		return EfficiencyGood
	case avgGasSUI < 0.05:
		return EfficiencyAverage
	default:
		return EfficiencyPoor
	}
}

// SummarizeGas computes gas statistics over a window of transactions.
// An empty window yields zero averages and EfficiencyUndefined.
func SummarizeGas(txs []types.TransactionRecord) *types.GasSummary {
	total := decimal.Zero
	maxGas := decimal.Zero
	highGas := make([]string, 0)

	for _, tx := range txs {
		gas := tx.GasUsed
		total = total.Add(gas)
		if gas.GreaterThan(HighGasThreshold) {
			highGas = append(highGas, tx.Digest)
		}
		if gas.GreaterThan(maxGas) {
			maxGas = gas
		}
	}

	summary := &types.GasSummary{
		TotalGas:      total.IntPart(),
		TotalGasSUI:   types.NanoToSUI(total),
		MaxGasSUI:     types.NanoToSUI(maxGas),
		HighGasTxs:    highGas,
		GasEfficiency: types.EfficiencyUndefined,
		TxCount:       len(txs),
	}

	if len(txs) == 0 {
		return summary
	}

	avg := total.Div(decimal.NewFromInt(int64(len(txs))))
	summary.AvgGasSUI = types.NanoToSUI(avg)
	summary.GasEfficiency = EfficiencyTier(summary.AvgGasSUI)
	return summary
}

// GasAnalyzer reads the sender's recent transactions and summarizes gas spend
type GasAnalyzer struct {
	factory adapter.ClientFactory
	window  int
	metrics metrics.MetricsService
}

// NewGasAnalyzer creates a gas analyzer reading window transactions per call
func NewGasAnalyzer(factory adapter.ClientFactory, window int, ms metrics.MetricsService) *GasAnalyzer {
	return &GasAnalyzer{factory: factory, window: window, metrics: ms}
}

// Summarize fetches the window for address on network and summarizes it
func (a *GasAnalyzer) Summarize(ctx context.Context, address string, network types.NetworkID) (*types.GasSummary, error) {
	start := time.Now()
	defer observeAnalysis(a.metrics, "gas", start)

	client, err := a.factory.NewClient(ctx, network)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	txs, err := client.QueryTransactionBlocks(ctx, address, a.window)
	if err != nil {
		return nil, err
	}

	summary := SummarizeGas(txs)

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"address":    address,
		"network":    string(client.Network()),
		"tx_count":   summary.TxCount,
		"efficiency": summary.GasEfficiency,
	}).Debug("gas summary computed")

	return summary, nil
}

// Report renders the gas report for address
func (a *GasAnalyzer) Report(ctx context.Context, address string, network types.NetworkID) (string, error) {
	summary, err := a.Summarize(ctx, address, network)
	if err != nil {
		return "", err
	}
	return BuildGasReport(address, summary), nil
}

func observeAnalysis(ms metrics.MetricsService, analysis string, start time.Time) {
	if ms != nil {
		ms.ObserveAnalysisDuration(analysis, time.Since(start).Seconds())
	}
}
