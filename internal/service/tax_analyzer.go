package service

import (
	"context"
	"math"
	"time"

	"github.com/portfolio-advisor/internal/adapter"
	"github.com/portfolio-advisor/internal/logging"
	"github.com/portfolio-advisor/internal/metrics"
	"github.com/portfolio-advisor/internal/types"
)

// SummarizeTax computes the native coin flow of address and its gain/loss proxies.
// Unrealized gains are always zero since positions are not valued.
func SummarizeTax(address string, txs []types.TransactionRecord) *types.TaxSummary {
	flow := AggregateFlow(address, txs, types.NativeCoinType)

	gainLoss := types.NanoToSUI(flow.In.Sub(flow.Out))
	outSUI := flow.OutSUI()

	return &types.TaxSummary{
		TotalInSUI:      flow.InSUI(),
		TotalOutSUI:     outSUI,
		GainLossSUI:     gainLoss,
		RealizedGains:   math.Max(gainLoss, 0),
		UnrealizedGains: 0,
		TaxableEvents:   TaxableEvents(outSUI),
	}
}

// TaxableEvents is the event proxy derived from outflow: one per 10 SUI sent
func TaxableEvents(totalOutSUI float64) int {
	if math.Abs(totalOutSUI) == 0 {
		return 0
	}
	return int(math.Floor(totalOutSUI / 10))
}

// TaxAnalyzer reads the sender's recent transactions and derives tax proxies
type TaxAnalyzer struct {
	factory adapter.ClientFactory
	window  int
	metrics metrics.MetricsService
}

// NewTaxAnalyzer creates a tax analyzer reading window transactions per call
func NewTaxAnalyzer(factory adapter.ClientFactory, window int, ms metrics.MetricsService) *TaxAnalyzer {
	return &TaxAnalyzer{factory: factory, window: window, metrics: ms}
}

// Summarize fetches the window for address on network and summarizes it
func (a *TaxAnalyzer) Summarize(ctx context.Context, address string, network types.NetworkID) (*types.TaxSummary, error) {
	start := time.Now()
	defer observeAnalysis(a.metrics, "tax", start)

	client, err := a.factory.NewClient(ctx, network)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	txs, err := client.QueryTransactionBlocks(ctx, address, a.window)
	if err != nil {
		return nil, err
	}

	summary := SummarizeTax(address, txs)

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"address":        address,
		"network":        string(client.Network()),
		"gain_loss_sui":  summary.GainLossSUI,
		"taxable_events": summary.TaxableEvents,
	}).Debug("tax summary computed")

	return summary, nil
}

// Report renders the tax report for address
func (a *TaxAnalyzer) Report(ctx context.Context, address string, network types.NetworkID) (string, error) {
	summary, err := a.Summarize(ctx, address, network)
	if err != nil {
		return "", err
	}
	return BuildTaxReport(address, summary), nil
}
