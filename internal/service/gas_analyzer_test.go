package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/portfolio-advisor/internal/errors"
	"github.com/portfolio-advisor/internal/types"
)

func TestEfficiencyTier(t *testing.T) {
	tests := []struct {
		avg  float64
		want int
	}{
		{0, 100},
		{0.004, 100},
		{0.005, 85},
		{0.008, 85},
		{0.01, 60},
		{0.02, 60},
		{0.05, 30},
		{0.2, 30},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.avg), func(t *testing.T) {
			assert.Equal(t, tt.want, EfficiencyTier(tt.avg))
		})
	}
}

func TestEfficiencyTier_StepProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)
	tiers := map[int]bool{100: true, 85: true, 60: true, 30: true}

	properties.Property("tier is one of four values and never rises with average", prop.ForAll(
		func(a, b float64) bool {
			lo, hi := a, b
			if lo > hi {
				lo, hi = hi, lo
			}
			tl, th := EfficiencyTier(lo), EfficiencyTier(hi)
			return tiers[tl] && tiers[th] && tl >= th
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

func TestSummarizeGas_EmptyWindow(t *testing.T) {
	summary := SummarizeGas(nil)

	assert.Equal(t, 0, summary.TxCount)
	assert.False(t, summary.EfficiencyDefined())
	assert.Equal(t, types.EfficiencyUndefined, summary.GasEfficiency)
	assert.Zero(t, summary.AvgGasSUI)
	assert.Empty(t, summary.HighGasTxs)

	report := BuildGasReport(testAddress, summary)
	assert.NotContains(t, report, "NaN")
	assert.NotContains(t, report, "Inf")
	assert.Contains(t, report, "Gas Efficiency Rating: N/A")
	assert.Contains(t, report, "No transactions in the window to rate gas efficiency")
	assert.NotContains(t, report, "n/a efficiency")
	assert.Contains(t, report, "Peak gas transaction was 0.0x higher than average")
	assert.NotContains(t, report, "maintain current practices")
}

func TestSummarizeGas_TenHighGasTransactions(t *testing.T) {
	txs := make([]types.TransactionRecord, 10)
	for i := range txs {
		txs[i] = gasTx(fmt.Sprintf("tx%d", i), 2_000_000_000)
	}

	summary := SummarizeGas(txs)

	assert.Equal(t, 30, summary.GasEfficiency)
	assert.Len(t, summary.HighGasTxs, 10)
	assert.Equal(t, 2.0, summary.MaxGasSUI)
	assert.Equal(t, 20.0, summary.TotalGasSUI)
	assert.Equal(t, int64(20_000_000_000), summary.TotalGas)
	assert.Equal(t, 2.0, summary.AvgGasSUI)
}

func TestSummarizeGas_ThresholdIsStrict(t *testing.T) {
	summary := SummarizeGas([]types.TransactionRecord{
		gasTx("at", 1_000_000_000),
		gasTx("above", 1_000_000_001),
		gasTx("missing", 0),
	})

	assert.Equal(t, []string{"above"}, summary.HighGasTxs)
	assert.Equal(t, 3, summary.TxCount)
}

func TestBuildGasReport_Sections(t *testing.T) {
	summary := SummarizeGas([]types.TransactionRecord{
		gasTx("a", 3_000_000),
		gasTx("b", 1_000_000),
	})

	report := BuildGasReport(testAddress, summary)

	assert.True(t, strings.HasPrefix(report, "⛽ GAS ANALYSIS FOR WALLET: "+testAddress+"\n"))
	assert.Contains(t, report, "📊 GAS METRICS OVERVIEW:")
	assert.Contains(t, report, "• Total Gas Spent: 0.0040 SUI")
	assert.Contains(t, report, "• Average Gas per Transaction: 0.002000 SUI")
	assert.Contains(t, report, "• Gas Efficiency Rating: Excellent")
	assert.Contains(t, report, "💡 GAS OPTIMIZATION INSIGHTS:")
	assert.Contains(t, report, "• Current gas usage pattern indicates excellent efficiency")
	assert.Contains(t, report, "• Potential monthly savings: ~0.00 SUI")
	assert.Contains(t, report, "• Peak gas transaction was 1.5x higher than average")
	assert.Contains(t, report, "• ✅ No abnormal gas spikes detected")
	assert.Contains(t, report, "🎯 RECOMMENDATIONS:")
	assert.Contains(t, report, "• Your gas optimization is excellent - maintain current practices")
	assert.NotContains(t, report, "batching")
	assert.NotContains(t, report, "Review high-gas")
	assert.True(t, strings.HasSuffix(report, "• Use gas estimation tools before executing complex transactions\n"))
}

func TestBuildGasReport_IndependentGates(t *testing.T) {
	summary := SummarizeGas([]types.TransactionRecord{
		gasTx("big", 2_000_000_000),
		gasTx("small", 0),
	})

	report := BuildGasReport(testAddress, summary)

	assert.Contains(t, report, "• Consider batching multiple operations to reduce per-transaction overhead")
	assert.Contains(t, report, "• Review high-gas transactions to identify optimization opportunities")
	assert.Contains(t, report, "• ⚠️ Alert: 1 transactions exceeded normal gas limits")
	assert.Contains(t, report, "• Potential monthly savings: ~29.85 SUI")
	assert.NotContains(t, report, "\n\n\n")
}

func TestGasAnalyzer_Summarize(t *testing.T) {
	ledger := &fakeLedger{
		network: types.NetworkTestnet,
		txs:     []types.TransactionRecord{gasTx("a", 4_000_000), gasTx("b", 6_000_000)},
	}
	factory := &fakeFactory{ledger: ledger}
	analyzer := NewGasAnalyzer(factory, 30, nil)

	summary, err := analyzer.Summarize(context.Background(), testAddress, types.NetworkTestnet)
	require.NoError(t, err)

	assert.Equal(t, 85, summary.GasEfficiency)
	assert.Equal(t, []int{30}, ledger.txLimits)
	assert.Equal(t, []types.NetworkID{types.NetworkTestnet}, factory.networks)
	assert.Equal(t, 1, ledger.closeCount)

	report, err := analyzer.Report(context.Background(), testAddress, types.NetworkTestnet)
	require.NoError(t, err)
	assert.Contains(t, report, "Gas Efficiency Rating: Good")
}

func TestGasAnalyzer_PropagatesLedgerFailure(t *testing.T) {
	ledger := &fakeLedger{network: types.NetworkMainnet, txErr: errNodeDown}
	analyzer := NewGasAnalyzer(&fakeFactory{ledger: ledger}, 30, nil)

	_, err := analyzer.Summarize(context.Background(), testAddress, types.NetworkMainnet)
	require.Error(t, err)
	assert.True(t, apperrors.IsLedgerQueryFailure(err))
}
