package service

import (
	"strings"

	"github.com/portfolio-advisor/internal/types"
)

// gasRating labels the average gas per transaction
func gasRating(summary *types.GasSummary) string {
	if !summary.EfficiencyDefined() {
		return "N/A"
	}
	switch EfficiencyTier(summary.AvgGasSUI) {
	case EfficiencyExcellent:
		return "Excellent"
	case EfficiencyGood:
		return "Good"
	case EfficiencyAverage:
		return "Average"
	default:
		return "Poor"
	}
}

// BuildGasReport renders the gas analysis block for address
func BuildGasReport(address string, summary *types.GasSummary) string {
	rating := gasRating(summary)

	// projected monthly savings over 30 transactions
	savings := 0.0
	if summary.AvgGasSUI > 0.01 {
		savings = (summary.AvgGasSUI - 0.005) * 30
	}

	peakRatio := 0.0
	if summary.AvgGasSUI > 0 {
		peakRatio = summary.MaxGasSUI / summary.AvgGasSUI
	}

	r := newReport("⛽ GAS ANALYSIS FOR WALLET: " + address)

	r.section("📊 GAS METRICS OVERVIEW:")
	r.bullet("Total Gas Spent: %s SUI", fixed(summary.TotalGasSUI, 4))
	r.bullet("Average Gas per Transaction: %s SUI", fixed(summary.AvgGasSUI, 6))
	r.bullet("Maximum Gas in Single Transaction: %s SUI", fixed(summary.MaxGasSUI, 4))
	r.bullet("High-Fee Transactions (>1 SUI): %d transactions", len(summary.HighGasTxs))
	r.bullet("Gas Efficiency Rating: %s", rating)

	r.section("💡 GAS OPTIMIZATION INSIGHTS:")
	if summary.EfficiencyDefined() {
		r.bullet("Current gas usage pattern indicates %s efficiency", strings.ToLower(rating))
	} else {
		r.bullet("No transactions in the window to rate gas efficiency")
	}
	r.bullet("Potential monthly savings: ~%s SUI", fixed(savings, 2))
	r.bullet("Peak gas transaction was %sx higher than average", fixed(peakRatio, 1))
	if len(summary.HighGasTxs) > 0 {
		r.bullet("⚠️ Alert: %d transactions exceeded normal gas limits", len(summary.HighGasTxs))
	} else {
		r.bullet("✅ No abnormal gas spikes detected")
	}

	r.section("🎯 RECOMMENDATIONS:")
	r.bulletIf(summary.AvgGasSUI > 0.01, "Consider batching multiple operations to reduce per-transaction overhead")
	r.bulletIf(summary.MaxGasSUI > 1, "Review high-gas transactions to identify optimization opportunities")
	r.bulletIf(summary.EfficiencyDefined() && summary.AvgGasSUI < 0.005, "Your gas optimization is excellent - maintain current practices")
	r.bullet("Monitor gas prices during off-peak hours for better rates")
	r.bullet("Use gas estimation tools before executing complex transactions")

	return r.String()
}
