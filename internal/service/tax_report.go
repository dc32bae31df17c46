package service

import (
	"math"

	"github.com/portfolio-advisor/internal/types"
)

// Tax estimation assumptions
const (
	TaxableGainShare = 0.7
	TaxBracket       = 0.25
)

func taxEfficiency(net, liability float64) string {
	switch {
	case net > 0 && liability < net*0.15:
		return "Good"
	case net > 0 && liability < net*0.25:
		return "Average"
	default:
		return "Poor"
	}
}

// BuildTaxReport renders the tax analysis block for address
func BuildTaxReport(address string, summary *types.TaxSummary) string {
	net := summary.GainLossSUI
	events := TaxableEvents(summary.TotalOutSUI)

	taxableGain := 0.0
	if net > 0 {
		taxableGain = net * TaxableGainShare
	}
	liability := taxableGain * TaxBracket

	position := "(Loss)"
	if net > 0 {
		position = "(Gain)"
	}

	r := newReport("💸 TAX ANALYSIS FOR WALLET: " + address)

	r.section("📊 TRANSACTION SUMMARY:")
	r.bullet("Total SUI Received: %s SUI", fixed(summary.TotalInSUI, 4))
	r.bullet("Total SUI Sent: %s SUI", fixed(summary.TotalOutSUI, 4))
	r.bullet("Net Position: %s SUI %s", fixed(net, 4), position)
	r.bullet("Estimated Taxable Events: %d", events)

	r.section("💰 TAX IMPLICATIONS:")
	if net > 0 {
		r.bullet("Estimated Taxable Gain: %s SUI", fixed(taxableGain, 2))
		r.bullet("Potential Tax Liability: %s SUI (at %s%% rate)", fixed(liability, 2), fixed(TaxBracket*100, 0))
		r.bullet("Tax Efficiency Score: %s", taxEfficiency(net, liability))
	} else {
		r.bullet("Tax Loss Available: %s SUI", fixed(math.Abs(net), 2))
		r.bullet("Can offset future gains for tax reduction")
	}
	if events > 10 {
		r.bullet("Record Keeping Status: ⚠️ High activity - ensure proper documentation")
	} else {
		r.bullet("Record Keeping Status: ✅ Manageable transaction volume")
	}

	r.section("📈 TAX OPTIMIZATION STRATEGIES:")
	if net > 0 {
		r.bullet("Consider tax-loss harvesting on underperforming assets")
		r.bullet("Hold positions >1 year for long-term capital gains rates")
		r.bullet("Time realizations across tax years to manage brackets")
	} else {
		r.bullet("Use losses to offset gains in other crypto positions")
		r.bullet("Consider realizing losses before year-end")
	}
	r.bullet("Track cost basis meticulously for accurate reporting")
	r.bullet("Separate personal transactions from DeFi/staking rewards")

	r.section("🎯 RECOMMENDATIONS:")
	r.bulletIf(events > 20, "🚨 Use professional crypto tax software for accurate reporting")
	r.bulletIf(net > 100, "Consider quarterly tax payments to avoid penalties")
	r.bulletIf(math.Abs(summary.TotalOutSUI) > 1000, "High transaction volume detected - maintain detailed records")
	r.bullet("Export transaction history regularly for record keeping")
	r.bullet("Consult with a crypto-aware tax professional")
	r.bullet("Monitor regulatory changes in your jurisdiction")
	r.bullet("Consider using specific identification method for cost basis")

	r.section("⚖️ COMPLIANCE CHECKLIST:")
	r.bullet("[ ] Track all buy/sell transactions with dates and amounts")
	r.bullet("[ ] Record staking rewards as income")
	r.bullet("[ ] Document DeFi interactions and yield farming")
	r.bullet("[ ] Maintain wallet-to-wallet transfer records")
	r.bullet("[ ] Calculate fair market value at time of transactions")

	return r.String()
}
