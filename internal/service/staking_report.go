package service

import (
	"math"

	"github.com/portfolio-advisor/internal/types"
)

// OptimalStakingRatio is the target share of holdings staked, in percent
const OptimalStakingRatio = 70.0

// StakingRatio returns staked / (staked + liquid) as a percentage, 0 when empty
func StakingRatio(summary *types.StakingSummary) float64 {
	total := summary.SuiBalance + summary.StakedSui
	if total <= 0 {
		return 0
	}
	return summary.StakedSui / total * 100
}

func stakingHealth(ratio float64) string {
	switch {
	case ratio >= 70:
		return "Excellent"
	case ratio >= 50:
		return "Good"
	case ratio >= 30:
		return "Fair"
	default:
		return "Poor"
	}
}

// BuildStakingReport renders the staking analysis block for address
func BuildStakingReport(address string, summary *types.StakingSummary) string {
	total := summary.SuiBalance + summary.StakedSui
	ratio := StakingRatio(summary)

	potentialMonthly := summary.SuiBalance * (StakingAPY / 100) / 12
	currentMonthly := summary.StakedSui * (StakingAPY / 100) / 12

	r := newReport("🏦 STAKING ANALYSIS FOR WALLET: " + address)

	r.section("📊 STAKING METRICS OVERVIEW:")
	r.bullet("Total SUI Holdings: %s SUI", fixed(total, 4))
	r.bullet("Currently Staked: %s SUI (%s%%)", fixed(summary.StakedSui, 4), fixed(ratio, 1))
	r.bullet("Liquid SUI Balance: %s SUI", fixed(summary.SuiBalance, 4))
	r.bullet("Staking Health Score: %s", stakingHealth(ratio))
	r.bullet("Current APY: %s%%", plain(StakingAPY))

	r.section("💰 EARNINGS ANALYSIS:")
	r.bullet("Current Monthly Earnings: %s SUI", fixed(currentMonthly, 2))
	r.bullet("Potential Additional Earnings: %s SUI/month", fixed(potentialMonthly, 2))
	r.bullet("Annual Passive Income: %s SUI", fixed(currentMonthly*12, 2))
	r.bulletIf(potentialMonthly > 0, "⚠️ Opportunity Cost: Missing %s SUI/year by not staking", fixed(potentialMonthly*12, 2))

	r.section("📈 STAKING OPTIMIZATION:")
	r.bullet("Current Staking Ratio: %s%% (Recommended: %s%%)", fixed(ratio, 1), plain(OptimalStakingRatio))
	if ratio < OptimalStakingRatio {
		r.bullet("To reach optimal ratio, stake additional %s SUI", fixed((OptimalStakingRatio-ratio)/100*total, 2))
	} else {
		r.bullet("✅ You have achieved optimal staking ratio")
	}
	r.bullet("Risk-Adjusted Strategy: Keep %s%% liquid for opportunities", plain(100-OptimalStakingRatio))

	r.section("🎯 RECOMMENDATIONS:")
	r.bulletIf(summary.SuiBalance > 10, "🚀 Stake %s SUI immediately to start earning passive income",
		fixed(math.Min(summary.SuiBalance*0.7, summary.SuiBalance-5), 2))
	r.bulletIf(ratio > 90, "Consider keeping 10-20%% liquid for DeFi opportunities and gas fees")
	r.bulletIf(ratio < 30, "⚠️ Priority Action: Your staking ratio is suboptimal - stake now to maximize returns")
	r.bullet("Diversify validators to minimize risk")
	r.bullet("Review staking rewards monthly and compound for better returns")
	r.bullet("Monitor validator performance and APY changes")

	return r.String()
}
