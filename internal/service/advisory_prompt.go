package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/portfolio-advisor/internal/types"
)

// analystPromptTemplate frames the portfolio data for the completion service.
// The single %s verb receives the portfolio data block.
const analystPromptTemplate = `You are an expert Web3 portfolio analyst specializing in Sui blockchain. Provide a comprehensive analysis with actionable insights.

  PORTFOLIO DATA:
  %s

  Analyze this portfolio and provide a detailed report covering:

  📊 PORTFOLIO OVERVIEW
  • Current portfolio composition and value distribution
  • Asset allocation analysis (liquid vs staked vs locked)
  • Transaction patterns and user behavior insights
  • Risk profile assessment based on trading activity

  🔍 MARKET RESEARCH & OPPORTUNITIES
  • Current market conditions for SUI ecosystem
  • Emerging opportunities in DeFi, NFTs, or new protocols
  • Comparison with optimal portfolio strategies
  • Potential growth areas based on user's activity pattern

  💰 PROFIT OPTIMIZATION STRATEGIES
  • Yield optimization recommendations (staking, liquidity provision, farming)
  • Gas optimization techniques to reduce costs
  • Tax-efficient strategies for realized/unrealized gains
  • Risk-adjusted return improvement suggestions

  📈 STRATEGIC RECOMMENDATIONS
  • Short-term actions (1-7 days): Immediate optimizations
  • Medium-term strategy (1-3 months): Portfolio rebalancing
  • Long-term vision (3-12 months): Growth positioning
  • Specific protocols or platforms to explore

  🎯 BEHAVIORAL ANALYSIS & INSIGHTS
  • Trading pattern analysis (frequency, volume, timing)
  • Risk appetite assessment based on historical data
  • Behavioral biases identified and mitigation strategies
  • Personalized tips based on user's investment style

  ⚡ ACTION ITEMS (Prioritized)
  1. Most urgent optimization (highest impact, lowest effort)
  2. Quick wins for immediate improvement
  3. Strategic moves for portfolio growth
  4. Risk management adjustments
  5. Learning resources for identified knowledge gaps

  Format with clear sections, use data to support recommendations, and provide specific numbers/percentages where applicable.`

// BuildPortfolioSummary renders the hand-built portfolio block of the prompt
func BuildPortfolioSummary(snapshot *types.PortfolioSnapshot) string {
	s := snapshot.Summary

	var sb strings.Builder
	sb.WriteString("\nPortfolio Summary:\n")
	fmt.Fprintf(&sb, "- Total Assets: %d tokens, %d NFTs\n", s.NumTokens, s.NumNFTs)
	fmt.Fprintf(&sb, "- Transaction Activity: %d recent transactions\n", s.NumTx)
	fmt.Fprintf(&sb, "- Capital Flow: %s SUI received, %s SUI sent\n", fixed(s.TotalInSUI, 2), fixed(s.TotalOutSUI, 2))
	fmt.Fprintf(&sb, "- Net Position: %s SUI\n", fixed(s.TotalInSUI-s.TotalOutSUI, 2))
	sb.WriteString("\nToken Holdings:\n")

	holdings := make([]string, 0, len(snapshot.Tokens))
	for _, token := range snapshot.Tokens {
		holdings = append(holdings, fmt.Sprintf("- %s: %s", token.CoinType, tokenHolding(token)))
	}
	sb.WriteString(strings.Join(holdings, "\n"))

	fmt.Fprintf(&sb, "\n\nNFT Collection: %d items\n", s.NumNFTs)
	return sb.String()
}

func tokenHolding(token types.TokenAsset) string {
	if token.Balance == nil {
		return "balance unavailable"
	}
	balance, err := decimal.NewFromString(*token.Balance)
	if err != nil {
		return "balance unavailable"
	}
	return fixed(types.NanoToSUI(balance), 2) + " tokens"
}

// BuildPortfolioData joins the portfolio block and the three analyzer reports
func BuildPortfolioData(address string, data *types.AdvisoryData) string {
	return strings.Join([]string{
		BuildPortfolioSummary(data.Portfolio),
		BuildGasReport(address, data.Gas),
		BuildStakingReport(address, data.Staking),
		BuildTaxReport(address, data.Tax),
	}, "\n\n")
}

// BuildAnalystPrompt places the portfolio data into the analyst prompt
func BuildAnalystPrompt(address string, data *types.AdvisoryData) string {
	return fmt.Sprintf(analystPromptTemplate, BuildPortfolioData(address, data))
}
