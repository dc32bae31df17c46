package service

import (
	"fmt"
	"strings"

	"github.com/portfolio-advisor/internal/types"
)

// Intent is the focus a chat message asks for
type Intent int

const (
	IntentGeneral Intent = iota
	IntentGas
	IntentStaking
	IntentTax
	IntentNFT
)

func (i Intent) String() string {
	switch i {
	case IntentGas:
		return "gas"
	case IntentStaking:
		return "staking"
	case IntentTax:
		return "tax"
	case IntentNFT:
		return "nft"
	default:
		return "general"
	}
}

// intentKeywords is checked in order; the first intent with a matching keyword wins
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentGas, []string{"gas", "fee"}},
	{IntentStaking, []string{"stake", "staking"}},
	{IntentTax, []string{"tax"}},
	{IntentNFT, []string{"nft"}},
}

// DetectIntent matches message case-insensitively against the keyword table
func DetectIntent(message string) Intent {
	lower := strings.ToLower(message)
	for _, entry := range intentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.intent
			}
		}
	}
	return IntentGeneral
}

// Reframe presents advice with the figures relevant to intent.
// General intent returns advice unchanged.
func Reframe(intent Intent, advice string, data *types.AdvisoryData) string {
	switch intent {
	case IntentGas:
		return fmt.Sprintf("**Gas Analysis Focus:**\n\n%s\n\n**Detailed Gas Metrics:**\n- Total Gas Spent: %s SUI\n- Average Gas per Transaction: %s SUI\n- Gas Efficiency Rating: %d/100",
			advice, plain(data.Gas.TotalGasSUI), plain(data.Gas.AvgGasSUI), data.Gas.GasEfficiency)
	case IntentStaking:
		return fmt.Sprintf("**Staking Analysis Focus:**\n\n%s\n\n**Staking Details:**\n- Currently Staked: %s SUI\n- Staking APY: ~%s%%\n- Validators: %d",
			advice, plain(data.Staking.TotalStaked), data.Staking.EstimatedAPY, data.Staking.ValidatorCount)
	case IntentTax:
		return fmt.Sprintf("**Tax Analysis Focus:**\n\n%s\n\n**Tax Summary:**\n- Realized Gains: %s SUI\n- Unrealized Gains: %s SUI\n- Tax Events: %d",
			advice, plain(data.Tax.RealizedGains), plain(data.Tax.UnrealizedGains), data.Tax.TaxableEvents)
	case IntentNFT:
		return fmt.Sprintf("**NFT Portfolio Focus:**\n\n%s\n\n**NFT Holdings:**\n- Total NFTs: %d\n- Collections: Multiple (see detailed analysis above)",
			advice, data.Portfolio.Summary.NumNFTs)
	default:
		return advice
	}
}
