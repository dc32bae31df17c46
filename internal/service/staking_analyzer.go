package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfolio-advisor/internal/adapter"
	"github.com/portfolio-advisor/internal/logging"
	"github.com/portfolio-advisor/internal/metrics"
	"github.com/portfolio-advisor/internal/types"
)

// StakingAPY is the fixed annual yield used for projections, in percent
const StakingAPY = 6.3

// EstimatedAPY is StakingAPY as reported in summaries
const EstimatedAPY = "6.3"

// stakingTypeMarker identifies staked position objects
const stakingTypeMarker = "::staking"

// SummarizeStaking computes the liquid and staked position from the native
// coins and the owned objects of an address.
func SummarizeStaking(coins []types.Coin, objects []types.LedgerObject) *types.StakingSummary {
	liquid := decimal.Zero
	for _, coin := range coins {
		if coin.CoinType == types.NativeCoinType {
			liquid = liquid.Add(coin.Balance)
		}
	}

	staked := decimal.Zero
	for _, obj := range objects {
		if !strings.Contains(obj.Type, stakingTypeMarker) {
			continue
		}
		if principal, ok := types.DecimalFromField(obj.Fields["principal"]); ok {
			staked = staked.Add(principal)
		}
	}

	validators := 0
	if staked.IsPositive() {
		validators = 1
	}

	stakedSUI := types.NanoToSUI(staked)
	return &types.StakingSummary{
		SuiBalance:     types.NanoToSUI(liquid),
		StakedSui:      stakedSUI,
		TotalStaked:    stakedSUI,
		EstimatedAPY:   EstimatedAPY,
		ValidatorCount: validators,
	}
}

// StakingAnalyzer reads staking positions. It is bound to one network and
// ignores the network requested by the caller.
type StakingAnalyzer struct {
	factory adapter.ClientFactory
	network types.NetworkID
	metrics metrics.MetricsService
}

// NewStakingAnalyzer creates a staking analyzer bound to network
func NewStakingAnalyzer(factory adapter.ClientFactory, network types.NetworkID, ms metrics.MetricsService) *StakingAnalyzer {
	if !network.IsValid() {
		network = types.DefaultNetwork
	}
	return &StakingAnalyzer{factory: factory, network: network, metrics: ms}
}

// Network returns the network staking reads are bound to
func (a *StakingAnalyzer) Network() types.NetworkID {
	return a.network
}

// Summarize reads the native coins and owned objects of address.
// requested is only logged when it differs from the bound network.
func (a *StakingAnalyzer) Summarize(ctx context.Context, address string, requested types.NetworkID) (*types.StakingSummary, error) {
	start := time.Now()
	defer observeAnalysis(a.metrics, "staking", start)

	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"address": address,
		"network": string(a.network),
	})
	if requested != "" && requested != a.network {
		logger.WithField("requested_network", string(requested)).Debug("staking reads use the bound network")
	}

	client, err := a.factory.NewClient(ctx, a.network)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	coins, err := client.GetCoins(ctx, address, types.NativeCoinType)
	if err != nil {
		return nil, err
	}

	objects, err := client.GetOwnedObjects(ctx, address)
	if err != nil {
		return nil, err
	}

	summary := SummarizeStaking(coins, objects)
	summary.Network = client.Network()

	logger.WithFields(map[string]interface{}{
		"staked_sui": summary.StakedSui,
		"liquid_sui": summary.SuiBalance,
	}).Debug("staking summary computed")

	return summary, nil
}

// Report renders the staking report for address
func (a *StakingAnalyzer) Report(ctx context.Context, address string, requested types.NetworkID) (string, error) {
	summary, err := a.Summarize(ctx, address, requested)
	if err != nil {
		return "", err
	}
	return BuildStakingReport(address, summary), nil
}
