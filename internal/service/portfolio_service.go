package service

import (
	"context"
	"time"

	"github.com/portfolio-advisor/internal/adapter"
	"github.com/portfolio-advisor/internal/logging"
	"github.com/portfolio-advisor/internal/metrics"
	"github.com/portfolio-advisor/internal/types"
)

// PortfolioService assembles the consolidated snapshot of an address
type PortfolioService struct {
	factory adapter.ClientFactory
	window  int
	metrics metrics.MetricsService
}

// NewPortfolioService creates a portfolio service reading window transactions per call
func NewPortfolioService(factory adapter.ClientFactory, window int, ms metrics.MetricsService) *PortfolioService {
	return &PortfolioService{factory: factory, window: window, metrics: ms}
}

// GetPortfolio fetches owned objects and recent transactions of address and
// assembles them into a snapshot. Fetch failures propagate unchanged.
func (s *PortfolioService) GetPortfolio(ctx context.Context, address string, network types.NetworkID) (*types.PortfolioSnapshot, error) {
	start := time.Now()
	defer observeAnalysis(s.metrics, "portfolio", start)

	client, err := s.factory.NewClient(ctx, network)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	objects, err := client.GetOwnedObjects(ctx, address)
	if err != nil {
		return nil, err
	}

	txs, err := client.QueryTransactionBlocks(ctx, address, s.window)
	if err != nil {
		return nil, err
	}

	snapshot := AssemblePortfolio(address, client.Network(), objects, txs)

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"address":    address,
		"network":    string(snapshot.Network),
		"num_tokens": snapshot.Summary.NumTokens,
		"num_nfts":   snapshot.Summary.NumNFTs,
		"num_tx":     snapshot.Summary.NumTx,
	}).Debug("portfolio assembled")

	return snapshot, nil
}

// AssemblePortfolio classifies objects and aggregates flow over txs
func AssemblePortfolio(address string, network types.NetworkID, objects []types.LedgerObject, txs []types.TransactionRecord) *types.PortfolioSnapshot {
	assets := Classify(objects)
	flow := AggregateFlow(address, txs, "")

	views := make([]types.PortfolioTx, 0, len(txs))
	for _, tx := range txs {
		views = append(views, types.PortfolioTx{
			Digest:         tx.Digest,
			Timestamp:      tx.TimestampMs,
			Kind:           tx.Kind,
			Events:         tx.Events,
			BalanceChanges: tx.BalanceChanges,
		})
	}

	return &types.PortfolioSnapshot{
		Address: address,
		Network: network,
		Summary: types.PortfolioSummary{
			NumTokens:       len(assets.Tokens),
			NumNFTs:         len(assets.NFTs),
			NumOtherObjects: len(assets.Others),
			NumTx:           len(txs),
			TotalInSUI:      flow.InSUI(),
			TotalOutSUI:     flow.OutSUI(),
		},
		Tokens: assets.Tokens,
		NFTs:   assets.NFTs,
		Others: assets.Others,
		Txs:    views,
	}
}
