package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	apperrors "github.com/portfolio-advisor/internal/errors"
	"github.com/portfolio-advisor/internal/logging"
	"github.com/portfolio-advisor/internal/metrics"
	"github.com/portfolio-advisor/internal/types"
)

// SuiClient talks to a Sui fullnode over JSON-RPC.
// Failures surface as LedgerQueryFailure and are never retried here.
type SuiClient struct {
	client   *rpc.Client
	network  types.NetworkID
	endpoint string
	pageSize int
	maxPages int
	metrics  metrics.MetricsService
	logger   *logging.Logger
}

// SuiClientConfig configures a single client handle
type SuiClientConfig struct {
	Network    types.NetworkID
	Endpoint   string
	HTTPClient *http.Client
	PageSize   int
	MaxPages   int
	Metrics    metrics.MetricsService
}

// NewSuiClient dials the endpoint. HTTP endpoints do not connect until the first call.
func NewSuiClient(ctx context.Context, cfg SuiClientConfig) (*SuiClient, error) {
	if cfg.Endpoint == "" {
		return nil, apperrors.NewLedgerQueryError(cfg.Network, "dial", ErrUnknownEndpoint)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	client, err := rpc.DialOptions(ctx, cfg.Endpoint, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, apperrors.NewLedgerQueryError(cfg.Network, "dial", fmt.Errorf("failed to dial %s: %w", cfg.Endpoint, err))
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	return &SuiClient{
		client:   client,
		network:  cfg.Network,
		endpoint: cfg.Endpoint,
		pageSize: pageSize,
		maxPages: maxPages,
		metrics:  cfg.Metrics,
		logger: logging.WithFields(map[string]interface{}{
			"component": "sui_client",
			"network":   string(cfg.Network),
		}),
	}, nil
}

func (c *SuiClient) Network() types.NetworkID {
	return c.network
}

func (c *SuiClient) Close() {
	c.client.Close()
}

// GetOwnedObjects lists owned objects page by page up to the page cap
func (c *SuiClient) GetOwnedObjects(ctx context.Context, owner string) ([]types.LedgerObject, error) {
	query := objectResponseQuery{
		Filter:  nil,
		Options: objectDataOptions{ShowType: true, ShowOwner: true, ShowContent: true},
	}

	var objects []types.LedgerObject
	var cursor *string
	for pageNum := 0; pageNum < c.maxPages; pageNum++ {
		var result page[objectResponse]
		if err := c.call(ctx, &result, MethodGetOwnedObjects, owner, query, cursor, c.pageSize); err != nil {
			return nil, err
		}

		for i := range result.Data {
			if obj, ok := result.Data[i].toLedgerObject(); ok {
				objects = append(objects, obj)
			}
		}

		if !result.HasNextPage || result.NextCursor == nil {
			return objects, nil
		}
		cursor = result.NextCursor
	}

	c.logger.WithField("owner", owner).Warnf("owned object listing truncated at %d pages", c.maxPages)
	return objects, nil
}

// QueryTransactionBlocks returns the newest limit transactions sent by sender
func (c *SuiClient) QueryTransactionBlocks(ctx context.Context, sender string, limit int) ([]types.TransactionRecord, error) {
	if limit <= 0 {
		return nil, apperrors.NewLedgerQueryError(c.network, MethodQueryTransactionBlocks, ErrInvalidLimit)
	}

	query := txResponseQuery{
		Filter: txFilter{FromAddress: sender},
		Options: txResponseOptions{
			ShowInput:          true,
			ShowEffects:        true,
			ShowEvents:         true,
			ShowBalanceChanges: true,
		},
	}

	records := make([]types.TransactionRecord, 0, limit)
	var cursor *string
	for len(records) < limit {
		pageLimit := limit - len(records)
		if pageLimit > MaxPageSize {
			pageLimit = MaxPageSize
		}

		var result page[txBlockResponse]
		if err := c.call(ctx, &result, MethodQueryTransactionBlocks, query, cursor, pageLimit, true); err != nil {
			return nil, err
		}

		for i := range result.Data {
			if len(records) == limit {
				break
			}
			records = append(records, result.Data[i].toRecord())
		}

		if !result.HasNextPage || result.NextCursor == nil || len(result.Data) == 0 {
			break
		}
		cursor = result.NextCursor
	}

	return records, nil
}

// GetCoins lists coins of one type, page by page up to the page cap
func (c *SuiClient) GetCoins(ctx context.Context, owner string, coinType string) ([]types.Coin, error) {
	var coins []types.Coin
	var cursor *string
	for pageNum := 0; pageNum < c.maxPages; pageNum++ {
		var result page[coinResponse]
		if err := c.call(ctx, &result, MethodGetCoins, owner, coinType, cursor, c.pageSize); err != nil {
			return nil, err
		}

		for _, coin := range result.Data {
			coins = append(coins, types.Coin{
				CoinType:     coin.CoinType,
				CoinObjectID: coin.CoinObjectID,
				Balance:      coin.Balance,
			})
		}

		if !result.HasNextPage || result.NextCursor == nil {
			return coins, nil
		}
		cursor = result.NextCursor
	}

	c.logger.WithField("owner", owner).Warnf("coin listing truncated at %d pages", c.maxPages)
	return coins, nil
}

// call performs one JSON-RPC request with metrics and error wrapping
func (c *SuiClient) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	startTime := time.Now()
	if c.metrics != nil {
		c.metrics.IncRPCMethodCalls(string(c.network), method)
		defer func() {
			c.metrics.ObserveRPCMethodDuration(string(c.network), method, time.Since(startTime).Seconds())
		}()
	}

	if err := c.client.CallContext(ctx, result, method, args...); err != nil {
		if c.metrics != nil {
			c.metrics.IncRPCMethodErrors(string(c.network), method, classifyRPCError(err))
		}
		c.logger.WithError(err).WithField("method", method).Debug("ledger query failed")
		return apperrors.NewLedgerQueryError(c.network, method, err)
	}
	return nil
}

func classifyRPCError(err error) string {
	var rpcErr rpc.Error
	var httpErr rpc.HTTPError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &rpcErr):
		return "rpc_error"
	case errors.As(err, &httpErr):
		return "http_error"
	default:
		return "transport_error"
	}
}
