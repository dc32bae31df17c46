package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/portfolio-advisor/internal/adapter"
	apperrors "github.com/portfolio-advisor/internal/errors"
	"github.com/portfolio-advisor/internal/logging"
	"github.com/portfolio-advisor/internal/metrics"
	"github.com/portfolio-advisor/internal/types"
)

// Default middleware configuration values.
const (
	DefaultMaxWait = 10 * time.Second // Default max time to wait for budget
)

// ErrMaxWaitExceeded is returned when the maximum wait time for budget is exceeded.
var ErrMaxWaitExceeded = errors.New("maximum wait time exceeded waiting for rate limit budget")

// RateLimitedClient wraps a LedgerClient with CU budgeting.
// Every call is charged its method cost once, before it is forwarded.
// GetOwnedObjects and GetCoins may then fetch up to the client's page cap
// for that single charge; the cost is an admission price, not a per-RPC count.
type RateLimitedClient struct {
	underlying   adapter.LedgerClient
	tracker      *CUBudgetTracker
	costRegistry *CUCostRegistry
	priority     Priority
	maxWait      time.Duration
	metrics      metrics.MetricsService
	logger       *logging.Logger
}

// RateLimitedClientConfig holds configuration for the rate-limited client.
type RateLimitedClientConfig struct {
	// Client is the ledger client to wrap. Required.
	Client adapter.LedgerClient

	// Tracker is the CU budget tracker. Required.
	Tracker *CUBudgetTracker

	// CostRegistry is used to look up RPC method costs. Required.
	CostRegistry *CUCostRegistry

	// Priority is PriorityHigh for API requests and PriorityLow for reports.
	Priority Priority

	// MaxWait is the maximum time to wait for budget. Default: 10s.
	MaxWait time.Duration

	// Metrics is optional.
	Metrics metrics.MetricsService

	// Logger is optional. Defaults to the global logger.
	Logger *logging.Logger
}

// Validate checks if the configuration is valid.
func (c *RateLimitedClientConfig) Validate() error {
	if c.Client == nil {
		return errors.New("underlying client is required")
	}
	if c.Tracker == nil {
		return errors.New("budget tracker is required")
	}
	if c.CostRegistry == nil {
		return errors.New("cost registry is required")
	}
	return nil
}

var _ adapter.LedgerClient = (*RateLimitedClient)(nil)

// NewRateLimitedClient creates a rate-limited ledger client.
func NewRateLimitedClient(cfg *RateLimitedClientConfig) (*RateLimitedClient, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	maxWait := cfg.MaxWait
	if maxWait == 0 {
		maxWait = DefaultMaxWait
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &RateLimitedClient{
		underlying:   cfg.Client,
		tracker:      cfg.Tracker,
		costRegistry: cfg.CostRegistry,
		priority:     cfg.Priority,
		maxWait:      maxWait,
		metrics:      cfg.Metrics,
		logger: logger.WithFields(map[string]interface{}{
			"component": "rpc_budget",
			"network":   string(cfg.Client.Network()),
			"priority":  cfg.Priority.String(),
		}),
	}, nil
}

// waitForBudget waits until budget is available or context/maxWait is exceeded.
func (c *RateLimitedClient) waitForBudget(ctx context.Context, method string, cu int) error {
	network := c.underlying.Network()
	startTime := time.Now()
	deadline := startTime.Add(c.maxWait)
	log := c.logger.WithField("method", method).WithField("cu", cu)

	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveRPCBudgetWait(string(network), time.Since(startTime).Seconds())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug("context cancelled while waiting for budget")
			return ctx.Err()
		default:
		}

		allowed, waitTime := c.tracker.TryConsume(ctx, network, cu, c.priority)
		if allowed {
			return nil
		}

		if time.Now().Add(waitTime).After(deadline) {
			log.WithField("waited", time.Since(startTime).String()).Warn("max wait time exceeded")
			if c.metrics != nil {
				c.metrics.IncRPCBudgetRejected(string(network))
			}
			return ErrMaxWaitExceeded
		}

		log.WithField("wait", waitTime.String()).Debug("waiting for budget")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

func (c *RateLimitedClient) admit(ctx context.Context, method string) error {
	cu := c.costRegistry.GetCost(method)
	if err := c.waitForBudget(ctx, method, cu); err != nil {
		return apperrors.NewLedgerQueryError(c.underlying.Network(), method, fmt.Errorf("rate limit: %w", err))
	}
	return nil
}

// Network returns the network of the wrapped client.
func (c *RateLimitedClient) Network() types.NetworkID {
	return c.underlying.Network()
}

// GetOwnedObjects wraps suix_getOwnedObjects with budgeting.
func (c *RateLimitedClient) GetOwnedObjects(ctx context.Context, owner string) ([]types.LedgerObject, error) {
	if err := c.admit(ctx, adapter.MethodGetOwnedObjects); err != nil {
		return nil, err
	}
	return c.underlying.GetOwnedObjects(ctx, owner)
}

// QueryTransactionBlocks wraps suix_queryTransactionBlocks with budgeting.
func (c *RateLimitedClient) QueryTransactionBlocks(ctx context.Context, sender string, limit int) ([]types.TransactionRecord, error) {
	if err := c.admit(ctx, adapter.MethodQueryTransactionBlocks); err != nil {
		return nil, err
	}
	return c.underlying.QueryTransactionBlocks(ctx, sender, limit)
}

// GetCoins wraps suix_getCoins with budgeting.
func (c *RateLimitedClient) GetCoins(ctx context.Context, owner string, coinType string) ([]types.Coin, error) {
	if err := c.admit(ctx, adapter.MethodGetCoins); err != nil {
		return nil, err
	}
	return c.underlying.GetCoins(ctx, owner, coinType)
}

// Close closes the wrapped client.
func (c *RateLimitedClient) Close() {
	c.underlying.Close()
}

// GetPriority returns the priority level of this client.
func (c *RateLimitedClient) GetPriority() Priority {
	return c.priority
}

// GetMaxWait returns the maximum wait time for budget availability.
func (c *RateLimitedClient) GetMaxWait() time.Duration {
	return c.maxWait
}

// BudgetedFactory wraps every client from an underlying factory with a
// RateLimitedClient sharing one tracker.
type BudgetedFactory struct {
	next         adapter.ClientFactory
	tracker      *CUBudgetTracker
	costRegistry *CUCostRegistry
	priority     Priority
	maxWait      time.Duration
	metrics      metrics.MetricsService
}

// NewBudgetedFactory creates a factory that budgets every client it builds.
func NewBudgetedFactory(next adapter.ClientFactory, tracker *CUBudgetTracker, costs *CUCostRegistry, priority Priority, maxWait time.Duration, ms metrics.MetricsService) *BudgetedFactory {
	if costs == nil {
		costs = NewCUCostRegistry(nil)
	}
	return &BudgetedFactory{
		next:         next,
		tracker:      tracker,
		costRegistry: costs,
		priority:     priority,
		maxWait:      maxWait,
		metrics:      ms,
	}
}

// NewClient dials through the underlying factory and wraps the result.
func (f *BudgetedFactory) NewClient(ctx context.Context, network types.NetworkID) (adapter.LedgerClient, error) {
	client, err := f.next.NewClient(ctx, network)
	if err != nil {
		return nil, err
	}

	limited, err := NewRateLimitedClient(&RateLimitedClientConfig{
		Client:       client,
		Tracker:      f.tracker,
		CostRegistry: f.costRegistry,
		Priority:     f.priority,
		MaxWait:      f.maxWait,
		Metrics:      f.metrics,
		Logger:       logging.FromContext(ctx),
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	return limited, nil
}
