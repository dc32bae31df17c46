package adapter

import (
	"context"
	"errors"

	"github.com/portfolio-advisor/internal/circuitbreaker"
	apperrors "github.com/portfolio-advisor/internal/errors"
	"github.com/portfolio-advisor/internal/types"
)

// GuardedFactory puts one circuit breaker per network in front of the
// clients of an underlying factory. An open circuit fails the call at once
// with a LedgerQueryFailure instead of waiting on a node that is down.
type GuardedFactory struct {
	next     ClientFactory
	breakers *circuitbreaker.Manager
}

// NewGuardedFactory wraps next. Breakers are created from template per network.
func NewGuardedFactory(next ClientFactory, template *circuitbreaker.Config) *GuardedFactory {
	cfg := circuitbreaker.DefaultConfig("")
	if template != nil {
		*cfg = *template
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = isNodeFailure
	}
	return &GuardedFactory{
		next:     next,
		breakers: circuitbreaker.NewManager(cfg),
	}
}

// isNodeFailure counts ledger errors that point at the node, not at the caller
func isNodeFailure(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrInvalidLimit):
		return false
	}
	return apperrors.IsLedgerQueryFailure(err)
}

// Stats returns the per-network breaker statistics
func (f *GuardedFactory) Stats() map[string]circuitbreaker.Stats {
	return f.breakers.GetAllStats()
}

// NewClient dials through the underlying factory unless the network's circuit is open
func (f *GuardedFactory) NewClient(ctx context.Context, network types.NetworkID) (LedgerClient, error) {
	breaker := f.breakers.GetOrCreate(string(network))
	if !breaker.Allow() {
		return nil, apperrors.NewLedgerQueryError(network, "dial", circuitbreaker.ErrCircuitOpen)
	}

	client, err := f.next.NewClient(ctx, network)
	if err != nil {
		return nil, err
	}
	return &guardedClient{underlying: client, breaker: breaker}, nil
}

type guardedClient struct {
	underlying LedgerClient
	breaker    *circuitbreaker.CircuitBreaker
}

func (c *guardedClient) Network() types.NetworkID {
	return c.underlying.Network()
}

// guard runs call through the breaker and types a rejection as a ledger failure
func (c *guardedClient) guard(method string, call func() error) error {
	err := c.breaker.Execute(call)
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return apperrors.NewLedgerQueryError(c.Network(), method, err)
	}
	return err
}

func (c *guardedClient) GetOwnedObjects(ctx context.Context, owner string) ([]types.LedgerObject, error) {
	var objects []types.LedgerObject
	err := c.guard(MethodGetOwnedObjects, func() (err error) {
		objects, err = c.underlying.GetOwnedObjects(ctx, owner)
		return err
	})
	return objects, err
}

func (c *guardedClient) QueryTransactionBlocks(ctx context.Context, sender string, limit int) ([]types.TransactionRecord, error) {
	var txs []types.TransactionRecord
	err := c.guard(MethodQueryTransactionBlocks, func() (err error) {
		txs, err = c.underlying.QueryTransactionBlocks(ctx, sender, limit)
		return err
	})
	return txs, err
}

func (c *guardedClient) GetCoins(ctx context.Context, owner string, coinType string) ([]types.Coin, error) {
	var coins []types.Coin
	err := c.guard(MethodGetCoins, func() (err error) {
		coins, err = c.underlying.GetCoins(ctx, owner, coinType)
		return err
	})
	return coins, err
}

func (c *guardedClient) Close() {
	c.underlying.Close()
}
