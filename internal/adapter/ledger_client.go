package adapter

import (
	"context"
	"fmt"

	"github.com/portfolio-advisor/internal/types"
)

// LedgerClient is a per-request handle on one Sui network
type LedgerClient interface {
	// Network returns the network this handle is bound to
	Network() types.NetworkID

	// GetOwnedObjects lists every object owned by address with type and content.
	// Pagination stops at the configured page cap.
	GetOwnedObjects(ctx context.Context, owner string) ([]types.LedgerObject, error)

	// QueryTransactionBlocks returns the most recent limit transactions sent by
	// sender, newest first, with effects, events and balance changes.
	QueryTransactionBlocks(ctx context.Context, sender string, limit int) ([]types.TransactionRecord, error)

	// GetCoins lists the coin objects of coinType owned by owner
	GetCoins(ctx context.Context, owner string, coinType string) ([]types.Coin, error)

	// Close releases the handle
	Close()
}

// ClientFactory builds a fresh LedgerClient for a network.
// Each request constructs its own handle; nothing is shared between requests.
type ClientFactory interface {
	NewClient(ctx context.Context, network types.NetworkID) (LedgerClient, error)
}

// Sui JSON-RPC method names
const (
	MethodGetOwnedObjects        = "suix_getOwnedObjects"
	MethodQueryTransactionBlocks = "suix_queryTransactionBlocks"
	MethodGetCoins               = "suix_getCoins"
)

// MaxPageSize is the node's upper bound on a single page
const MaxPageSize = 50

var (
	// ErrInvalidLimit indicates a non-positive transaction window
	ErrInvalidLimit = fmt.Errorf("transaction limit must be positive")

	// ErrUnknownEndpoint indicates no endpoint is configured for a network
	ErrUnknownEndpoint = fmt.Errorf("no endpoint configured for network")
)
