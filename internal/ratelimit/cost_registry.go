package ratelimit

import (
	"sync"

	"github.com/portfolio-advisor/internal/adapter"
)

// Default CU costs for Sui RPC methods. A call is charged once per page.
const (
	DefaultCUCost = 20 // Default cost for unknown methods

	CostGetOwnedObjects        = 30
	CostQueryTransactionBlocks = 60
	CostGetCoins               = 20
)

// CUCostRegistry maps RPC methods to their CU costs.
// It is safe for concurrent use.
type CUCostRegistry struct {
	mu          sync.RWMutex
	costs       map[string]int
	defaultCost int
}

// CUCostRegistryConfig holds configuration for the registry.
type CUCostRegistryConfig struct {
	// DefaultCost is the CU cost for unknown RPC methods.
	// If zero, uses the package default (20 CU).
	DefaultCost int

	// Overrides allows custom CU costs for specific methods.
	Overrides map[string]int
}

// NewCUCostRegistry creates a new registry with default Sui costs.
// If cfg is nil, default configuration is used.
func NewCUCostRegistry(cfg *CUCostRegistryConfig) *CUCostRegistry {
	costs := map[string]int{
		adapter.MethodGetOwnedObjects:        CostGetOwnedObjects,
		adapter.MethodQueryTransactionBlocks: CostQueryTransactionBlocks,
		adapter.MethodGetCoins:               CostGetCoins,
	}

	defaultCost := DefaultCUCost

	if cfg != nil {
		if cfg.DefaultCost > 0 {
			defaultCost = cfg.DefaultCost
		}
		for method, cost := range cfg.Overrides {
			if cost > 0 {
				costs[method] = cost
			}
		}
	}

	return &CUCostRegistry{
		costs:       costs,
		defaultCost: defaultCost,
	}
}

// GetCost returns the CU cost for an RPC method.
func (r *CUCostRegistry) GetCost(method string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cost, ok := r.costs[method]; ok {
		return cost
	}
	return r.defaultCost
}

// SetCost updates the cost for a method. Non-positive values are ignored.
func (r *CUCostRegistry) SetCost(method string, cost int) {
	if cost <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.costs[method] = cost
}

// GetDefaultCost returns the configured default cost for unknown methods.
func (r *CUCostRegistry) GetDefaultCost() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.defaultCost
}
