// Package ratelimit provides CU (Compute Unit) budgeting for outbound Sui RPC calls.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/portfolio-advisor/internal/types"
)

// Default budget configuration values.
const (
	DefaultTotalBudget    = 500             // Total CU/s per network
	DefaultReservedBudget = 300             // Reserved for interactive requests
	DefaultWindowSize     = time.Second     // 1 second window
	DefaultKeyTTL         = 2 * time.Second // TTL for Redis keys (window + buffer)
)

// Redis key prefix for CU tracking. Keys are cu:<network>:<pool>:<window>.
const KeyPrefix = "cu:"

// Priority levels for budget allocation.
type Priority int

const (
	// PriorityHigh is for interactive API requests (uses reserved budget).
	PriorityHigh Priority = iota
	// PriorityLow is for offline reports (uses shared budget).
	PriorityLow
)

// String returns a string representation of the priority level.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// consumeScript atomically checks both the total and the pool counters
// before incrementing them.
var consumeScript = redis.NewScript(`
	local totalKey = KEYS[1]
	local poolKey = KEYS[2]
	local cu = tonumber(ARGV[1])
	local totalBudget = tonumber(ARGV[2])
	local poolBudget = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local totalUsed = tonumber(redis.call('GET', totalKey) or '0')
	local poolUsed = tonumber(redis.call('GET', poolKey) or '0')

	if totalUsed + cu > totalBudget then
		return {0, totalUsed, poolUsed}
	end
	if poolUsed + cu > poolBudget then
		return {0, totalUsed, poolUsed}
	end

	redis.call('INCRBY', totalKey, cu)
	redis.call('EXPIRE', totalKey, ttl)
	redis.call('INCRBY', poolKey, cu)
	redis.call('EXPIRE', poolKey, ttl)

	return {1, totalUsed + cu, poolUsed + cu}
`)

// CUBudgetTracker coordinates CU consumption across service instances using Redis.
// Each network has its own budget since each is served by a different node.
type CUBudgetTracker struct {
	redis          redis.Cmdable
	totalBudget    int
	reservedBudget int
	sharedBudget   int
	windowSize     time.Duration
	keyTTL         time.Duration
}

// CUBudgetTrackerConfig holds configuration for the budget tracker.
type CUBudgetTrackerConfig struct {
	// Redis is the Redis client for cross-instance coordination. Required.
	Redis redis.Cmdable

	// TotalBudget is the total CU/s budget per network. Default: 500.
	TotalBudget int

	// ReservedBudget is the CU/s reserved for interactive requests.
	// Default: 60% of TotalBudget.
	ReservedBudget int

	// WindowSize is the window duration. Default: 1s.
	WindowSize time.Duration

	// KeyTTL is the TTL for Redis keys. Default: 2s.
	KeyTTL time.Duration
}

// CUUsageStats contains current consumption for one network.
type CUUsageStats struct {
	Network        types.NetworkID
	TotalUsed      int
	ReservedUsed   int
	SharedUsed     int
	TotalBudget    int
	ReservedBudget int
	SharedBudget   int
	WindowStart    time.Time
}

// Validate checks if the configuration is valid.
func (c *CUBudgetTrackerConfig) Validate() error {
	if c.Redis == nil {
		return errors.New("redis client is required")
	}
	if c.TotalBudget < 0 {
		return errors.New("total budget cannot be negative")
	}
	if c.ReservedBudget < 0 {
		return errors.New("reserved budget cannot be negative")
	}

	totalBudget, reservedBudget := c.budgets()
	if reservedBudget > totalBudget {
		return fmt.Errorf("reserved budget (%d) cannot exceed total budget (%d)", reservedBudget, totalBudget)
	}

	return nil
}

func (c *CUBudgetTrackerConfig) budgets() (total, reserved int) {
	total = c.TotalBudget
	if total == 0 {
		total = DefaultTotalBudget
	}
	reserved = c.ReservedBudget
	if reserved == 0 {
		if c.TotalBudget == 0 {
			reserved = DefaultReservedBudget
		} else {
			reserved = total * 6 / 10
		}
	}
	return total, reserved
}

// NewCUBudgetTracker creates a new tracker with the given configuration.
func NewCUBudgetTracker(cfg *CUBudgetTrackerConfig) (*CUBudgetTracker, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	totalBudget, reservedBudget := cfg.budgets()

	windowSize := cfg.WindowSize
	if windowSize == 0 {
		windowSize = DefaultWindowSize
	}

	keyTTL := cfg.KeyTTL
	if keyTTL == 0 {
		keyTTL = DefaultKeyTTL
	}

	return &CUBudgetTracker{
		redis:          cfg.Redis,
		totalBudget:    totalBudget,
		reservedBudget: reservedBudget,
		sharedBudget:   totalBudget - reservedBudget,
		windowSize:     windowSize,
		keyTTL:         keyTTL,
	}, nil
}

// getWindowTimestamp returns the start of the current window in milliseconds.
func (t *CUBudgetTracker) getWindowTimestamp() int64 {
	return time.Now().Truncate(t.windowSize).UnixMilli()
}

// getKeys returns the Redis keys for a network in the given window.
func (t *CUBudgetTracker) getKeys(network types.NetworkID, windowTS int64) (totalKey, reservedKey, sharedKey string) {
	prefix := KeyPrefix + string(network) + ":"
	tsStr := strconv.FormatInt(windowTS, 10)
	totalKey = prefix + "total:" + tsStr
	reservedKey = prefix + "reserved:" + tsStr
	sharedKey = prefix + "shared:" + tsStr
	return
}

// TryConsume attempts to consume CU from the pool matching priority.
// It returns whether the consumption was allowed and, if not, how long to
// wait before the next window opens. Redis errors deny the request.
func (t *CUBudgetTracker) TryConsume(ctx context.Context, network types.NetworkID, cu int, priority Priority) (bool, time.Duration) {
	if cu <= 0 {
		return true, 0
	}

	windowTS := t.getWindowTimestamp()
	totalKey, reservedKey, sharedKey := t.getKeys(network, windowTS)

	poolKey, poolBudget := sharedKey, t.sharedBudget
	if priority == PriorityHigh {
		poolKey, poolBudget = reservedKey, t.reservedBudget
	}

	ttlSeconds := int(t.keyTTL.Seconds())
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}

	result, err := consumeScript.Run(ctx, t.redis, []string{totalKey, poolKey},
		cu, t.totalBudget, poolBudget, ttlSeconds).Int64Slice()
	if err != nil || len(result) == 0 || result[0] != 1 {
		return false, t.calculateWaitTime(windowTS)
	}

	return true, 0
}

// calculateWaitTime returns the time until the next window starts.
func (t *CUBudgetTracker) calculateWaitTime(windowTS int64) time.Duration {
	windowEnd := time.UnixMilli(windowTS).Add(t.windowSize)
	waitTime := time.Until(windowEnd)
	if waitTime < 0 {
		waitTime = 0
	}
	return waitTime + time.Millisecond
}

// GetUsage returns current CU usage for a network.
func (t *CUBudgetTracker) GetUsage(ctx context.Context, network types.NetworkID) (*CUUsageStats, error) {
	windowTS := t.getWindowTimestamp()
	totalKey, reservedKey, sharedKey := t.getKeys(network, windowTS)

	pipe := t.redis.Pipeline()
	totalCmd := pipe.Get(ctx, totalKey)
	reservedCmd := pipe.Get(ctx, reservedKey)
	sharedCmd := pipe.Get(ctx, sharedKey)

	// redis.Nil only means the window has no usage yet
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read CU usage: %w", err)
	}

	return &CUUsageStats{
		Network:        network,
		TotalUsed:      parseIntOrZero(totalCmd),
		ReservedUsed:   parseIntOrZero(reservedCmd),
		SharedUsed:     parseIntOrZero(sharedCmd),
		TotalBudget:    t.totalBudget,
		ReservedBudget: t.reservedBudget,
		SharedBudget:   t.sharedBudget,
		WindowStart:    time.UnixMilli(windowTS),
	}, nil
}

func parseIntOrZero(cmd *redis.StringCmd) int {
	val, err := cmd.Int()
	if err != nil {
		return 0
	}
	return val
}

// GetTotalBudget returns the configured total CU/s budget.
func (t *CUBudgetTracker) GetTotalBudget() int {
	return t.totalBudget
}

// GetReservedBudget returns the configured reserved CU/s budget.
func (t *CUBudgetTracker) GetReservedBudget() int {
	return t.reservedBudget
}

// GetSharedBudget returns the configured shared CU/s budget.
func (t *CUBudgetTracker) GetSharedBudget() int {
	return t.sharedBudget
}

// AvailableBudget returns the remaining budget for a priority on a network.
func (t *CUBudgetTracker) AvailableBudget(ctx context.Context, network types.NetworkID, priority Priority) (int, error) {
	stats, err := t.GetUsage(ctx, network)
	if err != nil {
		return 0, err
	}

	available := t.sharedBudget - stats.SharedUsed
	if priority == PriorityHigh {
		available = t.reservedBudget - stats.ReservedUsed
	}
	if remainingTotal := t.totalBudget - stats.TotalUsed; remainingTotal < available {
		available = remainingTotal
	}
	if available < 0 {
		available = 0
	}
	return available, nil
}
