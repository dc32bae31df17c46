package adapter

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/portfolio-advisor/internal/config"
	apperrors "github.com/portfolio-advisor/internal/errors"
	"github.com/portfolio-advisor/internal/metrics"
	"github.com/portfolio-advisor/internal/types"
)

// SuiClientFactory dials a new SuiClient per request.
// The underlying http.Client is shared so TCP connections are pooled.
type SuiClientFactory struct {
	registry   *NetworkRegistry
	httpClient *http.Client
	pageSize   int
	maxPages   int
	metrics    metrics.MetricsService
}

// NewSuiClientFactory creates a factory from the networks configuration
func NewSuiClientFactory(registry *NetworkRegistry, cfg *config.NetworksConfig, ms metrics.MetricsService) *SuiClientFactory {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &SuiClientFactory{
		registry:   registry,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
		metrics:    ms,
	}
}

// Registry returns the network registry backing this factory
func (f *SuiClientFactory) Registry() *NetworkRegistry {
	return f.registry
}

// NewClient dials a handle for network. Unknown networks use the registry fallback.
func (f *SuiClientFactory) NewClient(ctx context.Context, network types.NetworkID) (LedgerClient, error) {
	if !network.IsValid() {
		network = f.registry.Fallback()
	}

	endpoint, ok := f.registry.Endpoint(network)
	if !ok {
		return nil, apperrors.NewLedgerQueryError(network, "dial", ErrUnknownEndpoint)
	}

	return NewSuiClient(ctx, SuiClientConfig{
		Network:    network,
		Endpoint:   endpoint,
		HTTPClient: f.httpClient,
		PageSize:   f.pageSize,
		MaxPages:   f.maxPages,
		Metrics:    f.metrics,
	})
}
