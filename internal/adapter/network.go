package adapter

import (
	"strings"

	"github.com/portfolio-advisor/internal/types"
)

// NetworkRegistry maps network ids to RPC endpoints
type NetworkRegistry struct {
	endpoints map[types.NetworkID]string
	fallback  types.NetworkID
}

// NewNetworkRegistry creates a registry. An invalid fallback is replaced by mainnet.
func NewNetworkRegistry(endpoints map[types.NetworkID]string, fallback types.NetworkID) *NetworkRegistry {
	copied := make(map[types.NetworkID]string, len(endpoints))
	for k, v := range endpoints {
		copied[k] = v
	}
	if !fallback.IsValid() {
		fallback = types.DefaultNetwork
	}
	return &NetworkRegistry{endpoints: copied, fallback: fallback}
}

// WithEndpoint returns a copy of the registry with one endpoint replaced
func (r *NetworkRegistry) WithEndpoint(network types.NetworkID, url string) *NetworkRegistry {
	next := NewNetworkRegistry(r.endpoints, r.fallback)
	if url != "" {
		next.endpoints[network] = url
	}
	return next
}

// Resolve turns a raw request value into a network id.
// Absent or unrecognized values fall back silently.
func (r *NetworkRegistry) Resolve(raw string) types.NetworkID {
	n := types.NetworkID(strings.ToLower(strings.TrimSpace(raw)))
	if n.IsValid() {
		return n
	}
	return r.fallback
}

// Fallback returns the network used for absent or unknown input
func (r *NetworkRegistry) Fallback() types.NetworkID {
	return r.fallback
}

// Endpoint returns the RPC URL for a network
func (r *NetworkRegistry) Endpoint(network types.NetworkID) (string, bool) {
	url, ok := r.endpoints[network]
	return url, ok && url != ""
}
