// Package types provides common type definitions for the portfolio advisor.
package types

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// NetworkID identifies a Sui network
type NetworkID string

const (
	// NetworkMainnet is the Sui mainnet
	NetworkMainnet NetworkID = "mainnet"
	// NetworkTestnet is the Sui testnet
	NetworkTestnet NetworkID = "testnet"
	// NetworkDevnet is the Sui devnet
	NetworkDevnet NetworkID = "devnet"
	// NetworkLocalnet is a local Sui node
	NetworkLocalnet NetworkID = "localnet"
)

// DefaultNetwork is used whenever a network is absent or unrecognized
const DefaultNetwork = NetworkMainnet

// SupportedNetworks lists every network the service can resolve
var SupportedNetworks = []NetworkID{NetworkMainnet, NetworkTestnet, NetworkDevnet, NetworkLocalnet}

// IsValid reports whether n is one of the supported networks
func (n NetworkID) IsValid() bool {
	for _, s := range SupportedNetworks {
		if n == s {
			return true
		}
	}
	return false
}

// ParseNetworkID resolves a raw network name from configuration. Unknown or
// empty input falls back to DefaultNetwork. Request values go through
// adapter.NetworkRegistry instead.
func ParseNetworkID(raw string) NetworkID {
	n := NetworkID(strings.ToLower(strings.TrimSpace(raw)))
	if n.IsValid() {
		return n
	}
	return DefaultNetwork
}

// NativeCoinType is the fully-qualified type of the SUI coin
const NativeCoinType = "0x2::sui::SUI"

// NanoDecimals is the number of decimal places between nano units and SUI
const NanoDecimals = 9

// NanoToSUI converts a raw nano amount to display units
func NanoToSUI(nano decimal.Decimal) float64 {
	return nano.Shift(-NanoDecimals).InexactFloat64()
}

// DecimalFromField reads a numeric value out of an object's content fields.
// Sui encodes u64 fields as JSON strings, but plain numbers are accepted too.
func DecimalFromField(v interface{}) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case float64:
		return decimal.NewFromFloat(val), true
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case int64:
		return decimal.NewFromInt(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	default:
		return decimal.Zero, false
	}
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// LedgerObject is a raw owned object as returned by the node
type LedgerObject struct {
	ObjectID string                 `json:"objectId"`
	Type     string                 `json:"type"`
	Fields   map[string]interface{} `json:"fields,omitempty"`
}

// Owner is the owner of an object or the target of a balance change.
// Exactly one variant is set.
type Owner struct {
	AddressOwner string
	ObjectOwner  string
	Shared       json.RawMessage
	Immutable    bool
}

// UnmarshalJSON accepts both the object variants and the bare "Immutable" string.
// null and unrecognised variants leave the owner empty.
func (o *Owner) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "Immutable" {
			*o = Owner{Immutable: true}
		} else {
			*o = Owner{}
		}
		return nil
	}

	var raw struct {
		AddressOwner string          `json:"AddressOwner"`
		ObjectOwner  string          `json:"ObjectOwner"`
		Shared       json.RawMessage `json:"Shared"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*o = Owner{}
		return nil
	}
	*o = Owner{AddressOwner: raw.AddressOwner, ObjectOwner: raw.ObjectOwner, Shared: raw.Shared}
	return nil
}

// MarshalJSON writes the owner back in node wire format
func (o Owner) MarshalJSON() ([]byte, error) {
	switch {
	case o.Immutable:
		return json.Marshal("Immutable")
	case o.AddressOwner != "":
		return json.Marshal(map[string]string{"AddressOwner": o.AddressOwner})
	case o.ObjectOwner != "":
		return json.Marshal(map[string]string{"ObjectOwner": o.ObjectOwner})
	case len(o.Shared) > 0:
		return json.Marshal(map[string]json.RawMessage{"Shared": o.Shared})
	default:
		return []byte("null"), nil
	}
}

// BalanceChange is a signed coin delta attributed to an owner
type BalanceChange struct {
	Owner    Owner           `json:"owner"`
	CoinType string          `json:"coinType"`
	Amount   decimal.Decimal `json:"amount"`
}

// TransactionRecord is one executed transaction block
type TransactionRecord struct {
	Digest         string            `json:"digest"`
	TimestampMs    string            `json:"timestampMs,omitempty"`
	Kind           string            `json:"kind,omitempty"`
	Events         []json.RawMessage `json:"events,omitempty"`
	BalanceChanges []BalanceChange   `json:"balanceChanges,omitempty"`
	// GasUsed is the computation cost in nano units, zero when the node omitted it
	GasUsed decimal.Decimal `json:"gasUsed"`
}

// Coin is a single coin object of some coin type
type Coin struct {
	CoinType     string          `json:"coinType"`
	CoinObjectID string          `json:"coinObjectId"`
	Balance      decimal.Decimal `json:"balance"`
}
