package types

import "encoding/json"

// AssetKind tags a classified ledger object
type AssetKind string

const (
	AssetToken AssetKind = "token"
	AssetNFT   AssetKind = "nft"
	AssetOther AssetKind = "other"
)

// TokenAsset is a coin object
type TokenAsset struct {
	ObjectID string `json:"objectId"`
	CoinType string `json:"coinType"`
	// Balance is the raw nano balance, nil when the object carried none
	Balance *string `json:"balance"`
}

// NftAsset is a non-fungible item
type NftAsset struct {
	ObjectID string                 `json:"objectId"`
	Type     string                 `json:"type"`
	Fields   map[string]interface{} `json:"fields"`
}

// OtherObject is any owned object that is neither a coin nor an NFT
type OtherObject struct {
	ObjectID string                 `json:"objectId"`
	Type     string                 `json:"type"`
	Fields   map[string]interface{} `json:"fields"`
}

// PortfolioSummary holds the headline counts of a snapshot
type PortfolioSummary struct {
	NumTokens       int     `json:"numTokens"`
	NumNFTs         int     `json:"numNFTs"`
	NumOtherObjects int     `json:"numOtherObjects"`
	NumTx           int     `json:"numTx"`
	TotalInSUI      float64 `json:"totalInSUI"`
	TotalOutSUI     float64 `json:"totalOutSUI"`
}

// PortfolioTx is the transaction view embedded in a snapshot
type PortfolioTx struct {
	Digest         string            `json:"digest"`
	Timestamp      string            `json:"timestamp,omitempty"`
	Kind           string            `json:"kind,omitempty"`
	Events         []json.RawMessage `json:"events"`
	BalanceChanges []BalanceChange   `json:"balanceChanges"`
}

// PortfolioSnapshot is the consolidated view of one address
type PortfolioSnapshot struct {
	Address string           `json:"address"`
	Network NetworkID        `json:"network"`
	Summary PortfolioSummary `json:"summary"`
	Tokens  []TokenAsset     `json:"tokens"`
	NFTs    []NftAsset       `json:"nfts"`
	Others  []OtherObject    `json:"others"`
	Txs     []PortfolioTx    `json:"txs"`
}

// EfficiencyUndefined is reported when the window holds no transactions
const EfficiencyUndefined = 0

// GasSummary is the gas spend over a transaction window
type GasSummary struct {
	TotalGas      int64    `json:"totalGas"`
	TotalGasSUI   float64  `json:"totalGasSUI"`
	AvgGasSUI     float64  `json:"avgGasSUI"`
	MaxGasSUI     float64  `json:"maxGasSUI"`
	HighGasTxs    []string `json:"highGasTxs"`
	GasEfficiency int      `json:"gasEfficiency"`
	TxCount       int      `json:"txCount"`
}

// EfficiencyDefined reports whether the window had any transactions to average
func (g *GasSummary) EfficiencyDefined() bool {
	return g.TxCount > 0
}

// StakingSummary is the liquid vs staked SUI position
type StakingSummary struct {
	SuiBalance     float64   `json:"suiBalance"`
	StakedSui      float64   `json:"stakedSui"`
	TotalStaked    float64   `json:"totalStaked"`
	EstimatedAPY   string    `json:"estimatedAPY"`
	ValidatorCount int       `json:"validatorCount"`
	Network        NetworkID `json:"network"`
}

// TaxSummary is the native coin flow with gain/loss proxies
type TaxSummary struct {
	TotalInSUI      float64 `json:"totalInSUI"`
	TotalOutSUI     float64 `json:"totalOutSUI"`
	GainLossSUI     float64 `json:"gainLossSUI"`
	RealizedGains   float64 `json:"realizedGains"`
	UnrealizedGains float64 `json:"unrealizedGains"`
	TaxableEvents   int     `json:"taxableEvents"`
}

// AdvisoryData bundles the four raw summaries behind an advisory
type AdvisoryData struct {
	Gas       *GasSummary        `json:"gas"`
	Staking   *StakingSummary    `json:"staking"`
	Tax       *TaxSummary        `json:"tax"`
	Portfolio *PortfolioSnapshot `json:"portfolio"`
}

// Advisory is the completed advice plus the data it was built from
type Advisory struct {
	Advice string `json:"advice"`
	AdvisoryData
}

// ChatResponse is the reply of the interactive chat entry point
type ChatResponse struct {
	Response    string        `json:"response"`
	Data        *AdvisoryData `json:"data,omitempty"`
	UserMessage string        `json:"userMessage,omitempty"`
}

// ReportResponse carries one rendered analyzer report
type ReportResponse struct {
	Address string    `json:"address"`
	Network NetworkID `json:"network"`
	Report  string    `json:"report"`
}
