package models

import (
	"time"

	"github.com/portfolio-advisor/internal/types"
)

// PortfolioSnapshot is one row of key advisory figures for an address,
// appended each time an advisory is composed
type PortfolioSnapshot struct {
	Address       string          `json:"address" ch:"address"`
	Network       types.NetworkID `json:"network" ch:"network"`
	NumTokens     int             `json:"numTokens" ch:"num_tokens"`
	NumNFTs       int             `json:"numNFTs" ch:"num_nfts"`
	NumTx         int             `json:"numTx" ch:"num_tx"`
	TotalInSUI    float64         `json:"totalInSUI" ch:"total_in_sui"`
	TotalOutSUI   float64         `json:"totalOutSUI" ch:"total_out_sui"`
	TotalGasSUI   float64         `json:"totalGasSUI" ch:"total_gas_sui"`
	AvgGasSUI     float64         `json:"avgGasSUI" ch:"avg_gas_sui"`
	GasEfficiency int             `json:"gasEfficiency" ch:"gas_efficiency"`
	SuiBalance    float64         `json:"suiBalance" ch:"sui_balance"`
	StakedSui     float64         `json:"stakedSui" ch:"staked_sui"`
	GainLossSUI   float64         `json:"gainLossSUI" ch:"gain_loss_sui"`
	TaxableEvents int             `json:"taxableEvents" ch:"taxable_events"`
	RecordedAt    time.Time       `json:"recordedAt" ch:"recorded_at"`
}

// NewPortfolioSnapshot flattens advisory data into a snapshot row
func NewPortfolioSnapshot(address string, network types.NetworkID, data *types.AdvisoryData, at time.Time) *PortfolioSnapshot {
	snap := &PortfolioSnapshot{
		Address:    address,
		Network:    network,
		RecordedAt: at.UTC(),
	}
	if p := data.Portfolio; p != nil {
		snap.NumTokens = p.Summary.NumTokens
		snap.NumNFTs = p.Summary.NumNFTs
		snap.NumTx = p.Summary.NumTx
		snap.TotalInSUI = p.Summary.TotalInSUI
		snap.TotalOutSUI = p.Summary.TotalOutSUI
	}
	if g := data.Gas; g != nil {
		snap.TotalGasSUI = g.TotalGasSUI
		snap.AvgGasSUI = g.AvgGasSUI
		snap.GasEfficiency = g.GasEfficiency
	}
	if s := data.Staking; s != nil {
		snap.SuiBalance = s.SuiBalance
		snap.StakedSui = s.StakedSui
	}
	if t := data.Tax; t != nil {
		snap.GainLossSUI = t.GainLossSUI
		snap.TaxableEvents = t.TaxableEvents
	}
	return snap
}
