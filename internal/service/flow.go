package service

import (
	"github.com/shopspring/decimal"

	"github.com/portfolio-advisor/internal/types"
)

// Flow holds raw nano totals over a transaction window
type Flow struct {
	In  decimal.Decimal
	Out decimal.Decimal
}

// InSUI returns the inflow in display units
func (f Flow) InSUI() float64 { return types.NanoToSUI(f.In) }

// OutSUI returns the outflow in display units
func (f Flow) OutSUI() float64 { return types.NanoToSUI(f.Out) }

// AggregateFlow sums balance changes over txs. A change owned by address
// accrues to In, every other change accrues to Out. Changes are not netted
// per transaction. An empty coinType counts every coin type.
func AggregateFlow(address string, txs []types.TransactionRecord, coinType string) Flow {
	flow := Flow{In: decimal.Zero, Out: decimal.Zero}

	for _, tx := range txs {
		for _, bc := range tx.BalanceChanges {
			if coinType != "" && bc.CoinType != coinType {
				continue
			}
			if bc.Owner.AddressOwner == address {
				flow.In = flow.In.Add(bc.Amount)
			} else {
				flow.Out = flow.Out.Add(bc.Amount)
			}
		}
	}

	return flow
}
