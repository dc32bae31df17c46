package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio-advisor/internal/types"
)

func TestGetPortfolio_SingleCoinNoTransactions(t *testing.T) {
	ledger := &fakeLedger{
		network: types.NetworkMainnet,
		objects: []types.LedgerObject{suiCoinObject("0xc01n", "5000000000")},
	}
	service := NewPortfolioService(&fakeFactory{ledger: ledger}, 20, nil)

	snapshot, err := service.GetPortfolio(context.Background(), testAddress, types.NetworkMainnet)
	require.NoError(t, err)

	assert.Equal(t, types.PortfolioSummary{
		NumTokens:       1,
		NumNFTs:         0,
		NumOtherObjects: 0,
		NumTx:           0,
		TotalInSUI:      0,
		TotalOutSUI:     0,
	}, snapshot.Summary)
	assert.Equal(t, testAddress, snapshot.Address)
	assert.Equal(t, types.NetworkMainnet, snapshot.Network)
	assert.Equal(t, []int{20}, ledger.txLimits)
	assert.Empty(t, snapshot.Txs)

	// the gas guard must hold on the same empty window
	gas := SummarizeGas(nil)
	assert.False(t, gas.EfficiencyDefined())
}

func TestGetPortfolio_FlowAndTransactions(t *testing.T) {
	ledger := &fakeLedger{
		network: types.NetworkTestnet,
		objects: []types.LedgerObject{
			suiCoinObject("0x1", "1000000000"),
			{ObjectID: "0x2", Type: "0xabc::nft::Punk"},
			{ObjectID: "0x3", Type: "0x2::kiosk::Kiosk"},
		},
		txs: []types.TransactionRecord{
			{
				Digest:      "d1",
				TimestampMs: "1700000000000",
				Kind:        "ProgrammableTransaction",
				Events:      []json.RawMessage{json.RawMessage(`{"type":"0x2::coin::Transfer"}`)},
				BalanceChanges: []types.BalanceChange{
					change(testAddress, types.NativeCoinType, 3_000_000_000),
					change("0xb0b", "0xabc::usdc::USDC", 1_500_000_000),
				},
			},
		},
	}
	service := NewPortfolioService(&fakeFactory{ledger: ledger}, 20, nil)

	snapshot, err := service.GetPortfolio(context.Background(), testAddress, types.NetworkTestnet)
	require.NoError(t, err)

	assert.Equal(t, 1, snapshot.Summary.NumTokens)
	assert.Equal(t, 1, snapshot.Summary.NumNFTs)
	assert.Equal(t, 1, snapshot.Summary.NumOtherObjects)
	assert.Equal(t, 1, snapshot.Summary.NumTx)
	assert.Equal(t, 3.0, snapshot.Summary.TotalInSUI)
	// every coin type counts in the portfolio flow
	assert.Equal(t, 1.5, snapshot.Summary.TotalOutSUI)

	require.Len(t, snapshot.Txs, 1)
	assert.Equal(t, "d1", snapshot.Txs[0].Digest)
	assert.Equal(t, "1700000000000", snapshot.Txs[0].Timestamp)
	assert.Equal(t, "ProgrammableTransaction", snapshot.Txs[0].Kind)
	assert.Len(t, snapshot.Txs[0].Events, 1)
}

func TestGetPortfolio_PropagatesFailure(t *testing.T) {
	ledger := &fakeLedger{network: types.NetworkMainnet, objectsErr: errNodeDown}
	service := NewPortfolioService(&fakeFactory{ledger: ledger}, 20, nil)

	_, err := service.GetPortfolio(context.Background(), testAddress, types.NetworkMainnet)
	assert.ErrorIs(t, err, errNodeDown)
	assert.Equal(t, 1, ledger.closeCount)
}

func TestAggregateFlow_PermutationInvariant(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("permuting transactions keeps totals", prop.ForAll(
		func(amounts []int64, seed int64) bool {
			txs := make([]types.TransactionRecord, len(amounts))
			for i, amount := range amounts {
				owner := "0xother"
				if i%2 == 0 {
					owner = testAddress
				}
				txs[i] = types.TransactionRecord{
					BalanceChanges: []types.BalanceChange{change(owner, types.NativeCoinType, amount)},
				}
			}

			shuffled := make([]types.TransactionRecord, len(txs))
			copy(shuffled, txs)
			rng := rand.New(rand.NewSource(seed))
			rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

			a := AggregateFlow(testAddress, txs, "")
			b := AggregateFlow(testAddress, shuffled, "")
			return a.In.Equal(b.In) && a.Out.Equal(b.Out)
		},
		gen.SliceOf(gen.Int64Range(-5_000_000_000_000, 5_000_000_000_000)),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestAggregateFlow_CoinFilter(t *testing.T) {
	txs := []types.TransactionRecord{{
		BalanceChanges: []types.BalanceChange{
			change(testAddress, types.NativeCoinType, 10),
			change(testAddress, "0xabc::usdc::USDC", 7),
			{Owner: types.Owner{ObjectOwner: testAddress}, CoinType: types.NativeCoinType, Amount: nano(4)},
		},
	}}

	all := AggregateFlow(testAddress, txs, "")
	assert.True(t, all.In.Equal(nano(17)))
	assert.True(t, all.Out.Equal(nano(4)))

	native := AggregateFlow(testAddress, txs, types.NativeCoinType)
	assert.True(t, native.In.Equal(nano(10)))
	assert.True(t, native.Out.Equal(nano(4)))
}
