package service

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/portfolio-advisor/internal/adapter"
	apperrors "github.com/portfolio-advisor/internal/errors"
	"github.com/portfolio-advisor/internal/models"
	"github.com/portfolio-advisor/internal/types"
)

const testAddress = "0xa11ce"

// fakeLedger serves fixed objects, coins and transactions
type fakeLedger struct {
	network types.NetworkID
	objects []types.LedgerObject
	coins   []types.Coin
	txs     []types.TransactionRecord

	objectsErr error
	txErr      error
	coinsErr   error

	mu         sync.Mutex
	txLimits   []int
	closeCount int
}

func (f *fakeLedger) Network() types.NetworkID { return f.network }

func (f *fakeLedger) GetOwnedObjects(ctx context.Context, owner string) ([]types.LedgerObject, error) {
	if f.objectsErr != nil {
		return nil, f.objectsErr
	}
	return f.objects, nil
}

func (f *fakeLedger) QueryTransactionBlocks(ctx context.Context, sender string, limit int) ([]types.TransactionRecord, error) {
	f.mu.Lock()
	f.txLimits = append(f.txLimits, limit)
	f.mu.Unlock()

	if f.txErr != nil {
		return nil, f.txErr
	}
	if limit < len(f.txs) {
		return f.txs[:limit], nil
	}
	return f.txs, nil
}

func (f *fakeLedger) GetCoins(ctx context.Context, owner string, coinType string) ([]types.Coin, error) {
	if f.coinsErr != nil {
		return nil, f.coinsErr
	}
	return f.coins, nil
}

func (f *fakeLedger) Close() {
	f.mu.Lock()
	f.closeCount++
	f.mu.Unlock()
}

// fakeFactory hands out the same ledger and records requested networks
type fakeFactory struct {
	ledger *fakeLedger

	mu       sync.Mutex
	networks []types.NetworkID
}

func (f *fakeFactory) NewClient(ctx context.Context, network types.NetworkID) (adapter.LedgerClient, error) {
	f.mu.Lock()
	f.networks = append(f.networks, network)
	f.mu.Unlock()

	return f.ledger, nil
}

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (c *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func (c *fakeCompleter) Model() string { return "test-model" }

type fakeHistory struct {
	records []*models.AdvisoryRecord
	err     error
}

func (h *fakeHistory) Save(ctx context.Context, record *models.AdvisoryRecord) error {
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, record)
	return nil
}

func (h *fakeHistory) ListByAddress(ctx context.Context, address string, limit int) ([]*models.AdvisoryRecord, error) {
	out := make([]*models.AdvisoryRecord, 0)
	for i := len(h.records) - 1; i >= 0 && len(out) < limit; i-- {
		if h.records[i].Address == address {
			out = append(out, h.records[i])
		}
	}
	return out, nil
}

type fakeSnapshots struct {
	mu        sync.Mutex
	snapshots []*models.PortfolioSnapshot
}

func (s *fakeSnapshots) RecordSnapshot(ctx context.Context, snapshot *models.PortfolioSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func nano(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func suiCoinObject(id string, balance string) types.LedgerObject {
	return types.LedgerObject{
		ObjectID: id,
		Type:     "0x2::coin::Coin<0x2::sui::SUI>",
		Fields:   map[string]interface{}{"balance": balance, "id": map[string]interface{}{"id": id}},
	}
}

func gasTx(digest string, gas int64) types.TransactionRecord {
	return types.TransactionRecord{Digest: digest, GasUsed: nano(gas)}
}

func change(owner, coinType string, amount int64) types.BalanceChange {
	return types.BalanceChange{
		Owner:    types.Owner{AddressOwner: owner},
		CoinType: coinType,
		Amount:   nano(amount),
	}
}

var errNodeDown = apperrors.NewLedgerQueryError(types.NetworkMainnet, adapter.MethodQueryTransactionBlocks, errors.New("connection refused"))

func newTestAdvisoryService(ledger *fakeLedger, completer *fakeCompleter, history AdvisoryHistory, snaps SnapshotRecorder) (*AdvisoryService, *fakeFactory) {
	factory := &fakeFactory{ledger: ledger}
	return NewAdvisoryService(AdvisoryServiceConfig{
		Gas:       NewGasAnalyzer(factory, 30, nil),
		Staking:   NewStakingAnalyzer(factory, types.NetworkMainnet, nil),
		Tax:       NewTaxAnalyzer(factory, 30, nil),
		Portfolio: NewPortfolioService(factory, 20, nil),
		Completer: completer,
		History:   history,
		Snapshots: snaps,
	}), factory
}
