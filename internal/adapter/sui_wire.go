package adapter

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/portfolio-advisor/internal/types"
)

// page is the paginated envelope shared by the suix_ query methods
type page[T any] struct {
	Data        []T     `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

type objectDataOptions struct {
	ShowType    bool `json:"showType"`
	ShowOwner   bool `json:"showOwner"`
	ShowContent bool `json:"showContent"`
}

type objectResponseQuery struct {
	Filter  interface{}       `json:"filter"`
	Options objectDataOptions `json:"options"`
}

type txResponseOptions struct {
	ShowInput          bool `json:"showInput"`
	ShowEffects        bool `json:"showEffects"`
	ShowEvents         bool `json:"showEvents"`
	ShowBalanceChanges bool `json:"showBalanceChanges"`
}

type txFilter struct {
	FromAddress string `json:"FromAddress"`
}

type txResponseQuery struct {
	Filter  txFilter          `json:"filter"`
	Options txResponseOptions `json:"options"`
}

type objectResponse struct {
	Data  *objectData     `json:"data"`
	Error json.RawMessage `json:"error,omitempty"`
}

type objectData struct {
	ObjectID string       `json:"objectId"`
	Type     string       `json:"type"`
	Owner    *types.Owner `json:"owner"`
	Content  *moveContent `json:"content"`
}

type moveContent struct {
	DataType string                 `json:"dataType"`
	Type     string                 `json:"type"`
	Fields   map[string]interface{} `json:"fields"`
}

func (o *objectResponse) toLedgerObject() (types.LedgerObject, bool) {
	if o.Data == nil {
		return types.LedgerObject{}, false
	}
	obj := types.LedgerObject{
		ObjectID: o.Data.ObjectID,
		Type:     o.Data.Type,
	}
	if o.Data.Content != nil {
		obj.Fields = o.Data.Content.Fields
	}
	return obj, true
}

type txBlockResponse struct {
	Digest         string                `json:"digest"`
	TimestampMs    string                `json:"timestampMs"`
	Transaction    *txBlock              `json:"transaction"`
	Effects        *txEffects            `json:"effects"`
	Events         []json.RawMessage     `json:"events"`
	BalanceChanges []types.BalanceChange `json:"balanceChanges"`
}

type txBlock struct {
	Data struct {
		Transaction struct {
			Kind string `json:"kind"`
		} `json:"transaction"`
	} `json:"data"`
}

type txEffects struct {
	GasUsed *gasCostSummary `json:"gasUsed"`
}

type gasCostSummary struct {
	ComputationCost *decimal.Decimal `json:"computationCost"`
}

func (t *txBlockResponse) toRecord() types.TransactionRecord {
	rec := types.TransactionRecord{
		Digest:         t.Digest,
		TimestampMs:    t.TimestampMs,
		Events:         t.Events,
		BalanceChanges: t.BalanceChanges,
		GasUsed:        decimal.Zero,
	}
	if t.Transaction != nil {
		rec.Kind = t.Transaction.Data.Transaction.Kind
	}
	if t.Effects != nil && t.Effects.GasUsed != nil && t.Effects.GasUsed.ComputationCost != nil {
		rec.GasUsed = *t.Effects.GasUsed.ComputationCost
	}
	return rec
}

type coinResponse struct {
	CoinType     string          `json:"coinType"`
	CoinObjectID string          `json:"coinObjectId"`
	Balance      decimal.Decimal `json:"balance"`
}
