package service

import (
	"strings"

	"github.com/portfolio-advisor/internal/types"
)

// coinWrapperPrefix marks a coin object type
const coinWrapperPrefix = "0x2::coin::Coin<"

// defaultCoinSymbol is used when the coin type cannot be extracted from the wrapper
const defaultCoinSymbol = "SUI"

// ClassifiedAssets is a disjoint partition of owned objects
type ClassifiedAssets struct {
	Tokens []types.TokenAsset
	NFTs   []types.NftAsset
	Others []types.OtherObject
}

// Total returns the number of classified objects
func (c *ClassifiedAssets) Total() int {
	return len(c.Tokens) + len(c.NFTs) + len(c.Others)
}

// ClassifyType returns the asset kind for an object type string.
// Token takes precedence over NFT, which takes precedence over other.
func ClassifyType(objectType string) types.AssetKind {
	switch {
	case strings.HasPrefix(objectType, coinWrapperPrefix):
		return types.AssetToken
	case isNFTType(objectType):
		return types.AssetNFT
	default:
		return types.AssetOther
	}
}

func isNFTType(objectType string) bool {
	return strings.Contains(objectType, "::nft::") ||
		strings.Contains(objectType, "::NFT") ||
		strings.Contains(strings.ToLower(objectType), "nft")
}

// ExtractCoinType returns the text between the first '<' and the last '>'
// of a coin wrapper type, or the default symbol when there is none.
func ExtractCoinType(objectType string) string {
	open := strings.Index(objectType, "<")
	end := strings.LastIndex(objectType, ">")
	if open < 0 || end <= open+1 {
		return defaultCoinSymbol
	}
	inner := objectType[open+1 : end]
	if strings.ContainsAny(inner, "\r\n") {
		return defaultCoinSymbol
	}
	return inner
}

// Classify partitions objects into tokens, NFTs and other objects.
// Every input object lands in exactly one category.
func Classify(objects []types.LedgerObject) ClassifiedAssets {
	result := ClassifiedAssets{
		Tokens: make([]types.TokenAsset, 0),
		NFTs:   make([]types.NftAsset, 0),
		Others: make([]types.OtherObject, 0),
	}

	for _, obj := range objects {
		switch ClassifyType(obj.Type) {
		case types.AssetToken:
			result.Tokens = append(result.Tokens, types.TokenAsset{
				ObjectID: obj.ObjectID,
				CoinType: ExtractCoinType(obj.Type),
				Balance:  tokenBalance(obj.Fields),
			})
		case types.AssetNFT:
			result.NFTs = append(result.NFTs, types.NftAsset{
				ObjectID: obj.ObjectID,
				Type:     obj.Type,
				Fields:   fieldsOrEmpty(obj.Fields),
			})
		default:
			result.Others = append(result.Others, types.OtherObject{
				ObjectID: obj.ObjectID,
				Type:     obj.Type,
				Fields:   fieldsOrEmpty(obj.Fields),
			})
		}
	}

	return result
}

func tokenBalance(fields map[string]interface{}) *string {
	raw, ok := fields["balance"]
	if !ok || raw == nil {
		return nil
	}
	balance, ok := types.DecimalFromField(raw)
	if !ok {
		return nil
	}
	s := balance.String()
	return &s
}

func fieldsOrEmpty(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return map[string]interface{}{}
	}
	return fields
}
