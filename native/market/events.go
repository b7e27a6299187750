package market

import (
	"strconv"

	"assetledger/core/types"
)

const (
	EventTypeListed = "market.listed"
	EventTypeSold   = "market.sold"
)

func amountString(a types.Amount) string { return strconv.FormatUint(uint64(a), 10) }

// NewListedEvent announces an ask for a token held in custody.
func NewListedEvent(o TokenOwner, price types.Amount, royaltyBps uint16) *types.Event {
	return &types.Event{
		Type: EventTypeListed,
		Attributes: map[string]string{
			"contract": o.Contract.String(),
			"tokenId":  o.TokenID.String(),
			"owner":    o.Owner.String(),
			"price":    amountString(price),
			"royalty":  strconv.FormatUint(uint64(royaltyBps), 10),
		},
	}
}

// NewSoldEvent records a settled purchase and how the payment was split.
func NewSoldEvent(o TokenOwner, buyer types.AccountAddress, quantity types.Amount, dist Distribution) *types.Event {
	return &types.Event{
		Type: EventTypeSold,
		Attributes: map[string]string{
			"contract":       o.Contract.String(),
			"tokenId":        o.TokenID.String(),
			"owner":          o.Owner.String(),
			"buyer":          buyer.String(),
			"quantity":       amountString(quantity),
			"toSeller":       amountString(dist.ToSeller),
			"toMarketplace":  amountString(dist.ToMarketplace),
			"toPrimaryOwner": amountString(dist.ToPrimaryOwner),
		},
	}
}
