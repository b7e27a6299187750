package cis2

import (
	"strconv"

	"assetledger/core/types"
)

const (
	EventTypeTransfer      = "cis2.transfer"
	EventTypeMint          = "cis2.mint"
	EventTypeBurn          = "cis2.burn"
	EventTypeTokenMetadata = "cis2.token_metadata"
)

func amountString(a types.Amount) string { return strconv.FormatUint(uint64(a), 10) }

// NewTransferEvent returns the canonical payload for a token transfer.
func NewTransferEvent(id types.TokenID, amount types.Amount, from, to types.Address) *types.Event {
	return &types.Event{
		Type: EventTypeTransfer,
		Attributes: map[string]string{
			"tokenId": id.String(),
			"amount":  amountString(amount),
			"from":    from.String(),
			"to":      to.String(),
		},
	}
}

// NewMintEvent returns the canonical payload for newly minted tokens.
func NewMintEvent(id types.TokenID, amount types.Amount, owner types.Address) *types.Event {
	return &types.Event{
		Type: EventTypeMint,
		Attributes: map[string]string{
			"tokenId": id.String(),
			"amount":  amountString(amount),
			"owner":   owner.String(),
		},
	}
}

// NewBurnEvent returns the canonical payload for burned tokens.
func NewBurnEvent(id types.TokenID, amount types.Amount, owner types.Address) *types.Event {
	return &types.Event{
		Type: EventTypeBurn,
		Attributes: map[string]string{
			"tokenId": id.String(),
			"amount":  amountString(amount),
			"owner":   owner.String(),
		},
	}
}

// NewTokenMetadataEvent announces the metadata location of a token.
func NewTokenMetadataEvent(id types.TokenID, meta types.MetadataURL) *types.Event {
	attrs := map[string]string{
		"tokenId": id.String(),
		"url":     meta.URL,
	}
	if meta.Hash != "" {
		attrs["hash"] = meta.Hash
	}
	return &types.Event{Type: EventTypeTokenMetadata, Attributes: attrs}
}
