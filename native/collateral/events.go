package collateral

import (
	"strconv"

	"assetledger/core/types"
)

const (
	EventTypeCollateralAdded   = "collateral.added"
	EventTypeCollateralRemoved = "collateral.removed"
)

func newCollateralEvent(eventType string, k Key, amount types.Amount) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"contract": k.Contract.String(),
			"tokenId":  k.TokenID.String(),
			"owner":    k.Owner.String(),
			"amount":   strconv.FormatUint(uint64(amount), 10),
		},
	}
}

// NewAddedEvent returns the canonical payload for a received deposit.
func NewAddedEvent(k Key, amount types.Amount) *types.Event {
	return newCollateralEvent(EventTypeCollateralAdded, k, amount)
}

// NewRemovedEvent returns the canonical payload for released collateral.
func NewRemovedEvent(k Key, amount types.Amount) *types.Event {
	return newCollateralEvent(EventTypeCollateralRemoved, k, amount)
}
