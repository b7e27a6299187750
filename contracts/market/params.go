package market

import (
	"encoding/json"

	"assetledger/core/cis2"
	coreerrors "assetledger/core/errors"
	"assetledger/core/types"
	"assetledger/native/market"
)

// InitParams carries the marketplace commission in basis points.
type InitParams struct {
	Commission uint16 `json:"commission"`
}

// AddParams lists a token the sender holds in custody.
type AddParams struct {
	Contract types.ContractAddress `json:"contract"`
	TokenID  types.TokenID         `json:"tokenId"`
	Price    types.Amount          `json:"price"`
	Royalty  uint16                `json:"royalty"`
}

// BuyParams moves quantity of owner's custody position to the buyer's
// account. The attached amount pays for it.
type BuyParams struct {
	Contract types.ContractAddress `json:"contract"`
	TokenID  types.TokenID         `json:"tokenId"`
	Owner    types.AccountAddress  `json:"owner"`
	To       types.AccountAddress  `json:"to"`
	Quantity types.Amount          `json:"quantity"`
}

func (p BuyParams) tokenOwner() market.TokenOwner {
	return market.TokenOwner{ListingKey: market.ListingKey{Contract: p.Contract, TokenID: p.TokenID}, Owner: p.Owner}
}

// ViewResult is returned by the view entrypoint.
type ViewResult struct {
	Commission uint16            `json:"commission"`
	Positions  []market.Position `json:"positions"`
}

func decodeInto[T any](raw json.RawMessage) (any, error) {
	var out T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, coreerrors.Wrap(coreerrors.ErrParseParams, "%v", err)
		}
	}
	return out, nil
}

// DecodeParam decodes JSON parameters for an entrypoint.
func (c *Contract) DecodeParam(entrypoint string, raw json.RawMessage) (any, error) {
	switch entrypoint {
	case "init":
		return decodeInto[InitParams](raw)
	case "add":
		return decodeInto[AddParams](raw)
	case cis2.EntrypointTransfer:
		return decodeInto[BuyParams](raw)
	case cis2.EntrypointOnReceiving:
		return decodeInto[cis2.OnReceivingParams](raw)
	case "list", "list_owned", "view":
		return nil, nil
	default:
		return nil, coreerrors.Wrap(coreerrors.ErrUnknownEntrypoint, "%s", entrypoint)
	}
}

func param[T any](p any) (T, error) {
	v, ok := p.(T)
	if !ok {
		var zero T
		return zero, coreerrors.Wrap(coreerrors.ErrParseParams, "unexpected parameter %T", p)
	}
	return v, nil
}
