package fractionalizer

import (
	"encoding/json"

	"assetledger/core/cis2"
	coreerrors "assetledger/core/errors"
	"assetledger/core/types"
	"assetledger/native/collateral"
)

// InitParams configures a new instance. VerifierContracts is consulted by
// carbon credit retracts.
type InitParams struct {
	VerifierContracts []types.ContractAddress `json:"verifierContracts,omitempty"`
}

// MintToken mints a local token against a deposit of an external token.
type MintToken struct {
	TokenID         types.TokenID         `json:"tokenId"`
	Amount          types.Amount          `json:"amount"`
	Metadata        types.MetadataURL     `json:"metadata"`
	Contract        types.ContractAddress `json:"contract"`
	ContractTokenID types.TokenID         `json:"contractTokenId"`
}

type MintParams struct {
	Owner  types.Address `json:"owner"`
	Tokens []MintToken   `json:"tokens"`
}

type BurnParams struct {
	TokenID types.TokenID `json:"tokenId"`
	Amount  types.Amount  `json:"amount"`
}

// RetireParams is shared by retire and retract.
type RetireParams struct {
	Owner  types.Address `json:"owner"`
	Tokens []BurnParams  `json:"tokens"`
}

// TokenView summarises one local token.
type TokenView struct {
	TokenID  types.TokenID     `json:"tokenId"`
	Supply   types.Amount      `json:"supply"`
	Metadata types.MetadataURL `json:"metadata"`
	Holders  []HolderBalance   `json:"holders"`
}

type HolderBalance struct {
	Address types.Address `json:"address"`
	Balance types.Amount  `json:"balance"`
}

// ViewResult is returned by the view entrypoint.
type ViewResult struct {
	Variant           string                  `json:"variant"`
	Tokens            []TokenView             `json:"tokens"`
	Collateral        []collateral.Entry      `json:"collateral"`
	VerifierContracts []types.ContractAddress `json:"verifierContracts,omitempty"`
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
	case "mint":
		return decodeInto[MintParams](raw)
	case "burn":
		return decodeInto[BurnParams](raw)
	case "retire", "retract":
		return decodeInto[RetireParams](raw)
	case cis2.EntrypointTransfer:
		return decodeInto[cis2.TransferParams](raw)
	case cis2.EntrypointUpdateOperator:
		return decodeInto[cis2.UpdateOperatorParams](raw)
	case cis2.EntrypointBalanceOf:
		return decodeInto[cis2.BalanceOfParams](raw)
	case cis2.EntrypointOperatorOf:
		return decodeInto[cis2.OperatorOfParams](raw)
	case cis2.EntrypointTokenMetadata:
		return decodeInto[cis2.TokenMetadataParams](raw)
	case cis2.EntrypointSupports:
		return decodeInto[cis2.SupportsParams](raw)
	case cis2.EntrypointOnReceiving:
		return decodeInto[cis2.OnReceivingParams](raw)
	case cis2.EntrypointIsVerified:
		return decodeInto[cis2.IsVerifiedParams](raw)
	case cis2.EntrypointMaturityOf:
		return decodeInto[cis2.MaturityOfParams](raw)
	case "view":
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
