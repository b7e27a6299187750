package projectnft

import (
	"encoding/json"

	"assetledger/core/cis2"
	coreerrors "assetledger/core/errors"
	"assetledger/core/types"
	"assetledger/native/gate"
)

// InitParams selects the retire eligibility mode. An empty mode requires
// maturity and verification.
type InitParams struct {
	GateMode string `json:"gateMode,omitempty"`
}

// TokenSpec describes one project token to mint.
type TokenSpec struct {
	Metadata     types.MetadataURL `json:"metadata"`
	MaturityTime types.Timestamp   `json:"maturityTime"`
}

type MintParams struct {
	Owner  types.Address `json:"owner"`
	Tokens []TokenSpec   `json:"tokens"`
}

// VerifierParams is used by addVerifier and removeVerifier.
type VerifierParams struct {
	Verifier types.Address `json:"verifier"`
}

type VerifyParams struct {
	TokenID types.TokenID `json:"tokenId"`
}

// BurnParams is shared by retire and retract.
type BurnParams struct {
	Owner  types.Address   `json:"owner"`
	Tokens []types.TokenID `json:"tokens"`
}

// TokenView summarises one project token.
type TokenView struct {
	TokenID    types.TokenID     `json:"tokenId"`
	Owner      *types.Address    `json:"owner,omitempty"`
	Metadata   types.MetadataURL `json:"metadata"`
	Maturity   types.Timestamp   `json:"maturityTime"`
	Verified   bool              `json:"verified"`
	VerifiedBy *types.Address    `json:"verifiedBy,omitempty"`
}

// ViewResult is returned by the view entrypoint.
type ViewResult struct {
	GateMode  string          `json:"gateMode"`
	Tokens    []TokenView     `json:"tokens"`
	Verifiers []types.Address `json:"verifiers"`
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
		params, err := decodeInto[InitParams](raw)
		if err != nil {
			return nil, err
		}
		if _, err := gate.ParseMode(params.(InitParams).GateMode); err != nil {
			return nil, coreerrors.Wrap(coreerrors.ErrParseParams, "%v", err)
		}
		return params, nil
	case "mint":
		return decodeInto[MintParams](raw)
	case "addVerifier", "removeVerifier":
		return decodeInto[VerifierParams](raw)
	case "verify":
		return decodeInto[VerifyParams](raw)
	case "retire", "retract":
		return decodeInto[BurnParams](raw)
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
	case cis2.EntrypointMaturityOf:
		return decodeInto[cis2.MaturityOfParams](raw)
	case cis2.EntrypointIsVerified:
		return decodeInto[cis2.IsVerifiedParams](raw)
	case cis2.EntrypointIsVerifier:
		return decodeInto[cis2.IsVerifierParams](raw)
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
