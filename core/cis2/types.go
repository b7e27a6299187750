package cis2

import (
	"encoding/hex"
	"strings"

	"assetledger/core/types"
)

// StandardIdentifier names the token standard implemented by the ledgers.
const StandardIdentifier = "CIS-2"

// Entrypoints understood by CIS-2 token contracts, plus the maturity and
// verification queries exposed by project tokens.
const (
	EntrypointTransfer       = "transfer"
	EntrypointUpdateOperator = "updateOperator"
	EntrypointBalanceOf      = "balanceOf"
	EntrypointOperatorOf     = "operatorOf"
	EntrypointTokenMetadata  = "tokenMetadata"
	EntrypointSupports       = "supports"
	EntrypointOnReceiving    = "onReceivingCIS2"
	EntrypointMaturityOf     = "maturityOf"
	EntrypointIsVerified     = "isVerified"
	EntrypointIsVerifier     = "isVerifier"
)

// AdditionalData is opaque payload forwarded with transfers. It is rendered
// as hex in JSON.
type AdditionalData []byte

func (d AdditionalData) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(d)), nil
}

func (d *AdditionalData) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(strings.TrimPrefix(string(text), "0x"))
	if err != nil {
		return err
	}
	*d = decoded
	return nil
}

// Receiver is the destination of a transfer. Contract receivers are notified
// on the named entrypoint.
type Receiver struct {
	Address    types.Address `json:"address"`
	Entrypoint string        `json:"entrypoint,omitempty"`
}

// AccountReceiver builds a receiver for an account.
func AccountReceiver(a types.AccountAddress) Receiver {
	return Receiver{Address: types.AccountOf(a)}
}

// ContractReceiver builds a receiver for a contract hook.
func ContractReceiver(c types.ContractAddress, entrypoint string) Receiver {
	return Receiver{Address: types.ContractOf(c), Entrypoint: entrypoint}
}

type Transfer struct {
	TokenID types.TokenID  `json:"tokenId"`
	Amount  types.Amount   `json:"amount"`
	From    types.Address  `json:"from"`
	To      Receiver       `json:"to"`
	Data    AdditionalData `json:"data,omitempty"`
}

type TransferParams []Transfer

type OperatorUpdate struct {
	Add      bool          `json:"add"`
	Operator types.Address `json:"operator"`
}

type UpdateOperatorParams []OperatorUpdate

type BalanceOfQuery struct {
	TokenID types.TokenID `json:"tokenId"`
	Address types.Address `json:"address"`
}

type BalanceOfParams []BalanceOfQuery

type BalanceOfResponse []types.Amount

type OperatorOfQuery struct {
	Owner   types.Address `json:"owner"`
	Address types.Address `json:"address"`
}

type OperatorOfParams []OperatorOfQuery

type OperatorOfResponse []bool

type TokenMetadataParams []types.TokenID

type TokenMetadataResponse []types.MetadataURL

type SupportsParams []string

// SupportKind reports whether a contract implements a standard itself or
// delegates to another contract.
type SupportKind uint8

const (
	NoSupport SupportKind = iota
	Support
	SupportBy
)

type SupportResult struct {
	Kind SupportKind             `json:"kind"`
	By   []types.ContractAddress `json:"by,omitempty"`
}

type SupportsResponse []SupportResult

// OnReceivingParams is delivered to a contract receiving tokens.
type OnReceivingParams struct {
	TokenID types.TokenID  `json:"tokenId"`
	Amount  types.Amount   `json:"amount"`
	From    types.Address  `json:"from"`
	Data    AdditionalData `json:"data,omitempty"`
}

type MaturityOfParams []types.TokenID

type MaturityOfResponse []types.Timestamp

type IsVerifiedParams []types.TokenID

type IsVerifiedResponse []bool

type IsVerifierParams []types.Address

type IsVerifierResponse []bool

// SupportsStandards answers a supports query for a contract implementing the
// listed standards directly.
func SupportsStandards(params SupportsParams, implemented ...string) SupportsResponse {
	out := make(SupportsResponse, len(params))
	for i, std := range params {
		for _, impl := range implemented {
			if std == impl {
				out[i] = SupportResult{Kind: Support}
				break
			}
		}
	}
	return out
}
