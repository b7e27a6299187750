package host

import (
	"encoding/json"

	"assetledger/core/state"
	"assetledger/core/types"
)

// Contract is the code behind a deployed instance. Parameters cross the host
// boundary as already-decoded Go values; DecodeParam turns JSON from the RPC
// surface into the value Receive expects for an entrypoint.
type Contract interface {
	Init(ctx Context, param any) error
	Receive(ctx Context, entrypoint string, param any) (any, error)
	DecodeParam(entrypoint string, raw json.RawMessage) (any, error)
}

// Context is the view a contract has of the call it is executing.
type Context interface {
	// Self is the address of the executing instance.
	Self() types.ContractAddress
	// Owner is the account that deployed the instance.
	Owner() types.AccountAddress
	// Sender is the immediate caller, an account or another contract.
	Sender() types.Address
	// Invoker is the account that signed the outermost call.
	Invoker() types.AccountAddress
	// Amount is the native currency attached to this call.
	Amount() types.Amount
	SlotTime() types.Timestamp
	State() state.KV
	SelfBalance() types.Amount
	Log(evt *types.Event) error
	InvokeContract(to types.ContractAddress, entrypoint string, param any, amount types.Amount) (any, error)
	InvokeContractReadOnly(to types.ContractAddress, entrypoint string, param any) (any, error)
	InvokeTransfer(to types.AccountAddress, amount types.Amount) error
}
