package cis2

import (
	"fmt"

	coreerrors "assetledger/core/errors"
	"assetledger/core/types"
)

// Invoker issues cross-contract calls. host.Context satisfies it.
type Invoker interface {
	InvokeContract(to types.ContractAddress, entrypoint string, param any, amount types.Amount) (any, error)
	InvokeContractReadOnly(to types.ContractAddress, entrypoint string, param any) (any, error)
}

// Client talks to other token contracts on behalf of the calling contract.
// Failures are surfaced unchanged in class and never retried.
type Client struct {
	inv Invoker
}

// NewClient creates a client bound to the calling contract's invoker.
func NewClient(inv Invoker) *Client {
	return &Client{inv: inv}
}

func (c *Client) query(contract types.ContractAddress, entrypoint string, param any) (any, error) {
	ret, err := c.inv.InvokeContractReadOnly(contract, entrypoint, param)
	if err != nil {
		return nil, fmt.Errorf("cis2: %s on %s: %w", entrypoint, contract, err)
	}
	if ret == nil {
		return nil, coreerrors.Wrap(coreerrors.ErrParseResult, "%s on %s returned nothing", entrypoint, contract)
	}
	return ret, nil
}

func parseResult(entrypoint string, contract types.ContractAddress) error {
	return coreerrors.Wrap(coreerrors.ErrParseResult, "%s on %s", entrypoint, contract)
}

// Supports reports which contract implements CIS-2 for the given contract,
// following a SupportBy redirection. ok is false when the standard is not
// supported at all.
func (c *Client) Supports(contract types.ContractAddress) (target types.ContractAddress, ok bool, err error) {
	ret, err := c.query(contract, EntrypointSupports, SupportsParams{StandardIdentifier})
	if err != nil {
		return types.ContractAddress{}, false, err
	}
	resp, valid := ret.(SupportsResponse)
	if !valid || len(resp) != 1 {
		return types.ContractAddress{}, false, parseResult(EntrypointSupports, contract)
	}
	switch resp[0].Kind {
	case Support:
		return contract, true, nil
	case SupportBy:
		if len(resp[0].By) == 0 {
			return types.ContractAddress{}, false, parseResult(EntrypointSupports, contract)
		}
		return resp[0].By[0], true, nil
	default:
		return types.ContractAddress{}, false, nil
	}
}

// IsOperatorOf reports whether candidate may act for owner on the contract.
func (c *Client) IsOperatorOf(owner, candidate types.Address, contract types.ContractAddress) (bool, error) {
	ret, err := c.query(contract, EntrypointOperatorOf, OperatorOfParams{{Owner: owner, Address: candidate}})
	if err != nil {
		return false, err
	}
	resp, valid := ret.(OperatorOfResponse)
	if !valid || len(resp) != 1 {
		return false, parseResult(EntrypointOperatorOf, contract)
	}
	return resp[0], nil
}

// BalanceOf returns the balance owner holds of token on the contract.
func (c *Client) BalanceOf(token types.TokenID, contract types.ContractAddress, owner types.Address) (types.Amount, error) {
	ret, err := c.query(contract, EntrypointBalanceOf, BalanceOfParams{{TokenID: token, Address: owner}})
	if err != nil {
		return 0, err
	}
	resp, valid := ret.(BalanceOfResponse)
	if !valid || len(resp) != 1 {
		return 0, parseResult(EntrypointBalanceOf, contract)
	}
	return resp[0], nil
}

// TokenMetadata returns the metadata URL of a token on the contract.
func (c *Client) TokenMetadata(token types.TokenID, contract types.ContractAddress) (types.MetadataURL, error) {
	ret, err := c.query(contract, EntrypointTokenMetadata, TokenMetadataParams{token})
	if err != nil {
		return types.MetadataURL{}, err
	}
	resp, valid := ret.(TokenMetadataResponse)
	if !valid || len(resp) != 1 {
		return types.MetadataURL{}, parseResult(EntrypointTokenMetadata, contract)
	}
	return resp[0], nil
}

// Transfer moves amount of token on the contract after confirming that it
// speaks CIS-2.
func (c *Client) Transfer(token types.TokenID, contract types.ContractAddress, amount types.Amount, from types.Address, to Receiver, data AdditionalData) error {
	target, ok, err := c.Supports(contract)
	if err != nil {
		return err
	}
	if !ok {
		return coreerrors.Wrap(coreerrors.ErrCIS2NotSupported, "%s", contract)
	}
	params := TransferParams{{TokenID: token, Amount: amount, From: from, To: to, Data: data}}
	if _, err := c.inv.InvokeContract(target, EntrypointTransfer, params, 0); err != nil {
		return fmt.Errorf("cis2: transfer on %s: %w", target, err)
	}
	return nil
}

// MaturityOf returns the maturity timestamp of a token on the contract.
func (c *Client) MaturityOf(token types.TokenID, contract types.ContractAddress) (types.Timestamp, error) {
	ret, err := c.query(contract, EntrypointMaturityOf, MaturityOfParams{token})
	if err != nil {
		return 0, err
	}
	resp, valid := ret.(MaturityOfResponse)
	if !valid || len(resp) != 1 {
		return 0, parseResult(EntrypointMaturityOf, contract)
	}
	return resp[0], nil
}

// IsVerified reports whether a token on the contract has been verified.
func (c *Client) IsVerified(token types.TokenID, contract types.ContractAddress) (bool, error) {
	ret, err := c.query(contract, EntrypointIsVerified, IsVerifiedParams{token})
	if err != nil {
		return false, err
	}
	resp, valid := ret.(IsVerifiedResponse)
	if !valid || len(resp) != 1 {
		return false, parseResult(EntrypointIsVerified, contract)
	}
	return resp[0], nil
}

// IsVerifier reports whether addr is an authorized verifier on the contract.
func (c *Client) IsVerifier(addr types.Address, contract types.ContractAddress) (bool, error) {
	ret, err := c.query(contract, EntrypointIsVerifier, IsVerifierParams{addr})
	if err != nil {
		return false, err
	}
	resp, valid := ret.(IsVerifierResponse)
	if !valid || len(resp) != 1 {
		return false, parseResult(EntrypointIsVerifier, contract)
	}
	return resp[0], nil
}

// NotifyReceiver delivers the receive hook to a contract receiver. Account
// receivers are left alone.
func (c *Client) NotifyReceiver(to Receiver, params OnReceivingParams) error {
	if !to.Address.IsContract() {
		return nil
	}
	entrypoint := to.Entrypoint
	if entrypoint == "" {
		entrypoint = EntrypointOnReceiving
	}
	if _, err := c.inv.InvokeContract(to.Address.Contract, entrypoint, params, 0); err != nil {
		return fmt.Errorf("cis2: notify %s: %w", to.Address, err)
	}
	return nil
}
