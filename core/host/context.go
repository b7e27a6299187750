package host

import (
	"errors"
	"fmt"

	coreerrors "assetledger/core/errors"
	"assetledger/core/state"
	"assetledger/core/types"
)

// callContext is the Context handed to a contract for one invocation frame.
type callContext struct {
	tx       *transaction
	self     types.ContractAddress
	owner    types.AccountAddress
	sender   types.Address
	amount   types.Amount
	readOnly bool
	logged   int
}

func (c *callContext) Self() types.ContractAddress   { return c.self }
func (c *callContext) Owner() types.AccountAddress   { return c.owner }
func (c *callContext) Sender() types.Address         { return c.sender }
func (c *callContext) Invoker() types.AccountAddress { return c.tx.invoker }
func (c *callContext) Amount() types.Amount          { return c.amount }
func (c *callContext) SlotTime() types.Timestamp     { return c.tx.slotTime }

func (c *callContext) State() state.KV {
	ns := state.ContractNamespace(c.tx.overlay, c.self)
	if c.readOnly {
		return state.ReadOnly(ns)
	}
	return ns
}

func (c *callContext) SelfBalance() types.Amount {
	balance, err := c.tx.ledger().balance(types.ContractOf(c.self))
	if err != nil {
		return 0
	}
	return balance
}

func (c *callContext) Log(evt *types.Event) error {
	if c.readOnly {
		return coreerrors.ErrReadOnly
	}
	if evt == nil || evt.Type == "" {
		return coreerrors.ErrLogMalformed
	}
	if c.logged >= c.tx.chain.limits.MaxEventsPerCall {
		return coreerrors.Wrap(coreerrors.ErrLogFull, "%s logged %d events", c.self, c.logged)
	}
	c.logged++
	c.tx.events = append(c.tx.events, LoggedEvent{
		Contract:   c.self,
		Type:       evt.Type,
		Attributes: evt.Clone().Attributes,
	})
	return nil
}

// collaboratorError classifies a failed nested call. A callee that does not
// exist or lacks the entrypoint rejected the call like any other collaborator;
// the remaining fatal failures keep their class and abort the transaction.
func collaboratorError(to types.ContractAddress, entrypoint string, err error) error {
	if coreerrors.IsFatal(err) && !rejectedByCallee(err) {
		return err
	}
	return fmt.Errorf("%w: %s.%s: %w", coreerrors.ErrInvokeContract, to, entrypoint, err)
}

func rejectedByCallee(err error) bool {
	return errors.Is(err, coreerrors.ErrUnknownContract) || errors.Is(err, coreerrors.ErrUnknownEntrypoint)
}

func (c *callContext) InvokeContract(to types.ContractAddress, entrypoint string, param any, amount types.Amount) (any, error) {
	if c.readOnly {
		return nil, coreerrors.ErrReadOnly
	}
	ret, err := c.tx.call(types.ContractOf(c.self), to, entrypoint, param, amount, false)
	if err != nil {
		return nil, collaboratorError(to, entrypoint, err)
	}
	return ret, nil
}

func (c *callContext) InvokeContractReadOnly(to types.ContractAddress, entrypoint string, param any) (any, error) {
	ret, err := c.tx.call(types.ContractOf(c.self), to, entrypoint, param, 0, true)
	if err != nil {
		return nil, collaboratorError(to, entrypoint, err)
	}
	return ret, nil
}

func (c *callContext) InvokeTransfer(to types.AccountAddress, amount types.Amount) error {
	if c.readOnly {
		return coreerrors.ErrReadOnly
	}
	if err := c.tx.ledger().move(types.ContractOf(c.self), types.AccountOf(to), amount); err != nil {
		if coreerrors.IsFatal(err) {
			return err
		}
		return fmt.Errorf("%w: %w", coreerrors.ErrInvokeTransfer, err)
	}
	return nil
}
