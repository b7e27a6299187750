package fractionalizer

import (
	"assetledger/core/cis2"
	coreerrors "assetledger/core/errors"
	"assetledger/core/types"
	"assetledger/native/gate"
)

// burn destroys the sender's own tokens.
func (in *instance) burn(params BurnParams) error {
	sender := in.ctx.Sender()
	balance, err := in.ledger.BalanceOf(params.TokenID, sender)
	if err != nil {
		return err
	}
	if balance == 0 || balance < params.Amount {
		return coreerrors.Wrap(coreerrors.ErrNoBalanceToBurn, "token %d balance %d", params.TokenID, balance)
	}
	return in.burnAndRelease(params.TokenID, params.Amount, sender, cis2.NewBurnEvent(params.TokenID, params.Amount, sender))
}

func (in *instance) selfBurnEvent(id types.TokenID, amount types.Amount, owner types.Address) *types.Event {
	if in.variant == VariantCarbon {
		return gate.NewRetireEvent(id, amount, owner)
	}
	return cis2.NewBurnEvent(id, amount, owner)
}

// transfer executes the transfers in order. A transfer addressed to this
// contract burns the tokens instead.
func (in *instance) transfer(params cis2.TransferParams) error {
	sender := in.ctx.Sender()
	self := in.self()
	for _, t := range params {
		if t.From != sender {
			return coreerrors.Wrap(coreerrors.ErrUnauthorized, "%s cannot move tokens of %s", sender, t.From)
		}
		if t.To.Address == self {
			if err := in.burnAndRelease(t.TokenID, t.Amount, t.From, in.selfBurnEvent(t.TokenID, t.Amount, t.From)); err != nil {
				return err
			}
			continue
		}
		if err := in.ledger.Transfer(t.TokenID, t.Amount, t.From, t.To.Address); err != nil {
			return err
		}
		if err := in.ctx.Log(cis2.NewTransferEvent(t.TokenID, t.Amount, t.From, t.To.Address)); err != nil {
			return err
		}
		hook := cis2.OnReceivingParams{TokenID: t.TokenID, Amount: t.Amount, From: t.From, Data: t.Data}
		if err := in.client.NotifyReceiver(t.To, hook); err != nil {
			return err
		}
	}
	return nil
}
