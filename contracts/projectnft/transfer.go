package projectnft

import (
	"assetledger/core/cis2"
	coreerrors "assetledger/core/errors"
)

// transfer moves tokens owned by the sender and notifies contract receivers.
func (in *instance) transfer(params cis2.TransferParams) error {
	sender := in.ctx.Sender()
	for _, t := range params {
		if t.From != sender {
			return coreerrors.Wrap(coreerrors.ErrUnauthorized, "%s cannot move tokens of %s", sender, t.From)
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
