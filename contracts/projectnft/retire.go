package projectnft

import (
	coreerrors "assetledger/core/errors"
	"assetledger/core/types"
	"assetledger/native/gate"
)

func (in *instance) burnOne(id types.TokenID, owner types.Address, evt *types.Event) error {
	balance, err := in.ledger.BalanceOf(id, owner)
	if err != nil {
		return err
	}
	if balance == 0 {
		return coreerrors.Wrap(coreerrors.ErrUnauthorized, "%s does not hold token %d", owner, id)
	}
	if _, err := in.ledger.Burn(id, 1, owner); err != nil {
		return err
	}
	return in.ctx.Log(evt)
}

// retire burns mature tokens of the sender that are eligible under the gate
// mode.
func (in *instance) retire(params BurnParams) error {
	if in.ctx.Sender() != params.Owner {
		return coreerrors.Wrap(coreerrors.ErrUnauthorized, "only the owner may retire")
	}
	now := in.ctx.SlotTime()
	for _, id := range params.Tokens {
		if err := in.requireToken(id); err != nil {
			return err
		}
		if err := in.gate.CheckRetire(id, now); err != nil {
			return err
		}
		if err := in.burnOne(id, params.Owner, gate.NewRetireEvent(id, 1, params.Owner)); err != nil {
			return err
		}
	}
	return nil
}

// retract burns tokens that are not retire-eligible. The holder or any
// verifier may retract.
func (in *instance) retract(params BurnParams) error {
	sender := in.ctx.Sender()
	if sender != params.Owner {
		ok, err := in.gate.IsVerifier(sender)
		if err != nil {
			return err
		}
		if !ok {
			return coreerrors.Wrap(coreerrors.ErrUnauthorized, "only the owner or a verifier may retract")
		}
	}
	now := in.ctx.SlotTime()
	for _, id := range params.Tokens {
		if err := in.requireToken(id); err != nil {
			return err
		}
		if err := in.gate.CheckRetract(id, now); err != nil {
			return err
		}
		if err := in.burnOne(id, params.Owner, gate.NewRetractEvent(id, 1, params.Owner)); err != nil {
			return err
		}
	}
	return nil
}
