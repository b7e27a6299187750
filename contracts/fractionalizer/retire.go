package fractionalizer

import (
	"fmt"

	"assetledger/core/cis2"
	coreerrors "assetledger/core/errors"
	"assetledger/core/types"
	"assetledger/native/gate"
)

// collateralStatus reads maturity and verification of the collateral behind
// a local token from the contract that issued it.
func (in *instance) collateralStatus(id types.TokenID) (mature, verified bool, err error) {
	key, err := in.backing(id)
	if err != nil {
		return false, false, err
	}
	maturity, err := in.client.MaturityOf(key.TokenID, key.Contract)
	if err != nil {
		return false, false, err
	}
	verified, err = in.client.IsVerified(key.TokenID, key.Contract)
	if err != nil {
		return false, false, err
	}
	return maturity <= in.ctx.SlotTime(), verified, nil
}

func (in *instance) senderIsVerifier() (bool, error) {
	contracts, err := in.verifierContracts()
	if err != nil {
		return false, err
	}
	sender := in.ctx.Sender()
	for _, vc := range contracts {
		ok, err := in.client.IsVerifier(sender, vc)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// retire permanently burns mature, verified credits held by the sender.
func (in *instance) retire(params RetireParams) error {
	if in.ctx.Sender() != params.Owner {
		return coreerrors.Wrap(coreerrors.ErrUnauthorized, "only the owner may retire")
	}
	for _, tok := range params.Tokens {
		mature, verified, err := in.collateralStatus(tok.TokenID)
		if err != nil {
			return err
		}
		if err := gate.CheckRetire(mature, verified, gateMode); err != nil {
			return fmt.Errorf("token %d: %w", tok.TokenID, err)
		}
		if err := in.burnAndRelease(tok.TokenID, tok.Amount, params.Owner, gate.NewRetireEvent(tok.TokenID, tok.Amount, params.Owner)); err != nil {
			return err
		}
	}
	return nil
}

// retract burns credits whose collateral is immature or unverified. The
// owner or an account recognised by a verifier contract may retract.
func (in *instance) retract(params RetireParams) error {
	if in.ctx.Sender() != params.Owner {
		ok, err := in.senderIsVerifier()
		if err != nil {
			return err
		}
		if !ok {
			return coreerrors.Wrap(coreerrors.ErrUnauthorized, "only the owner or a verifier may retract")
		}
	}
	for _, tok := range params.Tokens {
		mature, verified, err := in.collateralStatus(tok.TokenID)
		if err != nil {
			return err
		}
		if err := gate.CheckRetract(mature, verified, gateMode); err != nil {
			return fmt.Errorf("token %d: %w", tok.TokenID, err)
		}
		if err := in.ctx.Log(gate.NewRetractEvent(tok.TokenID, tok.Amount, params.Owner)); err != nil {
			return err
		}
		if err := in.burnAndRelease(tok.TokenID, tok.Amount, params.Owner, cis2.NewBurnEvent(tok.TokenID, tok.Amount, params.Owner)); err != nil {
			return err
		}
	}
	return nil
}
