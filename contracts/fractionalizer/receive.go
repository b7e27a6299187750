package fractionalizer

import (
	"encoding/binary"

	"assetledger/core/cis2"
	coreerrors "assetledger/core/errors"
	"assetledger/core/types"
	"assetledger/native/collateral"
)

// maturityDataLength is the prefix of the hook data carrying the
// collateral's maturity as little-endian milliseconds.
const maturityDataLength = 8

// onReceiving records tokens sent to this contract as collateral of the
// depositing account.
func (in *instance) onReceiving(params cis2.OnReceivingParams) error {
	sender := in.ctx.Sender()
	if !sender.IsContract() {
		return coreerrors.ErrContractOnly
	}
	if !params.From.IsAccount() {
		return coreerrors.Wrap(coreerrors.ErrAccountsOnly, "collateral must come from an account")
	}
	if in.variant == VariantProject {
		if len(params.Data) < maturityDataLength {
			return coreerrors.Wrap(coreerrors.ErrParseParams, "maturity missing from data")
		}
		maturity := types.Timestamp(binary.LittleEndian.Uint64(params.Data[:maturityDataLength]))
		if maturity > in.ctx.SlotTime() {
			return coreerrors.Wrap(coreerrors.ErrInvalidCollateral, "collateral matures at %d", maturity)
		}
	}
	key := collateral.Key{Contract: sender.Contract, TokenID: params.TokenID, Owner: params.From.Account}
	if _, err := in.vault.RecordDeposit(key, params.Amount); err != nil {
		return err
	}
	return in.ctx.Log(collateral.NewAddedEvent(key, params.Amount))
}

// MaturityData encodes a maturity timestamp for the project variant's hook.
func MaturityData(ts types.Timestamp) cis2.AdditionalData {
	buf := make([]byte, maturityDataLength)
	binary.LittleEndian.PutUint64(buf, uint64(ts))
	return buf
}
