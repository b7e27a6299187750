package projectnft

import (
	"assetledger/core/cis2"
	"assetledger/native/gate"
)

// mint issues project tokens with sequential ids to params.Owner.
func (in *instance) mint(params MintParams) error {
	if err := in.requireOwner(); err != nil {
		return err
	}
	for _, spec := range params.Tokens {
		id, err := in.ledger.NextTokenID()
		if err != nil {
			return err
		}
		if err := in.ledger.Mint(id, 1, params.Owner); err != nil {
			return err
		}
		if err := in.ledger.SetMetadata(id, spec.Metadata); err != nil {
			return err
		}
		if err := in.gate.SetMaturity(id, spec.MaturityTime); err != nil {
			return err
		}
		if err := in.ctx.Log(cis2.NewMintEvent(id, 1, params.Owner)); err != nil {
			return err
		}
		if err := in.ctx.Log(cis2.NewTokenMetadataEvent(id, spec.Metadata)); err != nil {
			return err
		}
		if err := in.ctx.Log(gate.NewMaturityTimeEvent(id, spec.MaturityTime)); err != nil {
			return err
		}
	}
	return nil
}
