package fractionalizer

import (
	"assetledger/core/cis2"
	coreerrors "assetledger/core/errors"
	"assetledger/native/collateral"
)

// mint issues local tokens against collateral deposited by the sender.
func (in *instance) mint(params MintParams) error {
	sender := in.ctx.Sender()
	if !sender.IsAccount() {
		return coreerrors.ErrAccountsOnly
	}
	seen := make(map[uint32]struct{}, len(params.Tokens))
	for _, tok := range params.Tokens {
		if _, dup := seen[uint32(tok.TokenID)]; dup {
			return coreerrors.Wrap(coreerrors.ErrParseParams, "token %d listed twice", tok.TokenID)
		}
		seen[uint32(tok.TokenID)] = struct{}{}
		// A zero mint would tie the deposit to a token with no supply.
		if tok.Amount == 0 {
			return coreerrors.Wrap(coreerrors.ErrParseParams, "token %d: zero amount", tok.TokenID)
		}
	}

	for _, tok := range params.Tokens {
		key := collateral.Key{Contract: tok.Contract, TokenID: tok.ContractTokenID, Owner: sender.Account}
		rec, err := in.vault.CheckLink(key, tok.TokenID)
		if err != nil {
			return err
		}
		supply, err := in.ledger.SupplyOf(tok.TokenID)
		if err != nil {
			return err
		}
		if supply > 0 && !rec.LinkedTo(tok.TokenID) {
			return coreerrors.Wrap(coreerrors.ErrTokenAlreadyMinted, "token %d", tok.TokenID)
		}

		if err := in.ledger.Mint(tok.TokenID, tok.Amount, params.Owner); err != nil {
			return err
		}
		if err := in.ledger.SetMetadata(tok.TokenID, tok.Metadata); err != nil {
			return err
		}
		if err := in.vault.Link(key, tok.TokenID); err != nil {
			return err
		}
		if err := in.ctx.Log(cis2.NewMintEvent(tok.TokenID, tok.Amount, params.Owner)); err != nil {
			return err
		}
		if err := in.ctx.Log(cis2.NewTokenMetadataEvent(tok.TokenID, tok.Metadata)); err != nil {
			return err
		}
	}
	return nil
}
