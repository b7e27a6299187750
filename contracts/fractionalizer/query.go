package fractionalizer

import (
	"assetledger/core/cis2"
	coreerrors "assetledger/core/errors"
	"assetledger/core/types"
	"assetledger/native/collateral"
)

func (in *instance) balanceOf(params cis2.BalanceOfParams) (cis2.BalanceOfResponse, error) {
	out := make(cis2.BalanceOfResponse, 0, len(params))
	for _, q := range params {
		bal, err := in.ledger.BalanceOf(q.TokenID, q.Address)
		if err != nil {
			return nil, err
		}
		out = append(out, bal)
	}
	return out, nil
}

// operatorOf answers false for every query; operators are not supported.
func (in *instance) operatorOf(params cis2.OperatorOfParams) (cis2.OperatorOfResponse, error) {
	return make(cis2.OperatorOfResponse, len(params)), nil
}

func (in *instance) tokenMetadata(params cis2.TokenMetadataParams) (cis2.TokenMetadataResponse, error) {
	out := make(cis2.TokenMetadataResponse, 0, len(params))
	for _, id := range params {
		meta, err := in.ledger.Metadata(id)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, nil
}

func (in *instance) supports(params cis2.SupportsParams) (cis2.SupportsResponse, error) {
	return cis2.SupportsStandards(params, "CIS-0", cis2.StandardIdentifier), nil
}

// backing returns the collateral behind an existing local token.
func (in *instance) backing(id types.TokenID) (collateral.Key, error) {
	ok, err := in.ledger.Exists(id)
	if err != nil {
		return collateral.Key{}, err
	}
	if !ok {
		return collateral.Key{}, coreerrors.Wrap(coreerrors.ErrInvalidTokenID, "token %d", id)
	}
	key, _, err := in.vault.FindByMintedToken(id)
	return key, err
}

// isVerified proxies to the contract holding each token's collateral.
func (in *instance) isVerified(params cis2.IsVerifiedParams) (cis2.IsVerifiedResponse, error) {
	out := make(cis2.IsVerifiedResponse, 0, len(params))
	for _, id := range params {
		key, err := in.backing(id)
		if err != nil {
			return nil, err
		}
		verified, err := in.client.IsVerified(key.TokenID, key.Contract)
		if err != nil {
			return nil, err
		}
		out = append(out, verified)
	}
	return out, nil
}

// maturityOf proxies to the contract holding each token's collateral.
func (in *instance) maturityOf(params cis2.MaturityOfParams) (cis2.MaturityOfResponse, error) {
	out := make(cis2.MaturityOfResponse, 0, len(params))
	for _, id := range params {
		key, err := in.backing(id)
		if err != nil {
			return nil, err
		}
		ts, err := in.client.MaturityOf(key.TokenID, key.Contract)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

func (in *instance) view() (*ViewResult, error) {
	ids, err := in.ledger.Tokens()
	if err != nil {
		return nil, err
	}
	res := &ViewResult{Variant: in.variant.String(), Tokens: make([]TokenView, 0, len(ids))}
	for _, id := range ids {
		supply, err := in.ledger.SupplyOf(id)
		if err != nil {
			return nil, err
		}
		meta, err := in.ledger.Metadata(id)
		if err != nil {
			return nil, err
		}
		holders, err := in.ledger.Holders(id)
		if err != nil {
			return nil, err
		}
		tv := TokenView{TokenID: id, Supply: supply, Metadata: meta, Holders: make([]HolderBalance, 0, len(holders))}
		for _, h := range holders {
			bal, err := in.ledger.BalanceOf(id, h)
			if err != nil {
				return nil, err
			}
			tv.Holders = append(tv.Holders, HolderBalance{Address: h, Balance: bal})
		}
		res.Tokens = append(res.Tokens, tv)
	}
	if res.Collateral, err = in.vault.Records(); err != nil {
		return nil, err
	}
	if res.VerifierContracts, err = in.verifierContracts(); err != nil {
		return nil, err
	}
	return res, nil
}
