package projectnft

import (
	"assetledger/core/cis2"
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

func (in *instance) maturityOf(params cis2.MaturityOfParams) (cis2.MaturityOfResponse, error) {
	out := make(cis2.MaturityOfResponse, 0, len(params))
	for _, id := range params {
		if err := in.requireToken(id); err != nil {
			return nil, err
		}
		ts, _, err := in.gate.Maturity(id)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

func (in *instance) isVerified(params cis2.IsVerifiedParams) (cis2.IsVerifiedResponse, error) {
	out := make(cis2.IsVerifiedResponse, 0, len(params))
	for _, id := range params {
		if err := in.requireToken(id); err != nil {
			return nil, err
		}
		ok, err := in.gate.IsVerified(id)
		if err != nil {
			return nil, err
		}
		out = append(out, ok)
	}
	return out, nil
}

func (in *instance) isVerifier(params cis2.IsVerifierParams) (cis2.IsVerifierResponse, error) {
	out := make(cis2.IsVerifierResponse, 0, len(params))
	for _, addr := range params {
		ok, err := in.gate.IsVerifier(addr)
		if err != nil {
			return nil, err
		}
		out = append(out, ok)
	}
	return out, nil
}

func (in *instance) view() (*ViewResult, error) {
	ids, err := in.ledger.Tokens()
	if err != nil {
		return nil, err
	}
	res := &ViewResult{GateMode: in.gate.Mode().String(), Tokens: make([]TokenView, 0, len(ids))}
	for _, id := range ids {
		meta, err := in.ledger.Metadata(id)
		if err != nil {
			return nil, err
		}
		ts, _, err := in.gate.Maturity(id)
		if err != nil {
			return nil, err
		}
		tv := TokenView{TokenID: id, Metadata: meta, Maturity: ts}
		holders, err := in.ledger.Holders(id)
		if err != nil {
			return nil, err
		}
		if len(holders) > 0 {
			tv.Owner = &holders[0]
		}
		if by, ok, err := in.gate.VerifiedBy(id); err != nil {
			return nil, err
		} else if ok {
			tv.Verified = true
			tv.VerifiedBy = &by
		}
		res.Tokens = append(res.Tokens, tv)
	}
	if res.Verifiers, err = in.gate.Verifiers(); err != nil {
		return nil, err
	}
	return res, nil
}
