package projectnft

import (
	"assetledger/native/gate"
)

func (in *instance) addVerifier(params VerifierParams) error {
	if err := in.requireOwner(); err != nil {
		return err
	}
	if err := in.gate.AddVerifier(params.Verifier); err != nil {
		return err
	}
	return in.ctx.Log(gate.NewVerifierAddedEvent(params.Verifier))
}

func (in *instance) removeVerifier(params VerifierParams) error {
	if err := in.requireOwner(); err != nil {
		return err
	}
	if err := in.gate.RemoveVerifier(params.Verifier); err != nil {
		return err
	}
	return in.ctx.Log(gate.NewVerifierRemovedEvent(params.Verifier))
}

// verify records the sender's verification of a token. Only members of the
// verifier set may verify.
func (in *instance) verify(params VerifyParams) error {
	if err := in.requireToken(params.TokenID); err != nil {
		return err
	}
	sender := in.ctx.Sender()
	if err := in.gate.Verify(params.TokenID, sender); err != nil {
		return err
	}
	return in.ctx.Log(gate.NewVerificationEvent(params.TokenID, sender))
}
