package gate

import (
	"errors"
	"testing"

	"assetledger/core/state"
	"assetledger/core/types"
	"assetledger/storage"
)

func newTestGate(mode Mode) *Gate {
	return New(state.NewManager(state.NewOverlay(storage.NewMemDB())), mode)
}

// TestComplementarity checks that every combination of maturity and
// verification permits exactly one burn path, at every simulated time.
func TestComplementarity(t *testing.T) {
	for _, mode := range []Mode{ModeMaturityOnly, ModeMaturityAndVerification} {
		for _, verified := range []bool{false, true} {
			for _, maturity := range []types.Timestamp{0, 1, 500, 1000} {
				for now := types.Timestamp(0); now <= 1500; now += 50 {
					mature := maturity <= now
					retire, retract := Eligibility(mature, verified, mode)
					if retire == retract {
						t.Fatalf("mode %s verified=%v mature=%v: retire=%v retract=%v", mode, verified, mature, retire, retract)
					}
					retireErr := CheckRetire(mature, verified, mode)
					retractErr := CheckRetract(mature, verified, mode)
					if (retireErr == nil) == (retractErr == nil) {
						t.Fatalf("checks disagree: retire=%v retract=%v", retireErr, retractErr)
					}
					if (retireErr == nil) != retire {
						t.Fatalf("CheckRetire disagrees with Eligibility")
					}
				}
			}
		}
	}
}

func TestCheckRetireReasons(t *testing.T) {
	if err := CheckRetire(false, true, ModeMaturityAndVerification); !errors.Is(err, ErrTokenNotMature) {
		t.Fatalf("expected not mature, got %v", err)
	}
	if err := CheckRetire(true, false, ModeMaturityAndVerification); !errors.Is(err, ErrTokenNotVerified) {
		t.Fatalf("expected not verified, got %v", err)
	}
	if err := CheckRetire(true, false, ModeMaturityOnly); err != nil {
		t.Fatalf("maturity-only mode ignores verification: %v", err)
	}
	if err := CheckRetract(true, true, ModeMaturityAndVerification); !errors.Is(err, ErrTokenVerifiedOrMature) {
		t.Fatalf("expected verified or mature, got %v", err)
	}
}

func TestMaturityIsSetOnce(t *testing.T) {
	g := newTestGate(ModeMaturityAndVerification)
	if _, err := g.IsMature(1, 10); !errors.Is(err, ErrInvalidTokenID) {
		t.Fatalf("expected unknown token, got %v", err)
	}
	if err := g.SetMaturity(1, 100); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := g.SetMaturity(1, 50); !errors.Is(err, ErrMaturityAlreadySet) {
		t.Fatalf("expected immutable maturity, got %v", err)
	}
	if mature, _ := g.IsMature(1, 99); mature {
		t.Fatalf("token mature too early")
	}
	if mature, _ := g.IsMature(1, 100); !mature {
		t.Fatalf("token must be mature at its timestamp")
	}
}

func TestVerifierSet(t *testing.T) {
	g := newTestGate(ModeMaturityAndVerification)
	verifier := types.AccountOf(types.AccountFromSeed("verifier"))
	_ = g.SetMaturity(1, 100)

	if err := g.Verify(1, verifier); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := g.AddVerifier(verifier); err != nil {
		t.Fatalf("add verifier: %v", err)
	}
	if err := g.Verify(1, verifier); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if by, ok, _ := g.VerifiedBy(1); !ok || by != verifier {
		t.Fatalf("unexpected verifier %v", by)
	}
	if err := g.CheckRetire(1, 100); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if err := g.CheckRetract(1, 100); !errors.Is(err, ErrTokenVerifiedOrMature) {
		t.Fatalf("retract: %v", err)
	}
	if err := g.CheckRetract(1, 99); err != nil {
		t.Fatalf("retract before maturity: %v", err)
	}

	list, _ := g.Verifiers()
	if len(list) != 1 {
		t.Fatalf("unexpected verifiers %v", list)
	}
	if err := g.RemoveVerifier(verifier); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ok, _ := g.IsVerifier(verifier); ok {
		t.Fatalf("verifier still authorized")
	}
	if verified, _ := g.IsVerified(1); !verified {
		t.Fatalf("removing a verifier must not undo verifications")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("maturity"); err != nil || m != ModeMaturityOnly {
		t.Fatalf("parse maturity: %v %v", m, err)
	}
	if m, err := ParseMode(ModeMaturityAndVerification.String()); err != nil || m != ModeMaturityAndVerification {
		t.Fatalf("parse round trip: %v %v", m, err)
	}
	if _, err := ParseMode("sometimes"); err == nil {
		t.Fatalf("expected error")
	}
}
