package gate

import (
	"encoding/binary"
	"fmt"

	coreerrors "assetledger/core/errors"
	"assetledger/core/state"
	"assetledger/core/types"
)

var (
	ErrInvalidTokenID        = coreerrors.ErrInvalidTokenID
	ErrUnauthorized          = coreerrors.ErrUnauthorized
	ErrTokenNotMature        = coreerrors.ErrTokenNotMature
	ErrTokenNotVerified      = coreerrors.ErrTokenNotVerified
	ErrTokenVerifiedOrMature = coreerrors.ErrTokenVerifiedOrMature
	ErrMaturityAlreadySet    = coreerrors.New(coreerrors.KindDomain, "MaturityAlreadySet", "maturity already set")
)

// Mode selects which conditions make a token retire-eligible.
type Mode uint8

const (
	// ModeMaturityOnly retires any mature token.
	ModeMaturityOnly Mode = iota
	// ModeMaturityAndVerification additionally requires a verification.
	ModeMaturityAndVerification
)

func (m Mode) String() string {
	if m == ModeMaturityOnly {
		return "maturity"
	}
	return "maturity+verification"
}

// ParseMode accepts the names produced by Mode.String plus the short forms
// used in configuration files.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "maturity+verification", "verification", "verified":
		return ModeMaturityAndVerification, nil
	case "maturity", "maturity-only":
		return ModeMaturityOnly, nil
	default:
		return 0, fmt.Errorf("gate: unknown mode %q", s)
	}
}

// Eligibility reports which burn path a token may take. Exactly one of the
// two results is true.
func Eligibility(mature, verified bool, mode Mode) (retire, retract bool) {
	retire = mature && (verified || mode == ModeMaturityOnly)
	return retire, !retire
}

// CheckRetire returns the reason a token may not be retired, if any.
func CheckRetire(mature, verified bool, mode Mode) error {
	if !mature {
		return ErrTokenNotMature
	}
	if mode == ModeMaturityAndVerification && !verified {
		return ErrTokenNotVerified
	}
	return nil
}

// CheckRetract returns an error when the token is retire-eligible instead.
func CheckRetract(mature, verified bool, mode Mode) error {
	if _, retract := Eligibility(mature, verified, mode); !retract {
		return ErrTokenVerifiedOrMature
	}
	return nil
}

var (
	maturityPrefix = []byte("maturity/")
	verifiedPrefix = []byte("verified/")
	verifierPrefix = []byte("verifier/")
	verifierList   = []byte("verifiers")
)

// Status is the gate state of one token at a point in time.
type Status struct {
	Maturity types.Timestamp `json:"maturity"`
	Mature   bool            `json:"mature"`
	Verified bool            `json:"verified"`
}

// Gate stores per-token maturity and verification plus the verifier set.
type Gate struct {
	mgr  *state.Manager
	mode Mode
}

// New binds a gate to the contract state.
func New(mgr *state.Manager, mode Mode) *Gate {
	return &Gate{mgr: mgr.Sub("gate/"), mode: mode}
}

// Mode returns the configured eligibility mode.
func (g *Gate) Mode() Mode { return g.mode }

func tokenKey(prefix []byte, id types.TokenID) []byte {
	buf := make([]byte, len(prefix)+4)
	copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[len(prefix):], uint32(id))
	return buf
}

func verifierKey(addr types.Address) []byte {
	return append(append([]byte(nil), verifierPrefix...), addr.Bytes()...)
}

// SetMaturity records when a token matures. It can only be set once.
func (g *Gate) SetMaturity(id types.TokenID, ts types.Timestamp) error {
	if _, ok, err := g.Maturity(id); err != nil {
		return err
	} else if ok {
		return coreerrors.Wrap(ErrMaturityAlreadySet, "token %d", id)
	}
	return g.mgr.KVPut(tokenKey(maturityPrefix, id), uint64(ts))
}

// Maturity returns the maturity timestamp of a token.
func (g *Gate) Maturity(id types.TokenID) (types.Timestamp, bool, error) {
	var ts uint64
	ok, err := g.mgr.KVGet(tokenKey(maturityPrefix, id), &ts)
	if err != nil {
		return 0, false, err
	}
	return types.Timestamp(ts), ok, nil
}

// IsMature reports whether the token's maturity is at or before now.
func (g *Gate) IsMature(id types.TokenID, now types.Timestamp) (bool, error) {
	ts, ok, err := g.Maturity(id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, coreerrors.Wrap(ErrInvalidTokenID, "token %d has no maturity", id)
	}
	return ts <= now, nil
}

// Verify marks a token verified on behalf of an authorized verifier.
func (g *Gate) Verify(id types.TokenID, verifier types.Address) error {
	ok, err := g.IsVerifier(verifier)
	if err != nil {
		return err
	}
	if !ok {
		return coreerrors.Wrap(ErrUnauthorized, "%s is not a verifier", verifier)
	}
	return g.mgr.KVPut(tokenKey(verifiedPrefix, id), verifier.Bytes())
}

// IsVerified reports whether a token was verified.
func (g *Gate) IsVerified(id types.TokenID) (bool, error) {
	return g.mgr.KVGet(tokenKey(verifiedPrefix, id), nil)
}

// VerifiedBy returns the verifier that last verified the token.
func (g *Gate) VerifiedBy(id types.TokenID) (types.Address, bool, error) {
	var raw []byte
	ok, err := g.mgr.KVGet(tokenKey(verifiedPrefix, id), &raw)
	if err != nil || !ok {
		return types.Address{}, false, err
	}
	addr, err := types.AddressFromBytes(raw)
	if err != nil {
		return types.Address{}, false, err
	}
	return addr, true, nil
}

// Status reads maturity and verification of a token at now.
func (g *Gate) Status(id types.TokenID, now types.Timestamp) (Status, error) {
	ts, ok, err := g.Maturity(id)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{}, coreerrors.Wrap(ErrInvalidTokenID, "token %d has no maturity", id)
	}
	verified, err := g.IsVerified(id)
	if err != nil {
		return Status{}, err
	}
	return Status{Maturity: ts, Mature: ts <= now, Verified: verified}, nil
}

// CheckRetire validates that a token may be retired at now.
func (g *Gate) CheckRetire(id types.TokenID, now types.Timestamp) error {
	st, err := g.Status(id, now)
	if err != nil {
		return err
	}
	if err := CheckRetire(st.Mature, st.Verified, g.mode); err != nil {
		return fmt.Errorf("token %d: %w", id, err)
	}
	return nil
}

// CheckRetract validates that a token may be retracted at now.
func (g *Gate) CheckRetract(id types.TokenID, now types.Timestamp) error {
	st, err := g.Status(id, now)
	if err != nil {
		return err
	}
	if err := CheckRetract(st.Mature, st.Verified, g.mode); err != nil {
		return fmt.Errorf("token %d: %w", id, err)
	}
	return nil
}

// AddVerifier authorizes an address to verify tokens.
func (g *Gate) AddVerifier(addr types.Address) error {
	if err := g.mgr.KVPut(verifierKey(addr), true); err != nil {
		return err
	}
	return g.mgr.KVAppend(verifierList, addr.Bytes())
}

// RemoveVerifier revokes a verifier. Earlier verifications stay in place.
func (g *Gate) RemoveVerifier(addr types.Address) error {
	if err := g.mgr.KVDelete(verifierKey(addr)); err != nil {
		return err
	}
	return g.mgr.KVRemove(verifierList, addr.Bytes())
}

// IsVerifier reports verifier set membership.
func (g *Gate) IsVerifier(addr types.Address) (bool, error) {
	return g.mgr.KVGet(verifierKey(addr), nil)
}

// Verifiers lists the verifier set in insertion order.
func (g *Gate) Verifiers() ([]types.Address, error) {
	raw, err := g.mgr.KVList(verifierList)
	if err != nil {
		return nil, err
	}
	out := make([]types.Address, 0, len(raw))
	for _, b := range raw {
		addr, err := types.AddressFromBytes(b)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
