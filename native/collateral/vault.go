package collateral

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/bits"

	coreerrors "assetledger/core/errors"
	"assetledger/core/state"
	"assetledger/core/types"
)

var (
	ErrInvalidCollateral  = coreerrors.ErrInvalidCollateral
	ErrTokenAlreadyMinted = coreerrors.ErrTokenAlreadyMinted
	ErrOverflow           = coreerrors.ErrOverflow
)

var (
	recordPrefix = []byte("record/")
	mintedPrefix = []byte("minted/")
	indexKey     = []byte("index")
)

const keyLength = 16 + 4 + 32

// Key identifies one depositor's stream of an external token.
type Key struct {
	Contract types.ContractAddress `json:"contract"`
	TokenID  types.TokenID         `json:"tokenId"`
	Owner    types.AccountAddress  `json:"owner"`
}

func (k Key) bytes() []byte {
	buf := make([]byte, keyLength)
	binary.BigEndian.PutUint64(buf[0:8], k.Contract.Index)
	binary.BigEndian.PutUint64(buf[8:16], k.Contract.SubIndex)
	binary.BigEndian.PutUint32(buf[16:20], uint32(k.TokenID))
	copy(buf[20:], k.Owner[:])
	return buf
}

func keyFromBytes(raw []byte) (Key, error) {
	if len(raw) != keyLength {
		return Key{}, fmt.Errorf("collateral: corrupt key of length %d", len(raw))
	}
	var k Key
	k.Contract.Index = binary.BigEndian.Uint64(raw[0:8])
	k.Contract.SubIndex = binary.BigEndian.Uint64(raw[8:16])
	k.TokenID = types.TokenID(binary.BigEndian.Uint32(raw[16:20]))
	copy(k.Owner[:], raw[20:])
	return k, nil
}

// Record is the deposited amount and the local token it backs, if any.
type Record struct {
	Received      types.Amount  `json:"received"`
	Linked        bool          `json:"linked"`
	MintedTokenID types.TokenID `json:"mintedTokenId"`
}

// LinkedTo reports whether the record backs the given token.
func (r Record) LinkedTo(id types.TokenID) bool {
	return r.Linked && r.MintedTokenID == id
}

type storedRecord struct {
	Received uint64
	Linked   bool
	Minted   uint32
}

// Entry pairs a key with its record.
type Entry struct {
	Key    Key    `json:"key"`
	Record Record `json:"record"`
}

// Vault holds collateral deposited from other token contracts.
type Vault struct {
	mgr *state.Manager
}

// New binds a vault to the contract state.
func New(mgr *state.Manager) *Vault {
	return &Vault{mgr: mgr.Sub("collateral/")}
}

func recordKey(k Key) []byte {
	return append(append([]byte(nil), recordPrefix...), k.bytes()...)
}

func mintedKey(id types.TokenID) []byte {
	buf := make([]byte, len(mintedPrefix)+4)
	copy(buf, mintedPrefix)
	binary.BigEndian.PutUint32(buf[len(mintedPrefix):], uint32(id))
	return buf
}

// Get returns the record at key.
func (v *Vault) Get(k Key) (Record, bool, error) {
	var stored storedRecord
	ok, err := v.mgr.KVGet(recordKey(k), &stored)
	if err != nil || !ok {
		return Record{}, false, err
	}
	return Record{Received: types.Amount(stored.Received), Linked: stored.Linked, MintedTokenID: types.TokenID(stored.Minted)}, true, nil
}

func (v *Vault) put(k Key, r Record) error {
	return v.mgr.KVPut(recordKey(k), storedRecord{Received: uint64(r.Received), Linked: r.Linked, Minted: uint32(r.MintedTokenID)})
}

// RecordDeposit accumulates a deposit, creating an unlinked record on first
// use.
func (v *Vault) RecordDeposit(k Key, amount types.Amount) (Record, error) {
	rec, ok, err := v.Get(k)
	if err != nil {
		return Record{}, err
	}
	sum, carry := bits.Add64(uint64(rec.Received), uint64(amount), 0)
	if carry != 0 {
		return Record{}, coreerrors.Wrap(ErrOverflow, "collateral received")
	}
	rec.Received = types.Amount(sum)
	if !ok {
		if err := v.mgr.KVAppend(indexKey, k.bytes()); err != nil {
			return Record{}, err
		}
	}
	if err := v.put(k, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// CheckLink validates that key may back token id without writing anything.
func (v *Vault) CheckLink(k Key, id types.TokenID) (Record, error) {
	rec, ok, err := v.Get(k)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, coreerrors.Wrap(ErrInvalidCollateral, "no deposit for %s/%d", k.Contract, k.TokenID)
	}
	if rec.Linked && rec.MintedTokenID != id {
		return Record{}, coreerrors.Wrap(ErrInvalidCollateral, "deposit already backs token %d", rec.MintedTokenID)
	}
	holder, linked, err := v.linkedKey(id)
	if err != nil {
		return Record{}, err
	}
	if linked && !bytes.Equal(holder.bytes(), k.bytes()) {
		return Record{}, coreerrors.Wrap(ErrTokenAlreadyMinted, "token %d backed by another deposit", id)
	}
	return rec, nil
}

// Link marks the record as backing token id. Linking again to the same token
// is allowed so a deposit can be minted incrementally.
func (v *Vault) Link(k Key, id types.TokenID) error {
	rec, err := v.CheckLink(k, id)
	if err != nil {
		return err
	}
	if rec.LinkedTo(id) {
		return nil
	}
	rec.Linked = true
	rec.MintedTokenID = id
	if err := v.put(k, rec); err != nil {
		return err
	}
	return v.mgr.KVPut(mintedKey(id), k.bytes())
}

// Unlink removes the record entirely.
func (v *Vault) Unlink(k Key) error {
	rec, ok, err := v.Get(k)
	if err != nil {
		return err
	}
	if !ok {
		return coreerrors.Wrap(ErrInvalidCollateral, "no deposit for %s/%d", k.Contract, k.TokenID)
	}
	if rec.Linked {
		if err := v.mgr.KVDelete(mintedKey(rec.MintedTokenID)); err != nil {
			return err
		}
	}
	if err := v.mgr.KVDelete(recordKey(k)); err != nil {
		return err
	}
	return v.mgr.KVRemove(indexKey, k.bytes())
}

func (v *Vault) linkedKey(id types.TokenID) (Key, bool, error) {
	var raw []byte
	ok, err := v.mgr.KVGet(mintedKey(id), &raw)
	if err != nil || !ok {
		return Key{}, false, err
	}
	k, err := keyFromBytes(raw)
	if err != nil {
		return Key{}, false, err
	}
	return k, true, nil
}

// FindByMintedToken returns the deposit backing token id.
func (v *Vault) FindByMintedToken(id types.TokenID) (Key, Record, error) {
	k, ok, err := v.linkedKey(id)
	if err != nil {
		return Key{}, Record{}, err
	}
	if !ok {
		return Key{}, Record{}, coreerrors.Wrap(ErrInvalidCollateral, "token %d has no collateral", id)
	}
	rec, ok, err := v.Get(k)
	if err != nil {
		return Key{}, Record{}, err
	}
	if !ok || !rec.LinkedTo(id) {
		return Key{}, Record{}, coreerrors.Wrap(ErrInvalidCollateral, "token %d has no collateral", id)
	}
	return k, rec, nil
}

// Records lists every deposit in insertion order.
func (v *Vault) Records() ([]Entry, error) {
	raw, err := v.mgr.KVList(indexKey)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(raw))
	for _, b := range raw {
		k, err := keyFromBytes(b)
		if err != nil {
			return nil, err
		}
		rec, ok, err := v.Get(k)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Entry{Key: k, Record: rec})
		}
	}
	return out, nil
}
