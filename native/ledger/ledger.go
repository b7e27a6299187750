package ledger

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	coreerrors "assetledger/core/errors"
	"assetledger/core/state"
	"assetledger/core/types"
)

// Policy selects the token flavour held by a ledger.
type Policy struct {
	// NonFungible caps every token at a supply of one.
	NonFungible bool
}

var (
	tokenPrefix   = []byte("token/")
	balancePrefix = []byte("balance/")
	holderPrefix  = []byte("holders/")
	metaPrefix    = []byte("meta/")
	tokenListKey  = []byte("tokens")
	nextTokenKey  = []byte("next")
)

type tokenRecord struct {
	Supply uint64
}

type metadataRecord struct {
	URL  string
	Hash string
}

// Ledger tracks balances and supply of the tokens minted by one contract.
// Every mutator validates fully before writing, so a returned error leaves
// the ledger untouched.
type Ledger struct {
	mgr    *state.Manager
	policy Policy
}

// New binds a ledger to the contract state.
func New(mgr *state.Manager, policy Policy) *Ledger {
	return &Ledger{mgr: mgr.Sub("ledger/"), policy: policy}
}

func tokenBytes(id types.TokenID) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(id))
	return buf
}

func join(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, p := range parts {
		size += len(p) + 1
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, p...)
	}
	return buf
}

func (l *Ledger) token(id types.TokenID) (*tokenRecord, bool, error) {
	rec := new(tokenRecord)
	ok, err := l.mgr.KVGet(join(tokenPrefix, tokenBytes(id)), rec)
	if err != nil {
		return nil, false, err
	}
	return rec, ok, nil
}

func (l *Ledger) putToken(id types.TokenID, rec *tokenRecord) error {
	return l.mgr.KVPut(join(tokenPrefix, tokenBytes(id)), rec)
}

func (l *Ledger) balance(id types.TokenID, owner types.Address) (types.Amount, error) {
	var v uint64
	if _, err := l.mgr.KVGet(join(balancePrefix, tokenBytes(id), owner.Bytes()), &v); err != nil {
		return 0, err
	}
	return types.Amount(v), nil
}

func (l *Ledger) setBalance(id types.TokenID, owner types.Address, amount types.Amount) error {
	key := join(balancePrefix, tokenBytes(id), owner.Bytes())
	holders := join(holderPrefix, tokenBytes(id))
	if amount == 0 {
		if err := l.mgr.KVDelete(key); err != nil {
			return err
		}
		return l.mgr.KVRemove(holders, owner.Bytes())
	}
	if err := l.mgr.KVPut(key, uint64(amount)); err != nil {
		return err
	}
	return l.mgr.KVAppend(holders, owner.Bytes())
}

func checkedAdd(a, b types.Amount) (types.Amount, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return types.Amount(sum), nil
}

// Exists reports whether the token has ever been minted.
func (l *Ledger) Exists(id types.TokenID) (bool, error) {
	_, ok, err := l.token(id)
	return ok, err
}

// Mint credits amount of token id to owner and raises its supply.
func (l *Ledger) Mint(id types.TokenID, amount types.Amount, owner types.Address) error {
	rec, ok, err := l.token(id)
	if err != nil {
		return err
	}
	if !ok {
		rec = &tokenRecord{}
	}
	if l.policy.NonFungible && (amount != 1 || rec.Supply != 0) {
		return coreerrors.Wrap(ErrTokenAlreadyMinted, "token %d is non-fungible", id)
	}
	supply, err := checkedAdd(types.Amount(rec.Supply), amount)
	if err != nil {
		return fmt.Errorf("mint token %d: %w", id, err)
	}
	current, err := l.balance(id, owner)
	if err != nil {
		return err
	}
	credited, err := checkedAdd(current, amount)
	if err != nil {
		return fmt.Errorf("mint token %d: %w", id, err)
	}
	if !ok {
		if err := l.mgr.KVAppend(tokenListKey, tokenBytes(id)); err != nil {
			return err
		}
		if err := l.bumpNext(id); err != nil {
			return err
		}
	}
	rec.Supply = uint64(supply)
	if err := l.putToken(id, rec); err != nil {
		return err
	}
	return l.setBalance(id, owner, credited)
}

// Burn debits amount of token id from owner and returns the remaining supply.
func (l *Ledger) Burn(id types.TokenID, amount types.Amount, owner types.Address) (types.Amount, error) {
	rec, ok, err := l.token(id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, coreerrors.Wrap(ErrInvalidTokenID, "token %d", id)
	}
	current, err := l.balance(id, owner)
	if err != nil {
		return 0, err
	}
	if current < amount {
		return 0, coreerrors.Wrap(ErrInsufficientFunds, "burn %d of token %d, balance %d", amount, id, current)
	}
	if types.Amount(rec.Supply) < amount {
		return 0, coreerrors.Wrap(ErrOverflow, "supply of token %d below balance", id)
	}
	if amount == 0 {
		return types.Amount(rec.Supply), nil
	}
	rec.Supply -= uint64(amount)
	if err := l.putToken(id, rec); err != nil {
		return 0, err
	}
	if err := l.setBalance(id, owner, current-amount); err != nil {
		return 0, err
	}
	return types.Amount(rec.Supply), nil
}

// Transfer moves amount of token id between two holders. A zero amount only
// checks that the token exists.
func (l *Ledger) Transfer(id types.TokenID, amount types.Amount, from, to types.Address) error {
	ok, err := l.Exists(id)
	if err != nil {
		return err
	}
	if !ok {
		return coreerrors.Wrap(ErrInvalidTokenID, "token %d", id)
	}
	if amount == 0 {
		return nil
	}
	fromBalance, err := l.balance(id, from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return coreerrors.Wrap(ErrInsufficientFunds, "transfer %d of token %d, balance %d", amount, id, fromBalance)
	}
	if from == to {
		return nil
	}
	toBalance, err := l.balance(id, to)
	if err != nil {
		return err
	}
	credited, err := checkedAdd(toBalance, amount)
	if err != nil {
		return fmt.Errorf("transfer token %d: %w", id, err)
	}
	if err := l.setBalance(id, from, fromBalance-amount); err != nil {
		return err
	}
	return l.setBalance(id, to, credited)
}

// BalanceOf returns the balance of addr. Unknown tokens are rejected; unknown
// holders of a known token hold zero.
func (l *Ledger) BalanceOf(id types.TokenID, addr types.Address) (types.Amount, error) {
	ok, err := l.Exists(id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, coreerrors.Wrap(ErrInvalidTokenID, "token %d", id)
	}
	return l.balance(id, addr)
}

// SupplyOf returns the total supply, zero for tokens never minted.
func (l *Ledger) SupplyOf(id types.TokenID) (types.Amount, error) {
	rec, ok, err := l.token(id)
	if err != nil || !ok {
		return 0, err
	}
	return types.Amount(rec.Supply), nil
}

// SetMetadata stores the metadata URL of a token.
func (l *Ledger) SetMetadata(id types.TokenID, meta types.MetadataURL) error {
	return l.mgr.KVPut(join(metaPrefix, tokenBytes(id)), metadataRecord{URL: meta.URL, Hash: meta.Hash})
}

// Metadata returns the metadata URL of a known token.
func (l *Ledger) Metadata(id types.TokenID) (types.MetadataURL, error) {
	ok, err := l.Exists(id)
	if err != nil {
		return types.MetadataURL{}, err
	}
	if !ok {
		return types.MetadataURL{}, coreerrors.Wrap(ErrInvalidTokenID, "token %d", id)
	}
	var rec metadataRecord
	if _, err := l.mgr.KVGet(join(metaPrefix, tokenBytes(id)), &rec); err != nil {
		return types.MetadataURL{}, err
	}
	return types.MetadataURL{URL: rec.URL, Hash: rec.Hash}, nil
}

// Tokens lists every token id ever minted, in mint order.
func (l *Ledger) Tokens() ([]types.TokenID, error) {
	raw, err := l.mgr.KVList(tokenListKey)
	if err != nil {
		return nil, err
	}
	out := make([]types.TokenID, 0, len(raw))
	for _, b := range raw {
		if len(b) != 4 {
			return nil, fmt.Errorf("ledger: corrupt token index entry")
		}
		out = append(out, types.TokenID(binary.BigEndian.Uint32(b)))
	}
	return out, nil
}

// Holders lists the addresses holding a non-zero balance of a token.
func (l *Ledger) Holders(id types.TokenID) ([]types.Address, error) {
	raw, err := l.mgr.KVList(join(holderPrefix, tokenBytes(id)))
	if err != nil {
		return nil, err
	}
	out := make([]types.Address, 0, len(raw))
	for _, b := range raw {
		addr, err := types.AddressFromBytes(b)
		if err != nil {
			return nil, fmt.Errorf("ledger: corrupt holder index: %w", err)
		}
		out = append(out, addr)
	}
	return out, nil
}

// NextTokenID returns the smallest id above every minted token.
func (l *Ledger) NextTokenID() (types.TokenID, error) {
	var next uint32
	if _, err := l.mgr.KVGet(nextTokenKey, &next); err != nil {
		return 0, err
	}
	return types.TokenID(next), nil
}

func (l *Ledger) bumpNext(id types.TokenID) error {
	next, err := l.NextTokenID()
	if err != nil {
		return err
	}
	if id < next {
		return nil
	}
	if uint32(id) == ^uint32(0) {
		return coreerrors.Wrap(ErrOverflow, "token id space exhausted")
	}
	return l.mgr.KVPut(nextTokenKey, uint32(id)+1)
}
