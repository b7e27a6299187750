package market

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"

	coreerrors "assetledger/core/errors"
	"assetledger/core/state"
	"assetledger/core/types"
)

// ListingKey identifies an external token offered through the marketplace.
type ListingKey struct {
	Contract types.ContractAddress `json:"contract"`
	TokenID  types.TokenID         `json:"tokenId"`
}

// TokenOwner identifies the custody position of one owner.
type TokenOwner struct {
	ListingKey
	Owner types.AccountAddress `json:"owner"`
}

// Royalty is fixed when a token is listed for the first time.
type Royalty struct {
	PrimaryOwner types.AccountAddress `json:"primaryOwner"`
	Bps          uint16               `json:"bps"`
}

// Listing is one owner's ask for a token.
type Listing struct {
	Price   types.Amount `json:"price"`
	Royalty Royalty      `json:"royalty"`
}

// Position is an owned custody entry, with its ask when listed.
type Position struct {
	TokenOwner
	Quantity types.Amount `json:"quantity"`
	Listed   bool         `json:"listed"`
	Price    types.Amount `json:"price,omitempty"`
	Royalty  Royalty      `json:"royalty"`
}

var (
	commissionKey = []byte("commission")
	ownedPrefix   = []byte("owned/")
	royaltyPrefix = []byte("royalty/")
	pricePrefix   = []byte("price/")
	ownedIndexKey = []byte("owned-index")
)

const (
	listingKeyLength = 20
	tokenOwnerLength = listingKeyLength + 32
)

func (k ListingKey) bytes() []byte {
	buf := make([]byte, listingKeyLength)
	binary.BigEndian.PutUint64(buf[0:8], k.Contract.Index)
	binary.BigEndian.PutUint64(buf[8:16], k.Contract.SubIndex)
	binary.BigEndian.PutUint32(buf[16:20], uint32(k.TokenID))
	return buf
}

func (o TokenOwner) bytes() []byte {
	return append(o.ListingKey.bytes(), o.Owner[:]...)
}

func tokenOwnerFromBytes(raw []byte) (TokenOwner, error) {
	if len(raw) != tokenOwnerLength {
		return TokenOwner{}, fmt.Errorf("market: corrupt custody key of length %d", len(raw))
	}
	var o TokenOwner
	o.Contract.Index = binary.BigEndian.Uint64(raw[0:8])
	o.Contract.SubIndex = binary.BigEndian.Uint64(raw[8:16])
	o.TokenID = types.TokenID(binary.BigEndian.Uint32(raw[16:20]))
	copy(o.Owner[:], raw[20:])
	return o, nil
}

func prefixed(prefix, key []byte) []byte {
	return append(append([]byte(nil), prefix...), key...)
}

type royaltyRecord struct {
	PrimaryOwner types.AccountAddress
	Bps          uint16
}

// Engine keeps custody positions, listings and the commission of one
// marketplace instance.
type Engine struct {
	mgr *state.Manager
}

// New binds the engine to the contract state.
func New(mgr *state.Manager) *Engine {
	return &Engine{mgr: mgr.Sub("market/")}
}

// Init stores the marketplace commission.
func (e *Engine) Init(commissionBps uint16) error {
	if commissionBps > MaxBasisPoints {
		return coreerrors.Wrap(ErrInvalidCommission, "%d bps", commissionBps)
	}
	return e.mgr.KVPut(commissionKey, commissionBps)
}

// Commission returns the marketplace commission in basis points.
func (e *Engine) Commission() (uint16, error) {
	var bps uint16
	if _, err := e.mgr.KVGet(commissionKey, &bps); err != nil {
		return 0, err
	}
	return bps, nil
}

// Owned returns the quantity held in custody for owner.
func (e *Engine) Owned(o TokenOwner) (types.Amount, bool, error) {
	var qty uint64
	ok, err := e.mgr.KVGet(prefixed(ownedPrefix, o.bytes()), &qty)
	if err != nil {
		return 0, false, err
	}
	return types.Amount(qty), ok, nil
}

// CreditOwned adds tokens received into custody.
func (e *Engine) CreditOwned(o TokenOwner, amount types.Amount) error {
	current, ok, err := e.Owned(o)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(uint64(current), uint64(amount), 0)
	if carry != 0 {
		return coreerrors.Wrap(ErrOverflow, "custody of %s/%d", o.Contract, o.TokenID)
	}
	if !ok {
		if err := e.mgr.KVAppend(ownedIndexKey, o.bytes()); err != nil {
			return err
		}
	}
	return e.mgr.KVPut(prefixed(ownedPrefix, o.bytes()), sum)
}

// DecreaseOwnedQuantity removes delta from custody. At zero the position and
// the owner's price entry are removed.
func (e *Engine) DecreaseOwnedQuantity(o TokenOwner, delta types.Amount) error {
	current, ok, err := e.Owned(o)
	if err != nil {
		return err
	}
	if !ok {
		return coreerrors.Wrap(ErrTokenNotInCustody, "%s/%d", o.Contract, o.TokenID)
	}
	if current < delta {
		return coreerrors.Wrap(ErrInvalidTokenQuantity, "owned %d, requested %d", current, delta)
	}
	remaining := current - delta
	if remaining > 0 {
		return e.mgr.KVPut(prefixed(ownedPrefix, o.bytes()), uint64(remaining))
	}
	if err := e.mgr.KVDelete(prefixed(ownedPrefix, o.bytes())); err != nil {
		return err
	}
	if err := e.mgr.KVRemove(ownedIndexKey, o.bytes()); err != nil {
		return err
	}
	return e.mgr.KVDelete(prefixed(pricePrefix, o.bytes()))
}

func (e *Engine) royalty(k ListingKey) (Royalty, bool, error) {
	var rec royaltyRecord
	ok, err := e.mgr.KVGet(prefixed(royaltyPrefix, k.bytes()), &rec)
	if err != nil || !ok {
		return Royalty{}, false, err
	}
	return Royalty{PrimaryOwner: rec.PrimaryOwner, Bps: rec.Bps}, true, nil
}

// List sets owner's ask for a token held in custody. The royalty and primary
// owner are fixed by the first listing of the token.
func (e *Engine) List(k ListingKey, owner types.AccountAddress, price types.Amount, royaltyBps uint16) error {
	commission, err := e.Commission()
	if err != nil {
		return err
	}
	if uint32(commission)+uint32(royaltyBps) > MaxBasisPoints {
		return coreerrors.Wrap(ErrInvalidRoyalty, "commission %d + royalty %d bps", commission, royaltyBps)
	}
	o := TokenOwner{ListingKey: k, Owner: owner}
	qty, _, err := e.Owned(o)
	if err != nil {
		return err
	}
	if qty < 1 {
		return coreerrors.Wrap(ErrInvalidTokenQuantity, "%s holds none of %s/%d", owner, k.Contract, k.TokenID)
	}
	_, ok, err := e.royalty(k)
	if err != nil {
		return err
	}
	if !ok {
		if err := e.mgr.KVPut(prefixed(royaltyPrefix, k.bytes()), royaltyRecord{PrimaryOwner: owner, Bps: royaltyBps}); err != nil {
			return err
		}
	}
	return e.mgr.KVPut(prefixed(pricePrefix, o.bytes()), uint64(price))
}

// GetListing returns owner's ask for a token.
func (e *Engine) GetListing(k ListingKey, owner types.AccountAddress) (Listing, error) {
	royalty, ok, err := e.royalty(k)
	if err != nil {
		return Listing{}, err
	}
	if !ok {
		return Listing{}, coreerrors.Wrap(ErrTokenNotListed, "%s/%d", k.Contract, k.TokenID)
	}
	var price uint64
	o := TokenOwner{ListingKey: k, Owner: owner}
	ok, err = e.mgr.KVGet(prefixed(pricePrefix, o.bytes()), &price)
	if err != nil {
		return Listing{}, err
	}
	if !ok {
		return Listing{}, coreerrors.Wrap(ErrTokenNotListed, "%s/%d by %s", k.Contract, k.TokenID, owner)
	}
	return Listing{Price: types.Amount(price), Royalty: royalty}, nil
}

// Positions lists every custody position in insertion order.
func (e *Engine) Positions() ([]Position, error) {
	raw, err := e.mgr.KVList(ownedIndexKey)
	if err != nil {
		return nil, err
	}
	out := make([]Position, 0, len(raw))
	for _, b := range raw {
		o, err := tokenOwnerFromBytes(b)
		if err != nil {
			return nil, err
		}
		qty, ok, err := e.Owned(o)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		pos := Position{TokenOwner: o, Quantity: qty}
		listing, err := e.GetListing(o.ListingKey, o.Owner)
		switch {
		case err == nil:
			pos.Listed = true
			pos.Price = listing.Price
			pos.Royalty = listing.Royalty
		case !errors.Is(err, ErrTokenNotListed):
			return nil, err
		}
		out = append(out, pos)
	}
	return out, nil
}

// Listings returns the positions that carry an ask.
func (e *Engine) Listings() ([]Position, error) {
	all, err := e.Positions()
	if err != nil {
		return nil, err
	}
	out := make([]Position, 0, len(all))
	for _, pos := range all {
		if pos.Listed {
			out = append(out, pos)
		}
	}
	return out, nil
}

// OwnedUnlisted returns owner's positions that carry no ask.
func (e *Engine) OwnedUnlisted(owner types.AccountAddress) ([]Position, error) {
	all, err := e.Positions()
	if err != nil {
		return nil, err
	}
	out := make([]Position, 0)
	for _, pos := range all {
		if pos.Owner == owner && !pos.Listed {
			out = append(out, pos)
		}
	}
	return out, nil
}
