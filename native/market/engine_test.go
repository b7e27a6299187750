package market

import (
	"errors"
	"testing"

	"assetledger/core/state"
	"assetledger/core/types"
	"assetledger/storage"
)

func newTestEngine(t *testing.T, commission uint16) *Engine {
	t.Helper()
	e := New(state.NewManager(state.NewOverlay(storage.NewMemDB())))
	if err := e.Init(commission); err != nil {
		t.Fatalf("init: %v", err)
	}
	return e
}

var (
	tokenKey = ListingKey{Contract: types.ContractAddress{Index: 2}, TokenID: 5}
	seller   = types.AccountFromSeed("seller")
	buyer    = types.AccountFromSeed("buyer")
)

func TestInitRejectsCommissionAboveMax(t *testing.T) {
	e := New(state.NewManager(state.NewOverlay(storage.NewMemDB())))
	if err := e.Init(10001); !errors.Is(err, ErrInvalidCommission) {
		t.Fatalf("expected invalid commission, got %v", err)
	}
	if err := e.Init(10000); err != nil {
		t.Fatalf("max commission must be accepted: %v", err)
	}
}

func TestListingRoundTrip(t *testing.T) {
	e := newTestEngine(t, 250)
	owner := TokenOwner{ListingKey: tokenKey, Owner: seller}
	if err := e.CreditOwned(owner, 2); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := e.List(tokenKey, seller, types.MicroPerUnit, 1000); err != nil {
		t.Fatalf("list: %v", err)
	}
	listing, err := e.GetListing(tokenKey, seller)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if listing.Price != types.MicroPerUnit || listing.Royalty.Bps != 1000 || listing.Royalty.PrimaryOwner != seller {
		t.Fatalf("unexpected listing %+v", listing)
	}

	if err := e.DecreaseOwnedQuantity(owner, 1); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if _, err := e.GetListing(tokenKey, seller); err != nil {
		t.Fatalf("listing must survive partial sale: %v", err)
	}
	if err := e.DecreaseOwnedQuantity(owner, 1); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if _, err := e.GetListing(tokenKey, seller); !errors.Is(err, ErrTokenNotListed) {
		t.Fatalf("expected de-listing at zero, got %v", err)
	}
	if err := e.DecreaseOwnedQuantity(owner, 1); !errors.Is(err, ErrTokenNotInCustody) {
		t.Fatalf("expected not in custody, got %v", err)
	}
	positions, _ := e.Positions()
	if len(positions) != 0 {
		t.Fatalf("expected no positions, got %+v", positions)
	}
}

func TestListRejectsExcessRoyaltyWithoutWriting(t *testing.T) {
	e := newTestEngine(t, 9800)
	_ = e.CreditOwned(TokenOwner{ListingKey: tokenKey, Owner: seller}, 1)
	if err := e.List(tokenKey, seller, 10, 300); !errors.Is(err, ErrInvalidRoyalty) {
		t.Fatalf("expected invalid royalty, got %v", err)
	}
	if _, err := e.GetListing(tokenKey, seller); !errors.Is(err, ErrTokenNotListed) {
		t.Fatalf("no listing may be created, got %v", err)
	}
	listed, _ := e.Listings()
	if len(listed) != 0 {
		t.Fatalf("unexpected listings %+v", listed)
	}
}

func TestListRequiresCustody(t *testing.T) {
	e := newTestEngine(t, 250)
	if err := e.List(tokenKey, seller, 10, 100); !errors.Is(err, ErrInvalidTokenQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
}

func TestRoyaltyFixedByFirstListing(t *testing.T) {
	e := newTestEngine(t, 250)
	_ = e.CreditOwned(TokenOwner{ListingKey: tokenKey, Owner: seller}, 1)
	_ = e.CreditOwned(TokenOwner{ListingKey: tokenKey, Owner: buyer}, 1)
	_ = e.List(tokenKey, seller, 10, 1000)
	if err := e.List(tokenKey, buyer, 20, 50); err != nil {
		t.Fatalf("second lister: %v", err)
	}
	listing, _ := e.GetListing(tokenKey, buyer)
	if listing.Price != 20 || listing.Royalty.Bps != 1000 || listing.Royalty.PrimaryOwner != seller {
		t.Fatalf("royalty must stay with the first lister: %+v", listing)
	}
}

func TestListAndOwnedQueries(t *testing.T) {
	e := newTestEngine(t, 250)
	other := ListingKey{Contract: tokenKey.Contract, TokenID: 6}
	_ = e.CreditOwned(TokenOwner{ListingKey: tokenKey, Owner: seller}, 3)
	_ = e.CreditOwned(TokenOwner{ListingKey: other, Owner: seller}, 1)
	_ = e.List(tokenKey, seller, 10, 0)

	listed, _ := e.Listings()
	if len(listed) != 1 || listed[0].TokenID != 5 || listed[0].Quantity != 3 || listed[0].Price != 10 {
		t.Fatalf("unexpected listings %+v", listed)
	}
	owned, _ := e.OwnedUnlisted(seller)
	if len(owned) != 1 || owned[0].TokenID != 6 {
		t.Fatalf("unexpected unlisted %+v", owned)
	}
	if none, _ := e.OwnedUnlisted(buyer); len(none) != 0 {
		t.Fatalf("buyer owns nothing, got %+v", none)
	}
}
