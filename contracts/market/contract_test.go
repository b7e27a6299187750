package market

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"assetledger/contracts/projectnft"
	"assetledger/core/cis2"
	coreerrors "assetledger/core/errors"
	"assetledger/core/host"
	"assetledger/core/types"
	"assetledger/native/market"
	"assetledger/storage"
)

const ccd = types.Amount(types.MicroPerUnit)

type env struct {
	t      *testing.T
	chain  *host.Chain
	owner  types.AccountAddress
	alice  types.AccountAddress
	bob    types.AccountAddress
	carol  types.AccountAddress
	dave   types.AccountAddress
	nft    types.ContractAddress
	market types.ContractAddress
}

func newEnv(t *testing.T, commission uint16) *env {
	t.Helper()
	chain, err := host.NewChain(storage.NewMemDB())
	require.NoError(t, err)
	chain.SetNowFunc(func() time.Time { return time.UnixMilli(1_700_000_000_000) })
	require.NoError(t, chain.Register(projectnft.Name, projectnft.New()))
	require.NoError(t, chain.Register(Name, New()))
	e := &env{
		t:     t,
		chain: chain,
		owner: types.AccountFromSeed("owner"),
		alice: types.AccountFromSeed("alice"),
		bob:   types.AccountFromSeed("bob"),
		carol: types.AccountFromSeed("carol"),
		dave:  types.AccountFromSeed("dave"),
	}
	e.nft, err = chain.Deploy(e.owner, projectnft.Name, projectnft.InitParams{})
	require.NoError(t, err)
	e.market, err = chain.Deploy(e.owner, Name, InitParams{Commission: commission})
	require.NoError(t, err)
	return e
}

// mintTo issues count project tokens to holder.
func (e *env) mintTo(holder types.AccountAddress, count int) {
	e.t.Helper()
	specs := make([]projectnft.TokenSpec, count)
	_, err := e.chain.Update(e.owner, e.nft, "mint", projectnft.MintParams{Owner: types.AccountOf(holder), Tokens: specs}, 0)
	require.NoError(e.t, err)
}

// custody moves a project token from holder into the marketplace.
func (e *env) custody(holder types.AccountAddress, id types.TokenID) {
	e.t.Helper()
	_, err := e.chain.Update(holder, e.nft, cis2.EntrypointTransfer, cis2.TransferParams{{
		TokenID: id, Amount: 1, From: types.AccountOf(holder),
		To: cis2.ContractReceiver(e.market, cis2.EntrypointOnReceiving),
	}}, 0)
	require.NoError(e.t, err)
}

func (e *env) add(seller types.AccountAddress, id types.TokenID, price types.Amount, royalty uint16) (*host.Receipt, error) {
	return e.chain.Update(seller, e.market, "add", AddParams{Contract: e.nft, TokenID: id, Price: price, Royalty: royalty}, 0)
}

func (e *env) buy(buyer, seller types.AccountAddress, id types.TokenID, qty, paid types.Amount) (*host.Receipt, error) {
	return e.chain.Update(buyer, e.market, cis2.EntrypointTransfer, BuyParams{
		Contract: e.nft, TokenID: id, Owner: seller, To: buyer, Quantity: qty,
	}, paid)
}

func (e *env) balance(who types.AccountAddress) types.Amount {
	e.t.Helper()
	bal, err := e.chain.Balance(who)
	require.NoError(e.t, err)
	return bal
}

func (e *env) holds(who types.AccountAddress, id types.TokenID) bool {
	e.t.Helper()
	ret, err := e.chain.Invoke(who, e.nft, cis2.EntrypointBalanceOf, cis2.BalanceOfParams{{TokenID: id, Address: types.AccountOf(who)}})
	require.NoError(e.t, err)
	return ret.(cis2.BalanceOfResponse)[0] == 1
}

func (e *env) listings() []market.Position {
	e.t.Helper()
	ret, err := e.chain.Invoke(e.owner, e.market, "list", nil)
	require.NoError(e.t, err)
	return ret.([]market.Position)
}

func TestBuySplitsPaymentWithRoyalty(t *testing.T) {
	e := newEnv(t, 250)
	require.NoError(t, e.chain.Fund(e.bob, 5*ccd))
	require.NoError(t, e.chain.Fund(e.dave, 20*ccd))
	e.mintTo(e.carol, 6)

	e.custody(e.carol, 5)
	_, err := e.add(e.carol, 5, 2*ccd, 1000)
	require.NoError(t, err)
	_, err = e.buy(e.bob, e.carol, 5, 1, 2*ccd)
	require.NoError(t, err)
	require.True(t, e.holds(e.bob, 5))
	require.Equal(t, types.Amount(1_950_000), e.balance(e.carol))
	require.Equal(t, types.Amount(50_000), e.balance(e.owner))

	// Royalty and primary owner stay with the first listing.
	e.custody(e.bob, 5)
	receipt, err := e.add(e.bob, 5, ccd, 300)
	require.NoError(t, err)
	require.Equal(t, market.EventTypeListed, receipt.Events[0].Type)
	require.Equal(t, "1000", receipt.Events[0].Attributes["royalty"])

	receipt, err = e.buy(e.dave, e.bob, 5, 1, 11*ccd)
	require.NoError(t, err)
	sold := receipt.Events[0]
	require.Equal(t, market.EventTypeSold, sold.Type)
	require.Equal(t, "9625000", sold.Attributes["toSeller"])
	require.Equal(t, "275000", sold.Attributes["toMarketplace"])
	require.Equal(t, "1100000", sold.Attributes["toPrimaryOwner"])
	require.Equal(t, cis2.EventTypeTransfer, receipt.Events[1].Type)
	require.Equal(t, e.nft, receipt.Events[1].Contract)

	require.Equal(t, types.Amount(12_625_000), e.balance(e.bob))
	require.Equal(t, types.Amount(3_050_000), e.balance(e.carol))
	require.Equal(t, types.Amount(325_000), e.balance(e.owner))
	require.Equal(t, 9*ccd, e.balance(e.dave))
	mbal, err := e.chain.ContractBalance(e.market)
	require.NoError(t, err)
	require.Zero(t, mbal)
	require.True(t, e.holds(e.dave, 5))
	require.Empty(t, e.listings())
}

func TestListRejectsRoyaltyAboveCommissionHeadroom(t *testing.T) {
	e := newEnv(t, 9800)
	e.mintTo(e.alice, 1)
	e.custody(e.alice, 0)

	_, err := e.add(e.alice, 0, ccd, 300)
	require.True(t, errors.Is(err, coreerrors.ErrInvalidRoyalty))
	require.Empty(t, e.listings())

	_, err = e.add(e.alice, 0, ccd, 200)
	require.NoError(t, err)
	require.Len(t, e.listings(), 1)
}

func TestBuyValidation(t *testing.T) {
	e := newEnv(t, 250)
	require.NoError(t, e.chain.Fund(e.bob, 10*ccd))
	e.mintTo(e.alice, 2)
	e.custody(e.alice, 0)
	e.custody(e.alice, 1)

	_, err := e.buy(e.bob, e.alice, 0, 1, ccd)
	require.True(t, errors.Is(err, coreerrors.ErrTokenNotListed))

	_, err = e.add(e.alice, 0, 2*ccd, 0)
	require.NoError(t, err)

	_, err = e.buy(e.bob, e.alice, 0, 2, 4*ccd)
	require.True(t, errors.Is(err, coreerrors.ErrInvalidTokenQuantity))

	_, err = e.buy(e.bob, e.alice, 0, 1, ccd)
	require.True(t, errors.Is(err, coreerrors.ErrInvalidAmountPaid))
	require.Equal(t, 10*ccd, e.balance(e.bob))
	require.Len(t, e.listings(), 1)

	_, err = e.buy(e.bob, e.alice, 0, 1, 20*ccd)
	require.True(t, errors.Is(err, coreerrors.ErrInsufficientCCD))

	require.NoError(t, e.chain.Fund(e.alice, ccd))
	_, err = e.chain.Update(e.alice, e.market, cis2.EntrypointTransfer, BuyParams{
		Contract: e.nft, TokenID: 1, Owner: e.alice, To: e.alice, Quantity: 1,
	}, 1)
	require.True(t, errors.Is(err, coreerrors.ErrInvalidAmountPaid))
}

func TestOwnerWithdrawsWithoutPayment(t *testing.T) {
	e := newEnv(t, 250)
	e.mintTo(e.alice, 1)
	e.custody(e.alice, 0)
	_, err := e.add(e.alice, 0, ccd, 0)
	require.NoError(t, err)

	receipt, err := e.chain.Update(e.alice, e.market, cis2.EntrypointTransfer, BuyParams{
		Contract: e.nft, TokenID: 0, Owner: e.alice, To: e.alice, Quantity: 1,
	}, 0)
	require.NoError(t, err)
	require.Len(t, receipt.Events, 1)
	require.Equal(t, cis2.EventTypeTransfer, receipt.Events[0].Type)
	require.True(t, e.holds(e.alice, 0))
	require.Empty(t, e.listings())

	ret, err := e.chain.Invoke(e.owner, e.market, "view", nil)
	require.NoError(t, err)
	require.Empty(t, ret.(*ViewResult).Positions)
	require.Equal(t, uint16(250), ret.(*ViewResult).Commission)
}

func TestCustodyAndOwnedListing(t *testing.T) {
	e := newEnv(t, 0)
	e.mintTo(e.alice, 2)
	e.custody(e.alice, 0)
	e.custody(e.alice, 1)
	_, err := e.add(e.alice, 1, ccd, 0)
	require.NoError(t, err)

	ret, err := e.chain.Invoke(e.alice, e.market, "list_owned", nil)
	require.NoError(t, err)
	owned := ret.([]market.Position)
	require.Len(t, owned, 1)
	require.Equal(t, types.TokenID(0), owned[0].TokenID)
	require.Equal(t, types.Amount(1), owned[0].Quantity)

	ret, err = e.chain.Invoke(e.bob, e.market, "list_owned", nil)
	require.NoError(t, err)
	require.Empty(t, ret)

	_, err = e.chain.Update(e.alice, e.market, cis2.EntrypointOnReceiving, cis2.OnReceivingParams{
		TokenID: 0, Amount: 1, From: types.AccountOf(e.alice),
	}, 0)
	require.True(t, errors.Is(err, coreerrors.ErrCalledByAnAccount))

	_, err = e.add(e.bob, 0, ccd, 0)
	require.True(t, errors.Is(err, coreerrors.ErrInvalidTokenQuantity))
}

func TestInitRejectsCommission(t *testing.T) {
	e := newEnv(t, 0)
	_, err := e.chain.Deploy(e.owner, Name, InitParams{Commission: 10001})
	require.True(t, errors.Is(err, coreerrors.ErrInvalidCommission))
}
