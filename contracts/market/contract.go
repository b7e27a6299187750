// Package market implements a marketplace for CIS-2 tokens held in custody.
// Sellers transfer tokens to the marketplace, list them with a price and
// buyers pay in native currency split between seller, marketplace owner and
// the token's primary owner.
package market

import (
	"assetledger/core/cis2"
	coreerrors "assetledger/core/errors"
	"assetledger/core/host"
	"assetledger/core/state"
	"assetledger/core/types"
	"assetledger/native/market"
)

// Name is the registered code name.
const Name = "Market-NFT"

// Contract is the marketplace code.
type Contract struct{}

// New returns the marketplace code.
func New() *Contract { return &Contract{} }

type instance struct {
	ctx    host.Context
	engine *market.Engine
	client *cis2.Client
}

func bind(ctx host.Context) *instance {
	return &instance{
		ctx:    ctx,
		engine: market.New(state.NewManager(ctx.State())),
		client: cis2.NewClient(ctx),
	}
}

// Init stores the commission.
func (c *Contract) Init(ctx host.Context, p any) error {
	var params InitParams
	if p != nil {
		var err error
		if params, err = param[InitParams](p); err != nil {
			return err
		}
	}
	return bind(ctx).engine.Init(params.Commission)
}

// Receive dispatches an entrypoint.
func (c *Contract) Receive(ctx host.Context, entrypoint string, p any) (any, error) {
	in := bind(ctx)
	switch entrypoint {
	case cis2.EntrypointOnReceiving:
		v, err := param[cis2.OnReceivingParams](p)
		if err != nil {
			return nil, err
		}
		return nil, in.onReceiving(v)
	case "add":
		v, err := param[AddParams](p)
		if err != nil {
			return nil, err
		}
		return nil, in.add(v)
	case cis2.EntrypointTransfer:
		v, err := param[BuyParams](p)
		if err != nil {
			return nil, err
		}
		return nil, in.buy(v)
	case "list":
		return in.engine.Listings()
	case "list_owned":
		return in.listOwned()
	case "view":
		return in.view()
	default:
		return nil, coreerrors.Wrap(coreerrors.ErrUnknownEntrypoint, "%s on %s", entrypoint, Name)
	}
}

func (in *instance) senderAccount() (types.AccountAddress, error) {
	sender := in.ctx.Sender()
	if !sender.IsAccount() {
		return types.AccountAddress{}, coreerrors.ErrCalledByAContract
	}
	return sender.Account, nil
}

// onReceiving credits tokens transferred into custody to the sending account.
func (in *instance) onReceiving(params cis2.OnReceivingParams) error {
	sender := in.ctx.Sender()
	if !sender.IsContract() {
		return coreerrors.ErrCalledByAnAccount
	}
	if !params.From.IsAccount() {
		return coreerrors.ErrCalledByAContract
	}
	o := market.TokenOwner{
		ListingKey: market.ListingKey{Contract: sender.Contract, TokenID: params.TokenID},
		Owner:      params.From.Account,
	}
	return in.engine.CreditOwned(o, params.Amount)
}

// add lists a token the sender holds in custody.
func (in *instance) add(params AddParams) error {
	owner, err := in.senderAccount()
	if err != nil {
		return err
	}
	k := market.ListingKey{Contract: params.Contract, TokenID: params.TokenID}
	if err := in.engine.List(k, owner, params.Price, params.Royalty); err != nil {
		return err
	}
	listing, err := in.engine.GetListing(k, owner)
	if err != nil {
		return err
	}
	return in.ctx.Log(market.NewListedEvent(market.TokenOwner{ListingKey: k, Owner: owner}, params.Price, listing.Royalty.Bps))
}

// buy validates quantity and payment, takes the tokens out of custody,
// settles the payment and only then transfers the tokens to the buyer.
func (in *instance) buy(params BuyParams) error {
	o := params.tokenOwner()
	owned, _, err := in.engine.Owned(o)
	if err != nil {
		return err
	}
	if owned < params.Quantity {
		return coreerrors.Wrap(coreerrors.ErrInvalidTokenQuantity, "owned %d, requested %d", owned, params.Quantity)
	}

	paid := in.ctx.Amount()
	withdrawal := in.ctx.Sender() == types.AccountOf(params.Owner)
	var listing market.Listing
	if withdrawal {
		if paid != 0 {
			return coreerrors.Wrap(coreerrors.ErrInvalidAmountPaid, "owner withdrawal carries %d", paid)
		}
	} else {
		if listing, err = in.engine.GetListing(o.ListingKey, params.Owner); err != nil {
			return err
		}
		price, err := market.RequiredPayment(listing.Price, params.Quantity)
		if err != nil {
			return err
		}
		if paid < price {
			return coreerrors.Wrap(coreerrors.ErrInvalidAmountPaid, "paid %d, price %d", paid, price)
		}
	}

	if err := in.engine.DecreaseOwnedQuantity(o, params.Quantity); err != nil {
		return err
	}

	if !withdrawal {
		commission, err := in.engine.Commission()
		if err != nil {
			return err
		}
		dist, err := market.CalculateAmounts(paid, commission, listing.Royalty.Bps)
		if err != nil {
			return err
		}
		payees := market.Payees{
			Seller:       params.Owner,
			Marketplace:  in.ctx.Owner(),
			PrimaryOwner: listing.Royalty.PrimaryOwner,
		}
		if err := market.Settle(in.ctx, dist, payees); err != nil {
			return err
		}
		if err := in.ctx.Log(market.NewSoldEvent(o, params.To, params.Quantity, dist)); err != nil {
			return err
		}
	}

	return in.client.Transfer(params.TokenID, params.Contract, params.Quantity,
		types.ContractOf(in.ctx.Self()), cis2.AccountReceiver(params.To), nil)
}

// listOwned returns the sender's custody positions that are not listed.
func (in *instance) listOwned() ([]market.Position, error) {
	sender := in.ctx.Sender()
	if !sender.IsAccount() {
		return []market.Position{}, nil
	}
	return in.engine.OwnedUnlisted(sender.Account)
}

func (in *instance) view() (*ViewResult, error) {
	commission, err := in.engine.Commission()
	if err != nil {
		return nil, err
	}
	positions, err := in.engine.Positions()
	if err != nil {
		return nil, err
	}
	return &ViewResult{Commission: commission, Positions: positions}, nil
}

var _ host.Contract = (*Contract)(nil)
