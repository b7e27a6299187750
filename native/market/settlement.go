package market

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	coreerrors "assetledger/core/errors"
	"assetledger/core/types"
)

// MaxBasisPoints is 100% expressed in basis points.
const MaxBasisPoints = 10000

// Distribution is the split of one payment.
type Distribution struct {
	ToSeller       types.Amount `json:"toSeller"`
	ToMarketplace  types.Amount `json:"toMarketplace"`
	ToPrimaryOwner types.Amount `json:"toPrimaryOwner"`
}

// Total returns the sum of all shares.
func (d Distribution) Total() types.Amount {
	return d.ToSeller + d.ToMarketplace + d.ToPrimaryOwner
}

func share(paid types.Amount, bps uint16) types.Amount {
	out, _ := new(uint256.Int).MulDivOverflow(
		uint256.NewInt(uint64(paid)),
		uint256.NewInt(uint64(bps)),
		uint256.NewInt(MaxBasisPoints),
	)
	// bps <= MaxBasisPoints keeps the quotient within paid
	return types.Amount(out.Uint64())
}

// CalculateAmounts splits paid into commission and royalty shares rounded
// down; the seller receives whatever remains.
func CalculateAmounts(paid types.Amount, commissionBps, royaltyBps uint16) (Distribution, error) {
	if uint32(commissionBps)+uint32(royaltyBps) > MaxBasisPoints {
		return Distribution{}, coreerrors.Wrap(ErrInvalidRoyalty, "commission %d + royalty %d bps", commissionBps, royaltyBps)
	}
	commission := share(paid, commissionBps)
	royalty := share(paid, royaltyBps)
	return Distribution{
		ToSeller:       paid - commission - royalty,
		ToMarketplace:  commission,
		ToPrimaryOwner: royalty,
	}, nil
}

// RequiredPayment returns price * quantity, failing on overflow.
func RequiredPayment(price, quantity types.Amount) (types.Amount, error) {
	total, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(uint64(price)), uint256.NewInt(uint64(quantity)))
	if overflow || !total.IsUint64() {
		return 0, coreerrors.Wrap(ErrOverflow, "price %d x quantity %d", price, quantity)
	}
	return types.Amount(total.Uint64()), nil
}

// Payer moves native currency out of the marketplace. host.Context satisfies it.
type Payer interface {
	InvokeTransfer(to types.AccountAddress, amount types.Amount) error
}

// Payees names the recipients of a distribution.
type Payees struct {
	Seller       types.AccountAddress
	Marketplace  types.AccountAddress
	PrimaryOwner types.AccountAddress
}

// Settle pays out a distribution, skipping zero shares.
func Settle(payer Payer, dist Distribution, payees Payees) error {
	payments := []struct {
		to     types.AccountAddress
		amount types.Amount
		role   string
	}{
		{payees.Seller, dist.ToSeller, "seller"},
		{payees.Marketplace, dist.ToMarketplace, "marketplace"},
		{payees.PrimaryOwner, dist.ToPrimaryOwner, "primary owner"},
	}
	for _, p := range payments {
		if p.amount == 0 {
			continue
		}
		if err := payer.InvokeTransfer(p.to, p.amount); err != nil {
			if errors.Is(err, ErrInvokeTransfer) || coreerrors.IsFatal(err) {
				return fmt.Errorf("pay %s: %w", p.role, err)
			}
			return fmt.Errorf("%w: pay %s: %w", ErrInvokeTransfer, p.role, err)
		}
	}
	return nil
}
