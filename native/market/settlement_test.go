package market

import (
	"errors"
	"testing"

	coreerrors "assetledger/core/errors"
	"assetledger/core/types"
)

func TestCalculateAmountsExample(t *testing.T) {
	dist, err := CalculateAmounts(11*types.MicroPerUnit, 250, 1000)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if dist.ToSeller != 9_625_000 || dist.ToMarketplace != 275_000 || dist.ToPrimaryOwner != 1_100_000 {
		t.Fatalf("unexpected distribution %+v", dist)
	}
}

// TestSettlementConservation sweeps the bps grid and a spread of payments,
// including amounts that do not divide evenly.
func TestSettlementConservation(t *testing.T) {
	payments := []types.Amount{0, 1, 7, 9999, 10000, 10001, 123_456_789, types.Amount(^uint64(0))}
	for commission := 0; commission <= MaxBasisPoints; commission += 125 {
		for royalty := 0; commission+royalty <= MaxBasisPoints; royalty += 250 {
			for _, paid := range payments {
				dist, err := CalculateAmounts(paid, uint16(commission), uint16(royalty))
				if err != nil {
					t.Fatalf("calculate %d/%d/%d: %v", paid, commission, royalty, err)
				}
				if dist.Total() != paid {
					t.Fatalf("paid %d commission %d royalty %d: split %+v sums to %d", paid, commission, royalty, dist, dist.Total())
				}
			}
		}
	}
	for _, edge := range [][2]uint16{{0, 0}, {10000, 0}, {0, 10000}, {5000, 5000}, {9999, 1}} {
		dist, err := CalculateAmounts(333, edge[0], edge[1])
		if err != nil || dist.Total() != 333 {
			t.Fatalf("edge %v: %+v %v", edge, dist, err)
		}
	}
}

func TestCalculateAmountsRejectsExcessBps(t *testing.T) {
	if _, err := CalculateAmounts(100, 9800, 300); !errors.Is(err, ErrInvalidRoyalty) {
		t.Fatalf("expected invalid royalty, got %v", err)
	}
}

func TestRequiredPayment(t *testing.T) {
	if total, err := RequiredPayment(3, 4); err != nil || total != 12 {
		t.Fatalf("required payment %d %v", total, err)
	}
	if _, err := RequiredPayment(types.Amount(^uint64(0)), 2); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

type payment struct {
	to     types.AccountAddress
	amount types.Amount
}

type fakePayer struct {
	paid   []payment
	failAt int
}

func (f *fakePayer) InvokeTransfer(to types.AccountAddress, amount types.Amount) error {
	if f.failAt > 0 && len(f.paid)+1 == f.failAt {
		return coreerrors.ErrInsufficientCCD
	}
	f.paid = append(f.paid, payment{to: to, amount: amount})
	return nil
}

func TestSettleSkipsZeroShares(t *testing.T) {
	payees := Payees{
		Seller:       types.AccountFromSeed("seller"),
		Marketplace:  types.AccountFromSeed("market"),
		PrimaryOwner: types.AccountFromSeed("creator"),
	}
	payer := &fakePayer{}
	if err := Settle(payer, Distribution{ToSeller: 10, ToPrimaryOwner: 2}, payees); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if len(payer.paid) != 2 || payer.paid[0].to != payees.Seller || payer.paid[1].to != payees.PrimaryOwner {
		t.Fatalf("unexpected payments %+v", payer.paid)
	}

	failing := &fakePayer{failAt: 2}
	err := Settle(failing, Distribution{ToSeller: 10, ToMarketplace: 1}, payees)
	if !errors.Is(err, ErrInvokeTransfer) || !errors.Is(err, coreerrors.ErrInsufficientCCD) {
		t.Fatalf("expected wrapped transfer error, got %v", err)
	}
	if !coreerrors.IsCollaborator(err) {
		t.Fatalf("expected collaborator classification")
	}
}
