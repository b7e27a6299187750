package host

import (
	coreerrors "assetledger/core/errors"
	"assetledger/core/state"
	"assetledger/core/types"
)

// transaction holds the buffered effects of one outermost call. Nested calls
// share it so that a reentrant call observes every write made so far.
type transaction struct {
	chain    *Chain
	overlay  *state.Overlay
	invoker  types.AccountAddress
	slotTime types.Timestamp
	events   []LoggedEvent
	depth    int
}

func (c *Chain) begin(invoker types.AccountAddress) *transaction {
	return &transaction{
		chain:    c,
		overlay:  state.NewOverlay(c.db),
		invoker:  invoker,
		slotTime: types.Timestamp(c.now().UnixMilli()),
	}
}

func (t *transaction) ledger() ledgerState {
	return newLedgerState(t.overlay)
}

// call runs one invocation frame. A failing frame reverts its own writes,
// native transfers and events before the error reaches the caller.
func (t *transaction) call(sender types.Address, to types.ContractAddress, entrypoint string, param any, amount types.Amount, readOnly bool) (any, error) {
	if t.depth >= t.chain.limits.MaxCallDepth {
		return nil, coreerrors.Wrap(coreerrors.ErrCallDepthExceeded, "depth %d", t.depth)
	}
	inst, err := t.ledger().instance(to)
	if err != nil {
		return nil, err
	}
	code, ok := t.chain.code(inst.Name)
	if !ok {
		return nil, coreerrors.Wrap(coreerrors.ErrUnknownContract, "code %q", inst.Name)
	}
	if readOnly && amount > 0 {
		return nil, coreerrors.ErrReadOnly
	}

	snapshot := t.overlay.Snapshot()
	eventMark := len(t.events)
	revert := func() {
		t.overlay.RevertTo(snapshot)
		t.events = t.events[:eventMark]
	}

	if err := t.ledger().move(sender, types.ContractOf(to), amount); err != nil {
		revert()
		return nil, err
	}
	ctx := &callContext{
		tx:       t,
		self:     to,
		owner:    inst.Owner,
		sender:   sender,
		amount:   amount,
		readOnly: readOnly,
	}
	t.depth++
	ret, err := code.Receive(ctx, entrypoint, param)
	t.depth--
	if err != nil {
		revert()
		return nil, err
	}
	return ret, nil
}
