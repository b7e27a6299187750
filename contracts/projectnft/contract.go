// Package projectnft implements project tokens: non-fungible tokens carrying
// a maturity time, verified by an owner-managed verifier set and leaving
// circulation through retire or retract.
package projectnft

import (
	"assetledger/core/cis2"
	coreerrors "assetledger/core/errors"
	"assetledger/core/host"
	"assetledger/core/state"
	"assetledger/core/types"
	"assetledger/native/gate"
	"assetledger/native/ledger"
)

// Name is the registered code name.
const Name = "project_nft"

var gateModeKey = []byte("gate-mode")

// Contract is the project NFT code.
type Contract struct{}

// New returns the project NFT code.
func New() *Contract { return &Contract{} }

type instance struct {
	ctx    host.Context
	ledger *ledger.Ledger
	gate   *gate.Gate
	client *cis2.Client
}

func (c *Contract) bind(ctx host.Context) (*instance, error) {
	mgr := state.NewManager(ctx.State())
	var name string
	if _, err := mgr.Sub("config/").KVGet(gateModeKey, &name); err != nil {
		return nil, err
	}
	mode, err := gate.ParseMode(name)
	if err != nil {
		return nil, err
	}
	return &instance{
		ctx:    ctx,
		ledger: ledger.New(mgr, ledger.Policy{NonFungible: true}),
		gate:   gate.New(mgr, mode),
		client: cis2.NewClient(ctx),
	}, nil
}

// Init stores the gate mode.
func (c *Contract) Init(ctx host.Context, p any) error {
	var params InitParams
	if p != nil {
		var err error
		if params, err = param[InitParams](p); err != nil {
			return err
		}
	}
	mode, err := gate.ParseMode(params.GateMode)
	if err != nil {
		return coreerrors.Wrap(coreerrors.ErrParseParams, "%v", err)
	}
	return state.NewManager(ctx.State()).Sub("config/").KVPut(gateModeKey, mode.String())
}

// Receive dispatches an entrypoint.
func (c *Contract) Receive(ctx host.Context, entrypoint string, p any) (any, error) {
	in, err := c.bind(ctx)
	if err != nil {
		return nil, err
	}
	switch entrypoint {
	case "mint":
		return nil, withParam(p, in.mint)
	case cis2.EntrypointTransfer:
		return nil, withParam(p, in.transfer)
	case cis2.EntrypointUpdateOperator:
		return nil, coreerrors.ErrNotImplemented
	case "addVerifier":
		return nil, withParam(p, in.addVerifier)
	case "removeVerifier":
		return nil, withParam(p, in.removeVerifier)
	case "verify":
		return nil, withParam(p, in.verify)
	case "retire":
		return nil, withParam(p, in.retire)
	case "retract":
		return nil, withParam(p, in.retract)
	case cis2.EntrypointBalanceOf:
		return query(p, in.balanceOf)
	case cis2.EntrypointOperatorOf:
		return query(p, in.operatorOf)
	case cis2.EntrypointTokenMetadata:
		return query(p, in.tokenMetadata)
	case cis2.EntrypointSupports:
		return query(p, in.supports)
	case cis2.EntrypointMaturityOf:
		return query(p, in.maturityOf)
	case cis2.EntrypointIsVerified:
		return query(p, in.isVerified)
	case cis2.EntrypointIsVerifier:
		return query(p, in.isVerifier)
	case "view":
		return in.view()
	default:
		return nil, coreerrors.Wrap(coreerrors.ErrUnknownEntrypoint, "%s on %s", entrypoint, Name)
	}
}

func withParam[T any](p any, fn func(T) error) error {
	v, err := param[T](p)
	if err != nil {
		return err
	}
	return fn(v)
}

func query[T, R any](p any, fn func(T) (R, error)) (any, error) {
	v, err := param[T](p)
	if err != nil {
		return nil, err
	}
	return fn(v)
}

func (in *instance) requireOwner() error {
	if in.ctx.Sender() != types.AccountOf(in.ctx.Owner()) {
		return coreerrors.Wrap(coreerrors.ErrUnauthorized, "only the contract owner may call this")
	}
	return nil
}

func (in *instance) requireToken(id types.TokenID) error {
	ok, err := in.ledger.Exists(id)
	if err != nil {
		return err
	}
	if !ok {
		return coreerrors.Wrap(coreerrors.ErrInvalidTokenID, "token %d", id)
	}
	return nil
}

var _ host.Contract = (*Contract)(nil)
