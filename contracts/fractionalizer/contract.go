package fractionalizer

import (
	"assetledger/core/cis2"
	coreerrors "assetledger/core/errors"
	"assetledger/core/host"
	"assetledger/core/state"
	"assetledger/core/types"
	"assetledger/native/collateral"
	"assetledger/native/gate"
	"assetledger/native/ledger"
)

// Variant selects the policies composed into a fractionalizer instance.
type Variant uint8

const (
	// VariantPlain is a collateralized fungible token.
	VariantPlain Variant = iota
	// VariantProject only accepts collateral that has already matured and
	// proxies verification queries to the collateral contract.
	VariantProject
	// VariantCarbon adds retire and retract gated by the collateral's maturity
	// and verification.
	VariantCarbon
)

const (
	NamePlain   = "CIS2-Fractionalizer"
	NameProject = "project_fractionalizer"
	NameCarbon  = "carbon_credits"
)

func (v Variant) String() string {
	switch v {
	case VariantProject:
		return NameProject
	case VariantCarbon:
		return NameCarbon
	default:
		return NamePlain
	}
}

var verifierContractsKey = []byte("verifier-contracts")

// Contract is the fractionalizer code. One value serves every instance of
// its variant; per-instance state lives behind host.Context.
type Contract struct {
	variant Variant
}

// New returns the code for a variant.
func New(variant Variant) *Contract {
	return &Contract{variant: variant}
}

// Variant reports the composed variant.
func (c *Contract) Variant() Variant { return c.variant }

// instance binds the components to one call.
type instance struct {
	ctx     host.Context
	variant Variant
	config  *state.Manager
	ledger  *ledger.Ledger
	vault   *collateral.Vault
	client  *cis2.Client
}

func (c *Contract) bind(ctx host.Context) *instance {
	mgr := state.NewManager(ctx.State())
	return &instance{
		ctx:     ctx,
		variant: c.variant,
		config:  mgr.Sub("config/"),
		ledger:  ledger.New(mgr, ledger.Policy{}),
		vault:   collateral.New(mgr),
		client:  cis2.NewClient(ctx),
	}
}

// Init stores the verifier contracts of the instance.
func (c *Contract) Init(ctx host.Context, p any) error {
	var params InitParams
	if p != nil {
		var err error
		if params, err = param[InitParams](p); err != nil {
			return err
		}
	}
	in := c.bind(ctx)
	if len(params.VerifierContracts) == 0 {
		return nil
	}
	return in.config.KVPut(verifierContractsKey, params.VerifierContracts)
}

func (in *instance) verifierContracts() ([]types.ContractAddress, error) {
	var out []types.ContractAddress
	if err := in.config.KVGetList(verifierContractsKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Receive dispatches an entrypoint.
func (c *Contract) Receive(ctx host.Context, entrypoint string, p any) (any, error) {
	in := c.bind(ctx)
	switch entrypoint {
	case "mint":
		return nil, withParam(p, in.mint)
	case "burn":
		return nil, withParam(p, in.burn)
	case cis2.EntrypointTransfer:
		return nil, withParam(p, in.transfer)
	case cis2.EntrypointUpdateOperator:
		return nil, coreerrors.ErrNotImplemented
	case cis2.EntrypointOnReceiving:
		return nil, withParam(p, in.onReceiving)
	case cis2.EntrypointBalanceOf:
		return query(p, in.balanceOf)
	case cis2.EntrypointOperatorOf:
		return query(p, in.operatorOf)
	case cis2.EntrypointTokenMetadata:
		return query(p, in.tokenMetadata)
	case cis2.EntrypointSupports:
		return query(p, in.supports)
	case "view":
		return in.view()
	}
	if c.variant == VariantProject || c.variant == VariantCarbon {
		switch entrypoint {
		case cis2.EntrypointIsVerified:
			return query(p, in.isVerified)
		case cis2.EntrypointMaturityOf:
			return query(p, in.maturityOf)
		}
	}
	if c.variant == VariantCarbon {
		switch entrypoint {
		case "retire":
			return nil, withParam(p, in.retire)
		case "retract":
			return nil, withParam(p, in.retract)
		}
	}
	return nil, coreerrors.Wrap(coreerrors.ErrUnknownEntrypoint, "%s on %s", entrypoint, c.variant)
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

func (in *instance) self() types.Address {
	return types.ContractOf(in.ctx.Self())
}

// burnAndRelease burns from owner, logs the burn event and, when supply
// reaches zero, releases the backing collateral to its depositor. The
// collateral record is removed before the external transfer is issued.
func (in *instance) burnAndRelease(id types.TokenID, amount types.Amount, owner types.Address, burned *types.Event) error {
	remaining, err := in.ledger.Burn(id, amount, owner)
	if err != nil {
		return err
	}
	if err := in.ctx.Log(burned); err != nil {
		return err
	}
	if amount == 0 || remaining > 0 {
		return nil
	}
	key, rec, err := in.vault.FindByMintedToken(id)
	if err != nil {
		return err
	}
	if err := in.vault.Unlink(key); err != nil {
		return err
	}
	if err := in.ctx.Log(collateral.NewRemovedEvent(key, rec.Received)); err != nil {
		return err
	}
	return in.client.Transfer(key.TokenID, key.Contract, rec.Received, in.self(), cis2.AccountReceiver(key.Owner), nil)
}

var _ host.Contract = (*Contract)(nil)

// gateMode is the eligibility mode applied to carbon credit burns.
const gateMode = gate.ModeMaturityAndVerification
