package main

import (
	"errors"
	"fmt"
	"log/slog"

	"assetledger/config"
	"assetledger/contracts/fractionalizer"
	"assetledger/contracts/market"
	"assetledger/contracts/projectnft"
	coreerrors "assetledger/core/errors"
	"assetledger/core/host"
	"assetledger/core/types"
)

func registerCodes(chain *host.Chain) error {
	codes := []struct {
		name string
		code host.Contract
	}{
		{projectnft.Name, projectnft.New()},
		{fractionalizer.NamePlain, fractionalizer.New(fractionalizer.VariantPlain)},
		{fractionalizer.NameProject, fractionalizer.New(fractionalizer.VariantProject)},
		{fractionalizer.NameCarbon, fractionalizer.New(fractionalizer.VariantCarbon)},
		{market.Name, market.New()},
	}
	for _, c := range codes {
		if err := chain.Register(c.name, c.code); err != nil {
			return fmt.Errorf("register %s: %w", c.name, err)
		}
	}
	return nil
}

// firstBoot reports whether no instance has been deployed yet.
func firstBoot(chain *host.Chain) (bool, error) {
	_, err := chain.Instance(types.ContractAddress{})
	if errors.Is(err, coreerrors.ErrUnknownContract) {
		return true, nil
	}
	return false, err
}

// bootstrap funds genesis accounts and applies the deployment manifest on
// an empty ledger. Later boots leave state untouched.
func bootstrap(chain *host.Chain, cfg *config.Config, logger *slog.Logger) error {
	fresh, err := firstBoot(chain)
	if err != nil {
		return err
	}
	if !fresh {
		logger.Info("Existing ledger state found; skipping bootstrap")
		return nil
	}

	for _, acct := range cfg.Genesis {
		addr, err := config.ParseAccount(acct.Account)
		if err != nil {
			return fmt.Errorf("genesis account %q: %w", acct.Account, err)
		}
		if err := chain.Fund(addr, types.Amount(acct.Balance)); err != nil {
			return fmt.Errorf("fund %s: %w", addr, err)
		}
		logger.Info("Funded genesis account", slog.String("address", addr.String()), slog.Uint64("balance", acct.Balance))
	}

	if cfg.DeploymentsFile == "" {
		return nil
	}
	deployments, err := config.LoadDeployments(cfg.DeploymentsFile)
	if err != nil {
		return err
	}
	for i, d := range deployments {
		addr, err := deploy(chain, d)
		if err != nil {
			return fmt.Errorf("deployment %d (%s): %w", i, d.Code, err)
		}
		logger.Info("Applied deployment", slog.String("code", d.Code), slog.String("address", addr.String()))
	}
	return nil
}

func deploy(chain *host.Chain, d config.Deployment) (types.ContractAddress, error) {
	owner, err := d.OwnerAccount()
	if err != nil {
		return types.ContractAddress{}, err
	}
	var param any
	switch d.Code {
	case market.Name:
		param = market.InitParams{Commission: d.CommissionBps}
	case projectnft.Name:
		param = projectnft.InitParams{GateMode: d.GateMode}
	case fractionalizer.NamePlain, fractionalizer.NameProject, fractionalizer.NameCarbon:
		verifiers, err := d.VerifierContracts()
		if err != nil {
			return types.ContractAddress{}, err
		}
		param = fractionalizer.InitParams{VerifierContracts: verifiers}
	default:
		return types.ContractAddress{}, coreerrors.Wrap(coreerrors.ErrUnknownContract, "code %q", d.Code)
	}
	return chain.Deploy(owner, d.Code, param)
}
