package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"assetledger/config"
	"assetledger/contracts/fractionalizer"
	"assetledger/contracts/market"
	"assetledger/contracts/projectnft"
	"assetledger/core/host"
	"assetledger/core/types"
	"assetledger/storage"
)

const manifest = `deployments:
  - name: project_nft
    owner: "seed:operator"
    gateMode: maturity
  - name: carbon_credits
    owner: "seed:operator"
    verifiers: ["<0,0>"]
  - name: Market-NFT
    owner: "seed:operator"
    commissionBps: 250
`

func newChain(t *testing.T) *host.Chain {
	t.Helper()
	chain, err := host.NewChain(storage.NewMemDB())
	require.NoError(t, err)
	require.NoError(t, registerCodes(chain))
	return chain
}

func TestBootstrapAppliesGenesisAndManifestOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deployments.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o600))

	cfg := &config.Config{
		DeploymentsFile: path,
		Genesis:         []config.GenesisAccount{{Account: "seed:alice", Balance: 1_000}},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	chain := newChain(t)

	require.NoError(t, bootstrap(chain, cfg, logger))
	require.NoError(t, bootstrap(chain, cfg, logger))

	bal, err := chain.Balance(types.AccountFromSeed("alice"))
	require.NoError(t, err)
	require.Equal(t, types.Amount(1_000), bal)

	operator := types.AccountFromSeed("operator")
	for i, name := range []string{projectnft.Name, fractionalizer.NameCarbon, market.Name} {
		inst, err := chain.Instance(types.ContractAddress{Index: uint64(i)})
		require.NoError(t, err)
		require.Equal(t, name, inst.Name)
		require.Equal(t, operator, inst.Owner)
	}
	_, err = chain.Instance(types.ContractAddress{Index: 3})
	require.Error(t, err)

	ret, err := chain.Invoke(operator, types.ContractAddress{Index: 2}, "view", nil)
	require.NoError(t, err)
	require.Equal(t, uint16(250), ret.(*market.ViewResult).Commission)
}

func TestBootstrapRejectsUnknownCode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deployments.yaml")
	require.NoError(t, os.WriteFile(path, []byte("deployments:\n  - name: nope\n    owner: \"seed:x\"\n"), 0o600))

	chain := newChain(t)
	err := bootstrap(chain, &config.Config{DeploymentsFile: path}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}

func TestRegisterCodes(t *testing.T) {
	chain := newChain(t)
	require.ElementsMatch(t, []string{
		projectnft.Name,
		fractionalizer.NamePlain,
		fractionalizer.NameProject,
		fractionalizer.NameCarbon,
		market.Name,
	}, chain.Codes())
}
