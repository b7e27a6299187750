package config

import (
	"strings"

	"assetledger/core/types"
)

const (
	DefaultMaxCallDepth     = 16
	DefaultMaxEventsPerCall = 64
)

// Host bounds contract execution.
type Host struct {
	MaxCallDepth     int `toml:"MaxCallDepth"`
	MaxEventsPerCall int `toml:"MaxEventsPerCall"`
}

// GenesisAccount is funded with native currency on first boot. Balance is
// in micro units.
type GenesisAccount struct {
	Account string `toml:"Account"`
	Balance uint64 `toml:"Balance"`
}

// seedPrefix marks development accounts derived from a seed phrase instead
// of a bech32 address.
const seedPrefix = "seed:"

// ParseAccount accepts a bech32 account address or "seed:<phrase>".
func ParseAccount(s string) (types.AccountAddress, error) {
	trimmed := strings.TrimSpace(s)
	if phrase, ok := strings.CutPrefix(trimmed, seedPrefix); ok {
		return types.AccountFromSeed(phrase), nil
	}
	return types.ParseAccountAddress(trimmed)
}
