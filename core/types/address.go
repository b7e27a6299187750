package types

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"assetledger/crypto"
)

// AddressKind tags the variant held by an Address.
type AddressKind uint8

const (
	AddressAccount AddressKind = iota
	AddressContract
)

// AccountAddress identifies an externally owned account.
type AccountAddress [crypto.AccountAddressLength]byte

// AccountFromSeed derives a deterministic account address, mostly useful for
// fixtures and genesis manifests.
func AccountFromSeed(seed string) AccountAddress {
	var out AccountAddress
	copy(out[:], crypto.DeriveAccount([]byte(seed)))
	return out
}

// String renders the account in bech32 form.
func (a AccountAddress) String() string {
	addr, err := crypto.NewAddress(crypto.AccountPrefix, a[:])
	if err != nil {
		return ""
	}
	return addr.String()
}

// IsZero reports whether the address is all zero bytes.
func (a AccountAddress) IsZero() bool {
	return a == AccountAddress{}
}

func (a AccountAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountAddress) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAccountAddress decodes a bech32 account address.
func ParseAccountAddress(s string) (AccountAddress, error) {
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(s))
	if err != nil {
		return AccountAddress{}, err
	}
	var out AccountAddress
	copy(out[:], decoded.Bytes())
	return out, nil
}

// ContractAddress identifies a deployed contract instance.
type ContractAddress struct {
	Index    uint64
	SubIndex uint64
}

// String renders the contract address as <index,subindex>.
func (c ContractAddress) String() string {
	return fmt.Sprintf("<%d,%d>", c.Index, c.SubIndex)
}

func (c ContractAddress) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ContractAddress) UnmarshalText(text []byte) error {
	parsed, err := ParseContractAddress(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseContractAddress decodes the <index,subindex> form.
func ParseContractAddress(s string) (ContractAddress, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "<") || !strings.HasSuffix(trimmed, ">") {
		return ContractAddress{}, fmt.Errorf("invalid contract address %q", s)
	}
	parts := strings.Split(trimmed[1:len(trimmed)-1], ",")
	if len(parts) != 2 {
		return ContractAddress{}, fmt.Errorf("invalid contract address %q", s)
	}
	index, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return ContractAddress{}, fmt.Errorf("invalid contract index: %w", err)
	}
	sub, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return ContractAddress{}, fmt.Errorf("invalid contract subindex: %w", err)
	}
	return ContractAddress{Index: index, SubIndex: sub}, nil
}

// Address is either an account or a contract.
type Address struct {
	Kind     AddressKind
	Account  AccountAddress
	Contract ContractAddress
}

// AccountOf wraps an account address.
func AccountOf(a AccountAddress) Address {
	return Address{Kind: AddressAccount, Account: a}
}

// ContractOf wraps a contract address.
func ContractOf(c ContractAddress) Address {
	return Address{Kind: AddressContract, Contract: c}
}

func (a Address) IsAccount() bool  { return a.Kind == AddressAccount }
func (a Address) IsContract() bool { return a.Kind == AddressContract }

// Bytes returns a stable binary form suitable for storage keys.
func (a Address) Bytes() []byte {
	if a.Kind == AddressContract {
		out := make([]byte, 17)
		out[0] = byte(AddressContract)
		binary.BigEndian.PutUint64(out[1:9], a.Contract.Index)
		binary.BigEndian.PutUint64(out[9:], a.Contract.SubIndex)
		return out
	}
	out := make([]byte, 1+len(a.Account))
	out[0] = byte(AddressAccount)
	copy(out[1:], a.Account[:])
	return out
}

func (a Address) String() string {
	if a.Kind == AddressContract {
		return a.Contract.String()
	}
	return a.Account.String()
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress accepts either a bech32 account or a <index,subindex> contract.
func ParseAddress(s string) (Address, error) {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "<") {
		c, err := ParseContractAddress(trimmed)
		if err != nil {
			return Address{}, err
		}
		return ContractOf(c), nil
	}
	acct, err := ParseAccountAddress(trimmed)
	if err != nil {
		return Address{}, err
	}
	return AccountOf(acct), nil
}

// AddressFromBytes reverses Address.Bytes.
func AddressFromBytes(raw []byte) (Address, error) {
	if len(raw) == 0 {
		return Address{}, fmt.Errorf("empty address bytes")
	}
	switch AddressKind(raw[0]) {
	case AddressAccount:
		if len(raw) != 1+crypto.AccountAddressLength {
			return Address{}, fmt.Errorf("invalid account address length %d", len(raw))
		}
		var acct AccountAddress
		copy(acct[:], raw[1:])
		return AccountOf(acct), nil
	case AddressContract:
		if len(raw) != 17 {
			return Address{}, fmt.Errorf("invalid contract address length %d", len(raw))
		}
		return ContractOf(ContractAddress{
			Index:    binary.BigEndian.Uint64(raw[1:9]),
			SubIndex: binary.BigEndian.Uint64(raw[9:]),
		}), nil
	default:
		return Address{}, fmt.Errorf("unknown address kind %d", raw[0])
	}
}
