package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"assetledger/core/types"
)

// Deployment describes one contract instance created on an empty chain.
type Deployment struct {
	// Code is the registered contract name, e.g. "carbon_credits".
	Code          string   `yaml:"name"`
	Owner         string   `yaml:"owner"`
	CommissionBps uint16   `yaml:"commissionBps,omitempty"`
	GateMode      string   `yaml:"gateMode,omitempty"`
	Verifiers     []string `yaml:"verifiers,omitempty"`
}

type manifest struct {
	Deployments []Deployment `yaml:"deployments"`
}

// OwnerAccount parses the deployment owner.
func (d Deployment) OwnerAccount() (types.AccountAddress, error) {
	return ParseAccount(d.Owner)
}

// VerifierContracts parses the verifier contract addresses.
func (d Deployment) VerifierContracts() ([]types.ContractAddress, error) {
	out := make([]types.ContractAddress, 0, len(d.Verifiers))
	for _, raw := range d.Verifiers {
		addr, err := types.ParseContractAddress(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// LoadDeployments reads the YAML deployment manifest.
func LoadDeployments(path string) ([]Deployment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse deployments %s: %w", path, err)
	}
	for i, d := range m.Deployments {
		if strings.TrimSpace(d.Code) == "" {
			return nil, fmt.Errorf("deployment %d: name required", i)
		}
		if _, err := d.OwnerAccount(); err != nil {
			return nil, fmt.Errorf("deployment %d (%s): owner: %w", i, d.Code, err)
		}
		if _, err := d.VerifierContracts(); err != nil {
			return nil, fmt.Errorf("deployment %d (%s): verifiers: %w", i, d.Code, err)
		}
	}
	return m.Deployments, nil
}
