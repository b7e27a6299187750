package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// RPCTokenEnv overrides RPCAuthToken when set.
const RPCTokenEnv = "ASSETLEDGER_RPC_TOKEN"

type Config struct {
	DataDir         string           `toml:"DataDir"`
	RPCAddress      string           `toml:"RPCAddress"`
	RPCAuthToken    string           `toml:"RPCAuthToken,omitempty"`
	Environment     string           `toml:"Environment"`
	LogLevel        string           `toml:"LogLevel"`
	DeploymentsFile string           `toml:"DeploymentsFile,omitempty"`
	Host            Host             `toml:"Host"`
	Genesis         []GenesisAccount `toml:"Genesis,omitempty"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s: unknown key %s", path, undecoded[0])
	}

	cfg.normalize()
	if token := strings.TrimSpace(os.Getenv(RPCTokenEnv)); token != "" {
		cfg.RPCAuthToken = token
	}
	if cfg.DeploymentsFile != "" && !filepath.IsAbs(cfg.DeploymentsFile) {
		cfg.DeploymentsFile = filepath.Join(filepath.Dir(path), cfg.DeploymentsFile)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		DataDir:     "./assetledger-data",
		RPCAddress:  ":8545",
		Environment: "local",
		LogLevel:    "info",
		Host: Host{
			MaxCallDepth:     DefaultMaxCallDepth,
			MaxEventsPerCall: DefaultMaxEventsPerCall,
		},
	}
}

func (c *Config) normalize() {
	def := defaults()
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = def.DataDir
	}
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = def.RPCAddress
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = def.Environment
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Host.MaxCallDepth == 0 {
		c.Host.MaxCallDepth = def.Host.MaxCallDepth
	}
	if c.Host.MaxEventsPerCall == 0 {
		c.Host.MaxEventsPerCall = def.Host.MaxEventsPerCall
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := defaults()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
