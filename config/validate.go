package config

import (
	"fmt"
)

// MaxEventsPerCallLimit caps the configurable per-call event capacity.
const MaxEventsPerCallLimit = 4096

func Validate(c *Config) error {
	if c.Host.MaxCallDepth < 1 {
		return fmt.Errorf("host: MaxCallDepth must be positive")
	}
	if c.Host.MaxEventsPerCall < 1 || c.Host.MaxEventsPerCall > MaxEventsPerCallLimit {
		return fmt.Errorf("host: MaxEventsPerCall must be within 1..%d", MaxEventsPerCallLimit)
	}
	seen := make(map[string]struct{}, len(c.Genesis))
	for i, g := range c.Genesis {
		acct, err := ParseAccount(g.Account)
		if err != nil {
			return fmt.Errorf("genesis %d: %w", i, err)
		}
		if _, dup := seen[acct.String()]; dup {
			return fmt.Errorf("genesis %d: account %s funded twice", i, acct)
		}
		seen[acct.String()] = struct{}{}
	}
	return nil
}
