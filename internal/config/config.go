// Package config provides configuration management for Paygate.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/paygatehq/paygate/internal/fileutil"
	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version   int             `yaml:"version"`
	Node      NodeConfig      `yaml:"node"`
	Account   AccountConfig   `yaml:"account"`
	Gas       GasConfig       `yaml:"gas"`
	Submitter SubmitterConfig `yaml:"submitter"`
	Contracts ContractsConfig `yaml:"contracts"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NodeConfig defines the Ethereum node connection.
type NodeConfig struct {
	RPC       string  `yaml:"rpc"`
	ChainID   int64   `yaml:"chain_id"`
	RateLimit float64 `yaml:"rate_limit,omitempty"`
}

// AccountConfig defines the default sending account.
type AccountConfig struct {
	From string `yaml:"from"`
}

// GasConfig defines gas pricing knobs. PriceGwei is a decimal string;
// Limit is an integer-as-string.
type GasConfig struct {
	PriceGwei       string  `yaml:"price_gwei,omitempty"`
	Limit           string  `yaml:"limit,omitempty"`
	PriceMultiplier float64 `yaml:"price_multiplier,omitempty"`
}

// SubmitterConfig tunes the transaction coordinator.
type SubmitterConfig struct {
	MaxInFlight            int `yaml:"max_in_flight,omitempty"`
	PollIntervalSeconds    int `yaml:"poll_interval_seconds,omitempty"`
	ReceiptIntervalSeconds int `yaml:"receipt_interval_seconds,omitempty"`
}

// ContractsConfig locates the deployed contracts.
type ContractsConfig struct {
	Paygate string        `yaml:"paygate,omitempty"`
	Tokens  []TokenConfig `yaml:"tokens,omitempty"`
}

// TokenConfig defines an ERC-20 token to operate on.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals int    `yaml:"decimals"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Path returns the config file path under the given home directory.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default Paygate home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".paygate"
	}
	return filepath.Join(home, ".paygate")
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, gateerr.WithDetails(gateerr.ErrConfigNotFound, map[string]string{
				"path": path,
			})
		}
		return nil, gateerr.Wrap(err, "reading config")
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, gateerr.WithDetails(gateerr.ErrConfigInvalid, map[string]string{
			"path":  path,
			"error": err.Error(),
		})
	}
	return cfg, nil
}

// Save writes the config to a file, creating parent directories. The
// write is atomic so a crash cannot leave a half-written config.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return gateerr.Wrap(err, "marshaling config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return gateerr.Wrap(err, "creating config directory")
	}
	if err := fileutil.WriteAtomic(path, data, 0o600); err != nil {
		return gateerr.Wrap(err, "writing config")
	}
	return nil
}

// Token looks up a configured token by symbol.
func (c *Config) Token(symbol string) (TokenConfig, bool) {
	for _, t := range c.Contracts.Tokens {
		if t.Symbol == symbol {
			return t, true
		}
	}
	return TokenConfig{}, false
}
