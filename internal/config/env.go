package config

import (
	"os"
	"strconv"
)

// Environment variable names.
const (
	EnvHome        = "PAYGATE_HOME"
	EnvRPC         = "PAYGATE_RPC"
	EnvFrom        = "PAYGATE_FROM"
	EnvGasPrice    = "PAYGATE_GAS_PRICE"
	EnvGasLimit    = "PAYGATE_GAS_LIMIT"
	EnvMaxInFlight = "PAYGATE_MAX_IN_FLIGHT"
	EnvLogLevel    = "PAYGATE_LOG_LEVEL"
	EnvContract    = "PAYGATE_CONTRACT"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvRPC); v != "" {
		cfg.Node.RPC = v
	}

	if v := os.Getenv(EnvFrom); v != "" {
		cfg.Account.From = v
	}

	if v := os.Getenv(EnvGasPrice); v != "" {
		cfg.Gas.PriceGwei = v
	}

	if v := os.Getenv(EnvGasLimit); v != "" {
		cfg.Gas.Limit = v
	}

	if v := os.Getenv(EnvMaxInFlight); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Submitter.MaxInFlight = n
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv(EnvContract); v != "" {
		cfg.Contracts.Paygate = v
	}
}
