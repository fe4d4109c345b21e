package config

// DefaultRPCURL is the default Ethereum RPC endpoint.
// Uses PublicNode (Allnodes), a privacy-first provider that requires no API key.
const DefaultRPCURL = "https://ethereum-rpc.publicnode.com"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Node: NodeConfig{
			RPC:       DefaultRPCURL,
			ChainID:   1,
			RateLimit: 20,
		},
		Gas: GasConfig{
			Limit:           "300000",
			PriceMultiplier: 1.2,
		},
		Submitter: SubmitterConfig{
			MaxInFlight:            100,
			PollIntervalSeconds:    10,
			ReceiptIntervalSeconds: 2,
		},
		Contracts: ContractsConfig{
			Tokens: []TokenConfig{
				{
					Symbol:   "USDC",
					Address:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
					Decimals: 6,
				},
			},
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}
