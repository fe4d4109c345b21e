// Package cli implements the Paygate command-line interface.
//
// This package uses global variables to manage CLI state, which is the
// standard pattern for Cobra-based CLI applications. The globals are
// initialized in PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/paygatehq/paygate/internal/chain/eth"
	"github.com/paygatehq/paygate/internal/chain/eth/rpc"
	"github.com/paygatehq/paygate/internal/config"
	"github.com/paygatehq/paygate/internal/logging"
	"github.com/paygatehq/paygate/internal/txmgr"
	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

var (
	// Global flags
	homeDir  string
	rpcURL   string
	fromAddr string
	verbose  bool

	// Global state initialized in PersistentPreRunE
	home   string
	cfg    *config.Config
	logger logging.Logger
	node   *rpc.Client
	coord  *txmgr.Coordinator
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "paygate",
	Short: "Client for ERC-20 tokens and the paygate subscription contract",
	Long: `Paygate talks to an Ethereum node to operate ERC-20 tokens and a
subscription-access contract. State-changing calls run through a
transaction coordinator that serializes nonce assignment per account
and tracks every submission in an in-process ledger.

Example:
  paygate balance 0x742d35Cc6634C0532925a3b844Bc454e4438f44e
  paygate token transfer --token USDC --to 0x... --amount 12.5
  paygate sub status
  paygate tx stats`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return gateerr.ExitCode(err)
}

func printError(err error) {
	var pe *gateerr.PaygateError
	if ok := asPaygateError(err, &pe); ok {
		fmt.Fprintf(os.Stderr, "error [%s]: %s\n", pe.Code, pe.Error())
		if pe.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", pe.Suggestion)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

// initGlobals initializes configuration, logger, node client and
// coordinator.
func initGlobals() error {
	home = homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	if err != nil {
		// Missing config falls back to defaults; anything else is fatal.
		var pe *gateerr.PaygateError
		if !asPaygateError(err, &pe) || pe.Code != gateerr.ErrConfigNotFound.Code {
			return err
		}
		cfg = config.Defaults()
	}
	config.ApplyEnvironment(cfg)

	if rpcURL != "" {
		cfg.Node.RPC = rpcURL
	}
	if fromAddr != "" {
		cfg.Account.From = fromAddr
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err = logging.New(level)
	if err != nil {
		return gateerr.Wrap(err, "initializing logger")
	}

	node, err = rpc.NewClient(cfg.Node.RPC, &rpc.ClientOptions{RateLimit: cfg.Node.RateLimit})
	if err != nil {
		return err
	}

	coord = txmgr.NewCoordinator(node, coordinatorConfig(cfg), logger, nil)
	return nil
}

// coordinatorConfig translates file-level knobs into the coordinator's
// configuration.
func coordinatorConfig(cfg *config.Config) txmgr.Config {
	out := txmgr.Config{
		MaxInFlight:        cfg.Submitter.MaxInFlight,
		PollInterval:       time.Duration(cfg.Submitter.PollIntervalSeconds) * time.Second,
		ReceiptInterval:    time.Duration(cfg.Submitter.ReceiptIntervalSeconds) * time.Second,
		GasPriceMultiplier: cfg.Gas.PriceMultiplier,
	}

	if cfg.Gas.Limit != "" {
		if limit, err := eth.ParseGasLimit(cfg.Gas.Limit); err == nil {
			out.DefaultGasLimit = limit
		}
	}
	if cfg.Gas.PriceGwei != "" {
		if price, err := eth.ParseGasPrice(cfg.Gas.PriceGwei); err == nil {
			out.GasPrice = price
		}
	}
	return out
}

// requireFrom returns the sending account or a config error.
func requireFrom() (string, error) {
	if cfg.Account.From == "" {
		return "", gateerr.WithSuggestion(gateerr.ErrAddressRequired,
			"set account.from in config.yaml, PAYGATE_FROM, or --from")
	}
	if err := eth.ValidateChecksumAddress(cfg.Account.From); err != nil {
		return "", err
	}
	return eth.ToChecksumAddress(cfg.Account.From), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "paygate home directory")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "Ethereum node RPC endpoint")
	rootCmd.PersistentFlags().StringVar(&fromAddr, "from", "", "sending account address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
