package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paygatehq/paygate/internal/chain/eth"
	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Transaction ledger inspection",
}

var txStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show ledger counts and cumulative gas spend",
	RunE: func(_ *cobra.Command, _ []string) error {
		s := coord.Ledger().Stats()
		fmt.Printf("pending:    %d\n", s.Pending)
		fmt.Printf("submitted:  %d\n", s.Submitted)
		fmt.Printf("confirmed:  %d\n", s.Confirmed)
		fmt.Printf("failed:     %d\n", s.Failed)
		fmt.Printf("gas used:   %s\n", s.TotalGasUsed)
		fmt.Printf("eth spent:  %s\n", s.TotalEthSpent)
		return nil
	},
}

var gasCmd = &cobra.Command{
	Use:   "gas",
	Short: "Show the node's suggested gas price and the effective send price",
	RunE: func(cmd *cobra.Command, _ []string) error {
		suggested, err := node.GasPrice(cmd.Context())
		if err != nil {
			return gateerr.Wrap(err, "getting gas price")
		}
		multiplier := cfg.Gas.PriceMultiplier
		if multiplier <= 0 {
			multiplier = eth.DefaultGasPriceMultiplier
		}
		fmt.Printf("suggested: %s\n", eth.FormatGasPrice(suggested))
		fmt.Printf("effective: %s (x%.1f)\n",
			eth.FormatGasPrice(eth.InflateGasPrice(suggested, multiplier)), multiplier)
		return nil
	},
}

func init() {
	txCmd.AddCommand(txStatsCmd)
	rootCmd.AddCommand(txCmd, gasCmd)
}
