package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paygatehq/paygate/internal/chain/eth"
	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Show ETH and configured token balances",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := ""
		if len(args) == 1 {
			address = args[0]
		} else {
			var err error
			address, err = requireFrom()
			if err != nil {
				return err
			}
		}
		if err := eth.ValidateChecksumAddress(address); err != nil {
			return err
		}
		address = eth.ToChecksumAddress(address)

		ctx := cmd.Context()
		wei, err := node.GetBalance(ctx, address, "latest")
		if err != nil {
			return gateerr.Wrap(err, "getting balance")
		}
		fmt.Printf("%s\n  ETH: %s\n", address, eth.FormatWei(wei))

		for _, tok := range cfg.Contracts.Tokens {
			erc20, meta, tokenErr := tokenContract(ctx, tok.Symbol)
			if tokenErr != nil {
				continue
			}
			units, tokenErr := erc20.BalanceOf(ctx, address)
			if tokenErr != nil {
				logger.Warnf("balanceOf %s: %v", tok.Symbol, tokenErr)
				continue
			}
			fmt.Printf("  %s: %s\n", meta.Symbol, eth.FormatUnits(units, meta.Decimals))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}
