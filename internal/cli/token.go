package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paygatehq/paygate/internal/chain/eth"
	"github.com/paygatehq/paygate/internal/txmgr"
)

var (
	tokenSymbol string
	tokenTo     string
	tokenAmount string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "ERC-20 token operations",
}

var tokenTransferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer tokens to an address",
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, err := requireFrom()
		if err != nil {
			return err
		}
		if err := eth.ValidateChecksumAddress(tokenTo); err != nil {
			return err
		}

		erc20, meta, err := tokenContract(cmd.Context(), tokenSymbol)
		if err != nil {
			return err
		}
		units, err := eth.ParseUnits(tokenAmount, meta.Decimals)
		if err != nil {
			return err
		}

		if err := confirmSend(fmt.Sprintf("Transfer %s %s from %s to %s",
			tokenAmount, meta.Symbol, from, tokenTo)); err != nil {
			return err
		}

		receipt, err := erc20.Transfer(cmd.Context(), txmgr.SendOpts{From: from}, tokenTo, units)
		if err != nil {
			return err
		}
		fmt.Printf("confirmed in block %d (tx %s, gas %d)\n",
			receipt.BlockNumber, receipt.TransactionHash, receipt.GasUsed)
		return nil
	},
}

var tokenApproveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve a spender allowance",
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, err := requireFrom()
		if err != nil {
			return err
		}
		if err := eth.ValidateChecksumAddress(tokenTo); err != nil {
			return err
		}

		erc20, meta, err := tokenContract(cmd.Context(), tokenSymbol)
		if err != nil {
			return err
		}
		units, err := eth.ParseUnits(tokenAmount, meta.Decimals)
		if err != nil {
			return err
		}

		if err := confirmSend(fmt.Sprintf("Approve %s to spend %s %s from %s",
			tokenTo, tokenAmount, meta.Symbol, from)); err != nil {
			return err
		}

		receipt, err := erc20.Approve(cmd.Context(), txmgr.SendOpts{From: from}, tokenTo, units)
		if err != nil {
			return err
		}
		fmt.Printf("confirmed in block %d (tx %s)\n", receipt.BlockNumber, receipt.TransactionHash)
		return nil
	},
}

var tokenAllowanceCmd = &cobra.Command{
	Use:   "allowance",
	Short: "Show the allowance granted to a spender",
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, err := requireFrom()
		if err != nil {
			return err
		}
		if err := eth.ValidateChecksumAddress(tokenTo); err != nil {
			return err
		}

		erc20, meta, err := tokenContract(cmd.Context(), tokenSymbol)
		if err != nil {
			return err
		}
		units, err := erc20.Allowance(cmd.Context(), from, tokenTo)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", eth.FormatUnits(units, meta.Decimals), meta.Symbol)
		return nil
	},
}

var tokenInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show token metadata and total supply",
	RunE: func(cmd *cobra.Command, _ []string) error {
		erc20, meta, err := tokenContract(cmd.Context(), tokenSymbol)
		if err != nil {
			return err
		}

		fmt.Printf("address:  %s\n", erc20.Contract().Address())
		fmt.Printf("symbol:   %s\n", meta.Symbol)
		fmt.Printf("decimals: %d\n", meta.Decimals)

		if name, nameErr := erc20.Name(cmd.Context()); nameErr == nil {
			fmt.Printf("name:     %s\n", name)
		}
		supply, err := erc20.TotalSupply(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("supply:   %s\n", eth.FormatUnits(supply, meta.Decimals))
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{tokenTransferCmd, tokenApproveCmd, tokenAllowanceCmd} {
		cmd.Flags().StringVar(&tokenSymbol, "token", "USDC", "token symbol from config, or contract address")
		cmd.Flags().StringVar(&tokenTo, "to", "", "counterparty address")
		_ = cmd.MarkFlagRequired("to")
		tokenCmd.AddCommand(cmd)
	}
	tokenInfoCmd.Flags().StringVar(&tokenSymbol, "token", "USDC", "token symbol from config, or contract address")
	tokenCmd.AddCommand(tokenInfoCmd)
	tokenTransferCmd.Flags().StringVar(&tokenAmount, "amount", "", "decimal token amount")
	_ = tokenTransferCmd.MarkFlagRequired("amount")
	tokenApproveCmd.Flags().StringVar(&tokenAmount, "amount", "", "decimal token amount")
	_ = tokenApproveCmd.MarkFlagRequired("amount")

	rootCmd.AddCommand(tokenCmd)
}
