package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/paygatehq/paygate/internal/chain/eth"
	"github.com/paygatehq/paygate/internal/txmgr"
)

var subCmd = &cobra.Command{
	Use:   "sub",
	Short: "Subscription-access contract operations",
}

var subStatusCmd = &cobra.Command{
	Use:   "status [address]",
	Short: "Show subscription status for an account",
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

		pg, err := paygateContract()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		active, err := pg.IsSubscribed(ctx, address)
		if err != nil {
			return err
		}
		expiry, err := pg.ExpiryOf(ctx, address)
		if err != nil {
			return err
		}

		if !active {
			fmt.Printf("%s: not subscribed\n", eth.ToChecksumAddress(address))
			return nil
		}
		fmt.Printf("%s: subscribed until %s\n", eth.ToChecksumAddress(address),
			time.Unix(expiry.Int64(), 0).UTC().Format(time.RFC3339))
		return nil
	},
}

var subPriceCmd = &cobra.Command{
	Use:   "price",
	Short: "Show the current subscription price",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pg, err := paygateContract()
		if err != nil {
			return err
		}
		price, err := pg.Price(cmd.Context())
		if err != nil {
			return err
		}
		period, err := pg.SubscriptionPeriod(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s ETH per %s\n", eth.FormatWei(price), period)
		return nil
	},
}

var subSubscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Pay for a subscription period",
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, err := requireFrom()
		if err != nil {
			return err
		}
		pg, err := paygateContract()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		price, err := pg.Price(ctx)
		if err != nil {
			return err
		}

		if err := confirmSend(fmt.Sprintf("Subscribe %s for %s ETH",
			from, eth.FormatWei(price))); err != nil {
			return err
		}

		receipt, err := pg.Subscribe(ctx, txmgr.SendOpts{From: from, Value: price})
		if err != nil {
			return err
		}
		fmt.Printf("subscribed (tx %s, block %d)\n", receipt.TransactionHash, receipt.BlockNumber)
		return nil
	},
}

var subWithdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw contract funds (owner only)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, err := requireFrom()
		if err != nil {
			return err
		}
		pg, err := paygateContract()
		if err != nil {
			return err
		}

		if err := confirmSend(fmt.Sprintf("Withdraw contract balance to %s", from)); err != nil {
			return err
		}

		receipt, err := pg.Withdraw(cmd.Context(), txmgr.SendOpts{From: from})
		if err != nil {
			return err
		}
		fmt.Printf("withdrawn (tx %s)\n", receipt.TransactionHash)
		return nil
	},
}

var subSetPriceCmd = &cobra.Command{
	Use:   "set-price <eth>",
	Short: "Change the subscription price (owner only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := requireFrom()
		if err != nil {
			return err
		}
		newPrice, err := eth.ParseEth(args[0])
		if err != nil {
			return err
		}
		pg, err := paygateContract()
		if err != nil {
			return err
		}

		if err := confirmSend(fmt.Sprintf("Set subscription price to %s ETH", args[0])); err != nil {
			return err
		}

		receipt, err := pg.SetPrice(cmd.Context(), txmgr.SendOpts{From: from}, newPrice)
		if err != nil {
			return err
		}
		fmt.Printf("price updated (tx %s)\n", receipt.TransactionHash)
		return nil
	},
}

func init() {
	subCmd.AddCommand(subStatusCmd, subPriceCmd, subSubscribeCmd, subWithdrawCmd, subSetPriceCmd)
	rootCmd.AddCommand(subCmd)
}
