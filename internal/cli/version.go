package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paygatehq/paygate/internal/version"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Printf("paygate %s", version.Version)
		if version.Commit != "" {
			fmt.Printf(" (%s)", version.Commit)
		}
		fmt.Println()

		if !versionCheck {
			return nil
		}

		release, err := version.NewClient("").LatestRelease(cmd.Context())
		if err != nil {
			return err
		}
		if version.IsNewer(version.Version, release.TagName) {
			fmt.Printf("update available: %s\n", release.TagName)
		} else {
			fmt.Println("up to date")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}
