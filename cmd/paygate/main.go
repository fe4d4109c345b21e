// Package main is the entry point for the paygate CLI.
package main

import (
	"os"

	"github.com/paygatehq/paygate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
