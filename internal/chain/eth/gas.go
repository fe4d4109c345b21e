package eth

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"

	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

const (
	// DefaultGasPriceMultiplier inflates the node's suggested gas price
	// as a confirmation-speed safety margin.
	DefaultGasPriceMultiplier = 1.2

	// GasLimitETHTransfer is the gas limit for standard ETH transfers.
	GasLimitETHTransfer uint64 = 21000
	// GasLimitERC20Transfer is the typical gas limit for ERC-20 transfers.
	GasLimitERC20Transfer uint64 = 65000
	// DefaultGasLimit is the fallback limit for contract sends when the
	// caller supplies none and estimation is unavailable.
	DefaultGasLimit uint64 = 300000
)

// InflateGasPrice multiplies a suggested gas price by the configured
// multiplier. A multiplier of zero or less falls back to the default.
func InflateGasPrice(suggested *big.Int, multiplier float64) *big.Int {
	if multiplier <= 0 {
		multiplier = DefaultGasPriceMultiplier
	}
	return multiplyBigInt(suggested, multiplier)
}

// ParseGasPrice accepts a decimal gwei-denominated string and returns
// the price as an integer number of wei.
func ParseGasPrice(gwei string) (*big.Int, error) {
	d, err := decimal.NewFromString(gwei)
	if err != nil || d.Sign() < 0 {
		return nil, gateerr.WithDetails(gateerr.ErrInvalidGasPrice, map[string]string{
			"gasPrice": gwei,
		})
	}

	wei := d.Mul(decimal.New(1, GweiDecimals))
	if !wei.IsInteger() {
		return nil, gateerr.WithDetails(gateerr.ErrInvalidGasPrice, map[string]string{
			"gasPrice": gwei,
			"reason":   "sub-wei precision",
		})
	}
	return wei.BigInt(), nil
}

// ParseGasLimit parses an integer-as-string gas limit.
func ParseGasLimit(limit string) (uint64, error) {
	n, err := strconv.ParseUint(limit, 10, 64)
	if err != nil || n == 0 {
		return 0, gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{
			"gasLimit": limit,
		})
	}
	return n, nil
}

// FormatGasPrice formats a gas price in wei to a human-readable Gwei string.
func FormatGasPrice(weiPrice *big.Int) string {
	if weiPrice == nil {
		return "0 Gwei"
	}

	gwei := new(big.Float).SetInt(weiPrice)
	divisor := new(big.Float).SetInt64(1_000_000_000)
	gwei.Quo(gwei, divisor)

	return fmt.Sprintf("%.2f Gwei", gwei)
}

// multiplyBigInt multiplies a big.Int by a float multiplier.
func multiplyBigInt(n *big.Int, multiplier float64) *big.Int {
	f := new(big.Float).SetInt(n)
	m := new(big.Float).SetFloat64(multiplier)
	f.Mul(f, m)

	result, _ := f.Int(nil)
	return result
}
