package eth

import (
	"math/big"

	"github.com/shopspring/decimal"

	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

const (
	// Decimals is the number of decimals for ETH.
	Decimals = 18

	// GweiDecimals is the number of decimals between gwei and wei.
	GweiDecimals = 9
)

// weiPerEth is 10^18 as a decimal, used for wei <-> ETH conversion.
var weiPerEth = decimal.New(1, Decimals)

// ParseEth converts a human-readable decimal ETH string to wei.
func ParseEth(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, gateerr.WithDetails(gateerr.ErrInvalidAmount, map[string]string{
			"amount": amount,
		})
	}
	if d.Sign() < 0 {
		return nil, gateerr.WithDetails(gateerr.ErrInvalidAmount, map[string]string{
			"amount": amount,
			"reason": "negative",
		})
	}

	wei := d.Mul(weiPerEth)
	if !wei.IsInteger() {
		return nil, gateerr.WithDetails(gateerr.ErrInvalidAmount, map[string]string{
			"amount": amount,
			"reason": "more than 18 decimal places",
		})
	}
	return wei.BigInt(), nil
}

// FormatWei converts a wei amount to a human-readable decimal ETH string.
func FormatWei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -Decimals).String()
}

// WeiToEth converts a wei amount to an exact decimal ETH value.
func WeiToEth(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -Decimals)
}

// ParseUnits converts a decimal string to an integer amount with the
// given number of decimals. Used for ERC-20 token amounts.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil || d.Sign() < 0 {
		return nil, gateerr.WithDetails(gateerr.ErrInvalidAmount, map[string]string{
			"amount": amount,
		})
	}

	units := d.Mul(decimal.New(1, int32(decimals)))
	if !units.IsInteger() {
		return nil, gateerr.WithDetails(gateerr.ErrInvalidAmount, map[string]string{
			"amount":   amount,
			"decimals": decimal.NewFromInt(int64(decimals)).String(),
		})
	}
	return units.BigInt(), nil
}

// FormatUnits converts an integer amount with the given number of
// decimals back to a decimal string.
func FormatUnits(units *big.Int, decimals int) string {
	if units == nil {
		return "0"
	}
	return decimal.NewFromBigInt(units, -int32(decimals)).String()
}
