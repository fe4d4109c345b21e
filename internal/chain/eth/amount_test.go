package eth

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

// TestParseEth covers decimal ETH to wei conversion.
func TestParseEth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		amount  string
		want    string // wei, as a decimal string
		wantErr bool
	}{
		{"one ether", "1", "1000000000000000000", false},
		{"fractional", "0.5", "500000000000000000", false},
		{"small", "0.000000001", "1000000000", false},
		{"one wei", "0.000000000000000001", "1", false},
		{"zero", "0", "0", false},
		{"large", "1000000", "1000000000000000000000000", false},
		{"negative", "-1", "", true},
		{"too precise", "0.0000000000000000001", "", true},
		{"not a number", "abc", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseEth(tt.amount)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, gateerr.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			want, ok := new(big.Int).SetString(tt.want, 10)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

// TestFormatWei covers wei to decimal ETH formatting.
func TestFormatWei(t *testing.T) {
	t.Parallel()

	one, _ := new(big.Int).SetString("1000000000000000000", 10)
	half, _ := new(big.Int).SetString("500000000000000000", 10)

	assert.Equal(t, "1", FormatWei(one))
	assert.Equal(t, "0.5", FormatWei(half))
	assert.Equal(t, "0.000000000000000001", FormatWei(big.NewInt(1)))
	assert.Equal(t, "0", FormatWei(big.NewInt(0)))
	assert.Equal(t, "0", FormatWei(nil))
}

// TestWeiToEth verifies the exact decimal conversion used by cost
// accounting.
func TestWeiToEth(t *testing.T) {
	t.Parallel()

	cost, _ := new(big.Int).SetString("252000000000000", 10) // 21000 * 12 gwei
	got := WeiToEth(cost)
	assert.True(t, decimal.RequireFromString("0.000252").Equal(got), "got %s", got)
	assert.True(t, WeiToEth(nil).IsZero())
}

// TestParseFormatUnits covers token amounts at non-ETH decimal counts.
func TestParseFormatUnits(t *testing.T) {
	t.Parallel()

	// 1.5 USDC at 6 decimals.
	units, err := ParseUnits("1.5", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_500_000), units)
	assert.Equal(t, "1.5", FormatUnits(units, 6))

	// Zero-decimal token.
	units, err = ParseUnits("42", 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), units)

	_, err = ParseUnits("0.0000001", 6)
	require.Error(t, err)
	_, err = ParseUnits("-1", 6)
	require.Error(t, err)

	assert.Equal(t, "0", FormatUnits(nil, 6))
}
