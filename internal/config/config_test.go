package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

// TestDefaults verifies the shipped defaults.
func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, DefaultRPCURL, cfg.Node.RPC)
	assert.Equal(t, int64(1), cfg.Node.ChainID)
	assert.Equal(t, 100, cfg.Submitter.MaxInFlight)
	assert.Equal(t, 10, cfg.Submitter.PollIntervalSeconds)
	assert.InDelta(t, 1.2, cfg.Gas.PriceMultiplier, 0.0001)
	assert.Equal(t, "warn", cfg.Logging.Level)

	usdc, ok := cfg.Token("USDC")
	require.True(t, ok)
	assert.Equal(t, 6, usdc.Decimals)

	_, ok = cfg.Token("DOGE")
	assert.False(t, ok)
}

// TestLoad_MissingFile verifies the not-found error.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, gateerr.ErrConfigNotFound)
}

// TestLoad_InvalidYAML verifies the parse error.
func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("node: [broken"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, gateerr.ErrConfigInvalid)
}

// TestLoad_MergesOverDefaults verifies that a partial file keeps the
// defaults for everything it omits.
func TestLoad_MergesOverDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
node:
  rpc: http://localhost:8545
account:
  from: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
submitter:
  max_in_flight: 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", cfg.Node.RPC)
	assert.Equal(t, "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", cfg.Account.From)
	assert.Equal(t, 5, cfg.Submitter.MaxInFlight)
	// Untouched sections fall back to defaults.
	assert.Equal(t, "300000", cfg.Gas.Limit)
	assert.Equal(t, 2, cfg.Submitter.ReceiptIntervalSeconds)
}

// TestSaveLoadRoundTrip verifies persistence including directory
// creation.
func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	cfg := Defaults()
	cfg.Account.From = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	cfg.Contracts.Paygate = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

// TestApplyEnvironment verifies env var overrides. Not parallel: the
// process environment is shared.
func TestApplyEnvironment(t *testing.T) {
	t.Setenv(EnvRPC, "http://geth:8545")
	t.Setenv(EnvFrom, "0xabc")
	t.Setenv(EnvGasPrice, "15")
	t.Setenv(EnvMaxInFlight, "42")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvContract, "0xdef")

	cfg := Defaults()
	ApplyEnvironment(cfg)

	assert.Equal(t, "http://geth:8545", cfg.Node.RPC)
	assert.Equal(t, "0xabc", cfg.Account.From)
	assert.Equal(t, "15", cfg.Gas.PriceGwei)
	assert.Equal(t, 42, cfg.Submitter.MaxInFlight)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "0xdef", cfg.Contracts.Paygate)
}

// TestApplyEnvironment_InvalidMaxInFlight verifies that junk values
// leave the default alone.
func TestApplyEnvironment_InvalidMaxInFlight(t *testing.T) {
	t.Setenv(EnvMaxInFlight, "not-a-number")

	cfg := Defaults()
	ApplyEnvironment(cfg)
	assert.Equal(t, 100, cfg.Submitter.MaxInFlight)

	t.Setenv(EnvMaxInFlight, "-5")
	ApplyEnvironment(cfg)
	assert.Equal(t, 100, cfg.Submitter.MaxInFlight)
}
