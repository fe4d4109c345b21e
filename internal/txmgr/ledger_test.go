package txmgr

import (
	"math/big"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

const (
	testAddress      = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	otherTestAddress = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
)

// TestLedger_AppendDefaults verifies that Append stamps id, time and
// status when missing.
func TestLedger_AppendDefaults(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	id := l.Append(Intent{Address: testAddress, Method: "transfer", Type: TypeSend})
	require.NotZero(t, id)
	assert.Less(t, id, maxIntentID)

	got, ok := l.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)
	assert.False(t, got.Time.IsZero())
	assert.Equal(t, testAddress, got.Address)
}

// TestLedger_AppendChecksumsAddress verifies that lowercase addresses
// are normalized on entry.
func TestLedger_AppendChecksumsAddress(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	id := l.Append(Intent{Address: "0x742d35cc6634c0532925a3b844bc454e4438f44e", Type: TypeSend})
	got, ok := l.Get(id)
	require.True(t, ok)
	assert.Equal(t, testAddress, got.Address)
}

// TestLedger_UniqueIDs verifies that concurrently generated ids do not
// collide.
func TestLedger_UniqueIDs(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	const n = 500
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = l.Append(Intent{Address: testAddress, Type: TypeSend})
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Equal(t, n, l.Len())
}

// TestLedger_UpdateUnknownID verifies the missing-entry error.
func TestLedger_UpdateUnknownID(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	err := l.Update(Intent{ID: 12345})
	require.Error(t, err)
	assert.ErrorIs(t, err, gateerr.ErrLedgerEntryMissing)
}

// TestLedger_FilterAndStatusViews verifies filtering by status and
// address and the derived status helpers.
func TestLedger_FilterAndStatusViews(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	a := l.Append(Intent{Address: testAddress, Type: TypeSend})
	b := l.Append(Intent{Address: testAddress, Type: TypeSend})
	c := l.Append(Intent{Address: otherTestAddress, Type: TypeSend})

	entry, _ := l.Get(b)
	entry.Status = StatusSubmitted
	require.NoError(t, l.Update(entry))

	entry, _ = l.Get(c)
	entry.Status = StatusConfirmed
	require.NoError(t, l.Update(entry))

	assert.Len(t, l.Pending(), 1)
	assert.Len(t, l.Submitted(), 1)
	assert.Len(t, l.Confirmed(), 1)
	assert.Empty(t, l.Failed())

	byAddr := l.Filter(FilterOpts{Address: testAddress})
	require.Len(t, byAddr, 2)
	assert.Equal(t, a, byAddr[0].ID)
	assert.Equal(t, b, byAddr[1].ID)

	both := l.Filter(FilterOpts{Status: StatusConfirmed, Address: otherTestAddress})
	require.Len(t, both, 1)
	assert.Equal(t, c, both[0].ID)
}

// TestLedger_StatsMatchFilteredCounts verifies that the stats snapshot
// agrees with explicit filtering.
func TestLedger_StatsMatchFilteredCounts(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	statuses := []Status{
		StatusPending, StatusPending,
		StatusSubmitted,
		StatusConfirmed, StatusConfirmed, StatusConfirmed,
		StatusFailed,
	}
	for _, st := range statuses {
		id := l.Append(Intent{Address: testAddress, Type: TypeSend})
		entry, _ := l.Get(id)
		entry.Status = st
		require.NoError(t, l.Update(entry))
	}

	s := l.Stats()
	assert.Equal(t, len(l.Pending()), s.Pending)
	assert.Equal(t, len(l.Submitted()), s.Submitted)
	assert.Equal(t, len(l.Confirmed()), s.Confirmed)
	assert.Equal(t, len(l.Failed()), s.Failed)
	assert.Equal(t, 2, s.Pending)
	assert.Equal(t, 1, s.Submitted)
	assert.Equal(t, 3, s.Confirmed)
	assert.Equal(t, 1, s.Failed)
}

// TestLedger_RecordCost verifies exact gas and cost accumulation.
func TestLedger_RecordCost(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	// 21000 gas at 10 gwei, twice.
	gas := big.NewInt(21000)
	price := big.NewInt(10_000_000_000)
	l.RecordCost(gas, price)
	l.RecordCost(gas, price)

	s := l.Stats()
	assert.Equal(t, big.NewInt(42000), s.TotalGasUsed)

	// 2 * 21000 * 10 gwei = 420000 gwei = 0.00042 ETH.
	want := decimal.RequireFromString("0.00042")
	assert.True(t, want.Equal(s.TotalEthSpent), "got %s", s.TotalEthSpent)
}

// TestLedger_RecordCostNilInputs verifies nil arguments are ignored.
func TestLedger_RecordCostNilInputs(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	l.RecordCost(nil, big.NewInt(1))
	l.RecordCost(big.NewInt(1), nil)

	s := l.Stats()
	assert.Zero(t, s.TotalGasUsed.Sign())
	assert.True(t, s.TotalEthSpent.IsZero())
}

// TestLedger_InFlight verifies the backpressure count only sees
// submitted entries.
func TestLedger_InFlight(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	for i, st := range []Status{StatusPending, StatusSubmitted, StatusSubmitted, StatusConfirmed, StatusFailed} {
		id := l.Append(Intent{Address: testAddress, Type: TypeSend})
		entry, _ := l.Get(id)
		entry.Status = st
		entry.Nonce = uint64(i)
		require.NoError(t, l.Update(entry))
	}

	assert.Equal(t, 2, l.InFlight())
}

// TestLedger_HighestConfirmedNonce verifies per-account confirmed
// nonce tracking.
func TestLedger_HighestConfirmedNonce(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	_, found := l.HighestConfirmedNonce(testAddress)
	assert.False(t, found)

	add := func(addr string, nonce uint64, st Status) {
		id := l.Append(Intent{Address: addr, Type: TypeSend})
		entry, _ := l.Get(id)
		entry.Status = st
		entry.Nonce = nonce
		require.NoError(t, l.Update(entry))
	}

	add(testAddress, 7, StatusConfirmed)
	add(testAddress, 3, StatusConfirmed)
	add(testAddress, 9, StatusSubmitted)        // in flight, not confirmed
	add(otherTestAddress, 42, StatusConfirmed)  // different account
	add(testAddress, 11, StatusFailed)          // failed never counts

	highest, found := l.HighestConfirmedNonce(testAddress)
	require.True(t, found)
	assert.Equal(t, uint64(7), highest)
}

// TestLedger_HasSubmittedNonce verifies the in-flight nonce lookup
// used by the contiguous-run scan.
func TestLedger_HasSubmittedNonce(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	id := l.Append(Intent{Address: testAddress, Type: TypeSend})
	entry, _ := l.Get(id)
	entry.Status = StatusSubmitted
	entry.Nonce = 5
	require.NoError(t, l.Update(entry))

	assert.True(t, l.HasSubmittedNonce(testAddress, 5))
	assert.False(t, l.HasSubmittedNonce(testAddress, 6))
	assert.False(t, l.HasSubmittedNonce(otherTestAddress, 5))

	// Case-insensitive on the lookup side too.
	assert.True(t, l.HasSubmittedNonce("0x742d35cc6634c0532925a3b844bc454e4438f44e", 5))
}
