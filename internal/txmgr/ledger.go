package txmgr

import (
	"math/big"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paygatehq/paygate/internal/chain/eth"
	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

// TxType classifies an intent as a read-only call or a state-changing send.
type TxType string

// Intent types.
const (
	TypeCall TxType = "call"
	TypeSend TxType = "send"
)

// Status is the lifecycle state of an intent. Transitions are monotonic
// along pending -> submitted -> {confirmed | failed}; an intent never
// re-enters pending.
type Status string

// Intent statuses.
const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// maxIntentID bounds generated intent ids to [0, 2^53), matching the
// safe-integer range callers on the other side of a JSON boundary can
// represent.
const maxIntentID = int64(1) << 53

// SendOpts are the caller-supplied send parameters for an intent.
type SendOpts struct {
	From     string
	Gas      uint64
	GasPrice *big.Int
	Value    *big.Int
	Nonce    *uint64
}

// Intent is one attempted state-changing call tracked by the ledger.
type Intent struct {
	ID      int64
	Address string // originating account, checksum-formatted
	Method  string
	Args    []any
	Opts    SendOpts
	Type    TxType
	Nonce   uint64 // assigned sequence number, meaningful for sends only
	Status  Status
	Time    time.Time
	GasUsed uint64
	TxHash  string
	Err     string
}

// Stats is a point-in-time snapshot of ledger counts and totals. Counts
// are derived by filtering the entry list, never maintained separately,
// so they cannot drift from the source of truth.
type Stats struct {
	Pending       int
	Submitted     int
	Confirmed     int
	Failed        int
	TotalGasUsed  *big.Int
	TotalEthSpent decimal.Decimal
}

// Ledger is the in-memory ordered record of transaction intents plus
// running gas and cost totals. Entries are append-only for the life of
// the process; unbounded growth is an accepted limitation.
type Ledger struct {
	mu            sync.RWMutex
	entries       []Intent
	ids           map[int64]int // id -> index into entries
	totalGasUsed  *big.Int
	totalEthSpent decimal.Decimal
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		ids:          make(map[int64]int),
		totalGasUsed: new(big.Int),
	}
}

// Append records a new intent. A missing id is generated, the creation
// time stamped, and the status defaulted to pending. Returns the id.
func (l *Ledger) Append(intent Intent) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if intent.ID == 0 {
		intent.ID = l.nextID()
	}
	if intent.Time.IsZero() {
		intent.Time = time.Now()
	}
	if intent.Status == "" {
		intent.Status = StatusPending
	}
	intent.Address = eth.ToChecksumAddress(intent.Address)

	l.ids[intent.ID] = len(l.entries)
	l.entries = append(l.entries, intent)
	return intent.ID
}

// Update replaces the entry whose id matches intent.ID. An unknown id
// indicates a submitter logic bug and surfaces as ErrLedgerEntryMissing.
func (l *Ledger) Update(intent Intent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, ok := l.ids[intent.ID]
	if !ok {
		return gateerr.WithDetails(gateerr.ErrLedgerEntryMissing, map[string]string{
			"id": strconv.FormatInt(intent.ID, 10),
		})
	}
	l.entries[idx] = intent
	return nil
}

// Get returns a copy of the entry with the given id.
func (l *Ledger) Get(id int64) (Intent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx, ok := l.ids[id]
	if !ok {
		return Intent{}, false
	}
	return l.entries[idx], true
}

// FilterOpts narrows the result of Filter. Zero values match everything.
type FilterOpts struct {
	Status  Status
	Address string
}

// Filter returns the subsequence of entries matching the options,
// preserving ledger (creation) order. The result is a copy; filtering
// has no side effects.
func (l *Ledger) Filter(opts FilterOpts) []Intent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	addr := eth.ToChecksumAddress(opts.Address)

	var out []Intent
	for _, e := range l.entries {
		if opts.Status != "" && e.Status != opts.Status {
			continue
		}
		if opts.Address != "" && e.Address != addr {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Pending returns entries not yet submitted.
func (l *Ledger) Pending() []Intent { return l.Filter(FilterOpts{Status: StatusPending}) }

// Submitted returns in-flight entries.
func (l *Ledger) Submitted() []Intent { return l.Filter(FilterOpts{Status: StatusSubmitted}) }

// Confirmed returns successfully mined entries.
func (l *Ledger) Confirmed() []Intent { return l.Filter(FilterOpts{Status: StatusConfirmed}) }

// Failed returns entries that errored.
func (l *Ledger) Failed() []Intent { return l.Filter(FilterOpts{Status: StatusFailed}) }

// Len returns the total number of entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// InFlight counts submitted entries system-wide. The submitter uses
// this for backpressure.
func (l *Ledger) InFlight() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, e := range l.entries {
		if e.Status == StatusSubmitted {
			n++
		}
	}
	return n
}

// HighestConfirmedNonce returns the maximum nonce among an account's
// confirmed sends, and whether any exist.
func (l *Ledger) HighestConfirmedNonce(address string) (uint64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	addr := eth.ToChecksumAddress(address)
	var highest uint64
	found := false
	for _, e := range l.entries {
		if e.Type != TypeSend || e.Status != StatusConfirmed || e.Address != addr {
			continue
		}
		if !found || e.Nonce > highest {
			highest = e.Nonce
			found = true
		}
	}
	return highest, found
}

// HasSubmittedNonce reports whether an in-flight send for the account
// already claims the given nonce.
func (l *Ledger) HasSubmittedNonce(address string, nonce uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	addr := eth.ToChecksumAddress(address)
	for _, e := range l.entries {
		if e.Type == TypeSend && e.Status == StatusSubmitted && e.Address == addr && e.Nonce == nonce {
			return true
		}
	}
	return false
}

// Stats snapshots per-status counts and running totals.
func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Stats{
		TotalGasUsed:  new(big.Int).Set(l.totalGasUsed),
		TotalEthSpent: l.totalEthSpent,
	}
	for _, e := range l.entries {
		switch e.Status {
		case StatusPending:
			s.Pending++
		case StatusSubmitted:
			s.Submitted++
		case StatusConfirmed:
			s.Confirmed++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// RecordCost folds one mined transaction's cost into the running
// totals. Gas and price are exact integers; the ETH-denominated total
// is kept as an exact decimal.
func (l *Ledger) RecordCost(gasUsed, gasPrice *big.Int) {
	if gasUsed == nil || gasPrice == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cost := new(big.Int).Mul(gasUsed, gasPrice)
	l.totalGasUsed.Add(l.totalGasUsed, gasUsed)
	l.totalEthSpent = l.totalEthSpent.Add(eth.WeiToEth(cost))
}

// nextID generates a process-unique intent id in [0, 2^53). Collisions
// with live ids are regenerated; the caller holds l.mu.
func (l *Ledger) nextID() int64 {
	for {
		id := rand.Int64N(maxIntentID)
		if _, taken := l.ids[id]; !taken && id != 0 {
			return id
		}
	}
}
