package txmgr

import (
	"context"
	"fmt"

	"github.com/paygatehq/paygate/internal/chain/eth"
)

// NodeReader is the node surface the resolver needs.
type NodeReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	GetTransactionCount(ctx context.Context, address, block string) (uint64, error)
}

// NonceDetails is the diagnostic breakdown of one resolution.
type NonceDetails struct {
	LocalNonceResult        uint64 // contiguous-run scan result
	HighestLocallyConfirmed uint64 // max confirmed nonce + 1, 0 if none
	HighestSuggested        uint64 // max(network, locally confirmed)
	NextNetworkNonce        uint64 // node's transaction count at the latest block
}

// Resolution is the outcome of resolving the next safe nonce for an
// account. Release must be invoked exactly once, after the nonce has
// been durably committed to a submitted ledger entry; releasing early
// reopens the race the per-account lock exists to prevent. Extra
// Release calls are no-ops.
type Resolution struct {
	NextNonce uint64
	Details   NonceDetails
	Release   func()
}

// NonceResolver computes the next safe transaction nonce for an
// account by reconciling the node's view with locally tracked
// pending and confirmed sends.
type NonceResolver struct {
	node   NodeReader
	ledger *Ledger
	locks  *KeyedMutex
}

// NewNonceResolver creates a resolver over the given node view,
// ledger and lock registry.
func NewNonceResolver(node NodeReader, ledger *Ledger, locks *KeyedMutex) *NonceResolver {
	return &NonceResolver{
		node:   node,
		ledger: ledger,
		locks:  locks,
	}
}

// Resolve serializes on the per-account mutex, reconciles the node's
// transaction count with locally confirmed and in-flight sends, and
// returns the next safe nonce. On error the lock is released before
// returning; no lock leaks on the failure path.
func (r *NonceResolver) Resolve(ctx context.Context, account string) (*Resolution, error) {
	// Lowercase and checksummed spellings of one account must contend
	// on the same mutex, so the key is always the checksummed form.
	release, err := r.locks.LockContext(ctx, eth.ToChecksumAddress(account))
	if err != nil {
		return nil, fmt.Errorf("acquiring nonce lock: %w", err)
	}

	block, err := r.node.BlockNumber(ctx)
	if err != nil {
		release()
		return nil, fmt.Errorf("getting block number: %w", err)
	}

	networkNonce, err := r.node.GetTransactionCount(ctx, account, fmt.Sprintf("0x%x", block))
	if err != nil {
		release()
		return nil, fmt.Errorf("getting transaction count: %w", err)
	}

	// Highest locally confirmed nonce, plus one to make it a "next".
	var confirmed uint64
	if highest, ok := r.ledger.HighestConfirmedNonce(account); ok {
		confirmed = highest + 1
	}

	suggested := networkNonce
	if confirmed > suggested {
		suggested = confirmed
	}

	// Walk the contiguous run of in-flight nonces starting at the
	// suggestion. This is what prevents two interleaved submissions
	// from claiming the same nonce while earlier sends are unmined.
	local := suggested
	for r.ledger.HasSubmittedNonce(account, local) {
		local++
	}

	next := local
	if networkNonce > next {
		next = networkNonce
	}

	return &Resolution{
		NextNonce: next,
		Details: NonceDetails{
			LocalNonceResult:        local,
			HighestLocallyConfirmed: confirmed,
			HighestSuggested:        suggested,
			NextNetworkNonce:        networkNonce,
		},
		Release: release,
	}, nil
}
