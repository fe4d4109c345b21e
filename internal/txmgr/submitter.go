package txmgr

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/paygatehq/paygate/internal/chain/eth"
	"github.com/paygatehq/paygate/internal/chain/eth/rpc"
	"github.com/paygatehq/paygate/internal/logging"
	"github.com/paygatehq/paygate/internal/metrics"
	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

// Defaults for the coordinator configuration.
const (
	DefaultMaxInFlight     = 100
	DefaultPollInterval    = 10 * time.Second
	DefaultReceiptInterval = 2 * time.Second
)

// NodeClient is the node surface the submitter needs. *rpc.Client
// satisfies it; tests substitute a fake.
type NodeClient interface {
	NodeReader
	GasPrice(ctx context.Context) (*big.Int, error)
	EthCall(ctx context.Context, msg rpc.CallMsg, block string) ([]byte, error)
	SendTransaction(ctx context.Context, msg rpc.CallMsg) (string, error)
	TransactionReceipt(ctx context.Context, txHash string) (*rpc.Receipt, error)
}

// Config tunes the coordinator. Zero values take the documented defaults.
type Config struct {
	// MaxInFlight is the backpressure threshold: submissions stall
	// while this many sends are submitted but unconfirmed.
	MaxInFlight int
	// PollInterval is how often a stalled submission re-checks the
	// in-flight count.
	PollInterval time.Duration
	// ReceiptInterval is how often a dispatched transaction polls for
	// its receipt.
	ReceiptInterval time.Duration
	// GasPriceMultiplier inflates the node's suggested price when the
	// caller sets no explicit price.
	GasPriceMultiplier float64
	// DefaultGasLimit applies when the caller sets no gas limit.
	DefaultGasLimit uint64
	// GasPrice, when set, overrides the node's suggestion for every
	// send that carries no per-call price.
	GasPrice *big.Int
}

func (c Config) withDefaults() Config {
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = DefaultMaxInFlight
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ReceiptInterval <= 0 {
		c.ReceiptInterval = DefaultReceiptInterval
	}
	if c.GasPriceMultiplier <= 0 {
		c.GasPriceMultiplier = eth.DefaultGasPriceMultiplier
	}
	if c.DefaultGasLimit == 0 {
		c.DefaultGasLimit = eth.DefaultGasLimit
	}
	return c
}

// Coordinator owns the ledger, the lock registry and the nonce
// resolver for one node connection. It is an explicit context object:
// independent coordinators in one process do not share state.
type Coordinator struct {
	node     NodeClient
	cfg      Config
	ledger   *Ledger
	locks    *KeyedMutex
	resolver *NonceResolver
	log      logging.Logger
	metrics  *metrics.Metrics
}

// NewCoordinator wires a coordinator over the given node client.
// logger may be nil; m may be nil when metrics are not scraped.
func NewCoordinator(node NodeClient, cfg Config, logger logging.Logger, m *metrics.Metrics) *Coordinator {
	if logger == nil {
		logger = logging.Nop()
	}

	ledger := NewLedger()
	locks := NewKeyedMutex()
	return &Coordinator{
		node:     node,
		cfg:      cfg.withDefaults(),
		ledger:   ledger,
		locks:    locks,
		resolver: NewNonceResolver(node, ledger, locks),
		log:      logger,
		metrics:  m,
	}
}

// Ledger exposes the coordinator's transaction ledger for inspection.
func (c *Coordinator) Ledger() *Ledger {
	return c.ledger
}

// SubmitRequest describes one contract call to run through the
// coordinator.
type SubmitRequest struct {
	Type   TxType
	Method string
	Args   []any
	To     string // contract address
	Opts   SendOpts
	// Encode produces the ABI-encoded calldata. It runs after the
	// intent is registered so that encoding and classification
	// failures still finalize the ledger entry as failed.
	Encode func() ([]byte, error)
	// Exclusive requests strict per-account serialization for the
	// whole submission, beyond nonce safety.
	Exclusive bool
}

// Result is the outcome of a successful submission.
type Result struct {
	// Data is the raw return of a read call.
	Data []byte
	// Receipt is the mined receipt of a send.
	Receipt *rpc.Receipt
	// IntentID identifies the ledger entry of a send; zero for reads.
	IntentID int64
}

// Submit runs one contract call through its full lifecycle. Read
// calls bypass all nonce and ledger machinery; sends are serialized,
// nonce-assigned, dispatched and tracked to a terminal status. Every
// lock acquired along the way is released on every exit path.
func (c *Coordinator) Submit(ctx context.Context, req SubmitRequest) (*Result, error) {
	if req.Encode == nil {
		return nil, gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{
			"reason": "nil calldata encoder",
		})
	}

	switch req.Type {
	case TypeCall:
		return c.submitCall(ctx, req)
	case TypeSend:
		return c.submitSend(ctx, req)
	default:
		return nil, gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{
			"txType": string(req.Type),
		})
	}
}

// submitCall dispatches a read-only call straight to the node. The
// ledger is untouched.
func (c *Coordinator) submitCall(ctx context.Context, req SubmitRequest) (*Result, error) {
	data, err := req.Encode()
	if err != nil {
		return nil, err
	}

	c.metrics.ReadCall()
	out, err := c.node.EthCall(ctx, rpc.CallMsg{
		From: req.Opts.From,
		To:   req.To,
		Data: data,
	}, "latest")
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", req.Method, err)
	}
	return &Result{Data: out}, nil
}

// submitSend runs the state-changing path: global gate, ledger
// registration, backpressure, nonce assignment, dispatch, receipt.
func (c *Coordinator) submitSend(ctx context.Context, req SubmitRequest) (*Result, error) {
	from := req.Opts.From
	if from == "" {
		return nil, gateerr.ErrAddressRequired
	}
	if err := eth.ValidateChecksumAddress(from); err != nil {
		return nil, err
	}

	// The global gate is a barrier, not a held lock: passing through
	// proves no other submission is mid-flight through a critical
	// section, then contention resumes immediately.
	gate, err := c.locks.LockContext(ctx, GlobalKey)
	if err != nil {
		return nil, fmt.Errorf("waiting at submission gate: %w", err)
	}
	gate()

	releaseExclusive := func() {}
	if req.Exclusive {
		releaseExclusive, err = c.locks.LockContext(ctx, "exclusive:"+eth.ToChecksumAddress(from))
		if err != nil {
			return nil, fmt.Errorf("acquiring exclusive account lock: %w", err)
		}
	}

	intent := Intent{
		Address: from,
		Method:  req.Method,
		Args:    req.Args,
		Opts:    req.Opts,
		Type:    TypeSend,
	}
	intent.ID = c.ledger.Append(intent)
	intent, _ = c.ledger.Get(intent.ID)

	// From here on, every failure must finalize the entry and release
	// whatever is still held.
	fail := func(cause error, res *Resolution, inFlight bool) (*Result, error) {
		if res != nil {
			res.Release()
		}
		releaseExclusive()
		intent.Status = StatusFailed
		intent.Err = cause.Error()
		if updateErr := c.ledger.Update(intent); updateErr != nil {
			c.log.Errorf("finalizing failed intent %d: %v", intent.ID, updateErr)
		}
		c.metrics.Failed(inFlight)
		return nil, cause
	}

	data, err := req.Encode()
	if err != nil {
		return fail(err, nil, false)
	}

	if err := c.waitForCapacity(ctx); err != nil {
		return fail(err, nil, false)
	}

	res, err := c.resolver.Resolve(ctx, from)
	if err != nil {
		return fail(err, nil, false)
	}

	nonce := res.NextNonce
	if req.Opts.Nonce != nil {
		nonce = *req.Opts.Nonce
	}
	c.log.Debugf("nonce for %s: next=%d network=%d local=%d", from,
		nonce, res.Details.NextNetworkNonce, res.Details.LocalNonceResult)

	// The nonce is claimed once the entry is durably recorded as
	// submitted; only then may contention on the account resume.
	intent.Status = StatusSubmitted
	intent.Nonce = nonce
	if err := c.ledger.Update(intent); err != nil {
		return fail(err, res, false)
	}
	c.metrics.Submitted()
	res.Release()

	gasPrice, err := c.effectiveGasPrice(ctx, req.Opts.GasPrice)
	if err != nil {
		return fail(err, nil, true)
	}

	gasLimit := req.Opts.Gas
	if gasLimit == 0 {
		gasLimit = c.cfg.DefaultGasLimit
	}

	hash, err := c.node.SendTransaction(ctx, rpc.CallMsg{
		From:     from,
		To:       req.To,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Value:    req.Opts.Value,
		Nonce:    &nonce,
		Data:     data,
	})
	if err != nil {
		return fail(fmt.Errorf("sending %s: %w", req.Method, err), nil, true)
	}
	intent.TxHash = hash

	receipt, err := c.waitMined(ctx, hash)
	if err != nil {
		return fail(err, nil, true)
	}
	intent.GasUsed = receipt.GasUsed

	if receipt.Status == 0 {
		return fail(gateerr.WithDetails(gateerr.ErrTxReverted, map[string]string{
			"txHash": hash,
			"method": req.Method,
		}), nil, true)
	}

	c.ledger.RecordCost(new(big.Int).SetUint64(receipt.GasUsed), gasPrice)
	c.metrics.Confirmed(receipt.GasUsed)

	intent.Status = StatusConfirmed
	if err := c.ledger.Update(intent); err != nil {
		c.log.Errorf("finalizing confirmed intent %d: %v", intent.ID, err)
	}
	releaseExclusive()

	return &Result{Receipt: receipt, IntentID: intent.ID}, nil
}

// waitForCapacity blocks while the system-wide in-flight count is at
// or above the threshold, re-checking on the poll interval. The total
// wait is unbounded; only context cancellation frees a caller whose
// capacity never returns.
func (c *Coordinator) waitForCapacity(ctx context.Context) error {
	if c.ledger.InFlight() < c.cfg.MaxInFlight {
		return nil
	}

	c.log.Warnf("backpressure: %d transactions in flight (threshold %d)",
		c.ledger.InFlight(), c.cfg.MaxInFlight)

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for submission capacity: %w", ctx.Err())
		case <-ticker.C:
			if c.ledger.InFlight() < c.cfg.MaxInFlight {
				return nil
			}
		}
	}
}

// effectiveGasPrice picks the caller's price, the coordinator-wide
// override, or the node's suggestion inflated by the configured
// multiplier. An explicit price below the current suggestion draws a
// warning but is not an error.
func (c *Coordinator) effectiveGasPrice(ctx context.Context, explicit *big.Int) (*big.Int, error) {
	if explicit == nil {
		explicit = c.cfg.GasPrice
	}

	suggested, err := c.node.GasPrice(ctx)
	if err != nil {
		if explicit != nil {
			// The explicit price stands; the suggestion was only
			// needed for the low-price warning.
			return explicit, nil
		}
		return nil, fmt.Errorf("getting gas price: %w", err)
	}

	if explicit != nil {
		if explicit.Cmp(suggested) < 0 {
			c.log.Warnf("gas price %s below node suggestion %s; transaction may confirm slowly",
				eth.FormatGasPrice(explicit), eth.FormatGasPrice(suggested))
		}
		return explicit, nil
	}

	return eth.InflateGasPrice(suggested, c.cfg.GasPriceMultiplier), nil
}

// waitMined polls for the transaction receipt until the transaction
// is mined or the context ends.
func (c *Coordinator) waitMined(ctx context.Context, hash string) (*rpc.Receipt, error) {
	ticker := time.NewTicker(c.cfg.ReceiptInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.node.TransactionReceipt(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("polling receipt for %s: %w", hash, err)
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s to mine: %w", hash, ctx.Err())
		case <-ticker.C:
		}
	}
}
