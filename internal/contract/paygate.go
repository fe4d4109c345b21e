package contract

import (
	"context"
	_ "embed"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/paygatehq/paygate/internal/chain/eth/rpc"
	"github.com/paygatehq/paygate/internal/txmgr"
)

//go:embed abi/paygate.json
var paygateABI []byte

// Paygate is a typed wrapper over the subscription-access contract.
// Accounts pay the contract's price to gain time-limited access; the
// contract owner adjusts pricing and withdraws accumulated funds.
type Paygate struct {
	c *Contract
}

// NewPaygate attaches to a deployed subscription-access contract.
func NewPaygate(address string, coord *txmgr.Coordinator, events EventSource) (*Paygate, error) {
	c, err := New("Paygate", paygateABI, address, coord, events)
	if err != nil {
		return nil, err
	}
	return &Paygate{c: c}, nil
}

// Contract exposes the underlying generic binding.
func (p *Paygate) Contract() *Contract {
	return p.c
}

// Price returns the subscription price in wei.
func (p *Paygate) Price(ctx context.Context) (*big.Int, error) {
	out, err := p.c.Call(ctx, "price")
	if err != nil {
		return nil, err
	}
	return asBigInt(out)
}

// Owner returns the contract owner's address.
func (p *Paygate) Owner(ctx context.Context) (string, error) {
	out, err := p.c.Call(ctx, "owner")
	if err != nil {
		return "", err
	}
	if len(out) != 1 {
		return "", fmt.Errorf("owner: unexpected output arity %d", len(out))
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("owner: unexpected output type %T", out[0])
	}
	return addr.Hex(), nil
}

// SubscriptionPeriod returns the access duration one payment buys.
func (p *Paygate) SubscriptionPeriod(ctx context.Context) (time.Duration, error) {
	out, err := p.c.Call(ctx, "subscriptionPeriod")
	if err != nil {
		return 0, err
	}
	secs, err := asBigInt(out)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs.Int64()) * time.Second, nil
}

// IsSubscribed reports whether the account currently has access.
func (p *Paygate) IsSubscribed(ctx context.Context, account string) (bool, error) {
	out, err := p.c.Call(ctx, "isSubscribed", common.HexToAddress(account))
	if err != nil {
		return false, err
	}
	return asBool(out)
}

// ExpiryOf returns the unix timestamp at which the account's access
// lapses; zero means never subscribed.
func (p *Paygate) ExpiryOf(ctx context.Context, account string) (*big.Int, error) {
	out, err := p.c.Call(ctx, "expiryOf", common.HexToAddress(account))
	if err != nil {
		return nil, err
	}
	return asBigInt(out)
}

// Subscribe pays the subscription price from opts.From. The payment
// amount rides in opts.Value; callers usually set it to Price.
func (p *Paygate) Subscribe(ctx context.Context, opts txmgr.SendOpts) (*rpc.Receipt, error) {
	return p.c.Send(ctx, "subscribe", opts)
}

// SetPrice changes the subscription price. Owner only.
func (p *Paygate) SetPrice(ctx context.Context, opts txmgr.SendOpts, newPrice *big.Int) (*rpc.Receipt, error) {
	return p.c.Send(ctx, "setPrice", opts, newPrice)
}

// Withdraw moves the contract's accumulated balance to the owner.
func (p *Paygate) Withdraw(ctx context.Context, opts txmgr.SendOpts) (*rpc.Receipt, error) {
	return p.c.Send(ctx, "withdraw", opts)
}

// WatchSubscribed forwards decoded Subscribed events to sink until
// ctx ends.
func (p *Paygate) WatchSubscribed(ctx context.Context, sink Sink) error {
	return p.c.Watch(ctx, "Subscribed", sink)
}
