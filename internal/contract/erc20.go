package contract

import (
	"context"
	_ "embed"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/paygatehq/paygate/internal/chain/eth/rpc"
	"github.com/paygatehq/paygate/internal/txmgr"
)

//go:embed abi/erc20.json
var erc20ABI []byte

// ERC20 is a typed wrapper over a standard token contract.
type ERC20 struct {
	c *Contract
}

// NewERC20 attaches to a deployed ERC-20 token.
func NewERC20(address string, coord *txmgr.Coordinator, events EventSource) (*ERC20, error) {
	c, err := New("ERC20", erc20ABI, address, coord, events)
	if err != nil {
		return nil, err
	}
	return &ERC20{c: c}, nil
}

// Contract exposes the underlying generic binding.
func (t *ERC20) Contract() *Contract {
	return t.c
}

// Name returns the token name.
func (t *ERC20) Name(ctx context.Context) (string, error) {
	out, err := t.c.Call(ctx, "name")
	if err != nil {
		return "", err
	}
	return asString(out)
}

// Symbol returns the token symbol.
func (t *ERC20) Symbol(ctx context.Context) (string, error) {
	out, err := t.c.Call(ctx, "symbol")
	if err != nil {
		return "", err
	}
	return asString(out)
}

// Decimals returns the token's decimal count.
func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	out, err := t.c.Call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("decimals: unexpected output arity %d", len(out))
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected output type %T", out[0])
	}
	return d, nil
}

// TotalSupply returns the token's total supply in base units.
func (t *ERC20) TotalSupply(ctx context.Context) (*big.Int, error) {
	out, err := t.c.Call(ctx, "totalSupply")
	if err != nil {
		return nil, err
	}
	return asBigInt(out)
}

// BalanceOf returns the base-unit balance of owner.
func (t *ERC20) BalanceOf(ctx context.Context, owner string) (*big.Int, error) {
	out, err := t.c.Call(ctx, "balanceOf", common.HexToAddress(owner))
	if err != nil {
		return nil, err
	}
	return asBigInt(out)
}

// Allowance returns the spend allowance from owner to spender.
func (t *ERC20) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	out, err := t.c.Call(ctx, "allowance", common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, err
	}
	return asBigInt(out)
}

// Transfer moves value base units to the recipient.
func (t *ERC20) Transfer(ctx context.Context, opts txmgr.SendOpts, to string, value *big.Int) (*rpc.Receipt, error) {
	return t.c.Send(ctx, "transfer", opts, common.HexToAddress(to), value)
}

// TransferFrom moves value base units between third parties using a
// prior allowance.
func (t *ERC20) TransferFrom(ctx context.Context, opts txmgr.SendOpts, from, to string, value *big.Int) (*rpc.Receipt, error) {
	return t.c.Send(ctx, "transferFrom", opts, common.HexToAddress(from), common.HexToAddress(to), value)
}

// Approve grants spender an allowance of value base units.
func (t *ERC20) Approve(ctx context.Context, opts txmgr.SendOpts, spender string, value *big.Int) (*rpc.Receipt, error) {
	return t.c.Send(ctx, "approve", opts, common.HexToAddress(spender), value)
}

// WatchTransfer forwards decoded Transfer events to sink until ctx ends.
func (t *ERC20) WatchTransfer(ctx context.Context, sink Sink) error {
	return t.c.Watch(ctx, "Transfer", sink)
}

func asString(out []any) (string, error) {
	if len(out) != 1 {
		return "", fmt.Errorf("unexpected output arity %d", len(out))
	}
	s, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected output type %T", out[0])
	}
	return s, nil
}

func asBigInt(out []any) (*big.Int, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected output arity %d", len(out))
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", out[0])
	}
	return n, nil
}

func asBool(out []any) (bool, error) {
	if len(out) != 1 {
		return false, fmt.Errorf("unexpected output arity %d", len(out))
	}
	b, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected output type %T", out[0])
	}
	return b, nil
}
