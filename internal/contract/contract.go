// Package contract maps ABI-declared contract methods and events onto
// the transaction coordinator. Read methods dispatch directly to the
// node, state-changing methods route through the submitter, and events
// forward decoded logs to caller-supplied sinks.
package contract

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/paygatehq/paygate/internal/chain/eth"
	"github.com/paygatehq/paygate/internal/chain/eth/rpc"
	"github.com/paygatehq/paygate/internal/txmgr"
	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

// kind tags a dispatch-table entry.
type kind int

const (
	kindRead kind = iota
	kindWrite
	kindEvent
)

// binding is one resolved dispatch-table entry, built once at attach
// time rather than per access.
type binding struct {
	kind  kind
	name  string
	event *abi.Event
}

// EventSource is the node surface event polling needs.
type EventSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	GetLogs(ctx context.Context, filter rpc.LogFilter) ([]rpc.Log, error)
}

// Contract binds a deployed contract's ABI to the coordinator.
type Contract struct {
	name    string
	address string
	abi     abi.ABI
	coord   *txmgr.Coordinator
	events  EventSource
	table   map[string]binding
}

// New parses the ABI JSON and builds the dispatch table. The events
// source may be nil when no event watching is needed.
func New(name string, abiJSON []byte, address string, coord *txmgr.Coordinator, events EventSource) (*Contract, error) {
	if err := eth.ValidateChecksumAddress(address); err != nil {
		return nil, gateerr.Wrap(err, "contract %s address", name)
	}

	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, gateerr.Wrap(err, "parsing %s ABI", name)
	}

	table := make(map[string]binding)
	for methodName, method := range parsed.Methods {
		k := kindWrite
		if method.StateMutability == "view" || method.StateMutability == "pure" {
			k = kindRead
		}
		table[methodName] = binding{kind: k, name: methodName}
	}
	for eventName := range parsed.Events {
		ev := parsed.Events[eventName]
		table[eventName] = binding{kind: kindEvent, name: eventName, event: &ev}
	}

	return &Contract{
		name:    name,
		address: eth.ToChecksumAddress(address),
		abi:     parsed,
		coord:   coord,
		events:  events,
		table:   table,
	}, nil
}

// Address returns the contract's checksummed address.
func (c *Contract) Address() string {
	return c.address
}

// Call dispatches a view or pure method directly to the node and
// returns the unpacked outputs. The ledger is untouched.
func (c *Contract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	b, ok := c.table[method]
	if !ok {
		return nil, c.unknownMethod(method)
	}
	if b.kind != kindRead {
		return nil, gateerr.WithDetails(gateerr.ErrNotReadable, map[string]string{
			"contract": c.name,
			"method":   method,
		})
	}

	result, err := c.coord.Submit(ctx, txmgr.SubmitRequest{
		Type:   txmgr.TypeCall,
		Method: method,
		Args:   args,
		To:     c.address,
		Encode: func() ([]byte, error) {
			return c.abi.Pack(method, args...)
		},
	})
	if err != nil {
		return nil, err
	}

	out, err := c.abi.Unpack(method, result.Data)
	if err != nil {
		return nil, gateerr.Wrap(err, "unpacking %s.%s result", c.name, method)
	}
	return out, nil
}

// Send routes a state-changing method through the submitter and waits
// for the mined receipt. An unknown or read-only method name is still
// registered and finalized as failed in the ledger rather than
// short-circuiting the bookkeeping.
func (c *Contract) Send(ctx context.Context, method string, opts txmgr.SendOpts, args ...any) (*rpc.Receipt, error) {
	var encodeErr error
	if b, ok := c.table[method]; !ok {
		encodeErr = c.unknownMethod(method)
	} else if b.kind != kindWrite {
		encodeErr = gateerr.WithDetails(gateerr.ErrNotWritable, map[string]string{
			"contract": c.name,
			"method":   method,
		})
	}

	result, err := c.coord.Submit(ctx, txmgr.SubmitRequest{
		Type:   txmgr.TypeSend,
		Method: method,
		Args:   args,
		To:     c.address,
		Opts:   opts,
		Encode: func() ([]byte, error) {
			if encodeErr != nil {
				return nil, encodeErr
			}
			return c.abi.Pack(method, args...)
		},
	})
	if err != nil {
		return nil, err
	}
	return result.Receipt, nil
}

// unknownMethod builds the not-declared error with a nearest-name
// suggestion when one is close enough to be plausible.
func (c *Contract) unknownMethod(method string) error {
	err := gateerr.WithDetails(gateerr.ErrUnknownMethod, map[string]string{
		"contract": c.name,
		"method":   method,
	})

	best, dist := "", len(method)
	for name := range c.table {
		d := levenshtein.ComputeDistance(strings.ToLower(method), strings.ToLower(name))
		if d < dist {
			best, dist = name, d
		}
	}
	if best != "" && dist <= 3 {
		err = gateerr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", best))
	}
	return err
}

// Methods lists the declared method names in sorted order.
func (c *Contract) Methods() []string {
	var names []string
	for name, b := range c.table {
		if b.kind != kindEvent {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
