package contract

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/paygatehq/paygate/internal/chain/eth/rpc"
	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

// DefaultWatchInterval is the log-poll cadence for event watching.
const DefaultWatchInterval = 5 * time.Second

// Event is one decoded contract event occurrence.
type Event struct {
	Name string
	Args map[string]any
	Log  rpc.Log
}

// Sink receives decoded events in log order.
type Sink func(Event)

// Watch polls the node for the named event's logs and forwards decoded
// occurrences to sink. It blocks until ctx is canceled; run it in its
// own goroutine for background watching. A nil sink fails fast.
func (c *Contract) Watch(ctx context.Context, eventName string, sink Sink) error {
	if sink == nil {
		return gateerr.WithDetails(gateerr.ErrSinkRequired, map[string]string{
			"contract": c.name,
			"event":    eventName,
		})
	}
	if c.events == nil {
		return gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{
			"reason": "contract attached without an event source",
		})
	}

	b, ok := c.table[eventName]
	if !ok || b.kind != kindEvent {
		return gateerr.WithDetails(gateerr.ErrUnknownEvent, map[string]string{
			"contract": c.name,
			"event":    eventName,
		})
	}

	from, err := c.events.BlockNumber(ctx)
	if err != nil {
		return gateerr.Wrap(err, "getting starting block for %s watch", eventName)
	}
	from++ // only events after attach

	ticker := time.NewTicker(DefaultWatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		head, err := c.events.BlockNumber(ctx)
		if err != nil || head < from {
			continue
		}

		logs, err := c.events.GetLogs(ctx, rpc.LogFilter{
			FromBlock: from,
			ToBlock:   head,
			Address:   c.address,
			Topics:    []string{b.event.ID.Hex()},
		})
		if err != nil {
			continue
		}

		for _, lg := range logs {
			if lg.Removed {
				continue
			}
			ev, decodeErr := c.decodeEvent(b.event, lg)
			if decodeErr != nil {
				continue
			}
			sink(ev)
		}
		from = head + 1
	}
}

// decodeEvent unpacks a raw log into named arguments, indexed topics
// and data fields alike.
func (c *Contract) decodeEvent(event *abi.Event, lg rpc.Log) (Event, error) {
	args := make(map[string]any)

	data, err := hex.DecodeString(strings.TrimPrefix(lg.Data, "0x"))
	if err != nil {
		return Event{}, err
	}
	if len(data) > 0 {
		if err := c.abi.UnpackIntoMap(args, event.Name, data); err != nil {
			return Event{}, err
		}
	}

	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(indexed) > 0 && len(lg.Topics) > 1 {
		topics := make([]common.Hash, 0, len(lg.Topics)-1)
		for _, t := range lg.Topics[1:] {
			topics = append(topics, common.HexToHash(t))
		}
		if err := abi.ParseTopicsIntoMap(args, indexed, topics); err != nil {
			return Event{}, err
		}
	}

	return Event{Name: event.Name, Args: args, Log: lg}, nil
}
