package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/paygatehq/paygate/internal/cache"
	"github.com/paygatehq/paygate/internal/chain/eth"
	"github.com/paygatehq/paygate/internal/contract"
	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

func asPaygateError(err error, target **gateerr.PaygateError) bool {
	return errors.As(err, target)
}

// confirmSend asks for interactive confirmation before a
// state-changing call when stdin is a terminal. Non-interactive runs
// (pipes, scripts) proceed without prompting.
func confirmSend(summary string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}

	fmt.Printf("%s\nProceed? [y/N]: ", summary)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return gateerr.Wrap(err, "reading confirmation")
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{
			"reason": "canceled by user",
		})
	}
}

// paygateContract attaches to the configured subscription contract.
func paygateContract() (*contract.Paygate, error) {
	if cfg.Contracts.Paygate == "" {
		return nil, gateerr.WithSuggestion(gateerr.ErrConfigInvalid,
			"set contracts.paygate in config.yaml or PAYGATE_CONTRACT")
	}
	return contract.NewPaygate(cfg.Contracts.Paygate, coord, node)
}

// tokenContract attaches to an ERC-20 token named by a configured
// symbol or by a raw contract address. Address lookups resolve symbol
// and decimals from the chain once and keep them in the token cache.
func tokenContract(ctx context.Context, symbolOrAddress string) (*contract.ERC20, cache.TokenEntry, error) {
	if tok, ok := cfg.Token(symbolOrAddress); ok {
		erc20, err := contract.NewERC20(tok.Address, coord, node)
		if err != nil {
			return nil, cache.TokenEntry{}, err
		}
		return erc20, cache.TokenEntry{
			ChainID:  cfg.Node.ChainID,
			Address:  tok.Address,
			Symbol:   tok.Symbol,
			Decimals: tok.Decimals,
		}, nil
	}

	if !eth.IsValidAddress(symbolOrAddress) {
		return nil, cache.TokenEntry{}, gateerr.WithSuggestion(
			gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{
				"token": symbolOrAddress,
			}),
			"use a symbol from contracts.tokens or a 0x contract address")
	}

	addr := eth.ToChecksumAddress(symbolOrAddress)
	erc20, err := contract.NewERC20(addr, coord, node)
	if err != nil {
		return nil, cache.TokenEntry{}, err
	}

	meta, err := tokenMetadata(ctx, erc20, addr)
	if err != nil {
		return nil, cache.TokenEntry{}, err
	}
	return erc20, meta, nil
}

// tokenMetadata resolves symbol and decimals for a token contract,
// consulting the file-backed cache before the node.
func tokenMetadata(ctx context.Context, erc20 *contract.ERC20, addr string) (cache.TokenEntry, error) {
	store := cache.NewFileStorage(filepath.Join(home, "tokens.json"))
	tokens, err := store.Load()
	if err != nil {
		// A corrupt cache is recoverable; start over with a fresh one.
		logger.Warnf("loading token cache: %v", err)
	}

	if entry, ok, _ := tokens.Get(cfg.Node.ChainID, addr); ok && !tokens.IsStale(cfg.Node.ChainID, addr) {
		return *entry, nil
	}

	symbol, err := erc20.Symbol(ctx)
	if err != nil {
		return cache.TokenEntry{}, gateerr.Wrap(err, "reading token symbol")
	}
	decimals, err := erc20.Decimals(ctx)
	if err != nil {
		return cache.TokenEntry{}, gateerr.Wrap(err, "reading token decimals")
	}

	entry := cache.TokenEntry{
		ChainID:  cfg.Node.ChainID,
		Address:  addr,
		Symbol:   symbol,
		Decimals: int(decimals),
	}
	tokens.Set(entry)
	if err := store.Save(tokens); err != nil {
		logger.Warnf("saving token cache: %v", err)
	}
	return entry, nil
}
