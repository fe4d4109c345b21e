// Package rpc provides a minimal JSON-RPC 2.0 client for Ethereum nodes.
package rpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"golang.org/x/time/rate"

	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

var (
	// ErrRPCRequest indicates an RPC request failed.
	ErrRPCRequest = &gateerr.PaygateError{
		Code:     "RPC_REQUEST_FAILED",
		Message:  "RPC request failed",
		ExitCode: gateerr.ExitRPC,
	}

	// ErrRPCResponse indicates an invalid RPC response.
	ErrRPCResponse = &gateerr.PaygateError{
		Code:     "RPC_INVALID_RESPONSE",
		Message:  "invalid RPC response",
		ExitCode: gateerr.ExitRPC,
	}

	// ErrNilResponse indicates a nil result from the RPC.
	ErrNilResponse = &gateerr.PaygateError{
		Code:     "RPC_NIL_RESPONSE",
		Message:  "nil RPC response",
		ExitCode: gateerr.ExitRPC,
	}

	// ErrInvalidHexNumber indicates an invalid hex number.
	ErrInvalidHexNumber = &gateerr.PaygateError{
		Code:     "RPC_INVALID_HEX",
		Message:  "invalid hex number",
		ExitCode: gateerr.ExitInput,
	}
)

// defaultRateLimit caps outgoing requests per second against public endpoints.
const defaultRateLimit = rate.Limit(20)

// Client is a minimal Ethereum JSON-RPC client.
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	idCounter  atomic.Uint64
}

// ClientOptions contains optional configuration for the RPC client.
type ClientOptions struct {
	// Transport overrides the default HTTP transport.
	Transport *http.Transport
	// RateLimit overrides the default requests-per-second limit.
	// Zero means the default; a negative value disables limiting.
	RateLimit float64
}

// NewClient creates a new RPC client. The endpoint must use an http or
// https scheme; anything else is a configuration error.
func NewClient(endpoint string, opts *ClientOptions) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, gateerr.WithDetails(gateerr.ErrEndpointScheme, map[string]string{
			"endpoint": endpoint,
		})
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, gateerr.WithDetails(gateerr.ErrEndpointScheme, map[string]string{
			"endpoint": endpoint,
			"scheme":   u.Scheme,
		})
	}

	httpClient := &http.Client{}
	limit := defaultRateLimit
	if opts != nil {
		if opts.Transport != nil {
			httpClient.Transport = opts.Transport
		}
		if opts.RateLimit > 0 {
			limit = rate.Limit(opts.RateLimit)
		} else if opts.RateLimit < 0 {
			limit = rate.Inf
		}
	}

	burst := 1
	if limit != rate.Inf {
		burst = int(limit) + 1
	}

	return &Client{
		url:        endpoint,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
	}, nil
}

// request represents a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

// response represents a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Call performs a JSON-RPC call.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.idCounter.Add(1),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, gateerr.WithCause(ErrRPCRequest, err)
	}
	// Body.Close error is intentionally ignored as it only fails if the
	// connection is already broken, and there's no recovery action.
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, gateerr.WithCause(ErrRPCResponse, err)
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, gateerr.WithCause(ErrRPCResponse, err)
	}

	if resp.Error != nil {
		// A node-reported error carries the RPC exit code through to
		// the CLI.
		return nil, gateerr.WithDetails(
			gateerr.WithCause(gateerr.ErrRPCFailure, resp.Error),
			map[string]string{"method": method},
		)
	}

	return resp.Result, nil
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.callBigInt(ctx, "eth_chainId")
}

// BlockNumber returns the number of the most recent block.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.callBigInt(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// GetBalance returns the balance of an address in wei.
func (c *Client) GetBalance(ctx context.Context, address, block string) (*big.Int, error) {
	if block == "" {
		block = "latest"
	}
	return c.callBigInt(ctx, "eth_getBalance", address, block)
}

// GetTransactionCount returns the nonce for an address as of the given
// block. The block may be a tag ("latest", "pending") or a hex number.
func (c *Client) GetTransactionCount(ctx context.Context, address, block string) (uint64, error) {
	if block == "" {
		block = "latest"
	}

	n, err := c.callBigInt(ctx, "eth_getTransactionCount", address, block)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// GasPrice returns the current suggested gas price in wei.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.callBigInt(ctx, "eth_gasPrice")
}

// Accounts returns the addresses managed by the node.
func (c *Client) Accounts(ctx context.Context) ([]string, error) {
	result, err := c.Call(ctx, "eth_accounts")
	if err != nil {
		return nil, err
	}

	var accounts []string
	if err := json.Unmarshal(result, &accounts); err != nil {
		return nil, fmt.Errorf("parsing accounts: %w", err)
	}
	return accounts, nil
}

// CallMsg represents the parameters for eth_call, eth_estimateGas and
// eth_sendTransaction.
type CallMsg struct {
	From     string   `json:"from,omitempty"`
	To       string   `json:"to"`
	Gas      uint64   `json:"gas,omitempty"`
	GasPrice *big.Int `json:"gasPrice,omitempty"`
	Value    *big.Int `json:"value,omitempty"`
	Nonce    *uint64  `json:"nonce,omitempty"`
	Data     []byte   `json:"data,omitempty"`
}

// MarshalJSON implements custom JSON marshaling for CallMsg.
func (m CallMsg) MarshalJSON() ([]byte, error) {
	type callMsgJSON struct {
		From     string `json:"from,omitempty"`
		To       string `json:"to"`
		Gas      string `json:"gas,omitempty"`
		GasPrice string `json:"gasPrice,omitempty"`
		Value    string `json:"value,omitempty"`
		Nonce    string `json:"nonce,omitempty"`
		Data     string `json:"data,omitempty"`
	}

	msg := callMsgJSON{
		From: m.From,
		To:   m.To,
	}

	if m.Gas > 0 {
		msg.Gas = fmt.Sprintf("0x%x", m.Gas)
	}
	if m.GasPrice != nil && m.GasPrice.Sign() > 0 {
		msg.GasPrice = "0x" + m.GasPrice.Text(16)
	}
	if m.Value != nil && m.Value.Sign() > 0 {
		msg.Value = "0x" + m.Value.Text(16)
	}
	if m.Nonce != nil {
		msg.Nonce = fmt.Sprintf("0x%x", *m.Nonce)
	}
	if len(m.Data) > 0 {
		msg.Data = "0x" + hex.EncodeToString(m.Data)
	}

	return json.Marshal(msg)
}

// EthCall performs an eth_call.
func (c *Client) EthCall(ctx context.Context, msg CallMsg, block string) ([]byte, error) {
	if block == "" {
		block = "latest"
	}

	result, err := c.Call(ctx, "eth_call", msg, block)
	if err != nil {
		return nil, err
	}

	var hexVal string
	if err := json.Unmarshal(result, &hexVal); err != nil {
		return nil, fmt.Errorf("parsing call result: %w", err)
	}

	return parseHexBytes(hexVal)
}

// EstimateGas estimates the gas needed for a transaction.
func (c *Client) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	result, err := c.Call(ctx, "eth_estimateGas", msg)
	if err != nil {
		return 0, err
	}

	var hexVal string
	if unmarshalErr := json.Unmarshal(result, &hexVal); unmarshalErr != nil {
		return 0, fmt.Errorf("parsing gas estimate: %w", unmarshalErr)
	}

	n, err := parseHexBigInt(hexVal)
	if err != nil {
		return 0, err
	}

	return n.Uint64(), nil
}

// SendTransaction submits a transaction signed by the node's managed
// account. Returns the transaction hash.
func (c *Client) SendTransaction(ctx context.Context, msg CallMsg) (string, error) {
	result, err := c.Call(ctx, "eth_sendTransaction", msg)
	if err != nil {
		return "", err
	}

	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", fmt.Errorf("parsing tx hash: %w", err)
	}
	return txHash, nil
}

// SendRawTransaction sends a pre-signed transaction.
// Returns the transaction hash.
func (c *Client) SendRawTransaction(ctx context.Context, signedTx []byte) (string, error) {
	hexTx := "0x" + hex.EncodeToString(signedTx)

	result, err := c.Call(ctx, "eth_sendRawTransaction", hexTx)
	if err != nil {
		return "", err
	}

	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", fmt.Errorf("parsing tx hash: %w", err)
	}
	return txHash, nil
}

// Receipt is the decoded result of eth_getTransactionReceipt.
type Receipt struct {
	TransactionHash string
	BlockNumber     uint64
	GasUsed         uint64
	Status          uint64
	ContractAddress string
	Logs            []Log
}

// Log is a single event log entry.
type Log struct {
	Address     string
	Topics      []string
	Data        string
	BlockNumber uint64
	TxHash      string
	Removed     bool
}

// UnmarshalJSON decodes the hex-quantity fields of a receipt.
func (r *Receipt) UnmarshalJSON(data []byte) error {
	type receiptJSON struct {
		TransactionHash string `json:"transactionHash"`
		BlockNumber     string `json:"blockNumber"`
		GasUsed         string `json:"gasUsed"`
		Status          string `json:"status"`
		ContractAddress string `json:"contractAddress"`
		Logs            []Log  `json:"logs"`
	}

	var raw receiptJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.TransactionHash = raw.TransactionHash
	r.ContractAddress = raw.ContractAddress
	r.Logs = raw.Logs

	for _, field := range []struct {
		dst *uint64
		src string
	}{
		{&r.BlockNumber, raw.BlockNumber},
		{&r.GasUsed, raw.GasUsed},
		{&r.Status, raw.Status},
	} {
		if field.src == "" {
			continue
		}
		n, err := parseHexBigInt(field.src)
		if err != nil {
			return err
		}
		*field.dst = n.Uint64()
	}
	return nil
}

// UnmarshalJSON decodes the hex-quantity fields of a log.
func (l *Log) UnmarshalJSON(data []byte) error {
	type logJSON struct {
		Address     string   `json:"address"`
		Topics      []string `json:"topics"`
		Data        string   `json:"data"`
		BlockNumber string   `json:"blockNumber"`
		TxHash      string   `json:"transactionHash"`
		Removed     bool     `json:"removed"`
	}

	var raw logJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	l.Address = raw.Address
	l.Topics = raw.Topics
	l.Data = raw.Data
	l.TxHash = raw.TxHash
	l.Removed = raw.Removed

	if raw.BlockNumber != "" {
		n, err := parseHexBigInt(raw.BlockNumber)
		if err != nil {
			return err
		}
		l.BlockNumber = n.Uint64()
	}
	return nil
}

// TransactionReceipt returns the receipt for a mined transaction, or
// (nil, nil) while the transaction is still pending.
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	result, err := c.Call(ctx, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return nil, err
	}

	if len(result) == 0 || string(result) == "null" {
		return nil, nil
	}

	var receipt Receipt
	if err := json.Unmarshal(result, &receipt); err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}
	return &receipt, nil
}

// LogFilter is the parameter set for eth_getLogs.
type LogFilter struct {
	FromBlock uint64
	ToBlock   uint64
	Address   string
	Topics    []string
}

// MarshalJSON implements custom JSON marshaling for LogFilter.
func (f LogFilter) MarshalJSON() ([]byte, error) {
	type filterJSON struct {
		FromBlock string   `json:"fromBlock,omitempty"`
		ToBlock   string   `json:"toBlock,omitempty"`
		Address   string   `json:"address,omitempty"`
		Topics    []string `json:"topics,omitempty"`
	}

	raw := filterJSON{
		Address: f.Address,
		Topics:  f.Topics,
	}
	raw.FromBlock = fmt.Sprintf("0x%x", f.FromBlock)
	if f.ToBlock > 0 {
		raw.ToBlock = fmt.Sprintf("0x%x", f.ToBlock)
	} else {
		raw.ToBlock = "latest"
	}
	return json.Marshal(raw)
}

// GetLogs returns event logs matching the filter.
func (c *Client) GetLogs(ctx context.Context, filter LogFilter) ([]Log, error) {
	result, err := c.Call(ctx, "eth_getLogs", filter)
	if err != nil {
		return nil, err
	}

	var logs []Log
	if err := json.Unmarshal(result, &logs); err != nil {
		return nil, fmt.Errorf("parsing logs: %w", err)
	}
	return logs, nil
}

// callBigInt performs a call whose result is a single hex quantity.
func (c *Client) callBigInt(ctx context.Context, method string, params ...any) (*big.Int, error) {
	result, err := c.Call(ctx, method, params...)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, gateerr.WithDetails(ErrNilResponse, map[string]string{
			"method": method,
		})
	}

	var hexVal string
	if err := json.Unmarshal(result, &hexVal); err != nil {
		return nil, fmt.Errorf("parsing %s result: %w", method, err)
	}

	return parseHexBigInt(hexVal)
}

// parseHexBigInt parses a hex string (with or without 0x prefix) to big.Int.
func parseHexBigInt(s string) (*big.Int, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return big.NewInt(0), nil
	}

	n := new(big.Int)
	if _, ok := n.SetString(s, 16); !ok {
		return nil, ErrInvalidHexNumber
	}

	return n, nil
}

// parseHexBytes parses a hex string to bytes.
func parseHexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return []byte{}, nil
	}
	return hex.DecodeString(s)
}

// Close closes the client.
func (c *Client) Close() {
	// HTTP client doesn't need explicit closing, but we include this
	// for interface compatibility
}
