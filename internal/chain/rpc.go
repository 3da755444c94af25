// Package chain holds the blockchain adjacency: a JSON-RPC client for the
// configured node, a dev-node process runner for the devstack tool and an
// in-memory chain used in tests and local mode.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
)

// RPCClient speaks JSON-RPC 2.0 to an Ethereum-compatible endpoint. It is
// used for readiness probing and wallet funding checks; transaction
// construction stays on the caller's side and goes through
// [RPCClient.SendRawTransaction].
type RPCClient struct {
	client *resty.Client
	logger *logger.Logger
	nextID atomic.Int64
}

// NewRPCClient constructs a client for the given JSON-RPC endpoint.
func NewRPCClient(providerURL string, timeout time.Duration, log *logger.Logger) *RPCClient {
	cli := resty.New().
		SetBaseURL(providerURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &RPCClient{client: cli, logger: log}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      int64           `json:"id"`
}

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// call performs one JSON-RPC request and returns the raw result.
func (c *RPCClient) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	body := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	var out rpcResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %s http %d: %s", ErrChainUnreachable, method, resp.StatusCode(), resp.String())
	}
	if out.Error != nil {
		return nil, fmt.Errorf("%s: %w", method, out.Error)
	}

	return out.Result, nil
}

// quantity performs a call whose result is a hex quantity.
func (c *RPCClient) quantity(ctx context.Context, method string, params ...any) (uint64, error) {
	result, err := c.call(ctx, method, params...)
	if err != nil {
		return 0, err
	}

	var hex string
	if err = json.Unmarshal(result, &hex); err != nil {
		return 0, fmt.Errorf("%s: decode result: %w", method, err)
	}
	return parseHexQuantity(hex)
}

// ChainID returns the chain identifier of the connected node.
func (c *RPCClient) ChainID(ctx context.Context) (uint64, error) {
	return c.quantity(ctx, "eth_chainId")
}

// BlockNumber returns the number of the most recent block.
func (c *RPCClient) BlockNumber(ctx context.Context) (uint64, error) {
	return c.quantity(ctx, "eth_blockNumber")
}

// GetBalance returns the wei balance of the address at the latest block.
func (c *RPCClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	result, err := c.call(ctx, "eth_getBalance", address, "latest")
	if err != nil {
		return nil, err
	}

	var hex string
	if err = json.Unmarshal(result, &hex); err != nil {
		return nil, fmt.Errorf("eth_getBalance: decode result: %w", err)
	}
	return parseHexBig(hex)
}

// GetTransactionCount returns the nonce of the address at the latest block.
func (c *RPCClient) GetTransactionCount(ctx context.Context, address string) (uint64, error) {
	return c.quantity(ctx, "eth_getTransactionCount", address, "latest")
}

// SendRawTransaction submits a signed transaction and returns its hash.
func (c *RPCClient) SendRawTransaction(ctx context.Context, rawTx string) (string, error) {
	result, err := c.call(ctx, "eth_sendRawTransaction", rawTx)
	if err != nil {
		return "", err
	}

	var hash string
	if err = json.Unmarshal(result, &hash); err != nil {
		return "", fmt.Errorf("eth_sendRawTransaction: decode result: %w", err)
	}
	return hash, nil
}

// Health reports whether the node answers a block-number probe.
func (c *RPCClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := c.BlockNumber(ctx)
	return err
}

// parseHexQuantity decodes an Ethereum hex quantity ("0x1b4") into a
// uint64.
func parseHexQuantity(s string) (uint64, error) {
	digits, ok := strings.CutPrefix(s, "0x")
	if !ok || digits == "" {
		return 0, fmt.Errorf("malformed hex quantity %q", s)
	}

	value, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed hex quantity %q: %w", s, err)
	}
	return value, nil
}

// parseHexBig decodes a hex quantity that may exceed 64 bits, such as a wei
// balance.
func parseHexBig(s string) (*big.Int, error) {
	digits, ok := strings.CutPrefix(s, "0x")
	if !ok || digits == "" {
		return nil, fmt.Errorf("malformed hex quantity %q", s)
	}

	value, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, fmt.Errorf("malformed hex quantity %q", s)
	}
	return value, nil
}
