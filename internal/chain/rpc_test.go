package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
)

// newRPCServer answers every JSON-RPC call with the given result after
// passing the request to inspect.
func newRPCServer(t *testing.T, result string, inspect func(req rpcRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)
		if inspect != nil {
			inspect(req)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + strconv.FormatInt(req.ID, 10) + `,"result":` + result + `}`))
	}))
}

func TestRPCClient_BlockNumber(t *testing.T) {
	srv := newRPCServer(t, `"0x1b4"`, func(req rpcRequest) {
		assert.Equal(t, "eth_blockNumber", req.Method)
		assert.Empty(t, req.Params)
	})
	defer srv.Close()

	cli := NewRPCClient(srv.URL, time.Second, logger.Nop())
	block, err := cli.BlockNumber(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint64(436), block)
}

func TestRPCClient_ChainID(t *testing.T) {
	srv := newRPCServer(t, `"0x7a69"`, func(req rpcRequest) {
		assert.Equal(t, "eth_chainId", req.Method)
	})
	defer srv.Close()

	cli := NewRPCClient(srv.URL, time.Second, logger.Nop())
	chainID, err := cli.ChainID(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint64(31337), chainID)
}

func TestRPCClient_GetBalance(t *testing.T) {
	// 10000 ether in wei, the default dev-node account balance.
	srv := newRPCServer(t, `"0x21e19e0c9bab2400000"`, func(req rpcRequest) {
		assert.Equal(t, "eth_getBalance", req.Method)
		require.Len(t, req.Params, 2)
		assert.Equal(t, "0xabc0000000000000000000000000000000000001", req.Params[0])
		assert.Equal(t, "latest", req.Params[1])
	})
	defer srv.Close()

	cli := NewRPCClient(srv.URL, time.Second, logger.Nop())
	balance, err := cli.GetBalance(context.Background(), "0xabc0000000000000000000000000000000000001")

	require.NoError(t, err)
	want := new(big.Int).Exp(big.NewInt(10), big.NewInt(22), nil)
	assert.Zero(t, balance.Cmp(want))
}

func TestRPCClient_GetTransactionCount(t *testing.T) {
	srv := newRPCServer(t, `"0x5"`, func(req rpcRequest) {
		assert.Equal(t, "eth_getTransactionCount", req.Method)
	})
	defer srv.Close()

	cli := NewRPCClient(srv.URL, time.Second, logger.Nop())
	nonce, err := cli.GetTransactionCount(context.Background(), "0xabc")

	require.NoError(t, err)
	assert.Equal(t, uint64(5), nonce)
}

func TestRPCClient_SendRawTransaction(t *testing.T) {
	const hash = "0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b"

	srv := newRPCServer(t, `"`+hash+`"`, func(req rpcRequest) {
		assert.Equal(t, "eth_sendRawTransaction", req.Method)
		require.Len(t, req.Params, 1)
		assert.Equal(t, "0xf86c0a85", req.Params[0])
	})
	defer srv.Close()

	cli := NewRPCClient(srv.URL, time.Second, logger.Nop())
	got, err := cli.SendRawTransaction(context.Background(), "0xf86c0a85")

	require.NoError(t, err)
	assert.Equal(t, hash, got)
}

func TestRPCClient_RequestIDsIncrease(t *testing.T) {
	var ids []int64
	srv := newRPCServer(t, `"0x1"`, func(req rpcRequest) {
		ids = append(ids, req.ID)
	})
	defer srv.Close()

	cli := NewRPCClient(srv.URL, time.Second, logger.Nop())
	_, err := cli.BlockNumber(context.Background())
	require.NoError(t, err)
	_, err = cli.BlockNumber(context.Background())
	require.NoError(t, err)

	require.Len(t, ids, 2)
	assert.Greater(t, ids[1], ids[0])
}

func TestRPCClient_ErrorObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
	}))
	defer srv.Close()

	cli := NewRPCClient(srv.URL, time.Second, logger.Nop())
	_, err := cli.BlockNumber(context.Background())

	require.Error(t, err)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestRPCClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cli := NewRPCClient(srv.URL, time.Second, logger.Nop())
	_, err := cli.BlockNumber(context.Background())

	require.ErrorIs(t, err, ErrChainUnreachable)
}

func TestRPCClient_Health(t *testing.T) {
	srv := newRPCServer(t, `"0x10"`, nil)
	defer srv.Close()

	cli := NewRPCClient(srv.URL, time.Second, logger.Nop())
	require.NoError(t, cli.Health(context.Background()))

	srv.Close()
	require.Error(t, cli.Health(context.Background()))
}

func TestParseHexQuantity(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "0x0", want: 0},
		{in: "0x1b4", want: 436},
		{in: "0xde0b6b3a7640000", want: 1000000000000000000},
		{in: "0x", wantErr: true},
		{in: "1b4", wantErr: true},
		{in: "0xzz", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseHexQuantity(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
