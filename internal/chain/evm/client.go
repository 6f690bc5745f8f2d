// internal/chain/evm/client.go
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/tamzrod/bridge-vaults-exporter/internal/chain"
)

// Backend is the subset of ethclient.Client the reader uses.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Client implements chain.Reader over Ethereum JSON-RPC.
// Contract-call adapter only: it encodes calls and decodes results.
// Immutable facts (chain id, vault token, token metadata) are cached
// after the first successful read.
type Client struct {
	// endpoint is dialed on first use when backend is nil
	endpoint string

	connMu  sync.Mutex
	backend Backend
	closer  func()

	// withdrawal period length in seconds
	period uint64

	mu      sync.Mutex
	chainID uint64
	tokens  map[common.Address]common.Address // vault -> token
	infos   map[common.Address]chain.TokenInfo
}

// Config is minimal transport config.
type Config struct {
	Endpoint         string
	WithdrawalPeriod uint64 // seconds; 0 => 86400
}

// Dial creates a client for one RPC endpoint without connecting.
// The connection is made on the first read; a failed dial surfaces as a
// transport ReadError and is retried on the next read, so an unreachable
// node (ws:// included) never fails startup.
func Dial(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("evm client: endpoint required")
	}
	c := New(nil, cfg.WithdrawalPeriod)
	c.endpoint = cfg.Endpoint
	return c, nil
}

// New wraps an existing backend.
func New(backend Backend, withdrawalPeriod uint64) *Client {
	if withdrawalPeriod == 0 {
		withdrawalPeriod = 86400
	}
	return &Client{
		backend: backend,
		period:  withdrawalPeriod,
		tokens:  make(map[common.Address]common.Address),
		infos:   make(map[common.Address]chain.TokenInfo),
	}
}

// Close releases the underlying RPC client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.closer != nil {
		c.closer()
		c.closer = nil
	}
	if c.endpoint != "" {
		c.backend = nil
	}
	return nil
}

// conn returns the backend, dialing it first if needed.
func (c *Client) conn(ctx context.Context) (Backend, error) {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.backend != nil {
		return c.backend, nil
	}
	if c.endpoint == "" {
		return nil, chain.Errorf("dial", chain.ErrTransport, "no backend")
	}

	ec, err := ethclient.DialContext(ctx, c.endpoint)
	if err != nil {
		return nil, &chain.ReadError{
			Op:   "dial",
			Kind: chain.ErrTransport,
			Err:  fmt.Errorf("%s: %w", c.endpoint, err),
		}
	}
	c.backend = ec
	c.closer = ec.Close
	return ec, nil
}

// ---- chain.Reader interface ----

var _ chain.Reader = (*Client)(nil)

func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	const op = "chain_id"

	c.mu.Lock()
	cached := c.chainID
	c.mu.Unlock()
	if cached != 0 {
		return cached, nil
	}

	backend, err := c.conn(ctx)
	if err != nil {
		return 0, err
	}
	id, err := backend.ChainID(ctx)
	if err != nil {
		return 0, classify(op, "eth_chainId", err)
	}
	if id == nil || !id.IsUint64() || id.Sign() == 0 {
		return 0, chain.Errorf(op, chain.ErrMalformed, "bad chain id %v", id)
	}

	c.mu.Lock()
	c.chainID = id.Uint64()
	c.mu.Unlock()
	return id.Uint64(), nil
}

func (c *Client) ReadDecimals(ctx context.Context, token common.Address) (chain.TokenInfo, error) {
	const op = "read_decimals"

	c.mu.Lock()
	info, ok := c.infos[token]
	c.mu.Unlock()
	if ok {
		return info, nil
	}

	out, err := c.call(ctx, op, erc20ABI, token, nil, "decimals")
	if err != nil {
		return chain.TokenInfo{}, err
	}
	decimals, err := outUint8(op, out)
	if err != nil {
		return chain.TokenInfo{}, err
	}

	out, err = c.call(ctx, op, erc20ABI, token, nil, "symbol")
	if err != nil {
		return chain.TokenInfo{}, err
	}
	symbol, err := outString(op, out)
	if err != nil {
		return chain.TokenInfo{}, err
	}

	info = chain.TokenInfo{Address: token, Symbol: symbol, Decimals: decimals}

	c.mu.Lock()
	c.infos[token] = info
	c.mu.Unlock()
	return info, nil
}

func (c *Client) ReadVaultState(ctx context.Context, vault common.Address) (chain.VaultState, error) {
	const op = "read_vault_state"

	head, err := c.latest(ctx, op)
	if err != nil {
		return chain.VaultState{}, err
	}
	block := head.Number

	token, err := c.vaultToken(ctx, vault)
	if err != nil {
		return chain.VaultState{}, err
	}

	st := chain.VaultState{Token: token}

	if st.Balance, err = c.callBig(ctx, op, erc20ABI, token, block, "balanceOf", vault); err != nil {
		return chain.VaultState{}, err
	}
	if st.TotalAssets, err = c.callBig(ctx, op, vaultABI, vault, block, "totalAssets"); err != nil {
		return chain.VaultState{}, err
	}
	if st.WithdrawLimitPerPeriod, err = c.callBig(ctx, op, vaultABI, vault, block, "withdrawLimitPerPeriod"); err != nil {
		return chain.VaultState{}, err
	}
	if st.LastUpdate, err = c.callBig(ctx, op, vaultABI, vault, block, "lastReport"); err != nil {
		return chain.VaultState{}, err
	}

	st.CurrentPeriodID = head.Time / c.period

	out, err := c.call(ctx, op, vaultABI, vault, block, "withdrawalPeriods", new(big.Int).SetUint64(st.CurrentPeriodID))
	if err != nil {
		return chain.VaultState{}, err
	}
	if len(out) != 2 {
		return chain.VaultState{}, chain.Errorf(op, chain.ErrMalformed, "withdrawalPeriods: %d outputs", len(out))
	}
	if st.PeriodTotal, err = outBig(op, out[:1]); err != nil {
		return chain.VaultState{}, err
	}
	if st.PeriodConsidered, err = outBig(op, out[1:]); err != nil {
		return chain.VaultState{}, err
	}

	return st, nil
}

func (c *Client) ReadBridgeState(ctx context.Context, proxy common.Address) (chain.BridgeState, error) {
	const op = "read_bridge_state"

	head, err := c.latest(ctx, op)
	if err != nil {
		return chain.BridgeState{}, err
	}
	block := head.Number

	out, err := c.call(ctx, op, bridgeABI, proxy, block, "lastRound")
	if err != nil {
		return chain.BridgeState{}, err
	}
	round, err := outUint32(op, out)
	if err != nil {
		return chain.BridgeState{}, err
	}

	out, err = c.call(ctx, op, bridgeABI, proxy, block, "rounds", round)
	if err != nil {
		return chain.BridgeState{}, err
	}
	if len(out) != 4 {
		return chain.BridgeState{}, chain.Errorf(op, chain.ErrMalformed, "rounds: %d outputs", len(out))
	}
	relays, err := outUint32(op, out[2:3])
	if err != nil {
		return chain.BridgeState{}, err
	}

	return chain.BridgeState{Round: round, RelayCount: relays}, nil
}

// ---- internal call helpers ----

// latest pins the head block all calls of one read are made at.
func (c *Client) latest(ctx context.Context, op string) (*types.Header, error) {
	backend, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	head, err := backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, classify(op, "eth_getBlockByNumber", err)
	}
	if head == nil || head.Number == nil {
		return nil, chain.Errorf(op, chain.ErrMalformed, "empty latest header")
	}
	return head, nil
}

func (c *Client) vaultToken(ctx context.Context, vault common.Address) (common.Address, error) {
	const op = "read_vault_state"

	c.mu.Lock()
	token, ok := c.tokens[vault]
	c.mu.Unlock()
	if ok {
		return token, nil
	}

	out, err := c.call(ctx, op, vaultABI, vault, nil, "token")
	if err != nil {
		return common.Address{}, err
	}
	token, err = outAddress(op, out)
	if err != nil {
		return common.Address{}, err
	}

	c.mu.Lock()
	c.tokens[vault] = token
	c.mu.Unlock()
	return token, nil
}

func (c *Client) callBig(ctx context.Context, op string, contract abi.ABI, to common.Address, block *big.Int, method string, args ...any) (*big.Int, error) {
	out, err := c.call(ctx, op, contract, to, block, method, args...)
	if err != nil {
		return nil, err
	}
	return outBig(op, out)
}

func (c *Client) call(ctx context.Context, op string, contract abi.ABI, to common.Address, block *big.Int, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, chain.Errorf(op, chain.ErrMalformed, "pack %s: %w", method, err)
	}

	backend, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, block)
	if err != nil {
		return nil, classify(op, method, err)
	}

	out, err := contract.Unpack(method, raw)
	if err != nil {
		return nil, chain.Errorf(op, chain.ErrMalformed, "decode %s: %w", method, err)
	}
	return out, nil
}

// classify maps an RPC failure onto the chain error taxonomy.
func classify(op, method string, err error) error {
	kind := chain.ErrTransport

	var httpErr rpc.HTTPError
	var rpcErr rpc.Error
	var netErr net.Error

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = chain.ErrTransport
	case errors.As(err, &httpErr):
		if httpErr.StatusCode != 429 && httpErr.StatusCode < 500 {
			kind = chain.ErrMalformed
		}
	case errors.As(err, &rpcErr):
		if rpcErr.ErrorCode() == 3 || isRevert(err) {
			kind = chain.ErrReverted
		}
	case errors.As(err, &netErr):
		kind = chain.ErrTransport
	case isRevert(err):
		kind = chain.ErrReverted
	}

	return &chain.ReadError{Op: op, Kind: kind, Err: fmt.Errorf("%s: %w", method, err)}
}

func isRevert(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "revert")
}

// ---- output decoding ----

func single(op string, out []any) (any, error) {
	if len(out) != 1 {
		return nil, chain.Errorf(op, chain.ErrMalformed, "expected 1 output, got %d", len(out))
	}
	return out[0], nil
}

func outBig(op string, out []any) (*big.Int, error) {
	v, err := single(op, out)
	if err != nil {
		return nil, err
	}
	b, ok := v.(*big.Int)
	if !ok || b == nil {
		return nil, chain.Errorf(op, chain.ErrMalformed, "expected uint256, got %T", v)
	}
	return b, nil
}

func outAddress(op string, out []any) (common.Address, error) {
	v, err := single(op, out)
	if err != nil {
		return common.Address{}, err
	}
	a, ok := v.(common.Address)
	if !ok {
		return common.Address{}, chain.Errorf(op, chain.ErrMalformed, "expected address, got %T", v)
	}
	return a, nil
}

func outUint8(op string, out []any) (uint8, error) {
	v, err := single(op, out)
	if err != nil {
		return 0, err
	}
	n, ok := v.(uint8)
	if !ok {
		return 0, chain.Errorf(op, chain.ErrMalformed, "expected uint8, got %T", v)
	}
	return n, nil
}

func outUint32(op string, out []any) (uint32, error) {
	v, err := single(op, out)
	if err != nil {
		return 0, err
	}
	n, ok := v.(uint32)
	if !ok {
		return 0, chain.Errorf(op, chain.ErrMalformed, "expected uint32, got %T", v)
	}
	return n, nil
}

func outString(op string, out []any) (string, error) {
	v, err := single(op, out)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", chain.Errorf(op, chain.ErrMalformed, "expected string, got %T", v)
	}
	return s, nil
}
