package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"go.uber.org/zap"

	"yieldScope/internal/address"
)

// ErrNoRPC is returned when no endpoint is configured for a chain.
var ErrNoRPC = errors.New("no rpc endpoint for chain")

// FetchSymbol reads an ERC20 symbol, trying the string ABI first and the
// bytes32 ABI second.
func FetchSymbol(ctx context.Context, caller Caller, token address.Address) (string, error) {
	if caller == nil {
		return "", fmt.Errorf("chain client is nil")
	}
	stringABI, err := symbolStringABIInstance()
	if err != nil {
		return "", fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := symbolBytes32ABIInstance()
	if err != nil {
		return "", fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	to := token.Common()
	call := func(parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack("symbol")
		if err != nil {
			return nil, fmt.Errorf("pack symbol: %w", err)
		}
		resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
		if err != nil {
			return nil, fmt.Errorf("call symbol: %w", err)
		}
		values, err := parsed.Unpack("symbol", resp)
		if err != nil {
			return nil, fmt.Errorf("unpack symbol: %w", err)
		}
		return values, nil
	}

	if values, err := call(stringABI); err == nil {
		if symbol, ok := values[0].(string); ok && symbol != "" {
			return symbol, nil
		}
	}
	values, err := call(bytes32ABI)
	if err != nil {
		return "", err
	}
	symbol, ok := bytes32ToString(values[0])
	if !ok || symbol == "" {
		return "", fmt.Errorf("empty symbol for %s", token)
	}
	return symbol, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

// SymbolResolver looks up token symbols over per-chain RPC endpoints.
// Symbols are contract constants, so lookups are memoized for the
// resolver's lifetime.
type SymbolResolver struct {
	urls   map[string]string
	dial   func(ctx context.Context, url string) (Caller, func(), error)
	logger *zap.Logger

	mu      sync.Mutex
	clients map[string]Caller
	closers []func()
	symbols map[string]string
}

// NewSymbolResolver builds a resolver for chain -> RPC URL pairs.
func NewSymbolResolver(urls map[string]string, logger *zap.Logger) *SymbolResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	normalized := make(map[string]string, len(urls))
	for chainName, url := range urls {
		normalized[strings.ToLower(strings.TrimSpace(chainName))] = url
	}
	return &SymbolResolver{
		urls:    normalized,
		dial:    dialCaller,
		logger:  logger,
		clients: make(map[string]Caller),
		symbols: make(map[string]string),
	}
}

func dialCaller(ctx context.Context, url string) (Caller, func(), error) {
	client, err := NewClient(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// Supports reports whether an RPC endpoint is configured for chainName.
func (r *SymbolResolver) Supports(chainName string) bool {
	if r == nil {
		return false
	}
	_, ok := r.urls[strings.ToLower(chainName)]
	return ok
}

// Symbol resolves the ERC20 symbol of token on chainName.
func (r *SymbolResolver) Symbol(ctx context.Context, chainName string, token address.Address) (string, error) {
	if r == nil {
		return "", ErrNoRPC
	}
	chainName = strings.ToLower(chainName)
	key := chainName + ":" + token.String()

	r.mu.Lock()
	if symbol, ok := r.symbols[key]; ok {
		r.mu.Unlock()
		return symbol, nil
	}
	r.mu.Unlock()

	caller, err := r.client(ctx, chainName)
	if err != nil {
		return "", err
	}
	symbol, err := FetchSymbol(ctx, caller, token)
	if err != nil {
		r.logger.Debug("symbol call failed", zap.String("chain", chainName), zap.String("token", token.String()), zap.Error(err))
		return "", err
	}

	r.mu.Lock()
	r.symbols[key] = symbol
	r.mu.Unlock()
	return symbol, nil
}

func (r *SymbolResolver) client(ctx context.Context, chainName string) (Caller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller, ok := r.clients[chainName]; ok {
		return caller, nil
	}
	url, ok := r.urls[chainName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRPC, chainName)
	}
	caller, closer, err := r.dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", chainName, err)
	}
	r.clients[chainName] = caller
	if closer != nil {
		r.closers = append(r.closers, closer)
	}
	return caller, nil
}

// Close releases every dialed client.
func (r *SymbolResolver) Close() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, closer := range r.closers {
		closer()
	}
	r.closers = nil
	r.clients = make(map[string]Caller)
}
