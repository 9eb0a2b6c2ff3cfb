// internal/infra/solana/rpc_client.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
)

var ErrRPCNotConfigured = errors.New("solana rpc: client not configured")

// ChainReader defines the read-only chain state the transaction builder needs.
type ChainReader interface {
	// LatestBlockhash returns the base58 recent blockhash.
	LatestBlockhash(ctx context.Context) (string, error)
	// MinimumBalanceForRentExemption returns lamports needed for an account of dataLen bytes.
	MinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error)
}

// RPCClient implements ChainReader on top of the blocto SDK client.
type RPCClient struct {
	Endpoint string
	c        *client.Client
}

var _ ChainReader = (*RPCClient)(nil)

// NewRPCClient creates a Solana RPC reader.
// Endpoint resolution order:
// 1) endpoint argument (SOLANA_RPC_URL via config)
// 2) rpc.DevnetRPCEndpoint (default)
func NewRPCClient(endpoint string) *RPCClient {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = rpc.DevnetRPCEndpoint
	}
	return &RPCClient{
		Endpoint: ep,
		c:        client.NewClient(ep),
	}
}

func (r *RPCClient) LatestBlockhash(ctx context.Context) (string, error) {
	if r == nil || r.c == nil {
		return "", ErrRPCNotConfigured
	}
	res, err := r.c.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("solana rpc: GetLatestBlockhash: %w", err)
	}
	return res.Blockhash, nil
}

func (r *RPCClient) MinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error) {
	if r == nil || r.c == nil {
		return 0, ErrRPCNotConfigured
	}
	lamports, err := r.c.GetMinimumBalanceForRentExemption(ctx, dataLen)
	if err != nil {
		return 0, fmt.Errorf("solana rpc: GetMinimumBalanceForRentExemption: %w", err)
	}
	return lamports, nil
}
