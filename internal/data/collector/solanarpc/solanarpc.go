package solanarpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/songzhibin97/tokenlens/internal/data"
	"github.com/songzhibin97/tokenlens/internal/models"
)

// RPCDataSource reads decimals and raw supply straight from the mint account.
type RPCDataSource struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

func NewRPCDataSource(endpoint string) *RPCDataSource {
	if endpoint == "" {
		endpoint = rpc.MainNetBeta_RPC
	}
	return &RPCDataSource{
		client:     rpc.New(endpoint),
		commitment: rpc.CommitmentFinalized,
	}
}

func (s *RPCDataSource) Name() string {
	return "solanarpc"
}

func (s *RPCDataSource) FetchMetadata(ctx context.Context, address string) (*models.TokenMetadata, error) {
	mint, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		// format-valid addresses can still decode to the wrong length
		return nil, fmt.Errorf("solanarpc: %s is not a public key: %w", address, data.ErrNotFound)
	}

	out, err := s.client.GetTokenSupply(ctx, mint, s.commitment)
	if err != nil {
		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) {
			return nil, fmt.Errorf("solanarpc: %s: %w", rpcErr.Message, data.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token supply: %w", err)
	}

	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("solanarpc: empty supply: %w", data.ErrNotFound)
	}

	return &models.TokenMetadata{
		Address:  address,
		Decimals: int(out.Value.Decimals),
		Supply:   out.Value.Amount,
	}, nil
}
