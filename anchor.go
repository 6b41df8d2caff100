package relaypay

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/candorlabs/relaypay/types"
)

// AnchorSource supplies the freshness token a draft is anchored to. Anchors
// expire; every negotiation fetches a new one and never reuses a stale one.
type AnchorSource interface {
	LatestAnchor(ctx context.Context) (solana.Hash, error)
}

// rpcAnchorSource reads the latest finalized blockhash from a Solana RPC
// node.
type rpcAnchorSource struct {
	client *rpc.Client
}

// NewRPCAnchorSource builds an anchor source backed by the given RPC
// endpoint.
func NewRPCAnchorSource(rpcURL string) AnchorSource {
	return &rpcAnchorSource{client: rpc.New(rpcURL)}
}

func (s *rpcAnchorSource) LatestAnchor(ctx context.Context) (solana.Hash, error) {
	recent, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("latest blockhash: %w", err)
	}
	return recent.Value.Blockhash, nil
}

// rpcEndpointFor maps a CAIP-2 Solana network identifier to a default
// public RPC endpoint, for callers that configure none.
func rpcEndpointFor(network string) (string, error) {
	switch network {
	case types.NetworkSolanaMainnet:
		return rpc.MainNetBeta_RPC, nil
	case types.NetworkSolanaDevnet:
		return rpc.DevNet_RPC, nil
	default:
		return "", fmt.Errorf("no default RPC endpoint for network %s", network)
	}
}
