// Package relaypay turns an HTTP 402 challenge into a settled,
// relay-sponsored SPL token payment. The caller never pays network fees:
// a relay resolves a fee sponsor, countersigns an instruction into the
// caller's transfer, and settles the assembled transaction on chain. The
// settled transaction identifier then serves as payment proof on the
// replayed request.
package relaypay

import (
	"context"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/candorlabs/relaypay/logger"
	"github.com/candorlabs/relaypay/metrics"
	"github.com/candorlabs/relaypay/relay"
	"github.com/candorlabs/relaypay/signer"
	"github.com/candorlabs/relaypay/txbuild"
	"github.com/candorlabs/relaypay/types"
)

// SponsorResolver resolves the relay address currently authorized to pay
// network fees for a tenant.
type SponsorResolver interface {
	ResolveFeeSponsor(ctx context.Context, tenantID string) (types.FeeSponsor, error)
}

// InstructionRequester trades an unsigned draft for the relay's
// countersigned instruction and the authoritative fee-payer address.
type InstructionRequester interface {
	RequestInstruction(ctx context.Context, draftBase64, feeToken, sourceWallet, tenantID string) (types.RelayInstruction, string, error)
}

// Settler submits a partially signed transaction for final execution.
type Settler interface {
	Settle(ctx context.Context, signedProof string, challenge *types.PaymentChallenge, signerAddress, tenantID string) (*types.SettlementResult, error)
}

// Client sequences a payment negotiation from 402 challenge to settled
// proof. One Client serves any number of concurrent negotiations; it holds
// no per-negotiation state.
type Client struct {
	signer       *signer.Signer
	builder      *txbuild.Builder
	resolver     SponsorResolver
	instructions InstructionRequester
	settler      Settler
	anchors      AnchorSource

	log logger.Logger
	rec metrics.Recorder
	cfg clientConfig
}

// New creates a payment client against the given relay. The signer owns the
// caller's key for the process lifetime.
func New(relayURL string, s *signer.Signer, opts ...Option) (*Client, error) {
	if s == nil {
		return nil, types.NewError(types.ErrInvalidChallenge, "signer is required")
	}

	c := &Client{
		signer:  s,
		builder: txbuild.NewBuilder(s.PublicKey()),
		log:     logger.Noop{},
		rec:     metrics.Noop{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.resolver == nil || c.instructions == nil || c.settler == nil {
		relayOpts := []relay.Option{relay.WithLogger(c.log)}
		if c.cfg.httpClient != nil {
			relayOpts = append(relayOpts, relay.WithHTTPClient(c.cfg.httpClient))
		}
		rc := relay.New(relayURL, relayOpts...)
		if c.resolver == nil {
			c.resolver = rc
		}
		if c.instructions == nil {
			c.instructions = rc
		}
		if c.settler == nil {
			c.settler = rc
		}
	}

	return c, nil
}

// anchorSourceFor picks the configured anchor source, or a fresh RPC-backed
// one chosen by network when none is configured.
func (c *Client) anchorSourceFor(network string) (AnchorSource, error) {
	if c.anchors != nil {
		return c.anchors, nil
	}
	endpoint := c.cfg.rpcEndpoint
	if endpoint == "" {
		var err error
		endpoint, err = rpcEndpointFor(network)
		if err != nil {
			return nil, types.WrapError(types.ErrInvalidChallenge, "no anchor source for network", err)
		}
	}
	return NewRPCAnchorSource(endpoint), nil
}

// validateChallenge enforces the structural requirements of a challenge
// before any network call is made.
func (c *Client) validateChallenge(challenge *types.PaymentChallenge) (mint, recipient solana.PublicKey, err error) {
	if challenge == nil {
		return mint, recipient, types.NewError(types.ErrInvalidChallenge, "challenge is nil")
	}
	if err := challenge.Validate(); err != nil {
		return mint, recipient, types.WrapError(types.ErrInvalidChallenge, "malformed challenge", err)
	}
	if !types.IsSolanaNetwork(challenge.Network) {
		return mint, recipient, types.NewError(types.ErrInvalidChallenge, "unsupported network "+challenge.Network)
	}

	mint, err = solana.PublicKeyFromBase58(challenge.Asset)
	if err != nil {
		return mint, recipient, types.WrapError(types.ErrInvalidChallenge, "malformed asset address", err)
	}
	recipient, err = solana.PublicKeyFromBase58(challenge.PayTo)
	if err != nil {
		return mint, recipient, types.WrapError(types.ErrInvalidChallenge, "malformed recipient address", err)
	}

	if limit := c.signer.MaxAmount(); limit != nil {
		amount, _ := challenge.AtomicAmount()
		if new(big.Int).SetUint64(amount).Cmp(limit) > 0 {
			return mint, recipient, types.NewError(types.ErrInvalidChallenge, "amount exceeds the signer's spending cap")
		}
	}

	return mint, recipient, nil
}
