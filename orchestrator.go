package relaypay

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/candorlabs/relaypay/types"
)

// State is a position in the negotiation state machine. Transitions are
// strictly sequential; any failure moves to StateFailed and aborts the
// whole negotiation with the originating error.
type State string

const (
	StateChallenged          State = "CHALLENGED"
	StateSponsorResolved     State = "SPONSOR_RESOLVED"
	StateDrafted             State = "DRAFTED"
	StateInstructionObtained State = "INSTRUCTION_OBTAINED"
	StateFinalized           State = "FINALIZED"
	StateSigned              State = "SIGNED"
	StateSettled             State = "SETTLED"
	StatePaid                State = "PAID"
	StateFailed              State = "FAILED"
)

// negotiation tracks one Fulfill invocation. All of its data is rebuilt
// fresh per call; nothing survives across negotiations, failed or not.
type negotiation struct {
	client    *Client
	challenge *types.PaymentChallenge
	state     State
	labels    map[string]string
}

// Fulfill runs one payment negotiation end to end and returns the settled
// on-chain transaction identifier to use as payment proof. Each step is
// attempted exactly once; the caller may re-invoke Fulfill to start a fresh
// negotiation, which re-resolves the sponsor and anchor.
func (c *Client) Fulfill(ctx context.Context, challenge *types.PaymentChallenge) (string, error) {
	if c.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.timeout)
		defer cancel()
	}

	n := &negotiation{
		client:    c,
		challenge: challenge,
		state:     StateChallenged,
	}
	if challenge != nil {
		n.labels = map[string]string{"network": challenge.Network}
	} else {
		n.labels = map[string]string{"network": ""}
	}

	txID, err := n.run(ctx)
	if err != nil {
		failedAt := n.state
		n.transition(StateFailed)
		c.log.Error("negotiation failed",
			zap.String("state", string(failedAt)),
			zap.Error(err))
		c.rec.IncCounter("negotiation_failed", n.labels)
		return "", err
	}

	n.transition(StatePaid)
	c.rec.IncCounter("negotiation_paid", n.labels)
	return txID, nil
}

func (n *negotiation) run(ctx context.Context) (string, error) {
	c := n.client
	challenge := n.challenge

	mint, recipient, err := c.validateChallenge(challenge)
	if err != nil {
		return "", err
	}
	tenantID := challenge.TenantID()

	// Step 1: resolve a provisional fee sponsor for the tenant.
	sponsor, err := timedStep(n, "resolve_sponsor", func() (types.FeeSponsor, error) {
		return c.resolver.ResolveFeeSponsor(ctx, tenantID)
	})
	if err != nil {
		return "", err
	}
	sponsorKey, err := solana.PublicKeyFromBase58(sponsor.Address)
	if err != nil {
		return "", types.WrapError(types.ErrSponsorUnavailable, "relay advertised a malformed sponsor address", err)
	}
	n.transition(StateSponsorResolved)

	// Step 2: anchor and transfer-only draft, sponsor in the fee-payer slot.
	anchors, err := c.anchorSourceFor(challenge.Network)
	if err != nil {
		return "", err
	}
	anchor, err := timedStep(n, "fetch_anchor", func() (solana.Hash, error) {
		return anchors.LatestAnchor(ctx)
	})
	if err != nil {
		return "", types.WrapError(types.ErrInvalidChallenge, "anchor unavailable", err)
	}

	senderAccount, _, err := solana.FindAssociatedTokenAddress(c.signer.PublicKey(), mint)
	if err != nil {
		return "", types.WrapError(types.ErrInvalidChallenge, "derive sender token account", err)
	}
	recipientAccount, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return "", types.WrapError(types.ErrInvalidChallenge, "derive recipient token account", err)
	}

	draft, err := c.builder.BuildTransferDraft(challenge, senderAccount, recipientAccount, sponsorKey, anchor)
	if err != nil {
		return "", err
	}
	n.transition(StateDrafted)

	// Step 3: trade the unsigned draft for the relay's instruction and the
	// authoritative signer.
	unsigned, err := draft.SerializeUnsigned()
	if err != nil {
		return "", types.WrapError(types.ErrInvalidChallenge, "serialize draft", err)
	}
	var signerAddress string
	instruction, err := timedStep(n, "request_instruction", func() (types.RelayInstruction, error) {
		var reqErr error
		var instr types.RelayInstruction
		instr, signerAddress, reqErr = c.instructions.RequestInstruction(
			ctx, unsigned, challenge.Asset, c.signer.PublicKey().String(), tenantID)
		return instr, reqErr
	})
	if err != nil {
		return "", err
	}
	n.transition(StateInstructionObtained)

	// Step 4: rebuild against the same anchor with the relay-assigned fee
	// payer. The relay's assignment overrides the resolved sponsor; an
	// address we have never seen is still trusted.
	feePayer := sponsorKey
	if signerAddress != "" {
		feePayer, err = solana.PublicKeyFromBase58(signerAddress)
		if err != nil {
			return "", types.WrapError(types.ErrRelayRejected, "relay assigned a malformed signer address", err)
		}
	}
	if !feePayer.Equals(sponsorKey) {
		c.log.Debug("relay substituted the fee payer",
			zap.String("resolved", sponsorKey.String()),
			zap.String("assigned", feePayer.String()))
	}

	final, err := c.builder.BuildTransferDraft(challenge, senderAccount, recipientAccount, feePayer, anchor)
	if err != nil {
		return "", err
	}
	final, err = c.builder.AppendRelayInstruction(final, instruction)
	if err != nil {
		return "", err
	}
	n.transition(StateFinalized)

	// Step 5: attach the caller's signature, leaving the relay's slot open.
	proof, err := c.signer.PartialSign(final)
	if err != nil {
		return "", err
	}
	n.transition(StateSigned)

	// Step 6: settle. Nothing counts as paid until the relay says so.
	result, err := timedStep(n, "settle", func() (*types.SettlementResult, error) {
		return c.settler.Settle(ctx, proof, challenge, feePayer.String(), tenantID)
	})
	if err != nil {
		return "", err
	}
	n.transition(StateSettled)

	return result.TxID, nil
}

// transition advances the state machine and logs the move.
func (n *negotiation) transition(next State) {
	n.client.log.Debug("negotiation state",
		zap.String("from", string(n.state)),
		zap.String("to", string(next)))
	n.state = next
}

// timedStep runs one negotiation step and records its latency.
func timedStep[T any](n *negotiation, step string, fn func() (T, error)) (T, error) {
	start := time.Now()
	out, err := fn()
	n.client.rec.ObserveLatency(step, time.Since(start), n.labels)
	return out, err
}
