package relay

import (
	"context"

	"go.uber.org/zap"

	"github.com/candorlabs/relaypay/types"
)

// Settle wraps the partially signed proof in the scheme/network envelope
// the relay expects and submits it for final execution. The relay adds its
// co-signature and broadcasts; a response without a success flag counts as
// failure. Nothing is considered paid until this returns success.
func (c *Client) Settle(
	ctx context.Context,
	signedProof string,
	challenge *types.PaymentChallenge,
	signerAddress string,
	tenantID string,
) (*types.SettlementResult, error) {
	extra := map[string]interface{}{
		"feePayer": signerAddress,
	}
	if tenantID != "" {
		extra["tenantId"] = tenantID
	}

	request := types.SettleRequest{
		PaymentPayload: types.PaymentPayload{
			X402Version: types.X402Version,
			Scheme:      types.SchemeExact,
			Network:     challenge.Network,
			Payload:     types.TransactionPayload{Transaction: signedProof},
		},
		PaymentRequirements: types.SettleRequirements{
			Scheme:            types.SchemeExact,
			Network:           challenge.Network,
			MaxAmountRequired: challenge.MaxAmountRequired,
			PayTo:             challenge.PayTo,
			Asset:             challenge.Asset,
			Extra:             extra,
		},
	}

	var response types.SettleResponse
	if err := c.postJSON(ctx, c.baseURL+"/settle", request, &response); err != nil {
		return nil, types.WrapError(types.ErrSettlementFailed, "settlement request failed", err)
	}

	if !response.Success {
		reason := response.Reason()
		c.log.Warn("settlement rejected",
			zap.String("network", challenge.Network),
			zap.String("reason", reason))
		return &types.SettlementResult{Success: false, Reason: reason},
			types.NewError(types.ErrSettlementFailed, reason)
	}

	c.log.Info("payment settled",
		zap.String("network", challenge.Network),
		zap.String("tx", response.Transaction))

	return &types.SettlementResult{Success: true, TxID: response.Transaction}, nil
}
