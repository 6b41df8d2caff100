package relay

import (
	"context"

	"go.uber.org/zap"

	"github.com/candorlabs/relaypay/types"
)

// RequestInstruction submits an unsigned draft to the relay's instruction
// endpoint and returns the sponsor-countersigned instruction together with
// the authoritative fee-payer address for the final transaction. The relay
// cannot decide who sponsors fees until it has inspected a structurally
// valid draft, which is why the draft arrives unsigned and provisional.
func (c *Client) RequestInstruction(
	ctx context.Context,
	draftBase64 string,
	feeToken string,
	sourceWallet string,
	tenantID string,
) (types.RelayInstruction, string, error) {
	request := types.InstructionRequest{
		Transaction:  draftBase64,
		FeeToken:     feeToken,
		SourceWallet: sourceWallet,
		TenantID:     tenantID,
	}

	var response types.InstructionResponse
	if err := c.postJSON(ctx, c.baseURL+"/instruction", request, &response); err != nil {
		return types.RelayInstruction{}, "", types.WrapError(types.ErrRelayRejected, "instruction request failed", err)
	}

	if response.Error != "" {
		return types.RelayInstruction{}, "", types.NewError(types.ErrRelayRejected, response.Error)
	}
	if response.PaymentInstruction == nil {
		return types.RelayInstruction{}, "", types.NewError(types.ErrRelayRejected, "relay omitted the payment instruction")
	}

	c.log.Debug("obtained relay instruction",
		zap.String("program", response.PaymentInstruction.ProgramID),
		zap.Int("accounts", len(response.PaymentInstruction.Accounts)),
		zap.String("signer", response.SignerAddress))

	return *response.PaymentInstruction, response.SignerAddress, nil
}
