// Package httpx layers the payment flow over plain HTTP: a RoundTripper
// that intercepts 402 responses, pays, and replays the original request
// with proof, plus the header codecs that carry the proof both ways.
package httpx

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/candorlabs/relaypay/types"
)

// PaymentHeader is the request header carrying payment proof.
const PaymentHeader = "X-PAYMENT"

// SettlementHeader is the response header on which the API may echo
// settlement data back.
const SettlementHeader = "X-PAYMENT-RESPONSE"

// EncodeProof builds the X-PAYMENT header value: the base64-encoded
// scheme/network envelope wrapping the settled transaction identifier.
func EncodeProof(scheme, network, transactionID string) (string, error) {
	envelope := types.PaymentPayload{
		X402Version: types.X402Version,
		Scheme:      scheme,
		Network:     network,
		Payload:     types.TransactionPayload{Transaction: transactionID},
	}

	raw, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("encode proof: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeProof parses an X-PAYMENT header value back into its envelope.
func DecodeProof(header string) (*types.PaymentPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("decode proof: %w", err)
	}

	var envelope types.PaymentPayload
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode proof: %w", err)
	}
	return &envelope, nil
}

// decodeSettlement parses an X-PAYMENT-RESPONSE header value. Returns nil
// when the header is empty or unparseable; settlement echo is best-effort.
func decodeSettlement(header string) *types.SettleResponse {
	if header == "" {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil
	}
	var settlement types.SettleResponse
	if err := json.Unmarshal(raw, &settlement); err != nil {
		return nil
	}
	return &settlement
}
