// Package types defines the wire and domain types for the x402
// relay-sponsored payment flow: the 402 challenge, the relay's discovery,
// instruction and settlement payloads, and the job resource the payment
// unlocks.
package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// X402Version is the protocol version carried in payment envelopes.
const X402Version = 1

// SchemeExact is the only payment scheme this client negotiates.
const SchemeExact = "exact"

var validate = validator.New()

// PaymentChallenge is one entry of the "accepts" array in a 402 response
// body. It is immutable once parsed; the negotiation reads it, never
// rewrites it.
type PaymentChallenge struct {
	// Scheme of the payment protocol (e.g., "exact").
	Scheme string `json:"scheme"`

	// Network is the CAIP-2 ledger identifier (e.g., "solana:5eykt4UsFv...").
	Network string `json:"network" validate:"required"`

	// MaxAmountRequired is the amount to pay, in atomic units of the asset,
	// as a decimal string.
	MaxAmountRequired string `json:"maxAmountRequired" validate:"required"`

	// Resource is the path the payment unlocks.
	Resource string `json:"resource,omitempty"`

	// Description of the resource being purchased.
	Description string `json:"description,omitempty"`

	// PayTo is the recipient address for the payment.
	PayTo string `json:"payTo" validate:"required"`

	// Asset is the token mint address.
	Asset string `json:"asset" validate:"required"`

	// Extra carries scheme-specific data; the relay tenant lives in
	// extra.tenantId.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// TenantID returns extra.tenantId, or "" if absent.
func (c *PaymentChallenge) TenantID() string {
	if c.Extra == nil {
		return ""
	}
	tenant, _ := c.Extra["tenantId"].(string)
	return tenant
}

// AtomicAmount parses MaxAmountRequired and rejects non-positive or
// fractional values. Atomic units are integers; anything else is a
// protocol violation by the API.
func (c *PaymentChallenge) AtomicAmount() (uint64, error) {
	dec, err := decimal.NewFromString(c.MaxAmountRequired)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number: %w", c.MaxAmountRequired, err)
	}
	if !dec.IsPositive() {
		return 0, fmt.Errorf("amount %s is not positive", dec)
	}
	if !dec.Equal(dec.Truncate(0)) {
		return 0, fmt.Errorf("amount %s is not an integer of atomic units", dec)
	}
	if !dec.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %s exceeds uint64", dec)
	}
	return dec.BigInt().Uint64(), nil
}

// Validate checks the structural requirements of a challenge.
func (c *PaymentChallenge) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	_, err := c.AtomicAmount()
	return err
}

// PaymentRequired is the body of a 402 response.
type PaymentRequired struct {
	X402Version int                `json:"x402Version"`
	Error       string             `json:"error,omitempty"`
	Accepts     []PaymentChallenge `json:"accepts"`
}

// FeeSponsor is the relay address currently authorized to pay network fees
// for a tenant. It is provisional: the relay may assign a different signer
// once it has seen a structurally valid draft.
type FeeSponsor struct {
	Address  string
	TenantID string
}

// SupportedKind is one entry of the relay discovery response.
type SupportedKind struct {
	X402Version int                    `json:"x402Version"`
	Scheme      string                 `json:"scheme"`
	Network     string                 `json:"network"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// SupportedResponse is the relay discovery response.
type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}

// FeePayer returns extra.feePayer, or "" if this kind advertises none.
func (k *SupportedKind) FeePayer() string {
	if k.Extra == nil {
		return ""
	}
	feePayer, _ := k.Extra["feePayer"].(string)
	return feePayer
}

// InstructionRequest is the body sent to the relay's instruction endpoint.
// The transaction is the unsigned draft, base64-encoded.
type InstructionRequest struct {
	Transaction  string `json:"transaction"`
	FeeToken     string `json:"feeToken"`
	SourceWallet string `json:"sourceWallet"`
	TenantID     string `json:"tenantId,omitempty"`
}

// InstructionResponse is the relay's answer: a sponsor-countersigned
// instruction plus the authoritative fee-payer address, or an error.
type InstructionResponse struct {
	PaymentInstruction *RelayInstruction `json:"payment_instruction"`
	SignerAddress      string            `json:"signer_address"`
	Error              string            `json:"error,omitempty"`
}

// PaymentPayload is the scheme/network envelope wrapping a transaction,
// used both for the settlement request and the X-PAYMENT proof header.
type PaymentPayload struct {
	X402Version int                `json:"x402Version,omitempty"`
	Scheme      string             `json:"scheme"`
	Network     string             `json:"network"`
	Payload     TransactionPayload `json:"payload"`
}

// TransactionPayload carries either a base64 serialized transaction (for
// settlement) or a settled transaction identifier (for the proof header).
type TransactionPayload struct {
	Transaction string `json:"transaction"`
}

// SettleRequest is the body sent to the relay's settlement endpoint.
type SettleRequest struct {
	PaymentPayload      PaymentPayload     `json:"paymentPayload"`
	PaymentRequirements SettleRequirements `json:"paymentRequirements"`
}

// SettleRequirements restates the challenge for the relay, with the
// relay-assigned signer recorded as the fee payer.
type SettleRequirements struct {
	Scheme            string                 `json:"scheme"`
	Network           string                 `json:"network"`
	MaxAmountRequired string                 `json:"maxAmountRequired"`
	PayTo             string                 `json:"payTo"`
	Asset             string                 `json:"asset"`
	Extra             map[string]interface{} `json:"extra,omitempty"`
}

// SettleResponse is the relay's settlement answer. A missing success flag
// is treated as failure.
type SettleResponse struct {
	Success     bool   `json:"success"`
	Transaction string `json:"transaction,omitempty"`
	ErrorReason string `json:"errorReason,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Reason returns the relay-supplied failure reason, falling back to
// "unknown" when the relay gave none.
func (r *SettleResponse) Reason() string {
	if r.ErrorReason != "" {
		return r.ErrorReason
	}
	if r.Error != "" {
		return r.Error
	}
	return "unknown"
}

// SettlementResult is the outcome of a settlement attempt.
type SettlementResult struct {
	Success bool   `json:"success"`
	TxID    string `json:"txId,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// JobStatus is the remote lifecycle state of a long-running task.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is the observed state of a remote job. Its lifecycle is owned
// entirely by the remote service; this client only reads it.
type Job struct {
	ID       string    `json:"id,omitempty"`
	Status   JobStatus `json:"status"`
	VideoURL string    `json:"video_url,omitempty"`
	Error    string    `json:"error,omitempty"`
}
