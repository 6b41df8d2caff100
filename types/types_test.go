package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validChallenge() *PaymentChallenge {
	return &PaymentChallenge{
		Scheme:            SchemeExact,
		Network:           NetworkSolanaMainnet,
		MaxAmountRequired: "25000000",
		PayTo:             "Addr1",
		Asset:             "USDCMint",
		Extra:             map[string]interface{}{"tenantId": "tenant-1"},
	}
}

func TestChallengeValidate(t *testing.T) {
	require.NoError(t, validChallenge().Validate())

	missing := validChallenge()
	missing.PayTo = ""
	assert.Error(t, missing.Validate())

	zero := validChallenge()
	zero.MaxAmountRequired = "0"
	assert.Error(t, zero.Validate())
}

func TestChallengeAtomicAmount(t *testing.T) {
	amount, err := validChallenge().AtomicAmount()
	require.NoError(t, err)
	assert.EqualValues(t, 25000000, amount)

	for _, bad := range []string{"-1", "0", "2.5", "abc", "99999999999999999999999999"} {
		c := validChallenge()
		c.MaxAmountRequired = bad
		_, err := c.AtomicAmount()
		assert.Error(t, err, "amount %q", bad)
	}
}

func TestChallengeTenantID(t *testing.T) {
	assert.Equal(t, "tenant-1", validChallenge().TenantID())

	bare := validChallenge()
	bare.Extra = nil
	assert.Equal(t, "", bare.TenantID())
}

func TestSettleResponseReason(t *testing.T) {
	assert.Equal(t, "blockhash expired", (&SettleResponse{ErrorReason: "blockhash expired"}).Reason())
	assert.Equal(t, "broke", (&SettleResponse{Error: "broke"}).Reason())
	assert.Equal(t, "unknown", (&SettleResponse{}).Reason())
}

func TestSupportedKindFeePayer(t *testing.T) {
	kind := SupportedKind{Extra: map[string]interface{}{"feePayer": "SponsorA"}}
	assert.Equal(t, "SponsorA", kind.FeePayer())
	assert.Equal(t, "", (&SupportedKind{}).FeePayer())
}

func TestErrorCodes(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(ErrRelayRejected, "no funds", cause)

	assert.True(t, IsCode(err, ErrRelayRejected))
	assert.False(t, IsCode(err, ErrSettlementFailed))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "no funds")

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsCode(wrapped, ErrRelayRejected))
	assert.False(t, IsCode(nil, ErrRelayRejected))
}
