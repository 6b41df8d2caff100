package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candorlabs/relaypay/types"
)

func testChallenge() *types.PaymentChallenge {
	return &types.PaymentChallenge{
		Scheme:            types.SchemeExact,
		Network:           types.NetworkSolanaMainnet,
		MaxAmountRequired: "25000000",
		PayTo:             "Addr1",
		Asset:             "USDCMint",
		Extra:             map[string]interface{}{"tenantId": "tenant-1"},
	}
}

func TestResolveFeeSponsor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/supported", r.URL.Path)
		assert.Equal(t, "tenant-1", r.URL.Query().Get("tenantId"))
		json.NewEncoder(w).Encode(types.SupportedResponse{
			Kinds: []types.SupportedKind{
				{Scheme: "exact", Network: types.NetworkSolanaMainnet},
				{Scheme: "exact", Network: types.NetworkSolanaMainnet,
					Extra: map[string]interface{}{"feePayer": "SponsorA"}},
			},
		})
	}))
	defer server.Close()

	sponsor, err := New(server.URL).ResolveFeeSponsor(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "SponsorA", sponsor.Address)
	assert.Equal(t, "tenant-1", sponsor.TenantID)
}

func TestResolveFeeSponsorUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.SupportedResponse{
			Kinds: []types.SupportedKind{{Scheme: "exact"}},
		})
	}))
	defer server.Close()

	_, err := New(server.URL).ResolveFeeSponsor(context.Background(), "tenant-1")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrSponsorUnavailable))
}

func TestResolveFeeSponsorSkipsForeignSchemes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.SupportedResponse{
			Kinds: []types.SupportedKind{
				{Scheme: "stream", Extra: map[string]interface{}{"feePayer": "WrongSponsor"}},
				{Scheme: "exact", Extra: map[string]interface{}{"feePayer": "RightSponsor"}},
			},
		})
	}))
	defer server.Close()

	sponsor, err := New(server.URL).ResolveFeeSponsor(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "RightSponsor", sponsor.Address)
}

func TestRequestInstruction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instruction", r.URL.Path)

		var req types.InstructionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "draft-base64", req.Transaction)
		assert.Equal(t, "USDCMint", req.FeeToken)
		assert.Equal(t, "SenderWallet", req.SourceWallet)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"payment_instruction": map[string]interface{}{
				"program_id": "Prog1",
				"accounts":   []map[string]interface{}{{"address": "Acc1", "role": 3}},
				"data":       []int{1, 2},
			},
			"signer_address": "SponsorB",
		})
	}))
	defer server.Close()

	instruction, signerAddress, err := New(server.URL).RequestInstruction(
		context.Background(), "draft-base64", "USDCMint", "SenderWallet", "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "SponsorB", signerAddress)
	assert.Equal(t, "Prog1", instruction.ProgramID)
	require.Len(t, instruction.Accounts, 1)
	assert.Equal(t, types.RoleWritableSigner, instruction.Accounts[0].Role)
	assert.Equal(t, []byte{1, 2}, []byte(instruction.Data))
}

func TestRequestInstructionRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "no funds"})
	}))
	defer server.Close()

	_, _, err := New(server.URL).RequestInstruction(
		context.Background(), "draft", "mint", "wallet", "tenant-1")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrRelayRejected))
	assert.Contains(t, err.Error(), "no funds")
}

func TestRequestInstructionOmitted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"signer_address": "SponsorB"})
	}))
	defer server.Close()

	_, _, err := New(server.URL).RequestInstruction(
		context.Background(), "draft", "mint", "wallet", "tenant-1")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrRelayRejected))
}

func TestSettle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/settle", r.URL.Path)

		var req types.SettleRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "exact", req.PaymentPayload.Scheme)
		assert.Equal(t, types.NetworkSolanaMainnet, req.PaymentPayload.Network)
		assert.Equal(t, "signed-proof", req.PaymentPayload.Payload.Transaction)
		assert.Equal(t, "25000000", req.PaymentRequirements.MaxAmountRequired)
		assert.Equal(t, "SponsorB", req.PaymentRequirements.Extra["feePayer"])
		assert.Equal(t, "tenant-1", req.PaymentRequirements.Extra["tenantId"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":     true,
			"transaction": "OnChainSig",
		})
	}))
	defer server.Close()

	result, err := New(server.URL).Settle(
		context.Background(), "signed-proof", testChallenge(), "SponsorB", "tenant-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "OnChainSig", result.TxID)
}

func TestSettleFailure(t *testing.T) {
	cases := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{"errorReason", map[string]interface{}{"success": false, "errorReason": "expired"}, "expired"},
		{"error fallback", map[string]interface{}{"success": false, "error": "broke"}, "broke"},
		{"missing success flag", map[string]interface{}{"transaction": "Sig"}, "unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tc.body)
			}))
			defer server.Close()

			result, err := New(server.URL).Settle(
				context.Background(), "proof", testChallenge(), "SponsorB", "tenant-1")
			require.Error(t, err)
			assert.True(t, types.IsCode(err, types.ErrSettlementFailed))
			assert.Contains(t, err.Error(), tc.want)
			require.NotNil(t, result)
			assert.False(t, result.Success)
		})
	}
}
