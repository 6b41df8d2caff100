package httpx

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candorlabs/relaypay/types"
)

type stubPayer struct {
	txID  string
	err   error
	calls int
	got   *types.PaymentChallenge
}

func (p *stubPayer) Fulfill(ctx context.Context, challenge *types.PaymentChallenge) (string, error) {
	p.calls++
	p.got = challenge
	return p.txID, p.err
}

func testChallenge(network string) types.PaymentChallenge {
	return types.PaymentChallenge{
		Scheme:            types.SchemeExact,
		Network:           network,
		MaxAmountRequired: "1000",
		PayTo:             "HN7cABqLq46Es1jh92dQQisAq662SmxELLLsHHe4YWrH",
		Asset:             "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	}
}

func write402(w http.ResponseWriter, accepts ...types.PaymentChallenge) {
	w.WriteHeader(http.StatusPaymentRequired)
	json.NewEncoder(w).Encode(types.PaymentRequired{
		X402Version: types.X402Version,
		Accepts:     accepts,
	})
}

func TestRoundTripPaysAndReplays(t *testing.T) {
	payer := &stubPayer{txID: "SettledSig"}

	var bodies []string
	var proofHeader string
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))

		if r.Header.Get(PaymentHeader) == "" {
			write402(w, testChallenge(types.NetworkSolanaMainnet))
			return
		}
		proofHeader = r.Header.Get(PaymentHeader)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"job-1","status":"pending"}`))
	}))
	defer srv.Close()

	client := NewClient(payer)
	resp, err := client.PayAndRequest(context.Background(), srv.URL, map[string]string{"prompt": "hello"})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, payer.calls)
	require.NotNil(t, payer.got)
	assert.Equal(t, types.NetworkSolanaMainnet, payer.got.Network)

	// The replay carries the same body as the first attempt.
	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
	assert.JSONEq(t, `{"prompt":"hello"}`, bodies[1])

	envelope, err := DecodeProof(proofHeader)
	require.NoError(t, err)
	assert.Equal(t, types.X402Version, envelope.X402Version)
	assert.Equal(t, types.SchemeExact, envelope.Scheme)
	assert.Equal(t, types.NetworkSolanaMainnet, envelope.Network)
	assert.Equal(t, "SettledSig", envelope.Payload.Transaction)
}

func TestRoundTripNonPaymentPassthrough(t *testing.T) {
	payer := &stubPayer{txID: "unused"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("nope"))
	}))
	defer srv.Close()

	client := NewClient(payer)
	resp, err := client.PayAndRequest(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, 0, payer.calls)
}

func TestRoundTripUsesFirstOfferOnly(t *testing.T) {
	payer := &stubPayer{txID: "SettledSig"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(PaymentHeader) == "" {
			write402(w,
				testChallenge(types.NetworkSolanaMainnet),
				testChallenge(types.NetworkSolanaDevnet),
			)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(payer)
	resp, err := client.PayAndRequest(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1, payer.calls)
	assert.Equal(t, types.NetworkSolanaMainnet, payer.got.Network)
}

func TestRoundTripReplayErrorReturnedVerbatim(t *testing.T) {
	payer := &stubPayer{txID: "SettledSig"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(PaymentHeader) == "" {
			write402(w, testChallenge(types.NetworkSolanaMainnet))
			return
		}
		// Paid, but the job itself is rejected. Not the transport's problem.
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"bad prompt"}`))
	}))
	defer srv.Close()

	client := NewClient(payer)
	resp, err := client.PayAndRequest(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"bad prompt"}`, string(body))
	assert.Equal(t, 1, payer.calls)
}

func TestRoundTripPaymentFailureAborts(t *testing.T) {
	payer := &stubPayer{err: types.NewError(types.ErrSponsorUnavailable, "no sponsor")}

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		write402(w, testChallenge(types.NetworkSolanaMainnet))
	}))
	defer srv.Close()

	client := NewClient(payer)
	_, err := client.PayAndRequest(context.Background(), srv.URL, nil) //nolint:bodyclose
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrSponsorUnavailable))
	assert.Equal(t, 1, hits)
}

func TestRoundTripMalformed402(t *testing.T) {
	payer := &stubPayer{txID: "unused"}

	cases := map[string]string{
		"garbage body": "not json",
		"no offers":    `{"x402Version":1,"accepts":[]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusPaymentRequired)
				w.Write([]byte(body))
			}))
			defer srv.Close()

			client := NewClient(payer)
			_, err := client.PayAndRequest(context.Background(), srv.URL, nil) //nolint:bodyclose
			require.Error(t, err)
			assert.Equal(t, 0, payer.calls)
		})
	}
}

func TestGetSettlement(t *testing.T) {
	echo := types.SettleResponse{Success: true, Transaction: "SettledSig"}
	raw, err := json.Marshal(echo)
	require.NoError(t, err)

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set(SettlementHeader, base64.StdEncoding.EncodeToString(raw))

	settlement := GetSettlement(resp)
	require.NotNil(t, settlement)
	assert.True(t, settlement.Success)
	assert.Equal(t, "SettledSig", settlement.Transaction)

	assert.Nil(t, GetSettlement(nil))
	assert.Nil(t, GetSettlement(&http.Response{Header: http.Header{}}))

	resp.Header.Set(SettlementHeader, "%%% not base64")
	assert.Nil(t, GetSettlement(resp))
}

func TestProofHeaderRoundTrip(t *testing.T) {
	header, err := EncodeProof(types.SchemeExact, types.NetworkSolanaDevnet, "abc123")
	require.NoError(t, err)

	envelope, err := DecodeProof(header)
	require.NoError(t, err)
	assert.Equal(t, "abc123", envelope.Payload.Transaction)
	assert.Equal(t, types.NetworkSolanaDevnet, envelope.Network)

	_, err = DecodeProof("not base64 %%%")
	require.Error(t, err)
}
