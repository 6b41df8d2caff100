package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/candorlabs/relaypay/logger"
	"github.com/candorlabs/relaypay/types"
)

// Fulfiller runs one payment negotiation and returns the settled
// transaction identifier. *relaypay.Client satisfies it.
type Fulfiller interface {
	Fulfill(ctx context.Context, challenge *types.PaymentChallenge) (string, error)
}

// Transport is a RoundTripper that pays 402 challenges transparently. The
// first attempt goes out untouched; if the API answers 402, the transport
// negotiates exactly one payment against accepts[0] and replays the same
// request with the proof header. Every non-402 response, including errors
// on the replay, passes through verbatim.
type Transport struct {
	// Base is the underlying RoundTripper. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	// Payer runs the negotiation.
	Payer Fulfiller

	// Log, if set, records payment attempts.
	Log logger.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	log := t.Log
	if log == nil {
		log = logger.Noop{}
	}

	// The body may be consumed twice: once by the first attempt, once by
	// the replay. Buffer it up front.
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	first := req.Clone(req.Context())
	if body != nil {
		first.Body = io.NopCloser(bytes.NewReader(body))
		first.ContentLength = int64(len(body))
	}

	resp, err := base.RoundTrip(first)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}

	challenge, err := parseChallenge(resp)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	log.Info("payment required",
		zap.String("url", req.URL.String()),
		zap.String("network", challenge.Network),
		zap.String("amount", challenge.MaxAmountRequired),
		zap.String("asset", challenge.Asset))

	proofID, err := t.Payer.Fulfill(req.Context(), challenge)
	if err != nil {
		return nil, err
	}

	header, err := EncodeProof(types.SchemeExact, challenge.Network, proofID)
	if err != nil {
		return nil, err
	}

	replay := req.Clone(req.Context())
	if body != nil {
		replay.Body = io.NopCloser(bytes.NewReader(body))
		replay.ContentLength = int64(len(body))
	}
	replay.Header.Set(PaymentHeader, header)

	log.Info("replaying request with payment proof",
		zap.String("url", req.URL.String()),
		zap.String("tx", proofID))

	return base.RoundTrip(replay)
}

// parseChallenge extracts accepts[0] from a 402 body. Only the first offer
// is ever used; one negotiation per call, no matter how many entries the
// server advertises.
func parseChallenge(resp *http.Response) (*types.PaymentChallenge, error) {
	var required types.PaymentRequired
	if err := json.NewDecoder(resp.Body).Decode(&required); err != nil {
		return nil, types.WrapError(types.ErrInvalidChallenge, "undecodable 402 body", err)
	}
	if len(required.Accepts) == 0 {
		return nil, types.NewError(types.ErrInvalidChallenge, "402 response offers no payment option")
	}
	return &required.Accepts[0], nil
}
