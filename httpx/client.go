package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/candorlabs/relaypay/logger"
	"github.com/candorlabs/relaypay/types"
)

// Client is an http.Client whose transport pays 402 challenges.
type Client struct {
	*http.Client

	log logger.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client; its transport is wrapped.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.Client = httpClient
	}
}

// WithLogger sets the transport's logger.
func WithLogger(log logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient wraps an HTTP client with the paying transport.
func NewClient(payer Fulfiller, opts ...ClientOption) *Client {
	c := &Client{Client: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}

	if wrapped, ok := c.Transport.(*Transport); ok {
		wrapped.Payer = payer
		wrapped.Log = c.log
		return c
	}

	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.Transport = &Transport{Base: base, Payer: payer, Log: c.log}
	return c
}

// PayAndRequest POSTs a JSON body to the endpoint, paying the 402 challenge
// if one comes back. Any non-payment error response, including one on the
// replay, is returned verbatim for the caller to inspect.
func (c *Client) PayAndRequest(ctx context.Context, endpoint string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.Do(req)
}

// GetSettlement decodes the settlement echo from a replayed response, if
// the API attached one. Returns nil when absent or unparseable.
func GetSettlement(resp *http.Response) *types.SettleResponse {
	if resp == nil {
		return nil
	}
	return decodeSettlement(resp.Header.Get(SettlementHeader))
}
