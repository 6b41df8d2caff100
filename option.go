package relaypay

import (
	"net/http"
	"time"

	"github.com/candorlabs/relaypay/logger"
	"github.com/candorlabs/relaypay/metrics"
)

// clientConfig collects the knobs options can set before the relay client
// is constructed.
type clientConfig struct {
	httpClient  *http.Client
	rpcEndpoint string
	timeout     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger used across the negotiation.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) {
		c.rec = r
	}
}

// WithTimeout bounds a whole Fulfill call. A timeout mid-negotiation leaves
// nothing to clean up; no side effect is durable until settlement succeeds.
func WithTimeout(t time.Duration) Option {
	return func(c *Client) {
		c.cfg.timeout = t
	}
}

// WithHTTPClient sets the HTTP client used for relay calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.cfg.httpClient = httpClient
	}
}

// WithRPCEndpoint sets the Solana RPC endpoint used to fetch anchors,
// overriding the per-network default.
func WithRPCEndpoint(url string) Option {
	return func(c *Client) {
		c.cfg.rpcEndpoint = url
	}
}

// WithAnchorSource replaces anchor fetching entirely, mainly for tests.
func WithAnchorSource(src AnchorSource) Option {
	return func(c *Client) {
		c.anchors = src
	}
}
