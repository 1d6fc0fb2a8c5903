package client

import (
	"net/http"
	"time"

	"github.com/localrivet/callflow/hooks"
	"github.com/localrivet/callflow/logx"
)

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger used by the client and its transports.
func WithLogger(logger logx.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTransportFactory replaces the factory used to open transports of the
// given kind.
func WithTransportFactory(kind TransportKind, factory TransportFactory) Option {
	return func(c *Client) {
		c.factories[kind] = factory
	}
}

// WithHTTPClient sets the HTTP client used by the stateless transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.transportOpts.HTTPClient = client
	}
}

// WithHeaders adds static headers to every handshake and HTTP request.
// Credential headers take precedence.
func WithHeaders(headers http.Header) Option {
	return func(c *Client) {
		c.transportOpts.Headers = headers.Clone()
	}
}

// WithReconnectPolicy sets the backoff used by Reconnect.
func WithReconnectPolicy(initial, max time.Duration, attempts int) Option {
	return func(c *Client) {
		c.reconnect = reconnectPolicy{initial: initial, max: max, attempts: attempts}
	}
}

// WithDiscoverOnConnect fetches the tool catalog in the background after
// every successful Connect.
func WithDiscoverOnConnect() Option {
	return func(c *Client) {
		c.discoverOnConnect = true
	}
}

// WithBeforeSendRequest registers a hook that can rewrite or veto outgoing
// requests.
func WithBeforeSendRequest(h hooks.BeforeSendRequestHook) Option {
	return func(c *Client) {
		c.hooks.BeforeSendRequest = append(c.hooks.BeforeSendRequest, h)
	}
}

// WithOnReceiveRawMessage registers a hook that sees every inbound payload
// before it is parsed.
func WithOnReceiveRawMessage(h hooks.OnReceiveRawMessageHook) Option {
	return func(c *Client) {
		c.hooks.OnReceiveRawMessage = append(c.hooks.OnReceiveRawMessage, h)
	}
}

// WithBeforeHandleResponse registers a hook that runs on parsed responses
// before they are matched to a pending request.
func WithBeforeHandleResponse(h hooks.BeforeHandleResponseHook) Option {
	return func(c *Client) {
		c.hooks.BeforeHandleResponse = append(c.hooks.BeforeHandleResponse, h)
	}
}
