package client

import (
	"context"
	"net/http"

	"github.com/localrivet/callflow/logx"
)

// Transport is a channel to an endpoint owned by a single Client.
// Close releases it and may be called more than once.
type Transport interface {
	Kind() TransportKind
	Close() error
}

// SocketTransport is a long-lived duplex transport that can deliver
// unsolicited inbound messages.
type SocketTransport interface {
	Transport

	// Send transmits one encoded message.
	Send(ctx context.Context, data []byte) error

	// Listen starts delivering inbound messages to onMessage, one at a time.
	// onClose is invoked once when the transport ends for a reason other
	// than Close: nil for an orderly peer close, the cause otherwise.
	Listen(onMessage func(data []byte), onClose func(err error))
}

// ExchangeTransport performs one request/response round trip per call.
type ExchangeTransport interface {
	Transport

	// Exchange sends data and returns the raw response body.
	Exchange(ctx context.Context, data []byte) ([]byte, error)
}

// TransportFactory opens a transport for cfg. ctx bounds the open.
type TransportFactory func(ctx context.Context, cfg EndpointConfig, opts *TransportOptions) (Transport, error)

// TransportOptions holds configuration shared by transports
type TransportOptions struct {
	HTTPClient *http.Client
	Headers    http.Header
	Logger     logx.Logger
}

// header merges the static headers with the credential headers.
func (o *TransportOptions) header(cfg EndpointConfig) http.Header {
	h := http.Header{}
	for k, v := range o.Headers {
		h[k] = append([]string(nil), v...)
	}
	for k, v := range cfg.Credential.Headers() {
		h[k] = v
	}
	return h
}

func defaultTransportFactories() map[TransportKind]TransportFactory {
	return map[TransportKind]TransportFactory{
		TransportWebSocket: newWebSocketTransport,
		TransportHTTP:      newHTTPTransport,
	}
}
