package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/localrivet/callflow/logx"
	"github.com/localrivet/callflow/protocol"
)

// maxResponseBytes caps the body read for a single exchange.
const maxResponseBytes = 32 << 20

var errTransportClosed = errors.New("transport is closed")

// httpTransport implements ExchangeTransport with one POST per call.
type httpTransport struct {
	url    string
	client *http.Client
	header http.Header
	logger logx.Logger

	// ctx is canceled by Close to abort in-flight exchanges
	ctx    context.Context
	cancel context.CancelFunc
}

// newHTTPTransport probes the endpoint with a ping request. Any network
// failure or non-2xx status fails the open.
func newHTTPTransport(ctx context.Context, cfg EndpointConfig, opts *TransportOptions) (Transport, error) {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	t := &httpTransport{
		url:    cfg.URL,
		client: client,
		header: opts.header(cfg),
		logger: opts.Logger,
	}
	t.ctx, t.cancel = context.WithCancel(context.Background())

	ping, err := protocol.Marshal(protocol.NewRequest("ping", protocol.MethodPing, nil))
	if err != nil {
		t.cancel()
		return nil, NewTransportError(string(TransportHTTP), "failed to encode ping", err)
	}
	if _, err := t.Exchange(ctx, ping); err != nil {
		t.cancel()
		return nil, err
	}
	t.logger.Debug("http transport reached %s", cfg.URL)
	return t, nil
}

func (t *httpTransport) Kind() TransportKind {
	return TransportHTTP
}

// Exchange posts data and returns the response body.
func (t *httpTransport) Exchange(ctx context.Context, data []byte) ([]byte, error) {
	if t.ctx.Err() != nil {
		return nil, NewTransportError(string(TransportHTTP), "exchange failed", errTransportClosed)
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(t.ctx, cancel)
	defer stop()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, t.url, bytes.NewReader(data))
	if err != nil {
		return nil, NewTransportError(string(TransportHTTP), "failed to build request", err)
	}
	for k, v := range t.header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if t.ctx.Err() != nil {
			err = errTransportClosed
		}
		return nil, NewTransportError(string(TransportHTTP), "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewTransportError(string(TransportHTTP), "failed to read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewTransportError(string(TransportHTTP),
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
	}
	return body, nil
}

func (t *httpTransport) Close() error {
	t.cancel()
	return nil
}
