package client

import (
	"context"
	"sync"

	"github.com/localrivet/callflow/logx"
	"github.com/localrivet/callflow/transport/websocket"
)

// websocketTransport implements SocketTransport over a single WebSocket.
type websocketTransport struct {
	url        string
	conn       *websocket.Conn
	logger     logx.Logger
	listenOnce sync.Once
}

// newWebSocketTransport dials cfg.URL, presenting the credential in the
// upgrade request.
func newWebSocketTransport(ctx context.Context, cfg EndpointConfig, opts *TransportOptions) (Transport, error) {
	conn, err := websocket.Dial(ctx, cfg.URL, opts.header(cfg), opts.Logger)
	if err != nil {
		return nil, NewTransportError(string(TransportWebSocket), "failed to connect", err)
	}
	opts.Logger.Debug("websocket transport connected to %s", conn.RemoteAddr())
	return &websocketTransport{
		url:    cfg.URL,
		conn:   conn,
		logger: opts.Logger,
	}, nil
}

func (t *websocketTransport) Kind() TransportKind {
	return TransportWebSocket
}

func (t *websocketTransport) Send(ctx context.Context, data []byte) error {
	if err := t.conn.Send(ctx, data); err != nil {
		return NewTransportError(string(TransportWebSocket), "failed to send request", err)
	}
	return nil
}

func (t *websocketTransport) Listen(onMessage func([]byte), onClose func(error)) {
	t.listenOnce.Do(func() {
		go t.receiveLoop(onMessage, onClose)
	})
}

func (t *websocketTransport) Close() error {
	return t.conn.Close()
}

// receiveLoop handles incoming messages until the socket ends.
func (t *websocketTransport) receiveLoop(onMessage func([]byte), onClose func(error)) {
	for {
		data, err := t.conn.Receive()
		if err != nil {
			if t.conn.IsClosed() {
				// Closed locally; the owner already knows.
				return
			}
			_ = t.conn.Close()
			if websocket.IsPeerClose(err) {
				t.logger.Info("websocket closed by peer: %v", err)
				onClose(nil)
				return
			}
			t.logger.Error("websocket receive failed: %v", err)
			onClose(NewTransportError(string(TransportWebSocket), "connection lost", err))
			return
		}
		if len(data) == 0 {
			continue
		}
		onMessage(data)
	}
}
