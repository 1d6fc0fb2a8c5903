// Package websocket provides the client side of a WebSocket connection on
// top of gobwas/ws: dialing with handshake headers, framed text writes and a
// blocking read of the next data frame.
package websocket

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/localrivet/callflow/logx"
)

// DefaultWriteTimeout applies to writes whose context carries no deadline.
const DefaultWriteTimeout = 30 * time.Second

// closeFrameTimeout bounds the best-effort close handshake.
const closeFrameTimeout = 2 * time.Second

// ErrClosed is returned by Send and Receive after Close.
var ErrClosed = errors.New("websocket connection is closed")

// Conn is a client-side WebSocket connection. Send may be called from many
// goroutines; Receive must be called from a single reader goroutine.
type Conn struct {
	conn    net.Conn
	reader  io.Reader
	logger  logx.Logger
	writeMu sync.Mutex
	closed  atomic.Bool
	once    sync.Once
}

// lockedReadWriter routes control-frame replies written by wsutil through
// the connection's write lock.
type lockedReadWriter struct {
	c *Conn
}

func (rw lockedReadWriter) Read(p []byte) (int, error) {
	return rw.c.reader.Read(p)
}

func (rw lockedReadWriter) Write(p []byte) (int, error) {
	rw.c.writeMu.Lock()
	defer rw.c.writeMu.Unlock()
	return rw.c.conn.Write(p)
}

// Dial opens a WebSocket connection. Header is sent with the upgrade
// request; ctx bounds the whole dial and handshake.
func Dial(ctx context.Context, rawURL string, header http.Header, logger logx.Logger) (*Conn, error) {
	if logger == nil {
		logger = logx.NewNilLogger()
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket url: %w", err)
	}
	switch parsed.Scheme {
	case "ws", "wss":
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return nil, fmt.Errorf("invalid websocket url scheme %q", parsed.Scheme)
	}

	dialer := ws.Dialer{}
	if len(header) > 0 {
		dialer.Header = ws.HandshakeHeaderHTTP(header)
	}

	logger.Debug("websocket: dialing %s", parsed.Redacted())
	conn, br, _, err := dialer.Dial(ctx, parsed.String())
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket %s: %w", parsed.Redacted(), err)
	}

	c := &Conn{conn: conn, logger: logger}
	if br != nil {
		// The server may have pipelined frames behind the handshake response.
		c.reader = br
	} else {
		c.reader = bufio.NewReader(conn)
	}
	return c, nil
}

// Send writes data as a single text frame. Cancelling ctx aborts a write
// that is blocked on the peer. A write that fails after part of the frame
// went out leaves the stream unusable, so the socket is shut down and the
// reader sees the failure.
func (c *Conn) Send(ctx context.Context, data []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if len(data) == 0 {
		return fmt.Errorf("cannot send empty message")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultWriteTimeout)
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		c.logger.Warn("websocket: failed to set write deadline: %v", err)
	}
	defer func() {
		if err := c.conn.SetWriteDeadline(time.Time{}); err != nil && !c.closed.Load() {
			c.logger.Warn("websocket: failed to reset write deadline: %v", err)
		}
	}()

	aborted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(aborted)
		_ = c.conn.SetWriteDeadline(time.Now())
	})
	defer func() {
		if !stop() {
			<-aborted
		}
	}()

	w := &countingWriter{w: c.conn}
	if err := wsutil.WriteClientMessage(w, ws.OpText, data); err != nil {
		if w.n > 0 && !c.closed.Load() {
			c.logger.Warn("websocket: write aborted after %d bytes, closing connection", w.n)
			_ = c.conn.Close()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("failed to write websocket message: %w", ctxErr)
		}
		return fmt.Errorf("failed to write websocket message: %w", err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += n
	return n, err
}

// Receive blocks until the next text or binary frame arrives. Ping frames are
// answered and close frames are acknowledged; a close frame from the peer is
// reported as a wsutil.ClosedError.
func (c *Conn) Receive() ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	data, _, err := wsutil.ReadServerData(lockedReadWriter{c: c})
	if err != nil {
		if c.closed.Load() {
			return nil, ErrClosed
		}
		return nil, err
	}
	return data, nil
}

// Close sends a normal-closure frame (best effort) and closes the socket.
// A write in progress is not waited for: the socket is closed under it and
// the write fails. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		c.closed.Store(true)

		if c.writeMu.TryLock() {
			_ = c.conn.SetWriteDeadline(time.Now().Add(closeFrameTimeout))
			body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
			if werr := wsutil.WriteClientMessage(c.conn, ws.OpClose, body); werr != nil {
				c.logger.Debug("websocket: failed to write close frame: %v", werr)
			}
			c.writeMu.Unlock()
		} else {
			c.logger.Debug("websocket: closing with a write in progress")
		}

		err = c.conn.Close()
	})
	return err
}

// IsClosed reports whether Close has been called.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// IsPeerClose reports whether err from Receive means the peer ended the
// connection in an orderly way (close frame or EOF), as opposed to a
// transport fault.
func IsPeerClose(err error) bool {
	if err == nil {
		return false
	}
	var closed wsutil.ClosedError
	if errors.As(err, &closed) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, ErrClosed)
}
