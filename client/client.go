// Package client implements the remote call client: it connects to a
// tool-serving endpoint over a persistent WebSocket or stateless HTTP
// transport, correlates requests with responses, enforces timeouts and
// reports connection status.
//
// A Client is safe for concurrent use. Calls are multiplexed over the single
// transport it owns; each call is settled exactly once, by its response, its
// timeout, caller cancellation or connection teardown.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/localrivet/callflow/hooks"
	"github.com/localrivet/callflow/logx"
	"github.com/localrivet/callflow/protocol"
)

// StatusListener observes status transitions.
type StatusListener func(old, new Status)

type transition struct {
	old, new Status
}

// Client is a connection manager and request correlator for one endpoint.
type Client struct {
	id                string
	logger            logx.Logger
	factories         map[TransportKind]TransportFactory
	transportOpts     TransportOptions
	reconnect         reconnectPolicy
	discoverOnConnect bool
	hooks             hooks.Client

	// mu serializes status writes, transport ownership and call
	// registration against teardown.
	mu            sync.Mutex
	status        atomic.Int32
	cfg           EndpointConfig
	hasConfig     bool
	transport     Transport
	epoch         uint64
	cancelConnect context.CancelFunc

	pending *correlator

	listenersMu sync.RWMutex
	listeners   []StatusListener
	// transitions queued under mu, delivered in order by one goroutine
	transitions []transition
	dispatching bool

	toolsMu sync.RWMutex
	tools   []protocol.Tool
}

// New creates a disconnected client.
func New(options ...Option) *Client {
	c := &Client{
		id:        uuid.NewString(),
		logger:    logx.NewDefaultLogger(),
		factories: defaultTransportFactories(),
		reconnect: defaultReconnectPolicy(),
		pending:   newCorrelator(),
	}
	for _, option := range options {
		option(c)
	}
	c.transportOpts.Logger = c.logger
	return c
}

// ID returns the unique identifier of this client instance.
func (c *Client) ID() string {
	return c.id
}

// Status returns the current connection status.
func (c *Client) Status() Status {
	return Status(c.status.Load())
}

// IsConnected reports whether the status is connected.
func (c *Client) IsConnected() bool {
	return c.Status() == StatusConnected
}

// Config returns the configuration of the last Connect call.
func (c *Client) Config() (EndpointConfig, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg, c.hasConfig
}

// InFlight returns the number of requests awaiting a response.
func (c *Client) InFlight() int {
	return c.pending.inFlight()
}

// OnStatusChange registers a listener for status transitions. Listeners run
// outside the client's lock, one at a time and in transition order. A
// transition caused concurrently with a running listener is delivered after
// it returns, possibly on the goroutine that delivered the earlier one.
func (c *Client) OnStatusChange(listener StatusListener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// Connect opens a transport to cfg.URL. It fails with a StateError while
// connecting or connected. Opening is bounded by cfg.Timeout and by ctx.
func (c *Client) Connect(ctx context.Context, cfg EndpointConfig) error {
	if s := c.Status(); s == StatusConnecting || s == StatusConnected {
		return NewStateError("connect", s, ErrAlreadyConnected)
	}
	cfg, err := cfg.normalize()
	if err != nil {
		return err
	}
	factory, ok := c.factories[cfg.Transport]
	if !ok || factory == nil {
		return fmt.Errorf("%w: no transport registered for %q", ErrInvalidConfig, cfg.Transport)
	}

	c.mu.Lock()
	if s := c.Status(); s == StatusConnecting || s == StatusConnected {
		c.mu.Unlock()
		return NewStateError("connect", s, ErrAlreadyConnected)
	}
	stale := c.transport
	c.transport = nil
	c.cfg = cfg
	c.hasConfig = true
	c.epoch++
	epoch := c.epoch
	openCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	c.cancelConnect = cancel
	c.setStatusLocked(StatusConnecting)
	c.mu.Unlock()
	c.notify()

	if stale != nil {
		if err := stale.Close(); err != nil {
			c.logger.Warn("failed to close previous transport: %v", err)
		}
	}

	if exp, ok := bearerExpiry(cfg.Credential); ok && time.Now().After(exp) {
		c.logger.Warn("bearer credential expired at %s; the endpoint will likely reject it", exp.Format(time.RFC3339))
	}

	c.logger.Info("connecting to %s over %s (client %s)", cfg.URL, cfg.Transport, c.id)
	t, err := factory(openCtx, cfg, &c.transportOpts)
	if err == nil && t == nil {
		err = NewTransportError(string(cfg.Transport), "factory returned no transport", nil)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		// Disconnect ran while the transport was opening.
		c.mu.Unlock()
		if t != nil {
			_ = t.Close()
		}
		return newCanceledError("connect", context.Canceled)
	}
	c.cancelConnect = nil
	if err != nil {
		c.setStatusLocked(StatusError)
		c.mu.Unlock()
		if t != nil {
			_ = t.Close()
		}
		c.notify()
		err = c.connectError(ctx, openCtx, cfg, err)
		c.logger.Error("connection to %s failed: %v", cfg.URL, err)
		return err
	}
	c.transport = t
	if st, ok := t.(SocketTransport); ok {
		st.Listen(c.handleMessage, func(err error) {
			c.handleTransportClosed(t, err)
		})
	}
	c.setStatusLocked(StatusConnected)
	c.mu.Unlock()
	c.notify()

	c.logger.Info("connected to %s", cfg.URL)
	if c.discoverOnConnect {
		go c.RefreshTools(context.Background())
	}
	return nil
}

// connectError classifies a failed open.
func (c *Client) connectError(ctx, openCtx context.Context, cfg EndpointConfig, err error) error {
	switch {
	case ctx.Err() != nil:
		return newCanceledError("connect", ctx.Err())
	case errors.Is(openCtx.Err(), context.DeadlineExceeded):
		return NewTimeoutError("connect", cfg.Timeout, err)
	case IsTransportError(err):
		return err
	default:
		return NewTransportError(string(cfg.Transport), "failed to connect", err)
	}
}

// Disconnect rejects every pending request with ErrConnectionClosed, closes
// the transport and moves to disconnected. An in-progress Connect is
// aborted. It is a no-op while disconnected.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.Status() == StatusDisconnected {
		c.mu.Unlock()
		return nil
	}
	if c.cancelConnect != nil {
		c.cancelConnect()
		c.cancelConnect = nil
	}
	c.epoch++
	t := c.transport
	c.transport = nil
	rejected := c.pending.rejectAll(newConnectionClosedError(nil))
	c.setStatusLocked(StatusDisconnected)
	c.mu.Unlock()

	if rejected > 0 {
		c.logger.Info("rejected %d pending request(s) on disconnect", rejected)
	}
	var err error
	if t != nil {
		if cerr := t.Close(); cerr != nil {
			err = NewTransportError(string(t.Kind()), "failed to close transport", cerr)
		}
	}
	c.notify()
	c.logger.Info("disconnected")
	return err
}

// Close is an alias for Disconnect.
func (c *Client) Close() error {
	return c.Disconnect()
}

// handleTransportClosed reacts to a socket ending on its own. A nil err is an
// orderly peer close and leads to disconnected; anything else to error.
func (c *Client) handleTransportClosed(t Transport, err error) {
	c.mu.Lock()
	if c.transport != t {
		c.mu.Unlock()
		return
	}
	c.transport = nil
	c.epoch++
	rejected := c.pending.rejectAll(newConnectionClosedError(err))
	next := StatusDisconnected
	if err != nil {
		next = StatusError
	}
	c.setStatusLocked(next)
	c.mu.Unlock()

	_ = t.Close()
	if err != nil {
		c.logger.Error("connection lost: %v (%d pending request(s) rejected)", err, rejected)
	} else {
		c.logger.Warn("connection closed by endpoint (%d pending request(s) rejected)", rejected)
	}
	c.notify()
}

// setStatusLocked must be called with c.mu held. The transition is queued
// for notify.
func (c *Client) setStatusLocked(s Status) {
	old := Status(c.status.Swap(int32(s)))
	if old != s {
		c.transitions = append(c.transitions, transition{old: old, new: s})
	}
}

// notify delivers queued transitions unless another goroutine already is.
func (c *Client) notify() {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	c.dispatching = true
	for len(c.transitions) > 0 {
		tr := c.transitions[0]
		c.transitions = c.transitions[1:]
		c.mu.Unlock()

		c.logger.Debug("status %s -> %s", tr.old, tr.new)
		c.listenersMu.RLock()
		listeners := append([]StatusListener(nil), c.listeners...)
		c.listenersMu.RUnlock()
		for _, l := range listeners {
			l(tr.old, tr.new)
		}

		c.mu.Lock()
	}
	c.dispatching = false
	c.mu.Unlock()
}

func newConnectionClosedError(cause error) error {
	if cause == nil {
		return ErrConnectionClosed
	}
	return fmt.Errorf("%w: %w", ErrConnectionClosed, cause)
}
