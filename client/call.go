package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/localrivet/callflow/hooks"
	"github.com/localrivet/callflow/protocol"
)

// Call invokes the named tool with args. A nil args value is sent as an
// empty object. A non-nil error means the call could not be completed; an
// error reported by the tool is carried in Response.Error.
func (c *Client) Call(ctx context.Context, name string, args interface{}) (*Response, error) {
	if s := c.Status(); s != StatusConnected {
		return nil, NewStateError(protocol.MethodCallTool, s, ErrNotConnected)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: tool name is required", ErrInvalidCall)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return c.Request(ctx, protocol.MethodCallTool, protocol.CallToolParams{Name: name, Arguments: args})
}

// Request sends an arbitrary method and waits for its response, the
// configured timeout, ctx cancellation or connection teardown, whichever
// comes first.
func (c *Client) Request(ctx context.Context, method string, params interface{}) (*Response, error) {
	c.mu.Lock()
	status := c.Status()
	if status != StatusConnected {
		c.mu.Unlock()
		return nil, NewStateError(method, status, ErrNotConnected)
	}
	t := c.transport
	timeout := c.cfg.Timeout
	p := c.pending.register(method)
	c.mu.Unlock()

	fail := func(err error) (*Response, error) {
		c.pending.reject(p.id, err)
		o := <-p.done
		return o.resp, o.err
	}
	hc := hooks.ClientHookContext{Ctx: ctx, ClientID: c.id, MessageID: p.id, Method: method}
	req, err := c.hooks.RunBeforeSendRequest(hc, protocol.NewRequest(p.id, method, params))
	if err != nil {
		return fail(fmt.Errorf("%w: rejected by hook: %w", ErrInvalidCall, err))
	}
	if req == nil {
		return fail(fmt.Errorf("%w: hook returned no request", ErrInvalidCall))
	}
	data, err := protocol.Marshal(req)
	if err != nil {
		return fail(fmt.Errorf("%w: failed to encode request: %v", ErrInvalidCall, err))
	}
	c.logger.Debug("request %s %s (%d bytes)", p.id, method, len(data))

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch tr := t.(type) {
	case SocketTransport:
		go c.send(callCtx, tr, p, data)
	case ExchangeTransport:
		go c.exchange(callCtx, tr, p, data)
	default:
		c.pending.reject(p.id, NewTransportError(string(t.Kind()), "transport cannot carry requests", nil))
	}

	select {
	case o := <-p.done:
		return o.resp, o.err
	case <-timer.C:
		if c.pending.reject(p.id, NewTimeoutError(method, timeout, nil)) {
			c.logger.Warn("request %s %s timed out after %v", p.id, method, timeout)
		}
	case <-ctx.Done():
		c.pending.reject(p.id, newCanceledError(method, ctx.Err()))
	}
	o := <-p.done
	return o.resp, o.err
}

// send writes a request to a socket transport. A failed write rejects p
// unless ctx ended first, in which case Request settles it as a timeout or
// cancellation.
func (c *Client) send(ctx context.Context, t SocketTransport, p *pendingRequest, data []byte) {
	if err := t.Send(ctx, data); err != nil {
		if ctx.Err() != nil {
			return
		}
		c.pending.reject(p.id, err)
	}
}

// exchange performs the round trip of a stateless call and settles p.
func (c *Client) exchange(ctx context.Context, t ExchangeTransport, p *pendingRequest, data []byte) {
	raw, err := t.Exchange(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			// Request settles it as a timeout or cancellation.
			return
		}
		c.pending.reject(p.id, err)
		return
	}
	env, err := c.decodeInbound(raw)
	if err != nil {
		c.pending.reject(p.id, err)
		return
	}
	if env.ID != p.id {
		c.logger.Debug("response id %q differs from request %s; accepting the only response", env.ID, p.id)
	}
	if q, ok := c.pending.take(p.id); ok {
		q.settle(outcome{resp: newResponse(q, env, len(raw))})
	}
}

// handleMessage matches an inbound socket message to its pending request.
// The id is checked before the full decode; unparseable or unmatched
// messages are logged and dropped.
func (c *Client) handleMessage(data []byte) {
	hc := hooks.ClientHookContext{Ctx: context.Background(), ClientID: c.id}
	raw, err := c.hooks.RunOnReceiveRawMessage(hc, data)
	if err != nil {
		c.logger.Debug("dropping inbound message: rejected by hook: %v", err)
		return
	}
	id, err := protocol.PeekID(raw)
	switch {
	case errors.Is(err, protocol.ErrMissingID):
		c.logger.Debug("ignoring inbound message without id")
		return
	case err != nil:
		c.logger.Warn("dropping inbound message: %v", NewProtocolError("unparseable response", raw, err))
		return
	case !c.pending.has(id):
		c.logger.Debug("dropping response for unknown or settled request %s", id)
		return
	}

	hc.MessageID = id
	env, err := c.decodeEnvelope(hc, raw)
	if err != nil {
		if IsProtocolError(err) {
			c.logger.Warn("dropping inbound message: %v", err)
		} else {
			c.logger.Debug("dropping inbound message: %v", err)
		}
		return
	}
	p, ok := c.pending.take(env.ID)
	if !ok {
		c.logger.Debug("dropping response for unknown or settled request %s", env.ID)
		return
	}
	p.settle(outcome{resp: newResponse(p, env, len(data))})
}

// decodeInbound parses a response envelope, running the inbound hooks around
// the decode. Decode failures are returned as *ProtocolError.
func (c *Client) decodeInbound(raw []byte) (*protocol.Response, error) {
	hc := hooks.ClientHookContext{Ctx: context.Background(), ClientID: c.id}
	raw, err := c.hooks.RunOnReceiveRawMessage(hc, raw)
	if err != nil {
		return nil, fmt.Errorf("rejected by hook: %w", err)
	}
	return c.decodeEnvelope(hc, raw)
}

// decodeEnvelope decodes raw and runs the BeforeHandleResponse hooks.
func (c *Client) decodeEnvelope(hc hooks.ClientHookContext, raw []byte) (*protocol.Response, error) {
	env, err := protocol.DecodeResponse(raw)
	if err != nil {
		return nil, NewProtocolError("unparseable response", raw, err)
	}
	hc.MessageID = env.ID
	env, err = c.hooks.RunBeforeHandleResponse(hc, env)
	if err != nil {
		return nil, fmt.Errorf("rejected by hook: %w", err)
	}
	if env == nil {
		return nil, fmt.Errorf("hook returned no response")
	}
	return env, nil
}
