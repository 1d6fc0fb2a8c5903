package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/localrivet/callflow/hooks"
	"github.com/localrivet/callflow/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeforeSendRequestHook(t *testing.T) {
	var seen hooks.ClientHookContext
	c, sock := connectMock(t, time.Second, WithBeforeSendRequest(
		func(hc hooks.ClientHookContext, req *protocol.Request) (*protocol.Request, error) {
			seen = hc
			if p, ok := req.Params.(protocol.CallToolParams); ok && p.Name == "forbidden" {
				return nil, errors.New("tool is blocked")
			}
			return req, nil
		},
	))

	_, err := c.Call(context.Background(), "forbidden", nil)
	assert.ErrorIs(t, err, ErrInvalidCall)
	assert.ErrorContains(t, err, "tool is blocked")
	assert.Empty(t, sock.sent)
	assert.Equal(t, 0, c.InFlight())
	assert.Equal(t, protocol.MethodCallTool, seen.Method)
	assert.Equal(t, c.ID(), seen.ClientID)

	go func() {
		req := sock.nextRequest(t)
		sock.deliver(fmt.Sprintf(`{"id":%q,"result":{}}`, req.ID))
	}()
	_, err = c.Call(context.Background(), "allowed", nil)
	require.NoError(t, err)
}

func TestInboundHooks(t *testing.T) {
	c, sock := connectMock(t, time.Second,
		WithOnReceiveRawMessage(func(hc hooks.ClientHookContext, raw []byte) ([]byte, error) {
			if string(raw) == "heartbeat" {
				return nil, errors.New("not a response")
			}
			return raw, nil
		}),
		WithBeforeHandleResponse(func(hc hooks.ClientHookContext, resp *protocol.Response) (*protocol.Response, error) {
			resp.Result = []byte(`{"rewritten":true}`)
			return resp, nil
		}),
	)

	go func() {
		req := sock.nextRequest(t)
		sock.deliver("heartbeat")
		sock.deliver(fmt.Sprintf(`{"id":%q,"result":{"rewritten":false}}`, req.ID))
	}()

	resp, err := c.Call(context.Background(), "search", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rewritten":true}`, string(resp.Result))
}

func TestBeforeSendRequestHookReturningNil(t *testing.T) {
	c, sock := connectMock(t, 5*time.Second, WithBeforeSendRequest(
		func(hc hooks.ClientHookContext, req *protocol.Request) (*protocol.Request, error) {
			return nil, nil
		},
	))

	start := time.Now()
	_, err := c.Call(context.Background(), "search", nil)
	assert.ErrorIs(t, err, ErrInvalidCall)
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, sock.sent)
	assert.Equal(t, 0, c.InFlight())
}

func TestBeforeHandleResponseHookReturningNil(t *testing.T) {
	c, sock := connectMock(t, 200*time.Millisecond, WithBeforeHandleResponse(
		func(hc hooks.ClientHookContext, resp *protocol.Response) (*protocol.Response, error) {
			return nil, nil
		},
	))

	go func() {
		req := sock.nextRequest(t)
		sock.deliver(fmt.Sprintf(`{"id":%q,"result":{}}`, req.ID))
	}()

	_, err := c.Call(context.Background(), "search", nil)
	assert.True(t, IsTimeoutError(err), "got %v", err)
	assert.Equal(t, StatusConnected, c.Status())
}
