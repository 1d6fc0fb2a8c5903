// Package hooks defines types that let users inject custom logic into the
// request and response path of a callflow client.
package hooks

import (
	"context"

	"github.com/localrivet/callflow/protocol"
)

// ClientHookContext provides context for client-side hooks.
type ClientHookContext struct {
	Ctx       context.Context
	ClientID  string
	MessageID string // empty for inbound messages that are not yet parsed
	Method    string // empty for inbound messages
}

// BeforeSendRequestHook runs before a request is encoded and sent.
// Return: modified request, error to prevent sending.
type BeforeSendRequestHook func(hookCtx ClientHookContext, request *protocol.Request) (*protocol.Request, error)

// OnReceiveRawMessageHook runs on every inbound payload before parsing.
// Return: modified bytes, error to drop the message.
type OnReceiveRawMessageHook func(hookCtx ClientHookContext, raw []byte) ([]byte, error)

// BeforeHandleResponseHook runs after a response is parsed, before it is
// matched to its pending request.
// Return: modified response, error to drop it.
type BeforeHandleResponseHook func(hookCtx ClientHookContext, response *protocol.Response) (*protocol.Response, error)

// Client groups the hooks registered on a client. Hooks of one kind run in
// registration order, each receiving the output of the previous one.
type Client struct {
	BeforeSendRequest    []BeforeSendRequestHook
	OnReceiveRawMessage  []OnReceiveRawMessageHook
	BeforeHandleResponse []BeforeHandleResponseHook
}

// RunBeforeSendRequest applies the BeforeSendRequest chain.
func (c *Client) RunBeforeSendRequest(hookCtx ClientHookContext, request *protocol.Request) (*protocol.Request, error) {
	var err error
	for _, h := range c.BeforeSendRequest {
		if request, err = h(hookCtx, request); err != nil {
			return nil, err
		}
	}
	return request, nil
}

// RunOnReceiveRawMessage applies the OnReceiveRawMessage chain.
func (c *Client) RunOnReceiveRawMessage(hookCtx ClientHookContext, raw []byte) ([]byte, error) {
	var err error
	for _, h := range c.OnReceiveRawMessage {
		if raw, err = h(hookCtx, raw); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

// RunBeforeHandleResponse applies the BeforeHandleResponse chain.
func (c *Client) RunBeforeHandleResponse(hookCtx ClientHookContext, response *protocol.Response) (*protocol.Response, error) {
	var err error
	for _, h := range c.BeforeHandleResponse {
		if response, err = h(hookCtx, response); err != nil {
			return nil, err
		}
	}
	return response, nil
}
