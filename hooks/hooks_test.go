package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/localrivet/callflow/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBeforeSendRequestChain(t *testing.T) {
	var order []string
	c := &Client{
		BeforeSendRequest: []BeforeSendRequestHook{
			func(hc ClientHookContext, req *protocol.Request) (*protocol.Request, error) {
				order = append(order, "first")
				req.Params = map[string]interface{}{"traced": true}
				return req, nil
			},
			func(hc ClientHookContext, req *protocol.Request) (*protocol.Request, error) {
				order = append(order, "second:"+hc.Method)
				return req, nil
			},
		},
	}

	hc := ClientHookContext{Ctx: context.Background(), MessageID: "1", Method: protocol.MethodListTools}
	req, err := c.RunBeforeSendRequest(hc, protocol.NewRequest("1", protocol.MethodListTools, nil))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"traced": true}, req.Params)
	assert.Equal(t, []string{"first", "second:tools/list"}, order)
}

func TestRunBeforeSendRequestStops(t *testing.T) {
	called := false
	c := &Client{
		BeforeSendRequest: []BeforeSendRequestHook{
			func(hc ClientHookContext, req *protocol.Request) (*protocol.Request, error) {
				return nil, errors.New("blocked")
			},
			func(hc ClientHookContext, req *protocol.Request) (*protocol.Request, error) {
				called = true
				return req, nil
			},
		},
	}
	_, err := c.RunBeforeSendRequest(ClientHookContext{}, protocol.NewRequest("1", protocol.MethodCallTool, nil))
	assert.EqualError(t, err, "blocked")
	assert.False(t, called)
}

func TestRunInboundChains(t *testing.T) {
	c := &Client{
		OnReceiveRawMessage: []OnReceiveRawMessageHook{
			func(hc ClientHookContext, raw []byte) ([]byte, error) {
				return append([]byte(nil), raw[1:]...), nil
			},
		},
		BeforeHandleResponse: []BeforeHandleResponseHook{
			func(hc ClientHookContext, resp *protocol.Response) (*protocol.Response, error) {
				resp.ID = "rewritten"
				return resp, nil
			},
		},
	}

	raw, err := c.RunOnReceiveRawMessage(ClientHookContext{}, []byte("x{}"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))

	resp, err := c.RunBeforeHandleResponse(ClientHookContext{}, &protocol.Response{ID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "rewritten", resp.ID)

	// An empty chain passes values through.
	empty := &Client{}
	raw, err = empty.RunOnReceiveRawMessage(ClientHookContext{}, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(raw))
}
