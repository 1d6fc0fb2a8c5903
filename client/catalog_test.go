package client

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/localrivet/callflow/logx"
	"github.com/localrivet/callflow/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolNames(tools []protocol.Tool) []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}

func TestFallbackTools(t *testing.T) {
	tools := FallbackTools()
	assert.Equal(t, []string{"file_read", "file_write", "search"}, toolNames(tools))
	for _, tool := range tools {
		assert.NotEmpty(t, tool.Description)
		assert.Equal(t, "object", tool.InputSchema["type"])
	}
	assert.Equal(t, []string{"path", "content"}, tools[1].InputSchema["required"])
	assert.Equal(t, []string{"query"}, tools[2].InputSchema["required"])

	// Callers get their own copy.
	tools[0].Name = "changed"
	assert.Equal(t, "file_read", FallbackTools()[0].Name)
}

func TestListToolsNotConnected(t *testing.T) {
	logger := &logx.RecordingLogger{}
	c, _ := newMockClient(WithLogger(logger))

	tools := c.ListTools(context.Background())
	assert.Equal(t, []string{"file_read", "file_write", "search"}, toolNames(tools))
	assert.True(t, logger.Contains("tool discovery failed"))
}

func TestListToolsDiscovered(t *testing.T) {
	c, sock := connectMock(t, time.Second)

	go func() {
		req := sock.nextRequest(t)
		assert.Equal(t, protocol.MethodListTools, req.Method)
		assert.Empty(t, req.Params)
		sock.deliver(fmt.Sprintf(`{"id":%q,"result":{"tools":[
			{"name":"translate","description":"Translate text","inputSchema":{"type":"object","properties":{"text":{"type":"string"}}}},
			{"name":"summarize","description":"Summarize text","inputSchema":{"type":"object"},
			 "examples":[{"name":"short","arguments":{"text":"abc"}}]}
		]}}`, req.ID))
	}()

	tools := c.ListTools(context.Background())
	require.Len(t, tools, 2)
	assert.Equal(t, "translate", tools[0].Name)
	assert.Equal(t, "Translate text", tools[0].Description)
	assert.Equal(t, "object", tools[0].InputSchema["type"])
	assert.Contains(t, tools[0].InputSchema, "properties")
	require.Len(t, tools[1].Examples, 1)
	assert.Equal(t, "abc", tools[1].Examples[0].Arguments["text"])
}

func TestListToolsFallbackOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "remote error", response: `{"id":%q,"error":{"code":-32601,"message":"method not found"}}`},
		{name: "malformed result", response: `{"id":%q,"result":"tools"}`},
		{name: "nameless tool", response: `{"id":%q,"result":{"tools":[{"description":"?"}]}}`},
		{name: "malformed tool", response: `{"id":%q,"result":{"tools":[{"name":{"nested":true}}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &logx.RecordingLogger{}
			c, sock := connectMock(t, time.Second, WithLogger(logger))

			go func() {
				req := sock.nextRequest(t)
				sock.deliver(fmt.Sprintf(tt.response, req.ID))
			}()

			tools := c.ListTools(context.Background())
			assert.Equal(t, []string{"file_read", "file_write", "search"}, toolNames(tools))
			assert.True(t, logger.Contains("tool discovery failed"))
		})
	}
}

func TestListToolsEmptyCatalog(t *testing.T) {
	c, sock := connectMock(t, time.Second)

	go func() {
		req := sock.nextRequest(t)
		sock.deliver(fmt.Sprintf(`{"id":%q,"result":{}}`, req.ID))
	}()

	tools := c.ListTools(context.Background())
	assert.NotNil(t, tools)
	assert.Empty(t, tools)
}

func TestRefreshToolsCaches(t *testing.T) {
	c, sock := connectMock(t, time.Second)
	assert.Nil(t, c.Tools())

	go func() {
		req := sock.nextRequest(t)
		sock.deliver(fmt.Sprintf(`{"id":%q,"result":{"tools":[{"name":"translate"}]}}`, req.ID))
	}()

	c.RefreshTools(context.Background())
	assert.Equal(t, []string{"translate"}, toolNames(c.Tools()))
}

func TestDiscoverOnConnect(t *testing.T) {
	c, f := newMockClient(WithDiscoverOnConnect())

	go func() {
		req := f.sock.nextRequest(t)
		f.sock.deliver(fmt.Sprintf(`{"id":%q,"result":{"tools":[{"name":"translate"}]}}`, req.ID))
	}()

	require.NoError(t, c.Connect(context.Background(), EndpointConfig{URL: "ws://endpoint.test/rpc"}))
	require.Eventually(t, func() bool { return len(c.Tools()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "translate", c.Tools()[0].Name)
}
