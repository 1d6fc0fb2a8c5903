package client

import (
	"context"
	"fmt"

	"github.com/localrivet/callflow/protocol"
	"github.com/localrivet/callflow/util/schema"
	"github.com/mitchellh/mapstructure"
)

// Arguments of the built-in tools.
type (
	fileReadArgs struct {
		Path string `json:"path" description:"Path of the file to read"`
	}
	fileWriteArgs struct {
		Path    string `json:"path" description:"Path of the file to write"`
		Content string `json:"content" description:"Content to write"`
	}
	searchArgs struct {
		Query string  `json:"query" description:"Text to search for"`
		Path  *string `json:"path" description:"Directory to search in"`
	}
)

// FallbackTools returns the built-in catalog used when discovery fails.
// Each call returns a fresh copy.
func FallbackTools() []protocol.Tool {
	return []protocol.Tool{
		{
			Name:        "file_read",
			Description: "Read the contents of a file",
			InputSchema: schema.FromStruct(fileReadArgs{}),
		},
		{
			Name:        "file_write",
			Description: "Write content to a file",
			InputSchema: schema.FromStruct(fileWriteArgs{}),
		},
		{
			Name:        "search",
			Description: "Search for text across files",
			InputSchema: schema.FromStruct(searchArgs{}),
		},
	}
}

// ListTools asks the endpoint for its tool catalog. It never fails: on any
// error, including not being connected, it logs a warning and returns
// FallbackTools.
func (c *Client) ListTools(ctx context.Context) []protocol.Tool {
	tools, err := c.fetchTools(ctx)
	if err != nil {
		c.logger.Warn("tool discovery failed, using built-in catalog: %v", err)
		return FallbackTools()
	}
	c.logger.Debug("discovered %d tool(s)", len(tools))
	return tools
}

// RefreshTools runs ListTools and caches the result for Tools.
func (c *Client) RefreshTools(ctx context.Context) []protocol.Tool {
	tools := c.ListTools(ctx)
	c.toolsMu.Lock()
	c.tools = tools
	c.toolsMu.Unlock()
	return tools
}

// Tools returns the catalog cached by the last RefreshTools, or nil.
func (c *Client) Tools() []protocol.Tool {
	c.toolsMu.RLock()
	defer c.toolsMu.RUnlock()
	if c.tools == nil {
		return nil
	}
	return append([]protocol.Tool(nil), c.tools...)
}

func (c *Client) fetchTools(ctx context.Context) ([]protocol.Tool, error) {
	resp, err := c.Request(ctx, protocol.MethodListTools, nil)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := protocol.DecodeResult(resp.Result, &result); err != nil {
		return nil, NewProtocolError("malformed tools/list result", resp.Result, err)
	}
	raw, ok := result["tools"]
	if !ok || raw == nil {
		return []protocol.Tool{}, nil
	}

	tools := []protocol.Tool{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &tools,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, NewProtocolError("malformed tool entry", resp.Result, err)
	}
	for i, t := range tools {
		if t.Name == "" {
			return nil, NewProtocolError(fmt.Sprintf("tool %d has no name", i), resp.Result, nil)
		}
	}
	return tools, nil
}
