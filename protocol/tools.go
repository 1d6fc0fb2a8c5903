package protocol

// Tool describes an operation offered by an endpoint.
type Tool struct {
	Name         string                 `json:"name" mapstructure:"name"`
	Description  string                 `json:"description" mapstructure:"description"`
	InputSchema  map[string]interface{} `json:"inputSchema" mapstructure:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema,omitempty" mapstructure:"outputSchema"`
	Examples     []ToolExample          `json:"examples,omitempty" mapstructure:"examples"`
}

// ToolExample is a sample invocation shipped with a tool descriptor.
type ToolExample struct {
	Name        string                 `json:"name" mapstructure:"name"`
	Arguments   map[string]interface{} `json:"arguments" mapstructure:"arguments"`
	Description string                 `json:"description,omitempty" mapstructure:"description"`
}

// CallToolParams are the params of a tools/call request.
type CallToolParams struct {
	Name      string      `json:"name"`
	Arguments interface{} `json:"arguments"`
}

// ListToolsResult is the result of a tools/list request.
type ListToolsResult struct {
	Tools []Tool `json:"tools" mapstructure:"tools"`
}
