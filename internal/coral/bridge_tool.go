package coral

import (
	"context"
	"log/slog"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/nextlevelbuilder/coralcrew/internal/tools"
)

// BridgeTool adapts a broker-provided MCP tool into the tools.Tool interface.
// Execute delegates to the broker over the shared client session.
type BridgeTool struct {
	name        string
	description string
	inputSchema map[string]interface{}
	client      *Client
}

// NewBridgeTool creates a BridgeTool from a broker tool descriptor.
func NewBridgeTool(mcpTool mcpgo.Tool, client *Client) *BridgeTool {
	return &BridgeTool{
		name:        mcpTool.Name,
		description: mcpTool.Description,
		inputSchema: inputSchemaToMap(mcpTool.InputSchema),
		client:      client,
	}
}

func (t *BridgeTool) Name() string                       { return t.name }
func (t *BridgeTool) Description() string                { return t.description }
func (t *BridgeTool) Parameters() map[string]interface{} { return t.inputSchema }

func (t *BridgeTool) Execute(ctx context.Context, args map[string]interface{}) *tools.Result {
	slog.Debug("calling coral tool", "tool", t.name, "args", jsonArgs(args))

	text, isError, err := t.client.CallTool(ctx, t.name, args)
	if err != nil {
		return tools.ErrorResult(err.Error()).WithError(err)
	}
	if isError {
		return tools.ErrorResult(text)
	}
	return tools.NewResult(text)
}

// inputSchemaToMap converts mcp.ToolInputSchema to the map format expected by
// tools.Tool.Parameters().
func inputSchemaToMap(schema mcpgo.ToolInputSchema) map[string]interface{} {
	m := map[string]interface{}{
		"type": schema.Type,
	}
	if schema.Type == "" {
		m["type"] = "object"
	}
	if len(schema.Properties) > 0 {
		m["properties"] = schema.Properties
	}
	if len(schema.Required) > 0 {
		m["required"] = schema.Required
	}
	return m
}
