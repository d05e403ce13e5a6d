// Package coral connects an agent process to the Coral Server message broker.
//
// The broker speaks MCP over SSE and exposes its operations as tools:
// wait_for_mentions, send_message, close_thread. This package wraps the MCP
// client, bridges broker tools into the local registry and offers typed
// helpers for the loop.
package coral

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/nextlevelbuilder/coralcrew/internal/tools"
)

const (
	toolWaitForMentions = "wait_for_mentions"
	toolSendMessage     = "send_message"
	toolCloseThread     = "close_thread"
)

// Client is a connection to the Coral Server.
type Client struct {
	url       string
	mcp       *mcpclient.Client
	timeout   time.Duration
	connected atomic.Bool
}

// NewClient creates a broker client for the given connection URL.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Client{url: url, timeout: timeout}
}

// Connect establishes the SSE session and performs the MCP handshake.
func (c *Client) Connect(ctx context.Context) error {
	slog.Info("connecting to coral server", "url", c.url)

	mc, err := mcpclient.NewSSEMCPClient(c.url)
	if err != nil {
		return fmt.Errorf("create coral client: %w", err)
	}

	if err := mc.Start(ctx); err != nil {
		return fmt.Errorf("start coral transport: %w", err)
	}

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpgo.Implementation{
		Name:    "coralcrew",
		Version: "1.0.0",
	}
	if _, err := mc.Initialize(ctx, initReq); err != nil {
		mc.Close()
		return fmt.Errorf("initialize coral session: %w", err)
	}

	c.mcp = mc
	c.connected.Store(true)
	slog.Info("coral server connection established")
	return nil
}

// Close shuts down the broker session.
func (c *Client) Close() error {
	c.connected.Store(false)
	if c.mcp == nil {
		return nil
	}
	return c.mcp.Close()
}

// ListTools fetches the broker's tool descriptors.
func (c *Client) ListTools(ctx context.Context) ([]mcpgo.Tool, error) {
	res, err := c.mcp.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list coral tools: %w", err)
	}
	return res.Tools, nil
}

// BridgeTools registers every broker tool into the local registry so the
// reasoning step can call them by name like any agent-owned tool.
func (c *Client) BridgeTools(ctx context.Context, reg *tools.Registry) (int, error) {
	brokerTools, err := c.ListTools(ctx)
	if err != nil {
		return 0, err
	}
	for _, bt := range brokerTools {
		reg.Register(NewBridgeTool(bt, c))
		slog.Debug("bridged coral tool", "tool", bt.Name)
	}
	return len(brokerTools), nil
}

// CallTool invokes a broker tool and returns the concatenated text content.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, bool, error) {
	if !c.connected.Load() {
		return "", false, fmt.Errorf("coral server is disconnected")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := c.mcp.CallTool(callCtx, req)
	if err != nil {
		return "", false, fmt.Errorf("coral tool %q: %w", name, err)
	}
	return extractTextContent(result), result.IsError, nil
}

// WaitForMentions blocks until the broker delivers mentions or the timeout
// elapses. A timeout yields an empty slice, not an error.
func (c *Client) WaitForMentions(ctx context.Context, timeoutMs int) ([]Mention, error) {
	text, isErr, err := c.CallTool(ctx, toolWaitForMentions, map[string]interface{}{
		"timeoutMs": timeoutMs,
	})
	if err != nil {
		return nil, err
	}
	if isErr {
		return nil, fmt.Errorf("wait_for_mentions: %s", text)
	}
	return ParseMentions(text), nil
}

// SendMessage posts a reply on a thread, addressed to the given recipients.
func (c *Client) SendMessage(ctx context.Context, threadID string, mentions []string, content string) error {
	text, isErr, err := c.CallTool(ctx, toolSendMessage, map[string]interface{}{
		"threadId": threadID,
		"mentions": mentions,
		"content":  content,
	})
	if err != nil {
		return err
	}
	if isErr {
		return fmt.Errorf("send_message: %s", text)
	}
	return nil
}

// CloseThread closes a conversation thread on the broker.
func (c *Client) CloseThread(ctx context.Context, threadID string) error {
	text, isErr, err := c.CallTool(ctx, toolCloseThread, map[string]interface{}{
		"threadId": threadID,
	})
	if err != nil {
		return err
	}
	if isErr {
		return fmt.Errorf("close_thread: %s", text)
	}
	return nil
}

func extractTextContent(result *mcpgo.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	var out string
	for i, content := range result.Content {
		var text string
		switch v := content.(type) {
		case mcpgo.TextContent:
			text = v.Text
		case *mcpgo.TextContent:
			text = v.Text
		default:
			text = fmt.Sprintf("[non-text content: %T]", content)
		}
		if i > 0 {
			out += "\n"
		}
		out += text
	}
	return out
}

// jsonArgs renders args for debug logging.
func jsonArgs(args map[string]interface{}) string {
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}
