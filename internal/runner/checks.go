// ABOUTME: Built-in protocol checks exercising the MCP handshake and tool surface
// ABOUTME: Each check is a named function run against a shared client

package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/harper/mcp-probe/internal/client"
	"github.com/harper/mcp-probe/internal/jsonrpc"
)

type check struct {
	name string
	fn   func(ctx context.Context, c *client.Client) error
}

func builtinChecks() []check {
	return []check{
		{"connect", checkConnect},
		{"initialize", checkInitialize},
		{"ping", checkPing},
		{"tools/list", checkListTools},
		{"echo round-trip", checkEchoRoundTrip},
		{"error passthrough", checkErrorPassthrough},
	}
}

func checkConnect(ctx context.Context, c *client.Client) error {
	return c.Connect(ctx)
}

func checkInitialize(ctx context.Context, c *client.Client) error {
	if err := c.Initialize(ctx); err != nil {
		return err
	}
	if c.ServerInfo().Name == "" {
		return fmt.Errorf("device reported empty serverInfo.name")
	}
	return nil
}

func checkPing(ctx context.Context, c *client.Client) error {
	return c.Ping(ctx)
}

func checkListTools(ctx context.Context, c *client.Client) error {
	tools, err := c.ListTools(ctx)
	if err != nil {
		return err
	}
	if len(tools) == 0 {
		return fmt.Errorf("device exposes no tools")
	}
	for _, tool := range tools {
		if tool.Name == "" {
			return fmt.Errorf("tool with empty name in tools/list")
		}
	}
	return nil
}

// checkEchoRoundTrip sends a unique token through the echo tool and
// verifies it comes back in the text content.
func checkEchoRoundTrip(ctx context.Context, c *client.Client) error {
	token := "probe-echo-" + uuid.New().String()[:8]

	res, err := c.CallTool(ctx, "echo", map[string]string{"text": token})
	if err != nil {
		return err
	}
	if res.RPCError != nil {
		return fmt.Errorf("echo tool returned error %d: %s", res.RPCError.Code, res.RPCError.Message)
	}
	if res.Result == nil || len(res.Result.Content) == 0 {
		return fmt.Errorf("echo tool returned no content")
	}
	for _, item := range res.Result.Content {
		if item.Type == "text" && strings.Contains(item.Text, token) {
			return nil
		}
	}
	return fmt.Errorf("echo response does not contain token %q", token)
}

// checkErrorPassthrough confirms the device rejects an unknown method
// with -32601 and an unknown tool with a well-formed error value.
func checkErrorPassthrough(ctx context.Context, c *client.Client) error {
	resp, err := c.SendRequest(ctx, "no/such/method", nil)
	if err != nil {
		return fmt.Errorf("unknown method request: %w", err)
	}
	if resp.Error == nil {
		return fmt.Errorf("unknown method was accepted")
	}
	if resp.Error.Code != jsonrpc.MethodNotFound {
		return fmt.Errorf("unknown method: expected code %d, got %d", jsonrpc.MethodNotFound, resp.Error.Code)
	}

	res, err := c.CallTool(ctx, "no_such_tool_"+uuid.New().String()[:8], nil)
	if err != nil {
		return fmt.Errorf("unknown tool call: %w", err)
	}
	if res.RPCError == nil && (res.Result == nil || !res.Result.IsError) {
		return fmt.Errorf("unknown tool call was accepted")
	}

	// tools/call without a tool name must be rejected as invalid params.
	resp, err = c.SendRequest(ctx, "tools/call", map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("nameless tool call: %w", err)
	}
	if resp.Error == nil {
		return fmt.Errorf("nameless tool call was accepted")
	}
	if resp.Error.Code != jsonrpc.InvalidParams {
		return fmt.Errorf("nameless tool call: expected code %d, got %d", jsonrpc.InvalidParams, resp.Error.Code)
	}
	return nil
}
