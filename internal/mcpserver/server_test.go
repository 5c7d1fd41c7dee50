package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/warpvault/vaultmcp/internal/tool"
)

type echoTool struct{ fail bool }

func (e *echoTool) Name() string            { return "echo" }
func (e *echoTool) Description() string     { return "Echo the input back" }
func (e *echoTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }

func (e *echoTool) Execute(_ context.Context, args map[string]any) tool.Output {
	if e.fail {
		return tool.Errorf("echo failed")
	}
	return tool.Text(fmt.Sprintf("echo: %v", args["text"]))
}

func newRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = "echo"
	req.Params.Arguments = args
	return req
}

func TestNewRegistersTools(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	if err := reg.Register(&echoTool{}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	srv := New("test", reg, slog.New(slog.DiscardHandler))
	if srv.HTTPHandler() == nil {
		t.Fatal("HTTPHandler returned nil")
	}
}

func TestHandlerSuccess(t *testing.T) {
	t.Parallel()

	h := handlerFor(&echoTool{}, slog.New(slog.DiscardHandler))
	res, err := h(context.Background(), newRequest(map[string]any{"text": "hello"}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatal("unexpected error result")
	}

	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T", res.Content[0])
	}
	if text.Text != "echo: hello" {
		t.Errorf("text = %q", text.Text)
	}
}

func TestHandlerToolErrorIsResultNotProtocolError(t *testing.T) {
	t.Parallel()

	h := handlerFor(&echoTool{fail: true}, slog.New(slog.DiscardHandler))
	res, err := h(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("tool failure must not be a protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result")
	}
}
