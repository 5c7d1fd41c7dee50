// Package mcpserver exposes the registered tools over the Model
// Context Protocol, either on stdio or embedded in an HTTP gateway.
package mcpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/warpvault/vaultmcp/internal/tool"
)

// ServerName identifies this server to MCP clients.
const ServerName = "vaultmcp"

// Server adapts a tool registry to the MCP protocol.
type Server struct {
	mcp    *server.MCPServer
	logger *slog.Logger
}

// New builds an MCP server publishing every tool in the registry.
func New(version string, registry *tool.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	for _, name := range registry.Names() {
		t, err := registry.Get(name)
		if err != nil {
			continue
		}
		s.AddTool(
			mcp.NewToolWithRawSchema(t.Name(), t.Description(), t.Schema()),
			handlerFor(t, logger),
		)
	}

	return &Server{mcp: s, logger: logger}
}

// handlerFor bridges one tool into an MCP handler. Tool failures are
// reported as tool results, not protocol errors, so the caller can see
// what went wrong.
func handlerFor(t tool.Tool, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := t.Execute(ctx, request.GetArguments())
		if out.IsError {
			logger.Warn("tool returned error", "tool", t.Name())
			return mcp.NewToolResultError(out.Content), nil
		}
		return mcp.NewToolResultText(out.Content), nil
	}
}

// ServeStdio runs the server on stdin/stdout until the client
// disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// HTTPHandler returns the streamable HTTP transport for mounting into
// a router.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}
