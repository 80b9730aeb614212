// Package mcp exposes the loader as MCP tools over stdio, so editors and
// agents can inspect the documentation a build would register.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/tsdocgen/pkg/loader"
	"github.com/gnana997/tsdocgen/pkg/mcplog"
)

const serverVersion = "0.1.0-dev"

// Server serves the transform_file, parse_components and options_schema
// tools.
type Server struct {
	mcpServer *server.MCPServer
	loader    *loader.Loader
	callLog   *mcplog.Logger // nil disables the call log
	logger    *slog.Logger
}

// NewServer creates a server backed by l. callLog may be nil.
func NewServer(l *loader.Loader, callLog *mcplog.Logger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{loader: l, callLog: callLog, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if callLog != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("tsdocgen", serverVersion, opts...)
	s.mcpServer.AddTools(
		server.ServerTool{Tool: transformFileTool(), Handler: s.handleTransformFile},
		server.ServerTool{Tool: parseComponentsTool(), Handler: s.handleParseComponents},
		server.ServerTool{Tool: optionsSchemaTool(), Handler: s.handleOptionsSchema},
	)

	return s
}

// MCPServer returns the underlying server, for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("Serving MCP on stdio", "version", serverVersion)
	return server.ServeStdio(s.mcpServer)
}
