package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/oniwiki/confluence-mcp/confluence"
	"github.com/oniwiki/confluence-mcp/version"
)

// Server represents the MCP server for Confluence
type Server struct {
	server *server.MCPServer
	client *confluence.Client
}

// NewServer creates a new MCP server instance backed by the given
// Confluence client
func NewServer(client *confluence.Client) *Server {
	s := server.NewMCPServer("confluence-mcp", version.Version)

	srv := &Server{
		server: s,
		client: client,
	}
	s.AddTools(srv.tools()...)

	return srv
}

// Run starts the MCP server on stdio
func (s *Server) Run() error {
	return server.ServeStdio(s.server)
}

// RunSSE starts the MCP server on the SSE transport, listening on addr.
// baseURL is the externally visible URL clients use to reach it.
func (s *Server) RunSSE(addr, baseURL string) error {
	return server.NewSSEServer(s.server, server.WithBaseURL(baseURL)).Start(addr)
}

func newServerTool(tool mcp.Tool, handler server.ToolHandlerFunc) server.ServerTool {
	return server.ServerTool{
		Tool:    tool,
		Handler: handler,
	}
}
