package mcp

import (
	mcpserver "github.com/mark3labs/mcp-go/server"

	zendfi "github.com/zendfi/zendfi-go"
	"github.com/zendfi/zendfi-go/client"
)

// NewServer creates an MCP server with all ZendFi payment tools registered.
func NewServer(name string, c *client.Client) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(name, zendfi.SDKVersion)
	NewTools(c).Register(srv)
	return srv
}

// ServeStdio runs an MCP server with the ZendFi tools over stdio. This is
// the transport desktop agent hosts expect.
func ServeStdio(name string, c *client.Client) error {
	return mcpserver.ServeStdio(NewServer(name, c))
}
