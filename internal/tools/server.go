package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "resonance"
	serverVersion = "0.1.0"
)

// Server owns the MCP server and its registered tools.
type Server struct {
	mcpServer *mcp.Server
}

// NewServer creates an MCP server with every tool registered against deps.
func NewServer(deps Deps) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	Register(mcpServer, deps)
	return &Server{mcpServer: mcpServer}
}

// Register adds every tool to server.
func Register(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, SearchTool(), SearchHandler(deps))
	mcp.AddTool(server, SavedTracksTool(), SavedTracksHandler(deps))
	mcp.AddTool(server, PlaylistsTool(), PlaylistsHandler(deps))
	mcp.AddTool(server, CreatePlaylistTool(), CreatePlaylistHandler(deps))
	mcp.AddTool(server, AddToPlaylistTool(), AddToPlaylistHandler(deps))
	mcp.AddTool(server, RemoveFromPlaylistTool(), RemoveFromPlaylistHandler(deps))
	mcp.AddTool(server, TrackTool(), TrackHandler(deps))
}

// Serve runs the server on stdio and blocks until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport treats context cancellation as a clean stop.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
