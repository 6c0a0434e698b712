package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

const sessionResourceURI = "qnotes://session"

func (s *Server) registerResources() {
	// ── qnotes://session ───────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		sessionResourceURI,
		"Current Notebook",
		mcp.WithResourceDescription("Connection, queries and last results"),
		mcp.WithMIMEType("application/json"),
	), s.handleSessionResource)
}

func (s *Server) handleSessionResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap, err := s.session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(newSessionView(snap, s.session.Path()), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      sessionResourceURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
