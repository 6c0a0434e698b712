package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"qnotes/internal/logging"
	"qnotes/internal/storage"
)

func (s *Server) registerSessionTools() {
	s.mcp.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Show the connection, every query and the last result of each"),
	), s.handleGetSession)

	s.mcp.AddTool(mcp.NewTool("set_connection",
		mcp.WithDescription("Set the connection URI. The backend is detected from the scheme: sqlite://, postgres://, postgresql://, clickhouse://, redis://, mysql://"),
		mcp.WithString("uri", mcp.Description("Connection URI"), mcp.Required()),
	), s.handleSetConnection)

	s.mcp.AddTool(mcp.NewTool("save_session",
		mcp.WithDescription("Save the notebook to its file. A path is required the first time"),
		mcp.WithString("path", mcp.Description("Destination file (optional once the notebook has been saved)")),
	), s.handleSaveSession)

	s.mcp.AddTool(mcp.NewTool("check_connection",
		mcp.WithDescription("Check that the current connection is reachable"),
	), s.handleCheckConnection)
}

func (s *Server) handleGetSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(newSessionView(snap, s.session.Path()))
}

func (s *Server) handleSetConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri := req.GetString("uri", "")
	if uri == "" {
		return nil, fmt.Errorf("uri is required")
	}
	snap, err := s.session.SetConnection(ctx, uri)
	if err != nil {
		return nil, err
	}
	s.log.Infof("set_connection %s", logging.Mask(uri))
	return textResult(fmt.Sprintf("Connection set, backend: %s", snap.Backend.String())), nil
}

func (s *Server) handleSaveSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	var err error
	if path != "" {
		err = s.session.SaveAs(ctx, path)
	} else {
		err = s.session.Save(ctx)
	}
	if errors.Is(err, storage.ErrNoPath) {
		return errorResult("The notebook has not been saved yet; call save_session with a path"), nil
	}
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult("Saved to " + s.session.Path()), nil
}

func (s *Server) handleCheckConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	check, err := s.session.CheckConnection(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("Connection failed (%s): %v", check.Backend.String(), err)), nil
	}
	return jsonResult(check)
}
