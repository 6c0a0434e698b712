package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerQueryTools() {
	s.mcp.AddTool(mcp.NewTool("add_query",
		mcp.WithDescription("Add a query holding the backend's sample text and return its id"),
	), s.handleAddQuery)

	s.mcp.AddTool(mcp.NewTool("update_query",
		mcp.WithDescription("Replace the text of a query. Its last result is kept"),
		mcp.WithNumber("id", mcp.Description("Query id"), mcp.Required()),
		mcp.WithString("text", mcp.Description("New query text"), mcp.Required()),
	), s.handleUpdateQuery)

	s.mcp.AddTool(mcp.NewTool("run_query",
		mcp.WithDescription("Run a query against the current connection and return the CLI output"),
		mcp.WithNumber("id", mcp.Description("Query id"), mcp.Required()),
		mcp.WithString("text", mcp.Description("Text to run instead of the stored query (not saved)")),
	), s.handleRunQuery)
}

func (s *Server) handleAddQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, snap, err := s.session.AddQuery(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]any{"id": id, "text": snap.Queries[id]})
}

func (s *Server) handleUpdateQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := getQueryID(args, "id")
	if err != nil {
		return nil, err
	}
	text, ok := args["text"].(string)
	if !ok {
		return nil, fmt.Errorf("text is required")
	}
	if _, err := s.session.UpdateQuery(ctx, id, text); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Query %d updated", id)), nil
}

func (s *Server) handleRunQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := getQueryID(args, "id")
	if err != nil {
		return nil, err
	}

	if text, ok := args["text"].(string); ok && text != "" {
		res, err := s.session.RunText(ctx, id, text)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return completionResult(res.Success, res.Output), nil
	}
	res, err := s.session.RunQuery(ctx, id)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return completionResult(res.Success, res.Output), nil
}

func completionResult(success bool, output string) *mcp.CallToolResult {
	if !success {
		return errorResult(output)
	}
	if output == "" {
		return textResult("(no output)")
	}
	return textResult(output)
}
