package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("explore_database",
		mcp.WithPromptDescription("Connect to a database and survey what it contains"),
		mcp.WithArgument("uri",
			mcp.ArgumentDescription("Connection URI"),
			mcp.RequiredArgument(),
		),
	), s.handleExplorePrompt)
}

func (s *Server) handleExplorePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	uri := req.Params.Arguments["uri"]
	return &mcp.GetPromptResult{
		Description: "Explore a database",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Explore the database at %s. Follow these steps:

1. Use set_connection with the URI, then check_connection
2. Use add_query and run_query on the new id to list tables (the sample query does this)
3. For a few interesting tables, update_query with a small SELECT and run it
4. Summarize what you found, then save_session if the user gave a path

Output from run_query is the raw CLI output (JSON, CSV or tab separated depending on the backend).`, uri),
				},
			},
		},
	}, nil
}
