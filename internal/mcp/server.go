package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"qnotes/internal/domain"
	"qnotes/internal/logging"
)

// Session is the notebook surface exposed to agents. *app.App implements it.
type Session interface {
	Snapshot(ctx context.Context) (domain.SessionSnapshot, error)
	SetConnection(ctx context.Context, uri string) (domain.SessionSnapshot, error)
	UpdateQuery(ctx context.Context, id int, text string) (domain.SessionSnapshot, error)
	AddQuery(ctx context.Context) (int, domain.SessionSnapshot, error)
	RunQuery(ctx context.Context, id int) (domain.Completion, error)
	RunText(ctx context.Context, id int, text string) (domain.Completion, error)
	Save(ctx context.Context) error
	SaveAs(ctx context.Context, path string) error
	Path() string
	CheckConnection(ctx context.Context) (domain.ConnectionCheck, error)
}

// Server is the MCP server for a query notebook.
// It exposes tools, resources, and prompts so AI agents can edit and run queries.
type Server struct {
	mcp     *server.MCPServer
	session Session
	log     *logrus.Entry
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Session Session
	Logger  *logrus.Logger
	Version string
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := &Server{
		session: deps.Session,
		log:     logger.WithField("component", "mcp"),
	}

	s.mcp = server.NewMCPServer(
		"qnotes-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerSessionTools()
	s.registerQueryTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// errorResult reports a failure the agent should see, as opposed to a
// protocol error.
func errorResult(text string) *mcp.CallToolResult {
	res := textResult(text)
	res.IsError = true
	return res
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
