package mcpserver

import (
	"fmt"
	"math"

	"qnotes/internal/domain"
)

// getQueryID reads a positive integer id from tool arguments.
// JSON numbers arrive as float64.
func getQueryID(args map[string]any, key string) (int, error) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	if v < 1 || v != math.Trunc(v) {
		return 0, fmt.Errorf("%s must be a positive integer, got %v", key, v)
	}
	return int(v), nil
}

// queryView is one query as shown to agents.
type queryView struct {
	ID     int                `json:"id"`
	Text   string             `json:"text"`
	Status domain.QueryStatus `json:"status"`
	Result string             `json:"result,omitempty"`
}

// sessionView is the agent-facing rendering of a snapshot. Queries are
// listed in id order.
type sessionView struct {
	Version       uint64      `json:"version"`
	ConnectionURI string      `json:"connectionUri"`
	Backend       string      `json:"backend"`
	Path          string      `json:"path,omitempty"`
	Queries       []queryView `json:"queries"`
}

func newSessionView(snap domain.SessionSnapshot, path string) sessionView {
	v := sessionView{
		Version:       snap.Version,
		ConnectionURI: snap.ConnectionURI,
		Backend:       snap.Backend.String(),
		Path:          path,
		Queries:       make([]queryView, 0, len(snap.Queries)),
	}
	for _, id := range snap.QueryIDs() {
		st := snap.State(id)
		v.Queries = append(v.Queries, queryView{
			ID:     id,
			Text:   snap.Queries[id],
			Status: st.Status,
			Result: st.Result,
		})
	}
	return v
}
