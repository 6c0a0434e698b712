package dbclient

import (
	"context"
	"regexp"
	"strings"

	"qnotes/internal/domain"

	_ "modernc.org/sqlite"
)

var sqliteURI = regexp.MustCompile(`^sqlite://(.+)$`)

// SQLiteSource runs queries through the sqlite3 shell in JSON mode.
type SQLiteSource struct {
	Binary string
}

func (SQLiteSource) Name() domain.BackendKind { return domain.BackendSQLite }

func (SQLiteSource) DefaultQuery() string {
	return "SELECT name FROM sqlite_master WHERE type='table';"
}

func (SQLiteSource) Matches(uri string) bool {
	return strings.HasPrefix(uri, "sqlite://")
}

// ParseTarget extracts the database path (or ":memory:").
func (SQLiteSource) ParseTarget(uri string) (domain.Target, error) {
	m := sqliteURI.FindStringSubmatch(uri)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return domain.Target{}, invalidURI("SQLite")
	}
	return domain.Target{Path: m[1]}, nil
}

// BuildCommand ends option parsing with "--" so that a path or a query
// starting with a dash, such as a leading "-- comment", stays positional.
func (s SQLiteSource) BuildCommand(uri, query string) (string, error) {
	t, err := s.ParseTarget(uri)
	if err != nil {
		return "", err
	}
	return commandLine(quote(s.Binary), "-json", "--", quote(t.Path), quote(query)), nil
}

// Ping opens the file read-only and runs a trivial query.
// Opening read-only keeps a mistyped path from creating an empty database.
func (s SQLiteSource) Ping(ctx context.Context, uri string) error {
	t, err := s.ParseTarget(uri)
	if err != nil {
		return err
	}
	dsn := t.Path
	if dsn != ":memory:" {
		dsn = "file:" + dsn + "?mode=ro"
	}
	return pingSQL(ctx, "sqlite", dsn)
}
