package dbclient

import (
	"strings"

	"qnotes/internal/domain"
)

var clickhouseURI = credentialedURI(`clickhouse`)

// ClickHouseSource runs queries through clickhouse-client with JSON output.
// It has no Ping; connectivity checks run SELECT 1 through the client instead.
type ClickHouseSource struct {
	Binary string
}

func (ClickHouseSource) Name() domain.BackendKind { return domain.BackendClickHouse }

func (ClickHouseSource) DefaultQuery() string { return "SHOW TABLES" }

func (ClickHouseSource) Matches(uri string) bool {
	return strings.HasPrefix(uri, "clickhouse://")
}

func (ClickHouseSource) ParseTarget(uri string) (domain.Target, error) {
	t, ok := parseCredentialed(clickhouseURI, uri)
	if !ok {
		return domain.Target{}, invalidURI("ClickHouse")
	}
	return t, nil
}

func (s ClickHouseSource) BuildCommand(uri, query string) (string, error) {
	t, err := s.ParseTarget(uri)
	if err != nil {
		return "", err
	}
	return commandLine(
		quote(s.Binary),
		"--host", quote(t.Host),
		"--port", quote(t.Port),
		"--user", quote(t.User),
		"--password", quote(t.Password),
		"--database", quote(t.Database),
		"--format", "JSON",
		"--query", quote(query),
	), nil
}
