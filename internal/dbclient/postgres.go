package dbclient

import (
	"context"
	"fmt"
	"strings"

	"qnotes/internal/domain"

	_ "github.com/lib/pq"
)

var postgresURI = credentialedURI(`postgres(?:ql)?`)

// PostgresSource runs queries through psql with CSV output.
type PostgresSource struct {
	Binary string
}

func (PostgresSource) Name() domain.BackendKind { return domain.BackendPostgreSQL }

func (PostgresSource) DefaultQuery() string {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public';"
}

func (PostgresSource) Matches(uri string) bool {
	return strings.HasPrefix(uri, "postgres://") || strings.HasPrefix(uri, "postgresql://")
}

func (PostgresSource) ParseTarget(uri string) (domain.Target, error) {
	t, ok := parseCredentialed(postgresURI, uri)
	if !ok {
		return domain.Target{}, invalidURI("PostgreSQL")
	}
	return t, nil
}

// BuildCommand passes the password through PGPASSWORD; psql has no flag for it.
func (s PostgresSource) BuildCommand(uri, query string) (string, error) {
	t, err := s.ParseTarget(uri)
	if err != nil {
		return "", err
	}
	return commandLine(
		"PGPASSWORD="+quote(t.Password),
		quote(s.Binary),
		"-h", quote(t.Host),
		"-p", quote(t.Port),
		"-U", quote(t.User),
		"-d", quote(t.Database),
		"--csv",
		"-c", quote(query),
	), nil
}

func (s PostgresSource) Ping(ctx context.Context, uri string) error {
	t, err := s.ParseTarget(uri)
	if err != nil {
		return err
	}
	return pingSQL(ctx, "postgres", buildPostgresDSN(t))
}

// buildPostgresDSN constructs a lib/pq key/value connection string.
func buildPostgresDSN(t domain.Target) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pqValue(t.Host), pqValue(t.Port), pqValue(t.User), pqValue(t.Password), pqValue(t.Database),
	)
}

// pqValue single-quotes a value for the key/value DSN format.
func pqValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
