package dbclient

import (
	"context"
	"net"
	"strings"

	"qnotes/internal/domain"

	"github.com/go-sql-driver/mysql"
)

var mysqlURI = credentialedURI(`mysql`)

// MySQLSource runs queries through the mysql client in batch mode.
type MySQLSource struct {
	Binary string
}

func (MySQLSource) Name() domain.BackendKind { return domain.BackendMySQL }

func (MySQLSource) DefaultQuery() string { return "SHOW TABLES;" }

func (MySQLSource) Matches(uri string) bool {
	return strings.HasPrefix(uri, "mysql://")
}

func (MySQLSource) ParseTarget(uri string) (domain.Target, error) {
	t, ok := parseCredentialed(mysqlURI, uri)
	if !ok {
		return domain.Target{}, invalidURI("MySQL")
	}
	return t, nil
}

// BuildCommand glues the password to -p; mysql reads "-p <pw>" as a bare -p
// followed by a database name. An empty password omits -p so mysql does not prompt.
func (s MySQLSource) BuildCommand(uri, query string) (string, error) {
	t, err := s.ParseTarget(uri)
	if err != nil {
		return "", err
	}
	parts := []string{
		quote(s.Binary),
		"-h", quote(t.Host),
		"-P", quote(t.Port),
		"-u", quote(t.User),
	}
	if t.Password != "" {
		parts = append(parts, "-p"+quote(t.Password))
	}
	parts = append(parts,
		"-D", quote(t.Database),
		"--batch",
		"-e", quote(query),
	)
	return commandLine(parts...), nil
}

func (s MySQLSource) Ping(ctx context.Context, uri string) error {
	t, err := s.ParseTarget(uri)
	if err != nil {
		return err
	}
	return pingSQL(ctx, "mysql", buildMySQLDSN(t))
}

// buildMySQLDSN constructs a go-sql-driver DSN from a parsed target.
func buildMySQLDSN(t domain.Target) string {
	cfg := mysql.NewConfig()
	cfg.User = t.User
	cfg.Passwd = t.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(t.Host, t.Port)
	cfg.DBName = t.Database
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}
