package domain

// BackendKind identifies the database family a connection URI points at.
type BackendKind string

const (
	BackendSQLite     BackendKind = "sqlite"
	BackendPostgreSQL BackendKind = "postgresql"
	BackendClickHouse BackendKind = "clickhouse"
	BackendRedis      BackendKind = "redis"
	BackendMySQL      BackendKind = "mysql"

	// BackendUnknown is returned when no adapter matches a URI.
	BackendUnknown BackendKind = ""
)

// Known reports whether k names a supported backend.
func (k BackendKind) Known() bool {
	switch k {
	case BackendSQLite, BackendPostgreSQL, BackendClickHouse, BackendRedis, BackendMySQL:
		return true
	}
	return false
}

// String returns the tag, or "unknown".
func (k BackendKind) String() string {
	if k == BackendUnknown {
		return "unknown"
	}
	return string(k)
}

// Source is a backend adapter. Implementations are immutable values:
// BuildCommand must be a pure function of its arguments.
type Source interface {
	Name() BackendKind
	DefaultQuery() string
	Matches(uri string) bool
	BuildCommand(uri, query string) (string, error)
}

// Target holds the fields parsed out of a connection URI.
// Path is only set for file-based backends (sqlite).
type Target struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"-"`
	Database string `json:"database"`
	Path     string `json:"path,omitempty"`
}
